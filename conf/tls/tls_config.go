package tls

import (
	"crypto/tls"
	"crypto/x509"
	"os"

	"github.com/BaukJ/databricks-sql-python/errors"
)

// CertsConfig is the client-side TLS configuration. CACert pins the server
// certificate; Key and Cert enable mutual TLS when both are set.
type CertsConfig struct {
	// nolint: golint
	CACert string `help:"PEM-encoded CA certificate file path." json:"ca_cert,omitempty"`
	Key    string `help:"Private PEM-encoded key file path." xor:"cert" json:"key,omitempty"`
	Cert   string `help:"Public PEM-encoded cert file path." xor:"cert" json:"cert,omitempty"`
}

// Enabled reports whether any TLS material has been configured
func (c *CertsConfig) Enabled() bool {
	return c.CACert != "" || c.Cert != ""
}

// BuildTLSConfig loads the configured certificates into a tls.Config suitable
// for the HTTP transport. Returns nil when no TLS material is configured.
func (c *CertsConfig) BuildTLSConfig() (*tls.Config, error) {
	if !c.Enabled() {
		return nil, nil
	}
	tlsConfig := &tls.Config{MinVersion: tls.VersionTLS12}
	if c.CACert != "" {
		caCert, err := os.ReadFile(c.CACert)
		if err != nil {
			return nil, errors.Errorf("failed to open %q: %s", c.CACert, err)
		}
		caCertPool := x509.NewCertPool()
		if !caCertPool.AppendCertsFromPEM(caCert) {
			return nil, errors.Errorf("failed to parse CA certificate %q", c.CACert)
		}
		tlsConfig.RootCAs = caCertPool
	}
	if c.Cert != "" || c.Key != "" {
		if c.Cert == "" || c.Key == "" {
			return nil, errors.New("both Cert and Key must be specified for mutual TLS")
		}
		keyPair, err := tls.LoadX509KeyPair(c.Cert, c.Key)
		if err != nil {
			return nil, errors.WithStack(err)
		}
		tlsConfig.Certificates = []tls.Certificate{keyPair}
	}
	return tlsConfig, nil
}
