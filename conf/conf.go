package conf

import (
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/BaukJ/databricks-sql-python/conf/tls"
	"github.com/BaukJ/databricks-sql-python/errors"
)

const (
	DefaultPort           = 443
	DefaultMaxRows        = 10000
	DefaultRequestTimeout = 0 // no timeout
)

// Config holds everything needed to reach the command execution service.
type Config struct {
	ServerHostname string          `help:"Hostname of the command execution service." json:"server_hostname,omitempty"`
	Port           int             `help:"Port of the command execution service." json:"port,omitempty" default:"443"`
	HTTPPath       string          `help:"HTTP path of the warehouse endpoint." json:"http_path,omitempty"`
	AccessToken    string          `help:"Personal access token used as the bearer credential." json:"-"`
	MaxRows        int64           `help:"Max rows fetched per request." json:"max_rows,omitempty" default:"10000"`
	RequestTimeout time.Duration   `help:"Timeout applied to each request. Zero means no timeout." json:"request_timeout,omitempty"`
	TLS            tls.CertsConfig `embed:"" prefix:"tls-" json:"tls,omitempty"`
}

func (c *Config) Validate() error {
	if c.ServerHostname == "" {
		return errors.NewInvalidConfigurationError("ServerHostname must be specified")
	}
	if c.Port < 0 || c.Port > 65535 {
		return errors.NewInvalidConfigurationError("Port must be in the range 0-65535")
	}
	if c.MaxRows < 0 {
		return errors.NewInvalidConfigurationError("MaxRows must be >= 0")
	}
	if c.RequestTimeout < 0 {
		return errors.NewInvalidConfigurationError("RequestTimeout must be >= 0")
	}
	if c.HTTPPath != "" && !strings.HasPrefix(c.HTTPPath, "/") {
		return errors.NewInvalidConfigurationError("HTTPPath must start with /")
	}
	return nil
}

// ApplyDefaults fills zero-valued fields with the documented defaults
func (c *Config) ApplyDefaults() {
	if c.Port == 0 {
		c.Port = DefaultPort
	}
	if c.MaxRows == 0 {
		c.MaxRows = DefaultMaxRows
	}
}

// ParseDSN parses a data source name of the form
//
//	token:[my_token]@[hostname]:[port]/[http_path]?param=value
//
// Supported params are maxRows and timeout (seconds).
func ParseDSN(dsn string) (*Config, error) {
	u, err := url.Parse("https://" + dsn)
	if err != nil {
		return nil, errors.NewInvalidConfigurationError("cannot parse DSN: " + err.Error())
	}
	cfg := &Config{
		ServerHostname: u.Hostname(),
		HTTPPath:       u.Path,
	}
	if user := u.User; user != nil {
		if user.Username() != "token" {
			return nil, errors.NewInvalidConfigurationError("DSN credentials must be of the form token:<my_token>")
		}
		tok, ok := user.Password()
		if !ok {
			return nil, errors.NewInvalidConfigurationError("DSN is missing the access token")
		}
		cfg.AccessToken = tok
	}
	if p := u.Port(); p != "" {
		port, err := strconv.Atoi(p)
		if err != nil {
			return nil, errors.NewInvalidConfigurationError("invalid port in DSN: " + p)
		}
		cfg.Port = port
	}
	params := u.Query()
	if v := params.Get("maxRows"); v != "" {
		maxRows, err := strconv.ParseInt(v, 10, 64)
		if err != nil || maxRows <= 0 {
			return nil, errors.NewInvalidConfigurationError("invalid maxRows value: " + v)
		}
		cfg.MaxRows = maxRows
	}
	if v := params.Get("timeout"); v != "" {
		secs, err := strconv.Atoi(v)
		if err != nil || secs < 0 {
			return nil, errors.NewInvalidConfigurationError("invalid timeout value: " + v)
		}
		cfg.RequestTimeout = time.Duration(secs) * time.Second
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
