// Package transport implements service.Dispatcher over the HTTP API of the
// command execution service. Messages are JSON-encoded and POSTed to one
// path per RPC method. Retries and backoff are deliberately not handled
// here - errors are reported to the caller as-is.
package transport

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"golang.org/x/net/http2"

	"github.com/BaukJ/databricks-sql-python/conf"
	"github.com/BaukJ/databricks-sql-python/errors"
	"github.com/BaukJ/databricks-sql-python/service"
)

// serverError is the JSON body the service returns on a non-2xx status
type serverError struct {
	Error string `json:"error"`
}

// HTTPClient dispatches requests to the service over HTTP, or HTTP/2 with
// TLS when certificates are configured. Safe for use from a single logical
// thread of control, which is all the driver requires.
type HTTPClient struct {
	httpClient *http.Client
	baseURL    string
	authHeader string
}

var _ service.Dispatcher = &HTTPClient{}

func NewHTTPClient(cfg *conf.Config) (*HTTPClient, error) {
	client := &http.Client{Timeout: cfg.RequestTimeout}
	scheme := "http"
	tlsConfig, err := cfg.TLS.BuildTLSConfig()
	if err != nil {
		return nil, err
	}
	if tlsConfig != nil {
		scheme = "https"
		client.Transport = &http2.Transport{
			TLSClientConfig: tlsConfig,
		}
	}
	c := &HTTPClient{
		httpClient: client,
		baseURL:    fmt.Sprintf("%s://%s:%d%s", scheme, cfg.ServerHostname, cfg.Port, cfg.HTTPPath),
	}
	if cfg.AccessToken != "" {
		c.authHeader = "Bearer " + cfg.AccessToken
	}
	return c, nil
}

func (c *HTTPClient) MakeRequest(method service.Method, req interface{}, resp interface{}) error {
	body, err := json.Marshal(req)
	if err != nil {
		return errors.WithStack(err)
	}
	uri := fmt.Sprintf("%s/%s", c.baseURL, method)
	httpReq, err := http.NewRequest(http.MethodPost, uri, bytes.NewReader(body))
	if err != nil {
		return errors.WithStack(err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("X-Request-Id", uuid.New().String())
	if c.authHeader != "" {
		httpReq.Header.Set("Authorization", c.authHeader)
	}
	log.Debugf("sending %s request to %s", method, uri)
	httpResp, err := c.httpClient.Do(httpReq) //nolint:bodyclose
	if err != nil {
		return errors.NewInterfaceErrorf("%s request failed: %v", method, err)
	}
	defer closeResponseBody(httpResp)
	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return errors.NewInterfaceErrorf("failed to read %s response: %v", method, err)
	}
	if httpResp.StatusCode != http.StatusOK {
		var srvErr serverError
		if err := json.Unmarshal(respBody, &srvErr); err == nil && srvErr.Error != "" {
			return errors.NewDatabaseError(srvErr.Error)
		}
		return errors.NewInterfaceErrorf("%s request returned status %d", method, httpResp.StatusCode)
	}
	if err := json.Unmarshal(respBody, resp); err != nil {
		return errors.NewInterfaceErrorf("failed to decode %s response: %v", method, err)
	}
	return nil
}

func closeResponseBody(resp *http.Response) {
	if err := resp.Body.Close(); err != nil {
		log.Errorf("failed to close http response %v", err)
	}
}
