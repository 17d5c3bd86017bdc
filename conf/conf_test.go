package conf

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestParseDSN(t *testing.T) {
	cfg, err := ParseDSN("token:supersecret@example.cloud.databricks.com:443/sql/1.0/endpoints/12346a5b5b0e123a?maxRows=100&timeout=60")
	require.NoError(t, err)
	require.Equal(t, "example.cloud.databricks.com", cfg.ServerHostname)
	require.Equal(t, 443, cfg.Port)
	require.Equal(t, "/sql/1.0/endpoints/12346a5b5b0e123a", cfg.HTTPPath)
	require.Equal(t, "supersecret", cfg.AccessToken)
	require.Equal(t, int64(100), cfg.MaxRows)
	require.Equal(t, 60*time.Second, cfg.RequestTimeout)
}

func TestParseDSNDefaults(t *testing.T) {
	cfg, err := ParseDSN("token:tok@host/path")
	require.NoError(t, err)
	require.Equal(t, DefaultPort, cfg.Port)
	require.Equal(t, int64(DefaultMaxRows), cfg.MaxRows)
	require.Equal(t, time.Duration(DefaultRequestTimeout), cfg.RequestTimeout)
}

func TestParseDSNErrors(t *testing.T) {
	tests := []struct {
		name string
		dsn  string
	}{
		{name: "wrong credential scheme", dsn: "user:pw@host:443/path"},
		{name: "missing token", dsn: "token@host:443/path"},
		{name: "bad max rows", dsn: "token:tok@host:443/path?maxRows=none"},
		{name: "negative max rows", dsn: "token:tok@host:443/path?maxRows=-1"},
		{name: "bad timeout", dsn: "token:tok@host:443/path?timeout=-2"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseDSN(tt.dsn)
			require.Error(t, err)
		})
	}
}

func TestValidate(t *testing.T) {
	valid := Config{ServerHostname: "host", Port: 443, HTTPPath: "/sql", MaxRows: 100}
	require.NoError(t, valid.Validate())

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{name: "missing hostname", mutate: func(c *Config) { c.ServerHostname = "" }},
		{name: "port out of range", mutate: func(c *Config) { c.Port = 100000 }},
		{name: "negative max rows", mutate: func(c *Config) { c.MaxRows = -1 }},
		{name: "negative timeout", mutate: func(c *Config) { c.RequestTimeout = -time.Second }},
		{name: "relative http path", mutate: func(c *Config) { c.HTTPPath = "sql" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid
			tt.mutate(&cfg)
			require.Error(t, cfg.Validate())
		})
	}
}
