package postgres

import (
	"fmt"
	"net/url"

	"dashboard-cache/internal/common/errors"
)

type Config struct {
	Host     string
	Port     string
	Database string
	Username string
	Password string
	SSLMode  string
	// QuotaBytes caps the summed byte length of keys and values. Zero means unbounded.
	QuotaBytes int64
	// ConnString, when set, is used verbatim instead of the fields above.
	ConnString string
}

func (c *Config) Validate() error {
	if c.ConnString != "" {
		return nil
	}
	if c.Host == "" {
		return errors.ConfigError("postgres host is required")
	}
	if c.Database == "" {
		return errors.ConfigError("postgres database is required")
	}
	if c.Username == "" {
		return errors.ConfigError("postgres username is required")
	}
	if c.QuotaBytes < 0 {
		return errors.ConfigError("quota must not be negative")
	}
	return nil
}

func (c *Config) GetType() string {
	return "postgres"
}

func (c *Config) GetConnectionString() string {
	if c.ConnString != "" {
		return c.ConnString
	}

	port := c.Port
	if port == "" {
		port = "5432"
	}
	sslMode := c.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}

	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.Username, c.Password),
		Host:     fmt.Sprintf("%s:%s", c.Host, port),
		Path:     "/" + c.Database,
		RawQuery: "sslmode=" + url.QueryEscape(sslMode),
	}
	return u.String()
}
