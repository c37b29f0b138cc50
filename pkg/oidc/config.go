package oidc

import (
	"fmt"
	"net/url"
)

// Config holds the settings of the OIDCService that are not collaborators
type Config struct {
	// LoginURL is the external login page unauthenticated callers are sent to
	LoginURL string `json:"login_url"`

	// ReturnParam is the query parameter carrying the URL to come back to after login
	ReturnParam string `json:"return_param"`
}

// DefaultConfig returns a Config with sensible defaults
func DefaultConfig() Config {
	return Config{
		LoginURL:    "http://localhost:3000/login",
		ReturnParam: "redirect",
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.LoginURL == "" {
		return fmt.Errorf("login_url is required")
	}
	u, err := url.Parse(c.LoginURL)
	if err != nil {
		return fmt.Errorf("invalid login_url: %w", err)
	}
	if !u.IsAbs() {
		return fmt.Errorf("login_url must be absolute, got %q", c.LoginURL)
	}
	if c.ReturnParam == "" {
		return fmt.Errorf("return_param is required")
	}
	return nil
}

// WithConfig applies a Config to the OIDCService
func WithConfig(config Config) Option {
	return func(s *OIDCService) {
		s.loginURL = config.LoginURL
		s.returnParam = config.ReturnParam
	}
}
