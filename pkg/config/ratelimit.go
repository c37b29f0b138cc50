package config

import "time"

// RateLimitConfig limits requests to the token and revocation endpoints per client IP
type RateLimitConfig struct {
	Enabled    bool          `env:"RATE_LIMIT_TOKEN_ENABLED" env-default:"true"`
	Rate       float64       `env:"RATE_LIMIT_TOKEN_RATE" env-default:"1"`
	Burst      int           `env:"RATE_LIMIT_TOKEN_BURST" env-default:"20"`
	IdleExpiry time.Duration `env:"RATE_LIMIT_TOKEN_IDLE_EXPIRY" env-default:"10m"`
}

// Validate checks the limiter settings when enabled
func (c RateLimitConfig) Validate() ValidationErrors {
	if !c.Enabled {
		return nil
	}
	var burstErr *ValidationError
	if c.Burst <= 0 {
		burstErr = &ValidationError{Field: "RATE_LIMIT_TOKEN_BURST", Message: "must be positive"}
	}
	return CollectErrors(
		RequirePositiveFloat("RATE_LIMIT_TOKEN_RATE", c.Rate),
		burstErr,
	)
}
