package config

import "time"

// RedisConfig holds settings for the shared authorization code store.
// Leaving Addr empty selects the in-process store, which is only correct
// for a single instance.
type RedisConfig struct {
	Addr         string        `env:"AUTHZ_REDIS_ADDR" env-default:""`
	Username     string        `env:"AUTHZ_REDIS_USERNAME" env-default:""`
	Password     string        `env:"AUTHZ_REDIS_PASSWORD" env-default:""`
	DB           int           `env:"AUTHZ_REDIS_DB" env-default:"0"`
	KeyPrefix    string        `env:"AUTHZ_REDIS_KEY_PREFIX" env-default:"authz:"`
	DialTimeout  time.Duration `env:"AUTHZ_REDIS_DIAL_TIMEOUT" env-default:"5s"`
	ReadTimeout  time.Duration `env:"AUTHZ_REDIS_READ_TIMEOUT" env-default:"3s"`
	WriteTimeout time.Duration `env:"AUTHZ_REDIS_WRITE_TIMEOUT" env-default:"3s"`
}

// IsConfigured returns true if a Redis address is set
func (c RedisConfig) IsConfigured() bool {
	return c.Addr != ""
}

// Validate checks the Redis settings when Redis is enabled
func (c RedisConfig) Validate() ValidationErrors {
	if !c.IsConfigured() {
		return nil
	}
	return CollectErrors(
		RequireNonEmpty("AUTHZ_REDIS_KEY_PREFIX", c.KeyPrefix),
		RequirePositiveDuration("AUTHZ_REDIS_DIAL_TIMEOUT", c.DialTimeout),
	)
}
