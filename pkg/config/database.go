package config

import (
	dbutils "github.com/tendant/db-utils/db"
)

// DatabaseConfig holds PostgreSQL settings for the refresh token store
type DatabaseConfig struct {
	Host     string `env:"AUTHZ_PG_HOST" env-default:"localhost"`
	Port     uint16 `env:"AUTHZ_PG_PORT" env-default:"5432"`
	Database string `env:"AUTHZ_PG_DATABASE" env-default:"authz_db"`
	User     string `env:"AUTHZ_PG_USER" env-default:"authz"`
	Password string `env:"AUTHZ_PG_PASSWORD" env-default:"pwd"`
}

// ToDbConfig converts the config to a db-utils DbConfig
func (d DatabaseConfig) ToDbConfig() dbutils.DbConfig {
	return dbutils.DbConfig{
		Host:     d.Host,
		Port:     d.Port,
		Database: d.Database,
		User:     d.User,
		Password: d.Password,
	}
}

// Validate checks the connection settings
func (d DatabaseConfig) Validate() ValidationErrors {
	var portErr *ValidationError
	if d.Port == 0 {
		portErr = &ValidationError{Field: "AUTHZ_PG_PORT", Message: "port must be between 1 and 65535"}
	}
	return CollectErrors(
		RequireNonEmpty("AUTHZ_PG_HOST", d.Host),
		RequireNonEmpty("AUTHZ_PG_DATABASE", d.Database),
		RequireNonEmpty("AUTHZ_PG_USER", d.User),
		portErr,
	)
}
