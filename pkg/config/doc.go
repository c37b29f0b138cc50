// Package config provides configuration sections and helpers for simple-authz.
//
// Each section is a plain struct with cleanenv tags, so the command composes
// them into one struct and loads it with a single call:
//
//	type Config struct {
//		Database config.DatabaseConfig
//		Redis    config.RedisConfig
//		Client   config.OAuth2ClientConfig
//		OIDC     config.OIDCConfig
//		JWKS     config.JWKSConfig
//		Session  config.SessionConfig
//	}
//
//	var cfg Config
//	if err := cleanenv.ReadEnv(&cfg); err != nil { ... }
//
// # Environments
//
// APP_ENV selects the Environment; unknown values are rejected. Only
// Development accepts plain http issuer and redirect URLs, the default
// session secret, and an ephemeral signing key.
//
//	env, err := config.ParseEnvironment(os.Getenv("APP_ENV"))
//	if env.IsDevelopment() { ... }
//
// # Validation
//
// Sections expose Validate methods returning ValidationErrors. Combine them
// with Validate:
//
//	err := config.Validate(
//		func() config.ValidationErrors { return cfg.Client.Validate(env) },
//		func() config.ValidationErrors { return cfg.OIDC.Validate(env) },
//	)
package config
