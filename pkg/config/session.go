package config

// SessionConfig describes how the external login session is recognised.
// The login application issues an HS256 token signed with JWTSecret and
// stores it in the cookie named CookieName.
type SessionConfig struct {
	JWTSecret  string `env:"SESSION_JWT_SECRET" env-default:"very-secure-jwt-secret"`
	CookieName string `env:"SESSION_COOKIE_NAME" env-default:"access_token"`
}

// Validate checks the session settings. The default secret is refused outside development.
func (c SessionConfig) Validate(env Environment) ValidationErrors {
	errs := CollectErrors(
		RequireNonEmpty("SESSION_COOKIE_NAME", c.CookieName),
		RequireMinLength("SESSION_JWT_SECRET", c.JWTSecret, 16),
	)
	if !env.IsDevelopment() && c.JWTSecret == "very-secure-jwt-secret" {
		errs = append(errs, ValidationError{Field: "SESSION_JWT_SECRET", Message: "default secret is only allowed in development"})
	}
	return errs
}
