package config

import (
	"fmt"
	"strings"
	"time"
)

// OAuth2ClientConfig describes the single statically configured client.
// RedirectURIs and PostLogoutRedirectURIs are paths relative to BaseURL.
type OAuth2ClientConfig struct {
	ClientID               string   `env:"OAUTH2_CLIENT_ID" env-default:"finance-web"`
	ClientSecret           string   `env:"OAUTH2_CLIENT_SECRET"`
	BaseURL                string   `env:"OAUTH2_CLIENT_BASE_URL" env-default:"http://localhost:3000"`
	RedirectURIs           []string `env:"OAUTH2_REDIRECT_URIS" env-separator:"," env-default:"/callback"`
	PostLogoutRedirectURIs []string `env:"OAUTH2_POST_LOGOUT_REDIRECT_URIS" env-separator:"," env-default:"/"`
}

// Validate checks the client settings. Outside development the base URL must be https.
func (c OAuth2ClientConfig) Validate(env Environment) ValidationErrors {
	errs := CollectErrors(
		RequireNonEmpty("OAUTH2_CLIENT_ID", c.ClientID),
		RequireNonEmpty("OAUTH2_CLIENT_SECRET", c.ClientSecret),
		RequireHTTPSURLUnlessDevelopment("OAUTH2_CLIENT_BASE_URL", c.BaseURL, env),
		RequireNonEmptySlice("OAUTH2_REDIRECT_URIS", c.RedirectURIs),
	)

	for _, path := range append(append([]string{}, c.RedirectURIs...), c.PostLogoutRedirectURIs...) {
		if !strings.HasPrefix(path, "/") {
			errs = append(errs, ValidationError{
				Field:   "OAUTH2_REDIRECT_URIS",
				Message: fmt.Sprintf("redirect paths must start with '/', got %q", path),
			})
		}
	}
	return errs
}

// OIDCConfig holds issuer, login and lifetime settings of the authorization server
type OIDCConfig struct {
	Issuer                 string        `env:"OIDC_ISSUER" env-default:"http://localhost:4000"`
	LoginURL               string        `env:"OIDC_LOGIN_URL" env-default:"http://localhost:3000/login"`
	CodeExpiration         time.Duration `env:"OIDC_CODE_EXPIRATION" env-default:"5m"`
	AccessTokenExpiration  time.Duration `env:"OIDC_ACCESS_TOKEN_EXPIRATION" env-default:"15m"`
	IDTokenExpiration      time.Duration `env:"OIDC_ID_TOKEN_EXPIRATION" env-default:"15m"`
	RefreshTokenExpiration time.Duration `env:"OIDC_REFRESH_TOKEN_EXPIRATION" env-default:"720h"`
	Scopes                 []string      `env:"OIDC_SCOPES" env-separator:"," env-default:"openid,profile,email,offline_access"`
}

// Validate checks the issuer settings and token lifetimes
func (c OIDCConfig) Validate(env Environment) ValidationErrors {
	return CollectErrors(
		RequireHTTPSURLUnlessDevelopment("OIDC_ISSUER", c.Issuer, env),
		RequireAbsoluteURL("OIDC_LOGIN_URL", c.LoginURL),
		RequirePositiveDuration("OIDC_CODE_EXPIRATION", c.CodeExpiration),
		RequirePositiveDuration("OIDC_ACCESS_TOKEN_EXPIRATION", c.AccessTokenExpiration),
		RequirePositiveDuration("OIDC_ID_TOKEN_EXPIRATION", c.IDTokenExpiration),
		RequirePositiveDuration("OIDC_REFRESH_TOKEN_EXPIRATION", c.RefreshTokenExpiration),
	)
}
