package tokengenerator

import "time"

const (
	DefaultAccessTokenExpiry = 15 * time.Minute
	DefaultIDTokenExpiry     = 15 * time.Minute
)

// Option configures an RSATokenIssuer
type Option func(*RSATokenIssuer)

// WithAccessTokenExpiry sets the access token lifetime
func WithAccessTokenExpiry(expiry time.Duration) Option {
	return func(i *RSATokenIssuer) {
		if expiry > 0 {
			i.accessTokenExpiry = expiry
		}
	}
}

// WithIDTokenExpiry sets the ID token lifetime
func WithIDTokenExpiry(expiry time.Duration) Option {
	return func(i *RSATokenIssuer) {
		if expiry > 0 {
			i.idTokenExpiry = expiry
		}
	}
}

// WithClock replaces time.Now, for tests
func WithClock(now func() time.Time) Option {
	return func(i *RSATokenIssuer) {
		i.now = now
	}
}
