package config

// JWKSConfig contains the RSA signing key settings.
// An empty KeyID means the kid is derived from the key's thumbprint.
type JWKSConfig struct {
	KeyID          string `env:"JWKS_KEY_ID" env-default:""`
	PrivateKeyFile string `env:"JWKS_PRIVATE_KEY_FILE" env-default:"jwt-private.pem"`
	KeyBits        int    `env:"JWKS_GENERATED_KEY_BITS" env-default:"2048"`
}

// IsConfigured returns true if the JWKS config has a private key file specified
func (c JWKSConfig) IsConfigured() bool {
	return c.PrivateKeyFile != ""
}
