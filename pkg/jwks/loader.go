package jwks

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"github.com/tendant/simple-authz/pkg/config"
)

// LoadSigningKey reads the RSA private key named by cfg.PrivateKeyFile.
// In development a missing file yields an ephemeral key so the server can
// start without provisioning; tokens signed with it do not survive a restart.
func LoadSigningKey(cfg config.JWKSConfig, env config.Environment) (*SigningKey, error) {
	if cfg.IsConfigured() {
		pemData, err := os.ReadFile(cfg.PrivateKeyFile)
		switch {
		case err == nil:
			privateKey, err := DecodePrivateKeyFromPEM(pemData)
			if err != nil {
				return nil, fmt.Errorf("failed to decode private key %s: %w", cfg.PrivateKeyFile, err)
			}
			key, err := NewSigningKey(privateKey, cfg.KeyID)
			if err != nil {
				return nil, err
			}
			slog.Info("Loaded signing key", "file", cfg.PrivateKeyFile, "kid", key.KeyID())
			return key, nil
		case !errors.Is(err, fs.ErrNotExist):
			return nil, fmt.Errorf("failed to read private key %s: %w", cfg.PrivateKeyFile, err)
		}
	}

	if !env.IsDevelopment() {
		return nil, fmt.Errorf("signing key file %q not found; ephemeral keys are only allowed in development", cfg.PrivateKeyFile)
	}

	bits := cfg.KeyBits
	if bits < 2048 {
		bits = 2048
	}
	privateKey, err := GenerateRSAKeyPair(bits)
	if err != nil {
		return nil, fmt.Errorf("failed to generate signing key: %w", err)
	}
	key, err := NewSigningKey(privateKey, cfg.KeyID)
	if err != nil {
		return nil, err
	}
	slog.Warn("Using ephemeral signing key, issued tokens will not verify after restart", "kid", key.KeyID())
	return key, nil
}
