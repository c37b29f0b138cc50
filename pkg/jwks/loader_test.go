package jwks

import (
	"crypto/x509"
	"encoding/pem"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tendant/simple-authz/pkg/config"
)

func TestLoadSigningKey(t *testing.T) {
	dir := t.TempDir()

	t.Run("loads PKCS#1 file", func(t *testing.T) {
		privateKey := newTestKey(t)
		path := filepath.Join(dir, "pkcs1.pem")
		require.NoError(t, os.WriteFile(path, EncodePrivateKeyToPEM(privateKey), 0o600))

		key, err := LoadSigningKey(config.JWKSConfig{PrivateKeyFile: path}, config.Production)
		require.NoError(t, err)
		assert.True(t, key.PublicKey().Equal(&privateKey.PublicKey))
	})

	t.Run("loads PKCS#8 file with configured kid", func(t *testing.T) {
		privateKey := newTestKey(t)
		der, err := x509.MarshalPKCS8PrivateKey(privateKey)
		require.NoError(t, err)
		path := filepath.Join(dir, "pkcs8.pem")
		require.NoError(t, os.WriteFile(path, pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: der}), 0o600))

		key, err := LoadSigningKey(config.JWKSConfig{PrivateKeyFile: path, KeyID: "configured"}, config.Production)
		require.NoError(t, err)
		assert.Equal(t, "configured", key.KeyID())
	})

	t.Run("missing file outside development", func(t *testing.T) {
		_, err := LoadSigningKey(config.JWKSConfig{PrivateKeyFile: filepath.Join(dir, "missing.pem")}, config.Production)
		assert.Error(t, err)
	})

	t.Run("missing file in development generates key", func(t *testing.T) {
		key, err := LoadSigningKey(config.JWKSConfig{PrivateKeyFile: filepath.Join(dir, "missing.pem")}, config.Development)
		require.NoError(t, err)
		assert.NotEmpty(t, key.KeyID())
	})

	t.Run("garbage file", func(t *testing.T) {
		path := filepath.Join(dir, "garbage.pem")
		require.NoError(t, os.WriteFile(path, []byte("not a key"), 0o600))

		_, err := LoadSigningKey(config.JWKSConfig{PrivateKeyFile: path}, config.Development)
		assert.Error(t, err)
	})
}
