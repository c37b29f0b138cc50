package wellknown

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenIDConfiguration(t *testing.T) {
	h := NewHandler(Config{
		Issuer:                 "https://auth.example.com/",
		Scopes:                 []string{"openid", "offline_access"},
		PostLogoutRedirectURIs: []string{"https://app.example.com/"},
	})
	r := chi.NewRouter()
	h.RegisterRoutes(r)

	for _, path := range []string{"/.well-known/openid-configuration", "/.well-known/oauth-authorization-server"} {
		t.Run(path, func(t *testing.T) {
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
			require.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, "public, max-age=3600", rec.Header().Get("Cache-Control"))

			var doc map[string]any
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &doc))
			assert.Equal(t, "https://auth.example.com/", doc["issuer"])
			assert.Equal(t, "https://auth.example.com/authorize", doc["authorization_endpoint"])
			assert.Equal(t, "https://auth.example.com/token", doc["token_endpoint"])
			assert.Equal(t, "https://auth.example.com/.well-known/jwks.json", doc["jwks_uri"])
			assert.Equal(t, "https://auth.example.com/logout", doc["end_session_endpoint"])
			assert.Equal(t, []any{"RS256"}, doc["id_token_signing_alg_values_supported"])
			assert.Equal(t, []any{"authorization_code", "refresh_token"}, doc["grant_types_supported"])
			assert.Equal(t, []any{"https://app.example.com/"}, doc["post_logout_redirect_uris"])
		})
	}

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/.well-known/openid-configuration", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
