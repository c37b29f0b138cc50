package jwks

import (
	"fmt"
	"net/http"

	"github.com/go-chi/render"
)

// CacheMaxAge is the Cache-Control max-age of the JWKS response, in seconds
const CacheMaxAge = 3600

// Handler serves the public key set of a SigningKey
type Handler struct {
	key *SigningKey
}

// NewHandler creates a JWKS handler for key
func NewHandler(key *SigningKey) *Handler {
	return &Handler{key: key}
}

// ServeHTTP handles GET /.well-known/jwks.json
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Cache-Control", fmt.Sprintf("public, max-age=%d", CacheMaxAge))
	w.Header().Set("X-Content-Type-Options", "nosniff")
	render.JSON(w, r, h.key.JWKS())
}
