package wellknown

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
)

// Handler serves the discovery document
type Handler struct {
	metadata *ProviderMetadata
}

// NewHandler creates a new well-known endpoints handler
func NewHandler(config Config) *Handler {
	return &Handler{
		metadata: NewProviderMetadata(config),
	}
}

// Metadata returns the document served by the handler
func (h *Handler) Metadata() *ProviderMetadata {
	return h.metadata
}

// OpenIDConfiguration handles GET /.well-known/openid-configuration
// and GET /.well-known/oauth-authorization-server
func (h *Handler) OpenIDConfiguration(w http.ResponseWriter, r *http.Request) {
	slog.Debug("Discovery document requested", "path", r.URL.Path)

	w.Header().Set("Cache-Control", "public, max-age=3600")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	render.JSON(w, r, h.metadata)
}

// RegisterRoutes registers the discovery routes on a chi router
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/.well-known/openid-configuration", h.OpenIDConfiguration)
	r.Get("/.well-known/oauth-authorization-server", h.OpenIDConfiguration)
}
