package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/tendant/simple-authz/pkg/wellknown"
)

// RouterOptions holds the handlers mounted next to the OIDC endpoints
type RouterOptions struct {
	// Discovery serves /.well-known/openid-configuration
	Discovery *wellknown.Handler

	// JWKS serves /.well-known/jwks.json
	JWKS http.Handler

	// RateLimit wraps /token and /revoke when set
	RateLimit func(http.Handler) http.Handler

	// TrustProxyHeaders takes the client address from X-Forwarded-For or
	// X-Real-IP. Only enable it behind a proxy that overwrites those headers.
	TrustProxyHeaders bool
}

// Routes returns a router with every endpoint of the authorization server
func (h *Handle) Routes(opts RouterOptions) chi.Router {
	r := chi.NewRouter()
	if opts.TrustProxyHeaders {
		r.Use(middleware.RealIP)
	}

	// Metadata is fetched cross-origin by browser-based clients
	r.Group(func(r chi.Router) {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: []string{"*"},
			AllowedMethods: []string{http.MethodGet, http.MethodOptions},
			MaxAge:         3600,
		}))
		if opts.Discovery != nil {
			opts.Discovery.RegisterRoutes(r)
		}
		if opts.JWKS != nil {
			r.Method(http.MethodGet, wellknown.JWKSPath, opts.JWKS)
		}
	})

	r.Get(wellknown.AuthorizePath, h.Authorize)
	r.Get(wellknown.LogoutPath, h.Logout)
	r.Get(wellknown.UserInfoPath, h.UserInfo)
	r.Post(wellknown.UserInfoPath, h.UserInfo)

	r.Group(func(r chi.Router) {
		if opts.RateLimit != nil {
			r.Use(opts.RateLimit)
		}
		r.Post(wellknown.TokenPath, h.Token)
		r.Post(wellknown.RevokePath, h.Revoke)
	})

	return r
}
