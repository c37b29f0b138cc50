package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/jwtauth/v5"
	"github.com/tendant/simple-authz/pkg/oidc"
)

// ErrNoSession is returned when the request carries no valid login session
var ErrNoSession = errors.New("no authenticated session")

// SessionProvider answers whether a request is authenticated and as whom.
// Login itself happens elsewhere; this server only reads the result.
type SessionProvider interface {
	Identify(r *http.Request) (*oidc.Identity, error)
	EndSession(w http.ResponseWriter, r *http.Request)
}

// JWTSession reads the HS256 login token that the login application stores
// in a cookie or sends as a bearer token
type JWTSession struct {
	auth       *jwtauth.JWTAuth
	cookieName string
	secure     bool
}

// NewJWTSession creates a session reader for tokens signed with secret.
// secure marks the cleared cookie as Secure on logout.
func NewJWTSession(secret, cookieName string, secure bool) *JWTSession {
	return &JWTSession{
		auth:       jwtauth.New("HS256", []byte(secret), nil),
		cookieName: cookieName,
		secure:     secure,
	}
}

func (s *JWTSession) tokenFromRequest(r *http.Request) string {
	if tok := jwtauth.TokenFromHeader(r); tok != "" {
		return tok
	}
	if cookie, err := r.Cookie(s.cookieName); err == nil {
		return cookie.Value
	}
	return ""
}

// Identify verifies the login token and extracts sub, username and email
func (s *JWTSession) Identify(r *http.Request) (*oidc.Identity, error) {
	tok := s.tokenFromRequest(r)
	if tok == "" {
		return nil, ErrNoSession
	}

	token, err := jwtauth.VerifyToken(s.auth, tok)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoSession, err)
	}

	claims, err := token.AsMap(r.Context())
	if err != nil {
		return nil, fmt.Errorf("failed to extract claims from token: %w", err)
	}

	sub, _ := claims["sub"].(string)
	if sub == "" {
		return nil, fmt.Errorf("%w: token missing required 'sub' claim", ErrNoSession)
	}

	identity := &oidc.Identity{UserID: sub, Username: sub}
	if username, ok := claims["username"].(string); ok && username != "" {
		identity.Username = username
	} else if username, ok := claims["preferred_username"].(string); ok && username != "" {
		identity.Username = username
	}
	if email, ok := claims["email"].(string); ok {
		identity.Email = email
	}
	return identity, nil
}

// EndSession clears the login cookie
func (s *JWTSession) EndSession(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     s.cookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	})
}
