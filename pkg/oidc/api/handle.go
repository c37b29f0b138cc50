package api

import (
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/jwtauth/v5"
	"github.com/go-chi/render"
	apperrors "github.com/tendant/simple-authz/pkg/errors"
	"github.com/tendant/simple-authz/pkg/oidc"
	"github.com/tendant/simple-authz/pkg/ratelimit"
)

// DeviceIDHeader optionally identifies the device presenting a refresh token
const DeviceIDHeader = "X-Device-ID"

// Handle implements the HTTP endpoints of the authorization server
type Handle struct {
	service   *oidc.OIDCService
	sessions  SessionProvider
	publicURL string
}

// NewHandle creates a new OIDC API handle. publicURL is the externally
// visible base URL, used to build the return URL for the login page.
func NewHandle(service *oidc.OIDCService, sessions SessionProvider, publicURL string) *Handle {
	return &Handle{
		service:   service,
		sessions:  sessions,
		publicURL: strings.TrimSuffix(publicURL, "/"),
	}
}

// Authorize handles GET /authorize
func (h *Handle) Authorize(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	req := oidc.AuthorizeRequest{
		ResponseType:        q.Get("response_type"),
		ClientID:            q.Get("client_id"),
		RedirectURI:         q.Get("redirect_uri"),
		Scope:               q.Get("scope"),
		State:               q.Get("state"),
		Nonce:               q.Get("nonce"),
		CodeChallenge:       q.Get("code_challenge"),
		CodeChallengeMethod: q.Get("code_challenge_method"),
	}

	slog.Info("OIDC Authorization request received",
		"client_id", req.ClientID,
		"redirect_uri", req.RedirectURI,
		"response_type", req.ResponseType,
		"scope", req.Scope)

	if err := h.service.ValidateAuthorizeRequest(req); err != nil {
		writePlainError(w, r, err)
		return
	}

	identity, sessErr := h.sessions.Identify(r)
	if sessErr != nil {
		returnURL := h.publicURL + r.URL.RequestURI()
		loginURL, err := h.service.BuildLoginRedirectURL(returnURL)
		if err != nil {
			writePlainError(w, r, apperrors.ServerError(err, "failed to build login URL"))
			return
		}
		slog.Info("User not authenticated, redirecting to login", "reason", sessErr)
		http.Redirect(w, r, loginURL, http.StatusFound)
		return
	}

	callbackURL, err := h.service.IssueCode(r.Context(), req, *identity)
	if err != nil {
		writePlainError(w, r, err)
		return
	}
	http.Redirect(w, r, callbackURL, http.StatusFound)
}

// Token handles POST /token
func (h *Handle) Token(w http.ResponseWriter, r *http.Request) {
	setNoStore(w)

	if err := r.ParseForm(); err != nil {
		writeError(w, r, apperrors.InvalidRequest("failed to parse form data"))
		return
	}

	basic, err := basicCredentials(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	tokenReq, err := oidc.ParseTokenRequest(r.PostForm, basic, requestMeta(r))
	if err != nil {
		writeError(w, r, err)
		return
	}

	slog.Info("OIDC Token request received", "grant_type", tokenReq.GrantType(), "client_id", tokenReq.Credentials().ClientID)

	resp, err := h.service.Exchange(r.Context(), tokenReq)
	if err != nil {
		writeError(w, r, err)
		return
	}
	render.JSON(w, r, resp)
}

// UserInfo handles GET and POST /userinfo
func (h *Handle) UserInfo(w http.ResponseWriter, r *http.Request) {
	info, err := h.service.UserInfo(jwtauth.TokenFromHeader(r))
	if err != nil {
		e := apperrors.From(err)
		w.Header().Set("WWW-Authenticate", fmt.Sprintf(`Bearer error=%q, error_description=%q`, e.Code, e.Message))
		writeError(w, r, e)
		return
	}
	render.JSON(w, r, info)
}

// Logout handles GET /logout
func (h *Handle) Logout(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	target, err := h.service.Logout(oidc.LogoutRequest{
		IDTokenHint:           q.Get("id_token_hint"),
		PostLogoutRedirectURI: q.Get("post_logout_redirect_uri"),
		State:                 q.Get("state"),
	})
	if err != nil {
		writePlainError(w, r, err)
		return
	}

	h.sessions.EndSession(w, r)
	if target == "" {
		render.PlainText(w, r, "logged out")
		return
	}
	http.Redirect(w, r, target, http.StatusFound)
}

// Revoke handles POST /revoke
func (h *Handle) Revoke(w http.ResponseWriter, r *http.Request) {
	setNoStore(w)

	if err := r.ParseForm(); err != nil {
		writeError(w, r, apperrors.InvalidRequest("failed to parse form data"))
		return
	}
	basic, err := basicCredentials(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	creds, err := oidc.ResolveClientCredentials(r.PostForm, basic)
	if err != nil {
		writeError(w, r, err)
		return
	}

	if err := h.service.Revoke(r.Context(), creds, r.PostForm.Get("token")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

// basicCredentials reads client_secret_basic credentials, which are
// form-encoded before being base64 encoded
func basicCredentials(r *http.Request) (*oidc.ClientCredentials, error) {
	user, pass, ok := r.BasicAuth()
	if !ok {
		return nil, nil
	}
	clientID, err := url.QueryUnescape(user)
	if err != nil {
		return nil, apperrors.InvalidClient("malformed client credentials")
	}
	secret, err := url.QueryUnescape(pass)
	if err != nil {
		return nil, apperrors.InvalidClient("malformed client credentials")
	}
	return &oidc.ClientCredentials{ClientID: clientID, ClientSecret: secret}, nil
}

func requestMeta(r *http.Request) oidc.RequestMeta {
	deviceID := r.PostForm.Get("device_id")
	if deviceID == "" {
		deviceID = r.Header.Get(DeviceIDHeader)
	}
	return oidc.RequestMeta{
		IPAddress: ratelimit.ClientIP(r),
		DeviceID:  deviceID,
	}
}

func setNoStore(w http.ResponseWriter) {
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("Pragma", "no-cache")
}

// writeError renders an OAuth2 JSON error body
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	e := apperrors.From(err)
	if e.Code == apperrors.ErrCodeServerError {
		slog.Error("OIDC request failed", "path", r.URL.Path, "error", e)
	}
	if e.Code == apperrors.ErrCodeInvalidClient {
		if _, _, ok := r.BasicAuth(); ok {
			w.Header().Set("WWW-Authenticate", `Basic realm="token"`)
		}
	}
	render.Status(r, e.HTTPStatusCode())
	render.JSON(w, r, e.Response())
}

// writePlainError renders a plain text error for browser-facing endpoints,
// which must never redirect on failure
func writePlainError(w http.ResponseWriter, r *http.Request, err error) {
	e := apperrors.From(err)
	status := e.HTTPStatusCode()
	if e.Code == apperrors.ErrCodeServerError {
		slog.Error("OIDC request failed", "path", r.URL.Path, "error", e)
	} else {
		status = http.StatusBadRequest
	}
	render.Status(r, status)
	render.PlainText(w, r, fmt.Sprintf("%s: %s", e.Code, e.Message))
}
