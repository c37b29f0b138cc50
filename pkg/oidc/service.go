package oidc

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	apperrors "github.com/tendant/simple-authz/pkg/errors"
	"github.com/tendant/simple-authz/pkg/oauth2client"
	"github.com/tendant/simple-authz/pkg/pkce"
	"github.com/tendant/simple-authz/pkg/refreshtoken"
	"github.com/tendant/simple-authz/pkg/tokengenerator"
)

// ResponseTypeCode is the only supported response_type
const ResponseTypeCode = "code"

// TokenTypeBearer is the token_type of every access token
const TokenTypeBearer = "Bearer"

// Identity is who the session facility says the caller is
type Identity struct {
	UserID   string
	Username string
	Email    string
}

// AuthorizeRequest holds the /authorize query parameters
type AuthorizeRequest struct {
	ResponseType        string
	ClientID            string
	RedirectURI         string
	Scope               string
	State               string
	Nonce               string
	CodeChallenge       string
	CodeChallengeMethod string
}

// TokenResponse is the body of a successful /token response
type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
	IDToken      string `json:"id_token"`
	RefreshToken string `json:"refresh_token"`
	Scope        string `json:"scope,omitempty"`
}

// UserInfo is the body of a /userinfo response
type UserInfo struct {
	Sub  string `json:"sub"`
	Name string `json:"name"`
}

// LogoutRequest holds the /logout query parameters
type LogoutRequest struct {
	IDTokenHint           string
	PostLogoutRedirectURI string
	State                 string
}

// OIDCService implements the authorization server flows
type OIDCService struct {
	codes         AuthorizationCodeStore
	authenticator oauth2client.ClientAuthenticator
	clients       *oauth2client.ClientService
	refreshTokens *refreshtoken.Service
	tokens        tokengenerator.TokenIssuer
	loginURL      string
	returnParam   string
	now           func() time.Time
}

// Option is a function that configures an OIDCService
type Option func(*OIDCService)

// WithLoginURL sets the login URL for redirecting unauthenticated users
func WithLoginURL(url string) Option {
	return func(s *OIDCService) {
		s.loginURL = url
	}
}

// WithClock overrides the time source, used by tests
func WithClock(now func() time.Time) Option {
	return func(s *OIDCService) {
		s.now = now
	}
}

// NewOIDCService wires the authorization server from its collaborators
func NewOIDCService(
	codes AuthorizationCodeStore,
	authenticator oauth2client.ClientAuthenticator,
	clients *oauth2client.ClientService,
	refreshTokens *refreshtoken.Service,
	tokens tokengenerator.TokenIssuer,
	opts ...Option,
) *OIDCService {
	defaults := DefaultConfig()
	service := &OIDCService{
		codes:         codes,
		authenticator: authenticator,
		clients:       clients,
		refreshTokens: refreshTokens,
		tokens:        tokens,
		loginURL:      defaults.LoginURL,
		returnParam:   defaults.ReturnParam,
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(service)
	}
	return service
}

// ValidateAuthorizeRequest checks client_id, then redirect_uri, then the
// remaining parameters. Errors must be shown to the caller, never redirected.
func (s *OIDCService) ValidateAuthorizeRequest(req AuthorizeRequest) error {
	if err := s.clients.ValidateClientID(req.ClientID); err != nil {
		return apperrors.InvalidRequest("invalid client_id")
	}
	if err := s.clients.ValidateRedirectURI(req.RedirectURI); err != nil {
		slog.Warn("Rejected authorization redirect_uri", "client_id", req.ClientID, "redirect_uri", req.RedirectURI, "reason", err)
		return apperrors.InvalidRequest("invalid redirect_uri")
	}
	if req.ResponseType != ResponseTypeCode {
		return apperrors.New(apperrors.ErrCodeUnsupportedResponseType, "response_type must be code")
	}
	if req.CodeChallenge == "" && req.CodeChallengeMethod != "" {
		return apperrors.InvalidRequest("code_challenge_method requires code_challenge")
	}
	if req.CodeChallenge != "" {
		if _, err := pkce.ParseChallengeMethod(req.CodeChallengeMethod); err != nil {
			return apperrors.InvalidRequest(err.Error())
		}
	}
	return nil
}

// GenerateCode returns a new opaque authorization code
func GenerateCode() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate authorization code: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// IssueCode stores a code for an authenticated caller and returns the
// redirect_uri carrying code and state. req must already be validated.
func (s *OIDCService) IssueCode(ctx context.Context, req AuthorizeRequest, identity Identity) (string, error) {
	code, err := GenerateCode()
	if err != nil {
		return "", err
	}

	var method string
	if req.CodeChallenge != "" {
		m, err := pkce.ParseChallengeMethod(req.CodeChallengeMethod)
		if err != nil {
			return "", apperrors.InvalidRequest(err.Error())
		}
		method = string(m)
	}

	reqCtx := &AuthorizationRequestContext{
		UserID:              identity.UserID,
		Username:            identity.Username,
		Email:               identity.Email,
		ClientID:            req.ClientID,
		RedirectURI:         req.RedirectURI,
		Scope:               req.Scope,
		State:               req.State,
		Nonce:               req.Nonce,
		CodeChallenge:       req.CodeChallenge,
		CodeChallengeMethod: method,
		IssuedAt:            s.now(),
	}
	if err := s.codes.Store(ctx, code, reqCtx); err != nil {
		return "", fmt.Errorf("failed to store authorization code: %w", err)
	}

	slog.Info("Authorization code issued", "client_id", req.ClientID, "username", identity.Username)
	return BuildCallbackURL(req.RedirectURI, code, req.State)
}

// BuildCallbackURL adds code and state to the redirect URI
func BuildCallbackURL(redirectURI, code, state string) (string, error) {
	u, err := url.Parse(redirectURI)
	if err != nil {
		return "", err
	}

	q := u.Query()
	q.Set("code", code)
	if state != "" {
		q.Set("state", state)
	}
	u.RawQuery = q.Encode()

	return u.String(), nil
}

// BuildLoginRedirectURL sends the caller to the login page, asking it to return to returnURL
func (s *OIDCService) BuildLoginRedirectURL(returnURL string) (string, error) {
	u, err := url.Parse(s.loginURL)
	if err != nil {
		return "", fmt.Errorf("invalid login URL: %w", err)
	}
	q := u.Query()
	q.Set(s.returnParam, returnURL)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func (s *OIDCService) authenticate(creds ClientCredentials) error {
	if creds.ClientID == "" || creds.ClientSecret == "" {
		return apperrors.InvalidClient("client authentication required")
	}
	if !s.authenticator.Validate(creds.ClientID, creds.ClientSecret) {
		slog.Warn("Client authentication failed", "client_id", creds.ClientID)
		return apperrors.InvalidClient("client authentication failed")
	}
	return nil
}

// Exchange authenticates the client and redeems the grant
func (s *OIDCService) Exchange(ctx context.Context, req TokenRequest) (*TokenResponse, error) {
	if err := s.authenticate(req.Credentials()); err != nil {
		return nil, err
	}

	switch r := req.(type) {
	case *AuthorizationCodeRequest:
		return s.exchangeCode(ctx, r)
	case *RefreshTokenRequest:
		return s.refresh(ctx, r)
	default:
		return nil, apperrors.UnsupportedGrantType(string(req.GrantType()))
	}
}

func (s *OIDCService) exchangeCode(ctx context.Context, req *AuthorizationCodeRequest) (*TokenResponse, error) {
	reqCtx, found, err := s.codes.TryRetrieve(ctx, req.Code)
	if err != nil {
		return nil, apperrors.ServerError(err, "failed to retrieve authorization code")
	}
	if !found {
		slog.Info("Authorization code not found or expired", "client_id", req.Client.ClientID)
		return nil, apperrors.InvalidGrant("authorization code is invalid or expired")
	}

	if reqCtx.ClientID != req.Client.ClientID || reqCtx.RedirectURI != req.RedirectURI {
		slog.Warn("Authorization code presented with mismatched client or redirect_uri",
			"client_id", req.Client.ClientID, "code_client_id", reqCtx.ClientID)
		return nil, apperrors.InvalidRequest("client_id or redirect_uri does not match the authorization request")
	}

	if reqCtx.CodeChallenge != "" {
		if req.CodeVerifier == "" {
			return nil, apperrors.InvalidGrant("code_verifier is required")
		}
		err := pkce.Verify(req.CodeVerifier, reqCtx.CodeChallenge, pkce.ChallengeMethod(reqCtx.CodeChallengeMethod))
		if err != nil {
			return nil, apperrors.InvalidGrant("code_verifier is invalid")
		}
	}

	subject := reqCtx.Subject()
	resp, err := s.signTokens(subject, reqCtx.Nonce)
	if err != nil {
		return nil, err
	}

	raw, _, err := s.refreshTokens.Issue(ctx, subject, reqCtx.ClientID, refreshtoken.Metadata{
		IPAddress: req.Meta.IPAddress,
		DeviceID:  req.Meta.DeviceID,
	})
	if err != nil {
		return nil, apperrors.ServerError(err, "failed to issue refresh token")
	}
	resp.RefreshToken = raw
	resp.Scope = reqCtx.Scope

	slog.Info("Authorization code exchanged", "client_id", reqCtx.ClientID, "subject", subject)
	return resp, nil
}

func (s *OIDCService) refresh(ctx context.Context, req *RefreshTokenRequest) (*TokenResponse, error) {
	rotation, err := s.refreshTokens.Rotate(ctx, req.RefreshToken, req.Client.ClientID, refreshtoken.Metadata{
		IPAddress: req.Meta.IPAddress,
		DeviceID:  req.Meta.DeviceID,
	})
	if errors.Is(err, refreshtoken.ErrInvalidGrant) {
		return nil, apperrors.InvalidGrant("refresh token is invalid or expired")
	}
	if err != nil {
		return nil, apperrors.ServerError(err, "failed to rotate refresh token")
	}

	resp, err := s.signTokens(rotation.Current.Subject, "")
	if err != nil {
		return nil, err
	}
	resp.RefreshToken = rotation.Token

	slog.Info("Refresh token rotated", "client_id", req.Client.ClientID, "subject", rotation.Current.Subject, "token_id", rotation.Current.ID)
	return resp, nil
}

func (s *OIDCService) signTokens(subject, nonce string) (*TokenResponse, error) {
	accessToken, expiresAt, err := s.tokens.CreateAccessToken(subject)
	if err != nil {
		return nil, apperrors.ServerError(err, "failed to create access token")
	}
	idToken, err := s.tokens.CreateIDToken(subject, nonce)
	if err != nil {
		return nil, apperrors.ServerError(err, "failed to create ID token")
	}

	return &TokenResponse{
		AccessToken: accessToken,
		TokenType:   TokenTypeBearer,
		ExpiresIn:   int64(expiresAt.Sub(s.now()).Round(time.Second).Seconds()),
		IDToken:     idToken,
	}, nil
}

// UserInfo returns the claims of a valid access token
func (s *OIDCService) UserInfo(accessToken string) (*UserInfo, error) {
	if accessToken == "" {
		return nil, apperrors.InvalidToken("access token is required")
	}
	claims, err := s.tokens.ParseAccessToken(accessToken)
	if err != nil {
		slog.Debug("Rejected userinfo access token", "err", err)
		return nil, apperrors.InvalidToken("access token is invalid or expired")
	}
	return &UserInfo{Sub: claims.Subject, Name: claims.Name}, nil
}

// Logout validates a logout request and returns where to send the caller,
// or "" when no post-logout redirect was requested
func (s *OIDCService) Logout(req LogoutRequest) (string, error) {
	if req.IDTokenHint != "" {
		claims, err := s.tokens.ParseIDTokenHint(req.IDTokenHint)
		if err != nil {
			slog.Warn("Rejected id_token_hint at logout", "err", err)
			return "", apperrors.InvalidRequest("invalid id_token_hint")
		}
		slog.Info("Logout requested", "subject", claims.Subject)
	}

	if req.PostLogoutRedirectURI == "" {
		return "", nil
	}
	if err := s.clients.ValidatePostLogoutRedirectURI(req.PostLogoutRedirectURI); err != nil {
		slog.Warn("Rejected post_logout_redirect_uri", "redirect_uri", req.PostLogoutRedirectURI, "reason", err)
		return "", apperrors.InvalidRequest("invalid post_logout_redirect_uri")
	}

	u, err := url.Parse(req.PostLogoutRedirectURI)
	if err != nil {
		return "", apperrors.InvalidRequest("invalid post_logout_redirect_uri")
	}
	if req.State != "" {
		q := u.Query()
		q.Set("state", req.State)
		u.RawQuery = q.Encode()
	}
	return u.String(), nil
}

// Revoke authenticates the client and revokes the chain of a refresh token.
// Unknown tokens are not an error.
func (s *OIDCService) Revoke(ctx context.Context, creds ClientCredentials, token string) error {
	if err := s.authenticate(creds); err != nil {
		return err
	}
	if token == "" {
		return apperrors.InvalidRequest("token is required")
	}
	if err := s.refreshTokens.Revoke(ctx, token, creds.ClientID); err != nil {
		return apperrors.ServerError(err, "failed to revoke token")
	}
	return nil
}
