package oidc

import (
	"net/url"
	"strings"

	apperrors "github.com/tendant/simple-authz/pkg/errors"
)

// GrantType is a supported value of the grant_type parameter
type GrantType string

const (
	GrantTypeAuthorizationCode GrantType = "authorization_code"
	GrantTypeRefreshToken      GrantType = "refresh_token"
)

// ClientCredentials are the client id and secret presented at /token or /revoke
type ClientCredentials struct {
	ClientID     string
	ClientSecret string
}

// RequestMeta describes where a token request came from
type RequestMeta struct {
	IPAddress string
	DeviceID  string
}

// TokenRequest is a validated /token request. The concrete type is either
// *AuthorizationCodeRequest or *RefreshTokenRequest.
type TokenRequest interface {
	GrantType() GrantType
	Credentials() ClientCredentials
	isTokenRequest()
}

// AuthorizationCodeRequest redeems an authorization code
type AuthorizationCodeRequest struct {
	Client       ClientCredentials
	Code         string
	RedirectURI  string
	CodeVerifier string
	Meta         RequestMeta
}

func (r *AuthorizationCodeRequest) GrantType() GrantType          { return GrantTypeAuthorizationCode }
func (r *AuthorizationCodeRequest) Credentials() ClientCredentials { return r.Client }
func (r *AuthorizationCodeRequest) isTokenRequest()                {}

// RefreshTokenRequest rotates a refresh token
type RefreshTokenRequest struct {
	Client       ClientCredentials
	RefreshToken string
	Meta         RequestMeta
}

func (r *RefreshTokenRequest) GrantType() GrantType          { return GrantTypeRefreshToken }
func (r *RefreshTokenRequest) Credentials() ClientCredentials { return r.Client }
func (r *RefreshTokenRequest) isTokenRequest()                {}

// ResolveClientCredentials merges HTTP Basic credentials with form fields.
// basic is nil when no Authorization header was sent.
func ResolveClientCredentials(form url.Values, basic *ClientCredentials) (ClientCredentials, error) {
	formCreds := ClientCredentials{
		ClientID:     strings.TrimSpace(form.Get("client_id")),
		ClientSecret: form.Get("client_secret"),
	}
	if basic == nil {
		return formCreds, nil
	}
	if formCreds.ClientID != "" && formCreds.ClientID != basic.ClientID {
		return ClientCredentials{}, apperrors.InvalidRequest("client_id does not match the Authorization header")
	}
	if formCreds.ClientSecret != "" {
		return ClientCredentials{}, apperrors.InvalidRequest("client credentials must be sent using only one method")
	}
	return *basic, nil
}

// ParseTokenRequest validates the shape of a /token form and returns the typed request
func ParseTokenRequest(form url.Values, basic *ClientCredentials, meta RequestMeta) (TokenRequest, error) {
	grantType := form.Get("grant_type")
	if grantType == "" {
		return nil, apperrors.InvalidRequest("grant_type is required")
	}

	creds, err := ResolveClientCredentials(form, basic)
	if err != nil {
		return nil, err
	}

	switch GrantType(grantType) {
	case GrantTypeAuthorizationCode:
		req := &AuthorizationCodeRequest{
			Client:       creds,
			Code:         form.Get("code"),
			RedirectURI:  form.Get("redirect_uri"),
			CodeVerifier: form.Get("code_verifier"),
			Meta:         meta,
		}
		if req.Code == "" {
			return nil, apperrors.InvalidRequest("code is required")
		}
		if req.RedirectURI == "" {
			return nil, apperrors.InvalidRequest("redirect_uri is required")
		}
		return req, nil

	case GrantTypeRefreshToken:
		req := &RefreshTokenRequest{
			Client:       creds,
			RefreshToken: form.Get("refresh_token"),
			Meta:         meta,
		}
		if req.RefreshToken == "" {
			return nil, apperrors.InvalidRequest("refresh_token is required")
		}
		return req, nil

	default:
		return nil, apperrors.UnsupportedGrantType(grantType)
	}
}
