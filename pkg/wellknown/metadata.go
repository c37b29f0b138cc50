package wellknown

import (
	"strings"

	"github.com/tendant/simple-authz/pkg/jwks"
	"github.com/tendant/simple-authz/pkg/pkce"
)

// Endpoint paths relative to the issuer
const (
	AuthorizePath = "/authorize"
	TokenPath     = "/token"
	UserInfoPath  = "/userinfo"
	LogoutPath    = "/logout"
	RevokePath    = "/revoke"
	JWKSPath      = "/.well-known/jwks.json"
)

// ProviderMetadata is the OpenID Connect Discovery 1.0 document, which is
// also a valid RFC 8414 authorization server metadata document
type ProviderMetadata struct {
	// REQUIRED: The authorization server's issuer identifier
	Issuer string `json:"issuer"`

	AuthorizationEndpoint string `json:"authorization_endpoint"`
	TokenEndpoint         string `json:"token_endpoint"`
	UserinfoEndpoint      string `json:"userinfo_endpoint"`
	EndSessionEndpoint    string `json:"end_session_endpoint"`
	RevocationEndpoint    string `json:"revocation_endpoint"`
	JwksURI               string `json:"jwks_uri"`

	ScopesSupported                   []string `json:"scopes_supported,omitempty"`
	ResponseTypesSupported            []string `json:"response_types_supported"`
	GrantTypesSupported               []string `json:"grant_types_supported"`
	SubjectTypesSupported             []string `json:"subject_types_supported"`
	IDTokenSigningAlgValuesSupported  []string `json:"id_token_signing_alg_values_supported"`
	TokenEndpointAuthMethodsSupported []string `json:"token_endpoint_auth_methods_supported"`
	CodeChallengeMethodsSupported     []string `json:"code_challenge_methods_supported"`
	ClaimsSupported                   []string `json:"claims_supported"`

	// Allow-listed post-logout targets of the configured client
	PostLogoutRedirectURIs []string `json:"post_logout_redirect_uris,omitempty"`
}

// Config holds configuration for well-known endpoints
type Config struct {
	// Issuer is the public base URL of this server; endpoint URLs are built from it
	Issuer string

	// Supported scopes
	Scopes []string

	// Absolute post-logout redirect URLs of the configured client
	PostLogoutRedirectURIs []string
}

// NewProviderMetadata creates the discovery document for config
func NewProviderMetadata(config Config) *ProviderMetadata {
	scopes := config.Scopes
	if len(scopes) == 0 {
		scopes = []string{"openid", "profile"}
	}
	base := strings.TrimSuffix(config.Issuer, "/")

	return &ProviderMetadata{
		Issuer:                            config.Issuer,
		AuthorizationEndpoint:             base + AuthorizePath,
		TokenEndpoint:                     base + TokenPath,
		UserinfoEndpoint:                  base + UserInfoPath,
		EndSessionEndpoint:                base + LogoutPath,
		RevocationEndpoint:                base + RevokePath,
		JwksURI:                           base + JWKSPath,
		ScopesSupported:                   scopes,
		ResponseTypesSupported:            []string{"code"},
		GrantTypesSupported:               []string{"authorization_code", "refresh_token"},
		SubjectTypesSupported:             []string{"public"},
		IDTokenSigningAlgValuesSupported:  []string{jwks.AlgorithmRS256},
		TokenEndpointAuthMethodsSupported: []string{"client_secret_post", "client_secret_basic"},
		CodeChallengeMethodsSupported:     pkce.SupportedMethods(),
		ClaimsSupported:                   []string{"sub", "name", "iss", "aud", "iat", "exp", "nonce"},
		PostLogoutRedirectURIs:            config.PostLogoutRedirectURIs,
	}
}
