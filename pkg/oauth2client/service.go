package oauth2client

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/tendant/simple-authz/pkg/config"
)

var (
	// ErrUnknownClient is returned when client_id is not the configured client
	ErrUnknownClient = errors.New("unknown client_id")

	// ErrInvalidRedirectURI is returned when a redirect target is not allow-listed
	ErrInvalidRedirectURI = errors.New("invalid redirect_uri")
)

// ClientService answers questions about the configured client
type ClientService struct {
	client StaticClient
	env    config.Environment
	base   *url.URL
}

// NewClientService creates a client service. The client's BaseURL must be an absolute URL.
func NewClientService(client StaticClient, env config.Environment) (*ClientService, error) {
	base, err := url.Parse(client.BaseURL)
	if err != nil || !base.IsAbs() || base.Host == "" {
		return nil, fmt.Errorf("client base URL %q must be absolute", client.BaseURL)
	}
	return &ClientService{
		client: client,
		env:    env,
		base:   base,
	}, nil
}

// Client returns the configured client
func (s *ClientService) Client() StaticClient {
	return s.client
}

// ValidateClientID checks that clientID is the configured client
func (s *ClientService) ValidateClientID(clientID string) error {
	if clientID == "" || clientID != s.client.ClientID {
		return ErrUnknownClient
	}
	return nil
}

// ValidateRedirectURI checks a redirect_uri from an authorization request.
// It must be absolute, https outside development, start with the client's base URL
// on the same scheme and host, and its path must be allow-listed.
func (s *ClientService) ValidateRedirectURI(redirectURI string) error {
	return s.validateTarget(redirectURI, s.client.RedirectURIs)
}

// ValidatePostLogoutRedirectURI checks a post_logout_redirect_uri with the same rules
// against the post-logout allow-list
func (s *ClientService) ValidatePostLogoutRedirectURI(redirectURI string) error {
	return s.validateTarget(redirectURI, s.client.PostLogoutRedirectURIs)
}

func (s *ClientService) validateTarget(target string, allowedPaths []string) error {
	if target == "" {
		return fmt.Errorf("%w: missing", ErrInvalidRedirectURI)
	}

	u, err := url.Parse(target)
	if err != nil || !u.IsAbs() || u.Host == "" {
		return fmt.Errorf("%w: must be an absolute URI", ErrInvalidRedirectURI)
	}
	if u.Fragment != "" || u.User != nil {
		return fmt.Errorf("%w: fragments and userinfo are not allowed", ErrInvalidRedirectURI)
	}
	if !s.env.IsDevelopment() && u.Scheme != "https" {
		return fmt.Errorf("%w: must use https", ErrInvalidRedirectURI)
	}
	if !strings.HasPrefix(target, s.client.BaseURL) ||
		!strings.EqualFold(u.Scheme, s.base.Scheme) || !strings.EqualFold(u.Host, s.base.Host) {
		return fmt.Errorf("%w: must start with the client base URL", ErrInvalidRedirectURI)
	}

	for _, path := range allowedPaths {
		if u.Path == path {
			return nil
		}
	}
	return fmt.Errorf("%w: path %q is not allow-listed", ErrInvalidRedirectURI, u.Path)
}
