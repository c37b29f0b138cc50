package oauth2client

import (
	"log/slog"
	"strings"
)

// StaticClient is the single client this server issues tokens to.
// RedirectURIs and PostLogoutRedirectURIs are exact paths under BaseURL.
// ClientSecret is either the plain secret or a bcrypt hash of it.
type StaticClient struct {
	ClientID               string   `json:"client_id"`
	ClientSecret           string   `json:"-"`
	BaseURL                string   `json:"base_url"`
	RedirectURIs           []string `json:"redirect_uris"`
	PostLogoutRedirectURIs []string `json:"post_logout_redirect_uris"`
}

// PostLogoutRedirectURLs returns the allow-listed post-logout targets as absolute URLs
func (c StaticClient) PostLogoutRedirectURLs() []string {
	base := strings.TrimSuffix(c.BaseURL, "/")
	urls := make([]string, 0, len(c.PostLogoutRedirectURIs))
	for _, path := range c.PostLogoutRedirectURIs {
		urls = append(urls, base+path)
	}
	return urls
}

// String omits the secret so a client can be logged safely
func (c StaticClient) String() string {
	return "StaticClient{ClientID: " + c.ClientID + ", BaseURL: " + c.BaseURL + "}"
}

// GoString omits the secret from %#v
func (c StaticClient) GoString() string {
	return c.String()
}

// LogValue omits the secret when the client is passed to slog
func (c StaticClient) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("client_id", c.ClientID),
		slog.String("base_url", c.BaseURL),
		slog.Any("redirect_uris", c.RedirectURIs),
	)
}
