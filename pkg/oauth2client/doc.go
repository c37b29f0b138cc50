// Package oauth2client models the single statically configured OAuth2 client.
//
// StaticAuthenticator validates client credentials at the token endpoint.
// The secret may be configured in plain text or as a bcrypt hash; either
// way the comparison does not short-circuit on the client id.
//
// ClientService validates authorization and logout requests: the client id
// must be the configured one and redirect targets must live under the
// client's base URL on an allow-listed path.
//
//	client := oauth2client.StaticClient{
//		ClientID:     "finance-web",
//		ClientSecret: secret,
//		BaseURL:      "https://app.example.com",
//		RedirectURIs: []string{"/callback"},
//	}
//	auth := oauth2client.NewStaticAuthenticator(client)
//	svc, err := oauth2client.NewClientService(client, config.Production)
//	err = svc.ValidateRedirectURI("https://app.example.com/callback")
package oauth2client
