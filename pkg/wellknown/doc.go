// Package wellknown serves the OpenID Connect discovery document
// (/.well-known/openid-configuration), which doubles as RFC 8414
// authorization server metadata.
//
//	handler := wellknown.NewHandler(wellknown.Config{
//		Issuer:                 "https://auth.example.com",
//		Scopes:                 []string{"openid", "profile", "offline_access"},
//		PostLogoutRedirectURIs: client.PostLogoutRedirectURLs(),
//	})
//	handler.RegisterRoutes(router)
package wellknown
