// Package oidc implements the authorization server flows: the Authorization
// Code grant and the Refresh Token grant with rotation.
//
// # Overview
//
//   - AuthorizationCodeStore keeps single-use codes between /authorize and
//     /token. InMemoryCodeStore serves a single instance, RedisCodeStore
//     several.
//   - ParseTokenRequest turns a /token form into an AuthorizationCodeRequest
//     or a RefreshTokenRequest before anything is dispatched.
//   - OIDCService authenticates the client, redeems the grant and signs the
//     access and ID tokens. Refresh tokens are delegated to the refreshtoken
//     package.
//
// # Basic Usage
//
//	codes := oidc.NewRedisCodeStore(redisClient, "authz:", oidc.WithCodeTTL(5*time.Minute))
//	service := oidc.NewOIDCService(
//		codes,
//		oauth2client.NewStaticAuthenticator(client),
//		clientService,
//		refreshtoken.NewService(repo),
//		tokengenerator.NewRSATokenIssuer(key, issuer, client.ClientID),
//		oidc.WithConfig(oidc.Config{LoginURL: loginURL, ReturnParam: "redirect"}),
//	)
//
//	// /authorize, after the session facility identified the caller
//	if err := service.ValidateAuthorizeRequest(req); err != nil { ... }
//	redirectTo, err := service.IssueCode(ctx, req, identity)
//
//	// /token
//	tokenReq, err := oidc.ParseTokenRequest(r.PostForm, basicCreds, meta)
//	resp, err := service.Exchange(ctx, tokenReq)
//
// Errors returned by the service are *errors.Error values from
// github.com/tendant/simple-authz/pkg/errors carrying the OAuth2 error code.
package oidc
