// Package api exposes the authorization server over HTTP with chi.
//
// Browser-facing endpoints (/authorize, /logout) answer validation failures
// with a plain 400 and never redirect to an unverified URL. Back-channel
// endpoints (/token, /revoke, /userinfo) answer with OAuth2 JSON errors.
package api
