// Package errors provides the OAuth2 error taxonomy used by simple-authz.
//
// Every failure that reaches a client is described by an *Error carrying an
// RFC 6749 error code, a client-safe description and an optional wrapped cause.
// The code determines the HTTP status and the JSON body.
//
// # Basic Usage
//
//	import apperrors "github.com/tendant/simple-authz/pkg/errors"
//
//	// Protocol errors
//	err := apperrors.InvalidGrant("refresh token is invalid or expired")
//	err := apperrors.UnsupportedGrantType(grantType)
//
//	// Unexpected failures keep their cause for logging only
//	err := apperrors.ServerError(dbErr, "failed to rotate refresh token")
//
// # Status Mapping
//
//	invalid_request, invalid_grant, unauthorized_client,
//	unsupported_grant_type, unsupported_response_type  -> 400
//	invalid_client, invalid_token                      -> 401
//	temporarily_unavailable                            -> 503
//	server_error (and anything unstructured)           -> 500
//
// # Rendering
//
//	e := apperrors.From(err)
//	w.WriteHeader(e.HTTPStatusCode())
//	json.NewEncoder(w).Encode(e.Response())
//
// The wrapped cause is never part of Response(), so database or signing
// failures cannot leak through error_description.
package errors
