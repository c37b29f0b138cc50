package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorCode is an OAuth2 error code as it appears in the "error" field of a response
type ErrorCode string

// Error codes defined by RFC 6749 and RFC 6750
const (
	ErrCodeInvalidRequest          ErrorCode = "invalid_request"
	ErrCodeInvalidClient           ErrorCode = "invalid_client"
	ErrCodeInvalidGrant            ErrorCode = "invalid_grant"
	ErrCodeUnauthorizedClient      ErrorCode = "unauthorized_client"
	ErrCodeUnsupportedGrantType    ErrorCode = "unsupported_grant_type"
	ErrCodeUnsupportedResponseType ErrorCode = "unsupported_response_type"
	ErrCodeInvalidToken            ErrorCode = "invalid_token"
	ErrCodeServerError             ErrorCode = "server_error"
	ErrCodeTemporarilyUnavailable  ErrorCode = "temporarily_unavailable"
)

// Error represents an OAuth2 protocol error with an optional wrapped cause.
// Message is sent to the client as error_description, Err never is.
type Error struct {
	Code    ErrorCode
	Message string
	Err     error
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the wrapped error for errors.Is and errors.As
func (e *Error) Unwrap() error {
	return e.Err
}

// HTTPStatusCode returns the HTTP status code for this error
func (e *Error) HTTPStatusCode() int {
	return MapErrorCodeToHTTPStatus(e.Code)
}

// Response returns the JSON body for this error
func (e *Error) Response() ErrorResponse {
	return ErrorResponse{
		Error:            string(e.Code),
		ErrorDescription: e.Message,
	}
}

// ErrorResponse is the JSON error body of the token, revocation and userinfo endpoints
type ErrorResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description,omitempty"`
}

// New creates a new Error with the given code and message
func New(code ErrorCode, message string) *Error {
	return &Error{
		Code:    code,
		Message: message,
	}
}

// Newf creates a new Error with formatted message
func Newf(code ErrorCode, format string, args ...interface{}) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap wraps an existing error with code and message
func Wrap(err error, code ErrorCode, message string) *Error {
	if err == nil {
		return nil
	}
	return &Error{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// IsCode checks if an error has a specific error code
func IsCode(err error, code ErrorCode) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// GetCode extracts the error code from an error.
// Returns ErrCodeServerError if the error is not a structured Error
func GetCode(err error) ErrorCode {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ErrCodeServerError
}

// From converts any error into an *Error. Unstructured errors become
// server_error with a generic description so internals are not leaked.
func From(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Wrap(err, ErrCodeServerError, "internal server error")
}

// MapErrorCodeToHTTPStatus maps error codes to HTTP status codes
func MapErrorCodeToHTTPStatus(code ErrorCode) int {
	switch code {
	case ErrCodeInvalidRequest, ErrCodeInvalidGrant, ErrCodeUnauthorizedClient,
		ErrCodeUnsupportedGrantType, ErrCodeUnsupportedResponseType:
		return http.StatusBadRequest

	case ErrCodeInvalidClient, ErrCodeInvalidToken:
		return http.StatusUnauthorized

	case ErrCodeTemporarilyUnavailable:
		return http.StatusServiceUnavailable

	case ErrCodeServerError:
		fallthrough
	default:
		return http.StatusInternalServerError
	}
}

// InvalidRequest creates an "invalid_request" error
func InvalidRequest(message string) *Error {
	return New(ErrCodeInvalidRequest, message)
}

// InvalidClient creates an "invalid_client" error
func InvalidClient(message string) *Error {
	return New(ErrCodeInvalidClient, message)
}

// InvalidGrant creates an "invalid_grant" error
func InvalidGrant(message string) *Error {
	return New(ErrCodeInvalidGrant, message)
}

// UnsupportedGrantType creates an "unsupported_grant_type" error
func UnsupportedGrantType(grantType string) *Error {
	return Newf(ErrCodeUnsupportedGrantType, "grant type %q is not supported", grantType)
}

// InvalidToken creates an "invalid_token" error
func InvalidToken(message string) *Error {
	return New(ErrCodeInvalidToken, message)
}

// ServerError wraps an unexpected failure as "server_error"
func ServerError(err error, message string) *Error {
	return &Error{
		Code:    ErrCodeServerError,
		Message: message,
		Err:     err,
	}
}
