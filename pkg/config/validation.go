package config

import (
	"fmt"
	"net/url"
	"time"
)

// ValidationError represents a configuration validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationErrors is a collection of validation errors
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	if len(e) == 1 {
		return e[0].Error()
	}

	msg := "configuration validation failed:"
	for _, err := range e {
		msg += fmt.Sprintf("\n  - %s", err.Error())
	}
	return msg
}

// Validator is a function that validates configuration and returns errors
type Validator func() ValidationErrors

// Validate runs multiple validators and combines their errors
func Validate(validators ...Validator) error {
	var allErrors ValidationErrors

	for _, validator := range validators {
		if errs := validator(); len(errs) > 0 {
			allErrors = append(allErrors, errs...)
		}
	}

	if len(allErrors) > 0 {
		return allErrors
	}
	return nil
}

// RequireNonEmpty validates that a string field is not empty
func RequireNonEmpty(field, value string) *ValidationError {
	if value == "" {
		return &ValidationError{
			Field:   field,
			Message: "is required",
		}
	}
	return nil
}

// RequirePositiveDuration validates that a duration field is positive
func RequirePositiveDuration(field string, value time.Duration) *ValidationError {
	if value <= 0 {
		return &ValidationError{
			Field:   field,
			Message: fmt.Sprintf("must be positive, got %v", value),
		}
	}
	return nil
}

// RequirePositiveFloat validates that a rate is positive
func RequirePositiveFloat(field string, value float64) *ValidationError {
	if value <= 0 {
		return &ValidationError{
			Field:   field,
			Message: fmt.Sprintf("must be positive, got %v", value),
		}
	}
	return nil
}

// RequireAbsoluteURL validates that a string is an absolute http(s) URL
func RequireAbsoluteURL(field, value string) *ValidationError {
	if value == "" {
		return &ValidationError{
			Field:   field,
			Message: "is required",
		}
	}

	parsedURL, err := url.Parse(value)
	if err != nil || !parsedURL.IsAbs() || parsedURL.Host == "" {
		return &ValidationError{
			Field:   field,
			Message: fmt.Sprintf("must be an absolute URL, got %q", value),
		}
	}
	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return &ValidationError{
			Field:   field,
			Message: "must use http or https",
		}
	}

	return nil
}

// RequireHTTPSURLUnlessDevelopment validates an absolute URL and, outside development, requires https
func RequireHTTPSURLUnlessDevelopment(field, value string, env Environment) *ValidationError {
	if err := RequireAbsoluteURL(field, value); err != nil {
		return err
	}

	parsedURL, _ := url.Parse(value)
	if !env.IsDevelopment() && parsedURL.Scheme != "https" {
		return &ValidationError{
			Field:   field,
			Message: "must use HTTPS outside development",
		}
	}

	return nil
}

// RequireNonEmptySlice validates that a slice is not empty
func RequireNonEmptySlice(field string, value []string) *ValidationError {
	if len(value) == 0 {
		return &ValidationError{
			Field:   field,
			Message: "must contain at least one value",
		}
	}
	return nil
}

// RequireMinLength validates that a string has a minimum length
func RequireMinLength(field, value string, minLength int) *ValidationError {
	if len(value) < minLength {
		return &ValidationError{
			Field:   field,
			Message: fmt.Sprintf("must be at least %d characters, got %d", minLength, len(value)),
		}
	}
	return nil
}

// CollectErrors is a helper to collect validation errors
// Returns nil if no errors, otherwise returns ValidationErrors
func CollectErrors(errors ...*ValidationError) ValidationErrors {
	var result ValidationErrors
	for _, err := range errors {
		if err != nil {
			result = append(result, *err)
		}
	}
	return result
}
