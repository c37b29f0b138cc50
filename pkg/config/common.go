package config

import (
	"fmt"
	"os"
	"strings"
)

// GetEnvOrDefault retrieves an environment variable or returns a default value
func GetEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// Environment represents different deployment environments
type Environment string

const (
	Development Environment = "development"
	Staging     Environment = "staging"
	Production  Environment = "production"
	Test        Environment = "test"
)

// ParseEnvironment normalises an APP_ENV value. An empty value is
// Development; any other unrecognised value is an error.
func ParseEnvironment(value string) (Environment, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "development", "dev":
		return Development, nil
	case "production", "prod":
		return Production, nil
	case "staging", "stage":
		return Staging, nil
	case "test", "testing":
		return Test, nil
	default:
		return "", fmt.Errorf("unknown APP_ENV %q", value)
	}
}

// IsDevelopment reports whether e is the development environment
func (e Environment) IsDevelopment() bool {
	return e == Development
}
