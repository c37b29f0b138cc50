// Package pkce verifies Proof Key for Code Exchange parameters (RFC 7636).
package pkce

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
)

// ChallengeMethod is a code_challenge_method value
type ChallengeMethod string

const (
	ChallengePlain ChallengeMethod = "plain"
	ChallengeS256  ChallengeMethod = "S256"
)

// ErrMismatch is returned when a verifier does not produce the stored challenge
var ErrMismatch = errors.New("code verifier does not match challenge")

const (
	minVerifierLength = 43
	maxVerifierLength = 128
)

// ParseChallengeMethod validates a code_challenge_method. Empty means S256.
func ParseChallengeMethod(method string) (ChallengeMethod, error) {
	switch ChallengeMethod(method) {
	case "", ChallengeS256:
		return ChallengeS256, nil
	case ChallengePlain:
		return ChallengePlain, nil
	default:
		return "", fmt.Errorf("unsupported code_challenge_method: %s", method)
	}
}

// SupportedMethods lists the methods advertised in discovery
func SupportedMethods() []string {
	return []string{string(ChallengeS256), string(ChallengePlain)}
}

// GenerateCodeVerifier returns a random 43 character verifier
func GenerateCodeVerifier() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate code verifier: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// S256Challenge derives the S256 challenge of a verifier
func S256Challenge(verifier string) string {
	sum := sha256.Sum256([]byte(verifier))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}

// Verify checks verifier against the challenge stored at /authorize
func Verify(verifier, challenge string, method ChallengeMethod) error {
	if challenge == "" {
		return fmt.Errorf("code challenge cannot be empty")
	}
	if err := validateVerifier(verifier); err != nil {
		return err
	}

	var computed string
	switch method {
	case ChallengePlain:
		computed = verifier
	case ChallengeS256, "":
		computed = S256Challenge(verifier)
	default:
		return fmt.Errorf("unsupported code_challenge_method: %s", method)
	}

	if subtle.ConstantTimeCompare([]byte(computed), []byte(challenge)) != 1 {
		return ErrMismatch
	}
	return nil
}

func validateVerifier(verifier string) error {
	if len(verifier) < minVerifierLength || len(verifier) > maxVerifierLength {
		return fmt.Errorf("code verifier must be between %d and %d characters", minVerifierLength, maxVerifierLength)
	}
	for _, c := range verifier {
		switch {
		case c >= 'A' && c <= 'Z', c >= 'a' && c <= 'z', c >= '0' && c <= '9':
		case c == '-', c == '.', c == '_', c == '~':
		default:
			return fmt.Errorf("code verifier contains invalid characters")
		}
	}
	return nil
}
