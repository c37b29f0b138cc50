package tokengenerator

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Token use values carried in the token_use claim
const (
	TokenUseAccess = "access"
	TokenUseID     = "id"
)

// TokenIssuer builds and signs access and ID tokens
type TokenIssuer interface {
	// CreateAccessToken returns a signed access token for subject and its expiry
	CreateAccessToken(subject string) (string, time.Time, error)

	// CreateIDToken returns a signed ID token for subject. A non-empty nonce is carried unchanged.
	CreateIDToken(subject, nonce string) (string, error)

	// ParseAccessToken verifies an access token issued by this server
	ParseAccessToken(tokenStr string) (*Claims, error)

	// ParseIDTokenHint verifies an ID token presented as a logout hint. Expiry is not enforced.
	ParseIDTokenHint(tokenStr string) (*Claims, error)
}

// Claims are the claims of both token kinds. Nonce is only set on ID tokens.
type Claims struct {
	Name     string `json:"name,omitempty"`
	Nonce    string `json:"nonce,omitempty"`
	TokenUse string `json:"token_use,omitempty"`
	jwt.RegisteredClaims
}
