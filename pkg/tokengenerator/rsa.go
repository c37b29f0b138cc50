package tokengenerator

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/tendant/simple-authz/pkg/jwks"
)

// RSATokenIssuer implements TokenIssuer with RS256 signatures from a jwks.SigningKey
type RSATokenIssuer struct {
	key               *jwks.SigningKey
	issuer            string
	audience          string
	accessTokenExpiry time.Duration
	idTokenExpiry     time.Duration
	now               func() time.Time
}

// NewRSATokenIssuer creates a token issuer. audience is the client id tokens are issued to.
func NewRSATokenIssuer(key *jwks.SigningKey, issuer, audience string, opts ...Option) *RSATokenIssuer {
	i := &RSATokenIssuer{
		key:               key,
		issuer:            issuer,
		audience:          audience,
		accessTokenExpiry: DefaultAccessTokenExpiry,
		idTokenExpiry:     DefaultIDTokenExpiry,
		now:               time.Now,
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

func (i *RSATokenIssuer) claims(subject, tokenUse string, expiry time.Duration) Claims {
	now := i.now().UTC()
	return Claims{
		Name:     subject,
		TokenUse: tokenUse,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    i.issuer,
			Subject:   subject,
			Audience:  jwt.ClaimStrings{i.audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(expiry)),
			ID:        uuid.New().String(),
		},
	}
}

// CreateAccessToken creates a signed access token for subject
func (i *RSATokenIssuer) CreateAccessToken(subject string) (string, time.Time, error) {
	claims := i.claims(subject, TokenUseAccess, i.accessTokenExpiry)

	signed, err := i.key.Sign(claims)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to create access token: %w", err)
	}
	return signed, claims.ExpiresAt.Time, nil
}

// CreateIDToken creates a signed ID token for subject, carrying nonce when set
func (i *RSATokenIssuer) CreateIDToken(subject, nonce string) (string, error) {
	claims := i.claims(subject, TokenUseID, i.idTokenExpiry)
	claims.Nonce = nonce

	signed, err := i.key.Sign(claims)
	if err != nil {
		return "", fmt.Errorf("failed to create id token: %w", err)
	}
	return signed, nil
}

// ParseAccessToken verifies signature, issuer, audience, expiry and token use
func (i *RSATokenIssuer) ParseAccessToken(tokenStr string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(tokenStr, claims, i.key.Keyfunc(),
		jwt.WithValidMethods([]string{jwks.AlgorithmRS256}),
		jwt.WithIssuer(i.issuer),
		jwt.WithAudience(i.audience),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(i.now),
	)
	if err != nil {
		return nil, fmt.Errorf("invalid access token: %w", err)
	}
	if claims.TokenUse != TokenUseAccess {
		return nil, fmt.Errorf("invalid access token: token_use is %q", claims.TokenUse)
	}
	return claims, nil
}

// ParseIDTokenHint verifies signature, issuer, audience and token use of an ID token.
// An expired ID token is still a valid hint.
func (i *RSATokenIssuer) ParseIDTokenHint(tokenStr string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(tokenStr, claims, i.key.Keyfunc(),
		jwt.WithValidMethods([]string{jwks.AlgorithmRS256}),
		jwt.WithoutClaimsValidation(),
	)
	if err != nil {
		return nil, fmt.Errorf("invalid id token hint: %w", err)
	}
	if claims.Issuer != i.issuer {
		return nil, fmt.Errorf("invalid id token hint: unexpected issuer %q", claims.Issuer)
	}
	if !audienceContains(claims.Audience, i.audience) {
		return nil, fmt.Errorf("invalid id token hint: audience does not include %q", i.audience)
	}
	if claims.TokenUse != TokenUseID {
		return nil, fmt.Errorf("invalid id token hint: token_use is %q", claims.TokenUse)
	}
	return claims, nil
}

func audienceContains(audience jwt.ClaimStrings, want string) bool {
	for _, aud := range audience {
		if aud == want {
			return true
		}
	}
	return false
}
