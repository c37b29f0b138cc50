package jwks

import (
	"crypto/rsa"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// AlgorithmRS256 is the only signing algorithm this server uses
const AlgorithmRS256 = "RS256"

// JWKS represents a JSON Web Key Set as defined in RFC 7517
type JWKS struct {
	Keys []JWK `json:"keys"`
}

// JWK represents a JSON Web Key as defined in RFC 7517.
// Only public RSA members are modelled, so a JWK can never carry private material.
type JWK struct {
	// Key Type - "RSA" for RSA keys
	Kty string `json:"kty"`

	// Public Key Use - "sig" for signature
	Use string `json:"use"`

	// Key ID - unique identifier for this key
	Kid string `json:"kid"`

	// Algorithm - "RS256" for RSA with SHA-256
	Alg string `json:"alg"`

	// RSA public key modulus (base64url encoded)
	N string `json:"n"`

	// RSA public key exponent (base64url encoded)
	E string `json:"e"`
}

// SigningKey holds the process-lifetime RSA key pair and its key id.
// It is read-only after construction and safe for concurrent use.
type SigningKey struct {
	kid        string
	privateKey *rsa.PrivateKey
}

// NewSigningKey wraps an RSA private key. An empty kid is replaced by the
// RFC 7638 thumbprint of the public key.
func NewSigningKey(privateKey *rsa.PrivateKey, kid string) (*SigningKey, error) {
	if privateKey == nil {
		return nil, fmt.Errorf("private key cannot be nil")
	}
	if privateKey.N.BitLen() < 2048 {
		return nil, fmt.Errorf("RSA key must be at least 2048 bits, got %d", privateKey.N.BitLen())
	}

	if kid == "" {
		derived, err := DeriveKeyID(&privateKey.PublicKey)
		if err != nil {
			return nil, err
		}
		kid = derived
	}

	return &SigningKey{
		kid:        kid,
		privateKey: privateKey,
	}, nil
}

// KeyID returns the kid placed in token headers and in the JWKS
func (k *SigningKey) KeyID() string {
	return k.kid
}

// Algorithm returns the JWS algorithm of this key
func (k *SigningKey) Algorithm() string {
	return AlgorithmRS256
}

// PublicKey returns the public half of the key pair
func (k *SigningKey) PublicKey() *rsa.PublicKey {
	return &k.privateKey.PublicKey
}

// Sign signs the claims with RS256 and sets the kid header
func (k *SigningKey) Sign(claims jwt.Claims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	token.Header["kid"] = k.kid

	signed, err := token.SignedString(k.privateKey)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// Keyfunc returns a jwt.Keyfunc that accepts only RS256 tokens signed with this key
func (k *SigningKey) Keyfunc() jwt.Keyfunc {
	return func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodRSA); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		if kid, ok := token.Header["kid"].(string); ok && kid != k.kid {
			return nil, fmt.Errorf("unknown key id: %s", kid)
		}
		return k.PublicKey(), nil
	}
}

// ToJWK converts the key to a JWK (public key only)
func (k *SigningKey) ToJWK() JWK {
	return JWK{
		Kty: "RSA",
		Use: "sig",
		Kid: k.kid,
		Alg: AlgorithmRS256,
		N:   EncodeRSAPublicKeyModulus(k.PublicKey()),
		E:   EncodeRSAPublicKeyExponent(k.PublicKey()),
	}
}

// JWKS returns the key set published at the JWKS endpoint
func (k *SigningKey) JWKS() JWKS {
	return JWKS{Keys: []JWK{k.ToJWK()}}
}
