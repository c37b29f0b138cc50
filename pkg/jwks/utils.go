package jwks

import (
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"fmt"
	"math/big"

	"github.com/go-jose/go-jose/v4"
)

// GenerateRSAKeyPair generates a new RSA key pair with the specified bit size
func GenerateRSAKeyPair(bits int) (*rsa.PrivateKey, error) {
	return rsa.GenerateKey(rand.Reader, bits)
}

// DeriveKeyID computes the RFC 7638 SHA-256 thumbprint of a public key, base64url encoded
func DeriveKeyID(publicKey *rsa.PublicKey) (string, error) {
	jwk := jose.JSONWebKey{
		Key: publicKey,
	}

	thumbprint, err := jwk.Thumbprint(crypto.SHA256)
	if err != nil {
		return "", fmt.Errorf("failed to compute key thumbprint: %w", err)
	}

	return base64.RawURLEncoding.EncodeToString(thumbprint), nil
}

// EncodeRSAPublicKeyModulus encodes the RSA public key modulus as base64url
func EncodeRSAPublicKeyModulus(publicKey *rsa.PublicKey) string {
	return base64.RawURLEncoding.EncodeToString(publicKey.N.Bytes())
}

// EncodeRSAPublicKeyExponent encodes the RSA public key exponent as base64url
func EncodeRSAPublicKeyExponent(publicKey *rsa.PublicKey) string {
	exponentBytes := big.NewInt(int64(publicKey.E)).Bytes()
	return base64.RawURLEncoding.EncodeToString(exponentBytes)
}

// EncodePrivateKeyToPEM encodes an RSA private key to PKCS#1 PEM format
func EncodePrivateKeyToPEM(privateKey *rsa.PrivateKey) []byte {
	return pem.EncodeToMemory(&pem.Block{
		Type:  "RSA PRIVATE KEY",
		Bytes: x509.MarshalPKCS1PrivateKey(privateKey),
	})
}

// DecodePrivateKeyFromPEM decodes an RSA private key from PEM format
// Supports both PKCS#1 (RSA PRIVATE KEY) and PKCS#8 (PRIVATE KEY) formats
func DecodePrivateKeyFromPEM(pemData []byte) (*rsa.PrivateKey, error) {
	block, _ := pem.Decode(pemData)
	if block == nil {
		return nil, fmt.Errorf("failed to decode PEM block")
	}

	switch block.Type {
	case "RSA PRIVATE KEY":
		privateKey, err := x509.ParsePKCS1PrivateKey(block.Bytes)
		if err != nil {
			return nil, fmt.Errorf("failed to parse PKCS#1 private key: %w", err)
		}
		return privateKey, nil
	case "PRIVATE KEY":
		parsedKey, err := x509.ParsePKCS8PrivateKey(block.Bytes)
		if err != nil {
			return nil, fmt.Errorf("failed to parse PKCS#8 private key: %w", err)
		}
		privateKey, ok := parsedKey.(*rsa.PrivateKey)
		if !ok {
			return nil, fmt.Errorf("parsed key is not an RSA private key")
		}
		return privateKey, nil
	default:
		return nil, fmt.Errorf("invalid PEM block type: %s (expected RSA PRIVATE KEY or PRIVATE KEY)", block.Type)
	}
}
