package oauth2client

import (
	"crypto/sha256"
	"crypto/subtle"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// ClientAuthenticator validates client credentials presented at the token endpoint
type ClientAuthenticator interface {
	Validate(clientID, clientSecret string) bool
}

// StaticAuthenticator checks credentials against one configured client.
// Both the id and the secret are always compared, in constant time, so the
// response time does not reveal which one was wrong.
type StaticAuthenticator struct {
	clientIDDigest [sha256.Size]byte
	secretDigest   [sha256.Size]byte
	secretHash     []byte
}

// NewStaticAuthenticator creates an authenticator for client
func NewStaticAuthenticator(client StaticClient) *StaticAuthenticator {
	a := &StaticAuthenticator{
		clientIDDigest: sha256.Sum256([]byte(client.ClientID)),
	}
	if isBcryptHash(client.ClientSecret) {
		a.secretHash = []byte(client.ClientSecret)
	} else {
		a.secretDigest = sha256.Sum256([]byte(client.ClientSecret))
	}
	return a
}

// Validate reports whether clientID and clientSecret match the configured client
func (a *StaticAuthenticator) Validate(clientID, clientSecret string) bool {
	if clientID == "" || clientSecret == "" {
		return false
	}

	presentedID := sha256.Sum256([]byte(clientID))
	idMatch := subtle.ConstantTimeCompare(presentedID[:], a.clientIDDigest[:])

	var secretMatch int
	if a.secretHash != nil {
		if bcrypt.CompareHashAndPassword(a.secretHash, []byte(clientSecret)) == nil {
			secretMatch = 1
		}
	} else {
		presentedSecret := sha256.Sum256([]byte(clientSecret))
		secretMatch = subtle.ConstantTimeCompare(presentedSecret[:], a.secretDigest[:])
	}

	return idMatch&secretMatch == 1
}

func isBcryptHash(secret string) bool {
	for _, prefix := range []string{"$2a$", "$2b$", "$2y$"} {
		if strings.HasPrefix(secret, prefix) {
			return true
		}
	}
	return false
}
