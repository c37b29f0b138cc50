package oauth2client

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestStaticAuthenticator_Validate(t *testing.T) {
	auth := NewStaticAuthenticator(StaticClient{ClientID: "finance-web", ClientSecret: "s3cret-value"})

	tests := []struct {
		name     string
		clientID string
		secret   string
		want     bool
	}{
		{"valid credentials", "finance-web", "s3cret-value", true},
		{"wrong secret", "finance-web", "s3cret-valuf", false},
		{"secret prefix", "finance-web", "s3cret", false},
		{"wrong client", "other", "s3cret-value", false},
		{"empty secret", "finance-web", "", false},
		{"empty client", "", "s3cret-value", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, auth.Validate(tt.clientID, tt.secret))
		})
	}
}

func TestStaticAuthenticator_BcryptSecret(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret-value"), bcrypt.MinCost)
	require.NoError(t, err)

	auth := NewStaticAuthenticator(StaticClient{ClientID: "finance-web", ClientSecret: string(hash)})

	assert.True(t, auth.Validate("finance-web", "s3cret-value"))
	assert.False(t, auth.Validate("finance-web", string(hash)))
	assert.False(t, auth.Validate("other", "s3cret-value"))
}

func TestStaticClient_StringOmitsSecret(t *testing.T) {
	client := StaticClient{ClientID: "finance-web", ClientSecret: "s3cret-value", BaseURL: "https://app.example.com"}

	assert.NotContains(t, client.String(), "s3cret-value")
	assert.NotContains(t, fmt.Sprintf("%v", client), "s3cret-value")
}
