package oidc

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	apperrors "github.com/tendant/simple-authz/pkg/errors"
)

func TestParseTokenRequest(t *testing.T) {
	meta := RequestMeta{IPAddress: "10.0.0.1"}

	t.Run("authorization code", func(t *testing.T) {
		form := url.Values{
			"grant_type":    {"authorization_code"},
			"client_id":     {"finance-web"},
			"client_secret": {"s3cret"},
			"code":          {"abc"},
			"redirect_uri":  {"http://localhost:3000/callback"},
			"code_verifier": {"v"},
		}
		req, err := ParseTokenRequest(form, nil, meta)
		require.NoError(t, err)

		codeReq, ok := req.(*AuthorizationCodeRequest)
		require.True(t, ok)
		assert.Equal(t, GrantTypeAuthorizationCode, codeReq.GrantType())
		assert.Equal(t, "abc", codeReq.Code)
		assert.Equal(t, "v", codeReq.CodeVerifier)
		assert.Equal(t, ClientCredentials{ClientID: "finance-web", ClientSecret: "s3cret"}, codeReq.Credentials())
		assert.Equal(t, meta, codeReq.Meta)
	})

	t.Run("refresh token with basic auth", func(t *testing.T) {
		form := url.Values{
			"grant_type":    {"refresh_token"},
			"refresh_token": {"r1"},
		}
		basic := &ClientCredentials{ClientID: "finance-web", ClientSecret: "s3cret"}
		req, err := ParseTokenRequest(form, basic, meta)
		require.NoError(t, err)

		refreshReq, ok := req.(*RefreshTokenRequest)
		require.True(t, ok)
		assert.Equal(t, "r1", refreshReq.RefreshToken)
		assert.Equal(t, *basic, refreshReq.Credentials())
	})

	tests := []struct {
		name  string
		form  url.Values
		basic *ClientCredentials
		code  apperrors.ErrorCode
	}{
		{
			name: "missing grant type",
			form: url.Values{"code": {"abc"}},
			code: apperrors.ErrCodeInvalidRequest,
		},
		{
			name: "unsupported grant type",
			form: url.Values{"grant_type": {"password"}},
			code: apperrors.ErrCodeUnsupportedGrantType,
		},
		{
			name: "code grant without code",
			form: url.Values{"grant_type": {"authorization_code"}, "redirect_uri": {"http://localhost:3000/callback"}},
			code: apperrors.ErrCodeInvalidRequest,
		},
		{
			name: "code grant without redirect uri",
			form: url.Values{"grant_type": {"authorization_code"}, "code": {"abc"}},
			code: apperrors.ErrCodeInvalidRequest,
		},
		{
			name: "refresh grant without token",
			form: url.Values{"grant_type": {"refresh_token"}},
			code: apperrors.ErrCodeInvalidRequest,
		},
		{
			name:  "basic and form client ids differ",
			form:  url.Values{"grant_type": {"refresh_token"}, "refresh_token": {"r1"}, "client_id": {"other"}},
			basic: &ClientCredentials{ClientID: "finance-web", ClientSecret: "s3cret"},
			code:  apperrors.ErrCodeInvalidRequest,
		},
		{
			name:  "secret sent twice",
			form:  url.Values{"grant_type": {"refresh_token"}, "refresh_token": {"r1"}, "client_secret": {"s3cret"}},
			basic: &ClientCredentials{ClientID: "finance-web", ClientSecret: "s3cret"},
			code:  apperrors.ErrCodeInvalidRequest,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseTokenRequest(tt.form, tt.basic, meta)
			require.Error(t, err)
			assert.Equal(t, tt.code, apperrors.GetCode(err))
		})
	}
}
