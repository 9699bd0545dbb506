// AgriSahay | 2026
// tokens_test.go

package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agrisahay/identity-backend/internal/config"
	"github.com/agrisahay/identity-backend/internal/core"
)

func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{
		Secret:      "0123456789abcdef0123456789abcdef",
		TokenExpire: time.Hour,
		Issuer:      "agrisahay-identity",
		Audience:    "agrisahay-api",
	}
}

func testAccount() *AccountInfo {
	return &AccountInfo{
		ID:       "3f6c1f6a-9d1e-4f38-8b8a-2d1f0c9e7a11",
		Name:     "Asha Patel",
		Username: "asha_patel",
		Email:    "asha@example.com",
		Phone:    "918682922431",
		Language: "hi",
		Role:     "farmer",
	}
}

func TestTokenIssuer_RoundTrip(t *testing.T) {
	issuer, err := NewTokenIssuer(testJWTConfig())
	require.NoError(t, err)

	account := testAccount()
	signed, expiresAt, err := issuer.Issue(account)
	require.NoError(t, err)
	require.NotEmpty(t, signed)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expiresAt, 5*time.Second)

	principal, err := issuer.Validate(context.Background(), signed)
	require.NoError(t, err)
	assert.Equal(t, account.ID, principal.AccountID)
	assert.Equal(t, account.Email, principal.Email)
	assert.Equal(t, account.Role, principal.Role)
}

func TestTokenIssuer_Validate_Expired(t *testing.T) {
	cfg := testJWTConfig()
	cfg.TokenExpire = -time.Minute

	issuer, err := NewTokenIssuer(cfg)
	require.NoError(t, err)

	signed, _, err := issuer.Issue(testAccount())
	require.NoError(t, err)

	_, err = issuer.Validate(context.Background(), signed)
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrTokenExpired)
}

func TestTokenIssuer_Validate_Garbage(t *testing.T) {
	issuer, err := NewTokenIssuer(testJWTConfig())
	require.NoError(t, err)

	for _, token := range []string{
		"",
		"not.a.token",
		"eyJhbGciOiJIUzI1NiJ9.e30.deadbeef",
	} {
		_, err := issuer.Validate(context.Background(), token)
		require.Error(t, err, token)
		assert.ErrorIs(t, err, core.ErrTokenInvalid, token)
	}
}

func TestTokenIssuer_Validate_WrongSecret(t *testing.T) {
	issuer, err := NewTokenIssuer(testJWTConfig())
	require.NoError(t, err)

	signed, _, err := issuer.Issue(testAccount())
	require.NoError(t, err)

	otherCfg := testJWTConfig()
	otherCfg.Secret = "ffffffffffffffffffffffffffffffff"
	other, err := NewTokenIssuer(otherCfg)
	require.NoError(t, err)

	_, err = other.Validate(context.Background(), signed)
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrTokenInvalid)
}

func TestTokenIssuer_Validate_WrongAudience(t *testing.T) {
	issuer, err := NewTokenIssuer(testJWTConfig())
	require.NoError(t, err)

	signed, _, err := issuer.Issue(testAccount())
	require.NoError(t, err)

	otherCfg := testJWTConfig()
	otherCfg.Audience = "some-other-service"
	other, err := NewTokenIssuer(otherCfg)
	require.NoError(t, err)

	_, err = other.Validate(context.Background(), signed)
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrTokenInvalid)
}

func TestTokenIssuer_UniqueTokenIDs(t *testing.T) {
	issuer, err := NewTokenIssuer(testJWTConfig())
	require.NoError(t, err)

	first, _, err := issuer.Issue(testAccount())
	require.NoError(t, err)

	second, _, err := issuer.Issue(testAccount())
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
}
