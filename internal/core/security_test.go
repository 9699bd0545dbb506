// AgriSahay | 2026
// security_test.go

package core

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashPassword(t *testing.T) {
	hash, err := HashPassword("correct horse battery staple")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(hash, "$argon2id$"))
	assert.Len(t, strings.Split(hash, "$"), 6)

	// Fresh salt every call.
	other, err := HashPassword("correct horse battery staple")
	require.NoError(t, err)
	assert.NotEqual(t, hash, other)
}

func TestVerifyPassword(t *testing.T) {
	hash, err := HashPassword("s3cret-pass")
	require.NoError(t, err)

	t.Run("matching password verifies", func(t *testing.T) {
		assert.True(t, VerifyPassword("s3cret-pass", hash))
	})

	t.Run("wrong password fails", func(t *testing.T) {
		assert.False(t, VerifyPassword("wrong-pass", hash))
	})

	t.Run("malformed digest fails instead of erroring", func(t *testing.T) {
		assert.False(t, VerifyPassword("s3cret-pass", "not-a-digest"))
		assert.False(t, VerifyPassword("s3cret-pass", ""))
		assert.False(t, VerifyPassword("s3cret-pass", "$argon2i$v=19$m=1,t=1,p=1$AA$AA"))
	})
}

func TestVerifyPasswordTimingSafe(t *testing.T) {
	hash, err := HashPassword("s3cret-pass")
	require.NoError(t, err)

	t.Run("matching password verifies", func(t *testing.T) {
		assert.True(t, VerifyPasswordTimingSafe("s3cret-pass", &hash))
	})

	t.Run("wrong password fails", func(t *testing.T) {
		assert.False(t, VerifyPasswordTimingSafe("wrong-pass", &hash))
	})

	t.Run("nil hash always fails", func(t *testing.T) {
		assert.False(t, VerifyPasswordTimingSafe("s3cret-pass", nil))
	})

	t.Run("empty hash always fails", func(t *testing.T) {
		empty := ""
		assert.False(t, VerifyPasswordTimingSafe("s3cret-pass", &empty))
	})
}

func TestGenerateRecoveryToken(t *testing.T) {
	token, err := GenerateRecoveryToken()
	require.NoError(t, err)
	require.NotEmpty(t, token)

	other, err := GenerateRecoveryToken()
	require.NoError(t, err)
	assert.NotEqual(t, token, other)
}

func TestHashToken(t *testing.T) {
	token := "opaque-recovery-token"
	hash := HashToken(token)

	assert.Len(t, hash, 64)
	assert.Equal(t, hash, HashToken(token))
	assert.NotEqual(t, hash, HashToken("different-token"))
	assert.NotContains(t, hash, token)
}
