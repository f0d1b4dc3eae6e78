package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashPassword_ValidPassword(t *testing.T) {
	hash, err := HashPassword("provider-password-1")
	require.NoError(t, err)
	assert.NotEmpty(t, hash)
	assert.NotEqual(t, "provider-password-1", hash)
}

func TestHashPassword_ShortPassword(t *testing.T) {
	hash, err := HashPassword("short")
	assert.ErrorIs(t, err, ErrPasswordTooShort)
	assert.Empty(t, hash)
}

func TestHashPassword_DifferentHashesForSamePassword(t *testing.T) {
	hash1, err := HashPassword("testpassword123")
	require.NoError(t, err)

	hash2, err := HashPassword("testpassword123")
	require.NoError(t, err)

	assert.NotEqual(t, hash1, hash2)
}

func TestCheckPassword(t *testing.T) {
	hash, err := HashPassword("correctpassword")
	require.NoError(t, err)

	assert.True(t, CheckPassword("correctpassword", hash))
	assert.False(t, CheckPassword("wrongpassword", hash))
	assert.False(t, CheckPassword("", hash))
	assert.False(t, CheckPassword("correctpassword", "invalid-hash"))
}
