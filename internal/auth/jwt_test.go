package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/product-catalog/internal/catalog"
)

func newTestJWTService() *JWTService {
	return NewJWTService("test-secret-key-for-testing-purposes", 15*time.Minute)
}

func testUser() *catalog.User {
	return &catalog.User{
		ID:    "user-123",
		Name:  "Alice Provider",
		Email: "alice@example.com",
		Role:  catalog.RoleProvider,
	}
}

func TestJWTService_GenerateToken_Success(t *testing.T) {
	service := newTestJWTService()

	token, expiresAt, err := service.GenerateToken(testUser())

	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.True(t, expiresAt.After(time.Now()))
	assert.True(t, expiresAt.Before(time.Now().Add(16*time.Minute)))
}

func TestJWTService_ValidateToken_Valid(t *testing.T) {
	service := newTestJWTService()
	user := testUser()

	token, _, err := service.GenerateToken(user)
	require.NoError(t, err)

	claims, err := service.ValidateToken(token)

	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
	assert.Equal(t, user.Name, claims.Name)
	assert.Equal(t, user.Email, claims.Email)
	assert.Equal(t, string(user.Role), claims.Role)
	assert.Equal(t, user.ID, claims.Subject)
}

func TestJWTService_ValidateToken_Expired(t *testing.T) {
	service := NewJWTService("test-secret", 1*time.Millisecond)

	token, _, err := service.GenerateToken(testUser())
	require.NoError(t, err)

	time.Sleep(10 * time.Millisecond)

	claims, err := service.ValidateToken(token)

	assert.ErrorIs(t, err, ErrExpiredToken)
	assert.Nil(t, claims)
}

func TestJWTService_ValidateToken_Invalid(t *testing.T) {
	service := newTestJWTService()

	tests := []struct {
		name  string
		token string
	}{
		{"empty token", ""},
		{"random string", "not-a-valid-token"},
		{"malformed JWT", "eyJhbGciOiJIUzI1NiIsInR5cCI6IkpXVCJ9.invalid.signature"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claims, err := service.ValidateToken(tt.token)
			assert.ErrorIs(t, err, ErrInvalidToken)
			assert.Nil(t, claims)
		})
	}
}

func TestJWTService_ValidateToken_WrongSignature(t *testing.T) {
	service1 := NewJWTService("secret-key-1", 15*time.Minute)
	service2 := NewJWTService("secret-key-2", 15*time.Minute)

	token, _, err := service1.GenerateToken(testUser())
	require.NoError(t, err)

	claims, err := service2.ValidateToken(token)

	assert.ErrorIs(t, err, ErrInvalidToken)
	assert.Nil(t, claims)
}

func TestJWTService_ValidateToken_WrongAlgorithm(t *testing.T) {
	service := newTestJWTService()

	token := jwt.NewWithClaims(jwt.SigningMethodNone, &Claims{
		UserID: "user-123",
		Email:  "alice@example.com",
		Role:   "admin",
	})
	tokenString, err := token.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	claims, err := service.ValidateToken(tokenString)

	assert.ErrorIs(t, err, ErrInvalidToken)
	assert.Nil(t, claims)
}

func TestClaims_Actor(t *testing.T) {
	service := newTestJWTService()
	user := testUser()

	token, _, err := service.GenerateToken(user)
	require.NoError(t, err)

	claims, err := service.ValidateToken(token)
	require.NoError(t, err)

	actor := claims.Actor()
	assert.Equal(t, user.ID, actor.ID)
	assert.Equal(t, user.Name, actor.Name)
	assert.Equal(t, catalog.RoleProvider, actor.Role)
	assert.False(t, actor.Elevated())
}

func TestVerifyServiceToken(t *testing.T) {
	assert.True(t, VerifyServiceToken("shared-secret", "shared-secret"))
	assert.False(t, VerifyServiceToken("shared-secret", "wrong"))
	assert.False(t, VerifyServiceToken("", ""))
	assert.False(t, VerifyServiceToken("", "anything"))
	assert.False(t, VerifyServiceToken("shared-secret", ""))
}
