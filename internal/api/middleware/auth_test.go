package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/product-catalog/internal/auth"
	"github.com/example/product-catalog/internal/catalog"
)

func newTestJWT() *auth.JWTService {
	return auth.NewJWTService("middleware-test-secret", 15*time.Minute)
}

func issueToken(t *testing.T, jwtService *auth.JWTService, role catalog.Role) string {
	t.Helper()
	token, _, err := jwtService.GenerateToken(&catalog.User{
		ID:    "user-1",
		Name:  "Test User",
		Email: "user@example.com",
		Role:  role,
	})
	require.NoError(t, err)
	return token
}

func okHandler(captured **catalog.Actor) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*captured = ActorFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})
}

func TestAuth_ValidBearerToken(t *testing.T) {
	jwtService := newTestJWT()
	token := issueToken(t, jwtService, catalog.RoleEditor)

	var actor *catalog.Actor
	handler := Auth(jwtService)(okHandler(&actor))

	req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, actor)
	assert.Equal(t, "user-1", actor.ID)
	assert.Equal(t, catalog.RoleEditor, actor.Role)
	assert.True(t, actor.Elevated())
}

func TestAuth_CookieToken(t *testing.T) {
	jwtService := newTestJWT()
	token := issueToken(t, jwtService, catalog.RoleProvider)

	var actor *catalog.Actor
	handler := Auth(jwtService)(okHandler(&actor))

	req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	req.AddCookie(&http.Cookie{Name: "access_token", Value: token})
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, actor)
	assert.Equal(t, catalog.RoleProvider, actor.Role)
}

func TestAuth_MissingToken(t *testing.T) {
	var actor *catalog.Actor
	handler := Auth(newTestJWT())(okHandler(&actor))

	req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Nil(t, actor)
}

func TestAuth_InvalidToken(t *testing.T) {
	var actor *catalog.Actor
	handler := Auth(newTestJWT())(okHandler(&actor))

	req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Nil(t, actor)
}

func TestOptionalAuth_AnonymousPassesThrough(t *testing.T) {
	var actor *catalog.Actor
	handler := OptionalAuth(newTestJWT())(okHandler(&actor))

	req := httptest.NewRequest(http.MethodGet, "/products", nil)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Nil(t, actor)
}

func TestOptionalAuth_WithToken(t *testing.T) {
	jwtService := newTestJWT()
	token := issueToken(t, jwtService, catalog.RoleAdmin)

	var actor *catalog.Actor
	handler := OptionalAuth(jwtService)(okHandler(&actor))

	req := httptest.NewRequest(http.MethodGet, "/products", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, actor)
	assert.Equal(t, catalog.RoleAdmin, actor.Role)
}

func TestOptionalAuth_BadTokenTreatedAsAnonymous(t *testing.T) {
	var actor *catalog.Actor
	handler := OptionalAuth(newTestJWT())(okHandler(&actor))

	req := httptest.NewRequest(http.MethodGet, "/products", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Nil(t, actor)
}

func TestRequireService(t *testing.T) {
	handler := RequireService("shared-secret")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/internal/products", nil)
	req.Header.Set("X-Service-Token", "shared-secret")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/internal/products", nil)
	req.Header.Set("X-Service-Token", "wrong")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/internal/products", nil)
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}
