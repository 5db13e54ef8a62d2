package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/systemsmatic/backend/internal/http/middleware"
)

func newTestAuthService(t *testing.T) *Service {
	t.Helper()
	return NewService(NewInMemoryRepository(), "test-secret", time.Hour, nil)
}

func TestRegisterAndLogin(t *testing.T) {
	svc := newTestAuthService(t)
	ctx := context.Background()

	u, err := svc.Register(ctx, "Admin@SystemsMatic.example.com", "s3cret-passw0rd", "")
	require.NoError(t, err)
	assert.Equal(t, "admin@systemsmatic.example.com", u.Email)
	assert.Equal(t, RoleAdmin, u.Role)
	assert.NotEqual(t, "s3cret-passw0rd", u.PasswordHash)

	token, got, err := svc.Login(ctx, "admin@systemsmatic.example.com", "s3cret-passw0rd")
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.Equal(t, u.ID, got.ID)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	svc := newTestAuthService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, "admin@example.com", "correct-password", "")
	require.NoError(t, err)

	_, _, err = svc.Login(ctx, "admin@example.com", "wrong-password")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, _, err = svc.Login(ctx, "nobody@example.com", "whatever")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc := newTestAuthService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, "admin@example.com", "pw-one", "")
	require.NoError(t, err)
	_, err = svc.Register(ctx, "ADMIN@example.com", "pw-two", "")
	assert.ErrorIs(t, err, ErrEmailTaken)
}

func TestIssuedTokenPassesAdminMiddleware(t *testing.T) {
	svc := newTestAuthService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, "admin@example.com", "s3cret-passw0rd", "")
	require.NoError(t, err)
	token, _, err := svc.Login(ctx, "admin@example.com", "s3cret-passw0rd")
	require.NoError(t, err)

	mw := middleware.AdminJWT("test-secret")
	req := httptest.NewRequest(http.MethodGet, "/backoffice/dashboard", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()

	called := false
	mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		claims, ok := middleware.AdminClaimsFromContext(r.Context())
		require.True(t, ok)
		assert.Equal(t, "admin@example.com", claims.Email)
	})).ServeHTTP(rec, req)

	assert.True(t, called)
	assert.Equal(t, http.StatusOK, rec.Code)
}
