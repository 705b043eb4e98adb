package service

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jafarshop/storefront/internal/repository/memory"
	"github.com/jafarshop/storefront/internal/session"
	apperrors "github.com/jafarshop/storefront/pkg/errors"
)

func newAuth(t *testing.T) *AuthService {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewAuthService(memory.NewRepositories(), session.NewStore(client, time.Hour), zap.NewNop())
}

func TestAuth_RegisterLoginLogout(t *testing.T) {
	auth := newAuth(t)
	ctx := context.Background()

	user, token, err := auth.Register(ctx, RegisterRequest{Name: "Asha", Email: "Asha@Example.com", Password: "secret1"})
	require.NoError(t, err)
	assert.Equal(t, "asha@example.com", user.Email)
	assert.NotEqual(t, "secret1", user.PasswordHash)
	assert.NotEmpty(t, token)

	_, _, err = auth.Register(ctx, RegisterRequest{Name: "Asha", Email: "asha@example.com", Password: "secret1"})
	assert.Equal(t, 400, apperrors.HTTPStatus(err))

	_, _, err = auth.Login(ctx, LoginRequest{Email: "asha@example.com", Password: "wrong"})
	assert.Equal(t, 401, apperrors.HTTPStatus(err))
	_, _, err = auth.Login(ctx, LoginRequest{Email: "nobody@example.com", Password: "secret1"})
	assert.Equal(t, 401, apperrors.HTTPStatus(err))

	_, token, err = auth.Login(ctx, LoginRequest{Email: "asha@example.com", Password: "secret1"})
	require.NoError(t, err)

	requester, err := auth.Authenticate(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, requester.UserID)
	assert.False(t, requester.IsAdmin)

	profile, err := auth.Profile(ctx, *requester)
	require.NoError(t, err)
	assert.Equal(t, "Asha", profile.Name)

	require.NoError(t, auth.Logout(ctx, token))
	_, err = auth.Authenticate(ctx, token)
	assert.Equal(t, 401, apperrors.HTTPStatus(err))
}
