package services

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yungbote/smartstudy-backend/internal/pkg/dbctx"
	"github.com/yungbote/smartstudy-backend/internal/platform/apierr"
	"github.com/yungbote/smartstudy-backend/internal/platform/ctxutil"
)

func TestRegisterLoginMe(t *testing.T) {
	svc, logins := newAuthService(t)
	ctx := context.Background()

	require.NoError(t, svc.Register(ctx, RegisterInput{Username: " ada ", Password: "secret123", FullName: "Ada L"}))

	err := svc.Register(ctx, RegisterInput{Username: "ada", Password: "another1"})
	assert.Equal(t, http.StatusBadRequest, apierr.StatusOf(err))

	_, err = svc.Login(ctx, LoginInput{Username: "ada", Password: "wrong-pass"})
	assert.Equal(t, http.StatusUnauthorized, apierr.StatusOf(err))
	_, err = svc.Login(ctx, LoginInput{Username: "nobody", Password: "secret123"})
	assert.Equal(t, http.StatusUnauthorized, apierr.StatusOf(err))

	token, err := svc.Login(ctx, LoginInput{Username: "ada", Password: "secret123", IP: "127.0.0.1"})
	require.NoError(t, err)

	authed, err := svc.SetContextFromToken(ctx, token)
	require.NoError(t, err)
	userID := ctxutil.UserID(authed)
	require.NotEqual(t, uuid.Nil, userID)

	me, err := svc.Me(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, "ada", me.Username)
	assert.Equal(t, "Ada L", me.FullName)

	events, err := logins.ListByUserID(dbctx.Context{Ctx: ctx}, userID, 10)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "127.0.0.1", events[0].IP)
}

func TestRegisterValidation(t *testing.T) {
	svc, _ := newAuthService(t)
	ctx := context.Background()
	assert.Equal(t, http.StatusBadRequest, apierr.StatusOf(svc.Register(ctx, RegisterInput{Password: "secret123"})))
	assert.Equal(t, http.StatusBadRequest, apierr.StatusOf(svc.Register(ctx, RegisterInput{Username: "bob", Password: "123"})))
}

func TestSetContextFromTokenRejectsBadTokens(t *testing.T) {
	svc, _ := newAuthService(t)
	ctx := context.Background()

	_, err := svc.SetContextFromToken(ctx, "")
	assert.Equal(t, http.StatusUnauthorized, apierr.StatusOf(err))
	_, err = svc.SetContextFromToken(ctx, "not.a.token")
	assert.Equal(t, http.StatusUnauthorized, apierr.StatusOf(err))

	sign := func(secret string, exp time.Time) string {
		claims := JWTClaims{
			UserID:           uuid.NewString(),
			RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(exp)},
		}
		s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
		require.NoError(t, err)
		return s
	}
	_, err = svc.SetContextFromToken(ctx, sign("other-secret", time.Now().Add(time.Hour)))
	assert.Equal(t, http.StatusUnauthorized, apierr.StatusOf(err))
	_, err = svc.SetContextFromToken(ctx, sign("test-secret", time.Now().Add(-time.Hour)))
	assert.Equal(t, http.StatusUnauthorized, apierr.StatusOf(err))

	authed, err := svc.SetContextFromToken(ctx, sign("test-secret", time.Now().Add(time.Hour)))
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, ctxutil.UserID(authed))
}
