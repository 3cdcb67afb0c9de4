package services

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"github.com/ruhafzazahedi/shield/internal/middleware"
	"github.com/ruhafzazahedi/shield/internal/models"
)

func TestAuth_PasswordRoundTrip(t *testing.T) {
	svc := NewAuthService(newMemUserRepo(), testAuthConfig())

	hash, err := svc.HashPassword("s3cret-pass")
	require.NoError(t, err)
	require.NotEqual(t, "s3cret-pass", hash)

	require.NoError(t, svc.CheckPassword(hash, "s3cret-pass"))
	require.ErrorIs(t, svc.CheckPassword(hash, "wrong"), ErrInvalidCredentials)
	require.ErrorIs(t, svc.CheckPassword("", "anything"), ErrInvalidCredentials)
}

func TestAuth_IssueTokens(t *testing.T) {
	users := newMemUserRepo()
	user := users.add(&models.User{Username: "u", Active: true})
	cfg := testAuthConfig()
	svc := NewAuthService(users, cfg)

	pair, err := svc.IssueTokens(user)
	require.NoError(t, err)
	require.NotEmpty(t, pair.AccessToken)
	require.NotEmpty(t, pair.RefreshToken)

	claims := &middleware.Claims{}
	_, err = jwt.ParseWithClaims(pair.AccessToken, claims, func(*jwt.Token) (interface{}, error) {
		return []byte(cfg.JWTSecret), nil
	})
	require.NoError(t, err)
	require.Equal(t, user.ID, claims.UserID)

	// refresh сохранён за пользователем
	stored, _ := users.GetByID(user.ID)
	require.NotNil(t, stored.RefreshToken)
	require.Equal(t, pair.RefreshToken, *stored.RefreshToken)
}

func TestAuth_RefreshRotatesToken(t *testing.T) {
	users := newMemUserRepo()
	user := users.add(&models.User{Username: "u", Active: true})
	svc := NewAuthService(users, testAuthConfig())

	pair, err := svc.IssueTokens(user)
	require.NoError(t, err)

	next, got, err := svc.Refresh(pair.RefreshToken)
	require.NoError(t, err)
	require.Equal(t, user.ID, got.ID)
	require.NotEqual(t, pair.RefreshToken, next.RefreshToken)

	// старый refresh больше не действует
	_, _, err = svc.Refresh(pair.RefreshToken)
	require.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestAuth_RefreshRejectsRevokedAndExpired(t *testing.T) {
	users := newMemUserRepo()
	user := users.add(&models.User{Username: "u", Active: true})
	svc := NewAuthService(users, testAuthConfig())

	_, _, err := svc.Refresh("no-such-token")
	require.ErrorIs(t, err, ErrInvalidCredentials)

	pair, err := svc.IssueTokens(user)
	require.NoError(t, err)

	past := time.Now().Add(-time.Minute)
	user.RefreshExpiresAt = &past
	_, _, err = svc.Refresh(pair.RefreshToken)
	require.ErrorIs(t, err, ErrInvalidCredentials)

	pair, err = svc.IssueTokens(user)
	require.NoError(t, err)
	require.NoError(t, users.ClearRefresh(user.ID))
	_, _, err = svc.Refresh(pair.RefreshToken)
	require.ErrorIs(t, err, ErrInvalidCredentials)
}
