package service

import (
	"context"
	"testing"
	"time"

	"github.com/edufeedback/backend/internal/model"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPasswordHashing(t *testing.T) {
	f := newFixture(t)

	hash, err := f.auth.HashPassword("secret")
	require.NoError(t, err)
	assert.NotEqual(t, "secret", hash)

	assert.NoError(t, f.auth.CheckPassword(hash, "secret"))
	assert.ErrorIs(t, f.auth.CheckPassword(hash, "wrong"), ErrInvalidCredentials)
}

func TestIssueAndValidateToken(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := &model.User{ID: 7, Role: model.RoleStudent}

	token, err := f.auth.IssueToken(ctx, u)
	require.NoError(t, err)
	assert.Equal(t, 1, f.sessions.Count(7))

	claims, err := f.auth.ValidateToken(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, 7, claims.UserID)
	assert.Equal(t, model.RoleStudent, claims.Role)
	assert.Equal(t, "7", claims.Subject)
	assert.NotEmpty(t, claims.ID)
}

func TestLogoutRevokesToken(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	token, err := f.auth.IssueToken(ctx, &model.User{ID: 3, Role: model.RoleAdmin})
	require.NoError(t, err)
	claims, err := f.auth.ValidateToken(ctx, token)
	require.NoError(t, err)

	require.NoError(t, f.auth.Logout(ctx, claims))

	_, err = f.auth.ValidateToken(ctx, token)
	assert.ErrorIs(t, err, ErrSessionRevoked)
}

func TestRevokeUserEndsAllSessions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := &model.User{ID: 4, Role: model.RoleStudent}

	first, err := f.auth.IssueToken(ctx, u)
	require.NoError(t, err)
	second, err := f.auth.IssueToken(ctx, u)
	require.NoError(t, err)

	n, err := f.auth.RevokeUser(ctx, 4)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	for _, tok := range []string{first, second} {
		_, err := f.auth.ValidateToken(ctx, tok)
		assert.ErrorIs(t, err, ErrSessionRevoked)
	}
}

func TestValidateTokenRejectsForeignSignature(t *testing.T) {
	f := newFixture(t)

	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        "forged",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
		UserID: 1,
		Role:   model.RoleAdmin,
	}
	forged, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("other-secret"))
	require.NoError(t, err)

	_, err = f.auth.ValidateToken(context.Background(), forged)
	assert.Error(t, err)
}

func TestValidateTokenRejectsExpired(t *testing.T) {
	f := newFixture(t)
	f.cfg.JWTExpiry = -time.Minute

	token, err := f.auth.IssueToken(context.Background(), &model.User{ID: 1, Role: model.RoleAdmin})
	require.NoError(t, err)

	_, err = f.auth.ValidateToken(context.Background(), token)
	assert.Error(t, err)
}
