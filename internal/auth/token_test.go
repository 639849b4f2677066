package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SAP-F-2025/elearning-service/internal/config"
	"github.com/SAP-F-2025/elearning-service/internal/models"
	"github.com/SAP-F-2025/elearning-service/internal/repositories/postgres"
	"github.com/SAP-F-2025/elearning-service/internal/testutil"
)

func newTokenManager() *TokenManager {
	return NewTokenManager(config.JWTConfig{Secret: "test-secret", Issuer: "elearning-test", TTL: time.Hour})
}

func TestIssueAndParse(t *testing.T) {
	m := newTokenManager()
	user := &models.User{ID: 42, Role: models.RoleInstructor}

	token, expiresAt, err := m.Issue(user)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expiresAt, 5*time.Second)

	id, claims, err := m.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, uint(42), id)
	assert.Equal(t, models.RoleInstructor, claims.Role)
}

func TestParseRejects(t *testing.T) {
	m := newTokenManager()
	token, _, err := m.Issue(&models.User{ID: 1, Role: models.RoleStudent})
	require.NoError(t, err)

	t.Run("wrong secret", func(t *testing.T) {
		other := NewTokenManager(config.JWTConfig{Secret: "other", Issuer: "elearning-test", TTL: time.Hour})
		_, _, err := other.Parse(token)
		assert.True(t, errors.Is(err, ErrInvalidToken))
	})

	t.Run("wrong issuer", func(t *testing.T) {
		other := NewTokenManager(config.JWTConfig{Secret: "test-secret", Issuer: "someone-else", TTL: time.Hour})
		_, _, err := other.Parse(token)
		assert.True(t, errors.Is(err, ErrInvalidToken))
	})

	t.Run("expired", func(t *testing.T) {
		late := newTokenManager()
		late.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
		_, _, err := late.Parse(token)
		assert.True(t, errors.Is(err, ErrInvalidToken))
	})

	t.Run("garbage", func(t *testing.T) {
		_, _, err := m.Parse("not-a-token")
		assert.True(t, errors.Is(err, ErrInvalidToken))
	})
}

func TestLocalResolver(t *testing.T) {
	db := testutil.NewDB(t)
	user := testutil.CreateUser(t, db, "grace", models.RoleStudent)
	m := newTokenManager()
	resolver := NewLocalResolver(m, postgres.NewUserPostgreSQL(db))

	token, _, err := m.Issue(user)
	require.NoError(t, err)

	got, err := resolver.Resolve(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)
	assert.Equal(t, "grace@example.com", got.Email)

	ghost, _, err := m.Issue(&models.User{ID: 9999, Role: models.RoleAdmin})
	require.NoError(t, err)
	_, err = resolver.Resolve(context.Background(), ghost)
	assert.True(t, errors.Is(err, ErrInvalidToken))
}
