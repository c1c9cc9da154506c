package auth

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTManager(t *testing.T) {
	manager := NewJWTManager("test-secret", time.Hour)

	t.Run("round trip", func(t *testing.T) {
		userID := uuid.New()

		token, err := manager.Generate(userID, "alice@example.com")
		require.NoError(t, err)

		got, err := manager.Validate(token)
		require.NoError(t, err)
		assert.Equal(t, userID, got)
	})

	t.Run("wrong secret is rejected", func(t *testing.T) {
		token, err := manager.Generate(uuid.New(), "alice@example.com")
		require.NoError(t, err)

		other := NewJWTManager("other-secret", time.Hour)
		_, err = other.Validate(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("expired token is rejected", func(t *testing.T) {
		expired := NewJWTManager("test-secret", -time.Minute)
		token, err := expired.Generate(uuid.New(), "alice@example.com")
		require.NoError(t, err)

		_, err = manager.Validate(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("garbage token is rejected", func(t *testing.T) {
		_, err := manager.Validate("not.a.token")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}

func TestPasswords(t *testing.T) {
	t.Run("hash verifies against the original", func(t *testing.T) {
		hash, err := HashPassword("correct horse battery")
		require.NoError(t, err)

		assert.True(t, CheckPassword("correct horse battery", hash))
		assert.False(t, CheckPassword("wrong horse", hash))
	})

	t.Run("short passwords are rejected", func(t *testing.T) {
		_, err := HashPassword("short")
		assert.ErrorIs(t, err, ErrWeakPassword)
	})
}
