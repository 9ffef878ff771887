package auth_test

import (
	"testing"
	"time"

	"github.com/goliatone/go-authkit"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestRefreshTokenStore_Generate(t *testing.T) {
	store := auth.NewRefreshTokenStore(testConfig(), noopLogger{})
	user := testUser()

	t.Run("appends an active token to the user", func(t *testing.T) {
		before := time.Now()
		token, err := store.Generate(user)

		require.NoError(t, err)
		assert.NotEmpty(t, token.Token)
		assert.Equal(t, user.ID, token.UserID)
		assert.True(t, token.IsActive())
		assert.Nil(t, token.RevokedOn)
		assert.Len(t, user.RefreshTokens, 1)
		assert.Same(t, token, user.RefreshTokens[0])

		expectedExpiry := before.Add(10 * 24 * time.Hour)
		assert.WithinDuration(t, expectedExpiry, token.ExpiresOn, time.Minute)
	})

	t.Run("tokens are unique", func(t *testing.T) {
		seen := map[string]bool{}
		for i := 0; i < 10; i++ {
			token, err := store.Generate(user)
			require.NoError(t, err)
			assert.False(t, seen[token.Token])
			seen[token.Token] = true
		}
	})
}

func TestRefreshTokenStore_FindActive(t *testing.T) {
	store := auth.NewRefreshTokenStore(testConfig(), noopLogger{})

	t.Run("returns nil when the user has no tokens", func(t *testing.T) {
		assert.Nil(t, store.FindActive(testUser()))
	})

	t.Run("returns the oldest active token", func(t *testing.T) {
		user := testUser()
		first, err := store.Generate(user)
		require.NoError(t, err)
		_, err = store.Generate(user)
		require.NoError(t, err)

		assert.Same(t, first, store.FindActive(user))
	})

	t.Run("skips revoked and expired tokens", func(t *testing.T) {
		user := testUser()
		revoked, err := store.Generate(user)
		require.NoError(t, err)
		now := time.Now()
		revoked.RevokedOn = &now

		expired, err := store.Generate(user)
		require.NoError(t, err)
		expired.ExpiresOn = now.Add(-time.Hour)

		active, err := store.Generate(user)
		require.NoError(t, err)

		assert.Same(t, active, store.FindActive(user))
	})

	t.Run("returns nil when every token is spent", func(t *testing.T) {
		user := testUser()
		token, err := store.Generate(user)
		require.NoError(t, err)
		now := time.Now()
		token.RevokedOn = &now

		assert.Nil(t, store.FindActive(user))
	})
}

func TestRefreshTokenStore_Rotate(t *testing.T) {
	store := auth.NewRefreshTokenStore(testConfig(), noopLogger{})

	t.Run("revokes the old token and issues a replacement", func(t *testing.T) {
		user := testUser()
		token, err := store.Generate(user)
		require.NoError(t, err)

		old, replacement, err := store.Rotate(user, token.Token)

		require.NoError(t, err)
		assert.Same(t, token, old)
		assert.NotNil(t, old.RevokedOn)
		assert.False(t, old.IsActive())
		assert.True(t, replacement.IsActive())
		assert.NotEqual(t, old.Token, replacement.Token)
		assert.Len(t, user.RefreshTokens, 2)
	})

	t.Run("rotating the same token twice reports it inactive", func(t *testing.T) {
		user := testUser()
		token, err := store.Generate(user)
		require.NoError(t, err)

		_, _, err = store.Rotate(user, token.Token)
		require.NoError(t, err)

		_, _, err = store.Rotate(user, token.Token)
		assert.ErrorIs(t, err, auth.ErrRefreshTokenInactive)
	})

	t.Run("logs a warning on reuse", func(t *testing.T) {
		logger := &MockLogger{}
		logger.On("Warn", "refresh token reuse attempt for user %s", mock.Anything).Once()

		loggingStore := auth.NewRefreshTokenStore(testConfig(), logger)

		user := testUser()
		token, err := loggingStore.Generate(user)
		require.NoError(t, err)

		_, _, err = loggingStore.Rotate(user, token.Token)
		require.NoError(t, err)

		_, _, err = loggingStore.Rotate(user, token.Token)
		assert.ErrorIs(t, err, auth.ErrRefreshTokenInactive)
		logger.AssertExpectations(t)
	})

	t.Run("revoked tokens rotate as inactive, never unknown", func(t *testing.T) {
		user := testUser()
		token, err := store.Generate(user)
		require.NoError(t, err)

		_, err = store.Revoke(user, token.Token)
		require.NoError(t, err)

		_, _, err = store.Rotate(user, token.Token)
		assert.ErrorIs(t, err, auth.ErrRefreshTokenInactive)
	})

	t.Run("unknown token", func(t *testing.T) {
		user := testUser()
		_, _, err := store.Rotate(user, "nope")
		assert.ErrorIs(t, err, auth.ErrRefreshTokenNotFound)
	})
}

func TestRefreshTokenStore_Revoke(t *testing.T) {
	store := auth.NewRefreshTokenStore(testConfig(), noopLogger{})

	t.Run("marks the token revoked", func(t *testing.T) {
		user := testUser()
		token, err := store.Generate(user)
		require.NoError(t, err)

		revoked, err := store.Revoke(user, token.Token)

		require.NoError(t, err)
		assert.Same(t, token, revoked)
		assert.NotNil(t, revoked.RevokedOn)
		assert.False(t, revoked.IsActive())
	})

	t.Run("revoking twice reports inactive", func(t *testing.T) {
		user := testUser()
		token, err := store.Generate(user)
		require.NoError(t, err)

		_, err = store.Revoke(user, token.Token)
		require.NoError(t, err)

		_, err = store.Revoke(user, token.Token)
		assert.ErrorIs(t, err, auth.ErrRefreshTokenInactive)
	})

	t.Run("unknown token", func(t *testing.T) {
		_, err := store.Revoke(testUser(), "nope")
		assert.ErrorIs(t, err, auth.ErrRefreshTokenNotFound)
	})
}
