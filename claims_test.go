package auth_test

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/goliatone/go-authkit"
	"github.com/stretchr/testify/assert"
)

func TestClaimsBuilder_Build(t *testing.T) {
	builder := auth.NewClaimsBuilder()

	t.Run("maps user fields onto claims", func(t *testing.T) {
		user := testUser()
		user.Metadata = map[string]any{"plan": "pro"}

		claims := builder.Build(user)

		assert.Equal(t, "alice", claims.Subject())
		assert.Equal(t, user.ID.String(), claims.UserID())
		assert.Equal(t, "alice@example.com", claims.Email())
		assert.Equal(t, []string{auth.RoleUser}, claims.Roles())
		assert.Equal(t, "pro", claims.Metadata["plan"])
		assert.NotEmpty(t, claims.TokenID())
	})

	t.Run("claims hold copies, not the user's slices", func(t *testing.T) {
		user := testUser()
		user.Metadata = map[string]any{"plan": "pro"}

		claims := builder.Build(user)
		claims.UserRoles[0] = "Mangled"
		claims.Metadata["plan"] = "free"

		assert.Equal(t, []string{auth.RoleUser}, user.Roles)
		assert.Equal(t, "pro", user.Metadata["plan"])
	})

	t.Run("two builds differ only in their nonce", func(t *testing.T) {
		user := testUser()

		first := builder.Build(user)
		second := builder.Build(user)

		assert.NotEqual(t, first.TokenID(), second.TokenID())

		second.RegisteredClaims.ID = first.RegisteredClaims.ID
		assert.Equal(t, first, second)
	})
}

func TestJWTClaims(t *testing.T) {
	t.Run("UserID falls back to subject", func(t *testing.T) {
		claims := &auth.JWTClaims{
			RegisteredClaims: jwt.RegisteredClaims{Subject: "alice"},
		}

		assert.Equal(t, "alice", claims.UserID())
	})

	t.Run("HasRole matches exactly", func(t *testing.T) {
		claims := &auth.JWTClaims{UserRoles: []string{auth.RoleAdmin}}

		assert.True(t, claims.HasRole(auth.RoleAdmin))
		assert.False(t, claims.HasRole("admin"))
		assert.False(t, claims.HasRole(auth.RoleUser))
	})

	t.Run("time accessors tolerate missing registered claims", func(t *testing.T) {
		claims := &auth.JWTClaims{}

		assert.True(t, claims.Expires().IsZero())
		assert.True(t, claims.IssuedAt().IsZero())

		now := time.Now()
		claims.RegisteredClaims.ExpiresAt = jwt.NewNumericDate(now.Add(time.Hour))
		claims.RegisteredClaims.IssuedAt = jwt.NewNumericDate(now)

		assert.Equal(t, claims.RegisteredClaims.ExpiresAt.Time, claims.Expires())
		assert.Equal(t, claims.RegisteredClaims.IssuedAt.Time, claims.IssuedAt())
	})
}
