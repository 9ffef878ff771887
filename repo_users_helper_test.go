package auth

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestPrepareUserDefaults(t *testing.T) {
	t.Parallel()

	t.Run("fills missing id and roles", func(t *testing.T) {
		record := &User{}

		prepareUserDefaults(record)

		assert.NotEqual(t, uuid.Nil, record.ID)
		assert.Equal(t, []string{RoleUser}, record.Roles)
	})

	t.Run("keeps provided values", func(t *testing.T) {
		id := uuid.New()
		record := &User{ID: id, Roles: []string{RoleAdmin}}

		prepareUserDefaults(record)

		assert.Equal(t, id, record.ID)
		assert.Equal(t, []string{RoleAdmin}, record.Roles)
	})

	t.Run("tolerates nil", func(t *testing.T) {
		assert.NotPanics(t, func() {
			prepareUserDefaults(nil)
		})
	})
}

func TestFindRefreshToken(t *testing.T) {
	t.Parallel()

	token := &RefreshToken{Token: "needle"}
	user := &User{RefreshTokens: []*RefreshToken{
		{Token: "other"},
		token,
	}}

	assert.Same(t, token, findRefreshToken(user, "needle"))
	assert.Nil(t, findRefreshToken(user, "missing"))
	assert.Nil(t, findRefreshToken(&User{}, "needle"))
}
