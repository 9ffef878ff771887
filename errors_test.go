package auth_test

import (
	"errors"
	"testing"

	"github.com/goliatone/go-authkit"
	goerrors "github.com/goliatone/go-errors"
	"github.com/stretchr/testify/assert"
)

func TestIsTokenExpiredError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{
			name:     "Structured token expired error",
			err:      auth.ErrTokenExpired,
			expected: true,
		},
		{
			name:     "Legacy token expired error (string match)",
			err:      errors.New("some wrapper: token is expired"),
			expected: true,
		},
		{
			name:     "Different structured error",
			err:      auth.ErrUserNotFound,
			expected: false,
		},
		{
			name:     "Different legacy error",
			err:      errors.New("invalid token"),
			expected: false,
		},
		{
			name:     "Nil error",
			err:      nil,
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := auth.IsTokenExpiredError(tt.err)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestIsMalformedError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{
			name:     "Structured malformed error",
			err:      auth.ErrTokenMalformed,
			expected: true,
		},
		{
			name:     "Legacy malformed error (string match)",
			err:      errors.New("token is malformed"),
			expected: true,
		},
		{
			name:     "Legacy missing JWT error (string match)",
			err:      errors.New("missing or malformed JWT"),
			expected: true,
		},
		{
			name:     "Different legacy error",
			err:      errors.New("invalid token"),
			expected: false,
		},
		{
			name:     "Nil error",
			err:      nil,
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := auth.IsMalformedError(tt.err)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestStructuredErrorProperties(t *testing.T) {
	t.Run("ErrInvalidCredentials", func(t *testing.T) {
		assert.Equal(t, goerrors.CategoryAuth, auth.ErrInvalidCredentials.Category)
		assert.Equal(t, auth.TextCodeInvalidCreds, auth.ErrInvalidCredentials.TextCode)
		assert.Equal(t, "Email or Password is incorrect", auth.ErrInvalidCredentials.Message)
	})

	t.Run("ErrMismatchedHashAndPassword", func(t *testing.T) {
		assert.Equal(t, goerrors.CategoryAuth, auth.ErrMismatchedHashAndPassword.Category)
		assert.Equal(t, auth.TextCodeInvalidCreds, auth.ErrMismatchedHashAndPassword.TextCode)
		assert.Equal(t, "the credentials provided are invalid", auth.ErrMismatchedHashAndPassword.Message)
	})

	t.Run("ErrDuplicateEmail", func(t *testing.T) {
		assert.Equal(t, goerrors.CategoryConflict, auth.ErrDuplicateEmail.Category)
		assert.Equal(t, auth.TextCodeDuplicateEmail, auth.ErrDuplicateEmail.TextCode)
		assert.Equal(t, "Email is already registered", auth.ErrDuplicateEmail.Message)
	})

	t.Run("ErrDuplicateUsername", func(t *testing.T) {
		assert.Equal(t, goerrors.CategoryConflict, auth.ErrDuplicateUsername.Category)
		assert.Equal(t, "Username is already registered", auth.ErrDuplicateUsername.Message)
	})

	t.Run("ErrRefreshTokenNotFound", func(t *testing.T) {
		assert.Equal(t, goerrors.CategoryNotFound, auth.ErrRefreshTokenNotFound.Category)
		assert.Equal(t, auth.TextCodeRefreshNotFound, auth.ErrRefreshTokenNotFound.TextCode)
		assert.Equal(t, "Invalid Token", auth.ErrRefreshTokenNotFound.Message)
	})

	t.Run("ErrRefreshTokenInactive", func(t *testing.T) {
		assert.Equal(t, goerrors.CategoryAuth, auth.ErrRefreshTokenInactive.Category)
		assert.Equal(t, auth.TextCodeRefreshInactive, auth.ErrRefreshTokenInactive.TextCode)
		assert.Equal(t, "Inactive Token", auth.ErrRefreshTokenInactive.Message)
	})

	t.Run("ErrAlreadyInRole", func(t *testing.T) {
		assert.Equal(t, goerrors.CategoryConflict, auth.ErrAlreadyInRole.Category)
		assert.Equal(t, auth.TextCodeAlreadyInRole, auth.ErrAlreadyInRole.TextCode)
	})

	t.Run("ErrSigningKeyTooShort", func(t *testing.T) {
		assert.Equal(t, goerrors.CategoryValidation, auth.ErrSigningKeyTooShort.Category)
		assert.Equal(t, auth.TextCodeSigningKeyTooShort, auth.ErrSigningKeyTooShort.TextCode)
	})

	t.Run("ErrNoEmptyString", func(t *testing.T) {
		assert.Equal(t, goerrors.CategoryValidation, auth.ErrNoEmptyString.Category)
		assert.Equal(t, auth.TextCodeEmptyPassword, auth.ErrNoEmptyString.TextCode)
	})
}
