package auth

import (
	"strings"

	"github.com/goliatone/go-errors"
)

// Text codes give API clients a stable, machine readable failure identifier
// independent of the human readable message.
const (
	TextCodeInvalidCreds       = "INVALID_CREDENTIALS"
	TextCodeDuplicateEmail     = "DUPLICATE_EMAIL"
	TextCodeDuplicateUsername  = "DUPLICATE_USERNAME"
	TextCodeUserNotFound       = "USER_NOT_FOUND"
	TextCodeRoleNotFound       = "ROLE_NOT_FOUND"
	TextCodeAlreadyInRole      = "ALREADY_IN_ROLE"
	TextCodeRefreshNotFound    = "REFRESH_TOKEN_NOT_FOUND"
	TextCodeRefreshInactive    = "REFRESH_TOKEN_INACTIVE"
	TextCodeTokenExpired       = "TOKEN_EXPIRED"
	TextCodeBadSignature       = "TOKEN_BAD_SIGNATURE"
	TextCodeIssuerMismatch     = "TOKEN_ISSUER_MISMATCH"
	TextCodeAudienceMismatch   = "TOKEN_AUDIENCE_MISMATCH"
	TextCodeTokenMalformed     = "TOKEN_MALFORMED"
	TextCodeSigningKeyTooShort = "SIGNING_KEY_TOO_SHORT"
	TextCodeEmptyPassword      = "EMPTY_PASSWORD"
)

// ErrInvalidCredentials covers both unknown email and wrong password so the
// response never reveals whether an account exists.
var ErrInvalidCredentials = errors.New("Email or Password is incorrect", errors.CategoryAuth).
	WithTextCode(TextCodeInvalidCreds)

// ErrMismatchedHashAndPassword is returned when a password hash comparison fails
var ErrMismatchedHashAndPassword = errors.New("the credentials provided are invalid", errors.CategoryAuth).
	WithTextCode(TextCodeInvalidCreds)

// ErrDuplicateEmail rejects registration against an already registered email
var ErrDuplicateEmail = errors.New("Email is already registered", errors.CategoryConflict).
	WithTextCode(TextCodeDuplicateEmail)

// ErrDuplicateUsername rejects registration against an already taken username
var ErrDuplicateUsername = errors.New("Username is already registered", errors.CategoryConflict).
	WithTextCode(TextCodeDuplicateUsername)

// ErrUserNotFound is the error we return for non found users
var ErrUserNotFound = errors.New("user not found", errors.CategoryNotFound).
	WithTextCode(TextCodeUserNotFound)

// ErrRoleNotFound is returned when assigning a role that does not exist
var ErrRoleNotFound = errors.New("role not found", errors.CategoryNotFound).
	WithTextCode(TextCodeRoleNotFound)

// ErrAlreadyInRole is returned when the user already holds the role
var ErrAlreadyInRole = errors.New("user already in this role", errors.CategoryConflict).
	WithTextCode(TextCodeAlreadyInRole)

// ErrRefreshTokenNotFound means no user owns a refresh token with that value
var ErrRefreshTokenNotFound = errors.New("Invalid Token", errors.CategoryNotFound).
	WithTextCode(TextCodeRefreshNotFound)

// ErrRefreshTokenInactive means the token exists but is revoked or expired.
// On a rotate call this is security relevant: it may indicate reuse of a
// leaked, already rotated token.
var ErrRefreshTokenInactive = errors.New("Inactive Token", errors.CategoryAuth).
	WithTextCode(TextCodeRefreshInactive)

// ErrTokenExpired is returned for session tokens past their expiry instant
var ErrTokenExpired = errors.New("token is expired", errors.CategoryAuth).
	WithTextCode(TextCodeTokenExpired)

// ErrBadSignature is returned when the token signature does not verify
var ErrBadSignature = errors.New("token signature is invalid", errors.CategoryAuth).
	WithTextCode(TextCodeBadSignature)

// ErrIssuerMismatch is returned when the token issuer is not ours
var ErrIssuerMismatch = errors.New("token issuer mismatch", errors.CategoryAuth).
	WithTextCode(TextCodeIssuerMismatch)

// ErrAudienceMismatch is returned when the token audience is not ours
var ErrAudienceMismatch = errors.New("token audience mismatch", errors.CategoryAuth).
	WithTextCode(TextCodeAudienceMismatch)

// ErrTokenMalformed covers tokens we cannot parse or validate structurally
var ErrTokenMalformed = errors.New("token is malformed", errors.CategoryAuth).
	WithTextCode(TextCodeTokenMalformed)

// ErrSigningKeyTooShort rejects signing keys under MinSigningKeySize bytes.
// Fatal at startup; the signer refuses construction.
var ErrSigningKeyTooShort = errors.New("signing key must be at least 32 bytes", errors.CategoryValidation).
	WithTextCode(TextCodeSigningKeyTooShort)

// ErrNoEmptyString rejects empty passwords before hashing
var ErrNoEmptyString = errors.New("password must not be empty", errors.CategoryValidation).
	WithTextCode(TextCodeEmptyPassword)

// IsTokenExpiredError will check for expired tokens, including legacy string
// matched errors coming from middleware layers.
func IsTokenExpiredError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrTokenExpired) {
		return true
	}
	return strings.Contains(err.Error(), "token is expired")
}

// IsMalformedError will check for error message
func IsMalformedError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrTokenMalformed) {
		return true
	}
	return strings.Contains(err.Error(), "token is malformed") ||
		strings.Contains(err.Error(), "missing or malformed JWT")
}
