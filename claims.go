package auth

import (
	"maps"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// AuthClaims represents structured JWT claims as seen by verification callers
type AuthClaims interface {
	Subject() string
	UserID() string
	Email() string
	Roles() []string
	TokenID() string
	HasRole(role string) bool
	Expires() time.Time
	IssuedAt() time.Time
}

// JWTClaims is the concrete implementation of AuthClaims
type JWTClaims struct {
	jwt.RegisteredClaims
	UID       string         `json:"uid,omitempty"`
	UserEmail string         `json:"email,omitempty"`
	UserRoles []string       `json:"roles,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty"` // extension payload
}

// Verify interface compliance
var _ AuthClaims = (*JWTClaims)(nil)

// Subject returns the subject claim, the username
func (c *JWTClaims) Subject() string {
	return c.RegisteredClaims.Subject
}

// UserID returns the user ID
func (c *JWTClaims) UserID() string {
	if c.UID != "" {
		return c.UID
	}
	return c.Subject()
}

// Email returns the email claim
func (c *JWTClaims) Email() string {
	return c.UserEmail
}

// Roles returns the role claims in assignment order
func (c *JWTClaims) Roles() []string {
	return c.UserRoles
}

// TokenID returns the jti nonce
func (c *JWTClaims) TokenID() string {
	return c.RegisteredClaims.ID
}

// HasRole checks if the token carries a specific role
func (c *JWTClaims) HasRole(role string) bool {
	return ContainsRole(c.UserRoles, role)
}

// ClaimsMetadata exposes metadata extensions for optional context enrichment.
func (c *JWTClaims) ClaimsMetadata() map[string]any {
	return c.Metadata
}

// Expires returns the expiration time
func (c *JWTClaims) Expires() time.Time {
	if c.RegisteredClaims.ExpiresAt != nil {
		return c.RegisteredClaims.ExpiresAt.Time
	}
	return time.Time{}
}

// IssuedAt returns the issued at time
func (c *JWTClaims) IssuedAt() time.Time {
	if c.RegisteredClaims.IssuedAt != nil {
		return c.RegisteredClaims.IssuedAt.Time
	}
	return time.Time{}
}

// ClaimsBuilder assembles the claim set for a user prior to signing
type ClaimsBuilder interface {
	Build(user *User) *JWTClaims
}

type claimsBuilder struct{}

// NewClaimsBuilder returns the default claims builder. It is a pure function
// over already loaded user data: subject (username), a fresh jti nonce, email,
// internal user id, one role claim per assigned role, and any custom claims
// attached to the user. Deterministic except for the nonce.
func NewClaimsBuilder() ClaimsBuilder {
	return claimsBuilder{}
}

func (claimsBuilder) Build(user *User) *JWTClaims {
	claims := &JWTClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject: user.Username,
		},
		UID:       user.ID.String(),
		UserEmail: user.Email,
		UserRoles: append([]string(nil), user.Roles...),
	}

	if len(user.Metadata) > 0 {
		claims.Metadata = maps.Clone(user.Metadata)
	}

	ensureTokenID(&claims.RegisteredClaims)

	return claims
}

// ensureTokenID sets a fresh jti if none is present. The nonce prevents
// token replay caching and guarantees two tokens for the same user differ.
func ensureTokenID(rc *jwt.RegisteredClaims) {
	if rc.ID == "" {
		rc.ID = uuid.NewString()
	}
}
