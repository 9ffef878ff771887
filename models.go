package auth

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// User is the user aggregate. RefreshTokens are loaded in issuance order
// (created_on ascending) and are never deleted, only revoked.
type User struct {
	bun.BaseModel `bun:"table:users,alias:usr"`
	ID            uuid.UUID       `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	FirstName     string          `bun:"first_name,notnull" json:"first_name,omitempty"`
	LastName      string          `bun:"last_name,notnull" json:"last_name,omitempty"`
	Username      string          `bun:"username,notnull,unique" json:"username,omitempty"`
	Email         string          `bun:"email,notnull,unique" json:"email,omitempty"`
	Phone         string          `bun:"phone_number" json:"phone_number,omitempty"`
	PasswordHash  string          `bun:"password_hash" json:"-"`
	Roles         []string        `bun:"roles,type:jsonb" json:"roles,omitempty"`
	Metadata      map[string]any  `bun:"metadata" json:"metadata,omitempty"`
	RefreshTokens []*RefreshToken `bun:"rel:has-many,join:id=user_id" json:"refresh_tokens,omitempty"`
	CreatedAt     *time.Time      `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt     *time.Time      `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
	DeletedAt     *time.Time      `bun:"deleted_at,soft_delete,nullzero" json:"deleted_at,omitempty"`
}

// HasRole reports whether the user holds the named role.
func (u *User) HasRole(name string) bool {
	for _, r := range u.Roles {
		if r == name {
			return true
		}
	}
	return false
}

// AddRole appends a role name, keeping the set semantics of the collection.
func (u *User) AddRole(name string) *User {
	if !u.HasRole(name) {
		u.Roles = append(u.Roles, name)
	}
	return u
}

// AddMetadata will append information to a metadata attribute. Metadata
// entries become custom claims on issued tokens.
func (u *User) AddMetadata(key string, val any) *User {
	if u.Metadata == nil {
		u.Metadata = make(map[string]any)
	}
	u.Metadata[key] = val
	return u
}

// RefreshToken is one entry in a user's refresh token collection. Rows are
// append-only; the only mutation ever applied is setting RevokedOn.
type RefreshToken struct {
	bun.BaseModel `bun:"table:refresh_tokens,alias:rt"`
	ID            uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	UserID        uuid.UUID  `bun:"user_id,notnull,type:uuid" json:"user_id,omitempty"`
	Token         string     `bun:"token,notnull,unique" json:"-"`
	CreatedOn     time.Time  `bun:"created_on,notnull" json:"created_on,omitempty"`
	ExpiresOn     time.Time  `bun:"expires_on,notnull" json:"expires_on,omitempty"`
	RevokedOn     *time.Time `bun:"revoked_on,nullzero" json:"revoked_on,omitempty"`
}

// IsActive reports whether the token can still be exchanged: not revoked and
// strictly before its expiry instant. There is no grace window.
func (t *RefreshToken) IsActive() bool {
	return t.RevokedOn == nil && time.Now().Before(t.ExpiresOn)
}

// IsRevoked reports whether the token was explicitly revoked.
func (t *RefreshToken) IsRevoked() bool {
	return t.RevokedOn != nil
}

// Role is a named role that can be assigned to users. Membership lives on the
// user as a plain set of names; this table only answers existence checks.
type Role struct {
	bun.BaseModel `bun:"table:roles,alias:rol"`
	ID            uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Name          string     `bun:"name,notnull,unique" json:"name,omitempty"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
}

// findRefreshToken locates a token by its opaque value within the aggregate.
func findRefreshToken(user *User, tokenText string) *RefreshToken {
	for _, t := range user.RefreshTokens {
		if t.Token == tokenText {
			return t
		}
	}
	return nil
}
