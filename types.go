package auth

import (
	"context"
	"fmt"

	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
}

// Engine holds the token lifecycle operations
type Engine interface {
	Register(ctx context.Context, msg RegisterUserMessage) (*AuthResult, error)
	Login(ctx context.Context, email, password string) (*AuthResult, error)
	Refresh(ctx context.Context, refreshToken string) (*AuthResult, error)
	Revoke(ctx context.Context, refreshToken string) (bool, error)
	AddRole(ctx context.Context, userID, role string) error
	Verify(tokenText string) (AuthClaims, error)
}

// Config holds auth options
type Config interface {
	GetSigningKey() string
	GetIssuer() string
	GetAudience() []string
	GetTokenExpiration() int
	GetRefreshTokenDuration() int
	GetContextKey() string
	GetTokenLookup() string
	GetAuthScheme() string
}

// PasswordAuthenticator authenticates passwords
type PasswordAuthenticator interface {
	HashPassword(password string) (string, error)
	ComparePasswordAndHash(password, hash string) error
}

// Users is the persistence contract for the user aggregate. Lookups load the
// user's refresh tokens ordered by creation (issuance order).
type Users interface {
	GetByID(ctx context.Context, id uuid.UUID) (*User, error)
	GetByIDTx(ctx context.Context, tx bun.IDB, id uuid.UUID) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	GetByEmailTx(ctx context.Context, tx bun.IDB, email string) (*User, error)
	GetByUsername(ctx context.Context, username string) (*User, error)
	GetByUsernameTx(ctx context.Context, tx bun.IDB, username string) (*User, error)

	// GetByRefreshTokenTx resolves the user owning the given refresh token,
	// locking the user row for the duration of the transaction so concurrent
	// rotations of the same token serialize.
	GetByRefreshToken(ctx context.Context, tokenText string) (*User, error)
	GetByRefreshTokenTx(ctx context.Context, tx bun.IDB, tokenText string) (*User, error)

	Create(ctx context.Context, record *User) (*User, error)
	CreateTx(ctx context.Context, tx bun.IDB, record *User) (*User, error)
	Update(ctx context.Context, record *User) (*User, error)
	UpdateTx(ctx context.Context, tx bun.IDB, record *User) (*User, error)

	// Refresh tokens are append-only: new rows are inserted, existing rows
	// only ever have revoked_on set.
	CreateRefreshTokenTx(ctx context.Context, tx bun.IDB, token *RefreshToken) error
	UpdateRefreshTokenTx(ctx context.Context, tx bun.IDB, token *RefreshToken) error
}

// Roles is the persistence contract for role records. Role existence is
// checked against the store, not an enum, so products can add their own.
type Roles interface {
	Exists(ctx context.Context, name string) (bool, error)
	GetByName(ctx context.Context, name string) (*Role, error)
	Create(ctx context.Context, record *Role) (*Role, error)
	Seed(ctx context.Context) error
}

// RepositoryManager exposes all repositories
type RepositoryManager interface {
	repository.Validator
	repository.TransactionManager
	Users() Users
	Roles() Roles
}

type defLogger struct{}

func (d defLogger) Error(format string, args ...any) {
	fmt.Printf("[ERR] AUTH "+newline(format), args...)
}

func (d defLogger) Warn(format string, args ...any) {
	fmt.Printf("[WRN] AUTH "+newline(format), args...)
}

func (d defLogger) Info(format string, args ...any) {
	fmt.Printf("[INF] AUTH "+newline(format), args...)
}

func (d defLogger) Debug(format string, args ...any) {
	fmt.Printf("[DBG] AUTH "+newline(format), args...)
}

func newline(s string) string {
	if len(s) > 0 && s[len(s)-1] != '\n' {
		s += "\n"
	}
	return s
}
