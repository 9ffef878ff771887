package auth_test

import (
	"context"
	"database/sql"
	"sync"

	"github.com/goliatone/go-authkit"
	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/uptrace/bun"
)

// MockLogger implements auth.Logger for testing
type MockLogger struct {
	mock.Mock
}

func (m *MockLogger) Debug(format string, args ...any) {
	m.Called(format, args)
}

func (m *MockLogger) Info(format string, args ...any) {
	m.Called(format, args)
}

func (m *MockLogger) Warn(format string, args ...any) {
	m.Called(format, args)
}

func (m *MockLogger) Error(format string, args ...any) {
	m.Called(format, args)
}

// noopLogger swallows output in tests that do not assert on logging
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// MockActivitySink implements auth.ActivitySink for testing
type MockActivitySink struct {
	mock.Mock
}

func (m *MockActivitySink) Record(ctx context.Context, event auth.ActivityEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

// memRepository is an in memory auth.RepositoryManager. Transactions are a
// passthrough; aggregates are shared pointers so engine mutations are
// visible to subsequent lookups, same as a row store within one tx.
type memRepository struct {
	mu    sync.Mutex
	users map[uuid.UUID]*auth.User
	roles map[string]*auth.Role
}

func newMemRepository(roleNames ...string) *memRepository {
	repo := &memRepository{
		users: map[uuid.UUID]*auth.User{},
		roles: map[string]*auth.Role{},
	}
	if len(roleNames) == 0 {
		roleNames = auth.DefaultRoles()
	}
	for _, name := range roleNames {
		repo.roles[name] = &auth.Role{ID: uuid.New(), Name: name}
	}
	return repo
}

func notFoundErr() error {
	return goerrors.New("record not found", goerrors.CategoryNotFound)
}

func (r *memRepository) Validate() error { return nil }
func (r *memRepository) MustValidate()   {}

func (r *memRepository) RunInTx(ctx context.Context, opts *sql.TxOptions, f func(ctx context.Context, tx bun.Tx) error) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		return f(ctx, bun.Tx{})
	}
}

func (r *memRepository) Users() auth.Users { return &memUsers{repo: r} }
func (r *memRepository) Roles() auth.Roles { return &memRoles{repo: r} }

type memUsers struct {
	repo *memRepository
}

func (u *memUsers) GetByID(ctx context.Context, id uuid.UUID) (*auth.User, error) {
	return u.GetByIDTx(ctx, nil, id)
}

func (u *memUsers) GetByIDTx(ctx context.Context, tx bun.IDB, id uuid.UUID) (*auth.User, error) {
	u.repo.mu.Lock()
	defer u.repo.mu.Unlock()

	if user, ok := u.repo.users[id]; ok {
		return user, nil
	}
	return nil, notFoundErr()
}

func (u *memUsers) GetByEmail(ctx context.Context, email string) (*auth.User, error) {
	return u.GetByEmailTx(ctx, nil, email)
}

func (u *memUsers) GetByEmailTx(ctx context.Context, tx bun.IDB, email string) (*auth.User, error) {
	u.repo.mu.Lock()
	defer u.repo.mu.Unlock()

	for _, user := range u.repo.users {
		if user.Email == email {
			return user, nil
		}
	}
	return nil, notFoundErr()
}

func (u *memUsers) GetByUsername(ctx context.Context, username string) (*auth.User, error) {
	return u.GetByUsernameTx(ctx, nil, username)
}

func (u *memUsers) GetByUsernameTx(ctx context.Context, tx bun.IDB, username string) (*auth.User, error) {
	u.repo.mu.Lock()
	defer u.repo.mu.Unlock()

	for _, user := range u.repo.users {
		if user.Username == username {
			return user, nil
		}
	}
	return nil, notFoundErr()
}

func (u *memUsers) GetByRefreshToken(ctx context.Context, tokenText string) (*auth.User, error) {
	return u.GetByRefreshTokenTx(ctx, nil, tokenText)
}

func (u *memUsers) GetByRefreshTokenTx(ctx context.Context, tx bun.IDB, tokenText string) (*auth.User, error) {
	u.repo.mu.Lock()
	defer u.repo.mu.Unlock()

	for _, user := range u.repo.users {
		for _, t := range user.RefreshTokens {
			if t.Token == tokenText {
				return user, nil
			}
		}
	}
	return nil, notFoundErr()
}

func (u *memUsers) Create(ctx context.Context, record *auth.User) (*auth.User, error) {
	return u.CreateTx(ctx, nil, record)
}

func (u *memUsers) CreateTx(ctx context.Context, tx bun.IDB, record *auth.User) (*auth.User, error) {
	u.repo.mu.Lock()
	defer u.repo.mu.Unlock()

	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	if len(record.Roles) == 0 {
		record.Roles = []string{auth.RoleUser}
	}

	u.repo.users[record.ID] = record
	return record, nil
}

func (u *memUsers) Update(ctx context.Context, record *auth.User) (*auth.User, error) {
	return u.UpdateTx(ctx, nil, record)
}

func (u *memUsers) UpdateTx(ctx context.Context, tx bun.IDB, record *auth.User) (*auth.User, error) {
	u.repo.mu.Lock()
	defer u.repo.mu.Unlock()

	if _, ok := u.repo.users[record.ID]; !ok {
		return nil, notFoundErr()
	}
	u.repo.users[record.ID] = record
	return record, nil
}

func (u *memUsers) CreateRefreshTokenTx(ctx context.Context, tx bun.IDB, token *auth.RefreshToken) error {
	// the aggregate already carries the row; nothing to persist in memory
	return nil
}

func (u *memUsers) UpdateRefreshTokenTx(ctx context.Context, tx bun.IDB, token *auth.RefreshToken) error {
	return nil
}

type memRoles struct {
	repo *memRepository
}

func (r *memRoles) Exists(ctx context.Context, name string) (bool, error) {
	r.repo.mu.Lock()
	defer r.repo.mu.Unlock()

	_, ok := r.repo.roles[name]
	return ok, nil
}

func (r *memRoles) GetByName(ctx context.Context, name string) (*auth.Role, error) {
	r.repo.mu.Lock()
	defer r.repo.mu.Unlock()

	if role, ok := r.repo.roles[name]; ok {
		return role, nil
	}
	return nil, notFoundErr()
}

func (r *memRoles) Create(ctx context.Context, record *auth.Role) (*auth.Role, error) {
	r.repo.mu.Lock()
	defer r.repo.mu.Unlock()

	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	r.repo.roles[record.Name] = record
	return record, nil
}

func (r *memRoles) Seed(ctx context.Context) error {
	r.repo.mu.Lock()
	defer r.repo.mu.Unlock()

	for _, name := range auth.DefaultRoles() {
		if _, ok := r.repo.roles[name]; !ok {
			r.repo.roles[name] = &auth.Role{ID: uuid.New(), Name: name}
		}
	}
	return nil
}

func testConfig() *auth.AuthConfig {
	return auth.NewAuthConfig(
		"0123456789abcdef0123456789abcdef",
		"test-issuer",
		[]string{"test-audience"},
	)
}
