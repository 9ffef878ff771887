package auth

import (
	"context"
	"fmt"

	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect"
)

type users struct {
	repository.Repository[*User]
	db *bun.DB
}

var _ Users = (*users)(nil)

func NewUsersRepository(db *bun.DB) Users {
	repo := repository.NewRepository[*User](db, repository.ModelHandlers[*User]{
		NewRecord: func() *User { return &User{} },
		GetID: func(u *User) uuid.UUID {
			if u == nil {
				return uuid.Nil
			}
			return u.ID
		},
		SetID: func(u *User, id uuid.UUID) {
			if u != nil {
				u.ID = id
			}
		},
	})

	return &users{
		Repository: repo,
		db:         db,
	}
}

// withRefreshTokens loads the refresh token collection in issuance order so
// the oldest active token is always first.
func withRefreshTokens(q *bun.SelectQuery) *bun.SelectQuery {
	return q.Relation("RefreshTokens", func(rq *bun.SelectQuery) *bun.SelectQuery {
		return rq.Order("created_on ASC")
	})
}

func (a *users) GetByID(ctx context.Context, id uuid.UUID) (*User, error) {
	return a.GetByIDTx(ctx, a.db, id)
}

func (a *users) GetByIDTx(ctx context.Context, tx bun.IDB, id uuid.UUID) (*User, error) {
	return a.getByColumn(ctx, tx, "id", id.String())
}

func (a *users) GetByEmail(ctx context.Context, email string) (*User, error) {
	return a.GetByEmailTx(ctx, a.db, email)
}

func (a *users) GetByEmailTx(ctx context.Context, tx bun.IDB, email string) (*User, error) {
	return a.getByColumn(ctx, tx, "email", email)
}

func (a *users) GetByUsername(ctx context.Context, username string) (*User, error) {
	return a.GetByUsernameTx(ctx, a.db, username)
}

func (a *users) GetByUsernameTx(ctx context.Context, tx bun.IDB, username string) (*User, error) {
	return a.getByColumn(ctx, tx, "username", username)
}

func (a *users) getByColumn(ctx context.Context, tx bun.IDB, column, value string) (*User, error) {
	record := &User{}

	err := withRefreshTokens(tx.NewSelect().Model(record)).
		Where(fmt.Sprintf("?TableAlias.%s = ?", column), value).
		Limit(1).
		Scan(ctx)

	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, repository.NewRecordNotFound().
				WithMetadata(map[string]any{
					column: value,
				})
		}
		return nil, err
	}

	return record, nil
}

func (a *users) GetByRefreshToken(ctx context.Context, tokenText string) (*User, error) {
	return a.GetByRefreshTokenTx(ctx, a.db, tokenText)
}

// GetByRefreshTokenTx resolves the owner of a refresh token. On postgres the
// user row is locked with FOR UPDATE so concurrent rotations of the same
// token serialize; sqlite already serializes writing transactions.
func (a *users) GetByRefreshTokenTx(ctx context.Context, tx bun.IDB, tokenText string) (*User, error) {
	record := &User{}

	q := withRefreshTokens(tx.NewSelect().Model(record)).
		Join("JOIN refresh_tokens AS rtok ON rtok.user_id = ?TableAlias.id").
		Where("rtok.token = ?", tokenText).
		Limit(1)

	if a.db.Dialect().Name() == dialect.PG {
		q = q.For("UPDATE OF usr")
	}

	if err := q.Scan(ctx); err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, repository.NewRecordNotFound().
				WithMetadata(map[string]any{
					"lookup": "refresh_token",
				})
		}
		return nil, err
	}

	return record, nil
}

func (a *users) Create(ctx context.Context, record *User) (*User, error) {
	return a.CreateTx(ctx, a.db, record)
}

func (a *users) CreateTx(ctx context.Context, tx bun.IDB, record *User) (*User, error) {
	prepareUserDefaults(record)
	return a.Repository.CreateTx(ctx, tx, record)
}

func (a *users) Update(ctx context.Context, record *User) (*User, error) {
	return a.UpdateTx(ctx, a.db, record)
}

func (a *users) UpdateTx(ctx context.Context, tx bun.IDB, record *User) (*User, error) {
	return a.Repository.UpdateTx(ctx, tx, record, repository.UpdateByID(record.ID.String()))
}

func (a *users) CreateRefreshTokenTx(ctx context.Context, tx bun.IDB, token *RefreshToken) error {
	if token.ID == uuid.Nil {
		token.ID = uuid.New()
	}

	_, err := tx.NewInsert().Model(token).Exec(ctx)
	return err
}

// UpdateRefreshTokenTx persists a revocation. Only revoked_on is written;
// refresh token rows are immutable otherwise.
func (a *users) UpdateRefreshTokenTx(ctx context.Context, tx bun.IDB, token *RefreshToken) error {
	_, err := tx.NewUpdate().
		Model(token).
		Column("revoked_on").
		WherePK().
		Exec(ctx)
	return err
}

func prepareUserDefaults(record *User) {
	if record == nil {
		return
	}

	if len(record.Roles) == 0 {
		record.Roles = []string{RoleUser}
	}

	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
}
