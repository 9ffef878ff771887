package auth

import (
	"context"

	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type roles struct {
	repository.Repository[*Role]
	db *bun.DB
}

var _ Roles = (*roles)(nil)

func NewRolesRepository(db *bun.DB) Roles {
	repo := repository.NewRepository[*Role](db, repository.ModelHandlers[*Role]{
		NewRecord: func() *Role { return &Role{} },
		GetID: func(r *Role) uuid.UUID {
			if r == nil {
				return uuid.Nil
			}
			return r.ID
		},
		SetID: func(r *Role, id uuid.UUID) {
			if r != nil {
				r.ID = id
			}
		},
	})

	return &roles{
		Repository: repo,
		db:         db,
	}
}

func (a *roles) Exists(ctx context.Context, name string) (bool, error) {
	count, err := a.db.NewSelect().
		Model((*Role)(nil)).
		Where("?TableAlias.name = ?", name).
		Count(ctx)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (a *roles) GetByName(ctx context.Context, name string) (*Role, error) {
	record := &Role{}

	err := a.db.NewSelect().
		Model(record).
		Where("?TableAlias.name = ?", name).
		Limit(1).
		Scan(ctx)

	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, repository.NewRecordNotFound().
				WithMetadata(map[string]any{
					"name": name,
				})
		}
		return nil, err
	}

	return record, nil
}

func (a *roles) Create(ctx context.Context, record *Role) (*Role, error) {
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	return a.Repository.Create(ctx, record)
}

// Seed inserts the default roles, skipping names that already exist.
func (a *roles) Seed(ctx context.Context) error {
	for _, name := range DefaultRoles() {
		role := &Role{ID: uuid.New(), Name: name}
		_, err := a.db.NewInsert().
			Model(role).
			On("CONFLICT (name) DO NOTHING").
			Exec(ctx)
		if err != nil {
			return err
		}
	}
	return nil
}
