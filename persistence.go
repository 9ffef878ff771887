package auth

import (
	"database/sql"

	"github.com/goliatone/go-persistence-bun"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

// RegisterModels registers the package models with the persistence layer so
// relations resolve before any query runs.
func RegisterModels() {
	persistence.RegisterModel((*User)(nil))
	persistence.RegisterModel((*RefreshToken)(nil))
	persistence.RegisterModel((*Role)(nil))
}

// NewSQLiteDB opens a sqlite backed bun.DB, mostly for tests and local
// development. Use ":memory:" for an ephemeral store.
func NewSQLiteDB(dsn string) (*bun.DB, error) {
	sqldb, err := sql.Open(sqliteshim.ShimName, dsn)
	if err != nil {
		return nil, err
	}

	db := bun.NewDB(sqldb, sqlitedialect.New())
	db.RegisterModel((*User)(nil), (*RefreshToken)(nil), (*Role)(nil))

	return db, nil
}
