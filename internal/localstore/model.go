// Package localstore is the persistent pipeline stage. Records are kept in a
// SQL table with one row per alternate key, so a value can be read back by
// any identifier it was stored under.
package localstore

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	repository "github.com/goliatone/go-repository-bun"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
)

// Supported drivers.
const (
	DriverSQLite   = "sqlite3"
	DriverPostgres = "postgres"
)

// StoredRecord is one alias row. Payload is a codec envelope, so rows of
// every type share the table.
type StoredRecord struct {
	bun.BaseModel `bun:"table:catalog_records,alias:cr"`

	ID        uuid.UUID `bun:"id,pk,type:uuid"`
	Key       string    `bun:"cache_key,notnull,unique"`
	TypeName  string    `bun:"type_name,notnull"`
	Payload   []byte    `bun:"payload,notnull"`
	ExpiresAt int64     `bun:"expires_at,notnull,default:0"`
	UpdatedAt int64     `bun:"updated_at,notnull,default:0"`
}

// Handlers are the repository model handlers for StoredRecord.
func Handlers() repository.ModelHandlers[*StoredRecord] {
	return repository.ModelHandlers[*StoredRecord]{
		NewRecord: func() *StoredRecord {
			return &StoredRecord{}
		},
		GetID: func(r *StoredRecord) uuid.UUID {
			if r == nil {
				return uuid.Nil
			}
			return r.ID
		},
		SetID: func(r *StoredRecord, id uuid.UUID) {
			r.ID = id
		},
		GetIdentifier: func() string {
			return "cache_key"
		},
	}
}

// NewRepository builds the record repository over db.
func NewRepository(db *bun.DB) repository.Repository[*StoredRecord] {
	return repository.NewRepository[*StoredRecord](db, Handlers())
}

// Open connects to the database. SQLite connections are limited to one so
// in-memory databases are shared by every query.
func Open(driver, dsn string) (*bun.DB, error) {
	switch driver {
	case DriverSQLite:
		sqldb, err := sql.Open(DriverSQLite, dsn)
		if err != nil {
			return nil, fmt.Errorf("localstore: open sqlite: %w", err)
		}
		sqldb.SetMaxOpenConns(1)
		return bun.NewDB(sqldb, sqlitedialect.New()), nil
	case DriverPostgres:
		sqldb, err := sql.Open(DriverPostgres, dsn)
		if err != nil {
			return nil, fmt.Errorf("localstore: open postgres: %w", err)
		}
		return bun.NewDB(sqldb, pgdialect.New()), nil
	default:
		return nil, fmt.Errorf("localstore: unsupported driver %q", driver)
	}
}

// Migrate creates the record table and its type index.
func Migrate(ctx context.Context, db bun.IDB) error {
	if _, err := db.NewCreateTable().
		Model((*StoredRecord)(nil)).
		IfNotExists().
		Exec(ctx); err != nil {
		return fmt.Errorf("localstore: create table: %w", err)
	}
	if _, err := db.NewCreateIndex().
		Model((*StoredRecord)(nil)).
		Index("catalog_records_type_name_idx").
		Column("type_name").
		IfNotExists().
		Exec(ctx); err != nil {
		return fmt.Errorf("localstore: create index: %w", err)
	}
	return nil
}
