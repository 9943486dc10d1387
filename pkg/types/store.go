package types

import "context"

// Row is one result row or a set of column values to write, keyed by
// column name.
type Row map[string]any

// Executor runs single statements against the storage engine. Both Store
// (autocommit) and Tx implement it.
type Executor interface {
	// Insert adds one row to table and returns the requested columns of the
	// inserted row. An empty values map inserts a row of defaults.
	Insert(ctx context.Context, table string, values Row, returning ...string) (Row, error)

	// Update writes values to the row of table whose id equals id and
	// returns the number of rows affected.
	Update(ctx context.Context, table string, id any, values Row) (int64, error)

	// Delete removes the rows of table matching every predicate and returns
	// the number of rows affected. No predicates deletes every row.
	Delete(ctx context.Context, table string, where ...Predicate) (int64, error)

	// Select runs q and returns its rows. Geometry columns come back as
	// GeoJSON text.
	Select(ctx context.Context, q Query) ([]Row, error)
}

// Tx is an open transaction. It deliberately has no Begin: code holding a
// Tx can only run statements inside it, never open a nested one.
type Tx interface {
	Executor

	// ID identifies the transaction in logs.
	ID() string

	// Savepoint marks a point inside the transaction that RollbackTo can
	// return to without aborting the transaction. Release forgets it.
	Savepoint(ctx context.Context, name string) error
	RollbackTo(ctx context.Context, name string) error
	Release(ctx context.Context, name string) error

	Commit() error
	Rollback() error
}

// Store is a storage engine connection pool.
type Store interface {
	Executor

	// Begin opens a transaction.
	Begin(ctx context.Context) (Tx, error)

	Close() error
}

// Migrator applies the embedded schema migrations of a backend.
type Migrator interface {
	MigrateUp() error
	MigrateDown() error
	// MigrateVersion returns 0, false, nil when no migration was applied.
	MigrateVersion() (version uint, dirty bool, err error)
}

// Backend is an opened storage engine together with its migrations.
type Backend interface {
	Store
	Migrator

	// Name returns the backend name (BackendSQLite, BackendPostGIS).
	Name() string
}
