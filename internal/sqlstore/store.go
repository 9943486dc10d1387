// Package sqlstore implements the storage engine contract of pkg/types on
// top of database/sql. Engine packages supply the *sql.DB and a Dialect.
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mesh-intelligence/strata/internal/logger"
	"github.com/mesh-intelligence/strata/pkg/types"
)

// Compile-time interface checks.
var (
	_ types.Store = (*Store)(nil)
	_ types.Tx    = (*Tx)(nil)
)

// runner is the subset of *sql.DB and *sql.Tx used by statements.
type runner interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// executor runs statements on a runner and logs each one.
type executor struct {
	run     runner
	dialect Dialect
	log     *zap.Logger
}

// Store is a types.Store over a *sql.DB.
type Store struct {
	executor
	db *sql.DB
}

// New wraps db. The store owns db: Close closes it.
func New(db *sql.DB, d Dialect, log *zap.Logger) *Store {
	log = logger.OrNop(log).With(zap.String("component", "sqlstore"), zap.String("dialect", d.Name()))
	return &Store{
		executor: executor{run: db, dialect: d, log: log},
		db:       db,
	}
}

// DB returns the underlying pool.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Begin opens a transaction identified by a fresh UUID v7.
func (s *Store) Begin(ctx context.Context) (types.Tx, error) {
	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	id := newTxID()
	log := s.log.With(zap.String("tx", id))
	log.Debug("begin")
	return &Tx{
		executor: executor{run: sqlTx, dialect: s.dialect, log: log},
		id:       id,
		tx:       sqlTx,
	}, nil
}

// Close closes the pool.
func (s *Store) Close() error {
	return s.db.Close()
}

func newTxID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.New().String()
	}
	return id.String()
}

// Tx is a types.Tx over a *sql.Tx.
type Tx struct {
	executor
	id string
	tx *sql.Tx
}

// ID returns the transaction id used in log lines.
func (t *Tx) ID() string {
	return t.id
}

// Savepoint implements types.Tx.
func (t *Tx) Savepoint(ctx context.Context, name string) error {
	return t.savepointStmt(ctx, "SAVEPOINT ", name)
}

// RollbackTo implements types.Tx.
func (t *Tx) RollbackTo(ctx context.Context, name string) error {
	return t.savepointStmt(ctx, "ROLLBACK TO SAVEPOINT ", name)
}

// Release implements types.Tx.
func (t *Tx) Release(ctx context.Context, name string) error {
	return t.savepointStmt(ctx, "RELEASE SAVEPOINT ", name)
}

func (t *Tx) savepointStmt(ctx context.Context, verb, name string) error {
	q, err := quote(name)
	if err != nil {
		return err
	}
	stmt := verb + q
	t.logQuery(stmt, nil)
	if _, err := t.tx.ExecContext(ctx, stmt); err != nil {
		return fmt.Errorf("%s: %w", stmt, err)
	}
	return nil
}

// Commit commits the transaction.
func (t *Tx) Commit() error {
	if err := t.tx.Commit(); err != nil {
		if errors.Is(err, sql.ErrTxDone) {
			return types.ErrTxDone
		}
		return fmt.Errorf("committing transaction: %w", err)
	}
	t.log.Debug("commit")
	return nil
}

// Rollback aborts the transaction.
func (t *Tx) Rollback() error {
	if err := t.tx.Rollback(); err != nil {
		if errors.Is(err, sql.ErrTxDone) {
			return types.ErrTxDone
		}
		return fmt.Errorf("rolling back transaction: %w", err)
	}
	t.log.Debug("rollback")
	return nil
}

func (e executor) logQuery(query string, args []any) {
	e.log.Debug("query", zap.String("sql", query), zap.Any("bindings", args))
}

// Insert implements types.Executor.
func (e executor) Insert(ctx context.Context, table string, values types.Row, returning ...string) (types.Row, error) {
	b := newBuilder(e.dialect)
	query, err := b.insert(table, values, returning)
	if err != nil {
		return nil, err
	}
	e.logQuery(query, b.args)

	if len(returning) == 0 {
		if _, err := e.run.ExecContext(ctx, query, b.args...); err != nil {
			return nil, fmt.Errorf("inserting into %s: %w", table, err)
		}
		return types.Row{}, nil
	}

	rows, err := e.run.QueryContext(ctx, query, b.args...)
	if err != nil {
		return nil, fmt.Errorf("inserting into %s: %w", table, err)
	}
	result, err := scanRows(rows)
	if err != nil {
		return nil, fmt.Errorf("inserting into %s: %w", table, err)
	}
	if len(result) != 1 {
		return nil, fmt.Errorf("inserting into %s: expected 1 returned row, got %d", table, len(result))
	}
	return result[0], nil
}

// Update implements types.Executor.
func (e executor) Update(ctx context.Context, table string, id any, values types.Row) (int64, error) {
	b := newBuilder(e.dialect)
	query, err := b.update(table, id, values)
	if err != nil {
		return 0, err
	}
	e.logQuery(query, b.args)

	res, err := e.run.ExecContext(ctx, query, b.args...)
	if err != nil {
		return 0, fmt.Errorf("updating %s: %w", table, err)
	}
	return res.RowsAffected()
}

// Delete implements types.Executor.
func (e executor) Delete(ctx context.Context, table string, where ...types.Predicate) (int64, error) {
	b := newBuilder(e.dialect)
	query, err := b.delete(table, where)
	if err != nil {
		return 0, err
	}
	e.logQuery(query, b.args)

	res, err := e.run.ExecContext(ctx, query, b.args...)
	if err != nil {
		return 0, fmt.Errorf("deleting from %s: %w", table, err)
	}
	return res.RowsAffected()
}

// Select implements types.Executor.
func (e executor) Select(ctx context.Context, q types.Query) ([]types.Row, error) {
	b := newBuilder(e.dialect)
	query, err := b.selectQuery(q)
	if err != nil {
		return nil, err
	}
	e.logQuery(query, b.args)

	rows, err := e.run.QueryContext(ctx, query, b.args...)
	if err != nil {
		return nil, fmt.Errorf("selecting from %s: %w", q.Table, err)
	}
	result, err := scanRows(rows)
	if err != nil {
		return nil, fmt.Errorf("selecting from %s: %w", q.Table, err)
	}
	return result, nil
}

// scanRows reads every row into a column-keyed map and closes rows.
func scanRows(rows *sql.Rows) ([]types.Row, error) {
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	var result []types.Row
	for rows.Next() {
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		row := make(types.Row, len(cols))
		for i, c := range cols {
			row[c] = normalize(vals[i])
		}
		result = append(result, row)
	}
	return result, rows.Err()
}

// normalize maps driver values onto the types records hold.
func normalize(v any) any {
	switch v := v.(type) {
	case []byte:
		return string(v)
	case int:
		return int64(v)
	case int32:
		return int64(v)
	default:
		return v
	}
}
