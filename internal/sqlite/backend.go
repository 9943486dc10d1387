// Package sqlite implements the SQLite storage engine on modernc.org/sqlite.
// SQLite has no spatial extension here, so the engine registers the ST_*
// functions it needs as Go scalar functions over WKT text columns.
package sqlite

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/mesh-intelligence/strata/internal/logger"
	"github.com/mesh-intelligence/strata/internal/sqlstore"
	"github.com/mesh-intelligence/strata/pkg/types"
)

// DatabaseFile is the database file created under Config.DataDir.
const DatabaseFile = "strata.db"

// Compile-time interface check.
var _ types.Backend = (*Backend)(nil)

// Backend is the SQLite engine: a sqlstore.Store plus migrations.
type Backend struct {
	*sqlstore.Store
	log *zap.Logger
}

// Open opens (creating if needed) the database described by cfg. Foreign
// keys are enforced on every connection so ON DELETE CASCADE applies.
func Open(cfg types.Config, log *zap.Logger) (*Backend, error) {
	log = logger.OrNop(log)
	if err := registerFunctions(); err != nil {
		return nil, fmt.Errorf("registering spatial functions: %w", err)
	}

	dsn, err := dataSourceName(cfg)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	// One writer at a time; SQLite serializes writes anyway and a single
	// connection keeps transactions from tripping over SQLITE_BUSY.
	db.SetMaxOpenConns(1)
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("opening sqlite database: %w", err)
	}

	log.Debug("sqlite backend opened", zap.String("dsn", dsn))
	return &Backend{
		Store: sqlstore.New(db, Dialect{}, log),
		log:   log,
	}, nil
}

// Name implements types.Backend.
func (b *Backend) Name() string {
	return types.BackendSQLite
}

// dataSourceName derives the DSN from cfg: an explicit DSN wins, otherwise
// DataDir/strata.db. DataDir is created if it does not exist.
func dataSourceName(cfg types.Config) (string, error) {
	dsn := cfg.DSN
	if dsn == "" {
		dataDir := cfg.DataDir
		if dataDir == "" {
			dataDir = "."
		}
		if err := os.MkdirAll(dataDir, 0o755); err != nil {
			return "", err
		}
		dsn = "file:" + filepath.Join(dataDir, DatabaseFile)
	}
	if !strings.Contains(dsn, "foreign_keys") {
		sep := "?"
		if strings.Contains(dsn, "?") {
			sep = "&"
		}
		dsn += sep + "_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
	}
	return dsn, nil
}

// Dialect renders SQLite statements. Geometry is stored as WKT text and
// handled by the registered ST_* functions.
type Dialect struct{}

func (Dialect) Name() string { return types.BackendSQLite }

func (Dialect) Placeholder(int) string { return "?" }

func (Dialect) GeomFromText(param string, srid int) string {
	return fmt.Sprintf("ST_GeomFromText(%s, %d)", param, srid)
}

func (Dialect) AsGeoJSON(expr string) string {
	return "ST_AsGeoJSON(" + expr + ")"
}

func (Dialect) Intersects(column, geom string) string {
	return "ST_Intersects(" + column + ", " + geom + ")"
}
