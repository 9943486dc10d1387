// Package postgis implements the PostgreSQL/PostGIS storage engine over the
// pgx database/sql driver. Geometry columns are geography(…, 4326).
package postgis

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"go.uber.org/zap"

	"github.com/mesh-intelligence/strata/internal/logger"
	"github.com/mesh-intelligence/strata/internal/sqlstore"
	"github.com/mesh-intelligence/strata/pkg/types"
)

// Compile-time interface check.
var _ types.Backend = (*Backend)(nil)

// Backend is the PostGIS engine.
type Backend struct {
	*sqlstore.Store
	dsn string
	log *zap.Logger
}

// Open connects to the database at cfg.DSN.
func Open(cfg types.Config, log *zap.Logger) (*Backend, error) {
	log = logger.OrNop(log)
	if cfg.DSN == "" {
		return nil, types.ErrDSNRequired
	}

	db, err := sql.Open("pgx", cfg.DSN)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(10)
	db.SetConnMaxIdleTime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("connecting to postgis: %w", err)
	}

	log.Debug("postgis backend opened")
	return &Backend{
		Store: sqlstore.New(db, Dialect{}, log),
		dsn:   cfg.DSN,
		log:   log,
	}, nil
}

// Name implements types.Backend.
func (b *Backend) Name() string {
	return types.BackendPostGIS
}

// Dialect renders PostgreSQL statements with PostGIS geography functions.
type Dialect struct{}

func (Dialect) Name() string { return types.BackendPostGIS }

func (Dialect) Placeholder(n int) string { return fmt.Sprintf("$%d", n) }

func (Dialect) GeomFromText(param string, srid int) string {
	return fmt.Sprintf("ST_GeomFromText(%s, %d)::geography", param, srid)
}

func (Dialect) AsGeoJSON(expr string) string {
	return "ST_AsGeoJSON(" + expr + ")"
}

func (Dialect) Intersects(column, geom string) string {
	return "ST_Intersects(" + column + ", " + geom + ")"
}
