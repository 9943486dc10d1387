// Package backend opens the storage engine named by a types.Config while
// keeping the engine implementations internal.
//
// Example:
//
//	b, err := backend.Open(types.Config{
//	    Backend: types.BackendSQLite,
//	    DataDir: ".strata",
//	}, log)
//	defer b.Close()
package backend

import (
	"go.uber.org/zap"

	"github.com/mesh-intelligence/strata/internal/postgis"
	"github.com/mesh-intelligence/strata/internal/sqlite"
	"github.com/mesh-intelligence/strata/pkg/types"
)

// Open validates cfg and opens the selected backend. Migrations are not
// applied; call MigrateUp on the result.
func Open(cfg types.Config, log *zap.Logger) (types.Backend, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	switch cfg.Backend {
	case types.BackendPostGIS:
		b, err := postgis.Open(cfg, log)
		if err != nil {
			return nil, err
		}
		return b, nil
	default:
		b, err := sqlite.Open(cfg, log)
		if err != nil {
			return nil, err
		}
		return b, nil
	}
}
