package sqlite

import (
	"database/sql/driver"
	"errors"
	"fmt"
	"sync"

	"github.com/paulmach/orb"
	msqlite "modernc.org/sqlite"

	"github.com/mesh-intelligence/strata/pkg/geo"
)

var (
	registerOnce sync.Once
	registerErr  error
)

// registerFunctions installs the spatial functions for every connection
// opened afterwards. Registration is process-wide in modernc.org/sqlite.
func registerFunctions() error {
	registerOnce.Do(func() {
		registerErr = errors.Join(
			msqlite.RegisterDeterministicScalarFunction("ST_GeomFromText", 2, stGeomFromText),
			msqlite.RegisterDeterministicScalarFunction("ST_AsText", 1, stAsText),
			msqlite.RegisterDeterministicScalarFunction("ST_AsGeoJSON", 1, stAsGeoJSON),
			msqlite.RegisterDeterministicScalarFunction("ST_Intersects", 2, stIntersects),
		)
	})
	return registerErr
}

// geometryArg parses a WKT argument. A NULL argument yields nil, nil.
func geometryArg(v driver.Value) (orb.Geometry, error) {
	switch v := v.(type) {
	case nil:
		return nil, nil
	case string:
		return geo.ParseWKT(v)
	case []byte:
		return geo.ParseWKT(string(v))
	default:
		return nil, fmt.Errorf("expected geometry text, got %T", v)
	}
}

// stGeomFromText validates WKT and returns its canonical text. The SRID
// argument is accepted for PostGIS compatibility; every column is 4326.
func stGeomFromText(_ *msqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
	g, err := geometryArg(args[0])
	if err != nil || g == nil {
		return nil, err
	}
	return geo.WKT(g), nil
}

func stAsText(_ *msqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
	return stGeomFromText(nil, args)
}

func stAsGeoJSON(_ *msqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
	g, err := geometryArg(args[0])
	if err != nil || g == nil {
		return nil, err
	}
	return geo.GeoJSON(g)
}

func stIntersects(_ *msqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
	a, err := geometryArg(args[0])
	if err != nil {
		return nil, err
	}
	b, err := geometryArg(args[1])
	if err != nil {
		return nil, err
	}
	if a == nil || b == nil {
		return nil, nil
	}
	if geo.Intersects(a, b) {
		return int64(1), nil
	}
	return int64(0), nil
}
