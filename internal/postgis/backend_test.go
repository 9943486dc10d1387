package postgis

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/mesh-intelligence/strata/pkg/types"
)

func TestDialect(t *testing.T) {
	d := Dialect{}
	assert.Equal(t, "$3", d.Placeholder(3))
	assert.Equal(t, "ST_GeomFromText($1, 4326)::geography", d.GeomFromText("$1", types.SRID4326))
	assert.Equal(t, `ST_AsGeoJSON(t."geom")`, d.AsGeoJSON(`t."geom"`))
	assert.Equal(t, `ST_Intersects(s0."geom", x)`, d.Intersects(`s0."geom"`, "x"))
}

func TestOpenRequiresDSN(t *testing.T) {
	_, err := Open(types.Config{Backend: types.BackendPostGIS}, nil)
	assert.ErrorIs(t, err, types.ErrDSNRequired)
}

// setupBackend connects to STRATA_POSTGIS_DSN and migrates it. Tests that
// need a live server are skipped when the variable is unset.
func setupBackend(t *testing.T) *Backend {
	t.Helper()
	dsn := os.Getenv("STRATA_POSTGIS_DSN")
	if dsn == "" {
		t.Skip("STRATA_POSTGIS_DSN not set")
	}
	b, err := Open(types.Config{Backend: types.BackendPostGIS, DSN: dsn}, zaptest.NewLogger(t))
	require.NoError(t, err)
	require.NoError(t, b.MigrateUp())
	t.Cleanup(func() {
		_, _ = b.Delete(context.Background(), types.TableThings)
		b.Close()
	})
	return b
}

func TestIntegrationSpatialRoundTrip(t *testing.T) {
	ctx := context.Background()
	b := setupBackend(t)

	version, dirty, err := b.MigrateVersion()
	require.NoError(t, err)
	assert.Equal(t, uint(2), version)
	assert.False(t, dirty)

	tx, err := b.Begin(ctx)
	require.NoError(t, err)
	row, err := tx.Insert(ctx, types.TableThings, types.Row{"name": "Green", "type": types.TableGardens}, "id")
	require.NoError(t, err)
	_, err = tx.Insert(ctx, types.TableGardens, types.Row{
		"id":   row["id"],
		"geom": types.WKT{Text: "POLYGON ((2 2, 2 3, 3 3, 3 2, 2 2))", SRID: types.SRID4326},
	})
	require.NoError(t, err)
	require.NoError(t, tx.Commit())

	area := types.WKT{Text: "POLYGON ((1 1, 1 2, 2 2, 2 1, 1 1))", SRID: types.SRID4326}
	rows, err := b.Select(ctx, types.Query{
		Table:    types.TableGardens,
		Columns:  []string{"id", "geom"},
		Geometry: []string{"geom"},
		Where:    []types.Predicate{types.Intersects{Column: "geom", Geometry: area}},
	})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, row["id"], rows[0]["id"])
	assert.Contains(t, rows[0]["geom"], `"Polygon"`)
}
