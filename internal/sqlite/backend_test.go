package sqlite_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/strata/internal/sqlite/sqlitetest"
	"github.com/mesh-intelligence/strata/pkg/types"
)

func point(text string) types.WKT {
	return types.WKT{Text: text, SRID: types.SRID4326}
}

func TestMigrations(t *testing.T) {
	b := sqlitetest.New(t)

	version, dirty, err := b.MigrateVersion()
	require.NoError(t, err)
	assert.Equal(t, uint(2), version)
	assert.False(t, dirty)

	// Running up again is a no-op.
	require.NoError(t, b.MigrateUp())

	require.NoError(t, b.MigrateDown())
	version, _, err = b.MigrateVersion()
	require.NoError(t, err)
	assert.Equal(t, uint(1), version)

	require.NoError(t, b.MigrateUp())
	version, _, err = b.MigrateVersion()
	require.NoError(t, err)
	assert.Equal(t, uint(2), version)
}

func TestInsertSelectGeometry(t *testing.T) {
	ctx := context.Background()
	b := sqlitetest.New(t)

	row, err := b.Insert(ctx, types.TableThings, types.Row{"name": "Light 1", "type": types.TableStreetLights}, "id")
	require.NoError(t, err)
	id := row["id"]
	assert.Equal(t, int64(1), id)

	_, err = b.Insert(ctx, types.TableSinglePoints, types.Row{"id": id, "geom": point("POINT (0 0)")})
	require.NoError(t, err)

	rows, err := b.Select(ctx, types.Query{
		Table:    types.TableSinglePoints,
		Columns:  []string{"id", "geom"},
		Geometry: []string{"geom"},
	})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, id, rows[0]["id"])
	assert.JSONEq(t, `{"type":"Point","coordinates":[0,0]}`, rows[0]["geom"].(string))
}

func TestInvalidGeometryRejected(t *testing.T) {
	ctx := context.Background()
	b := sqlitetest.New(t)

	row, err := b.Insert(ctx, types.TableThings, types.Row{"name": "bad"}, "id")
	require.NoError(t, err)
	_, err = b.Insert(ctx, types.TableGardens, types.Row{"id": row["id"], "geom": point("POLYGON ((not wkt")})
	assert.Error(t, err)
}

func TestDeleteCascades(t *testing.T) {
	ctx := context.Background()
	b := sqlitetest.New(t)

	row, err := b.Insert(ctx, types.TableThings, types.Row{"name": "Light 1"}, "id")
	require.NoError(t, err)
	id := row["id"]
	_, err = b.Insert(ctx, types.TableSinglePoints, types.Row{"id": id, "geom": point("POINT (1 0)")})
	require.NoError(t, err)
	_, err = b.Insert(ctx, types.TableStreetLights, types.Row{"id": id})
	require.NoError(t, err)

	n, err := b.Delete(ctx, types.TableThings, types.Eq{Column: "id", Value: id})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	for _, table := range []string{types.TableSinglePoints, types.TableStreetLights} {
		rows, err := b.Select(ctx, types.Query{Table: table})
		require.NoError(t, err)
		assert.Empty(t, rows, table)
	}
}

func TestTransactionRollback(t *testing.T) {
	ctx := context.Background()
	b := sqlitetest.New(t)

	tx, err := b.Begin(ctx)
	require.NoError(t, err)
	assert.NotEmpty(t, tx.ID())
	_, err = tx.Insert(ctx, types.TableThings, types.Row{"name": "gone"}, "id")
	require.NoError(t, err)
	require.NoError(t, tx.Rollback())
	assert.ErrorIs(t, tx.Commit(), types.ErrTxDone)

	rows, err := b.Select(ctx, types.Query{Table: types.TableThings})
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestSavepoints(t *testing.T) {
	ctx := context.Background()
	b := sqlitetest.New(t)

	tx, err := b.Begin(ctx)
	require.NoError(t, err)
	_, err = tx.Insert(ctx, types.TableThings, types.Row{"name": "kept"}, "id")
	require.NoError(t, err)

	require.NoError(t, tx.Savepoint(ctx, "sp1"))
	_, err = tx.Insert(ctx, types.TableThings, types.Row{"name": "undone"}, "id")
	require.NoError(t, err)
	require.NoError(t, tx.RollbackTo(ctx, "sp1"))
	require.NoError(t, tx.Release(ctx, "sp1"))

	require.NoError(t, tx.Savepoint(ctx, "sp2"))
	_, err = tx.Insert(ctx, types.TableThings, types.Row{"name": "released"}, "id")
	require.NoError(t, err)
	require.NoError(t, tx.Release(ctx, "sp2"))

	assert.ErrorIs(t, tx.Savepoint(ctx, "bad name"), types.ErrInvalidQuery)
	require.NoError(t, tx.Commit())

	rows, err := b.Select(ctx, types.Query{Table: types.TableThings, Columns: []string{"name"}, OrderBy: "id"})
	require.NoError(t, err)
	var names []string
	for _, row := range rows {
		names = append(names, row["name"].(string))
	}
	assert.Equal(t, []string{"kept", "released"}, names)
}

func TestSpatialFilter(t *testing.T) {
	ctx := context.Background()
	b := sqlitetest.New(t)

	garden, err := b.Insert(ctx, types.TableThings, types.Row{"name": "Green", "type": types.TableGardens}, "id")
	require.NoError(t, err)
	_, err = b.Insert(ctx, types.TableGardens, types.Row{
		"id":   garden["id"],
		"geom": point("POLYGON ((2 2, 2 3, 3 3, 3 2, 2 2))"),
	})
	require.NoError(t, err)

	light, err := b.Insert(ctx, types.TableThings, types.Row{"name": "Light 2", "type": types.TableStreetLights}, "id")
	require.NoError(t, err)
	_, err = b.Insert(ctx, types.TableSinglePoints, types.Row{"id": light["id"], "geom": point("POINT (1 0)")})
	require.NoError(t, err)

	area := point("POLYGON ((1 1, 1 2, 2 2, 2 1, 1 1))")
	rows, err := b.Select(ctx, types.Query{
		Table:   types.TableThings,
		OrderBy: "id",
		Where: []types.Predicate{types.Or{
			types.Related{Table: types.TableGardens, Where: []types.Predicate{types.Intersects{Column: "geom", Geometry: area}}},
			types.Related{Table: types.TableSinglePoints, Where: []types.Predicate{types.Intersects{Column: "geom", Geometry: area}}},
		}},
	})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Green", rows[0]["name"])
}
