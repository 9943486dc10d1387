package cti_test

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/strata/pkg/cti"
	"github.com/mesh-intelligence/strata/pkg/things"
	"github.com/mesh-intelligence/strata/pkg/types"
)

var greenSquare = orb.Polygon{orb.Ring{{2, 2}, {2, 3}, {3, 3}, {3, 2}, {2, 2}}}

func TestFetchHeterogeneous(t *testing.T) {
	ctx := context.Background()
	e := setup(t)
	_, err := things.Seed(ctx, e.coord)
	require.NoError(t, err)

	records, err := e.loader.Fetch(ctx, things.TypeThing, cti.OrderBy("id"))
	require.NoError(t, err)
	require.Len(t, records, 6)

	type view struct {
		Name    string
		Kind    any
		Geom    orb.Geometry
		Message any
	}
	got := make([]view, len(records))
	for i, r := range records {
		got[i] = view{r.GetString("name"), r.Get("kind"), r.GetGeometry("geom"), r.Get("message")}
	}
	want := []view{
		{"Light 1", things.TypeStreetLight, orb.Point{0, 0}, nil},
		{"Light 2", things.TypeStreetLight, orb.Point{1, 0}, nil},
		{"Light 3", things.TypeStreetLight, orb.Point{0, 1}, nil},
		{"Sign 1", things.TypeTrafficSign, orb.Point{2, 2}, "STOP"},
		{"Sign 2", things.TypeTrafficSign, orb.Point{2, 4}, "BOOM"},
		{"Green", things.TypeGarden, greenSquare, nil},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("fetched things mismatch (-want +got):\n%s", diff)
	}

	// Only the subtype tables present were loaded.
	light := records[0]
	assert.NotNil(t, light.Related("streetLight"))
	assert.Nil(t, light.Related("trafficSign"))
	assert.Nil(t, light.Related("garden"))
	garden := records[5]
	assert.NotNil(t, garden.Related("garden"))
	assert.Nil(t, garden.Related("singlePoint"))
}

func TestFetchSubtypeLoadsAncestors(t *testing.T) {
	ctx := context.Background()
	e := setup(t)
	_, err := things.Seed(ctx, e.coord)
	require.NoError(t, err)

	signs, err := e.loader.Fetch(ctx, things.TypeTrafficSign, cti.OrderBy("id"))
	require.NoError(t, err)
	require.Len(t, signs, 2)

	sign := signs[0]
	assert.Equal(t, "Sign 1", sign.Get("name"))
	assert.Equal(t, "traffic_signs", sign.Get("type"))
	assert.Equal(t, orb.Point{2, 2}, sign.Get("geom"))

	thing := sign.Related("singlePoint").Related("thing")
	require.NotNil(t, thing)
	assert.Same(t, sign, thing.Related("trafficSign"))
	assert.Equal(t, "STOP", thing.Get("message"))

	points, err := e.loader.Fetch(ctx, things.TypeSinglePoint, cti.Limit(2), cti.OrderBy("id"))
	require.NoError(t, err)
	require.Len(t, points, 2)
	assert.Equal(t, things.TypeStreetLight, points[0].Concrete().Name())
	assert.NotNil(t, points[0].Related("streetLight"))
	assert.Nil(t, points[0].Related("trafficSign"))
}

func TestFetchGardenAttributes(t *testing.T) {
	ctx := context.Background()
	e := setup(t)

	garden, err := things.NewGarden(e.reg, "Green", greenSquare)
	require.NoError(t, err)
	require.NoError(t, e.coord.Save(ctx, garden))

	got, err := e.loader.Get(ctx, things.TypeGarden, garden.ID())
	require.NoError(t, err)
	want := types.Row{"id": garden.ID(), "geom": greenSquare}
	if diff := cmp.Diff(want, got.Attributes()); diff != "" {
		t.Errorf("garden attributes mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, "Green", got.Get("name"))
	assert.False(t, got.IsNew())
	assert.Empty(t, got.Changed())
}

func TestGetErrors(t *testing.T) {
	ctx := context.Background()
	e := setup(t)

	_, err := e.loader.Get(ctx, things.TypeThing, 0)
	assert.ErrorIs(t, err, types.ErrInvalidID)
	_, err = e.loader.Get(ctx, things.TypeThing, 42)
	assert.ErrorIs(t, err, types.ErrNotFound)
	_, err = e.loader.Fetch(ctx, "Lamp")
	assert.ErrorIs(t, err, types.ErrUnknownType)
}

func TestLoadAndRelated(t *testing.T) {
	ctx := context.Background()
	e := setup(t)
	records, err := things.Seed(ctx, e.coord)
	require.NoError(t, err)
	lightID := records[0].ID()

	thing, err := e.loader.Get(ctx, things.TypeThing, lightID)
	require.NoError(t, err)

	// A relation with no row stays empty.
	garden, err := e.loader.Related(ctx, thing, "garden")
	require.NoError(t, err)
	assert.Nil(t, garden)

	_, err = e.loader.Related(ctx, thing, "lamp")
	assert.ErrorIs(t, err, types.ErrUnknownRelation)

	// Lazy load from the bottom of the chain.
	fresh, err := e.reg.New(things.TypeStreetLight)
	require.NoError(t, err)
	require.NoError(t, fresh.Set("id", lightID))
	point, err := e.loader.Related(ctx, fresh, "singlePoint")
	require.NoError(t, err)
	require.NotNil(t, point)
	assert.Equal(t, orb.Point{0, 0}, point.Get("geom"))
	assert.Equal(t, "Light 1", fresh.Get("name"))
	assert.NotNil(t, point.Related("thing"))

	// With skips relations that are already materialized.
	gardens, err := e.loader.Fetch(ctx, things.TypeGarden, cti.With("thing"))
	require.NoError(t, err)
	require.Len(t, gardens, 1)
	assert.Equal(t, "Green", gardens[0].Get("name"))

	assert.ErrorIs(t, e.loader.Load(ctx, gardens, "lamp"), types.ErrUnknownRelation)
}

func TestLoaderInsideTransaction(t *testing.T) {
	ctx := context.Background()
	e := setup(t)

	err := e.coord.Transaction(ctx, func(ctx context.Context, tx types.Tx) error {
		light, err := things.NewStreetLight(e.reg, "Light 1", orb.Point{0, 0})
		if err != nil {
			return err
		}
		if err := e.coord.SaveTx(ctx, tx, light); err != nil {
			return err
		}
		got, err := cti.NewLoader(e.reg, tx, nil).Get(ctx, things.TypeStreetLight, light.ID())
		if err != nil {
			return err
		}
		assert.Equal(t, "Light 1", got.Get("name"))
		return nil
	})
	require.NoError(t, err)
}
