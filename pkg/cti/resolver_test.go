package cti_test

import (
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/strata/pkg/cti"
	"github.com/mesh-intelligence/strata/pkg/things"
	"github.com/mesh-intelligence/strata/pkg/types"
)

func newRecord(t *testing.T, reg *cti.Registry, typeName string, attrs map[string]any) *cti.Record {
	t.Helper()
	r, err := reg.New(typeName)
	require.NoError(t, err)
	for k, v := range attrs {
		require.NoError(t, r.Set(k, v))
	}
	return r
}

func TestDelegateReadOrder(t *testing.T) {
	reg := newRegistry(t)
	square := orb.Polygon{orb.Ring{{2, 2}, {2, 3}, {3, 3}, {3, 2}, {2, 2}}}

	tests := []struct {
		name   string
		garden map[string]any
		point  map[string]any
		want   orb.Geometry
	}{
		{
			name: "nothing loaded",
		},
		{
			name:  "only single point",
			point: map[string]any{"geom": orb.Point{1, 2}},
			want:  orb.Point{1, 2},
		},
		{
			name:   "garden first",
			garden: map[string]any{"geom": square},
			point:  map[string]any{"geom": orb.Point{1, 2}},
			want:   square,
		},
		{
			name:   "garden without geometry falls through",
			garden: map[string]any{},
			point:  map[string]any{"geom": orb.Point{1, 2}},
			want:   orb.Point{1, 2},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			thing := newRecord(t, reg, things.TypeThing, map[string]any{"name": "x"})
			if tt.garden != nil {
				require.NoError(t, thing.Attach("garden", newRecord(t, reg, things.TypeGarden, tt.garden)))
			}
			if tt.point != nil {
				require.NoError(t, thing.Attach("singlePoint", newRecord(t, reg, things.TypeSinglePoint, tt.point)))
			}
			if tt.want == nil {
				assert.Nil(t, thing.Get("geom"))
				return
			}
			assert.Equal(t, tt.want, thing.Get("geom"))
			assert.Equal(t, tt.want, thing.GetGeometry("geom"))
		})
	}
}

func TestDelegateWriteRestriction(t *testing.T) {
	reg := newRegistry(t)

	thing := newRecord(t, reg, things.TypeThing, nil)
	err := thing.Set("geom", orb.Point{0, 0})
	assert.ErrorIs(t, err, types.ErrUnsupportedDelegateWrite)
	assert.Nil(t, thing.Related("garden"))
	assert.Nil(t, thing.Related("singlePoint"))

	light := newRecord(t, reg, things.TypeStreetLight, nil)
	require.NoError(t, light.Set("geom", orb.Point{3, 4}))
	point := light.Related("singlePoint")
	require.NotNil(t, point)
	assert.Equal(t, orb.Point{3, 4}, point.Get("geom"))
	assert.Equal(t, []string{"geom"}, point.Changed())
	assert.Empty(t, light.Changed())
	assert.Same(t, light, point.Related("streetLight"))
}

func TestDelegateForwardsUpTheChain(t *testing.T) {
	reg := newRegistry(t)

	sign := newRecord(t, reg, things.TypeTrafficSign, map[string]any{"name": "Sign 1", "message": "STOP"})
	thing := sign.Related("singlePoint").Related("thing")
	require.NotNil(t, thing)
	assert.Equal(t, "Sign 1", thing.Get("name"))
	assert.Equal(t, "Sign 1", sign.Get("name"))
	assert.Equal(t, "Sign 1", sign.GetString("name"))
	assert.Equal(t, "STOP", sign.Get("message"))

	// The thing reaches the sign through the single point only once the
	// through relation is materialized.
	assert.Nil(t, thing.Get("message"))
	require.NoError(t, thing.Attach("trafficSign", sign))
	assert.Equal(t, "STOP", thing.Get("message"))
}

func TestSetErrors(t *testing.T) {
	reg := newRegistry(t)
	thing := newRecord(t, reg, things.TypeThing, nil)

	assert.ErrorIs(t, thing.Set("colour", "red"), types.ErrUnknownAttribute)
	assert.Nil(t, thing.Get("colour"))
	assert.ErrorIs(t, thing.Set("kind", "Garden"), types.ErrReadOnlyAttribute)

	garden := newRecord(t, reg, things.TypeGarden, nil)
	assert.ErrorIs(t, garden.Set("geom", "POLYGON ((0 0"), types.ErrInvalidGeometry)
	assert.ErrorIs(t, garden.Set("geom", 42), types.ErrInvalidGeometry)

	assert.ErrorIs(t, thing.Attach("garden", thing), types.ErrUnknownRelation)
}

func TestSetParsesGeometryText(t *testing.T) {
	reg := newRegistry(t)
	garden := newRecord(t, reg, things.TypeGarden, map[string]any{
		"geom": "POLYGON ((0 0, 0 1, 1 1, 1 0, 0 0))",
	})
	assert.Equal(t, orb.Polygon{orb.Ring{{0, 0}, {0, 1}, {1, 1}, {1, 0}, {0, 0}}}, garden.Get("geom"))

	point := newRecord(t, reg, things.TypeSinglePoint, map[string]any{
		"geom": `{"type":"Point","coordinates":[1,2]}`,
	})
	assert.Equal(t, orb.Point{1, 2}, point.Get("geom"))
}

func TestChangedTracking(t *testing.T) {
	reg := newRegistry(t)
	thing := newRecord(t, reg, things.TypeThing, map[string]any{"name": "a", "type": "gardens"})
	assert.Equal(t, []string{"name", "type"}, thing.Changed())
	assert.True(t, thing.IsNew())
	assert.Equal(t, int64(0), thing.ID())
	assert.Equal(t, things.TypeGarden, thing.Get("kind"))
	assert.Equal(t, int64(0), thing.GetInt64("name"))
}

func TestDelegateWithoutRelations(t *testing.T) {
	reg, err := cti.NewRegistry(cti.Descriptor{
		Name:      "Note",
		Table:     "notes",
		Columns:   []string{"body"},
		Delegates: map[string][]string{"title": nil},
	})
	require.NoError(t, err)
	note, err := reg.New("Note")
	require.NoError(t, err)

	assert.Nil(t, note.Get("title"))
	assert.ErrorIs(t, note.Set("title", "x"), types.ErrUnsupportedDelegateWrite)
}
