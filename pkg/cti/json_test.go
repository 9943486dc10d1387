package cti_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/strata/pkg/things"
)

func TestMarshalJSON(t *testing.T) {
	reg := newRegistry(t)

	thing := fetchedThing(t, reg, 1, "street_lights")
	require.NoError(t, thing.Set("name", "Light 1"))
	point := newRecord(t, reg, things.TypeSinglePoint, map[string]any{"id": int64(1), "geom": orb.Point{0, 0}})
	require.NoError(t, thing.Attach("singlePoint", point))
	other := newRecord(t, reg, things.TypeGarden, map[string]any{"id": int64(2)})
	require.NoError(t, thing.Attach("garden", other))

	b, err := json.Marshal(thing)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"id": 1,
		"name": "Light 1",
		"type": "street_lights",
		"kind": "StreetLight",
		"geom": {"type": "Point", "coordinates": [0, 0]},
		"singlePoint": {"id": 1, "geom": {"type": "Point", "coordinates": [0, 0]}}
	}`, string(b))
}

func TestMarshalJSONInheritedAttributes(t *testing.T) {
	ctx := context.Background()
	e := setup(t)

	light, err := things.NewStreetLight(e.reg, "Light 1", orb.Point{0, 0})
	require.NoError(t, err)
	require.NoError(t, e.coord.Save(ctx, light))
	sign, err := things.NewTrafficSign(e.reg, "Sign 1", "STOP", orb.Point{2, 2})
	require.NoError(t, err)
	require.NoError(t, e.coord.Save(ctx, sign))

	tests := []struct {
		name     string
		typeName string
		id       int64
		want     string
	}{
		{
			name:     "street light",
			typeName: things.TypeStreetLight,
			id:       light.ID(),
			want: `{
				"id": 1,
				"name": "Light 1",
				"type": "street_lights",
				"geom": {"type": "Point", "coordinates": [0, 0]},
				"singlePoint": {"id": 1, "geom": {"type": "Point", "coordinates": [0, 0]}}
			}`,
		},
		{
			name:     "traffic sign",
			typeName: things.TypeTrafficSign,
			id:       sign.ID(),
			want: `{
				"id": 2,
				"message": "STOP",
				"name": "Sign 1",
				"type": "traffic_signs",
				"geom": {"type": "Point", "coordinates": [2, 2]},
				"singlePoint": {"id": 2, "geom": {"type": "Point", "coordinates": [2, 2]}}
			}`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, err := e.loader.Get(ctx, tt.typeName, tt.id)
			require.NoError(t, err)
			b, err := json.Marshal(rec)
			require.NoError(t, err)
			assert.JSONEq(t, tt.want, string(b))
		})
	}
}
