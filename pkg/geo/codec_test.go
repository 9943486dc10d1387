package geo

import (
	"testing"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/strata/pkg/types"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		geom orb.Geometry
	}{
		{name: "point", geom: orb.Point{1, 2}},
		{name: "point at origin", geom: orb.Point{0, 0}},
		{name: "polygon", geom: orb.Polygon{{{2, 2}, {2, 3}, {3, 3}, {3, 2}, {2, 2}}}},
		{name: "line string", geom: orb.LineString{{0, 0}, {1.5, 2.25}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			encoded := Encode(types.Row{"geom": tt.geom, "name": "x"}, []string{"geom"})

			wire, ok := encoded["geom"].(types.WKT)
			require.True(t, ok, "geometry should be encoded as WKT, got %T", encoded["geom"])
			assert.Equal(t, types.SRID4326, wire.SRID)
			assert.Equal(t, "x", encoded["name"])

			// The engine hands geometry back as GeoJSON text.
			stored, err := ParseWKT(wire.Text)
			require.NoError(t, err)
			text, err := GeoJSON(stored)
			require.NoError(t, err)

			row := types.Row{"geom": text}
			require.NoError(t, Decode(row, []string{"geom"}))
			assert.True(t, orb.Equal(tt.geom, row["geom"].(orb.Geometry)), "got %v", row["geom"])
		})
	}
}

func TestEncodeLeavesInputUntouched(t *testing.T) {
	in := types.Row{"geom": orb.Point{1, 2}}
	out := Encode(in, []string{"geom"})

	assert.IsType(t, orb.Point{}, in["geom"])
	assert.IsType(t, types.WKT{}, out["geom"])
}

func TestEncodePassThrough(t *testing.T) {
	in := types.Row{"geom": "POINT(1 2)", "message": "STOP", "other": orb.Point{5, 5}}
	out := Encode(in, []string{"geom"})

	assert.Equal(t, "POINT(1 2)", out["geom"], "textual geometry is not re-encoded")
	assert.Equal(t, "STOP", out["message"])
	assert.Equal(t, orb.Point{5, 5}, out["other"], "non-geometry columns pass through")
}

func TestEncodeGeoJSONGeometry(t *testing.T) {
	out := Encode(types.Row{"geom": geojson.NewGeometry(orb.Point{3, 4})}, []string{"geom"})
	assert.Equal(t, types.WKT{Text: "POINT(3 4)", SRID: types.SRID4326}, out["geom"])
}

func TestDecode(t *testing.T) {
	t.Run("GeoJSON text", func(t *testing.T) {
		row := types.Row{"geom": `{"type":"Point","coordinates":[1,2]}`}
		require.NoError(t, Decode(row, []string{"geom"}))
		assert.Equal(t, orb.Point{1, 2}, row["geom"])
	})

	t.Run("GeoJSON bytes", func(t *testing.T) {
		row := types.Row{"geom": []byte(`{"type":"Point","coordinates":[0,1]}`)}
		require.NoError(t, Decode(row, []string{"geom"}))
		assert.Equal(t, orb.Point{0, 1}, row["geom"])
	})

	t.Run("WKT text", func(t *testing.T) {
		row := types.Row{"geom": "SRID=4326;POINT(7 8)"}
		require.NoError(t, Decode(row, []string{"geom"}))
		assert.Equal(t, orb.Point{7, 8}, row["geom"])
	})

	t.Run("nil stays nil", func(t *testing.T) {
		row := types.Row{"geom": nil}
		require.NoError(t, Decode(row, []string{"geom"}))
		assert.Nil(t, row["geom"])
	})

	t.Run("structured geometry is idempotent", func(t *testing.T) {
		row := types.Row{"geom": orb.Point{1, 1}}
		require.NoError(t, Decode(row, []string{"geom"}))
		assert.Equal(t, orb.Point{1, 1}, row["geom"])
	})

	t.Run("other columns untouched", func(t *testing.T) {
		row := types.Row{"name": `{"type":"Point","coordinates":[1,2]}`}
		require.NoError(t, Decode(row, []string{"geom"}))
		assert.IsType(t, "", row["name"])
	})

	t.Run("garbage is an invalid geometry", func(t *testing.T) {
		row := types.Row{"geom": "not a geometry"}
		err := Decode(row, []string{"geom"})
		assert.ErrorIs(t, err, types.ErrInvalidGeometry)
	})
}

func TestGeoJSONShape(t *testing.T) {
	text, err := GeoJSON(orb.Point{0, 0})
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"Point","coordinates":[0,0]}`, text)
}
