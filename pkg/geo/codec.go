// Package geo converts geometry attributes between their in-memory form
// (orb.Geometry) and their storage wire forms: WKT on the way in, GeoJSON
// text on the way out.
package geo

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/wkt"
	"github.com/paulmach/orb/geojson"

	"github.com/mesh-intelligence/strata/pkg/types"
)

// WKT returns the well-known text of g.
func WKT(g orb.Geometry) string {
	return wkt.MarshalString(g)
}

// ParseWKT parses well-known text, accepting an optional EWKT "SRID=n;"
// prefix.
func ParseWKT(s string) (orb.Geometry, error) {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(strings.ToUpper(s), "SRID=") {
		if i := strings.IndexByte(s, ';'); i >= 0 {
			s = s[i+1:]
		}
	}
	g, err := wkt.Unmarshal(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", types.ErrInvalidGeometry, err)
	}
	return g, nil
}

// GeoJSON returns the GeoJSON geometry object of g as text.
func GeoJSON(g orb.Geometry) (string, error) {
	b, err := json.Marshal(geojson.NewGeometry(g))
	if err != nil {
		return "", fmt.Errorf("%w: %v", types.ErrInvalidGeometry, err)
	}
	return string(b), nil
}

// ParseGeoJSON parses a GeoJSON geometry object.
func ParseGeoJSON(s string) (orb.Geometry, error) {
	g, err := geojson.UnmarshalGeometry([]byte(s))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", types.ErrInvalidGeometry, err)
	}
	return g.Geometry(), nil
}

// Parse accepts either wire form: GeoJSON object text or WKT.
func Parse(s string) (orb.Geometry, error) {
	if strings.HasPrefix(strings.TrimSpace(s), "{") {
		return ParseGeoJSON(s)
	}
	return ParseWKT(s)
}

// ToWire converts g to its WKT wire form in SRID 4326.
func ToWire(g orb.Geometry) types.WKT {
	return types.WKT{Text: WKT(g), SRID: types.SRID4326}
}

// Encode returns a copy of values in which every structured geometry held
// by one of columns is replaced by its WKT wire form. Other values pass
// through unchanged.
func Encode(values types.Row, columns []string) types.Row {
	if len(columns) == 0 {
		return values
	}
	out := make(types.Row, len(values))
	for k, v := range values {
		out[k] = v
	}
	for _, col := range columns {
		switch g := out[col].(type) {
		case orb.Geometry:
			if g != nil {
				out[col] = ToWire(g)
			}
		case *geojson.Geometry:
			if g != nil {
				out[col] = ToWire(g.Geometry())
			}
		}
	}
	return out
}

// Decode replaces, in place, every textual geometry held by one of columns
// with its structured form. Values that are already structured or nil are
// left alone.
func Decode(row types.Row, columns []string) error {
	for _, col := range columns {
		var text string
		switch v := row[col].(type) {
		case string:
			text = v
		case []byte:
			text = string(v)
		default:
			continue
		}
		if text == "" {
			row[col] = nil
			continue
		}
		g, err := Parse(text)
		if err != nil {
			return fmt.Errorf("decode column %s: %w", col, err)
		}
		row[col] = g
	}
	return nil
}
