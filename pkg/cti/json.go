package cti

import (
	"encoding/json"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// MarshalJSON renders the stored attributes, every delegated or virtual
// attribute that resolves to a present value, and each materialized
// related record of the same chain under its relation name. Geometries are
// GeoJSON objects. Related records are rendered one level deep with their
// stored attributes only.
func (r *Record) MarshalJSON() ([]byte, error) {
	out := r.jsonAttributes()
	for _, name := range sortedKeys(r.model.attributes) {
		if r.model.attributes[name].kind == storedAttribute {
			continue
		}
		if v := r.Get(name); present(v) {
			out[name] = jsonValue(v)
		}
	}
	for name, t := range r.related {
		if t.ID() != r.ID() {
			continue
		}
		out[name] = t.jsonAttributes()
	}
	return json.Marshal(out)
}

func (r *Record) jsonAttributes() map[string]any {
	out := make(map[string]any, len(r.attrs))
	for k, v := range r.attrs {
		out[k] = jsonValue(v)
	}
	return out
}

func jsonValue(v any) any {
	if g, ok := v.(orb.Geometry); ok && g != nil {
		return geojson.NewGeometry(g)
	}
	return v
}
