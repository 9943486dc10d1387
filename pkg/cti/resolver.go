package cti

import (
	"fmt"
	"reflect"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/mesh-intelligence/strata/pkg/geo"
	"github.com/mesh-intelligence/strata/pkg/types"
)

// Get resolves attr through the model's attribute table. A delegated
// attribute yields the first present value among its loaded relations, in
// declaration order. Unknown attributes and relations that were never
// loaded yield nil.
func (r *Record) Get(attr string) any {
	a, ok := r.model.attributes[attr]
	if !ok {
		return nil
	}
	switch a.kind {
	case storedAttribute:
		return r.attrs[attr]
	case virtualAttribute:
		if a.virtual.Get == nil {
			return nil
		}
		return a.virtual.Get(r)
	default:
		for _, rel := range a.relations {
			t := r.related[rel.Name]
			if t == nil {
				continue
			}
			if v := t.Get(attr); present(v) {
				return v
			}
		}
		return nil
	}
}

// Set assigns attr. A delegated attribute is forwarded to its single target
// relation, materializing the related record if needed; delegates over zero
// or several relations cannot be written. A child record materialized here
// is written when its owner is saved.
func (r *Record) Set(attr string, v any) error {
	a, ok := r.model.attributes[attr]
	if !ok {
		return fmt.Errorf("%w: %s.%s", types.ErrUnknownAttribute, r.model.name, attr)
	}
	switch a.kind {
	case storedAttribute:
		if r.isGeometry(attr) {
			g, err := toGeometry(v)
			if err != nil {
				return fmt.Errorf("set %s.%s: %w", r.model.name, attr, err)
			}
			if g != nil {
				v = g
			}
		}
		if old, set := r.attrs[attr]; set && reflect.DeepEqual(old, v) {
			return nil
		}
		r.attrs[attr] = v
		r.changed[attr] = true
		return nil
	case virtualAttribute:
		if a.virtual.Set == nil {
			return fmt.Errorf("%w: %s.%s", types.ErrReadOnlyAttribute, r.model.name, attr)
		}
		return a.virtual.Set(r, v)
	default:
		if len(a.relations) != 1 {
			return fmt.Errorf("%w: %s.%s has %d target relations", types.ErrUnsupportedDelegateWrite, r.model.name, attr, len(a.relations))
		}
		return r.materialize(a.relations[0]).Set(attr, v)
	}
}

// GetString returns attr as a string, or "" when it is not one.
func (r *Record) GetString(attr string) string {
	s, _ := r.Get(attr).(string)
	return s
}

// GetInt64 returns attr as an integer, or 0 when it is not one.
func (r *Record) GetInt64(attr string) int64 {
	n, _ := toInt64(r.Get(attr))
	return n
}

// GetGeometry returns attr as a geometry, or nil when it is not one.
func (r *Record) GetGeometry(attr string) orb.Geometry {
	g, _ := toGeometry(r.Get(attr))
	return g
}

func (r *Record) isGeometry(attr string) bool {
	s := r.model.Spatial()
	if s == nil {
		return false
	}
	for _, c := range s.columns {
		if c == attr {
			return true
		}
	}
	return false
}

func toGeometry(v any) (orb.Geometry, error) {
	switch g := v.(type) {
	case nil:
		return nil, nil
	case orb.Geometry:
		return g, nil
	case *geojson.Geometry:
		return g.Geometry(), nil
	case string:
		return geo.Parse(g)
	case types.WKT:
		return geo.ParseWKT(g.Text)
	default:
		return nil, fmt.Errorf("%w: unsupported value %T", types.ErrInvalidGeometry, v)
	}
}

// present reports whether a delegated value counts as found: nil, empty
// strings, false and numeric zero do not.
func present(v any) bool {
	if v == nil {
		return false
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.String:
		return rv.Len() > 0
	case reflect.Bool:
		return rv.Bool()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return !rv.IsZero()
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice:
		return !rv.IsNil()
	default:
		return true
	}
}
