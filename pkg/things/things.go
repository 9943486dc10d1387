// Package things declares the Thing hierarchy: a Thing is either a Garden
// or a SinglePoint, and a SinglePoint is either a StreetLight or a
// TrafficSign. Each type has its own table; rows of one entity share an id.
package things

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/paulmach/orb"

	"github.com/mesh-intelligence/strata/pkg/cti"
	"github.com/mesh-intelligence/strata/pkg/types"
)

// Type names.
const (
	TypeThing       = "Thing"
	TypeSinglePoint = "SinglePoint"
	TypeStreetLight = "StreetLight"
	TypeTrafficSign = "TrafficSign"
	TypeGarden      = "Garden"
)

// Attribute names.
const (
	AttrName    = "name"
	AttrType    = "type"
	AttrGeom    = "geom"
	AttrMessage = "message"
	AttrKind    = "kind"
)

// ErrNameRequired is returned when saving a thing without a name.
var ErrNameRequired = errors.New("thing name is required")

// Descriptors returns the descriptors of the hierarchy.
func Descriptors() []cti.Descriptor {
	return []cti.Descriptor{
		{
			Name:    TypeThing,
			Table:   types.TableThings,
			Columns: []string{AttrName, AttrType},
			Children: map[string]cti.Child{
				"singlePoint": {Type: TypeSinglePoint},
				"garden":      {Type: TypeGarden},
				"streetLight": {Type: TypeStreetLight, Through: TypeSinglePoint},
				"trafficSign": {Type: TypeTrafficSign, Through: TypeSinglePoint},
			},
			Delegates: map[string][]string{
				AttrGeom:    {"garden", "singlePoint"},
				AttrMessage: {"trafficSign"},
			},
			Virtuals: map[string]cti.Virtual{
				AttrKind: {Get: kind},
			},
			Hooks: cti.Hooks{BeforeSave: requireName},
		},
		{
			Name:     TypeSinglePoint,
			Table:    types.TableSinglePoints,
			Columns:  []string{AttrGeom},
			Geometry: []string{AttrGeom},
			Parent:   &cti.Parent{Relation: "thing", Type: TypeThing},
			Children: map[string]cti.Child{
				"streetLight": {Type: TypeStreetLight},
				"trafficSign": {Type: TypeTrafficSign},
			},
			Delegates: map[string][]string{
				AttrName: {"thing"},
			},
		},
		{
			Name:     TypeStreetLight,
			Table:    types.TableStreetLights,
			Concrete: true,
			Parent:   &cti.Parent{Relation: "singlePoint", Type: TypeSinglePoint},
			Delegates: map[string][]string{
				AttrName: {"singlePoint"},
				AttrGeom: {"singlePoint"},
			},
		},
		{
			Name:     TypeTrafficSign,
			Table:    types.TableTrafficSigns,
			Concrete: true,
			Columns:  []string{AttrMessage},
			Parent:   &cti.Parent{Relation: "singlePoint", Type: TypeSinglePoint},
			Delegates: map[string][]string{
				AttrName: {"singlePoint"},
				AttrGeom: {"singlePoint"},
			},
		},
		{
			Name:     TypeGarden,
			Table:    types.TableGardens,
			Concrete: true,
			Columns:  []string{AttrGeom},
			Geometry: []string{AttrGeom},
			Parent:   &cti.Parent{Relation: "thing", Type: TypeThing},
			Delegates: map[string][]string{
				AttrName: {"thing"},
			},
		},
	}
}

// NewRegistry registers the hierarchy.
func NewRegistry() (*cti.Registry, error) {
	return cti.NewRegistry(Descriptors()...)
}

// kind names the concrete type of a thing once its discriminator is known.
func kind(r *cti.Record) any {
	if m := r.Concrete(); m != nil {
		return m.Name()
	}
	return nil
}

// requireName rejects a thing saved without a name. A persisted thing whose
// name was not touched may be a blank placeholder and passes.
func requireName(_ context.Context, r *cti.Record) error {
	if !r.IsNew() && !slices.Contains(r.Changed(), AttrName) {
		return nil
	}
	if r.GetString(AttrName) == "" {
		return ErrNameRequired
	}
	return nil
}

// NewStreetLight returns an unsaved street light.
func NewStreetLight(reg *cti.Registry, name string, at orb.Point) (*cti.Record, error) {
	return build(reg, TypeStreetLight, map[string]any{AttrName: name, AttrGeom: at})
}

// NewTrafficSign returns an unsaved traffic sign.
func NewTrafficSign(reg *cti.Registry, name, message string, at orb.Point) (*cti.Record, error) {
	return build(reg, TypeTrafficSign, map[string]any{AttrName: name, AttrMessage: message, AttrGeom: at})
}

// NewGarden returns an unsaved garden.
func NewGarden(reg *cti.Registry, name string, area orb.Polygon) (*cti.Record, error) {
	return build(reg, TypeGarden, map[string]any{AttrName: name, AttrGeom: area})
}

func build(reg *cti.Registry, typeName string, attrs map[string]any) (*cti.Record, error) {
	r, err := reg.New(typeName)
	if err != nil {
		return nil, err
	}
	for _, name := range []string{AttrName, AttrMessage, AttrGeom} {
		v, ok := attrs[name]
		if !ok {
			continue
		}
		if err := r.Set(name, v); err != nil {
			return nil, fmt.Errorf("new %s: %w", typeName, err)
		}
	}
	return r, nil
}
