package cti

import (
	"fmt"
	"slices"
	"sort"

	"github.com/mesh-intelligence/strata/pkg/geo"
	"github.com/mesh-intelligence/strata/pkg/types"
)

type attributeKind int

const (
	storedAttribute attributeKind = iota
	virtualAttribute
	delegatedAttribute
)

// attribute is one row of a model's attribute table.
type attribute struct {
	kind      attributeKind
	virtual   Virtual
	relations []*Relation
}

// Model is a registered entity type. Every model is persistable; models
// linked to others expose a Hierarchy and models with geometry columns a
// Spatial capability.
type Model struct {
	registry *Registry
	desc     Descriptor

	name          string
	table         string
	typeAttribute string
	discriminator string
	concrete      bool
	columns       []string

	parent     *Relation
	relations  map[string]*Relation
	attributes map[string]attribute

	hierarchy *Hierarchy
	spatial   *Spatial
}

func newModel(reg *Registry, d Descriptor) (*Model, error) {
	if d.Name == "" {
		return nil, fmt.Errorf("%w: type name is empty", types.ErrConfiguration)
	}
	if d.Table == "" {
		return nil, configError(d.Name, "table is empty")
	}
	if d.TypeAttribute == "" {
		d.TypeAttribute = DefaultTypeAttribute
	}
	if d.Discriminator == "" {
		d.Discriminator = d.Table
	}

	m := &Model{
		registry:      reg,
		desc:          d,
		name:          d.Name,
		table:         d.Table,
		typeAttribute: d.TypeAttribute,
		discriminator: d.Discriminator,
		concrete:      d.Concrete,
		relations:     make(map[string]*Relation),
		attributes:    map[string]attribute{"id": {kind: storedAttribute}},
	}
	for _, c := range d.Columns {
		if c == "" || c == "id" {
			return nil, configError(d.Name, "invalid column %q", c)
		}
		if _, dup := m.attributes[c]; dup {
			return nil, configError(d.Name, "duplicate column %q", c)
		}
		m.attributes[c] = attribute{kind: storedAttribute}
		m.columns = append(m.columns, c)
	}
	for _, g := range d.Geometry {
		if !slices.Contains(m.columns, g) {
			return nil, configError(d.Name, "geometry column %q is not a declared column", g)
		}
	}
	return m, nil
}

// checkAncestry rejects parent chains that loop back on themselves.
func (m *Model) checkAncestry() error {
	seen := map[*Model]bool{m: true}
	for rel := m.parent; rel != nil; rel = rel.Target.parent {
		if seen[rel.Target] {
			return configError(m.name, "parent chain forms a cycle through %s", rel.Target.name)
		}
		seen[rel.Target] = true
	}
	return nil
}

func (m *Model) buildAttributes() error {
	d := m.desc
	for _, name := range sortedKeys(d.Virtuals) {
		if m.isStored(name) {
			return configError(m.name, "virtual %q shadows a stored column", name)
		}
		m.attributes[name] = attribute{kind: virtualAttribute, virtual: d.Virtuals[name]}
	}

	for _, name := range sortedKeys(d.Delegates) {
		if _, virtual := d.Virtuals[name]; virtual {
			continue
		}
		if m.isStored(name) {
			return configError(m.name, "delegate %q shadows a stored column", name)
		}
		attr := attribute{kind: delegatedAttribute}
		for _, relName := range d.Delegates[name] {
			rel, ok := m.relations[relName]
			if !ok {
				return configError(m.name, "delegate %q: unknown relation %q", name, relName)
			}
			attr.relations = append(attr.relations, rel)
		}
		m.attributes[name] = attr
	}

	// The discriminator is inherited from the parent unless declared here.
	if _, ok := m.attributes[m.typeAttribute]; !ok && m.parent != nil {
		m.attributes[m.typeAttribute] = attribute{
			kind:      delegatedAttribute,
			relations: []*Relation{m.parent},
		}
	}
	return nil
}

// checkDelegates verifies every delegate resolves to a stored or virtual
// attribute without cycles, and that concrete types can record their
// discriminator.
func (m *Model) checkDelegates() error {
	for _, name := range sortedKeys(m.attributes) {
		if m.attributes[name].kind != delegatedAttribute {
			continue
		}
		if err := m.checkResolvable(name, map[*Model]bool{}); err != nil {
			return configError(m.name, "delegate %q: %v", name, err)
		}
	}
	if m.concrete {
		if err := m.checkResolvable(m.typeAttribute, map[*Model]bool{}); err != nil {
			return configError(m.name, "discriminator %q: %v", m.typeAttribute, err)
		}
	}
	return nil
}

func (m *Model) checkResolvable(name string, visiting map[*Model]bool) error {
	attr, ok := m.attributes[name]
	if !ok {
		return fmt.Errorf("%s cannot resolve it", m.name)
	}
	if attr.kind != delegatedAttribute {
		return nil
	}
	if visiting[m] {
		return fmt.Errorf("delegation cycle through %s", m.name)
	}
	visiting[m] = true
	defer delete(visiting, m)
	for _, rel := range attr.relations {
		if err := rel.Target.checkResolvable(name, visiting); err != nil {
			return err
		}
	}
	return nil
}

func (m *Model) buildCapabilities() {
	if len(m.relations) > 0 {
		m.hierarchy = &Hierarchy{model: m}
	}
	if len(m.desc.Geometry) > 0 {
		m.spatial = &Spatial{columns: slices.Clone(m.desc.Geometry)}
	}
}

func (m *Model) isStored(name string) bool {
	attr, ok := m.attributes[name]
	return ok && attr.kind == storedAttribute
}

// Name returns the registered type name.
func (m *Model) Name() string { return m.name }

// Table returns the table storing the type's own columns.
func (m *Model) Table() string { return m.table }

// TypeAttribute returns the discriminator attribute.
func (m *Model) TypeAttribute() string { return m.typeAttribute }

// Discriminator returns the value concrete records of this type carry.
func (m *Model) Discriminator() string { return m.discriminator }

// Concrete reports whether rows can have this type as their runtime type.
func (m *Model) Concrete() bool { return m.concrete }

// Columns returns the stored columns, id first.
func (m *Model) Columns() []string {
	return append([]string{"id"}, m.columns...)
}

// Relation returns the named relation.
func (m *Model) Relation(name string) (*Relation, error) {
	rel, ok := m.relations[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s.%s", types.ErrUnknownRelation, m.name, name)
	}
	return rel, nil
}

// Relations returns every relation of the model sorted by name.
func (m *Model) Relations() []*Relation {
	rels := make([]*Relation, 0, len(m.relations))
	for _, name := range sortedKeys(m.relations) {
		rels = append(rels, m.relations[name])
	}
	return rels
}

// Hierarchy returns the hierarchy capability, or nil for a standalone type.
func (m *Model) Hierarchy() *Hierarchy { return m.hierarchy }

// Spatial returns the geometry capability, or nil when the type stores no
// geometry.
func (m *Model) Spatial() *Spatial { return m.spatial }

// New returns a new, unsaved record of the type.
func (m *Model) New() *Record {
	return newRecord(m)
}

// ancestors returns the parent chain, nearest first.
func (m *Model) ancestors() []*Model {
	var out []*Model
	for rel := m.parent; rel != nil; rel = rel.Target.parent {
		out = append(out, rel.Target)
	}
	return out
}

// root returns the top of the parent chain.
func (m *Model) root() *Model {
	r := m
	for r.parent != nil {
		r = r.parent.Target
	}
	return r
}

// isA reports whether m is other or descends from it.
func (m *Model) isA(other *Model) bool {
	return m == other || slices.Contains(m.ancestors(), other)
}

// Hierarchy exposes the links of a model within its inheritance chain.
type Hierarchy struct {
	model *Model
}

// Parent returns the belongs-to relation to the parent type, or nil.
func (h *Hierarchy) Parent() *Relation { return h.model.parent }

// Children returns the has-one relations, direct children before through
// relations, each group sorted by name.
func (h *Hierarchy) Children() []*Relation {
	var rels []*Relation
	for _, rel := range h.model.relations {
		if rel.Kind != BelongsTo {
			rels = append(rels, rel)
		}
	}
	sortRelations(rels)
	return rels
}

// Ancestors returns the parent chain, nearest first.
func (h *Hierarchy) Ancestors() []*Model { return h.model.ancestors() }

// Root returns the model at the top of the chain.
func (h *Hierarchy) Root() *Model { return h.model.root() }

// Descendants returns the registered models whose chain includes this one,
// in registration order.
func (h *Hierarchy) Descendants() []*Model {
	var out []*Model
	for _, m := range h.model.registry.order {
		if m != h.model && m.isA(h.model) {
			out = append(out, m)
		}
	}
	return out
}

// Spatial converts a model's geometry columns between the in-memory and
// wire forms.
type Spatial struct {
	columns []string
}

// Columns returns the geometry columns.
func (s *Spatial) Columns() []string { return slices.Clone(s.columns) }

// Encode returns values with geometries in wire form.
func (s *Spatial) Encode(values types.Row) types.Row {
	return geo.Encode(values, s.columns)
}

// Decode parses the geometry columns of row in place.
func (s *Spatial) Decode(row types.Row) error {
	return geo.Decode(row, s.columns)
}

func sortRelations(rels []*Relation) {
	sort.Slice(rels, func(i, j int) bool {
		ti, tj := rels[i].Kind == HasOneThrough, rels[j].Kind == HasOneThrough
		if ti != tj {
			return !ti
		}
		return rels[i].Name < rels[j].Name
	})
}
