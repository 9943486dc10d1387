package cti

import (
	"fmt"
	"maps"
	"sort"

	"github.com/mesh-intelligence/strata/pkg/types"
)

// Record is one entity of a model: its stored attribute values, the set of
// changed attributes, and the related records materialized so far.
// Records are not safe for concurrent mutation.
type Record struct {
	model     *Model
	attrs     map[string]any
	changed   map[string]bool
	related   map[string]*Record
	persisted bool
}

func newRecord(m *Model) *Record {
	return &Record{
		model:   m,
		attrs:   make(map[string]any),
		changed: make(map[string]bool),
		related: make(map[string]*Record),
	}
}

// recordFromRow builds a persisted record from a selected row.
func recordFromRow(m *Model, row types.Row) (*Record, error) {
	if s := m.Spatial(); s != nil {
		if err := s.Decode(row); err != nil {
			return nil, err
		}
	}
	r := newRecord(m)
	for k, v := range row {
		r.attrs[k] = v
	}
	r.persisted = true
	return r, nil
}

// Model returns the record's type.
func (r *Record) Model() *Model {
	return r.model
}

// ID returns the shared id, or 0 before the first save.
func (r *Record) ID() int64 {
	id, _ := toInt64(r.attrs["id"])
	return id
}

func (r *Record) hasID() bool {
	_, ok := toInt64(r.attrs["id"])
	return ok
}

// IsNew reports whether the record has not been persisted yet.
func (r *Record) IsNew() bool {
	return !r.persisted
}

// Changed returns the stored attributes modified since the last save or
// load, sorted.
func (r *Record) Changed() []string {
	out := make([]string, 0, len(r.changed))
	for k := range r.changed {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Related returns the materialized record for relation name, or nil.
func (r *Record) Related(name string) *Record {
	return r.related[name]
}

// Attach materializes t as relation name of r, and r as the inverse
// relation of t.
func (r *Record) Attach(name string, t *Record) error {
	rel, err := r.model.Relation(name)
	if err != nil {
		return err
	}
	if t.model != rel.Target {
		return fmt.Errorf("%w: %s.%s holds %s, not %s", types.ErrUnknownRelation, r.model.name, name, rel.Target.name, t.model.name)
	}
	r.link(rel, t)
	return nil
}

// Attributes returns a copy of the stored attribute values.
func (r *Record) Attributes() types.Row {
	return types.Row(maps.Clone(r.attrs))
}

// Concrete returns the model named by the record's discriminator, or nil
// when the discriminator cannot be resolved from what is loaded.
func (r *Record) Concrete() *Model {
	if r.model.concrete {
		return r.model
	}
	v, ok := r.Get(r.model.typeAttribute).(string)
	if !ok {
		return nil
	}
	m, _ := r.model.registry.ModelByDiscriminator(v)
	return m
}

// link materializes target as r's relation rel and points the inverse
// relation back at r.
func (r *Record) link(rel *Relation, target *Record) {
	r.related[rel.Name] = target
	if rel.inverse != nil {
		target.related[rel.inverse.Name] = r
	}
}

// materialize returns the related record for rel, creating a blank one when
// none is loaded. The blank carries r's id; a belongs-to target of a
// persisted record is itself persisted, since every row of the chain exists.
func (r *Record) materialize(rel *Relation) *Record {
	if t := r.related[rel.Name]; t != nil {
		return t
	}
	t := newRecord(rel.Target)
	if r.hasID() {
		t.attrs["id"] = r.attrs["id"]
		t.persisted = r.persisted && rel.Kind == BelongsTo
	}
	r.link(rel, t)
	return t
}

// ownValues returns the values to write to the record's table: every set
// column for an insert, only changed columns for an update.
func (r *Record) ownValues() types.Row {
	values := types.Row{}
	for _, c := range r.model.columns {
		v, set := r.attrs[c]
		if !set {
			continue
		}
		if r.persisted && !r.changed[c] {
			continue
		}
		values[c] = v
	}
	if s := r.model.Spatial(); s != nil {
		values = s.Encode(values)
	}
	return values
}

func (r *Record) merge(row types.Row) {
	for k, v := range row {
		r.attrs[k] = v
	}
}

func toInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int64:
		return n, true
	case int:
		return int64(n), true
	case int32:
		return int64(n), true
	case int16:
		return int64(n), true
	case int8:
		return int64(n), true
	case uint:
		return int64(n), true
	case uint64:
		return int64(n), true
	case uint32:
		return int64(n), true
	case float64:
		if n == float64(int64(n)) {
			return int64(n), true
		}
	}
	return 0, false
}
