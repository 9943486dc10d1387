package cti

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/mesh-intelligence/strata/internal/logger"
	"github.com/mesh-intelligence/strata/pkg/types"
)

// Option configures a fetch.
type Option func(*fetchOptions)

type fetchOptions struct {
	where   []types.Predicate
	orderBy string
	limit   int
	with    []string
}

// Where filters the fetched type's rows. Predicates apply to its own
// table; use types.Related or Intersecting to reach others.
func Where(preds ...types.Predicate) Option {
	return func(o *fetchOptions) { o.where = append(o.where, preds...) }
}

// OrderBy orders the rows by a column of the fetched type's table.
func OrderBy(column string) Option {
	return func(o *fetchOptions) { o.orderBy = column }
}

// Limit caps the number of rows.
func Limit(n int) Option {
	return func(o *fetchOptions) { o.limit = n }
}

// With eager-loads the named relations after the planned ones.
func With(relations ...string) Option {
	return func(o *fetchOptions) { o.with = append(o.with, relations...) }
}

// Loader reads records with their ancestors and planned subtype rows.
type Loader struct {
	reg     *Registry
	db      types.Executor
	planner Planner
	log     *zap.Logger
}

// NewLoader returns a loader reading through db, which may be a Store or
// an open Tx.
func NewLoader(reg *Registry, db types.Executor, log *zap.Logger) *Loader {
	return &Loader{
		reg: reg,
		db:  db,
		log: logger.OrNop(log).With(zap.String("component", "loader")),
	}
}

// Fetch selects the rows of the named type, loads each record's ancestor
// chain in batches, applies the eager-load plan for the discriminators
// present, and finally loads any relations named with With.
func (l *Loader) Fetch(ctx context.Context, typeName string, opts ...Option) ([]*Record, error) {
	m, err := l.reg.Model(typeName)
	if err != nil {
		return nil, err
	}
	var o fetchOptions
	for _, opt := range opts {
		opt(&o)
	}

	q := m.query(o.where...)
	q.OrderBy = o.orderBy
	q.Limit = o.limit
	rows, err := l.db.Select(ctx, q)
	if err != nil {
		return nil, err
	}
	records := make([]*Record, 0, len(rows))
	for _, row := range rows {
		r, err := recordFromRow(m, row)
		if err != nil {
			return nil, err
		}
		records = append(records, r)
	}

	ancestors, err := l.loadAncestors(ctx, records)
	if err != nil {
		return nil, err
	}
	loaded := append(records[:len(records):len(records)], ancestors...)

	plan := l.planner.Plan(records)
	l.log.Debug("eager-load plan", zap.String("type", m.name), zap.Int("records", len(records)), zap.Strings("relations", plan.Relations()))
	for _, step := range plan.Steps {
		got, err := l.loadRelation(ctx, step.Relation, ownersOf(records, step))
		if err != nil {
			return nil, err
		}
		loaded = append(loaded, got...)
	}
	linkChains(loaded)

	if err := runAfterFetch(ctx, loaded); err != nil {
		return nil, err
	}
	if len(o.with) > 0 {
		if err := l.Load(ctx, records, o.with...); err != nil {
			return nil, err
		}
	}
	return records, nil
}

// Get fetches the record of the named type with the given id.
func (l *Loader) Get(ctx context.Context, typeName string, id int64, opts ...Option) (*Record, error) {
	if id <= 0 {
		return nil, fmt.Errorf("%w: %d", types.ErrInvalidID, id)
	}
	opts = append(opts, Where(types.Eq{Column: "id", Value: id}), Limit(1))
	records, err := l.Fetch(ctx, typeName, opts...)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: %s %d", types.ErrNotFound, typeName, id)
	}
	return records[0], nil
}

// Load eager-loads the named relations for records in one query per
// relation and target type. Relations already materialized are skipped.
func (l *Loader) Load(ctx context.Context, records []*Record, relations ...string) error {
	var loaded []*Record
	for _, name := range relations {
		groups := map[*Relation][]*Record{}
		var rels []*Relation
		for _, r := range records {
			rel, err := r.model.Relation(name)
			if err != nil {
				return err
			}
			if r.related[name] != nil {
				continue
			}
			if _, ok := groups[rel]; !ok {
				rels = append(rels, rel)
			}
			groups[rel] = append(groups[rel], r)
		}
		for _, rel := range rels {
			got, err := l.loadRelation(ctx, rel, groups[rel])
			if err != nil {
				return err
			}
			loaded = append(loaded, got...)
		}
	}
	if len(loaded) == 0 {
		return nil
	}

	linkChains(collect(records))
	ancestors, err := l.loadAncestors(ctx, loaded)
	if err != nil {
		return err
	}
	loaded = append(loaded, ancestors...)
	linkChains(collect(records))
	return runAfterFetch(ctx, loaded)
}

// Related returns the record of relation name for rec, fetching it when it
// is not materialized. A relation without a row yields nil.
func (l *Loader) Related(ctx context.Context, rec *Record, name string) (*Record, error) {
	if _, err := rec.model.Relation(name); err != nil {
		return nil, err
	}
	if t := rec.related[name]; t != nil {
		return t, nil
	}
	if !rec.hasID() {
		return nil, nil
	}
	if err := l.Load(ctx, []*Record{rec}, name); err != nil {
		return nil, err
	}
	return rec.related[name], nil
}

// loadAncestors walks up the parent chains of records, one batch per level
// and parent type, loading parents that are not materialized.
func (l *Loader) loadAncestors(ctx context.Context, records []*Record) ([]*Record, error) {
	var loaded []*Record
	level := records
	for len(level) > 0 {
		groups := map[*Relation][]*Record{}
		var rels []*Relation
		for _, r := range level {
			rel := r.model.parent
			if rel == nil || r.related[rel.Name] != nil {
				continue
			}
			if _, ok := groups[rel]; !ok {
				rels = append(rels, rel)
			}
			groups[rel] = append(groups[rel], r)
		}
		var next []*Record
		for _, rel := range rels {
			got, err := l.loadRelation(ctx, rel, groups[rel])
			if err != nil {
				return nil, err
			}
			next = append(next, got...)
		}
		loaded = append(loaded, next...)
		level = next
	}
	return loaded, nil
}

// loadRelation selects the targets of rel for owners in one query and
// links each to its owner.
func (l *Loader) loadRelation(ctx context.Context, rel *Relation, owners []*Record) ([]*Record, error) {
	var ids []any
	seen := map[int64]bool{}
	for _, o := range owners {
		if !o.hasID() || seen[o.ID()] {
			continue
		}
		seen[o.ID()] = true
		ids = append(ids, o.ID())
	}
	if len(ids) == 0 {
		return nil, nil
	}

	key := "id"
	if rel.Kind == HasOne {
		key = rel.ForeignKey
	}
	q := rel.Target.query(types.In{Column: key, Values: ids})
	if rel.Kind == HasOneThrough {
		q.Through = []string{rel.Through.table}
	}
	rows, err := l.db.Select(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("loading %s.%s: %w", rel.Owner.name, rel.Name, err)
	}

	byKey := make(map[int64]*Record, len(rows))
	out := make([]*Record, 0, len(rows))
	for _, row := range rows {
		t, err := recordFromRow(rel.Target, row)
		if err != nil {
			return nil, err
		}
		k, _ := toInt64(t.attrs[key])
		if _, dup := byKey[k]; dup {
			continue
		}
		byKey[k] = t
		out = append(out, t)
	}
	for _, o := range owners {
		if t := byKey[o.ID()]; t != nil {
			o.link(rel, t)
		}
	}
	return out, nil
}

func (m *Model) query(where ...types.Predicate) types.Query {
	q := types.Query{Table: m.table, Columns: m.Columns(), Where: where}
	if s := m.spatial; s != nil {
		q.Geometry = s.Columns()
	}
	return q
}

func ownersOf(records []*Record, step Step) []*Record {
	want := make(map[int64]bool, len(step.IDs))
	for _, id := range step.IDs {
		want[id] = true
	}
	var out []*Record
	for _, r := range records {
		if r.model == step.Relation.Owner && want[r.ID()] {
			out = append(out, r)
		}
	}
	return out
}

// linkChains connects records of one hierarchy chain (same id) through
// every shared-id relation between their models, so delegated reads work
// from any node.
func linkChains(records []*Record) {
	chains := map[int64]map[*Model]*Record{}
	for _, r := range records {
		if !r.hasID() {
			continue
		}
		chain := chains[r.ID()]
		if chain == nil {
			chain = map[*Model]*Record{}
			chains[r.ID()] = chain
		}
		if _, ok := chain[r.model]; !ok {
			chain[r.model] = r
		}
	}
	for _, chain := range chains {
		for _, r := range chain {
			for name, rel := range r.model.relations {
				if rel.ForeignKey != "id" || r.related[name] != nil {
					continue
				}
				if t := chain[rel.Target]; t != nil {
					r.related[name] = t
				}
			}
		}
	}
}

// collect returns records and every record reachable from them.
func collect(records []*Record) []*Record {
	seen := map[*Record]bool{}
	var out []*Record
	var walk func(r *Record)
	walk = func(r *Record) {
		if seen[r] {
			return
		}
		seen[r] = true
		out = append(out, r)
		for _, t := range r.related {
			walk(t)
		}
	}
	for _, r := range records {
		walk(r)
	}
	return out
}

func runAfterFetch(ctx context.Context, records []*Record) error {
	for _, r := range records {
		if h := r.model.desc.Hooks.AfterFetch; h != nil {
			if err := h(ctx, r); err != nil {
				return err
			}
		}
	}
	return nil
}
