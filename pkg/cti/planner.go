package cti

import "slices"

// Step is one batched eager load: relation Relation of the owners with ids
// IDs, yielding records of Model.
type Step struct {
	Relation *Relation
	Model    *Model

	// Geometry is set when Model has geometry columns to decode.
	Geometry bool

	IDs []int64
}

// Plan lists the eager loads needed to materialize a result set.
type Plan struct {
	Steps []Step
}

// Relations returns the relation names of the plan, in step order.
func (p Plan) Relations() []string {
	names := make([]string, len(p.Steps))
	for i, s := range p.Steps {
		names[i] = s.Relation.Name
	}
	return names
}

// Empty reports whether the plan loads nothing.
func (p Plan) Empty() bool {
	return len(p.Steps) == 0
}

// Planner decides which subtype tables a set of records needs.
type Planner struct{}

// Plan inspects each record's discriminator and selects the child
// relations of its model that lead to the concrete type: those whose
// target is the concrete model or one of its ancestors. Records whose
// discriminator is unknown contribute nothing.
func (Planner) Plan(records []*Record) Plan {
	type key struct {
		owner *Model
		name  string
	}
	steps := map[key]*Step{}
	var order []*Step

	for _, r := range records {
		h := r.model.Hierarchy()
		if h == nil || !r.hasID() {
			continue
		}
		concrete := r.Concrete()
		if concrete == nil || concrete == r.model {
			continue
		}
		for _, rel := range h.Children() {
			if !concrete.isA(rel.Target) {
				continue
			}
			k := key{r.model, rel.Name}
			s, ok := steps[k]
			if !ok {
				s = &Step{
					Relation: rel,
					Model:    rel.Target,
					Geometry: rel.Target.Spatial() != nil,
				}
				steps[k] = s
				order = append(order, s)
			}
			if !slices.Contains(s.IDs, r.ID()) {
				s.IDs = append(s.IDs, r.ID())
			}
		}
	}

	plan := Plan{Steps: make([]Step, 0, len(order))}
	rels := make([]*Relation, len(order))
	for i, s := range order {
		rels[i] = s.Relation
	}
	sortRelations(rels)
	for _, rel := range rels {
		for _, s := range order {
			if s.Relation == rel {
				slices.Sort(s.IDs)
				plan.Steps = append(plan.Steps, *s)
			}
		}
	}
	return plan
}
