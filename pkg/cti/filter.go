package cti

import (
	"fmt"

	"github.com/paulmach/orb"

	"github.com/mesh-intelligence/strata/pkg/geo"
	"github.com/mesh-intelligence/strata/pkg/types"
)

// Intersecting returns a predicate over m's table matching entities whose
// geometry, stored on any table of their chain, intersects g. It ORs a
// shared-id subquery for every geometry column of m, its ancestors and its
// descendants.
func Intersecting(m *Model, g orb.Geometry) (types.Predicate, error) {
	if g == nil {
		return nil, fmt.Errorf("%w: nil geometry", types.ErrInvalidGeometry)
	}
	wire := geo.ToWire(g)

	models := append([]*Model{m}, m.ancestors()...)
	if h := m.Hierarchy(); h != nil {
		models = append(models, h.Descendants()...)
	}

	var or types.Or
	seen := map[string]bool{}
	for _, sm := range models {
		s := sm.Spatial()
		if s == nil || seen[sm.table] {
			continue
		}
		seen[sm.table] = true
		for _, col := range s.columns {
			or = append(or, types.Related{
				Table: sm.table,
				Where: []types.Predicate{types.Intersects{Column: col, Geometry: wire}},
			})
		}
	}
	if len(or) == 0 {
		return nil, fmt.Errorf("%w: %s has no geometry in its hierarchy", types.ErrInvalidQuery, m.name)
	}
	return or, nil
}
