package types

// SRID4326 is the spatial reference of every geometry column (WGS 84).
const SRID4326 = 4326

// WKT is a geometry in its wire form: well-known text with a spatial
// reference id. Engines bind it through their geometry constructor.
type WKT struct {
	Text string
	SRID int
}

// Query describes a single-table select, optionally inner-joined to other
// tables on the shared id column.
type Query struct {
	Table string

	// Columns to project. Empty selects every column.
	Columns []string

	// Geometry lists the columns of Columns projected as GeoJSON text.
	Geometry []string

	// Through lists tables that must hold a row with the same id.
	Through []string

	// Where predicates are combined with AND.
	Where []Predicate

	OrderBy string
	Limit   int
}

// Predicate is a filter condition rendered by the engine.
type Predicate interface {
	predicate()
}

// Eq matches rows whose column equals Value. A nil Value matches NULL.
type Eq struct {
	Column string
	Value  any
}

// In matches rows whose column is one of Values. No values matches nothing.
type In struct {
	Column string
	Values []any
}

// Intersects matches rows whose geometry column intersects Geometry.
type Intersects struct {
	Column   string
	Geometry WKT
}

// Related matches rows whose id also appears in Table among the rows that
// match Where.
type Related struct {
	Table string
	Where []Predicate
}

// And matches rows that match every predicate.
type And []Predicate

// Or matches rows that match at least one predicate. An empty Or matches
// nothing.
type Or []Predicate

func (Eq) predicate()         {}
func (In) predicate()         {}
func (Intersects) predicate() {}
func (Related) predicate()    {}
func (And) predicate()        {}
func (Or) predicate()         {}
