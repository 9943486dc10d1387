package sqlstore

// Dialect renders the engine-specific fragments of a statement.
type Dialect interface {
	// Name identifies the dialect in logs.
	Name() string

	// Placeholder returns the bind marker for the n-th argument (1-based).
	Placeholder(n int) string

	// GeomFromText wraps a bound WKT parameter into a geometry value.
	GeomFromText(param string, srid int) string

	// AsGeoJSON projects a geometry expression as GeoJSON text.
	AsGeoJSON(expr string) string

	// Intersects renders a spatial intersection test.
	Intersects(column, geom string) string
}
