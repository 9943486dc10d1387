package cti

// RelationKind distinguishes how a relation joins its owner to its target.
// Every kind joins on the shared id.
type RelationKind int

const (
	BelongsTo RelationKind = iota
	HasOne
	HasOneThrough
)

func (k RelationKind) String() string {
	switch k {
	case BelongsTo:
		return "belongsTo"
	case HasOne:
		return "hasOne"
	case HasOneThrough:
		return "hasOneThrough"
	default:
		return "unknown"
	}
}

// Relation links an owner model to a target model.
type Relation struct {
	Name       string
	Kind       RelationKind
	Owner      *Model
	Target     *Model
	ForeignKey string

	// Through is the intermediate model of a HasOneThrough relation.
	Through *Model

	// inverse is the relation of Target that points back at Owner, if any.
	inverse *Relation
}

// Inverse returns the relation pointing back from the target, or nil.
func (r *Relation) Inverse() *Relation {
	return r.inverse
}
