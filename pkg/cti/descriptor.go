package cti

import "context"

// DefaultTypeAttribute is the discriminator attribute used when a
// Descriptor leaves TypeAttribute empty.
const DefaultTypeAttribute = "type"

// Descriptor declares one entity type and its table.
type Descriptor struct {
	// Name registers the type and is how other descriptors refer to it.
	Name string

	// Table stores the type's own columns.
	Table string

	// TypeAttribute holds the discriminator. Defaults to "type".
	TypeAttribute string

	// Discriminator is the value recorded for concrete types. Defaults to
	// Table.
	Discriminator string

	// Concrete marks a type that can be the runtime type of a row.
	Concrete bool

	// Columns lists the columns stored on Table besides id.
	Columns []string

	// Geometry lists the columns of Columns that hold geometries.
	Geometry []string

	// Parent is the table this type's id is a foreign key to.
	Parent *Parent

	// Children maps relation names to the types sharing this type's id.
	Children map[string]Child

	// Delegates maps attributes this type does not store to the relations,
	// in resolution order, that provide them.
	Delegates map[string][]string

	// Virtuals are computed attributes.
	Virtuals map[string]Virtual

	Hooks Hooks
}

// Parent names the belongs-to relation to the parent type.
type Parent struct {
	Relation string
	Type     string
}

// Child declares a has-one relation. With Through set, the relation reaches
// a grandchild through the intermediate type Through.
type Child struct {
	Type string

	// ForeignKey is the target column holding the owner's id. Defaults to
	// "id".
	ForeignKey string

	Through string
}

// Virtual is a computed attribute. A nil Set makes it read-only.
type Virtual struct {
	Get func(r *Record) any
	Set func(r *Record, v any) error
}

// Hooks run around persistence of a single table row. An error aborts the
// operation.
type Hooks struct {
	BeforeSave func(ctx context.Context, r *Record) error
	AfterSave  func(ctx context.Context, r *Record) error
	AfterFetch func(ctx context.Context, r *Record) error
}
