package types

import "errors"

// Registration errors. ErrConfiguration is returned, wrapped with the
// offending type and attribute, for any malformed descriptor.
var (
	ErrConfiguration   = errors.New("invalid type configuration")
	ErrUnknownType     = errors.New("unknown entity type")
	ErrUnknownRelation = errors.New("unknown relation")
)

// Attribute errors raised by the resolver.
var (
	ErrUnknownAttribute         = errors.New("unknown attribute")
	ErrReadOnlyAttribute        = errors.New("attribute is read-only")
	ErrUnsupportedDelegateWrite = errors.New("unsupported multi-target delegate write")
)

// Persistence and lookup errors.
var (
	ErrNotFound         = errors.New("entity not found")
	ErrInvalidID        = errors.New("invalid entity ID")
	ErrIdentityMismatch = errors.New("hierarchy rows do not share one id")
	ErrInvalidGeometry  = errors.New("invalid geometry")
	ErrInvalidQuery     = errors.New("invalid query")
	ErrTxDone           = errors.New("transaction already committed or rolled back")
)
