package table

import "errors"

var (
	// ErrUnknownColumn indicates a column reference that resolves against
	// no provenance entry.
	ErrUnknownColumn = errors.New("unknown column")

	// ErrAmbiguousColumn indicates an unqualified column reference that
	// matches more than one provenance entry.
	ErrAmbiguousColumn = errors.New("ambiguous column")

	// ErrDuplicateColumn indicates a merge or projection that would create
	// a column collision that cannot be disambiguated.
	ErrDuplicateColumn = errors.New("duplicate column")
)
