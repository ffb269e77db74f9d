package engine

import "errors"

// ErrUnknownTable indicates a from clause or qualifier referencing a source
// the catalog does not have.
var ErrUnknownTable = errors.New("unknown table")
