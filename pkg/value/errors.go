package value

import "errors"

// ErrTypeMismatch indicates a comparison between value types that have no
// defined ordering or equality.
var ErrTypeMismatch = errors.New("type mismatch")
