package plan

import "errors"

// ErrMalformedPlan indicates a query plan with a structurally invalid
// shape: empty from, empty select, a predicate node with missing sides,
// and the like.
var ErrMalformedPlan = errors.New("malformed plan")
