// Package plan defines the query plan handed to the engine: source tables,
// a predicate tree, projections and an optional limit, plus the JSON
// document format queries are written in.
package plan

import (
	"fmt"

	"github.com/alizain/squid-sql/pkg/value"
)

// ColumnRef is a possibly qualified column reference.
type ColumnRef struct {
	Table  string // optional qualifier; empty when unqualified
	Column string
}

// String returns the reference as written in a query.
func (r ColumnRef) String() string {
	if r.Table == "" {
		return r.Column
	}
	return r.Table + "." + r.Column
}

// Source names one from-clause table with an optional alias.
type Source struct {
	Table string
	Alias string
}

// Name returns the name the source is known by in the query: the alias if
// one was given, the table name otherwise.
func (s Source) Name() string {
	if s.Alias != "" {
		return s.Alias
	}
	return s.Table
}

// Projection is one select-clause entry: a column reference with an
// optional display override, or a * wildcard.
type Projection struct {
	Column ColumnRef
	As     string
	Star   bool
}

// QueryPlan is the parsed form of one query.
type QueryPlan struct {
	Sources []Source
	Where   Predicate // nil when the query has no where clause
	Select  []Projection
	Limit   *int // nil when the query has no limit
}

// Validate checks the plan's structural shape. Semantic checks (column
// existence, ambiguity, comparison types) belong to the engine.
func (p *QueryPlan) Validate() error {
	if len(p.Sources) == 0 {
		return fmt.Errorf("%w: empty from clause", ErrMalformedPlan)
	}
	seen := make(map[string]bool, len(p.Sources))
	for _, s := range p.Sources {
		if s.Table == "" {
			return fmt.Errorf("%w: from entry with no table name", ErrMalformedPlan)
		}
		name := s.Name()
		if seen[name] {
			return fmt.Errorf("%w: table %s declared twice, use as to give it a distinct name", ErrMalformedPlan, name)
		}
		seen[name] = true
	}

	if len(p.Select) == 0 {
		return fmt.Errorf("%w: empty select clause", ErrMalformedPlan)
	}
	for _, sel := range p.Select {
		if sel.Star {
			if sel.Column != (ColumnRef{}) || sel.As != "" {
				return fmt.Errorf("%w: * takes no column or as", ErrMalformedPlan)
			}
			continue
		}
		if sel.Column.Column == "" {
			return fmt.Errorf("%w: select entry with no column name", ErrMalformedPlan)
		}
	}

	if p.Limit != nil && *p.Limit < 0 {
		return fmt.Errorf("%w: negative limit %d", ErrMalformedPlan, *p.Limit)
	}

	if p.Where != nil {
		if err := validatePredicate(p.Where); err != nil {
			return err
		}
	}
	return nil
}

func validatePredicate(pred Predicate) error {
	switch n := pred.(type) {
	case *ColumnToLiteral:
		if n.Column.Column == "" {
			return fmt.Errorf("%w: comparison with no column name", ErrMalformedPlan)
		}
		if n.Literal.Type == value.TypeUnknown {
			return fmt.Errorf("%w: comparison with untyped literal", ErrMalformedPlan)
		}
	case *ColumnToColumn:
		if n.Left.Column == "" || n.Right.Column == "" {
			return fmt.Errorf("%w: comparison with no column name", ErrMalformedPlan)
		}
	case *And:
		if n.Left == nil || n.Right == nil {
			return fmt.Errorf("%w: and with missing side", ErrMalformedPlan)
		}
		if err := validatePredicate(n.Left); err != nil {
			return err
		}
		return validatePredicate(n.Right)
	case *Or:
		if n.Left == nil || n.Right == nil {
			return fmt.Errorf("%w: or with missing side", ErrMalformedPlan)
		}
		if err := validatePredicate(n.Left); err != nil {
			return err
		}
		return validatePredicate(n.Right)
	case *Not:
		if n.Inner == nil {
			return fmt.Errorf("%w: not with no operand", ErrMalformedPlan)
		}
		return validatePredicate(n.Inner)
	default:
		return fmt.Errorf("%w: unknown predicate node %T", ErrMalformedPlan, pred)
	}
	return nil
}
