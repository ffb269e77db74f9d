package engine

import (
	"fmt"

	"github.com/alizain/squid-sql/pkg/plan"
	"github.com/alizain/squid-sql/pkg/table"
	"github.com/alizain/squid-sql/pkg/value"
)

// keepFunc decides whether a row passes a compiled predicate.
type keepFunc func(row []value.Value) (bool, error)

// bindPredicate compiles a predicate tree against a provenance: every
// column reference is resolved to a position and every comparison is
// type-checked once, so per-row evaluation is indexed access only. All
// resolution and type errors surface here, before any row flows.
func bindPredicate(pred plan.Predicate, prov *table.Provenance) (keepFunc, error) {
	switch n := pred.(type) {
	case *plan.ColumnToLiteral:
		return bindColumnToLiteral(n, prov)
	case *plan.ColumnToColumn:
		return bindColumnToColumn(n, prov)
	case *plan.And:
		left, err := bindPredicate(n.Left, prov)
		if err != nil {
			return nil, err
		}
		right, err := bindPredicate(n.Right, prov)
		if err != nil {
			return nil, err
		}
		return func(row []value.Value) (bool, error) {
			ok, err := left(row)
			if err != nil || !ok {
				return false, err
			}
			return right(row)
		}, nil
	case *plan.Or:
		left, err := bindPredicate(n.Left, prov)
		if err != nil {
			return nil, err
		}
		right, err := bindPredicate(n.Right, prov)
		if err != nil {
			return nil, err
		}
		return func(row []value.Value) (bool, error) {
			ok, err := left(row)
			if err != nil || ok {
				return ok, err
			}
			return right(row)
		}, nil
	case *plan.Not:
		inner, err := bindPredicate(n.Inner, prov)
		if err != nil {
			return nil, err
		}
		return func(row []value.Value) (bool, error) {
			ok, err := inner(row)
			if err != nil {
				return false, err
			}
			return !ok, nil
		}, nil
	default:
		return nil, fmt.Errorf("%w: unknown predicate node %T", plan.ErrMalformedPlan, pred)
	}
}

func bindColumnToLiteral(n *plan.ColumnToLiteral, prov *table.Provenance) (keepFunc, error) {
	idx, err := prov.Resolve(n.Column.Table, n.Column.Column)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", n, err)
	}
	col := prov.Column(idx)
	lit := n.Literal
	op := n.Op

	if n.LiteralFirst {
		if err := value.Comparable(lit.Type, col.Type, op); err != nil {
			return nil, fmt.Errorf("%s: %w", n, err)
		}
		return func(row []value.Value) (bool, error) {
			return value.Compare(lit, row[idx], op)
		}, nil
	}
	if err := value.Comparable(col.Type, lit.Type, op); err != nil {
		return nil, fmt.Errorf("%s: %w", n, err)
	}
	return func(row []value.Value) (bool, error) {
		return value.Compare(row[idx], lit, op)
	}, nil
}

func bindColumnToColumn(n *plan.ColumnToColumn, prov *table.Provenance) (keepFunc, error) {
	left, err := prov.Resolve(n.Left.Table, n.Left.Column)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", n, err)
	}
	right, err := prov.Resolve(n.Right.Table, n.Right.Column)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", n, err)
	}
	op := n.Op
	if err := value.Comparable(prov.Column(left).Type, prov.Column(right).Type, op); err != nil {
		return nil, fmt.Errorf("%s: %w", n, err)
	}
	return func(row []value.Value) (bool, error) {
		return value.Compare(row[left], row[right], op)
	}, nil
}
