package engine

import (
	"fmt"

	"github.com/alizain/squid-sql/pkg/plan"
	"github.com/alizain/squid-sql/pkg/table"
)

// sourceProv pairs a source's query-visible name with its pre-merge
// provenance.
type sourceProv struct {
	name string
	prov *table.Provenance
}

// pushdown is the classifier's output: a conjunction evaluable on each
// source alone, plus the residual that must wait until after the merge.
type pushdown struct {
	perSource map[string]plan.Predicate
	residual  plan.Predicate
}

// classify splits a predicate tree into per-source and residual parts. Only
// And nodes decompose; an Or or Not subtree moves as a whole and is pushed
// only when every reference inside it resolves to one single source. An
// unqualified name declared by more than one source stays residual so no
// pre-merge filter can change the result.
func classify(pred plan.Predicate, sources []sourceProv) (*pushdown, error) {
	out := &pushdown{perSource: make(map[string]plan.Predicate, len(sources))}
	if pred == nil {
		return out, nil
	}

	perSource := make(map[string][]plan.Predicate, len(sources))
	var residual []plan.Predicate

	for _, conjunct := range conjunctions(pred, nil) {
		home, pushable, err := conjunctHome(conjunct, sources)
		if err != nil {
			return nil, err
		}
		if pushable {
			perSource[home] = append(perSource[home], conjunct)
		} else {
			residual = append(residual, conjunct)
		}
	}

	for name, preds := range perSource {
		out.perSource[name] = plan.Conjoin(preds)
	}
	out.residual = plan.Conjoin(residual)
	return out, nil
}

// conjunctions flattens nested And nodes into a list of conjuncts, in
// left-to-right order.
func conjunctions(pred plan.Predicate, into []plan.Predicate) []plan.Predicate {
	if and, ok := pred.(*plan.And); ok {
		return conjunctions(and.Right, conjunctions(and.Left, into))
	}
	return append(into, pred)
}

// conjunctHome finds the single source every column reference in the
// conjunct resolves to, if there is one. A reference whose home cannot be
// determined (an unqualified name declared by several sources) makes the
// whole conjunct residual.
func conjunctHome(pred plan.Predicate, sources []sourceProv) (string, bool, error) {
	home := ""
	for _, ref := range columnRefs(pred, nil) {
		src, known, err := refSource(ref, sources)
		if err != nil {
			return "", false, err
		}
		if !known {
			return "", false, nil
		}
		if home == "" {
			home = src
			continue
		}
		if home != src {
			return "", false, nil
		}
	}
	return home, home != "", nil
}

// columnRefs collects every column reference in a predicate subtree.
func columnRefs(pred plan.Predicate, into []plan.ColumnRef) []plan.ColumnRef {
	switch n := pred.(type) {
	case *plan.ColumnToLiteral:
		return append(into, n.Column)
	case *plan.ColumnToColumn:
		return append(into, n.Left, n.Right)
	case *plan.And:
		return columnRefs(n.Right, columnRefs(n.Left, into))
	case *plan.Or:
		return columnRefs(n.Right, columnRefs(n.Left, into))
	case *plan.Not:
		return columnRefs(n.Inner, into)
	default:
		return into
	}
}

// refSource determines which source declares a reference. Qualified
// references name their source directly; unqualified ones are known only
// when exactly one source declares the column.
func refSource(ref plan.ColumnRef, sources []sourceProv) (string, bool, error) {
	if ref.Table != "" {
		for _, s := range sources {
			if s.name == ref.Table {
				return s.name, true, nil
			}
		}
		return "", false, fmt.Errorf("%w: %s", ErrUnknownTable, ref.Table)
	}

	var homes []string
	for _, s := range sources {
		if _, err := s.prov.Resolve("", ref.Column); err == nil {
			homes = append(homes, s.name)
		}
	}
	switch len(homes) {
	case 0:
		return "", false, fmt.Errorf("%w: %s", table.ErrUnknownColumn, ref.Column)
	case 1:
		return homes[0], true, nil
	default:
		// Declared by several sources; leave the decision to the
		// post-merge resolver.
		return "", false, nil
	}
}
