package plan

import (
	"fmt"

	"github.com/alizain/squid-sql/pkg/value"
)

// Predicate is the interface for all where-clause tree nodes.
type Predicate interface {
	predicateNode()
	String() string
}

// ColumnToLiteral compares one column against a literal value.
// LiteralFirst records that the literal was written on the left, which
// matters for ordering operators.
type ColumnToLiteral struct {
	Column       ColumnRef
	Op           value.Op
	Literal      value.Value
	LiteralFirst bool
}

func (p *ColumnToLiteral) predicateNode() {}

func (p *ColumnToLiteral) String() string {
	lit := p.Literal.String()
	if p.Literal.Type == value.TypeText {
		lit = fmt.Sprintf("%q", p.Literal.Text)
	}
	if p.LiteralFirst {
		return fmt.Sprintf("%s %s %s", lit, p.Op, p.Column)
	}
	return fmt.Sprintf("%s %s %s", p.Column, p.Op, lit)
}

// ColumnToColumn compares two columns, possibly from different sources.
type ColumnToColumn struct {
	Left  ColumnRef
	Op    value.Op
	Right ColumnRef
}

func (p *ColumnToColumn) predicateNode() {}

func (p *ColumnToColumn) String() string {
	return fmt.Sprintf("%s %s %s", p.Left, p.Op, p.Right)
}

// And is the conjunction of two predicates.
type And struct {
	Left  Predicate
	Right Predicate
}

func (p *And) predicateNode() {}

func (p *And) String() string {
	return fmt.Sprintf("(%s and %s)", p.Left, p.Right)
}

// Or is the disjunction of two predicates.
type Or struct {
	Left  Predicate
	Right Predicate
}

func (p *Or) predicateNode() {}

func (p *Or) String() string {
	return fmt.Sprintf("(%s or %s)", p.Left, p.Right)
}

// Not negates a predicate.
type Not struct {
	Inner Predicate
}

func (p *Not) predicateNode() {}

func (p *Not) String() string {
	return fmt.Sprintf("not %s", p.Inner)
}

// Conjoin folds predicates into a left-leaning And chain. It returns nil
// for an empty list and the single element unchanged for a list of one.
func Conjoin(preds []Predicate) Predicate {
	var out Predicate
	for _, p := range preds {
		if out == nil {
			out = p
			continue
		}
		out = &And{Left: out, Right: p}
	}
	return out
}
