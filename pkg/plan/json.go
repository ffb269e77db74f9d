package plan

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/alizain/squid-sql/pkg/value"
)

// Query document format:
//
//	{
//	  "from":   [{"source": {"file": "users"}, "as": "u"}],
//	  "select": [{"source": {"column": {"table": "u", "name": "id"}}, "as": null},
//	             {"star": true}],
//	  "where":  [{"op": "=", "left": {"column": {"table": "u", "name": "id"}},
//	              "right": {"lit_int": 1}}],
//	  "limit":  10
//	}
//
// The where list is an implicit conjunction. A where entry may instead be
// {"all": [...]}, {"any": [...]} or {"not": {...}} to build nested
// conjunctions, disjunctions and negations. Comparison terms are a column
// reference or one of lit_int, lit_float, lit_str.

type rawQuery struct {
	From   []rawFrom   `json:"from"`
	Select []rawSelect `json:"select"`
	Where  []rawWhere  `json:"where"`
	Limit  *int        `json:"limit"`
}

type rawFrom struct {
	Source struct {
		File string `json:"file"`
	} `json:"source"`
	As string `json:"as"`
}

type rawSelect struct {
	Source *struct {
		Column rawColumnRef `json:"column"`
	} `json:"source"`
	As   string `json:"as"`
	Star bool   `json:"star"`
}

type rawColumnRef struct {
	Table string `json:"table"`
	Name  string `json:"name"`
}

type rawWhere struct {
	Op    string     `json:"op"`
	Left  *rawTerm   `json:"left"`
	Right *rawTerm   `json:"right"`
	All   []rawWhere `json:"all"`
	Any   []rawWhere `json:"any"`
	Not   *rawWhere  `json:"not"`
}

type rawTerm struct {
	Column   *rawColumnRef `json:"column"`
	LitInt   *int64        `json:"lit_int"`
	LitFloat *float64      `json:"lit_float"`
	LitStr   *string       `json:"lit_str"`
}

// Parse decodes and validates a query document.
func Parse(data []byte) (*QueryPlan, error) {
	var raw rawQuery
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPlan, err)
	}

	p := &QueryPlan{Limit: raw.Limit}

	for _, f := range raw.From {
		p.Sources = append(p.Sources, Source{Table: f.Source.File, Alias: f.As})
	}

	for _, s := range raw.Select {
		if s.Star {
			sel := Projection{Star: true, As: s.As}
			if s.Source != nil {
				sel.Column = ColumnRef{Table: s.Source.Column.Table, Column: s.Source.Column.Name}
			}
			p.Select = append(p.Select, sel)
			continue
		}
		if s.Source == nil {
			return nil, fmt.Errorf("%w: select entry with no source", ErrMalformedPlan)
		}
		p.Select = append(p.Select, Projection{
			Column: ColumnRef{Table: s.Source.Column.Table, Column: s.Source.Column.Name},
			As:     s.As,
		})
	}

	var preds []Predicate
	for _, w := range raw.Where {
		pred, err := buildPredicate(w)
		if err != nil {
			return nil, err
		}
		preds = append(preds, pred)
	}
	p.Where = Conjoin(preds)

	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// ParseFile reads and decodes a query document from disk.
func ParseFile(path string) (*QueryPlan, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("query file %s: %w", path, err)
	}
	p, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("query file %s: %w", path, err)
	}
	return p, nil
}

func buildPredicate(w rawWhere) (Predicate, error) {
	set := 0
	if w.Op != "" {
		set++
	}
	if w.All != nil {
		set++
	}
	if w.Any != nil {
		set++
	}
	if w.Not != nil {
		set++
	}
	if set != 1 {
		return nil, fmt.Errorf("%w: where entry must be exactly one of a comparison, all, any or not", ErrMalformedPlan)
	}

	switch {
	case w.All != nil:
		return buildGroup(w.All, func(l, r Predicate) Predicate { return &And{Left: l, Right: r} }, "all")
	case w.Any != nil:
		return buildGroup(w.Any, func(l, r Predicate) Predicate { return &Or{Left: l, Right: r} }, "any")
	case w.Not != nil:
		inner, err := buildPredicate(*w.Not)
		if err != nil {
			return nil, err
		}
		return &Not{Inner: inner}, nil
	}

	return buildComparison(w)
}

func buildGroup(entries []rawWhere, combine func(l, r Predicate) Predicate, kind string) (Predicate, error) {
	if len(entries) == 0 {
		return nil, fmt.Errorf("%w: empty %s group", ErrMalformedPlan, kind)
	}
	var out Predicate
	for _, e := range entries {
		p, err := buildPredicate(e)
		if err != nil {
			return nil, err
		}
		if out == nil {
			out = p
			continue
		}
		out = combine(out, p)
	}
	return out, nil
}

func buildComparison(w rawWhere) (Predicate, error) {
	op, err := value.ParseOp(w.Op)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPlan, err)
	}
	if w.Left == nil || w.Right == nil {
		return nil, fmt.Errorf("%w: comparison with missing side", ErrMalformedPlan)
	}

	switch {
	case w.Left.Column != nil && w.Right.Column != nil:
		return &ColumnToColumn{
			Left:  ColumnRef{Table: w.Left.Column.Table, Column: w.Left.Column.Name},
			Op:    op,
			Right: ColumnRef{Table: w.Right.Column.Table, Column: w.Right.Column.Name},
		}, nil
	case w.Left.Column != nil:
		lit, err := literalValue(w.Right)
		if err != nil {
			return nil, err
		}
		return &ColumnToLiteral{
			Column:  ColumnRef{Table: w.Left.Column.Table, Column: w.Left.Column.Name},
			Op:      op,
			Literal: lit,
		}, nil
	case w.Right.Column != nil:
		lit, err := literalValue(w.Left)
		if err != nil {
			return nil, err
		}
		return &ColumnToLiteral{
			Column:       ColumnRef{Table: w.Right.Column.Table, Column: w.Right.Column.Name},
			Op:           op,
			Literal:      lit,
			LiteralFirst: true,
		}, nil
	default:
		return nil, fmt.Errorf("%w: comparison needs at least one column", ErrMalformedPlan)
	}
}

func literalValue(t *rawTerm) (value.Value, error) {
	switch {
	case t.LitInt != nil:
		return value.NewInt(*t.LitInt), nil
	case t.LitFloat != nil:
		return value.NewFloat(*t.LitFloat), nil
	case t.LitStr != nil:
		return value.NewText(*t.LitStr), nil
	default:
		return value.Value{}, fmt.Errorf("%w: literal term must be one of lit_int, lit_float, lit_str", ErrMalformedPlan)
	}
}
