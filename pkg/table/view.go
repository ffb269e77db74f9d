package table

import (
	"fmt"

	"github.com/alizain/squid-sql/pkg/value"
)

// View is an immutable row set: a Provenance plus rows whose cells align
// positionally with it.
type View struct {
	prov *Provenance
	rows [][]value.Value
}

// Selection is one requested output column: a (possibly qualified) column
// reference with an optional display override, or a * wildcard.
type Selection struct {
	Qualifier string
	Name      string
	As        string
	Star      bool
}

// FromSource builds a View for a freshly loaded source table. Every
// provenance entry gets the table name as its source; cols need only Name
// and Type set.
func FromSource(name string, cols []Column, rows [][]value.Value) (*View, error) {
	entries := make([]Column, len(cols))
	seen := make(map[string]bool, len(cols))
	for i, c := range cols {
		if seen[c.Name] {
			return nil, fmt.Errorf("%w: %s.%s", ErrDuplicateColumn, name, c.Name)
		}
		seen[c.Name] = true
		entries[i] = Column{Name: c.Name, Source: name, SourceColumn: c.Name, Type: c.Type}
	}
	for i, r := range rows {
		if len(r) != len(cols) {
			return nil, fmt.Errorf("table %s: row %d has %d cells, want %d", name, i, len(r), len(cols))
		}
	}
	return &View{prov: NewProvenance(entries), rows: rows}, nil
}

// Provenance returns the view's column provenance.
func (v *View) Provenance() *Provenance {
	return v.prov
}

// NumRows returns the row count.
func (v *View) NumRows() int {
	return len(v.rows)
}

// Row returns the row at position i.
func (v *View) Row(i int) []value.Value {
	return v.rows[i]
}

// As returns a view over the same rows with every column's source replaced
// by alias.
func (v *View) As(alias string) *View {
	return &View{prov: v.prov.WithSource(alias), rows: v.rows}
}

// Filter returns a view keeping the rows for which keep returns true, in
// their original order.
func (v *View) Filter(keep func(row []value.Value) (bool, error)) (*View, error) {
	rows := make([][]value.Value, 0, len(v.rows))
	for _, r := range v.rows {
		ok, err := keep(r)
		if err != nil {
			return nil, err
		}
		if ok {
			rows = append(rows, r)
		}
	}
	return &View{prov: v.prov, rows: rows}, nil
}

// Project resolves each selection against the provenance and returns a view
// with the requested columns in the requested order. A Star selection
// expands to all current columns. Explicit selections whose display names
// collide are ErrDuplicateColumn; an As override disambiguates.
func (v *View) Project(sels []Selection) (*View, error) {
	indices, prov, err := v.prov.Project(sels)
	if err != nil {
		return nil, err
	}
	rows := make([][]value.Value, len(v.rows))
	for i, r := range v.rows {
		out := make([]value.Value, len(indices))
		for j, idx := range indices {
			out[j] = r[idx]
		}
		rows[i] = out
	}
	return &View{prov: prov, rows: rows}, nil
}

// Project resolves selections to extraction indices plus the output
// provenance. The streaming projector resolves once per query with this and
// then extracts by index per row.
func (p *Provenance) Project(sels []Selection) ([]int, *Provenance, error) {
	var (
		indices []int
		cols    []Column
	)
	seen := make(map[string]bool, len(sels))
	for _, sel := range sels {
		if sel.Star {
			for i, c := range p.cols {
				indices = append(indices, i)
				cols = append(cols, c)
			}
			continue
		}
		i, err := p.Resolve(sel.Qualifier, sel.Name)
		if err != nil {
			return nil, nil, err
		}
		c := p.cols[i]
		display := c.Name
		if sel.As != "" {
			display = sel.As
		}
		if seen[display] {
			return nil, nil, fmt.Errorf("%w in select: %s (use as to pick a unique name)", ErrDuplicateColumn, display)
		}
		seen[display] = true
		indices = append(indices, i)
		cols = append(cols, Column{Name: display, Source: c.Source, SourceColumn: c.SourceColumn, Type: c.Type})
	}
	return indices, &Provenance{cols: cols}, nil
}

// MergeCross returns the Cartesian product of v and other: each v row is
// paired with every other row before moving on, so the left side varies
// slower. The provenance is the merge of both inputs.
func (v *View) MergeCross(other *View) (*View, error) {
	prov, err := v.prov.Merge(other.prov)
	if err != nil {
		return nil, err
	}
	rows := make([][]value.Value, 0, len(v.rows)*len(other.rows))
	for _, r1 := range v.rows {
		for _, r2 := range other.rows {
			row := make([]value.Value, 0, len(r1)+len(r2))
			row = append(row, r1...)
			row = append(row, r2...)
			rows = append(rows, row)
		}
	}
	return &View{prov: prov, rows: rows}, nil
}
