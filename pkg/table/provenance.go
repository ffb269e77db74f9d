// Package table provides the row-set representation queries operate on: a
// Provenance tracking which source table and column every display column
// came from, and a View pairing a Provenance with its rows.
//
// Provenance and View values are immutable. Rename, merge, filter, project
// and cross-merge all build new values; earlier ones stay valid.
package table

import (
	"fmt"

	"github.com/alizain/squid-sql/pkg/value"
)

// Column is one provenance entry: the display name a query refers to, the
// source table (or alias) it came from, the column name inside that source,
// and the declared value type.
type Column struct {
	Name         string
	Source       string
	SourceColumn string
	Type         value.Type
}

// Provenance is an ordered sequence of column entries. Positions align with
// row cells in a View.
type Provenance struct {
	cols []Column
}

// NewProvenance builds a Provenance from entries. The slice is copied.
func NewProvenance(cols []Column) *Provenance {
	p := &Provenance{cols: make([]Column, len(cols))}
	copy(p.cols, cols)
	return p
}

// Len returns the number of columns.
func (p *Provenance) Len() int {
	return len(p.cols)
}

// Column returns the entry at position i.
func (p *Provenance) Column(i int) Column {
	return p.cols[i]
}

// Names returns the display names in column order.
func (p *Provenance) Names() []string {
	names := make([]string, len(p.cols))
	for i, c := range p.cols {
		names[i] = c.Name
	}
	return names
}

// Resolve finds the position of a column reference. A qualified reference
// matches entries whose source equals the qualifier and whose display name
// or source column equals name; an unqualified reference matches by display
// name alone. More than one match is ErrAmbiguousColumn, none is
// ErrUnknownColumn.
func (p *Provenance) Resolve(qualifier, name string) (int, error) {
	found := -1
	matches := 0
	for i, c := range p.cols {
		if qualifier != "" {
			if c.Source != qualifier {
				continue
			}
			if c.Name != name && c.SourceColumn != name {
				continue
			}
		} else if c.Name != name {
			continue
		}
		found = i
		matches++
	}
	switch matches {
	case 0:
		return 0, fmt.Errorf("%w: %s", ErrUnknownColumn, refString(qualifier, name))
	case 1:
		return found, nil
	default:
		return 0, fmt.Errorf("%w: %s matches %d columns", ErrAmbiguousColumn, refString(qualifier, name), matches)
	}
}

// Rename returns a copy with the matching entry's source replaced by alias.
// The reference resolves under the usual qualification rules.
func (p *Provenance) Rename(qualifier, name, alias string) (*Provenance, error) {
	i, err := p.Resolve(qualifier, name)
	if err != nil {
		return nil, err
	}
	out := NewProvenance(p.cols)
	out.cols[i].Source = alias
	return out, nil
}

// WithSource returns a copy with every entry's source replaced by alias.
// Used when a from clause binds a table under an alias: the original table
// name no longer resolves.
func (p *Provenance) WithSource(alias string) *Provenance {
	out := NewProvenance(p.cols)
	for i := range out.cols {
		out.cols[i].Source = alias
	}
	return out
}

// Merge returns the concatenation of p's entries followed by other's.
// Entries that collide on both display name and source are ErrDuplicateColumn;
// a shared display name across different sources is allowed and must be
// qualified when referenced.
func (p *Provenance) Merge(other *Provenance) (*Provenance, error) {
	cols := make([]Column, 0, len(p.cols)+len(other.cols))
	cols = append(cols, p.cols...)
	cols = append(cols, other.cols...)
	seen := make(map[Column]bool, len(cols))
	for _, c := range cols {
		key := Column{Name: c.Name, Source: c.Source}
		if seen[key] {
			return nil, fmt.Errorf("%w: %s.%s", ErrDuplicateColumn, c.Source, c.Name)
		}
		seen[key] = true
	}
	return &Provenance{cols: cols}, nil
}

func refString(qualifier, name string) string {
	if qualifier == "" {
		return name
	}
	return qualifier + "." + name
}
