// Package loader reads source tables from JSON files on disk and serves
// them to the engine, caching each table after its first load.
//
// A table file is a JSON array whose first element declares the columns as
// [name, type] pairs and whose remaining elements are rows:
//
//	[
//	  [["id", "int"], ["name", "str"], ["score", "float"]],
//	  [1, "ada", 9.5],
//	  [2, "bob", null]
//	]
//
// Supported types are int, str and float. Cells must match their declared
// type; null is allowed in any column.
package loader

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/alizain/squid-sql/pkg/engine"
	"github.com/alizain/squid-sql/pkg/table"
	"github.com/alizain/squid-sql/pkg/value"
)

// DefaultExt is the filename suffix table files carry.
const DefaultExt = ".table.json"

// Loader resolves table names to files under one directory.
type Loader struct {
	dir   string
	ext   string
	cache map[string]*table.View
	log   *zap.Logger
}

// New creates a Loader for dir. An empty ext means DefaultExt; a nil logger
// disables logging.
func New(dir, ext string, log *zap.Logger) *Loader {
	if ext == "" {
		ext = DefaultExt
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Loader{
		dir:   dir,
		ext:   ext,
		cache: make(map[string]*table.View),
		log:   log,
	}
}

// Path returns the file a table name maps to.
func (l *Loader) Path(name string) string {
	return filepath.Join(l.dir, name+l.ext)
}

// Table returns the named table, loading it on first use. A missing file is
// engine.ErrUnknownTable.
func (l *Loader) Table(name string) (*table.View, error) {
	if v, ok := l.cache[name]; ok {
		return v, nil
	}

	path := l.Path(name)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", engine.ErrUnknownTable, name)
		}
		return nil, fmt.Errorf("table %s: %w", name, err)
	}

	v, err := parseTable(name, data)
	if err != nil {
		return nil, fmt.Errorf("table file %s: %w", path, err)
	}

	l.cache[name] = v
	l.log.Info("loaded table",
		zap.String("file", path),
		zap.Int("rows", v.NumRows()))
	return v, nil
}

// List returns the table names available under the directory, sorted.
func (l *Loader) List() ([]string, error) {
	entries, err := os.ReadDir(l.dir)
	if err != nil {
		return nil, fmt.Errorf("tables dir %s: %w", l.dir, err)
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), l.ext) {
			continue
		}
		names = append(names, strings.TrimSuffix(e.Name(), l.ext))
	}
	sort.Strings(names)
	return names, nil
}

func parseTable(name string, data []byte) (*table.View, error) {
	var elems []json.RawMessage
	if err := json.Unmarshal(data, &elems); err != nil {
		return nil, fmt.Errorf("not a JSON array: %v", err)
	}
	if len(elems) == 0 {
		return nil, fmt.Errorf("missing column header")
	}

	cols, err := parseHeader(elems[0])
	if err != nil {
		return nil, err
	}

	rows := make([][]value.Value, 0, len(elems)-1)
	for i, elem := range elems[1:] {
		row, err := parseRow(elem, cols)
		if err != nil {
			return nil, fmt.Errorf("row %d: %v", i+1, err)
		}
		rows = append(rows, row)
	}

	return table.FromSource(name, cols, rows)
}

func parseHeader(data json.RawMessage) ([]table.Column, error) {
	var pairs [][]string
	if err := json.Unmarshal(data, &pairs); err != nil {
		return nil, fmt.Errorf("column header must be [name, type] pairs: %v", err)
	}
	if len(pairs) == 0 {
		return nil, fmt.Errorf("column header is empty")
	}

	cols := make([]table.Column, len(pairs))
	for i, pair := range pairs {
		if len(pair) != 2 {
			return nil, fmt.Errorf("column %d: want [name, type], got %d elements", i, len(pair))
		}
		t := value.ParseType(pair[1])
		if t == value.TypeUnknown {
			return nil, fmt.Errorf("column %s: unsupported type %q (want int, str or float)", pair[0], pair[1])
		}
		cols[i] = table.Column{Name: pair[0], Type: t}
	}
	return cols, nil
}

func parseRow(data json.RawMessage, cols []table.Column) ([]value.Value, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var cells []interface{}
	if err := dec.Decode(&cells); err != nil {
		return nil, fmt.Errorf("not a JSON array: %v", err)
	}
	if len(cells) != len(cols) {
		return nil, fmt.Errorf("has %d cells, want %d", len(cells), len(cols))
	}

	row := make([]value.Value, len(cells))
	for i, cell := range cells {
		v, err := parseCell(cell, cols[i].Type)
		if err != nil {
			return nil, fmt.Errorf("column %s: %v", cols[i].Name, err)
		}
		row[i] = v
	}
	return row, nil
}

func parseCell(cell interface{}, t value.Type) (value.Value, error) {
	if cell == nil {
		return value.Null(t), nil
	}

	switch c := cell.(type) {
	case json.Number:
		switch t {
		case value.TypeInt:
			n, err := c.Int64()
			if err != nil {
				return value.Value{}, fmt.Errorf("%v is not an int", c)
			}
			return value.NewInt(n), nil
		case value.TypeFloat:
			f, err := c.Float64()
			if err != nil {
				return value.Value{}, fmt.Errorf("%v is not a float", c)
			}
			return value.NewFloat(f), nil
		default:
			return value.Value{}, fmt.Errorf("number %v in a %s column", c, t)
		}
	case string:
		if t != value.TypeText {
			return value.Value{}, fmt.Errorf("string %q in a %s column", c, t)
		}
		return value.NewText(c), nil
	default:
		return value.Value{}, fmt.Errorf("unsupported cell %v (%T)", cell, cell)
	}
}
