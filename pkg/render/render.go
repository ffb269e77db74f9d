// Package render writes query results in the output formats the CLI
// offers: an aligned text table, CSV and JSON.
package render

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/alizain/squid-sql/pkg/value"
)

// DefaultMaxColWidth caps how wide a table column may grow.
const DefaultMaxColWidth = 40

// Write renders columns and rows in the named format: table, csv or json.
func Write(w io.Writer, format string, columns []string, rows [][]value.Value, maxColWidth int) error {
	switch strings.ToLower(format) {
	case "", "table":
		return Table(w, columns, rows, maxColWidth)
	case "csv":
		return CSV(w, columns, rows)
	case "json":
		return JSON(w, columns, rows)
	default:
		return fmt.Errorf("unknown output format %q (want table, csv or json)", format)
	}
}

// Table writes an aligned text table. All columns are left-aligned except
// the last, which is right-aligned; cells wider than maxColWidth are
// truncated. A maxColWidth of 0 or less means DefaultMaxColWidth.
func Table(w io.Writer, columns []string, rows [][]value.Value, maxColWidth int) error {
	if len(columns) == 0 {
		_, err := fmt.Fprintln(w, "(no columns)")
		return err
	}
	if maxColWidth <= 0 {
		maxColWidth = DefaultMaxColWidth
	}

	widths := make([]int, len(columns))
	for i, col := range columns {
		widths[i] = len(col)
	}
	for _, row := range rows {
		for i, v := range row {
			if l := len(v.String()); l > widths[i] {
				widths[i] = l
			}
		}
	}
	for i := range widths {
		if widths[i] > maxColWidth {
			widths[i] = maxColWidth
		}
	}

	if err := writeRow(w, columns, widths); err != nil {
		return err
	}

	for i := range columns {
		if i > 0 {
			if _, err := fmt.Fprint(w, "┼"); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprint(w, strings.Repeat("─", widths[i]+2)); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprintln(w); err != nil {
		return err
	}

	cells := make([]string, len(columns))
	for _, row := range rows {
		for i, v := range row {
			cells[i] = v.String()
		}
		if err := writeRow(w, cells, widths); err != nil {
			return err
		}
	}

	_, err := fmt.Fprintf(w, "\n(%d row(s))\n", len(rows))
	return err
}

// writeRow pads cells to their column widths, left-aligned except the last
// column, which is right-aligned.
func writeRow(w io.Writer, cells []string, widths []int) error {
	last := len(cells) - 1
	for i, s := range cells {
		pad := "%-*s"
		if i == last {
			pad = "%*s"
		}
		if _, err := fmt.Fprintf(w, " "+pad+" ", widths[i], truncate(s, widths[i])); err != nil {
			return err
		}
		if i < last {
			if _, err := fmt.Fprint(w, "│"); err != nil {
				return err
			}
		}
	}
	_, err := fmt.Fprintln(w)
	return err
}

// truncate limits a string to max characters.
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	if max < 3 {
		return s[:max]
	}
	return s[:max-3] + "..."
}

// CSV writes a header row followed by the data rows.
func CSV(w io.Writer, columns []string, rows [][]value.Value) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(columns); err != nil {
		return err
	}
	record := make([]string, len(columns))
	for _, row := range rows {
		for i, v := range row {
			record[i] = v.String()
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// JSON writes {"columns": [...], "rows": [[...], ...]} with native JSON
// cell values: numbers for int and float, strings for str, null for NULL.
func JSON(w io.Writer, columns []string, rows [][]value.Value) error {
	out := struct {
		Columns []string        `json:"columns"`
		Rows    [][]interface{} `json:"rows"`
	}{
		Columns: columns,
		Rows:    make([][]interface{}, len(rows)),
	}
	for i, row := range rows {
		cells := make([]interface{}, len(row))
		for j, v := range row {
			cells[j] = cellJSON(v)
		}
		out.Rows[i] = cells
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func cellJSON(v value.Value) interface{} {
	if v.IsNull {
		return nil
	}
	switch v.Type {
	case value.TypeInt:
		return v.Int
	case value.TypeFloat:
		return v.Float
	case value.TypeText:
		return v.Text
	default:
		return v.String()
	}
}
