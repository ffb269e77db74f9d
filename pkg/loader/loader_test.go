package loader

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/alizain/squid-sql/pkg/engine"
	"github.com/alizain/squid-sql/pkg/value"
)

func writeTable(t *testing.T, dir, name, content string) {
	t.Helper()
	path := filepath.Join(dir, name+DefaultExt)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write table file: %v", err)
	}
}

func TestLoadTable(t *testing.T) {
	dir := t.TempDir()
	writeTable(t, dir, "users", `[
		[["id", "int"], ["name", "str"], ["score", "float"]],
		[1, "ada", 9.5],
		[2, "bob", null]
	]`)

	l := New(dir, "", nil)
	v, err := l.Table("users")
	if err != nil {
		t.Fatalf("Table() error = %v", err)
	}

	if want := []string{"id", "name", "score"}; !reflect.DeepEqual(v.Provenance().Names(), want) {
		t.Errorf("columns = %v, want %v", v.Provenance().Names(), want)
	}
	if got := v.Provenance().Column(0); got.Source != "users" || got.Type != value.TypeInt {
		t.Errorf("column 0 = %+v", got)
	}
	if got := v.Provenance().Column(2).Type; got != value.TypeFloat {
		t.Errorf("score type = %v, want float", got)
	}

	if v.NumRows() != 2 {
		t.Fatalf("rows = %d, want 2", v.NumRows())
	}
	if v.Row(0)[0].Int != 1 || v.Row(0)[1].Text != "ada" || v.Row(0)[2].Float != 9.5 {
		t.Errorf("row 0 = %v", v.Row(0))
	}
	if !v.Row(1)[2].IsNull {
		t.Errorf("row 1 score should be NULL, got %v", v.Row(1)[2])
	}
}

func TestLoadCaches(t *testing.T) {
	dir := t.TempDir()
	writeTable(t, dir, "t", `[[["n", "int"]], [1]]`)

	l := New(dir, "", nil)
	first, err := l.Table("t")
	if err != nil {
		t.Fatalf("Table() error = %v", err)
	}

	// Even if the file disappears, the cached view is served.
	if err := os.Remove(l.Path("t")); err != nil {
		t.Fatalf("remove: %v", err)
	}
	second, err := l.Table("t")
	if err != nil {
		t.Fatalf("second Table() error = %v", err)
	}
	if first != second {
		t.Error("second load should return the cached view")
	}
}

func TestLoadMissingTable(t *testing.T) {
	l := New(t.TempDir(), "", nil)
	if _, err := l.Table("ghost"); !errors.Is(err, engine.ErrUnknownTable) {
		t.Errorf("Table() error = %v, want ErrUnknownTable", err)
	}
}

func TestLoadCorruptTables(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"not json", `{{{`},
		{"not an array", `{"a": 1}`},
		{"empty file", `[]`},
		{"empty header", `[[]]`},
		{"header not pairs", `[["id", "int"], [1]]`},
		{"triple in header", `[[["id", "int", "extra"]], [1]]`},
		{"unsupported type", `[[["id", "uuid"]], [1]]`},
		{"wrong row width", `[[["id", "int"]], [1, 2]]`},
		{"string in int column", `[[["id", "int"]], ["x"]]`},
		{"fractional int", `[[["id", "int"]], [1.5]]`},
		{"number in str column", `[[["name", "str"]], [42]]`},
		{"bool cell", `[[["id", "int"]], [true]]`},
		{"duplicate column names", `[[["id", "int"], ["id", "int"]], [1, 2]]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			writeTable(t, dir, "bad", tt.content)
			l := New(dir, "", nil)
			if _, err := l.Table("bad"); err == nil {
				t.Error("Table() should fail")
			}
		})
	}
}

func TestIntsAcceptedInFloatColumn(t *testing.T) {
	dir := t.TempDir()
	writeTable(t, dir, "m", `[[["x", "float"]], [2]]`)

	l := New(dir, "", nil)
	v, err := l.Table("m")
	if err != nil {
		t.Fatalf("Table() error = %v", err)
	}
	if got := v.Row(0)[0]; got.Type != value.TypeFloat || got.Float != 2.0 {
		t.Errorf("cell = %v, want float 2", got)
	}
}

func TestList(t *testing.T) {
	dir := t.TempDir()
	writeTable(t, dir, "users", `[[["id", "int"]]]`)
	writeTable(t, dir, "orders", `[[["id", "int"]]]`)
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}

	l := New(dir, "", nil)
	names, err := l.List()
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if want := []string{"orders", "users"}; !reflect.DeepEqual(names, want) {
		t.Errorf("List() = %v, want %v", names, want)
	}
}
