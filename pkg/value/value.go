// Package value provides the typed cell values rows are made of and the
// comparison semantics between them.
package value

import (
	"strconv"
	"strings"
)

// Type represents a cell value type.
type Type int

const (
	TypeUnknown Type = iota
	TypeInt
	TypeFloat
	TypeText
)

// String returns the on-disk name of the type.
func (t Type) String() string {
	switch t {
	case TypeInt:
		return "int"
	case TypeFloat:
		return "float"
	case TypeText:
		return "str"
	default:
		return "unknown"
	}
}

// ParseType converts a declared column type name to a Type.
func ParseType(s string) Type {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "int", "integer":
		return TypeInt
	case "float", "double":
		return TypeFloat
	case "str", "string", "text":
		return TypeText
	default:
		return TypeUnknown
	}
}

// Numeric reports whether values of the type order as numbers.
func (t Type) Numeric() bool {
	return t == TypeInt || t == TypeFloat
}

// Value is a single typed cell. The zero Value has TypeUnknown and is not
// a valid cell; use the constructors or Null.
type Value struct {
	Type   Type
	IsNull bool
	Int    int64
	Float  float64
	Text   string
}

// NewInt creates an int value.
func NewInt(v int64) Value {
	return Value{Type: TypeInt, Int: v}
}

// NewFloat creates a float value.
func NewFloat(v float64) Value {
	return Value{Type: TypeFloat, Float: v}
}

// NewText creates a str value.
func NewText(v string) Value {
	return Value{Type: TypeText, Text: v}
}

// Null creates a NULL value of the given type.
func Null(t Type) Value {
	return Value{Type: t, IsNull: true}
}

// String returns a human-readable representation.
func (v Value) String() string {
	if v.IsNull {
		return "NULL"
	}
	switch v.Type {
	case TypeInt:
		return strconv.FormatInt(v.Int, 10)
	case TypeFloat:
		return strconv.FormatFloat(v.Float, 'g', -1, 64)
	case TypeText:
		return v.Text
	default:
		return "?"
	}
}
