package value

import (
	"errors"
	"testing"
)

func TestParseType(t *testing.T) {
	tests := []struct {
		in   string
		want Type
	}{
		{"int", TypeInt},
		{"integer", TypeInt},
		{"INT", TypeInt},
		{" float ", TypeFloat},
		{"double", TypeFloat},
		{"str", TypeText},
		{"string", TypeText},
		{"text", TypeText},
		{"blob", TypeUnknown},
		{"", TypeUnknown},
	}

	for _, tt := range tests {
		if got := ParseType(tt.in); got != tt.want {
			t.Errorf("ParseType(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestValueString(t *testing.T) {
	tests := []struct {
		v    Value
		want string
	}{
		{NewInt(42), "42"},
		{NewInt(-7), "-7"},
		{NewFloat(2.5), "2.5"},
		{NewText("hello"), "hello"},
		{Null(TypeInt), "NULL"},
		{Null(TypeText), "NULL"},
	}

	for _, tt := range tests {
		if got := tt.v.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}

func TestParseOp(t *testing.T) {
	for _, s := range []string{"=", "!=", "<", "<=", ">", ">="} {
		op, err := ParseOp(s)
		if err != nil {
			t.Errorf("ParseOp(%q) error = %v", s, err)
		}
		if string(op) != s {
			t.Errorf("ParseOp(%q) = %q", s, op)
		}
	}

	if _, err := ParseOp("=="); err == nil {
		t.Error("ParseOp(\"==\") should fail")
	}
	if _, err := ParseOp("like"); err == nil {
		t.Error("ParseOp(\"like\") should fail")
	}
}

func TestComparable(t *testing.T) {
	tests := []struct {
		name    string
		left    Type
		right   Type
		op      Op
		wantErr bool
	}{
		{"int to int", TypeInt, TypeInt, OpLt, false},
		{"int to float", TypeInt, TypeFloat, OpGe, false},
		{"float to int", TypeFloat, TypeInt, OpEq, false},
		{"text equality", TypeText, TypeText, OpEq, false},
		{"text inequality", TypeText, TypeText, OpNe, false},
		{"text ordering", TypeText, TypeText, OpLt, true},
		{"text to int", TypeText, TypeInt, OpEq, true},
		{"int to text", TypeInt, TypeText, OpNe, true},
		{"unknown to int", TypeUnknown, TypeInt, OpEq, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Comparable(tt.left, tt.right, tt.op)
			if (err != nil) != tt.wantErr {
				t.Errorf("Comparable() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrTypeMismatch) {
				t.Errorf("error %v should wrap ErrTypeMismatch", err)
			}
		})
	}
}

func TestCompare(t *testing.T) {
	tests := []struct {
		name  string
		left  Value
		right Value
		op    Op
		want  bool
	}{
		{"int eq", NewInt(5), NewInt(5), OpEq, true},
		{"int ne", NewInt(5), NewInt(6), OpNe, true},
		{"int lt", NewInt(5), NewInt(6), OpLt, true},
		{"int le equal", NewInt(5), NewInt(5), OpLe, true},
		{"int gt false", NewInt(5), NewInt(6), OpGt, false},
		{"int ge", NewInt(6), NewInt(5), OpGe, true},
		{"int widens to float", NewInt(2), NewFloat(2.0), OpEq, true},
		{"float against int", NewFloat(1.5), NewInt(2), OpLt, true},
		{"text eq", NewText("a"), NewText("a"), OpEq, true},
		{"text ne", NewText("a"), NewText("b"), OpNe, true},
		{"null left", Null(TypeInt), NewInt(5), OpEq, false},
		{"null right", NewInt(5), Null(TypeInt), OpLt, false},
		{"null both", Null(TypeInt), Null(TypeInt), OpEq, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Compare(tt.left, tt.right, tt.op)
			if err != nil {
				t.Fatalf("Compare() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("Compare() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCompareTypeErrors(t *testing.T) {
	if _, err := Compare(NewText("a"), NewInt(1), OpEq); !errors.Is(err, ErrTypeMismatch) {
		t.Errorf("text vs int error = %v, want ErrTypeMismatch", err)
	}
	if _, err := Compare(NewText("a"), NewText("b"), OpLt); !errors.Is(err, ErrTypeMismatch) {
		t.Errorf("text ordering error = %v, want ErrTypeMismatch", err)
	}
	// NULL does not mask a static tag mismatch.
	if _, err := Compare(Null(TypeText), NewInt(1), OpEq); !errors.Is(err, ErrTypeMismatch) {
		t.Errorf("null text vs int error = %v, want ErrTypeMismatch", err)
	}
}
