package value

import (
	"fmt"
	"strings"
)

// Op is a comparison operator.
type Op string

const (
	OpEq Op = "="
	OpNe Op = "!="
	OpLt Op = "<"
	OpLe Op = "<="
	OpGt Op = ">"
	OpGe Op = ">="
)

// ParseOp converts an operator token to an Op.
func ParseOp(s string) (Op, error) {
	switch Op(strings.TrimSpace(s)) {
	case OpEq:
		return OpEq, nil
	case OpNe:
		return OpNe, nil
	case OpLt:
		return OpLt, nil
	case OpLe:
		return OpLe, nil
	case OpGt:
		return OpGt, nil
	case OpGe:
		return OpGe, nil
	default:
		return "", fmt.Errorf("unknown comparison operator %q", s)
	}
}

// ordering reports whether the operator requires an ordered type.
func (op Op) ordering() bool {
	return op != OpEq && op != OpNe
}

// Comparable checks statically whether two value types can be compared
// with the given operator. Int and float compare against each other by
// widening; text supports only equality.
func Comparable(left, right Type, op Op) error {
	if left.Numeric() && right.Numeric() {
		return nil
	}
	if left == TypeText && right == TypeText {
		if op.ordering() {
			return fmt.Errorf("%w: str supports only = and != (got %s)", ErrTypeMismatch, op)
		}
		return nil
	}
	return fmt.Errorf("%w: cannot compare %s to %s", ErrTypeMismatch, left, right)
}

// Compare evaluates left op right. Comparisons involving NULL are false.
func Compare(left, right Value, op Op) (bool, error) {
	if err := Comparable(left.Type, right.Type, op); err != nil {
		return false, err
	}
	if left.IsNull || right.IsNull {
		// NULL compared to anything is false, never an error.
		return false, nil
	}

	var cmp int // -1 = less, 0 = equal, 1 = greater

	switch {
	case left.Type == TypeInt && right.Type == TypeInt:
		if left.Int < right.Int {
			cmp = -1
		} else if left.Int > right.Int {
			cmp = 1
		}
	case left.Type.Numeric() && right.Type.Numeric():
		// Mixed int/float widens to float.
		lf, rf := left.asFloat(), right.asFloat()
		if lf < rf {
			cmp = -1
		} else if lf > rf {
			cmp = 1
		}
	case left.Type == TypeText:
		cmp = strings.Compare(left.Text, right.Text)
	}

	switch op {
	case OpEq:
		return cmp == 0, nil
	case OpNe:
		return cmp != 0, nil
	case OpLt:
		return cmp < 0, nil
	case OpLe:
		return cmp <= 0, nil
	case OpGt:
		return cmp > 0, nil
	case OpGe:
		return cmp >= 0, nil
	default:
		return false, fmt.Errorf("unknown comparison operator %q", op)
	}
}

func (v Value) asFloat() float64 {
	if v.Type == TypeInt {
		return float64(v.Int)
	}
	return v.Float
}
