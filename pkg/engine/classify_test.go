package engine

import (
	"errors"
	"testing"

	"github.com/alizain/squid-sql/pkg/plan"
	"github.com/alizain/squid-sql/pkg/table"
	"github.com/alizain/squid-sql/pkg/value"
)

func classifySources(t *testing.T) []sourceProv {
	t.Helper()
	users := mustView(t, "users",
		[]table.Column{{Name: "id", Type: value.TypeInt}, {Name: "name", Type: value.TypeText}}, nil)
	orders := mustView(t, "orders",
		[]table.Column{{Name: "user_id", Type: value.TypeInt}, {Name: "amount", Type: value.TypeInt}, {Name: "name", Type: value.TypeText}}, nil)
	return []sourceProv{
		{name: "users", prov: users.Provenance()},
		{name: "orders", prov: orders.Provenance()},
	}
}

func litPred(qualifier, column string, op value.Op, lit value.Value) *plan.ColumnToLiteral {
	return &plan.ColumnToLiteral{Column: col(qualifier, column), Op: op, Literal: lit}
}

func TestClassify(t *testing.T) {
	sources := classifySources(t)

	tests := []struct {
		name       string
		pred       plan.Predicate
		wantPushed map[string]string
		wantRest   string
	}{
		{
			name:       "no predicate",
			pred:       nil,
			wantPushed: map[string]string{},
		},
		{
			name:       "qualified single table",
			pred:       litPred("users", "id", value.OpGt, value.NewInt(1)),
			wantPushed: map[string]string{"users": "users.id > 1"},
		},
		{
			name:       "unqualified unique name",
			pred:       litPred("", "amount", value.OpLt, value.NewInt(100)),
			wantPushed: map[string]string{"orders": "amount < 100"},
		},
		{
			name:       "unqualified shared name stays residual",
			pred:       litPred("", "name", value.OpEq, value.NewText("a")),
			wantPushed: map[string]string{},
			wantRest:   `name = "a"`,
		},
		{
			name: "column to column same source",
			pred: &plan.ColumnToColumn{
				Left: col("orders", "user_id"), Op: value.OpEq, Right: col("orders", "amount"),
			},
			wantPushed: map[string]string{"orders": "orders.user_id = orders.amount"},
		},
		{
			name: "column to column across sources",
			pred: &plan.ColumnToColumn{
				Left: col("users", "id"), Op: value.OpEq, Right: col("orders", "user_id"),
			},
			wantPushed: map[string]string{},
			wantRest:   "users.id = orders.user_id",
		},
		{
			name: "and splits",
			pred: &plan.And{
				Left: &plan.And{
					Left:  litPred("users", "id", value.OpGt, value.NewInt(1)),
					Right: litPred("orders", "amount", value.OpLt, value.NewInt(50)),
				},
				Right: &plan.ColumnToColumn{
					Left: col("users", "id"), Op: value.OpEq, Right: col("orders", "user_id"),
				},
			},
			wantPushed: map[string]string{
				"users":  "users.id > 1",
				"orders": "orders.amount < 50",
			},
			wantRest: "users.id = orders.user_id",
		},
		{
			name: "and keeps per-source order",
			pred: &plan.And{
				Left:  litPred("users", "id", value.OpGt, value.NewInt(1)),
				Right: litPred("users", "id", value.OpLt, value.NewInt(9)),
			},
			wantPushed: map[string]string{"users": "(users.id > 1 and users.id < 9)"},
		},
		{
			name: "or within one source pushes whole",
			pred: &plan.Or{
				Left:  litPred("users", "id", value.OpEq, value.NewInt(1)),
				Right: litPred("users", "name", value.OpEq, value.NewText("b")),
			},
			wantPushed: map[string]string{"users": `(users.id = 1 or users.name = "b")`},
		},
		{
			name: "or across sources stays whole and residual",
			pred: &plan.Or{
				Left:  litPred("users", "id", value.OpEq, value.NewInt(1)),
				Right: litPred("orders", "amount", value.OpGt, value.NewInt(10)),
			},
			wantPushed: map[string]string{},
			wantRest:   "(users.id = 1 or orders.amount > 10)",
		},
		{
			name:       "not follows its operand",
			pred:       &plan.Not{Inner: litPred("orders", "amount", value.OpGt, value.NewInt(10))},
			wantPushed: map[string]string{"orders": "not orders.amount > 10"},
		},
		{
			name:       "not over shared name stays residual",
			pred:       &plan.Not{Inner: litPred("", "name", value.OpEq, value.NewText("a"))},
			wantPushed: map[string]string{},
			wantRest:   `not name = "a"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := classify(tt.pred, sources)
			if err != nil {
				t.Fatalf("classify() error = %v", err)
			}

			if len(got.perSource) != len(tt.wantPushed) {
				t.Errorf("pushed to %d sources, want %d", len(got.perSource), len(tt.wantPushed))
			}
			for name, want := range tt.wantPushed {
				pred := got.perSource[name]
				if pred == nil {
					t.Errorf("nothing pushed to %s, want %q", name, want)
					continue
				}
				if pred.String() != want {
					t.Errorf("pushed to %s = %q, want %q", name, pred, want)
				}
			}

			if tt.wantRest == "" {
				if got.residual != nil {
					t.Errorf("residual = %q, want none", got.residual)
				}
			} else if got.residual == nil || got.residual.String() != tt.wantRest {
				t.Errorf("residual = %v, want %q", got.residual, tt.wantRest)
			}
		})
	}
}

func TestClassifyErrors(t *testing.T) {
	sources := classifySources(t)

	_, err := classify(litPred("ghost", "id", value.OpEq, value.NewInt(1)), sources)
	if !errors.Is(err, ErrUnknownTable) {
		t.Errorf("unknown qualifier error = %v, want ErrUnknownTable", err)
	}

	_, err = classify(litPred("", "ghost", value.OpEq, value.NewInt(1)), sources)
	if !errors.Is(err, table.ErrUnknownColumn) {
		t.Errorf("unknown column error = %v, want ErrUnknownColumn", err)
	}
}

func TestBindPredicate(t *testing.T) {
	v := mustView(t, "t",
		[]table.Column{{Name: "x", Type: value.TypeInt}, {Name: "s", Type: value.TypeText}},
		nil)
	prov := v.Provenance()

	keep, err := bindPredicate(&plan.And{
		Left:  litPred("", "x", value.OpGe, value.NewInt(2)),
		Right: &plan.Not{Inner: litPred("", "s", value.OpEq, value.NewText("skip"))},
	}, prov)
	if err != nil {
		t.Fatalf("bindPredicate() error = %v", err)
	}

	tests := []struct {
		row  []value.Value
		want bool
	}{
		{textRow(2, "keep"), true},
		{textRow(1, "keep"), false},
		{textRow(5, "skip"), false},
		{[]value.Value{value.Null(value.TypeInt), value.NewText("keep")}, false},
	}
	for i, tt := range tests {
		got, err := keep(tt.row)
		if err != nil {
			t.Fatalf("keep(row %d) error = %v", i, err)
		}
		if got != tt.want {
			t.Errorf("keep(row %d) = %v, want %v", i, got, tt.want)
		}
	}

	// A literal written on the left keeps its written order for the
	// ordering comparison: 3 < x.
	keep, err = bindPredicate(&plan.ColumnToLiteral{
		Column: col("", "x"), Op: value.OpLt, Literal: value.NewInt(3), LiteralFirst: true,
	}, prov)
	if err != nil {
		t.Fatalf("bindPredicate() error = %v", err)
	}
	if got, _ := keep(textRow(5, "")); !got {
		t.Error("3 < 5 should hold")
	}
	if got, _ := keep(textRow(2, "")); got {
		t.Error("3 < 2 should not hold")
	}
}
