package engine

import (
	"io"
	"testing"

	"github.com/alizain/squid-sql/pkg/table"
	"github.com/alizain/squid-sql/pkg/value"
)

// countingStream instruments a source with a pull counter, so tests can
// observe how many rows a pipeline actually read.
type countingStream struct {
	src   rowStream
	pulls int
}

func (s *countingStream) Next() ([]value.Value, error) {
	s.pulls++
	return s.src.Next()
}

func (s *countingStream) Rewind() error {
	return s.src.Rewind()
}

func drain(t *testing.T, s rowStream) [][]value.Value {
	t.Helper()
	var rows [][]value.Value
	for {
		row, err := s.Next()
		if err == io.EOF {
			return rows
		}
		if err != nil {
			t.Fatalf("Next() error = %v", err)
		}
		rows = append(rows, row)
	}
}

func intView(t *testing.T, name string, vals ...int64) *table.View {
	t.Helper()
	rows := make([][]value.Value, len(vals))
	for i, v := range vals {
		rows[i] = []value.Value{value.NewInt(v)}
	}
	return mustView(t, name, []table.Column{{Name: "n", Type: value.TypeInt}}, rows)
}

func TestCrossStreamOrder(t *testing.T) {
	left := intView(t, "l", 1, 2)
	right := intView(t, "r", 10, 20, 30)

	cross := &crossStream{left: &viewStream{view: left}, right: &viewStream{view: right}}
	rows := drain(t, cross)

	if len(rows) != 6 {
		t.Fatalf("rows = %d, want 6", len(rows))
	}
	wantLeft := []int64{1, 1, 1, 2, 2, 2}
	wantRight := []int64{10, 20, 30, 10, 20, 30}
	for i, row := range rows {
		if row[0].Int != wantLeft[i] || row[1].Int != wantRight[i] {
			t.Errorf("row %d = %v", i, row)
		}
	}
}

func TestCrossStreamEmptySides(t *testing.T) {
	full := intView(t, "full", 1, 2)
	empty := intView(t, "empty")

	cross := &crossStream{left: &viewStream{view: full}, right: &viewStream{view: empty}}
	if rows := drain(t, cross); len(rows) != 0 {
		t.Errorf("empty right product = %d rows", len(rows))
	}

	cross = &crossStream{left: &viewStream{view: empty}, right: &viewStream{view: full}}
	if rows := drain(t, cross); len(rows) != 0 {
		t.Errorf("empty left product = %d rows", len(rows))
	}
}

func TestCrossStreamRewind(t *testing.T) {
	cross := &crossStream{
		left:  &viewStream{view: intView(t, "l", 1, 2)},
		right: &viewStream{view: intView(t, "r", 10, 20)},
	}

	first := drain(t, cross)
	if err := cross.Rewind(); err != nil {
		t.Fatalf("Rewind() error = %v", err)
	}
	second := drain(t, cross)

	if len(first) != 4 || len(second) != 4 {
		t.Errorf("passes = %d and %d rows, want 4 and 4", len(first), len(second))
	}
}

func TestLimitShortCircuit(t *testing.T) {
	countFull := func(limit *int) (leftPulls, rightPulls, rows int) {
		left := &countingStream{src: &viewStream{view: intView(t, "l", 1, 2, 3)}}
		right := &countingStream{src: &viewStream{view: intView(t, "r", 10, 20, 30)}}
		var s rowStream = &crossStream{left: left, right: right}
		if limit != nil {
			s = &limitStream{src: s, limit: *limit}
		}
		out := drain(t, s)
		return left.pulls, right.pulls, len(out)
	}

	fullLeft, fullRight, fullRows := countFull(nil)
	if fullRows != 9 {
		t.Fatalf("full product = %d rows, want 9", fullRows)
	}

	limit := 2
	ltdLeft, ltdRight, ltdRows := countFull(&limit)
	if ltdRows != 2 {
		t.Fatalf("limited rows = %d, want 2", ltdRows)
	}

	// A satisfied limit must stop upstream reads, not truncate afterwards.
	if ltdLeft >= fullLeft {
		t.Errorf("left pulls with limit = %d, full = %d, want fewer", ltdLeft, fullLeft)
	}
	if ltdRight >= fullRight {
		t.Errorf("right pulls with limit = %d, full = %d, want fewer", ltdRight, fullRight)
	}

	// limit 0 reads nothing at all.
	limit = 0
	zeroLeft, zeroRight, zeroRows := countFull(&limit)
	if zeroRows != 0 || zeroLeft != 0 || zeroRight != 0 {
		t.Errorf("limit 0 pulled (%d, %d) and yielded %d rows, want no work", zeroLeft, zeroRight, zeroRows)
	}
}

func TestFilterStream(t *testing.T) {
	src := &viewStream{view: intView(t, "t", 1, 2, 3, 4)}
	f := &filterStream{src: src, keep: func(row []value.Value) (bool, error) {
		return row[0].Int%2 == 0, nil
	}}

	rows := drain(t, f)
	if len(rows) != 2 || rows[0][0].Int != 2 || rows[1][0].Int != 4 {
		t.Errorf("filtered rows = %v", rows)
	}

	if err := f.Rewind(); err != nil {
		t.Fatalf("Rewind() error = %v", err)
	}
	if again := drain(t, f); len(again) != 2 {
		t.Errorf("rows after rewind = %d, want 2", len(again))
	}
}
