package engine

import (
	"io"

	"github.com/alizain/squid-sql/pkg/table"
	"github.com/alizain/squid-sql/pkg/value"
)

// rowStream is the pull contract every pipeline stage implements: Next
// returns the next row or io.EOF once exhausted, Rewind restarts from the
// first row. Stages never buffer more than the row in flight; the cross
// stage additionally holds its current left row.
type rowStream interface {
	Next() ([]value.Value, error)
	Rewind() error
}

// viewStream yields a view's rows in order.
type viewStream struct {
	view *table.View
	pos  int
}

func (s *viewStream) Next() ([]value.Value, error) {
	if s.pos >= s.view.NumRows() {
		return nil, io.EOF
	}
	row := s.view.Row(s.pos)
	s.pos++
	return row, nil
}

func (s *viewStream) Rewind() error {
	s.pos = 0
	return nil
}

// filterStream yields the upstream rows a compiled predicate keeps.
type filterStream struct {
	src  rowStream
	keep keepFunc
}

func (s *filterStream) Next() ([]value.Value, error) {
	for {
		row, err := s.src.Next()
		if err != nil {
			return nil, err
		}
		ok, err := s.keep(row)
		if err != nil {
			return nil, err
		}
		if ok {
			return row, nil
		}
	}
}

func (s *filterStream) Rewind() error {
	return s.src.Rewind()
}

// crossStream yields the Cartesian product of two streams. The left side
// varies slower: each left row pairs with the full right stream before the
// next left row is pulled, so only the current left row is held.
type crossStream struct {
	left  rowStream
	right rowStream
	cur   []value.Value
}

func (s *crossStream) Next() ([]value.Value, error) {
	for {
		if s.cur == nil {
			row, err := s.left.Next()
			if err != nil {
				return nil, err
			}
			s.cur = row
		}
		row, err := s.right.Next()
		if err == io.EOF {
			s.cur = nil
			if err := s.right.Rewind(); err != nil {
				return nil, err
			}
			continue
		}
		if err != nil {
			return nil, err
		}
		out := make([]value.Value, 0, len(s.cur)+len(row))
		out = append(out, s.cur...)
		out = append(out, row...)
		return out, nil
	}
}

func (s *crossStream) Rewind() error {
	if err := s.left.Rewind(); err != nil {
		return err
	}
	if err := s.right.Rewind(); err != nil {
		return err
	}
	s.cur = nil
	return nil
}

// projectStream extracts the resolved output columns from upstream rows.
type projectStream struct {
	src     rowStream
	indices []int
}

func (s *projectStream) Next() ([]value.Value, error) {
	row, err := s.src.Next()
	if err != nil {
		return nil, err
	}
	out := make([]value.Value, len(s.indices))
	for j, idx := range s.indices {
		out[j] = row[idx]
	}
	return out, nil
}

func (s *projectStream) Rewind() error {
	return s.src.Rewind()
}

// limitStream cuts the stream off after limit rows. Once satisfied it
// returns io.EOF without pulling upstream, so a reached limit stops all
// upstream work.
type limitStream struct {
	src   rowStream
	limit int
	seen  int
}

func (s *limitStream) Next() ([]value.Value, error) {
	if s.seen >= s.limit {
		return nil, io.EOF
	}
	row, err := s.src.Next()
	if err != nil {
		return nil, err
	}
	s.seen++
	return row, nil
}

func (s *limitStream) Rewind() error {
	s.seen = 0
	return s.src.Rewind()
}
