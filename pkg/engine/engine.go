// Package engine executes query plans. It loads and aliases source tables,
// classifies where predicates so single-source parts filter before the
// merge, folds the filtered sources into one Cartesian stream, applies the
// residual predicate and projects the requested columns, all behind a
// pull-based cursor, so a limit stops upstream work early.
package engine

import (
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/alizain/squid-sql/pkg/plan"
	"github.com/alizain/squid-sql/pkg/table"
	"github.com/alizain/squid-sql/pkg/value"
)

// Catalog supplies source tables by name.
type Catalog interface {
	Table(name string) (*table.View, error)
}

// Executor runs query plans against a catalog.
type Executor struct {
	catalog Catalog
	log     *zap.Logger
}

// New creates an Executor. A nil logger disables logging.
func New(catalog Catalog, log *zap.Logger) *Executor {
	if log == nil {
		log = zap.NewNop()
	}
	return &Executor{catalog: catalog, log: log}
}

// phase names the pipeline stages, in pull order.
type phase int

const (
	phaseInit phase = iota
	phaseLoadingSources
	phaseFilteringSources
	phaseMerging
	phaseFilteringMerged
	phaseProjecting
	phaseDone
)

func (p phase) String() string {
	switch p {
	case phaseInit:
		return "init"
	case phaseLoadingSources:
		return "loading_sources"
	case phaseFilteringSources:
		return "filtering_sources"
	case phaseMerging:
		return "merging"
	case phaseFilteringMerged:
		return "filtering_merged"
	case phaseProjecting:
		return "projecting"
	case phaseDone:
		return "done"
	default:
		return "unknown"
	}
}

func (e *Executor) phase(p phase) {
	e.log.Debug("pipeline phase", zap.Stringer("phase", p))
}

// compiled holds everything resolved before the first row flows: loaded
// views, the pushdown split, compiled filters and the projection indices.
type compiled struct {
	names    []string
	views    []*table.View
	push     *pushdown
	keeps    []keepFunc // aligned with views; nil entries mean no pushed filter
	residual keepFunc
	merged   *table.Provenance
	indices  []int
	output   *table.Provenance
}

// compile performs every semantic check a plan needs: source loading and
// aliasing, predicate classification, filter binding and projection
// resolution. Any unknown table or column, ambiguity, duplicate name or
// comparison type error surfaces here; once compile returns, streaming
// raises no further semantic errors.
func (e *Executor) compile(p *plan.QueryPlan) (*compiled, error) {
	e.phase(phaseInit)
	if err := p.Validate(); err != nil {
		return nil, err
	}

	e.phase(phaseLoadingSources)
	c := &compiled{
		names: make([]string, len(p.Sources)),
		views: make([]*table.View, len(p.Sources)),
	}
	sources := make([]sourceProv, len(p.Sources))
	for i, src := range p.Sources {
		v, err := e.catalog.Table(src.Table)
		if err != nil {
			return nil, err
		}
		if src.Alias != "" {
			v = v.As(src.Alias)
		}
		c.names[i] = src.Name()
		c.views[i] = v
		sources[i] = sourceProv{name: c.names[i], prov: v.Provenance()}
	}

	e.phase(phaseFilteringSources)
	push, err := classify(p.Where, sources)
	if err != nil {
		return nil, err
	}
	c.push = push
	c.keeps = make([]keepFunc, len(c.views))
	for i, name := range c.names {
		pred := push.perSource[name]
		if pred == nil {
			continue
		}
		keep, err := bindPredicate(pred, c.views[i].Provenance())
		if err != nil {
			return nil, err
		}
		c.keeps[i] = keep
		e.log.Debug("pushed predicate",
			zap.String("source", name),
			zap.Stringer("predicate", pred))
	}

	e.phase(phaseMerging)
	c.merged = c.views[0].Provenance()
	for i := 1; i < len(c.views); i++ {
		c.merged, err = c.merged.Merge(c.views[i].Provenance())
		if err != nil {
			return nil, err
		}
	}

	e.phase(phaseFilteringMerged)
	if push.residual != nil {
		c.residual, err = bindPredicate(push.residual, c.merged)
		if err != nil {
			return nil, err
		}
		e.log.Debug("residual predicate", zap.Stringer("predicate", push.residual))
	}

	e.phase(phaseProjecting)
	c.indices, c.output, err = c.merged.Project(selections(p.Select))
	if err != nil {
		return nil, err
	}
	return c, nil
}

// Stream compiles a plan and returns its lazy result cursor. All semantic
// errors are raised here; the returned Rows only pulls.
func (e *Executor) Stream(p *plan.QueryPlan) (*Rows, error) {
	c, err := e.compile(p)
	if err != nil {
		return nil, err
	}

	merged := sourceStream(c.views[0], c.keeps[0])
	for i := 1; i < len(c.views); i++ {
		merged = &crossStream{left: merged, right: sourceStream(c.views[i], c.keeps[i])}
	}
	if c.residual != nil {
		merged = &filterStream{src: merged, keep: c.residual}
	}

	var stream rowStream = &projectStream{src: merged, indices: c.indices}
	if p.Limit != nil {
		stream = &limitStream{src: stream, limit: *p.Limit}
	}
	return &Rows{cols: c.output.Names(), stream: stream, exec: e}, nil
}

func sourceStream(v *table.View, keep keepFunc) rowStream {
	var s rowStream = &viewStream{view: v}
	if keep != nil {
		s = &filterStream{src: s, keep: keep}
	}
	return s
}

func selections(projs []plan.Projection) []table.Selection {
	sels := make([]table.Selection, len(projs))
	for i, pr := range projs {
		sels[i] = table.Selection{
			Qualifier: pr.Column.Table,
			Name:      pr.Column.Column,
			As:        pr.As,
			Star:      pr.Star,
		}
	}
	return sels
}

// Rows is the lazy result cursor: columns are known up front, rows are
// produced on demand. Stopping early stops all upstream work; there is
// nothing to close.
type Rows struct {
	cols   []string
	stream rowStream
	exec   *Executor
	done   bool
}

// Columns returns the output display names in projection order.
func (r *Rows) Columns() []string {
	return r.cols
}

// Next returns the next result row, or io.EOF after the last one.
func (r *Rows) Next() ([]value.Value, error) {
	if r.done {
		return nil, io.EOF
	}
	row, err := r.stream.Next()
	if err == io.EOF {
		r.done = true
		r.exec.phase(phaseDone)
		return nil, io.EOF
	}
	if err != nil {
		return nil, fmt.Errorf("row evaluation: %w", err)
	}
	return row, nil
}

// All drains the cursor.
func (r *Rows) All() ([][]value.Value, error) {
	var rows [][]value.Value
	for {
		row, err := r.Next()
		if err == io.EOF {
			return rows, nil
		}
		if err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}
}

// Result is a fully materialized query result.
type Result struct {
	Columns []string
	Rows    [][]value.Value
}

// Execute runs a plan to completion.
func (e *Executor) Execute(p *plan.QueryPlan) (*Result, error) {
	rows, err := e.Stream(p)
	if err != nil {
		return nil, err
	}
	all, err := rows.All()
	if err != nil {
		return nil, err
	}
	return &Result{Columns: rows.Columns(), Rows: all}, nil
}

// ExplainSource reports what one source contributes to a plan.
type ExplainSource struct {
	Table  string
	Alias  string
	Pushed string // pushed-down predicate, empty when none
}

// Explain reports how a plan would execute: the predicate pushed to each
// source, the residual evaluated after the merge, and the output columns.
// It runs the same compilation as Stream, so it surfaces the same errors.
type Explain struct {
	Sources  []ExplainSource
	Residual string
	Columns  []string
}

// Explain compiles a plan without streaming any rows.
func (e *Executor) Explain(p *plan.QueryPlan) (*Explain, error) {
	c, err := e.compile(p)
	if err != nil {
		return nil, err
	}

	out := &Explain{Columns: c.output.Names()}
	for i, src := range p.Sources {
		es := ExplainSource{Table: src.Table, Alias: src.Alias}
		if pred := c.push.perSource[c.names[i]]; pred != nil {
			es.Pushed = pred.String()
		}
		out.Sources = append(out.Sources, es)
	}
	if c.push.residual != nil {
		out.Residual = c.push.residual.String()
	}
	return out, nil
}
