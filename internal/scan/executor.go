package scan

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/roach88/exprc/internal/expr"
	"github.com/roach88/exprc/internal/function"
	"github.com/roach88/exprc/internal/predicate"
	"github.com/roach88/exprc/internal/row"
	"github.com/roach88/exprc/internal/scalar"
	"github.com/roach88/exprc/internal/store"
	"github.com/roach88/exprc/internal/value"
)

// MismatchPolicy decides what happens when a WHERE literal cannot be
// encoded for the index.
type MismatchPolicy string

const (
	// MismatchFail aborts the statement.
	MismatchFail MismatchPolicy = "fail"
	// MismatchResidual evaluates the whole WHERE clause per row instead.
	MismatchResidual MismatchPolicy = "residual"
)

// Config tunes execution.
type Config struct {
	Workers    int
	BatchSize  int
	OnMismatch MismatchPolicy
}

// DefaultConfig returns the default execution settings.
func DefaultConfig() Config {
	return Config{Workers: 4, BatchSize: 256, OnMismatch: MismatchFail}
}

// Statement is a filtered projection over one index.
type Statement struct {
	// Where filters rows. nil selects every row.
	Where expr.Expression
	// Select lists the output expressions. Empty selects every column.
	Select []expr.Expression
	// Session identifies the user the statement runs as.
	Session scalar.Session
}

// Row is one output row.
type Row struct {
	ID     int64
	Values []value.Value
}

// Result is the outcome of a statement.
type Result struct {
	StatementID string
	Columns     []string
	Rows        []Row
	Plan        *predicate.Plan
	// Degraded is true when the WHERE clause was evaluated as a residual
	// filter after an encoding mismatch.
	Degraded bool
	// Candidates is the number of ids the index returned.
	Candidates int
}

// Option configures an Executor.
type Option func(*Executor)

// WithConfig sets the execution settings.
func WithConfig(cfg Config) Option {
	return func(e *Executor) {
		e.cfg = cfg
	}
}

// WithLogger sets the executor's logger.
func WithLogger(logger *zap.Logger) Option {
	return func(e *Executor) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithIDGenerator sets the statement id generator.
func WithIDGenerator(ids IDGenerator) Option {
	return func(e *Executor) {
		e.ids = ids
	}
}

// Executor runs statements against one index.
type Executor struct {
	index   *store.Index
	planner *Planner
	cfg     Config
	ids     IDGenerator
	logger  *zap.Logger
}

// NewExecutor creates an executor. Rows are laid out in the index's sorted
// field order.
func NewExecutor(index *store.Index, registry function.Registry, opts ...Option) (*Executor, error) {
	e := &Executor{
		index:  index,
		cfg:    DefaultConfig(),
		ids:    UUIDv7Generator{},
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.cfg.Workers < 1 {
		e.cfg.Workers = 1
	}
	if e.cfg.BatchSize < 1 {
		e.cfg.BatchSize = DefaultConfig().BatchSize
	}

	planner, err := NewPlanner(index.Schema(), registry, e.cfg.OnMismatch)
	if err != nil {
		return nil, err
	}
	e.planner = planner
	return e, nil
}

// RowSchema returns the layout of rows handed to evaluators.
func (e *Executor) RowSchema() *row.Schema {
	return e.planner.RowSchema()
}

// Prepare compiles a statement without running it.
func (e *Executor) Prepare(stmt Statement) (*Prepared, error) {
	return e.planner.Prepare(stmt, e.logger)
}

// Execute runs a statement.
func (e *Executor) Execute(ctx context.Context, stmt Statement) (*Result, error) {
	id := e.ids.Generate()
	log := e.logger.With(zap.String("statement_id", id), zap.String("index", e.index.Schema().Name))
	start := time.Now()
	log.Info("Statement started")

	p, err := e.planner.Prepare(stmt, log)
	if err != nil {
		log.Info("Statement failed", zap.Error(err))
		return nil, err
	}

	ids, err := e.index.Search(ctx, p.Plan.Query)
	if err != nil {
		log.Info("Statement failed", zap.Error(err))
		return nil, fmt.Errorf("statement %s: %w", id, err)
	}

	rows, err := e.evaluate(ctx, ids, p)
	if err != nil {
		log.Info("Statement failed", zap.Error(err))
		return nil, fmt.Errorf("statement %s: %w", id, err)
	}

	log.Info("Statement finished",
		zap.Int("candidates", len(ids)),
		zap.Int("rows", len(rows)),
		zap.Bool("degraded", p.Degraded),
		zap.Duration("elapsed", time.Since(start)))

	return &Result{
		StatementID: id,
		Columns:     p.Columns,
		Rows:        rows,
		Plan:        p.Plan,
		Degraded:    p.Degraded,
		Candidates:  len(ids),
	}, nil
}

// evaluate fetches candidates in batches and filters and projects each
// batch on a worker. Batch results are concatenated in id order.
func (e *Executor) evaluate(ctx context.Context, ids []int64, p *Prepared) ([]Row, error) {
	var batches [][]int64
	for start := 0; start < len(ids); start += e.cfg.BatchSize {
		batches = append(batches, ids[start:min(start+e.cfg.BatchSize, len(ids))])
	}
	results := make([][]Row, len(batches))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.cfg.Workers)
	for i, batch := range batches {
		g.Go(func() error {
			out, err := e.evaluateBatch(gctx, batch, p)
			if err != nil {
				return err
			}
			results[i] = out
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var rows []Row
	for _, r := range results {
		rows = append(rows, r...)
	}
	return rows, nil
}

func (e *Executor) evaluateBatch(ctx context.Context, ids []int64, p *Prepared) ([]Row, error) {
	docs, err := e.index.Fetch(ctx, ids)
	if err != nil {
		return nil, err
	}
	var out []Row
	for _, doc := range docs {
		r, err := e.planner.rows.Row(doc.Values)
		if err != nil {
			return nil, fmt.Errorf("document %d: %w", doc.ID, err)
		}
		ok, err := p.Plan.Matches(r)
		if err != nil {
			return nil, fmt.Errorf("document %d: filter: %w", doc.ID, err)
		}
		if !ok {
			continue
		}
		values := make([]value.Value, len(p.Projections))
		for i, proj := range p.Projections {
			v, err := proj.Evaluate(r)
			if err != nil {
				return nil, fmt.Errorf("document %d: column %s: %w", doc.ID, p.Columns[i], err)
			}
			values[i] = v
		}
		out = append(out, Row{ID: doc.ID, Values: values})
	}
	return out, nil
}
