package harness

import (
	"context"
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"

	"github.com/roach88/exprc/internal/expr"
	"github.com/roach88/exprc/internal/function"
	"github.com/roach88/exprc/internal/predicate"
	"github.com/roach88/exprc/internal/scalar"
	"github.com/roach88/exprc/internal/scan"
	"github.com/roach88/exprc/internal/schema"
	"github.com/roach88/exprc/internal/store"
	"github.com/roach88/exprc/internal/testutil"
	"github.com/roach88/exprc/internal/value"
)

// Option configures a run.
type Option func(*Harness)

// WithLogger sets the logger passed to the executor. Runs are silent by
// default.
func WithLogger(logger *zap.Logger) Option {
	return func(h *Harness) {
		if logger != nil {
			h.logger = logger
		}
	}
}

// Harness is the scenario execution engine.
// It runs statements with deterministic statement ids.
type Harness struct {
	index    *store.Index
	exec     *scan.Executor
	decoder  *expr.Decoder
	registry *function.Catalog
	ids      *testutil.SequenceIDGenerator
	session  scalar.Session
	logger   *zap.Logger
}

// Run executes a scenario and returns the result.
//
// Each scenario runs in a fresh in-memory database for isolation.
//
// Execution flow:
// 1. Create fresh in-memory database
// 2. Load the CUE schema and create the index
// 3. Insert rows
// 4. Decode, execute and check each statement
// 5. Return result with pass/fail and errors
//
// Setup failures (bad schema, bad rows) are returned as errors; statement
// failures are recorded in the result.
func Run(scenario *Scenario, opts ...Option) (*Result, error) {
	ctx := context.Background()

	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	h := &Harness{
		registry: function.NewBuiltinCatalog(nil),
		ids:      testutil.NewSequenceIDGenerator(statementPrefix(scenario)),
		session:  sessionOf(scenario.Session),
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(h)
	}

	ix, err := h.createIndex(ctx, st, scenario)
	if err != nil {
		return nil, err
	}
	h.index = ix
	h.decoder = &expr.Decoder{Columns: ix.Schema().Fields, Functions: h.registry}

	if err := h.insertRows(ctx, scenario.Rows); err != nil {
		return nil, fmt.Errorf("failed to insert rows: %w", err)
	}

	h.exec, err = scan.NewExecutor(ix, h.registry,
		scan.WithConfig(scanConfig(scenario.Config)),
		scan.WithIDGenerator(h.ids),
		scan.WithLogger(h.logger))
	if err != nil {
		return nil, err
	}

	result := NewResult()
	for _, stmt := range scenario.Statements {
		sr := h.runStatement(ctx, stmt)
		result.Statements = append(result.Statements, sr)
		if stmt.Expect != nil {
			for _, msg := range checkExpect(&sr, stmt.Expect) {
				result.AddError(fmt.Sprintf("%s: %s", stmt.Name, msg))
			}
		}
	}
	return result, nil
}

func (h *Harness) createIndex(ctx context.Context, st *store.Store, scenario *Scenario) (*store.Index, error) {
	src, filename := scenario.Schema, scenario.Name+".cue"
	if scenario.SchemaFile != "" {
		data, err := os.ReadFile(scenario.SchemaFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read schema file: %w", err)
		}
		src, filename = string(data), scenario.SchemaFile
	}

	loaded, errs := schema.LoadString(filename, src, schema.LoadModeCollectAll)
	if len(errs) > 0 {
		msgs := make([]string, len(errs))
		for i, err := range errs {
			msgs[i] = err.Error()
		}
		return nil, fmt.Errorf("failed to load schema: %s", strings.Join(msgs, "; "))
	}
	decl, ok := loaded.Index(scenario.Index)
	if !ok {
		return nil, fmt.Errorf("index %q not declared in schema", scenario.Index)
	}
	return st.CreateIndex(ctx, decl.Schema)
}

func (h *Harness) insertRows(ctx context.Context, rows []map[string]any) error {
	for i, row := range rows {
		rawID, err := value.FromAny(row["id"])
		if err != nil {
			return fmt.Errorf("rows[%d].id: %w", i, err)
		}
		id, ok := value.AsInt64(rawID)
		if !ok {
			return fmt.Errorf("rows[%d].id: expected an integer, got %s", i, value.Format(rawID))
		}

		values := make(map[string]value.Value, len(row)-1)
		for name, raw := range row {
			if name == "id" {
				continue
			}
			v, err := value.FromAny(raw)
			if err != nil {
				return fmt.Errorf("rows[%d].%s: %w", i, name, err)
			}
			values[name] = v
		}
		if err := h.index.Insert(ctx, id, values); err != nil {
			return fmt.Errorf("rows[%d]: %w", i, err)
		}
	}
	return nil
}

// runStatement decodes and executes one statement. Errors are recorded in
// the result rather than returned.
func (h *Harness) runStatement(ctx context.Context, stmt Statement) StatementResult {
	sr := StatementResult{Name: stmt.Name}

	var decoded scan.Statement
	decoded.Session = h.session
	if stmt.Where != nil {
		where, err := h.decoder.Decode(*stmt.Where)
		if err != nil {
			sr.Error = err.Error()
			return sr
		}
		decoded.Where = where
	}
	for i, spec := range stmt.Select {
		e, err := h.decoder.Decode(spec)
		if err != nil {
			sr.Error = fmt.Sprintf("select[%d]: %v", i, err)
			return sr
		}
		decoded.Select = append(decoded.Select, e)
	}

	res, err := h.exec.Execute(ctx, decoded)
	if err != nil {
		sr.Error = err.Error()
		return sr
	}

	sr.StatementID = res.StatementID
	sr.Query = predicate.Render(res.Plan.Query)
	for _, r := range res.Plan.Residual {
		sr.Residual = append(sr.Residual, r.String())
	}
	sr.Degraded = res.Degraded
	sr.Candidates = res.Candidates
	sr.Columns = res.Columns
	for _, r := range res.Rows {
		sr.Rows = append(sr.Rows, RowResult{ID: r.ID, Values: r.Values})
	}
	return sr
}

func statementPrefix(s *Scenario) string {
	if s.StatementPrefix != "" {
		return s.StatementPrefix
	}
	return "stmt"
}

func sessionOf(spec SessionSpec) scalar.Session {
	s := scalar.Session{User: spec.User}
	for _, r := range spec.Roles {
		s.Roles = append(s.Roles, function.Role{Name: r.Name, IsUser: r.IsUser})
	}
	return s
}

func scanConfig(c *ScenarioConfig) scan.Config {
	cfg := scan.DefaultConfig()
	if c == nil {
		return cfg
	}
	if c.OnMismatch != "" {
		cfg.OnMismatch = scan.MismatchPolicy(c.OnMismatch)
	}
	if c.Workers > 0 {
		cfg.Workers = c.Workers
	}
	if c.BatchSize > 0 {
		cfg.BatchSize = c.BatchSize
	}
	return cfg
}
