package scan

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/roach88/exprc/internal/diag"
	"github.com/roach88/exprc/internal/expr"
	"github.com/roach88/exprc/internal/function"
	"github.com/roach88/exprc/internal/predicate"
	"github.com/roach88/exprc/internal/row"
	"github.com/roach88/exprc/internal/scalar"
)

// Prepared is a compiled statement.
type Prepared struct {
	Plan *predicate.Plan
	// Degraded is true when the WHERE clause is evaluated entirely as a
	// residual filter after an encoding mismatch.
	Degraded    bool
	Columns     []string
	Projections []scalar.Evaluator
}

// Planner compiles statements for one index schema. It needs no store, so
// it also serves dry-run compilation.
type Planner struct {
	schema   predicate.Schema
	registry function.Registry
	rows     *row.Schema
	policy   MismatchPolicy
}

// NewPlanner creates a planner. Rows are laid out in the schema's sorted
// field order.
func NewPlanner(schema predicate.Schema, registry function.Registry, policy MismatchPolicy) (*Planner, error) {
	cols := make([]row.Column, 0, len(schema.Fields))
	for _, name := range schema.FieldNames() {
		cols = append(cols, row.Column{Name: name, Type: schema.Fields[name]})
	}
	rs, err := row.NewSchema(cols...)
	if err != nil {
		return nil, fmt.Errorf("row schema for %s: %w", schema.Name, err)
	}
	return &Planner{schema: schema, registry: registry, rows: rs, policy: policy}, nil
}

// RowSchema returns the layout of rows handed to evaluators.
func (p *Planner) RowSchema() *row.Schema {
	return p.rows
}

// Prepare compiles the WHERE clause into an index plan and each select item
// into an evaluator. An empty select list selects every column.
func (p *Planner) Prepare(stmt Statement, log *zap.Logger) (*Prepared, error) {
	if log == nil {
		log = zap.NewNop()
	}
	sc := scalar.NewCompiler(p.registry, row.NewContext(p.rows), scalar.WithLogger(log))
	bound := sc.ForSession(stmt.Session)
	pc := predicate.NewCompiler(predicate.WithResidual(bound), predicate.WithLogger(log))

	out := &Prepared{}
	plan, err := pc.Compile(stmt.Where, p.schema)
	if err != nil {
		if !diag.IsTypeEncodingMismatch(err) || p.policy != MismatchResidual {
			return nil, err
		}
		log.Warn("WHERE clause cannot be encoded for the index, filtering per row", zap.Error(err))
		plan, err = pc.CompileResidual(stmt.Where, p.schema)
		if err != nil {
			return nil, err
		}
		out.Degraded = true
	}
	out.Plan = plan

	outputs := stmt.Select
	if len(outputs) == 0 {
		for _, c := range p.rows.Columns() {
			outputs = append(outputs, expr.Col(c.Name, c.Type))
		}
	}
	for i, e := range outputs {
		ev, err := bound.Compile(e)
		if err != nil {
			return nil, fmt.Errorf("select item %d: %w", i+1, err)
		}
		out.Columns = append(out.Columns, columnName(e))
		out.Projections = append(out.Projections, ev)
	}
	return out, nil
}

// columnName is the alias, the column name, or the expression text.
func columnName(e expr.Expression) string {
	switch n := e.(type) {
	case *expr.Alias:
		return n.Name
	case *expr.ColumnRef:
		return n.Name
	default:
		return e.String()
	}
}
