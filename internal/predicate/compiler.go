package predicate

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/roach88/exprc/internal/diag"
	"github.com/roach88/exprc/internal/expr"
	"github.com/roach88/exprc/internal/scalar"
	"github.com/roach88/exprc/internal/value"
)

// ResidualCompiler compiles expressions that cannot be pushed into the index.
// scalar.Bound implements it.
type ResidualCompiler interface {
	Compile(e expr.Expression) (scalar.Evaluator, error)
}

// Plan is the result of compiling a WHERE clause.
type Plan struct {
	// Query selects candidate documents from the index.
	Query Node

	// Residual holds the subexpressions left out of Query, in source order.
	// A row matches only if every residual expression evaluates to true.
	Residual []expr.Expression

	filters []scalar.Evaluator
}

// HasResidual reports whether rows from the index must be filtered further.
func (p *Plan) HasResidual() bool {
	return len(p.filters) > 0
}

// Matches applies the residual filter to a candidate row.
func (p *Plan) Matches(row scalar.Row) (bool, error) {
	for _, f := range p.filters {
		ok, err := scalar.Filter(f, row)
		if err != nil || !ok {
			return false, err
		}
	}
	return true, nil
}

// Option configures a Compiler.
type Option func(*Compiler)

// WithResidual sets the compiler used for non-indexable subexpressions.
// Without one, such expressions fail compilation with UNSUPPORTED_FEATURE.
func WithResidual(rc ResidualCompiler) Option {
	return func(c *Compiler) {
		c.residual = rc
	}
}

// WithLogger sets the compiler's logger.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Compiler) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// Compiler translates boolean expressions into index predicate trees.
// It holds no per-compilation state.
type Compiler struct {
	residual ResidualCompiler
	logger   *zap.Logger
}

// NewCompiler creates a predicate compiler.
func NewCompiler(opts ...Option) *Compiler {
	c := &Compiler{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Compile translates a WHERE expression. A nil expression (no WHERE clause)
// compiles to MatchAll.
//
// Within the top-level conjunction each child is pushed down on its own; a
// child that cannot be indexed moves to the residual filter. Below a
// disjunction or negation there is no such split: if any descendant cannot
// be indexed the whole disjunction or negation moves to the residual and is
// replaced by MatchAll. A literal that cannot be encoded for its field fails
// compilation wherever it appears, and a nil or unknown node is an internal
// invariant violation.
func (c *Compiler) Compile(e expr.Expression, schema Schema) (*Plan, error) {
	v := &visitor{schema: schema}
	query := Node(MatchAll{})
	if e != nil {
		n, pushed, err := v.visit(e, true)
		if err != nil {
			return nil, err
		}
		if pushed {
			query = n
		} else {
			v.residual = append(v.residual, e)
		}
	}

	return c.finish(&Plan{Query: query, Residual: v.residual}, schema.Name)
}

// CompileResidual returns a plan that selects every document and evaluates e
// entirely as a residual filter. Callers use it to recover from a
// TYPE_ENCODING_MISMATCH.
func (c *Compiler) CompileResidual(e expr.Expression, schema Schema) (*Plan, error) {
	plan := &Plan{Query: MatchAll{}}
	if e != nil {
		plan.Residual = []expr.Expression{e}
	}
	return c.finish(plan, schema.Name)
}

// finish compiles the plan's residual expressions.
func (c *Compiler) finish(plan *Plan, table string) (*Plan, error) {
	if len(plan.Residual) == 0 {
		return plan, nil
	}
	if c.residual == nil {
		return nil, &diag.CompileError{
			Code:    diag.CodeUnsupportedFeature,
			Message: "expression cannot be evaluated by the index and no residual filter is available",
			Kind:    expr.Kind(plan.Residual[0]),
			Node:    plan.Residual[0].String(),
		}
	}
	for _, r := range plan.Residual {
		c.logger.Debug("Residual filter",
			zap.String("table", table),
			zap.String("expression", r.String()))
		f, err := c.residual.Compile(r)
		if err != nil {
			return nil, fmt.Errorf("compile residual %s: %w", r, err)
		}
		plan.filters = append(plan.filters, f)
	}
	return plan, nil
}

// visitor carries the state of one compilation.
type visitor struct {
	schema   Schema
	residual []expr.Expression
}

// visit compiles e. pushed is false when e cannot be expressed over the
// index. conjunctive is true while e is reachable from the root through
// and() only; there, non-indexable children are collected as residual.
func (v *visitor) visit(e expr.Expression, conjunctive bool) (n Node, pushed bool, err error) {
	switch e := e.(type) {
	case *expr.Alias:
		return v.visit(e.Inner, conjunctive)

	case *expr.Literal:
		if b, ok := e.Value.(value.Bool); ok && bool(b) {
			return MatchAll{}, true, nil
		}
		return nil, false, nil

	case *expr.ColumnRef:
		if e.Kind == expr.Void {
			return nil, false, nil
		}
		if t, ok := v.schema.FieldType(e.Name); ok && t == value.Boolean {
			return Term{Field: e.Name, Value: value.Bool(true)}, true, nil
		}
		return nil, false, nil

	case *expr.FunctionCall:
		return v.visitCall(e, conjunctive)

	case nil:
		return nil, false, diag.NewUnknownNodeError("nil", "<nil>")

	default:
		return nil, false, diag.NewUnknownNodeError(expr.Kind(e), e.String())
	}
}

func (v *visitor) visitCall(call *expr.FunctionCall, conjunctive bool) (Node, bool, error) {
	switch name := call.Name(); name {
	case expr.SymAnd:
		return v.visitAnd(call, conjunctive)

	case expr.SymOr:
		children, pushed, err := v.visitAll(call.Args)
		if err != nil || !pushed {
			return nil, false, err
		}
		return Disjunction{Children: children, MinimumMatches: 1}, true, nil

	case expr.SymNot:
		if len(call.Args) != 1 {
			return nil, false, nil
		}
		n, pushed, err := v.visit(call.Args[0], false)
		if err != nil || !pushed {
			return nil, false, err
		}
		return negate(n), true, nil

	case expr.SymNeq:
		n, pushed, err := v.comparison(expr.SymEq, call)
		if err != nil || !pushed {
			return nil, false, err
		}
		return negate(n), true, nil

	case expr.SymEq, expr.SymLt, expr.SymLte, expr.SymGt, expr.SymGte:
		return v.comparison(name, call)

	default:
		return nil, false, nil
	}
}

func (v *visitor) visitAnd(call *expr.FunctionCall, conjunctive bool) (Node, bool, error) {
	if !conjunctive {
		children, pushed, err := v.visitAll(call.Args)
		if err != nil || !pushed {
			return nil, false, err
		}
		return conjunction(children), true, nil
	}

	children := make([]Node, 0, len(call.Args))
	var residual []expr.Expression
	for _, arg := range call.Args {
		n, pushed, err := v.visit(arg, true)
		if err != nil {
			return nil, false, err
		}
		if !pushed {
			residual = append(residual, arg)
			continue
		}
		children = append(children, n)
	}
	v.residual = append(v.residual, residual...)
	return conjunction(children), true, nil
}

func conjunction(children []Node) Node {
	if len(children) == 0 {
		return MatchAll{}
	}
	return Conjunction{Children: children}
}

// visitAll compiles every arg below a disjunction or negation. All args are
// visited even after one fails to push down; an encoding error in any arg
// fails compilation whatever its position.
func (v *visitor) visitAll(args []expr.Expression) ([]Node, bool, error) {
	children := make([]Node, 0, len(args))
	all := true
	for _, arg := range args {
		n, pushed, err := v.visit(arg, false)
		if err != nil {
			return nil, false, err
		}
		if !pushed {
			all = false
			continue
		}
		children = append(children, n)
	}
	if !all {
		return nil, false, nil
	}
	return children, true, nil
}

// negate anchors a negation to the universe of documents.
func negate(n Node) Node {
	return Conjunction{Children: []Node{MatchAll{}, Negation{Delegate: n}}}
}

// comparison compiles name(col, lit) or name(lit, col). Operands in the
// second order are swapped and the operator mirrored.
func (v *visitor) comparison(name string, call *expr.FunctionCall) (Node, bool, error) {
	if len(call.Args) != 2 {
		return nil, false, nil
	}
	left, right := expr.Unalias(call.Args[0]), expr.Unalias(call.Args[1])

	col, colOK := left.(*expr.ColumnRef)
	lit, litOK := right.(*expr.Literal)
	if !colOK || !litOK {
		col, colOK = right.(*expr.ColumnRef)
		lit, litOK = left.(*expr.Literal)
		if !colOK || !litOK {
			return nil, false, nil
		}
		name = expr.Mirror(name)
	}

	if col.Kind == expr.Void || value.IsNull(lit.Value) {
		return nil, false, nil
	}
	if _, indexed := v.schema.FieldType(col.Name); !indexed && col.Kind == expr.Dynamic {
		return nil, false, nil
	}

	encoded, err := v.schema.Encode(col.Name, lit.Value)
	if err != nil {
		return nil, false, diag.NewMismatchError(col.Name, call.String(),
			fmt.Sprintf("cannot encode literal for field %s", col.Name), err)
	}

	switch name {
	case expr.SymEq:
		return Term{Field: col.Name, Value: encoded}, true, nil
	case expr.SymLt:
		return Range{Field: col.Name, Max: encoded}, true, nil
	case expr.SymLte:
		return Range{Field: col.Name, Max: encoded, MaxInclusive: true}, true, nil
	case expr.SymGt:
		return Range{Field: col.Name, Min: encoded}, true, nil
	case expr.SymGte:
		return Range{Field: col.Name, Min: encoded, MinInclusive: true}, true, nil
	default:
		return nil, false, nil
	}
}
