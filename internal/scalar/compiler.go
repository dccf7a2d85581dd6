package scalar

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/roach88/exprc/internal/diag"
	"github.com/roach88/exprc/internal/expr"
	"github.com/roach88/exprc/internal/function"
)

// RowContext binds column references to evaluators reading the current row.
// Void references must bind to a null-yielding evaluator without failing.
type RowContext interface {
	Bind(name string, kind expr.ColumnKind) (Evaluator, error)
}

// Session carries the identity of the statement's user.
type Session struct {
	User  string
	Roles function.Roles
}

// Principal returns the identity passed to function specialization.
func (s Session) Principal() function.Principal {
	return function.Principal{User: s.User, Roles: s.Roles}
}

// Option configures a Compiler.
type Option func(*Compiler)

// WithLogger sets the compiler's logger.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Compiler) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// Compiler builds evaluator trees. It holds no per-compilation state and is
// safe for concurrent use.
type Compiler struct {
	registry function.Registry
	rows     RowContext
	logger   *zap.Logger
}

// NewCompiler creates a compiler resolving functions in registry and binding
// columns through rows.
func NewCompiler(registry function.Registry, rows RowContext, opts ...Option) *Compiler {
	c := &Compiler{
		registry: registry,
		rows:     rows,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Compile builds the evaluator for e. Errors are *diag.CompileError values,
// possibly wrapped.
func (c *Compiler) Compile(e expr.Expression, session Session) (Evaluator, error) {
	ev, err := c.compile(e, session.Principal())
	if err != nil {
		c.logger.Debug("Scalar compilation failed", zap.Error(err))
		return nil, err
	}
	return ev, nil
}

// ForSession returns a compiler bound to session. The predicate compiler uses
// it to compile residual filters.
func (c *Compiler) ForSession(session Session) *Bound {
	return &Bound{compiler: c, session: session}
}

func (c *Compiler) compile(e expr.Expression, p function.Principal) (Evaluator, error) {
	switch n := e.(type) {
	case *expr.Literal:
		if n.Value == nil {
			return Null, nil
		}
		return Constant{Value: n.Value}, nil

	case *expr.Alias:
		return c.compile(n.Inner, p)

	case *expr.ColumnRef:
		if c.rows == nil {
			if n.Kind == expr.Void {
				return Null, nil
			}
			return nil, &diag.CompileError{
				Code:    diag.CodeInternalInvariant,
				Message: "no row context to bind column",
				Kind:    "ColumnRef",
				Node:    n.String(),
			}
		}
		ev, err := c.rows.Bind(n.Name, n.Kind)
		if err != nil {
			return nil, fmt.Errorf("bind %s column %s: %w", n.Kind, n.Name, err)
		}
		return ev, nil

	case *expr.FunctionCall:
		return c.compileCall(n, p)

	case nil:
		return nil, diag.NewUnknownNodeError("nil", "<nil>")

	default:
		return nil, diag.NewUnknownNodeError(expr.Kind(e), e.String())
	}
}

func (c *Compiler) compileCall(call *expr.FunctionCall, p function.Principal) (Evaluator, error) {
	impl, ok := c.registry.Resolve(call.Signature)
	if !ok {
		return nil, diag.NewUnresolvedFunctionError(call.Signature.String(), call.String())
	}
	sc, ok := impl.(function.Scalar)
	if !ok {
		err := diag.NewNotScalarError(call.Name(), call.Signature.ArgumentTypeNames())
		err.Node = call.String()
		return nil, err
	}

	specialized, err := sc.Specialize(call.Args, p)
	if err != nil {
		return nil, fmt.Errorf("specialize %s: %w", call.Name(), err)
	}

	args := make([]Evaluator, len(call.Args))
	for i, arg := range call.Args {
		ev, err := c.compile(arg, p)
		if err != nil {
			return nil, err
		}
		args[i] = ev
	}
	return &FunctionEvaluator{Name: call.Name(), Function: specialized, Args: args}, nil
}

// Bound compiles expressions for a fixed session.
type Bound struct {
	compiler *Compiler
	session  Session
}

// Compile builds the evaluator for e.
func (b *Bound) Compile(e expr.Expression) (Evaluator, error) {
	return b.compiler.Compile(e, b.session)
}
