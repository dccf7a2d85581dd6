package scalar

import (
	"fmt"
	"strings"

	"github.com/roach88/exprc/internal/function"
	"github.com/roach88/exprc/internal/value"
)

// Row is the per-row input to an evaluator. Its layout is owned by the
// RowContext that bound the column evaluators.
type Row interface {
	Column(slot int) (value.Value, bool)
}

// Evaluator computes a value for one row.
type Evaluator interface {
	Evaluate(row Row) (value.Value, error)
}

// Constant always yields the same value.
type Constant struct {
	Value value.Value
}

// Evaluate returns the constant value.
func (c Constant) Evaluate(Row) (value.Value, error) {
	return c.Value, nil
}

func (c Constant) String() string {
	return value.Format(c.Value)
}

// Null yields null for every row. Void column references bind to it.
var Null Evaluator = Constant{Value: value.Null{}}

// FunctionEvaluator applies a specialized scalar to its argument evaluators,
// one per argument in declaration order. Arguments are evaluated lazily by
// the function.
type FunctionEvaluator struct {
	Name     string
	Function function.Scalar
	Args     []Evaluator
}

// Evaluate computes the function for row.
func (f *FunctionEvaluator) Evaluate(row Row) (value.Value, error) {
	args := make([]function.Arg, len(f.Args))
	for i, child := range f.Args {
		args[i] = func() (value.Value, error) { return child.Evaluate(row) }
	}
	return f.Function.Evaluate(args)
}

func (f *FunctionEvaluator) String() string {
	parts := make([]string, len(f.Args))
	for i, a := range f.Args {
		parts[i] = fmt.Sprint(a)
	}
	return f.Name + "(" + strings.Join(parts, ", ") + ")"
}

// Filter evaluates a boolean evaluator as a row filter. Only true passes;
// false and null reject the row.
func Filter(ev Evaluator, row Row) (bool, error) {
	v, err := ev.Evaluate(row)
	if err != nil {
		return false, err
	}
	b, ok := v.(value.Bool)
	return ok && bool(b), nil
}
