package function

import (
	"fmt"

	"github.com/roach88/exprc/internal/expr"
	"github.com/roach88/exprc/internal/value"
)

// Builtins returns the definitions of every built-in function.
func Builtins() []Definition {
	bool1 := Types(value.Boolean)
	text1 := Types(value.TextType)
	defs := []Definition{
		{Name: expr.SymAnd, Accepts: AtLeast(1), Returns: Returns(value.Boolean), Impl: andFn},
		{Name: expr.SymOr, Accepts: AtLeast(1), Returns: Returns(value.Boolean), Impl: orFn},
		{Name: expr.SymNot, Accepts: bool1, Returns: Returns(value.Boolean), Impl: notFn},

		{Name: "add", Accepts: Numeric(2), Returns: widen, Impl: &arithmetic{name: "add", op: opAdd}},
		{Name: "subtract", Accepts: Numeric(2), Returns: widen, Impl: &arithmetic{name: "subtract", op: opSubtract}},
		{Name: "multiply", Accepts: Numeric(2), Returns: widen, Impl: &arithmetic{name: "multiply", op: opMultiply}},
		{Name: "abs", Accepts: Numeric(1), Returns: widen, Impl: absFn},

		{Name: "lower", Accepts: text1, Returns: Returns(value.TextType), Impl: lowerFn},
		{Name: "upper", Accepts: text1, Returns: Returns(value.TextType), Impl: upperFn},
		{Name: "length", Accepts: text1, Returns: Returns(value.IntegerType), Impl: lengthFn},
		{Name: "concat", Accepts: AtLeast(1), Returns: Returns(value.TextType), Impl: concatFn},
		{Name: "regexp_matches", Accepts: Types(value.TextType, value.TextType), Returns: Returns(value.Boolean), Impl: &regexpMatches{}},

		{Name: "coalesce", Accepts: AtLeast(1), Returns: firstDefined, Impl: coalesceFn},
		{Name: "current_user", Accepts: Arity(0), Returns: Returns(value.TextType), Impl: &currentUser{}},

		{Name: "sum", Accepts: Numeric(1), Returns: widen, Impl: nonScalar{Info{Name: "sum", Kind: KindAggregate}}},
		{Name: "count", Accepts: Arity(1), Returns: Returns(value.LongType), Impl: nonScalar{Info{Name: "count", Kind: KindAggregate}}},
		{Name: "unnest", Accepts: Arity(1), Returns: firstDefined, Impl: nonScalar{Info{Name: "unnest", Kind: KindTable}}},
	}
	for _, name := range []string{expr.SymEq, expr.SymNeq, expr.SymLt, expr.SymLte, expr.SymGt, expr.SymGte} {
		defs = append(defs, Definition{
			Name:    name,
			Accepts: Comparable(),
			Returns: Returns(value.Boolean),
			Impl:    comparisons[name],
		})
	}
	return defs
}

// simple is a Scalar whose specialization is itself.
type simple struct {
	name string
	eval func(args []Arg) (value.Value, error)
}

func (s *simple) Info() Info { return Info{Name: s.name, Kind: KindScalar} }

func (s *simple) Specialize([]expr.Expression, Principal) (Scalar, error) { return s, nil }

func (s *simple) Evaluate(args []Arg) (value.Value, error) { return s.eval(args) }

// nonScalar is a catalog entry that cannot be evaluated per row.
type nonScalar struct {
	info Info
}

func (n nonScalar) Info() Info { return n.info }

// strict evaluates every argument. If any is null, ok is false.
func strict(args []Arg) (vals []value.Value, ok bool, err error) {
	vals = make([]value.Value, len(args))
	for i, arg := range args {
		v, err := arg()
		if err != nil {
			return nil, false, err
		}
		if value.IsNull(v) {
			return nil, false, nil
		}
		vals[i] = v
	}
	return vals, true, nil
}

func checkArity(name string, args []Arg, n int) error {
	if len(args) != n {
		return fmt.Errorf("%s: expected %d arguments, got %d", name, n, len(args))
	}
	return nil
}

// firstDefined returns the first argument type that is not undefined.
func firstDefined(argTypes []value.DataType) value.DataType {
	for _, t := range argTypes {
		if t != value.Undefined {
			return t
		}
	}
	return value.Undefined
}
