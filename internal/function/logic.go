package function

import (
	"fmt"

	"github.com/roach88/exprc/internal/expr"
	"github.com/roach88/exprc/internal/value"
)

// and, or and not follow SQL three-valued logic. and/or stop evaluating
// arguments as soon as the result is decided.

var andFn = &simple{name: expr.SymAnd, eval: func(args []Arg) (value.Value, error) {
	sawNull := false
	for _, arg := range args {
		v, err := arg()
		if err != nil {
			return nil, err
		}
		b, isNull, err := asBool(expr.SymAnd, v)
		if err != nil {
			return nil, err
		}
		if isNull {
			sawNull = true
			continue
		}
		if !b {
			return value.Bool(false), nil
		}
	}
	if sawNull {
		return value.Null{}, nil
	}
	return value.Bool(true), nil
}}

var orFn = &simple{name: expr.SymOr, eval: func(args []Arg) (value.Value, error) {
	sawNull := false
	for _, arg := range args {
		v, err := arg()
		if err != nil {
			return nil, err
		}
		b, isNull, err := asBool(expr.SymOr, v)
		if err != nil {
			return nil, err
		}
		if isNull {
			sawNull = true
			continue
		}
		if b {
			return value.Bool(true), nil
		}
	}
	if sawNull {
		return value.Null{}, nil
	}
	return value.Bool(false), nil
}}

var notFn = &simple{name: expr.SymNot, eval: func(args []Arg) (value.Value, error) {
	if err := checkArity(expr.SymNot, args, 1); err != nil {
		return nil, err
	}
	v, err := args[0]()
	if err != nil {
		return nil, err
	}
	b, isNull, err := asBool(expr.SymNot, v)
	if err != nil || isNull {
		return value.Null{}, err
	}
	return value.Bool(!b), nil
}}

func asBool(name string, v value.Value) (b, isNull bool, err error) {
	if value.IsNull(v) {
		return false, true, nil
	}
	bv, ok := v.(value.Bool)
	if !ok {
		return false, false, fmt.Errorf("%s: expected boolean, got %s", name, value.TypeOf(v))
	}
	return bool(bv), false, nil
}

// comparisons are strict: a null operand yields null.
var comparisons = map[string]*simple{
	expr.SymEq:  comparison(expr.SymEq, func(c int) bool { return c == 0 }),
	expr.SymNeq: comparison(expr.SymNeq, func(c int) bool { return c != 0 }),
	expr.SymLt:  comparison(expr.SymLt, func(c int) bool { return c < 0 }),
	expr.SymLte: comparison(expr.SymLte, func(c int) bool { return c <= 0 }),
	expr.SymGt:  comparison(expr.SymGt, func(c int) bool { return c > 0 }),
	expr.SymGte: comparison(expr.SymGte, func(c int) bool { return c >= 0 }),
}

func comparison(name string, test func(int) bool) *simple {
	return &simple{name: name, eval: func(args []Arg) (value.Value, error) {
		if err := checkArity(name, args, 2); err != nil {
			return nil, err
		}
		vals, ok, err := strict(args)
		if err != nil || !ok {
			return value.Null{}, err
		}
		c, err := value.Compare(vals[0], vals[1])
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		return value.Bool(test(c)), nil
	}}
}
