package function

import (
	"errors"
	"fmt"
	"math"

	"github.com/roach88/exprc/internal/expr"
	"github.com/roach88/exprc/internal/value"
)

var errOverflow = errors.New("numeric overflow")

type arithOp int

const (
	opAdd arithOp = iota
	opSubtract
	opMultiply
)

// arithmetic implements add, subtract and multiply. Specialization fixes the
// result type from the argument types; integral results are overflow checked.
type arithmetic struct {
	name   string
	op     arithOp
	result value.DataType
}

func (a *arithmetic) Info() Info { return Info{Name: a.name, Kind: KindScalar} }

func (a *arithmetic) Specialize(args []expr.Expression, _ Principal) (Scalar, error) {
	return &arithmetic{name: a.name, op: a.op, result: widen(argTypes(args))}, nil
}

func (a *arithmetic) Evaluate(args []Arg) (value.Value, error) {
	if err := checkArity(a.name, args, 2); err != nil {
		return nil, err
	}
	vals, ok, err := strict(args)
	if err != nil || !ok {
		return value.Null{}, err
	}
	result := a.result
	if result == value.Undefined {
		result = widen([]value.DataType{value.TypeOf(vals[0]), value.TypeOf(vals[1])})
	}

	if result.IsIntegral() {
		x, xok := value.AsInt64(vals[0])
		y, yok := value.AsInt64(vals[1])
		if !xok || !yok {
			return nil, fmt.Errorf("%s: expected integral arguments, got %s and %s",
				a.name, value.TypeOf(vals[0]), value.TypeOf(vals[1]))
		}
		n, err := a.applyInt(x, y)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", a.name, err)
		}
		out, err := value.Coerce(value.Long(n), result)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", a.name, errOverflow)
		}
		return out, nil
	}

	x, xok := value.AsFloat64(vals[0])
	y, yok := value.AsFloat64(vals[1])
	if !xok || !yok {
		return nil, fmt.Errorf("%s: expected numeric arguments, got %s and %s",
			a.name, value.TypeOf(vals[0]), value.TypeOf(vals[1]))
	}
	out, err := value.Coerce(value.Double(a.applyFloat(x, y)), result)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", a.name, err)
	}
	return out, nil
}

func (a *arithmetic) applyInt(x, y int64) (int64, error) {
	switch a.op {
	case opAdd:
		s := x + y
		if (x > 0 && y > 0 && s < 0) || (x < 0 && y < 0 && s >= 0) {
			return 0, errOverflow
		}
		return s, nil
	case opSubtract:
		d := x - y
		if (x >= 0 && y < 0 && d < 0) || (x < 0 && y > 0 && d >= 0) {
			return 0, errOverflow
		}
		return d, nil
	default:
		if x == 0 || y == 0 {
			return 0, nil
		}
		p := x * y
		if p/y != x || (x == -1 && y == math.MinInt64) || (y == -1 && x == math.MinInt64) {
			return 0, errOverflow
		}
		return p, nil
	}
}

func (a *arithmetic) applyFloat(x, y float64) float64 {
	switch a.op {
	case opAdd:
		return x + y
	case opSubtract:
		return x - y
	default:
		return x * y
	}
}

var absFn = &simple{name: "abs", eval: func(args []Arg) (value.Value, error) {
	if err := checkArity("abs", args, 1); err != nil {
		return nil, err
	}
	vals, ok, err := strict(args)
	if err != nil || !ok {
		return value.Null{}, err
	}
	switch v := vals[0].(type) {
	case value.Integer:
		if v == math.MinInt32 {
			return nil, fmt.Errorf("abs: %w", errOverflow)
		}
		if v < 0 {
			return -v, nil
		}
		return v, nil
	case value.Long:
		if v == math.MinInt64 {
			return nil, fmt.Errorf("abs: %w", errOverflow)
		}
		if v < 0 {
			return -v, nil
		}
		return v, nil
	case value.Float:
		return value.Float(math.Abs(float64(v))), nil
	case value.Double:
		return value.Double(math.Abs(float64(v))), nil
	default:
		return nil, fmt.Errorf("abs: expected numeric, got %s", value.TypeOf(v))
	}
}}

// widen returns the numeric type able to hold a result computed from
// operands of the given types. Undefined operands are ignored.
func widen(types []value.DataType) value.DataType {
	result := value.Undefined
	for _, t := range types {
		switch {
		case t == value.Undefined:
		case result == value.Undefined:
			result = t
		case t == value.DoubleType || result == value.DoubleType:
			result = value.DoubleType
		case t == value.FloatType || result == value.FloatType:
			if t.IsIntegral() || result.IsIntegral() {
				result = value.DoubleType
			} else {
				result = value.FloatType
			}
		case t == value.LongType || result == value.LongType:
			result = value.LongType
		}
	}
	return result
}

func argTypes(args []expr.Expression) []value.DataType {
	types := make([]value.DataType, len(args))
	for i, a := range args {
		types[i] = a.ValueType()
	}
	return types
}
