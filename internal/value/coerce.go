package value

import (
	"fmt"
	"math"
)

// CoercionError reports a value that cannot be represented in a target type.
type CoercionError struct {
	Value  Value
	Target DataType
	Reason string
}

func (e *CoercionError) Error() string {
	return fmt.Sprintf("cannot represent %s %s as %s: %s",
		TypeOf(e.Value), Format(e.Value), e.Target, e.Reason)
}

// Coerce converts v to the representation of target without losing its
// identity. Integral targets accept any numeric value with no fractional part
// that fits the target width. Float targets accept any finite numeric value in
// range. Text and boolean targets accept only their own type.
// Null coerces to Null for every target.
func Coerce(v Value, target DataType) (Value, error) {
	if IsNull(v) {
		return Null{}, nil
	}
	if target == Undefined || TypeOf(v) == target {
		return v, nil
	}

	switch target {
	case IntegerType:
		n, err := integral(v, target)
		if err != nil {
			return nil, err
		}
		if n < math.MinInt32 || n > math.MaxInt32 {
			return nil, &CoercionError{Value: v, Target: target, Reason: "out of range"}
		}
		return Integer(n), nil
	case LongType:
		n, err := integral(v, target)
		if err != nil {
			return nil, err
		}
		return Long(n), nil
	case FloatType:
		f, ok := AsFloat64(v)
		if !ok {
			return nil, &CoercionError{Value: v, Target: target, Reason: "not numeric"}
		}
		if math.IsNaN(f) || math.IsInf(f, 0) || math.Abs(f) > math.MaxFloat32 {
			return nil, &CoercionError{Value: v, Target: target, Reason: "out of range"}
		}
		return Float(float32(f)), nil
	case DoubleType:
		f, ok := AsFloat64(v)
		if !ok {
			return nil, &CoercionError{Value: v, Target: target, Reason: "not numeric"}
		}
		return Double(f), nil
	default:
		return nil, &CoercionError{Value: v, Target: target, Reason: "incompatible type"}
	}
}

// integral extracts an exact int64 from a numeric value.
func integral(v Value, target DataType) (int64, error) {
	if n, ok := AsInt64(v); ok {
		return n, nil
	}
	f, ok := AsFloat64(v)
	if !ok {
		return 0, &CoercionError{Value: v, Target: target, Reason: "not numeric"}
	}
	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return 0, &CoercionError{Value: v, Target: target, Reason: "has a fractional part"}
	}
	if f < math.MinInt64 || f >= math.MaxInt64 {
		return 0, &CoercionError{Value: v, Target: target, Reason: "out of range"}
	}
	return int64(f), nil
}
