package value

import (
	"fmt"
	"math"
	"strconv"
)

// Value is a sealed interface representing a typed scalar value.
// Only Null, Bool, Integer, Long, Float, Double and Text implement it.
type Value interface {
	value() // Sealed - only these types implement it
}

// Null is the absent value. It is typed only by the expression that holds it.
type Null struct{}

func (Null) value() {}

// Bool is a boolean value.
type Bool bool

func (Bool) value() {}

// Integer is a 32-bit signed integer value.
type Integer int32

func (Integer) value() {}

// Long is a 64-bit signed integer value.
type Long int64

func (Long) value() {}

// Float is a 32-bit IEEE 754 value.
type Float float32

func (Float) value() {}

// Double is a 64-bit IEEE 754 value.
type Double float64

func (Double) value() {}

// Text is a UTF-8 string value.
type Text string

func (Text) value() {}

// IsNull reports whether v is absent. A Go nil is treated as Null.
func IsNull(v Value) bool {
	if v == nil {
		return true
	}
	_, ok := v.(Null)
	return ok
}

// TypeOf returns the natural data type of a value.
func TypeOf(v Value) DataType {
	switch v.(type) {
	case Bool:
		return Boolean
	case Integer:
		return IntegerType
	case Long:
		return LongType
	case Float:
		return FloatType
	case Double:
		return DoubleType
	case Text:
		return TextType
	default:
		return Undefined
	}
}

// Format renders a value the way diagnostics and tree renderings print it.
// Null renders as "null"; text renders unquoted.
func Format(v Value) string {
	switch val := v.(type) {
	case nil, Null:
		return "null"
	case Bool:
		return strconv.FormatBool(bool(val))
	case Integer:
		return strconv.FormatInt(int64(val), 10)
	case Long:
		return strconv.FormatInt(int64(val), 10)
	case Float:
		return strconv.FormatFloat(float64(val), 'g', -1, 32)
	case Double:
		return strconv.FormatFloat(float64(val), 'g', -1, 64)
	case Text:
		return string(val)
	default:
		return fmt.Sprintf("%v", v)
	}
}

// FromAny converts a decoded Go value (JSON, YAML or database/sql) into a Value.
// Integral numbers become Long, fractional numbers become Double.
func FromAny(v any) (Value, error) {
	switch val := v.(type) {
	case nil:
		return Null{}, nil
	case Value:
		return val, nil
	case bool:
		return Bool(val), nil
	case int:
		return Long(val), nil
	case int32:
		return Integer(val), nil
	case int64:
		return Long(val), nil
	case uint64:
		if val > math.MaxInt64 {
			return nil, fmt.Errorf("number out of long range: %d", val)
		}
		return Long(val), nil
	case float32:
		return Float(val), nil
	case float64:
		return Double(val), nil
	case string:
		return Text(val), nil
	case []byte:
		return Text(val), nil
	default:
		return nil, fmt.Errorf("unsupported value type: %T", v)
	}
}

// ToAny converts a Value into the Go representation used for SQL parameters.
// Null becomes nil.
func ToAny(v Value) any {
	switch val := v.(type) {
	case Bool:
		return bool(val)
	case Integer:
		return int64(val)
	case Long:
		return int64(val)
	case Float:
		return float64(val)
	case Double:
		return float64(val)
	case Text:
		return string(val)
	default:
		return nil
	}
}
