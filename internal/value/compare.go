package value

import (
	"cmp"
	"fmt"
	"strings"
)

// Compare orders two non-null values. Numeric values of different widths are
// compared by magnitude; integral pairs are compared exactly as int64.
// Returns an error if either value is null or the types are not comparable.
func Compare(a, b Value) (int, error) {
	if IsNull(a) || IsNull(b) {
		return 0, fmt.Errorf("cannot compare null values")
	}

	switch av := a.(type) {
	case Bool:
		bv, ok := b.(Bool)
		if !ok {
			return 0, incomparable(a, b)
		}
		return compareBool(bool(av), bool(bv)), nil
	case Text:
		bv, ok := b.(Text)
		if !ok {
			return 0, incomparable(a, b)
		}
		return strings.Compare(string(av), string(bv)), nil
	}

	if !TypeOf(a).IsNumeric() || !TypeOf(b).IsNumeric() {
		return 0, incomparable(a, b)
	}
	if TypeOf(a).IsIntegral() && TypeOf(b).IsIntegral() {
		return cmp.Compare(asInt64(a), asInt64(b)), nil
	}
	return cmp.Compare(asFloat64(a), asFloat64(b)), nil
}

// Equal reports whether two values are equal under Compare semantics.
// Null is never equal to anything, including null.
func Equal(a, b Value) bool {
	c, err := Compare(a, b)
	return err == nil && c == 0
}

func compareBool(a, b bool) int {
	switch {
	case a == b:
		return 0
	case !a:
		return -1
	default:
		return 1
	}
}

func incomparable(a, b Value) error {
	return fmt.Errorf("cannot compare %s with %s", TypeOf(a), TypeOf(b))
}

// asInt64 widens an integral value. Callers must check IsIntegral first.
func asInt64(v Value) int64 {
	switch val := v.(type) {
	case Integer:
		return int64(val)
	case Long:
		return int64(val)
	}
	return 0
}

// asFloat64 widens any numeric value to float64.
func asFloat64(v Value) float64 {
	switch val := v.(type) {
	case Integer:
		return float64(val)
	case Long:
		return float64(val)
	case Float:
		return float64(val)
	case Double:
		return float64(val)
	}
	return 0
}

// AsFloat64 widens a numeric value to float64.
func AsFloat64(v Value) (float64, bool) {
	if !TypeOf(v).IsNumeric() {
		return 0, false
	}
	return asFloat64(v), true
}

// AsInt64 returns the value of an integral Value.
func AsInt64(v Value) (int64, bool) {
	if !TypeOf(v).IsIntegral() {
		return 0, false
	}
	return asInt64(v), true
}
