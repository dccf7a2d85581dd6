package predicate

import (
	"encoding/binary"
	"fmt"
	"math"
	"sort"

	"github.com/roach88/exprc/internal/value"
)

// Schema describes the indexed fields of a table and their storage types.
type Schema struct {
	Name   string
	Fields map[string]value.DataType
}

// FieldType returns the storage type of field.
func (s Schema) FieldType(field string) (value.DataType, bool) {
	t, ok := s.Fields[field]
	return t, ok
}

// FieldNames returns the indexed field names, sorted.
func (s Schema) FieldNames() []string {
	names := make([]string, 0, len(s.Fields))
	for name := range s.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Encode converts v to the storage representation of field.
func (s Schema) Encode(field string, v value.Value) (value.Value, error) {
	t, ok := s.Fields[field]
	if !ok {
		return nil, fmt.Errorf("field %s is not indexed in %s", field, s.Name)
	}
	return value.Coerce(v, t)
}

// EncodeKey returns an order-preserving byte encoding of a non-null value:
// for two values a and b of the same type, bytes.Compare(EncodeKey(a),
// EncodeKey(b)) has the sign of value.Compare(a, b). Numeric values are
// fixed width in their own storage type.
func EncodeKey(v value.Value) ([]byte, error) {
	switch val := v.(type) {
	case value.Bool:
		if val {
			return []byte{1}, nil
		}
		return []byte{0}, nil
	case value.Integer:
		return binary.BigEndian.AppendUint32(nil, uint32(val)^(1<<31)), nil
	case value.Long:
		return binary.BigEndian.AppendUint64(nil, uint64(val)^(1<<63)), nil
	case value.Float:
		if val == 0 {
			val = 0 // -0 sorts with +0
		}
		bits := math.Float32bits(float32(val))
		if bits&(1<<31) != 0 {
			bits = ^bits
		} else {
			bits |= 1 << 31
		}
		return binary.BigEndian.AppendUint32(nil, bits), nil
	case value.Double:
		if val == 0 {
			val = 0
		}
		bits := math.Float64bits(float64(val))
		if bits&(1<<63) != 0 {
			bits = ^bits
		} else {
			bits |= 1 << 63
		}
		return binary.BigEndian.AppendUint64(nil, bits), nil
	case value.Text:
		return []byte(val), nil
	default:
		return nil, fmt.Errorf("cannot encode %s value as index key", value.TypeOf(v))
	}
}
