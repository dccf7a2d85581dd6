package value

import "strings"

// DataType names a declared value or storage type.
type DataType string

const (
	Undefined   DataType = "undefined"
	Boolean     DataType = "boolean"
	IntegerType DataType = "integer"
	LongType    DataType = "long"
	FloatType   DataType = "float"
	DoubleType  DataType = "double"
	TextType    DataType = "text"
)

// typeAliases maps accepted spellings to the canonical DataType.
var typeAliases = map[string]DataType{
	"undefined": Undefined,
	"null":      Undefined,
	"boolean":   Boolean,
	"bool":      Boolean,
	"integer":   IntegerType,
	"int":       IntegerType,
	"int4":      IntegerType,
	"long":      LongType,
	"bigint":    LongType,
	"int8":      LongType,
	"float":     FloatType,
	"real":      FloatType,
	"float4":    FloatType,
	"double":    DoubleType,
	"float8":    DoubleType,
	"text":      TextType,
	"string":    TextType,
	"varchar":   TextType,
	"keyword":   TextType,
}

// ParseDataType returns the canonical DataType for a type name or alias.
func ParseDataType(name string) (DataType, bool) {
	t, ok := typeAliases[strings.ToLower(strings.TrimSpace(name))]
	return t, ok
}

// IsNumeric reports whether t is one of the four numeric types.
func (t DataType) IsNumeric() bool {
	switch t {
	case IntegerType, LongType, FloatType, DoubleType:
		return true
	}
	return false
}

// IsIntegral reports whether t is integer or long.
func (t DataType) IsIntegral() bool {
	return t == IntegerType || t == LongType
}

// IsStorable reports whether t can be declared as an index field type.
func (t DataType) IsStorable() bool {
	switch t {
	case Boolean, IntegerType, LongType, FloatType, DoubleType, TextType:
		return true
	}
	return false
}

// Comparable reports whether values of a and b can be ordered against each other.
// Undefined is comparable with everything (it only ever holds null).
func Comparable(a, b DataType) bool {
	if a == Undefined || b == Undefined {
		return true
	}
	if a.IsNumeric() && b.IsNumeric() {
		return true
	}
	return a == b
}

func (t DataType) String() string {
	return string(t)
}
