package expr

import (
	"fmt"
	"strings"

	"github.com/roach88/exprc/internal/value"
)

// Expression is a node of the typed expression tree.
//
// This is a sealed interface - only types in this package implement it.
type Expression interface {
	// ValueType returns the declared type of the value this node produces.
	ValueType() value.DataType

	// String returns the textual form used in diagnostics.
	String() string

	expression() // Marker method - seals interface to this package
}

// ColumnKind distinguishes how a column reference is bound at execution time.
type ColumnKind int

const (
	// Ordinary columns are declared in the relation schema.
	Ordinary ColumnKind = iota
	// Dynamic columns may appear in schema-less objects at runtime.
	Dynamic
	// Void columns are not present in the current relation. They evaluate to
	// null instead of failing the statement.
	Void
)

func (k ColumnKind) String() string {
	switch k {
	case Ordinary:
		return "ordinary"
	case Dynamic:
		return "dynamic"
	case Void:
		return "void"
	default:
		return fmt.Sprintf("ColumnKind(%d)", int(k))
	}
}

// ParseColumnKind parses "ordinary", "dynamic" or "void". Empty means ordinary.
func ParseColumnKind(s string) (ColumnKind, error) {
	switch strings.ToLower(s) {
	case "", "ordinary":
		return Ordinary, nil
	case "dynamic":
		return Dynamic, nil
	case "void":
		return Void, nil
	default:
		return Ordinary, fmt.Errorf("unknown column kind %q", s)
	}
}

// Literal is a constant value.
type Literal struct {
	Value    value.Value
	DataType value.DataType
}

func (*Literal) expression() {}

// ValueType returns the literal's declared type.
func (l *Literal) ValueType() value.DataType { return l.DataType }

// ColumnRef references a column by name.
type ColumnRef struct {
	Name     string
	DataType value.DataType
	Kind     ColumnKind
}

func (*ColumnRef) expression() {}

// ValueType returns the column's declared type.
func (c *ColumnRef) ValueType() value.DataType { return c.DataType }

// Signature identifies a resolved function: name, argument types and return
// type as decided by the analyzer.
type Signature struct {
	Name          string
	ArgumentTypes []value.DataType
	ReturnType    value.DataType
}

// String renders the signature as name(t1, t2):ret.
func (s Signature) String() string {
	return fmt.Sprintf("%s(%s):%s", s.Name, strings.Join(s.ArgumentTypeNames(), ", "), s.ReturnType)
}

// ArgumentTypeNames returns the argument types as strings.
func (s Signature) ArgumentTypeNames() []string {
	names := make([]string, len(s.ArgumentTypes))
	for i, t := range s.ArgumentTypes {
		names[i] = string(t)
	}
	return names
}

// FunctionCall applies a resolved function to ordered arguments.
type FunctionCall struct {
	Signature Signature
	Args      []Expression
}

func (*FunctionCall) expression() {}

// ValueType returns the function's resolved return type.
func (f *FunctionCall) ValueType() value.DataType { return f.Signature.ReturnType }

// Name returns the function symbol.
func (f *FunctionCall) Name() string { return f.Signature.Name }

// Alias names an inner expression. Aliasing never contributes computation.
type Alias struct {
	Inner Expression
	Name  string
}

func (*Alias) expression() {}

// ValueType returns the inner expression's type.
func (a *Alias) ValueType() value.DataType { return a.Inner.ValueType() }

// Kind returns the node kind name used in diagnostics.
func Kind(e Expression) string {
	switch e.(type) {
	case *Literal:
		return "Literal"
	case *ColumnRef:
		return "ColumnRef"
	case *FunctionCall:
		return "FunctionCall"
	case *Alias:
		return "Alias"
	case nil:
		return "nil"
	default:
		return fmt.Sprintf("%T", e)
	}
}
