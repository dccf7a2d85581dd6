package expr

import "github.com/roach88/exprc/internal/value"

// Fixed function symbols for boolean connectives and comparisons.
const (
	SymAnd = "and"
	SymOr  = "or"
	SymNot = "not"
	SymEq  = "eq"
	SymNeq = "neq"
	SymLt  = "lt"
	SymLte = "lte"
	SymGt  = "gt"
	SymGte = "gte"
)

// operators maps comparison symbols to their infix rendering.
var operators = map[string]string{
	SymEq:  "=",
	SymNeq: "!=",
	SymLt:  "<",
	SymLte: "<=",
	SymGt:  ">",
	SymGte: ">=",
}

// IsComparison reports whether name is one of the six comparison symbols.
func IsComparison(name string) bool {
	_, ok := operators[name]
	return ok
}

// IsConnective reports whether name is and, or or not.
func IsConnective(name string) bool {
	return name == SymAnd || name == SymOr || name == SymNot
}

// Mirror returns the operator that keeps a comparison's meaning when its
// operands are swapped: lt <-> gt, lte <-> gte. eq and neq mirror to
// themselves.
func Mirror(name string) string {
	switch name {
	case SymLt:
		return SymGt
	case SymGt:
		return SymLt
	case SymLte:
		return SymGte
	case SymGte:
		return SymLte
	default:
		return name
	}
}

// Lit builds a literal typed by its value's natural type.
func Lit(v value.Value) *Literal {
	return &Literal{Value: v, DataType: value.TypeOf(v)}
}

// TypedLit builds a literal with an explicit declared type.
func TypedLit(v value.Value, t value.DataType) *Literal {
	return &Literal{Value: v, DataType: t}
}

// Col builds an ordinary column reference.
func Col(name string, t value.DataType) *ColumnRef {
	return &ColumnRef{Name: name, DataType: t, Kind: Ordinary}
}

// DynamicCol builds a dynamic column reference.
func DynamicCol(name string, t value.DataType) *ColumnRef {
	return &ColumnRef{Name: name, DataType: t, Kind: Dynamic}
}

// VoidCol builds a reference to a column absent from the relation.
func VoidCol(name string) *ColumnRef {
	return &ColumnRef{Name: name, DataType: value.Undefined, Kind: Void}
}

// As wraps e in an alias.
func As(e Expression, name string) *Alias {
	return &Alias{Inner: e, Name: name}
}

// Call builds a function call whose signature's argument types are taken from
// the arguments. The argument slice is copied.
func Call(name string, returnType value.DataType, args ...Expression) *FunctionCall {
	owned := make([]Expression, len(args))
	copy(owned, args)
	argTypes := make([]value.DataType, len(args))
	for i, a := range args {
		argTypes[i] = a.ValueType()
	}
	return &FunctionCall{
		Signature: Signature{Name: name, ArgumentTypes: argTypes, ReturnType: returnType},
		Args:      owned,
	}
}

// And builds and(args...).
func And(args ...Expression) *FunctionCall { return Call(SymAnd, value.Boolean, args...) }

// Or builds or(args...).
func Or(args ...Expression) *FunctionCall { return Call(SymOr, value.Boolean, args...) }

// Not builds not(arg).
func Not(arg Expression) *FunctionCall { return Call(SymNot, value.Boolean, arg) }

// Eq builds eq(a, b).
func Eq(a, b Expression) *FunctionCall { return Call(SymEq, value.Boolean, a, b) }

// Neq builds neq(a, b).
func Neq(a, b Expression) *FunctionCall { return Call(SymNeq, value.Boolean, a, b) }

// Lt builds lt(a, b).
func Lt(a, b Expression) *FunctionCall { return Call(SymLt, value.Boolean, a, b) }

// Lte builds lte(a, b).
func Lte(a, b Expression) *FunctionCall { return Call(SymLte, value.Boolean, a, b) }

// Gt builds gt(a, b).
func Gt(a, b Expression) *FunctionCall { return Call(SymGt, value.Boolean, a, b) }

// Gte builds gte(a, b).
func Gte(a, b Expression) *FunctionCall { return Call(SymGte, value.Boolean, a, b) }
