package expr

import (
	"strings"

	"github.com/roach88/exprc/internal/value"
)

// String renders a literal. Text is single quoted, null renders as NULL.
func (l *Literal) String() string {
	switch v := l.Value.(type) {
	case nil, value.Null:
		return "NULL"
	case value.Text:
		return "'" + strings.ReplaceAll(string(v), "'", "''") + "'"
	default:
		return value.Format(v)
	}
}

// String renders the column name.
func (c *ColumnRef) String() string {
	return c.Name
}

// String renders comparisons and connectives infix, everything else as
// name(args).
func (f *FunctionCall) String() string {
	name := f.Signature.Name
	if op, ok := operators[name]; ok && len(f.Args) == 2 {
		return "(" + str(f.Args[0]) + " " + op + " " + str(f.Args[1]) + ")"
	}
	switch name {
	case SymAnd, SymOr:
		if len(f.Args) > 0 {
			sep := " " + strings.ToUpper(name) + " "
			return "(" + strings.Join(argStrings(f.Args), sep) + ")"
		}
	case SymNot:
		if len(f.Args) == 1 {
			return "(NOT " + str(f.Args[0]) + ")"
		}
	}
	return name + "(" + strings.Join(argStrings(f.Args), ", ") + ")"
}

// String renders inner AS name.
func (a *Alias) String() string {
	return str(a.Inner) + " AS " + a.Name
}

func argStrings(args []Expression) []string {
	out := make([]string, len(args))
	for i, a := range args {
		out[i] = str(a)
	}
	return out
}

// str tolerates nil children so malformed trees can still be reported.
func str(e Expression) string {
	if e == nil {
		return "<nil>"
	}
	return e.String()
}
