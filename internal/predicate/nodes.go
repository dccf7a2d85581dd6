package predicate

import (
	"strconv"
	"strings"

	"github.com/roach88/exprc/internal/value"
)

// Node is an index predicate.
//
// This is a sealed interface - only types in this package implement it.
// Nodes are immutable values; trees may be shared read-only across
// goroutines.
type Node interface {
	// String returns a compact single-line form, e.g. (+x:1 +(-y:2)).
	String() string

	predicateNode() // Marker method - seals interface to this package
}

// MatchAll matches every document in the index.
//
// Semantics:
//
//	*:*
type MatchAll struct{}

func (MatchAll) predicateNode() {}

func (MatchAll) String() string { return "*:*" }

// Term matches documents whose field equals Value exactly.
//
// Value is encoded in the field's storage type.
//
// Semantics:
//
//	<field> = <value>
type Term struct {
	Field string
	Value value.Value
}

func (Term) predicateNode() {}

func (t Term) String() string { return t.Field + ":" + value.Format(t.Value) }

// Range matches documents whose field lies within the bounds. A nil bound is
// open; an open bound's inclusiveness flag is always false.
//
// Semantics:
//
//	<min> <(=) <field> <(=) <max>
type Range struct {
	Field        string
	Min          value.Value
	Max          value.Value
	MinInclusive bool
	MaxInclusive bool
}

func (Range) predicateNode() {}

func (r Range) String() string {
	var b strings.Builder
	b.WriteString(r.Field)
	b.WriteString(":")
	if r.MinInclusive {
		b.WriteString("[")
	} else {
		b.WriteString("{")
	}
	b.WriteString(formatBound(r.Min))
	b.WriteString(" TO ")
	b.WriteString(formatBound(r.Max))
	if r.MaxInclusive {
		b.WriteString("]")
	} else {
		b.WriteString("}")
	}
	return b.String()
}

func formatBound(v value.Value) string {
	if v == nil {
		return "*"
	}
	return value.Format(v)
}

// Conjunction matches documents matched by every child (MUST clauses).
//
// Semantics:
//
//	<child1> AND <child2> AND ... AND <childN>
//
// Children keep the order and nesting of the source expression.
type Conjunction struct {
	Children []Node
}

func (Conjunction) predicateNode() {}

func (c Conjunction) String() string {
	parts := make([]string, len(c.Children))
	for i, child := range c.Children {
		parts[i] = "+" + child.String()
	}
	return "(" + strings.Join(parts, " ") + ")"
}

// Disjunction matches documents matched by at least MinimumMatches children
// (SHOULD clauses). The compiler always produces MinimumMatches = 1.
//
// Semantics:
//
//	<child1> OR <child2> OR ... OR <childN>
type Disjunction struct {
	Children       []Node
	MinimumMatches int
}

func (Disjunction) predicateNode() {}

func (d Disjunction) String() string {
	parts := make([]string, len(d.Children))
	for i, child := range d.Children {
		parts[i] = child.String()
	}
	s := "(" + strings.Join(parts, " ") + ")"
	if d.MinimumMatches > 1 {
		s += "~" + strconv.Itoa(d.MinimumMatches)
	}
	return s
}

// Negation excludes the documents matched by Delegate (a MUST_NOT clause).
// It matches nothing by itself and must be combined with MatchAll.
type Negation struct {
	Delegate Node
}

func (Negation) predicateNode() {}

func (n Negation) String() string { return "(-" + n.Delegate.String() + ")" }
