package predicate

import (
	"fmt"
	"strings"

	"github.com/roach88/exprc/internal/value"
)

// Render returns an indented, multi-line rendering of the tree with one node
// per line, prefixed by its clause (MUST, SHOULD, MUST_NOT). Used for
// diagnostics and golden files.
//
//	Conjunction
//	  MUST MatchAll
//	  MUST Negation
//	    MUST_NOT Term x:1
func Render(n Node) string {
	var b strings.Builder
	render(&b, n, "", 0)
	return b.String()
}

func render(b *strings.Builder, n Node, clause string, depth int) {
	b.WriteString(strings.Repeat("  ", depth))
	if clause != "" {
		b.WriteString(clause)
		b.WriteString(" ")
	}
	switch n := n.(type) {
	case MatchAll:
		b.WriteString("MatchAll\n")
	case Term:
		fmt.Fprintf(b, "Term %s\n", n)
	case Range:
		fmt.Fprintf(b, "Range %s\n", n)
	case Conjunction:
		b.WriteString("Conjunction\n")
		for _, child := range n.Children {
			render(b, child, "MUST", depth+1)
		}
	case Disjunction:
		fmt.Fprintf(b, "Disjunction min=%d\n", n.MinimumMatches)
		for _, child := range n.Children {
			render(b, child, "SHOULD", depth+1)
		}
	case Negation:
		b.WriteString("Negation\n")
		render(b, n.Delegate, "MUST_NOT", depth+1)
	default:
		fmt.Fprintf(b, "%T\n", n)
	}
}

// Describe converts a tree into plain maps and slices suitable for canonical
// JSON. Values keep their storage type.
func Describe(n Node) map[string]any {
	switch n := n.(type) {
	case MatchAll:
		return map[string]any{"match_all": map[string]any{}}
	case Term:
		return map[string]any{"term": map[string]any{
			"field": n.Field,
			"value": n.Value,
			"type":  string(value.TypeOf(n.Value)),
		}}
	case Range:
		r := map[string]any{
			"field":         n.Field,
			"min_inclusive": n.MinInclusive,
			"max_inclusive": n.MaxInclusive,
		}
		if n.Min != nil {
			r["min"] = n.Min
			r["type"] = string(value.TypeOf(n.Min))
		}
		if n.Max != nil {
			r["max"] = n.Max
			r["type"] = string(value.TypeOf(n.Max))
		}
		return map[string]any{"range": r}
	case Conjunction:
		return map[string]any{"conjunction": describeAll(n.Children)}
	case Disjunction:
		return map[string]any{"disjunction": map[string]any{
			"children":        describeAll(n.Children),
			"minimum_matches": n.MinimumMatches,
		}}
	case Negation:
		return map[string]any{"negation": Describe(n.Delegate)}
	default:
		return map[string]any{"unknown": fmt.Sprintf("%T", n)}
	}
}

func describeAll(nodes []Node) []any {
	out := make([]any, len(nodes))
	for i, child := range nodes {
		out[i] = Describe(child)
	}
	return out
}

// Fingerprint returns a content hash of the tree. Structurally equal trees
// have equal fingerprints.
func Fingerprint(n Node) (string, error) {
	return value.Fingerprint(value.DomainPredicate, Describe(n))
}
