package expr

import (
	"github.com/roach88/exprc/internal/value"
)

// Describe returns a JSON-ready form of e that keeps declared types, so two
// trees that print the same but bind different signatures describe
// differently.
func Describe(e Expression) map[string]any {
	switch n := e.(type) {
	case *Literal:
		return map[string]any{"literal": map[string]any{
			"value": n.Value,
			"type":  string(n.DataType),
		}}
	case *ColumnRef:
		return map[string]any{"column": map[string]any{
			"name": n.Name,
			"type": string(n.DataType),
			"kind": n.Kind.String(),
		}}
	case *FunctionCall:
		args := make([]any, len(n.Args))
		for i, a := range n.Args {
			args[i] = Describe(a)
		}
		return map[string]any{"call": map[string]any{
			"name":    n.Name(),
			"returns": string(n.Signature.ReturnType),
			"args":    args,
		}}
	case *Alias:
		return map[string]any{"alias": map[string]any{
			"name": n.Name,
			"expr": Describe(n.Inner),
		}}
	default:
		return map[string]any{"unknown": Kind(e)}
	}
}

// Fingerprint returns the content hash of e's description. Aliases take
// part in the hash.
func Fingerprint(e Expression) (string, error) {
	return value.Fingerprint(value.DomainExpression, Describe(e))
}
