// Package querysql compiles index predicate trees to parameterized SQL over
// the postings layout of the reference index engine (see internal/store).
package querysql

import (
	"fmt"
	"strings"

	"github.com/roach88/exprc/internal/predicate"
	"github.com/roach88/exprc/internal/value"
)

// SQLCompiler compiles predicate trees to SQL for SQLite.
//
// Every node compiles to a SELECT producing a single distinct column "id".
// Conjunction maps to INTERSECT, with Negation children subtracted via
// EXCEPT; Disjunction maps to UNION. A Negation outside a Conjunction
// matches nothing.
//
// CRITICAL: All values are parameterized (never interpolated).
// CRITICAL: The outer query always orders by id for deterministic results.
type SQLCompiler struct {
	// Index is the index name all postings are scoped to.
	Index string
}

// NewSQLCompiler creates a compiler for the named index.
func NewSQLCompiler(index string) *SQLCompiler {
	return &SQLCompiler{Index: index}
}

// Compile converts a predicate tree to a query returning matching document
// ids in ascending order. Returns (sql, params, error).
func (c *SQLCompiler) Compile(n predicate.Node) (string, []any, error) {
	if n == nil {
		return "", nil, fmt.Errorf("cannot compile nil predicate")
	}
	inner, params, err := c.compileNode(n)
	if err != nil {
		return "", nil, err
	}
	// MANDATORY: deterministic ordering
	return "SELECT id FROM (" + inner + ") ORDER BY id ASC", params, nil
}

func (c *SQLCompiler) compileNode(n predicate.Node) (string, []any, error) {
	switch node := n.(type) {
	case predicate.MatchAll:
		return "SELECT id FROM documents WHERE index_name = ?", []any{c.Index}, nil
	case predicate.Term:
		return c.compileTerm(node)
	case predicate.Range:
		return c.compileRange(node)
	case predicate.Conjunction:
		return c.compileConjunction(node)
	case predicate.Disjunction:
		return c.compileDisjunction(node)
	case predicate.Negation:
		return matchNone, nil, nil
	default:
		return "", nil, fmt.Errorf("unsupported predicate type: %T", n)
	}
}

const matchNone = "SELECT id FROM documents WHERE 0 = 1"

// compileTerm compiles a Term to a postings lookup on the encoded key.
func (c *SQLCompiler) compileTerm(t predicate.Term) (string, []any, error) {
	key, err := predicate.EncodeKey(t.Value)
	if err != nil {
		return "", nil, fmt.Errorf("term %s: %w", t.Field, err)
	}
	sql := "SELECT doc_id AS id FROM postings WHERE index_name = ? AND field = ? AND key = ?"
	return sql, []any{c.Index, t.Field, key}, nil
}

// compileRange compiles a Range to a key range scan. Keys of one field share
// a storage type, so byte order equals value order.
func (c *SQLCompiler) compileRange(r predicate.Range) (string, []any, error) {
	var b strings.Builder
	b.WriteString("SELECT doc_id AS id FROM postings WHERE index_name = ? AND field = ?")
	params := []any{c.Index, r.Field}

	bound := func(v value.Value, inclusive bool, lower bool) error {
		if v == nil {
			return nil
		}
		key, err := predicate.EncodeKey(v)
		if err != nil {
			return fmt.Errorf("range %s: %w", r.Field, err)
		}
		op := "<"
		if lower {
			op = ">"
		}
		if inclusive {
			op += "="
		}
		fmt.Fprintf(&b, " AND key %s ?", op)
		params = append(params, key)
		return nil
	}
	if err := bound(r.Min, r.MinInclusive, true); err != nil {
		return "", nil, err
	}
	if err := bound(r.Max, r.MaxInclusive, false); err != nil {
		return "", nil, err
	}
	return b.String(), params, nil
}

// compileConjunction intersects positive children and subtracts negated ones.
// A conjunction of only negations matches nothing.
func (c *SQLCompiler) compileConjunction(conj predicate.Conjunction) (string, []any, error) {
	var positive, negative []string
	var posParams, negParams []any
	for _, child := range conj.Children {
		if neg, ok := child.(predicate.Negation); ok {
			sql, params, err := c.compileNode(neg.Delegate)
			if err != nil {
				return "", nil, err
			}
			negative = append(negative, sql)
			negParams = append(negParams, params...)
			continue
		}
		sql, params, err := c.compileNode(child)
		if err != nil {
			return "", nil, err
		}
		positive = append(positive, sql)
		posParams = append(posParams, params...)
	}
	if len(positive) == 0 {
		return matchNone, nil, nil
	}

	var b strings.Builder
	for i, sql := range positive {
		if i > 0 {
			b.WriteString(" INTERSECT ")
		}
		b.WriteString("SELECT id FROM (" + sql + ")")
	}
	for _, sql := range negative {
		b.WriteString(" EXCEPT SELECT id FROM (" + sql + ")")
	}
	return b.String(), append(posParams, negParams...), nil
}

// compileDisjunction unions the children. With MinimumMatches above one, ids
// are counted across children instead.
func (c *SQLCompiler) compileDisjunction(d predicate.Disjunction) (string, []any, error) {
	if len(d.Children) == 0 {
		return matchNone, nil, nil
	}
	parts := make([]string, len(d.Children))
	var params []any
	for i, child := range d.Children {
		sql, childParams, err := c.compileNode(child)
		if err != nil {
			return "", nil, err
		}
		parts[i] = "SELECT id FROM (" + sql + ")"
		params = append(params, childParams...)
	}
	if d.MinimumMatches <= 1 {
		return strings.Join(parts, " UNION "), params, nil
	}
	sql := "SELECT id FROM (" + strings.Join(parts, " UNION ALL ") + ") GROUP BY id HAVING COUNT(*) >= ?"
	return sql, append(params, d.MinimumMatches), nil
}
