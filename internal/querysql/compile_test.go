package querysql

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/exprc/internal/predicate"
	"github.com/roach88/exprc/internal/value"
)

func key(t *testing.T, v value.Value) []byte {
	t.Helper()
	k, err := predicate.EncodeKey(v)
	require.NoError(t, err)
	return k
}

func TestCompile_MatchAll(t *testing.T) {
	sql, params, err := NewSQLCompiler("docs").Compile(predicate.MatchAll{})
	require.NoError(t, err)

	assert.Equal(t, "SELECT id FROM (SELECT id FROM documents WHERE index_name = ?) ORDER BY id ASC", sql)
	assert.Equal(t, []any{"docs"}, params)
}

func TestCompile_TermIsParameterized(t *testing.T) {
	sql, params, err := NewSQLCompiler("docs").Compile(predicate.Term{Field: "name", Value: value.Text("widgets")})
	require.NoError(t, err)

	assert.Contains(t, sql, "field = ? AND key = ?")
	assert.NotContains(t, sql, "widgets")
	assert.Equal(t, []any{"docs", "name", []byte("widgets")}, params)
	assert.Contains(t, sql, "ORDER BY id ASC")
}

func TestCompile_Range(t *testing.T) {
	tests := []struct {
		name  string
		node  predicate.Range
		where string
		n     int
	}{
		{"lt", predicate.Range{Field: "x", Max: value.Long(5)}, "AND key < ?", 3},
		{"lte", predicate.Range{Field: "x", Max: value.Long(5), MaxInclusive: true}, "AND key <= ?", 3},
		{"gt", predicate.Range{Field: "x", Min: value.Long(5)}, "AND key > ?", 3},
		{"gte", predicate.Range{Field: "x", Min: value.Long(5), MinInclusive: true}, "AND key >= ?", 3},
		{"both", predicate.Range{Field: "x", Min: value.Long(1), Max: value.Long(5), MinInclusive: true}, "AND key >= ? AND key < ?", 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sql, params, err := NewSQLCompiler("docs").Compile(tt.node)
			require.NoError(t, err)
			assert.Contains(t, sql, tt.where)
			assert.Len(t, params, tt.n)
		})
	}
}

func TestCompile_NegatedConjunction(t *testing.T) {
	node := predicate.Conjunction{Children: []predicate.Node{
		predicate.MatchAll{},
		predicate.Negation{Delegate: predicate.Term{Field: "x", Value: value.Long(1)}},
	}}
	sql, params, err := NewSQLCompiler("docs").Compile(node)
	require.NoError(t, err)

	assert.Equal(t, "SELECT id FROM (SELECT id FROM (SELECT id FROM documents WHERE index_name = ?)"+
		" EXCEPT SELECT id FROM (SELECT doc_id AS id FROM postings WHERE index_name = ? AND field = ? AND key = ?))"+
		" ORDER BY id ASC", sql)
	assert.Equal(t, []any{"docs", "docs", "x", key(t, value.Long(1))}, params)
}

func TestCompile_NegationAloneMatchesNothing(t *testing.T) {
	sql, params, err := NewSQLCompiler("docs").Compile(predicate.Negation{Delegate: predicate.MatchAll{}})
	require.NoError(t, err)
	assert.Contains(t, sql, "0 = 1")
	assert.Empty(t, params)

	sql, _, err = NewSQLCompiler("docs").Compile(predicate.Conjunction{Children: []predicate.Node{
		predicate.Negation{Delegate: predicate.MatchAll{}},
	}})
	require.NoError(t, err)
	assert.Contains(t, sql, "0 = 1")
}

func TestCompile_Disjunction(t *testing.T) {
	node := predicate.Disjunction{MinimumMatches: 1, Children: []predicate.Node{
		predicate.Term{Field: "x", Value: value.Long(1)},
		predicate.Term{Field: "y", Value: value.Long(2)},
	}}
	sql, params, err := NewSQLCompiler("docs").Compile(node)
	require.NoError(t, err)
	assert.Contains(t, sql, " UNION SELECT")
	assert.Len(t, params, 6)

	node.MinimumMatches = 2
	sql, params, err = NewSQLCompiler("docs").Compile(node)
	require.NoError(t, err)
	assert.Contains(t, sql, "HAVING COUNT(*) >= ?")
	assert.Equal(t, 2, params[len(params)-1])
}

func TestCompile_Errors(t *testing.T) {
	_, _, err := NewSQLCompiler("docs").Compile(nil)
	assert.Error(t, err)

	_, _, err = NewSQLCompiler("docs").Compile(predicate.Term{Field: "x", Value: value.Null{}})
	assert.Error(t, err)
}
