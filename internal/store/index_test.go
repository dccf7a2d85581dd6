package store

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/exprc/internal/predicate"
	"github.com/roach88/exprc/internal/value"
)

func term(field string, v value.Value) predicate.Term {
	return predicate.Term{Field: field, Value: v}
}

func not(n predicate.Node) predicate.Node {
	return predicate.Conjunction{Children: []predicate.Node{predicate.MatchAll{}, predicate.Negation{Delegate: n}}}
}

func TestSearch(t *testing.T) {
	ix := createTestIndex(t, 9)

	tests := []struct {
		name string
		node predicate.Node
		want []int64
	}{
		{"match all", predicate.MatchAll{}, []int64{1, 2, 3, 4, 5, 6, 7, 8, 9}},
		{"term", term("x", value.Long(4)), []int64{4}},
		{"text term", term("name", value.Text("b")), []int64{2, 5, 8}},
		{"boolean term", term("flag", value.Bool(true)), []int64{2, 4, 6, 8}},
		{"range lt", predicate.Range{Field: "x", Max: value.Long(3)}, []int64{1, 2}},
		{"range lte", predicate.Range{Field: "x", Max: value.Long(3), MaxInclusive: true}, []int64{1, 2, 3}},
		{"range gt", predicate.Range{Field: "x", Min: value.Long(7)}, []int64{8, 9}},
		{"range both", predicate.Range{Field: "x", Min: value.Long(3), Max: value.Long(6), MinInclusive: true}, []int64{3, 4, 5}},
		{"conjunction", predicate.Conjunction{Children: []predicate.Node{
			term("name", value.Text("a")),
			predicate.Range{Field: "x", Min: value.Long(1)},
		}}, []int64{4, 7}},
		{"disjunction", predicate.Disjunction{MinimumMatches: 1, Children: []predicate.Node{
			term("x", value.Long(1)),
			term("x", value.Long(9)),
		}}, []int64{1, 9}},
		{"minimum matches", predicate.Disjunction{MinimumMatches: 2, Children: []predicate.Node{
			term("flag", value.Bool(true)),
			term("name", value.Text("c")),
			predicate.Range{Field: "x", Max: value.Long(7)},
		}}, []int64{2, 3, 4, 6}},
		{"negation", not(term("name", value.Text("a"))), []int64{2, 3, 5, 6, 8, 9}},
		{"negation alone", predicate.Negation{Delegate: term("x", value.Long(1))}, nil},
		{"nested", predicate.Conjunction{Children: []predicate.Node{
			term("flag", value.Bool(true)),
			predicate.Disjunction{MinimumMatches: 1, Children: []predicate.Node{
				term("name", value.Text("a")),
				not(predicate.Range{Field: "x", Max: value.Long(8)}),
			}},
		}}, []int64{4, 8}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ix.Search(context.Background(), tt.node)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSearch_NegationIncludesMissingField(t *testing.T) {
	ctx := context.Background()
	ix := createTestIndex(t, 2)
	require.NoError(t, ix.Insert(ctx, 3, map[string]value.Value{"name": value.Text("z")}))

	got, err := ix.Search(ctx, not(term("x", value.Long(1))))
	require.NoError(t, err)
	assert.Equal(t, []int64{2, 3}, got)
}

func TestSearch_NegativeAndFloatingRanges(t *testing.T) {
	ctx := context.Background()
	ix, err := createTestStore(t).CreateIndex(ctx, testSchema())
	require.NoError(t, err)

	prices := []float64{-10.5, -0.25, 0, 0.25, 1e6}
	for i, p := range prices {
		require.NoError(t, ix.Insert(ctx, int64(i+1), map[string]value.Value{
			"price": value.Double(p),
			"qty":   value.Integer(int32(i) - 2),
		}))
	}

	got, err := ix.Search(ctx, predicate.Range{Field: "price", Min: value.Double(-1), Max: value.Double(1)})
	require.NoError(t, err)
	assert.Equal(t, []int64{2, 3, 4}, got)

	got, err = ix.Search(ctx, predicate.Range{Field: "qty", Max: value.Integer(0)})
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2}, got)
}

func TestInsert_CoercesToStorageType(t *testing.T) {
	ctx := context.Background()
	ix, err := createTestStore(t).CreateIndex(ctx, testSchema())
	require.NoError(t, err)

	require.NoError(t, ix.Insert(ctx, 1, map[string]value.Value{
		"x":     value.Integer(5),
		"qty":   value.Long(7),
		"price": value.Long(2),
		"ratio": value.Double(0.5),
		"name":  value.Text("é"),
		"flag":  value.Null{},
	}))

	docs, err := ix.Fetch(ctx, []int64{1})
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, map[string]value.Value{
		"x":     value.Long(5),
		"qty":   value.Integer(7),
		"price": value.Double(2),
		"ratio": value.Float(0.5),
		"name":  value.Text("é"),
		"flag":  value.Null{},
	}, docs[0].Values)

	// Null values are not indexed.
	got, err := ix.Search(ctx, term("flag", value.Bool(false)))
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestInsert_Errors(t *testing.T) {
	ctx := context.Background()
	ix, err := createTestStore(t).CreateIndex(ctx, testSchema())
	require.NoError(t, err)

	assert.Error(t, ix.Insert(ctx, 1, map[string]value.Value{"nope": value.Long(1)}))
	assert.Error(t, ix.Insert(ctx, 1, map[string]value.Value{"qty": value.Long(math.MaxInt64)}))
	assert.Error(t, ix.Insert(ctx, 1, map[string]value.Value{"x": value.Text("1")}))

	n, err := ix.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestInsert_Replaces(t *testing.T) {
	ctx := context.Background()
	ix := createTestIndex(t, 3)
	require.NoError(t, ix.Insert(ctx, 2, map[string]value.Value{"x": value.Long(20)}))

	got, err := ix.Search(ctx, term("x", value.Long(2)))
	require.NoError(t, err)
	assert.Empty(t, got)

	got, err = ix.Search(ctx, term("x", value.Long(20)))
	require.NoError(t, err)
	assert.Equal(t, []int64{2}, got)

	n, err := ix.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestFetch_OrderAndMissing(t *testing.T) {
	ix := createTestIndex(t, 5)
	docs, err := ix.Fetch(context.Background(), []int64{5, 2, 42})
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, int64(2), docs[0].ID)
	assert.Equal(t, int64(5), docs[1].ID)
	assert.Equal(t, value.Long(5), docs[1].Values["x"])
}

func TestFetch_LargeIDList(t *testing.T) {
	ix := createTestIndex(t, 3)
	ids := make([]int64, 0, fetchChunk*2+1)
	for i := int64(fetchChunk*2 + 1); i > 0; i-- {
		ids = append(ids, i)
	}
	docs, err := ix.Fetch(context.Background(), ids)
	require.NoError(t, err)
	require.Len(t, docs, 3)
	assert.Equal(t, []int64{1, 2, 3}, []int64{docs[0].ID, docs[1].ID, docs[2].ID})
}

func TestCreateIndex_Idempotent(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)

	_, err := s.CreateIndex(ctx, testSchema())
	require.NoError(t, err)
	_, err = s.CreateIndex(ctx, testSchema())
	require.NoError(t, err)

	changed := testSchema()
	changed.Fields["extra"] = value.TextType
	_, err = s.CreateIndex(ctx, changed)
	assert.Error(t, err)

	_, err = s.CreateIndex(ctx, predicate.Schema{})
	assert.Error(t, err)
}

func TestOpenIndex(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)
	_, err := s.CreateIndex(ctx, testSchema())
	require.NoError(t, err)

	ix, err := s.OpenIndex(ctx, "docs")
	require.NoError(t, err)
	assert.Equal(t, testSchema(), ix.Schema())

	_, err = s.OpenIndex(ctx, "missing")
	assert.ErrorIs(t, err, ErrIndexNotFound)
}
