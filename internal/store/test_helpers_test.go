package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/roach88/exprc/internal/predicate"
	"github.com/roach88/exprc/internal/value"
)

// createTestStore creates a new file-backed store for testing.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func testSchema() predicate.Schema {
	return predicate.Schema{Name: "docs", Fields: map[string]value.DataType{
		"x":     value.LongType,
		"qty":   value.IntegerType,
		"name":  value.TextType,
		"price": value.DoubleType,
		"ratio": value.FloatType,
		"flag":  value.Boolean,
	}}
}

// createTestIndex creates the docs index with rows 1..n where x = id,
// name cycles through a, b, c and flag is true for even ids.
func createTestIndex(t *testing.T, n int) *Index {
	t.Helper()
	ctx := context.Background()
	ix, err := createTestStore(t).CreateIndex(ctx, testSchema())
	if err != nil {
		t.Fatalf("CreateIndex() failed: %v", err)
	}
	names := []string{"a", "b", "c"}
	for id := int64(1); id <= int64(n); id++ {
		err := ix.Insert(ctx, id, map[string]value.Value{
			"x":    value.Long(id),
			"name": value.Text(names[(id-1)%3]),
			"flag": value.Bool(id%2 == 0),
		})
		if err != nil {
			t.Fatalf("Insert(%d) failed: %v", id, err)
		}
	}
	return ix
}
