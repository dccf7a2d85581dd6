package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/roach88/exprc/internal/value"
)

func ptr[T any](v T) *T { return &v }

func TestCheckExpect(t *testing.T) {
	sr := &StatementResult{
		Name:       "s",
		Query:      "Term x:1\n",
		Residual:   []string{"(y > x)"},
		Candidates: 2,
		Columns:    []string{"x", "label"},
		Rows: []RowResult{
			{ID: 1, Values: []value.Value{value.Long(1), value.Text("a")}},
			{ID: 2, Values: []value.Value{value.Long(2), value.Null{}}},
		},
	}

	tests := []struct {
		name     string
		expect   Expect
		failures []string
	}{
		{"empty expect", Expect{}, nil},
		{"ids", Expect{IDs: []int64{1, 2}}, nil},
		{"wrong ids", Expect{IDs: []int64{1}}, []string{AssertIDs}},
		{"columns", Expect{Columns: []string{"x", "label"}}, nil},
		{"values with null", Expect{Values: [][]any{{1, "a"}, {2, nil}}}, nil},
		{"values coerce", Expect{Values: [][]any{{int64(1), "a"}, {2.0, nil}}}, nil},
		{"wrong value", Expect{Values: [][]any{{1, "b"}, {2, nil}}}, []string{AssertValues}},
		{"null mismatch", Expect{Values: [][]any{{1, "a"}, {2, "x"}}}, []string{AssertValues}},
		{"short values", Expect{Values: [][]any{{1, "a"}}}, []string{AssertValues}},
		{"query ignores surrounding space", Expect{Query: "  Term x:1  "}, nil},
		{"wrong query", Expect{Query: "MatchAll"}, []string{AssertQuery}},
		{"residual", Expect{Residual: []string{"(y > x)"}}, nil},
		{"candidates", Expect{Candidates: ptr(3)}, []string{AssertCandidates}},
		{"degraded", Expect{Degraded: ptr(true)}, []string{AssertDegraded}},
		{"several", Expect{IDs: []int64{2}, Degraded: ptr(true)}, []string{AssertIDs, AssertDegraded}},
		{"error expected", Expect{Error: "UNSUPPORTED_FEATURE"}, []string{AssertError}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msgs := checkExpect(sr, &tt.expect)
			assert.Len(t, msgs, len(tt.failures))
			for i, kind := range tt.failures {
				if i < len(msgs) {
					assert.Contains(t, msgs[i], "Assertion failed: "+kind)
				}
			}
		})
	}
}

func TestCheckExpect_StatementError(t *testing.T) {
	sr := &StatementResult{Name: "s", Error: "TYPE_ENCODING_MISMATCH: cannot encode 1.5"}

	assert.Empty(t, checkExpect(sr, &Expect{Error: "TYPE_ENCODING_MISMATCH"}))
	assert.Empty(t, checkExpect(sr, &Expect{Error: "cannot encode"}))

	msgs := checkExpect(sr, &Expect{Error: "UNSUPPORTED_FEATURE"})
	assert.Len(t, msgs, 1)

	msgs = checkExpect(sr, &Expect{IDs: []int64{1}})
	assert.Len(t, msgs, 1)
	assert.Contains(t, msgs[0], "Statement error: TYPE_ENCODING_MISMATCH")
}

func TestAssertionError_Format(t *testing.T) {
	err := &AssertionError{Type: AssertIDs, Expected: "[1]", Actual: "[2]"}
	assert.Equal(t, "Assertion failed: ids\n  Expected: [1]\n  Actual: [2]\n", err.Error())
}
