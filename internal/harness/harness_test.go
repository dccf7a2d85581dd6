package harness

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadTestScenario(t *testing.T, name string) *Scenario {
	t.Helper()
	path := filepath.Join("testdata", "scenarios", name+".yaml")
	s, err := LoadScenarioWithBasePath(path, filepath.Dir(path))
	require.NoError(t, err)
	return s
}

func TestRun_Scenarios(t *testing.T) {
	paths, err := filepath.Glob(filepath.Join("testdata", "scenarios", "*.yaml"))
	require.NoError(t, err)
	require.NotEmpty(t, paths)

	for _, path := range paths {
		name := strings.TrimSuffix(filepath.Base(path), ".yaml")
		t.Run(name, func(t *testing.T) {
			result, err := Run(loadTestScenario(t, name))
			require.NoError(t, err)
			assert.True(t, result.Pass, "errors:\n%s", strings.Join(result.Errors, "\n"))
		})
	}
}

func TestRun_Golden(t *testing.T) {
	for _, name := range []string{"pushdown_basics", "mismatch_residual"} {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, RunWithGolden(t, loadTestScenario(t, name)))
		})
	}
}

func TestRun_Deterministic(t *testing.T) {
	s := loadTestScenario(t, "pushdown_basics")

	first, err := Run(s)
	require.NoError(t, err)
	second, err := Run(s)
	require.NoError(t, err)

	a, err := MarshalSnapshot(s.Name, first)
	require.NoError(t, err)
	b, err := MarshalSnapshot(s.Name, second)
	require.NoError(t, err)
	assert.Equal(t, string(a), string(b))
}

func inlineScenario(t *testing.T, yaml string) *Scenario {
	t.Helper()
	s, err := ParseScenario([]byte(yaml))
	require.NoError(t, err)
	require.NoError(t, validateScenario(s))
	return s
}

func TestRun_ReportsFailedExpectations(t *testing.T) {
	s := inlineScenario(t, `
name: failing
description: Expectations that do not hold
index: docs
schema: 'indexes: docs: fields: { x: "long" }'
rows:
  - {id: 1, x: 1}
  - {id: 2, x: 2}
statements:
  - name: wrong_ids
    where: {call: eq, args: [{column: x}, {literal: 1}]}
    expect:
      ids: [2]
      candidates: 5
  - name: unexpected_success
    expect:
      error: TYPE_ENCODING_MISMATCH
  - name: unexpected_error
    where: {call: eq, args: [{column: x}, {literal: 1.5}]}
    expect:
      ids: [1]
`)
	result, err := Run(s)
	require.NoError(t, err)

	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 4)
	assert.Contains(t, result.Errors[0], "wrong_ids: Assertion failed: ids")
	assert.Contains(t, result.Errors[1], "wrong_ids: Assertion failed: candidates")
	assert.Contains(t, result.Errors[2], "unexpected_success: Assertion failed: error")
	assert.Contains(t, result.Errors[3], "Statement error: TYPE_ENCODING_MISMATCH")

	sr, ok := result.Statement("unexpected_error")
	require.True(t, ok)
	assert.Contains(t, sr.Error, "TYPE_ENCODING_MISMATCH")
	assert.Empty(t, sr.StatementID)
}

func TestRun_SetupErrors(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{
			name: "index not declared",
			yaml: `
name: s
description: d
index: missing
schema: 'indexes: docs: fields: { x: "long" }'
statements: [{name: a}]
`,
			wantErr: `index "missing" not declared`,
		},
		{
			name: "invalid schema",
			yaml: `
name: s
description: d
index: docs
schema: 'indexes: docs: fields: { x: "timestamp" }'
statements: [{name: a}]
`,
			wantErr: "E102",
		},
		{
			name: "bad row",
			yaml: `
name: s
description: d
index: docs
schema: 'indexes: docs: fields: { x: "long" }'
rows: [{id: 1, y: 2}]
statements: [{name: a}]
`,
			wantErr: "failed to insert rows",
		},
		{
			name: "non-integer id",
			yaml: `
name: s
description: d
index: docs
schema: 'indexes: docs: fields: { x: "long" }'
rows: [{id: abc, x: 2}]
statements: [{name: a}]
`,
			wantErr: "expected an integer",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Run(inlineScenario(t, tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
