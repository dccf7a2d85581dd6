package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeScenario(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scenario.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadScenario_Valid(t *testing.T) {
	path := writeScenario(t, `
name: valid
description: A valid scenario
index: docs
schema: 'indexes: docs: fields: { x: "long" }'
rows:
  - {id: 1, x: 5}
statements:
  - name: all
    select: [{column: x}]
    expect:
      ids: [1]
`)
	s, err := LoadScenario(path)
	require.NoError(t, err)

	assert.Equal(t, "valid", s.Name)
	assert.Equal(t, "docs", s.Index)
	require.Len(t, s.Statements, 1)
	assert.Equal(t, "x", s.Statements[0].Select[0].Column)
	assert.Equal(t, []int64{1}, s.Statements[0].Expect.IDs)
	assert.Nil(t, s.Statements[0].Where)
}

func TestLoadScenario_ResolvesSchemaFile(t *testing.T) {
	path := writeScenario(t, `
name: with_file
description: Schema from a file
index: docs
schema_file: schemas/docs.cue
statements:
  - name: all
`)
	s, err := LoadScenarioWithBasePath(path, "/base")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("/base", "schemas/docs.cue"), s.SchemaFile)
}

func TestLoadScenario_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{
			name:    "unknown field",
			content: "name: x\ndescription: d\nindex: docs\nschema: s\nstatement: []\n",
			wantErr: "field statement not found",
		},
		{
			name:    "unknown expression key",
			content: "name: x\ndescription: d\nindex: docs\nschema: s\nstatements:\n  - name: a\n    where: {colum: x}\n",
			wantErr: "field colum not found in expression",
		},
		{
			name:    "missing name",
			content: "description: d\nindex: docs\nschema: s\nstatements: [{name: a}]\n",
			wantErr: "name is required",
		},
		{
			name:    "missing description",
			content: "name: x\nindex: docs\nschema: s\nstatements: [{name: a}]\n",
			wantErr: "description is required",
		},
		{
			name:    "missing index",
			content: "name: x\ndescription: d\nschema: s\nstatements: [{name: a}]\n",
			wantErr: "index is required",
		},
		{
			name:    "no schema",
			content: "name: x\ndescription: d\nindex: docs\nstatements: [{name: a}]\n",
			wantErr: "exactly one of schema or schema_file",
		},
		{
			name:    "both schemas",
			content: "name: x\ndescription: d\nindex: docs\nschema: s\nschema_file: f.cue\nstatements: [{name: a}]\n",
			wantErr: "exactly one of schema or schema_file",
		},
		{
			name:    "no statements",
			content: "name: x\ndescription: d\nindex: docs\nschema: s\n",
			wantErr: "statements list is required",
		},
		{
			name:    "row without id",
			content: "name: x\ndescription: d\nindex: docs\nschema: s\nrows: [{x: 1}]\nstatements: [{name: a}]\n",
			wantErr: "rows[0]: id is required",
		},
		{
			name:    "duplicate statement",
			content: "name: x\ndescription: d\nindex: docs\nschema: s\nstatements: [{name: a}, {name: a}]\n",
			wantErr: "duplicate name",
		},
		{
			name:    "bad policy",
			content: "name: x\ndescription: d\nindex: docs\nschema: s\nconfig: {on_mismatch: skip}\nstatements: [{name: a}]\n",
			wantErr: "config.on_mismatch",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadScenario(writeScenario(t, tt.content))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadScenario_MissingFile(t *testing.T) {
	_, err := LoadScenario(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read scenario file")
}
