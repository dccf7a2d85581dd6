package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runValidateCmd(t *testing.T, format, dir string) (string, error) {
	t.Helper()

	buf := &bytes.Buffer{}
	cmd := NewValidateCommand(&RootOptions{Format: format})
	cmd.SetOut(buf)
	cmd.SetArgs([]string{dir})
	err := cmd.Execute()
	return buf.String(), err
}

func TestValidateValidSchema(t *testing.T) {
	out, err := runValidateCmd(t, "text", "testdata/schema/multi")
	require.NoError(t, err)

	assert.Contains(t, out, "events (2 field(s))")
	assert.Contains(t, out, "users (2 field(s))")
	assert.Contains(t, out, "✓ All indexes valid")
}

func TestValidateValidSchemaJSON(t *testing.T) {
	out, err := runValidateCmd(t, "json", docsSchema)
	require.NoError(t, err)

	var resp struct {
		Status string           `json:"status"`
		Data   ValidationResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.True(t, resp.Data.Valid)
	require.Len(t, resp.Data.Indexes, 1)
	assert.Equal(t, map[string]string{"x": "long", "name": "text", "flag": "boolean"}, resp.Data.Indexes[0].Fields)
}

func TestValidateNonExistentDirectory(t *testing.T) {
	out, err := runValidateCmd(t, "text", "/nonexistent/directory/path")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "E005")
	assert.Contains(t, out, "not found")
}

func TestValidateEmptyDirectory(t *testing.T) {
	out, err := runValidateCmd(t, "text", t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "E003")
	assert.Contains(t, out, "no CUE files found")
}

func TestValidateInvalidSchema(t *testing.T) {
	out, err := runValidateCmd(t, "text", "testdata/schema/invalid")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	assert.Contains(t, out, "✗ Validation failed")
	assert.Contains(t, out, "E102")
	assert.Contains(t, out, "E104")
}

func TestValidateInvalidSchemaJSON(t *testing.T) {
	out, err := runValidateCmd(t, "json", "testdata/schema/invalid")
	require.Error(t, err)

	var resp struct {
		Status string           `json:"status"`
		Data   ValidationResult `json:"data"`
		Error  *CLIError        `json:"error"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "error", resp.Status)
	assert.False(t, resp.Data.Valid)
	require.NotNil(t, resp.Error)

	codes := make(map[string]bool)
	for _, e := range resp.Data.Errors {
		codes[e.Code] = true
		assert.NotEmpty(t, e.Field)
	}
	assert.True(t, codes["E102"], "unknown storage type reported")
	assert.True(t, codes["E104"], "invalid index name reported")
}

func TestValidateNoIndexes(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "empty.cue"), []byte("package exprc\n\nother: 1\n"), 0644))

	out, err := runValidateCmd(t, "text", dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "no indexes found in schema")
}
