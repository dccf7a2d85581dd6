package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runEvalCmd(t *testing.T, format string, args ...string) (string, error) {
	t.Helper()

	buf := &bytes.Buffer{}
	cmd := NewEvalCommand(&RootOptions{Format: format})
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func TestEval_Text(t *testing.T) {
	out, err := runEvalCmd(t, "text", docsSchema,
		"--rows", "testdata/rows.yaml",
		"--where", "{call: gt, args: [{column: x}, {literal: 2}]}",
		"--select", "{column: name}")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.GreaterOrEqual(t, len(lines), 4)
	assert.Equal(t, "ID  name", strings.TrimRight(lines[0], " "))
	assert.Equal(t, "3   c", lines[1])
	assert.Equal(t, "4   a", lines[2])
	assert.Contains(t, out, "2 row(s), 2 candidate(s)")
}

func TestEval_JSON(t *testing.T) {
	out, err := runEvalCmd(t, "json", docsSchema,
		"--rows", "testdata/rows.yaml",
		"--user", "alice",
		"--where", "{call: neq, args: [{column: name}, {literal: a}]}",
		"--select", "{column: x}",
		"--select", "{call: current_user}")
	require.NoError(t, err)

	var resp struct {
		Status      string     `json:"status"`
		StatementID string     `json:"statement_id"`
		Data        EvalResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.NotEmpty(t, resp.StatementID)
	assert.Equal(t, []string{"x", "current_user()"}, resp.Data.Columns)
	require.Len(t, resp.Data.Rows, 2)
	assert.Equal(t, map[string]any{"id": float64(2), "values": []any{float64(2), "alice"}}, resp.Data.Rows[0])
	assert.Equal(t, map[string]any{"id": float64(3), "values": []any{float64(3), "alice"}}, resp.Data.Rows[1])
	assert.False(t, resp.Data.Degraded)
}

func TestEval_MismatchResidual(t *testing.T) {
	cfg := writeConfig(t, "pushdown:\n  on_mismatch: residual\nscan:\n  workers: 2\n  batch_size: 1\n")
	out, err := executeRoot(t, "--config", cfg, "--format", "json", "eval", docsSchema,
		"--rows", "testdata/rows.yaml",
		"--where", "{call: lt, args: [{column: x}, {literal: 2.5}]}")
	require.NoError(t, err)

	var resp struct {
		Data EvalResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.True(t, resp.Data.Degraded)
	assert.Equal(t, 4, resp.Data.Candidates)
	assert.Len(t, resp.Data.Rows, 2)
}

func TestEval_FileStore(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "exprc.db")
	cfg := writeConfig(t, "store:\n  path: "+dbPath+"\n")

	_, err := executeRoot(t, "--config", cfg, "eval", docsSchema, "--rows", "testdata/rows.yaml")
	require.NoError(t, err)

	_, err = os.Stat(dbPath)
	assert.NoError(t, err)
}

func TestEval_Errors(t *testing.T) {
	badRows := filepath.Join(t.TempDir(), "rows.yaml")
	require.NoError(t, os.WriteFile(badRows, []byte("- {x: 1}\n"), 0644))

	typeMismatch := filepath.Join(t.TempDir(), "rows.yaml")
	require.NoError(t, os.WriteFile(typeMismatch, []byte("- {id: 1, x: hello}\n"), 0644))

	tests := []struct {
		name     string
		args     []string
		wantCode int
		wantOut  string
	}{
		{"missing rows file", []string{docsSchema, "--rows", "/nonexistent/rows.yaml"}, ExitCommandError, "E013"},
		{"row without id", []string{docsSchema, "--rows", badRows}, ExitCommandError, "id must be an integer"},
		{"value of wrong type", []string{docsSchema, "--rows", typeMismatch}, ExitFailure, "row 1"},
		{"mismatch fails by default", []string{docsSchema, "--where", "{call: eq, args: [{column: x}, {literal: 1.5}]}"}, ExitFailure, "TYPE_ENCODING_MISMATCH"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := runEvalCmd(t, "text", tt.args...)
			require.Error(t, err)
			assert.Equal(t, tt.wantCode, GetExitCode(err))
			assert.Contains(t, out, tt.wantOut)
		})
	}
}
