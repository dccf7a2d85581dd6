package cli

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const docsSchema = "testdata/schema/docs"

func runCompileCmd(t *testing.T, format string, args ...string) (string, error) {
	t.Helper()

	buf := &bytes.Buffer{}
	cmd := NewCompileCommand(&RootOptions{Format: format})
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func TestCompile_Text(t *testing.T) {
	out, err := runCompileCmd(t, "text", docsSchema,
		"--where", "{call: and, args: [{call: gt, args: [{column: x}, {literal: 2}]}, {call: eq, args: [{call: upper, args: [{column: name}]}, {literal: A}]}]}",
		"--select", "{column: name}",
		"--select", "{alias: next, expr: {call: add, args: [{column: x}, {literal: 1}]}}")
	require.NoError(t, err)

	assert.Contains(t, out, "Index: docs")
	assert.Contains(t, out, "Range x:{2 TO *}")
	assert.Contains(t, out, "Residual:")
	assert.Contains(t, out, "(upper(name) = 'A')")
	assert.Contains(t, out, "Fingerprint: ")
	assert.Contains(t, out, "add(x, 1)")
	assert.Contains(t, out, "(columns: x, name)")
	assert.NotContains(t, out, "filtering per row")
}

func TestCompile_JSON(t *testing.T) {
	out, err := runCompileCmd(t, "json", docsSchema,
		"--index", "docs",
		"--where", `{"call": "eq", "args": [{"column": "name"}, {"literal": "b"}]}`)
	require.NoError(t, err)

	var resp struct {
		Status string            `json:"status"`
		Data   CompilationResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "docs", resp.Data.Index)
	assert.Equal(t, "Term name:b\n", resp.Data.Rendered)
	assert.Contains(t, resp.Data.Query, "term")
	assert.Empty(t, resp.Data.Residual)
	assert.False(t, resp.Data.Degraded)
	assert.NotEmpty(t, resp.Data.Fingerprint)

	// No select list projects every column in field order.
	cols := make([]string, len(resp.Data.Select))
	for i, p := range resp.Data.Select {
		cols[i] = p.Column
	}
	assert.Equal(t, []string{"flag", "name", "x"}, cols)
}

func TestCompile_FingerprintStable(t *testing.T) {
	where := "{call: lte, args: [{column: x}, {literal: 10}]}"

	decode := func() CompilationResult {
		out, err := runCompileCmd(t, "json", docsSchema, "--where", where)
		require.NoError(t, err)
		var resp struct {
			Data CompilationResult `json:"data"`
		}
		require.NoError(t, json.Unmarshal([]byte(out), &resp))
		return resp.Data
	}

	assert.Equal(t, decode().Fingerprint, decode().Fingerprint)
}

func TestCompile_WhereSummary(t *testing.T) {
	decode := func(args ...string) CompilationResult {
		out, err := runCompileCmd(t, "json", append([]string{docsSchema}, args...)...)
		require.NoError(t, err)
		var resp struct {
			Data CompilationResult `json:"data"`
		}
		require.NoError(t, json.Unmarshal([]byte(out), &resp))
		return resp.Data
	}

	plain := decode("--where", "{call: or, args: [{call: gt, args: [{column: x}, {literal: 2}]}, {call: eq, args: [{column: name}, {literal: a}]}]}")
	require.NotNil(t, plain.Where)
	assert.Equal(t, []string{"x", "name"}, plain.Where.Columns)
	assert.Len(t, plain.Where.Fingerprint, 64)

	// Same index query, different expression.
	aliased := decode("--where", "{call: or, args: [{call: gt, args: [{alias: v, expr: {column: x}}, {literal: 2}]}, {call: eq, args: [{column: name}, {literal: a}]}]}")
	require.NotNil(t, aliased.Where)
	assert.Equal(t, plain.Fingerprint, aliased.Fingerprint)
	assert.NotEqual(t, plain.Where.Fingerprint, aliased.Where.Fingerprint)

	assert.Nil(t, decode().Where)
}

func TestCompile_Mismatch(t *testing.T) {
	where := "{call: eq, args: [{column: x}, {literal: 1.5}]}"

	t.Run("fail policy", func(t *testing.T) {
		out, err := runCompileCmd(t, "json", docsSchema, "--where", where)
		require.Error(t, err)
		assert.Equal(t, ExitFailure, GetExitCode(err))

		var resp CLIResponse
		require.NoError(t, json.Unmarshal([]byte(out), &resp))
		assert.Equal(t, "error", resp.Status)
		require.NotNil(t, resp.Error)
		assert.Equal(t, "TYPE_ENCODING_MISMATCH", resp.Error.Code)
	})

	t.Run("residual policy", func(t *testing.T) {
		cfg := writeConfig(t, "pushdown:\n  on_mismatch: residual\n")
		out, err := executeRoot(t, "--config", cfg, "--format", "json", "compile", docsSchema, "--where", where)
		require.NoError(t, err)

		var resp struct {
			Data CompilationResult `json:"data"`
		}
		require.NoError(t, json.Unmarshal([]byte(out), &resp))
		assert.True(t, resp.Data.Degraded)
		assert.Equal(t, "MatchAll\n", resp.Data.Rendered)
		assert.Len(t, resp.Data.Residual, 1)
	})
}

func TestCompile_Errors(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		wantCode int
		wantOut  string
	}{
		{
			name:     "missing schema dir",
			args:     []string{"/nonexistent/schema"},
			wantCode: ExitCommandError,
			wantOut:  "E005",
		},
		{
			name:     "unknown index",
			args:     []string{docsSchema, "--index", "nope"},
			wantCode: ExitCommandError,
			wantOut:  "E014",
		},
		{
			name:     "ambiguous index",
			args:     []string{"testdata/schema/multi"},
			wantCode: ExitCommandError,
			wantOut:  "choose one with --index",
		},
		{
			name:     "bad where",
			args:     []string{docsSchema, "--where", "[1, 2"},
			wantCode: ExitFailure,
			wantOut:  "E010",
		},
		{
			name:     "unknown function",
			args:     []string{docsSchema, "--select", "{call: nope, args: [{column: x}]}"},
			wantCode: ExitFailure,
			wantOut:  "unknown function nope(long)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := runCompileCmd(t, "text", tt.args...)
			require.Error(t, err)
			assert.Equal(t, tt.wantCode, GetExitCode(err))
			assert.Contains(t, out, tt.wantOut)
		})
	}
}

func TestCompile_WhereFromFile(t *testing.T) {
	out, err := runCompileCmd(t, "text", docsSchema, "--where", "@testdata/where_flag.yaml")
	require.NoError(t, err)
	assert.Contains(t, out, "Term flag:true")
}
