package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/exprc/internal/diag"
	"github.com/roach88/exprc/internal/expr"
	"github.com/roach88/exprc/internal/function"
	"github.com/roach88/exprc/internal/predicate"
	"github.com/roach88/exprc/internal/scalar"
	"github.com/roach88/exprc/internal/scan"
)

// CompileOptions holds flags for the compile command.
type CompileOptions struct {
	*RootOptions
	Index  string   // index name
	Where  string   // WHERE expression (YAML/JSON or @file)
	Select []string // select expressions
	User   string   // session user
}

// CompilationResult describes a compiled statement.
type CompilationResult struct {
	Index       string         `json:"index"`
	Query       map[string]any `json:"query"`
	Rendered    string         `json:"rendered"`
	Residual    []string       `json:"residual,omitempty"`
	Degraded    bool           `json:"degraded"`
	Fingerprint string         `json:"fingerprint"`
	Where       *WhereSummary  `json:"where,omitempty"`
	Select      []Projection   `json:"select"`
}

// WhereSummary identifies the decoded WHERE expression.
type WhereSummary struct {
	Columns     []string `json:"columns"`
	Fingerprint string   `json:"fingerprint"`
}

// Projection describes one compiled select item.
type Projection struct {
	Column    string `json:"column"`
	Evaluator string `json:"evaluator"`
}

// NewCompileCommand creates the compile command.
func NewCompileCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CompileOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "compile <schema-dir>",
		Short: "Compile a statement to an index query and evaluators",
		Long: `Compile a WHERE clause into an index predicate tree plus residual
filter, and select items into scalar evaluators, without touching a store.

Expressions are YAML or JSON; prefix with @ to read from a file.

Examples:
  exprc compile ./schema --index docs --where '{call: gt, args: [{column: x}, {literal: 3}]}'
  exprc compile ./schema --where @where.yaml --select '{column: name}' --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors - we handle our own error output
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompile(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Index, "index", "i", "", "index name (optional when the schema declares one index)")
	cmd.Flags().StringVarP(&opts.Where, "where", "w", "", "WHERE expression")
	cmd.Flags().StringArrayVarP(&opts.Select, "select", "s", nil, "select expression (repeatable)")
	cmd.Flags().StringVar(&opts.User, "user", "", "session user")

	return cmd
}

func runCompile(opts *CompileOptions, schemaDir string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	ix, cliErr := loadIndex(schemaDir, opts.Index, formatter)
	if cliErr != nil {
		return formatter.Fail(ExitCommandError, cliErr)
	}

	registry := function.NewBuiltinCatalog(opts.logger())
	stmt, cliErr := decodeStatement(ix.Schema, registry, opts.Where, opts.Select, opts.User)
	if cliErr != nil {
		return formatter.Fail(ExitFailure, cliErr)
	}

	planner, err := scan.NewPlanner(ix.Schema, registry, opts.settings().ScanConfig().OnMismatch)
	if err != nil {
		return formatter.Fail(ExitCommandError, &CLIError{Code: ErrCodeGeneric, Message: err.Error()})
	}
	prepared, err := planner.Prepare(stmt, opts.logger())
	if err != nil {
		return formatter.Fail(ExitFailure, compileError(err))
	}

	fingerprint, err := predicate.Fingerprint(prepared.Plan.Query)
	if err != nil {
		return formatter.Fail(ExitFailure, &CLIError{Code: ErrCodeGeneric, Message: err.Error()})
	}

	result := CompilationResult{
		Index:       ix.Schema.Name,
		Query:       predicate.Describe(prepared.Plan.Query),
		Rendered:    predicate.Render(prepared.Plan.Query),
		Degraded:    prepared.Degraded,
		Fingerprint: fingerprint,
	}
	if stmt.Where != nil {
		whereFP, err := expr.Fingerprint(stmt.Where)
		if err != nil {
			return formatter.Fail(ExitFailure, &CLIError{Code: ErrCodeGeneric, Message: err.Error()})
		}
		result.Where = &WhereSummary{Columns: expr.Columns(stmt.Where), Fingerprint: whereFP}
	}
	for _, r := range prepared.Plan.Residual {
		result.Residual = append(result.Residual, r.String())
	}
	for i, ev := range prepared.Projections {
		result.Select = append(result.Select, Projection{
			Column:    prepared.Columns[i],
			Evaluator: fmt.Sprint(ev),
		})
	}

	if opts.Format == "json" {
		return formatter.Success(result)
	}
	return outputCompileText(formatter, result)
}

// decodeStatement decodes WHERE and select expressions against the index
// fields.
func decodeStatement(s predicate.Schema, registry *function.Catalog, where string, selects []string, user string) (scan.Statement, *CLIError) {
	dec := &expr.Decoder{Columns: s.Fields, Functions: registry}
	stmt := scan.Statement{Session: scalar.Session{User: user}}

	if where != "" {
		e, err := parseExpression(where, dec)
		if err != nil {
			return stmt, &CLIError{Code: ErrCodeBadExpr, Message: fmt.Sprintf("where: %v", err)}
		}
		stmt.Where = e
	}
	for i, src := range selects {
		e, err := parseExpression(src, dec)
		if err != nil {
			return stmt, &CLIError{Code: ErrCodeBadExpr, Message: fmt.Sprintf("select %d: %v", i+1, err)}
		}
		stmt.Select = append(stmt.Select, e)
	}
	return stmt, nil
}

// compileError maps compile failures to their diag code.
func compileError(err error) *CLIError {
	code := string(diag.CodeOf(err))
	if code == "" {
		return &CLIError{Code: ErrCodeCompile, Message: err.Error()}
	}
	return &CLIError{Code: code, Message: strings.TrimPrefix(err.Error(), code+": ")}
}

func outputCompileText(f *OutputFormatter, r CompilationResult) error {
	w := f.Writer
	fmt.Fprintf(w, "Index: %s\n", r.Index)
	if r.Degraded {
		fmt.Fprintln(w, "⚠ WHERE clause could not be encoded for the index; filtering per row")
	}
	fmt.Fprintln(w, "Query:")
	for _, line := range strings.Split(strings.TrimSuffix(r.Rendered, "\n"), "\n") {
		fmt.Fprintf(w, "  %s\n", line)
	}
	if len(r.Residual) > 0 {
		fmt.Fprintln(w, "Residual:")
		for _, res := range r.Residual {
			fmt.Fprintf(w, "  %s\n", res)
		}
	}
	fmt.Fprintf(w, "Fingerprint: %s\n", r.Fingerprint)
	if r.Where != nil {
		fmt.Fprintf(w, "Where: %s (columns: %s)\n", r.Where.Fingerprint, strings.Join(r.Where.Columns, ", "))
	}

	rows := make([][]string, len(r.Select))
	for i, p := range r.Select {
		rows[i] = []string{p.Column, p.Evaluator}
	}
	fmt.Fprintln(w)
	f.Table([]string{"COLUMN", "EVALUATOR"}, rows)
	return nil
}
