package cli

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/roach88/exprc/internal/function"
	"github.com/roach88/exprc/internal/scan"
	"github.com/roach88/exprc/internal/store"
	"github.com/roach88/exprc/internal/value"
)

// EvalOptions holds flags for the eval command.
type EvalOptions struct {
	*RootOptions
	Index  string   // index name
	Rows   string   // rows file (YAML or JSON)
	Where  string   // WHERE expression
	Select []string // select expressions
	User   string   // session user
}

// EvalResult is the output of one evaluated statement.
type EvalResult struct {
	Index      string   `json:"index"`
	Columns    []string `json:"columns"`
	Rows       []any    `json:"rows"`
	Candidates int      `json:"candidates"`
	Degraded   bool     `json:"degraded"`
}

// NewEvalCommand creates the eval command.
func NewEvalCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &EvalOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "eval <schema-dir>",
		Short: "Index rows and evaluate a statement against them",
		Long: `Create the index in the configured store, insert rows, then run a
statement: the WHERE clause is searched in the index, residual filters and
select items are evaluated per row.

Examples:
  exprc eval ./schema --rows rows.yaml --where '{call: eq, args: [{column: name}, bob]}'
  exprc eval ./schema --index docs --rows rows.json --select '{column: x}' --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors - we handle our own error output
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEval(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Index, "index", "i", "", "index name (optional when the schema declares one index)")
	cmd.Flags().StringVarP(&opts.Rows, "rows", "r", "", "rows file (YAML or JSON list)")
	cmd.Flags().StringVarP(&opts.Where, "where", "w", "", "WHERE expression")
	cmd.Flags().StringArrayVarP(&opts.Select, "select", "s", nil, "select expression (repeatable)")
	cmd.Flags().StringVar(&opts.User, "user", "", "session user")

	return cmd
}

func runEval(opts *EvalOptions, schemaDir string, cmd *cobra.Command) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	formatter := newFormatter(opts.RootOptions, cmd)
	logger := opts.logger()
	cfg := opts.settings()

	ix, cliErr := loadIndex(schemaDir, opts.Index, formatter)
	if cliErr != nil {
		return formatter.Fail(ExitCommandError, cliErr)
	}

	var rows []Row
	if opts.Rows != "" {
		var err error
		rows, err = readRows(opts.Rows)
		if err != nil {
			return formatter.Fail(ExitCommandError, &CLIError{
				Code:    ErrCodeBadRows,
				Message: fmt.Sprintf("%s: %v", opts.Rows, err),
			})
		}
	}

	registry := function.NewBuiltinCatalog(logger)
	stmt, cliErr := decodeStatement(ix.Schema, registry, opts.Where, opts.Select, opts.User)
	if cliErr != nil {
		return formatter.Fail(ExitFailure, cliErr)
	}

	formatter.VerboseLog("Opening store %s", cfg.Store.Path)
	s, err := store.Open(cfg.Store.Path, store.WithLogger(logger))
	if err != nil {
		return formatter.Fail(ExitCommandError, storeError(err))
	}
	defer s.Close()

	index, err := s.CreateIndex(ctx, ix.Schema)
	if err != nil {
		return formatter.Fail(ExitCommandError, storeError(err))
	}
	for _, r := range rows {
		if err := index.Insert(ctx, r.ID, r.Values); err != nil {
			return formatter.Fail(ExitFailure, &CLIError{
				Code:    ErrCodeBadRows,
				Message: fmt.Sprintf("row %d: %v", r.ID, err),
			})
		}
	}
	formatter.VerboseLog("Inserted %d row(s) into %s", len(rows), ix.Schema.Name)

	exec, err := scan.NewExecutor(index, registry,
		scan.WithConfig(cfg.ScanConfig()),
		scan.WithLogger(logger))
	if err != nil {
		return formatter.Fail(ExitCommandError, &CLIError{Code: ErrCodeGeneric, Message: err.Error()})
	}

	res, err := exec.Execute(ctx, stmt)
	if err != nil {
		return formatter.Fail(ExitFailure, compileError(err))
	}

	if opts.Format == "json" {
		out := EvalResult{
			Index:      ix.Schema.Name,
			Columns:    res.Columns,
			Rows:       make([]any, len(res.Rows)),
			Candidates: res.Candidates,
			Degraded:   res.Degraded,
		}
		for i, r := range res.Rows {
			vals := make([]any, len(r.Values))
			for j, v := range r.Values {
				vals[j] = value.ToAny(v)
			}
			out.Rows[i] = map[string]any{"id": r.ID, "values": vals}
		}
		return formatter.encode(CLIResponse{Status: "ok", Data: out, StatementID: res.StatementID})
	}

	header := append([]string{"ID"}, res.Columns...)
	table := make([][]string, len(res.Rows))
	for i, r := range res.Rows {
		line := []string{strconv.FormatInt(r.ID, 10)}
		for _, v := range r.Values {
			line = append(line, value.Format(v))
		}
		table[i] = line
	}
	formatter.Table(header, table)
	fmt.Fprintf(formatter.Writer, "\n%d row(s), %d candidate(s)", len(res.Rows), res.Candidates)
	if res.Degraded {
		fmt.Fprint(formatter.Writer, ", residual only")
	}
	fmt.Fprintln(formatter.Writer)
	return nil
}

func storeError(err error) *CLIError {
	return &CLIError{Code: ErrCodeStore, Message: err.Error()}
}
