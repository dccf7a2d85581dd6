package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/exprc/internal/schema"
)

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid   bool                     `json:"valid"`
	Indexes []IndexSummary           `json:"indexes,omitempty"`
	Errors  []schema.ValidationError `json:"errors,omitempty"`
}

// IndexSummary describes one valid index declaration.
type IndexSummary struct {
	Name   string            `json:"name"`
	Fields map[string]string `json:"fields"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <schema-dir>",
		Short: "Validate index declarations",
		Long: `Validate the CUE index declarations in a directory.

Every index is checked (field names, storage types, at least one field) and
all problems are reported, not just the first.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, schemaDir string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	loaded, errs := schema.LoadDir(schemaDir, schema.LoadModeCollectAll)
	if loaded == nil {
		// nothing to validate: missing directory, no files or broken CUE
		var loadErr *schema.LoadError
		if errors.As(errs[0], &loadErr) {
			return formatter.Fail(ExitCommandError, &CLIError{Code: loadErr.Code, Message: loadErr.Message})
		}
		return formatter.Fail(ExitCommandError, &CLIError{Code: ErrCodeGeneric, Message: errs[0].Error()})
	}
	formatter.VerboseLog("Found %d CUE file(s) in %s", loaded.FileCount, schemaDir)

	result := ValidationResult{Valid: len(errs) == 0}
	for _, err := range errs {
		result.Errors = append(result.Errors, toValidationError(err))
	}
	if result.Valid {
		for _, ix := range loaded.Indexes {
			formatter.VerboseLog("Validated index: %s", ix.Schema.Name)
			fields := make(map[string]string, len(ix.Schema.Fields))
			for name, t := range ix.Schema.Fields {
				fields[name] = t.String()
			}
			result.Indexes = append(result.Indexes, IndexSummary{Name: ix.Schema.Name, Fields: fields})
		}
	}
	return result.report(formatter)
}

// toValidationError converts a load error into the reported form. Messages
// of the form "field: problem" are split so the field can be reported on
// its own.
func toValidationError(err error) schema.ValidationError {
	var loadErr *schema.LoadError
	if !errors.As(err, &loadErr) {
		return schema.ValidationError{Field: "schema", Message: err.Error(), Code: ErrCodeGeneric}
	}
	ve := schema.ValidationError{Field: "schema", Message: loadErr.Message, Code: loadErr.Code}
	if f, m, ok := strings.Cut(loadErr.Message, ": "); ok {
		ve.Field, ve.Message = f, m
	}
	if loadErr.Pos.IsValid() {
		ve.Line = loadErr.Pos.Line()
	}
	return ve
}

// report writes r and returns an exit error with ExitFailure when r is
// invalid.
func (r ValidationResult) report(f *OutputFormatter) error {
	var failed error
	if !r.Valid {
		failed = NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(r.Errors)))
	}

	if f.isJSON() {
		if failed == nil {
			return f.Success(r)
		}
		first := r.Errors[0]
		if err := f.encode(CLIResponse{
			Status: "error",
			Data:   r,
			Error:  &CLIError{Code: first.Code, Message: first.Message},
		}); err != nil {
			return err
		}
		return failed
	}

	w := f.Writer
	if failed == nil {
		for _, ix := range r.Indexes {
			fmt.Fprintf(w, "  %s (%d field(s))\n", ix.Name, len(ix.Fields))
		}
		fmt.Fprintln(w, "✓ All indexes valid")
		return nil
	}

	fmt.Fprint(w, "✗ Validation failed\n\n")
	for _, e := range r.Errors {
		if e.Line > 0 {
			fmt.Fprintf(w, "line %d\n", e.Line)
		}
		fmt.Fprintf(w, "  %s: %s: %s\n\n", e.Code, e.Field, e.Message)
	}
	return failed
}
