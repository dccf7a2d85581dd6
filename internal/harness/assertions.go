package harness

import (
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/exprc/internal/value"
)

// Assertion kinds, one per Expect field.
const (
	AssertIDs        = "ids"
	AssertColumns    = "columns"
	AssertValues     = "values"
	AssertQuery      = "query"
	AssertResidual   = "residual"
	AssertCandidates = "candidates"
	AssertDegraded   = "degraded"
	AssertError      = "error"
)

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string // Assertion type for categorization
	Expected string // Human-readable expected outcome
	Actual   string // Human-readable actual outcome
	Cause    string // Statement error, if any
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)
	if e.Cause != "" {
		fmt.Fprintf(&buf, "  Statement error: %s\n", e.Cause)
	}

	return buf.String()
}

// checkExpect compares a statement result against its expect clause and
// returns one message per failed assertion.
func checkExpect(sr *StatementResult, exp *Expect) []string {
	var errs []error

	if exp.Error != "" {
		if sr.Error == "" || !strings.Contains(sr.Error, exp.Error) {
			errs = append(errs, &AssertionError{
				Type:     AssertError,
				Expected: fmt.Sprintf("error containing %q", exp.Error),
				Actual:   fmt.Sprintf("%q", sr.Error),
			})
		}
		return messages(errs)
	}
	if sr.Error != "" {
		return messages([]error{&AssertionError{
			Type:     AssertError,
			Expected: "success",
			Actual:   "error",
			Cause:    sr.Error,
		}})
	}

	if exp.IDs != nil && !slices.Equal(exp.IDs, sr.IDs()) {
		errs = append(errs, &AssertionError{
			Type:     AssertIDs,
			Expected: fmt.Sprint(exp.IDs),
			Actual:   fmt.Sprint(sr.IDs()),
		})
	}

	if exp.Columns != nil && !slices.Equal(exp.Columns, sr.Columns) {
		errs = append(errs, &AssertionError{
			Type:     AssertColumns,
			Expected: fmt.Sprint(exp.Columns),
			Actual:   fmt.Sprint(sr.Columns),
		})
	}

	if exp.Values != nil {
		if err := assertValues(sr.Rows, exp.Values); err != nil {
			errs = append(errs, err)
		}
	}

	if exp.Query != "" && strings.TrimSpace(exp.Query) != strings.TrimSpace(sr.Query) {
		errs = append(errs, &AssertionError{
			Type:     AssertQuery,
			Expected: "\n" + exp.Query,
			Actual:   "\n" + sr.Query,
		})
	}

	if exp.Residual != nil && !slices.Equal(exp.Residual, sr.Residual) {
		errs = append(errs, &AssertionError{
			Type:     AssertResidual,
			Expected: fmt.Sprintf("%q", exp.Residual),
			Actual:   fmt.Sprintf("%q", sr.Residual),
		})
	}

	if exp.Candidates != nil && *exp.Candidates != sr.Candidates {
		errs = append(errs, &AssertionError{
			Type:     AssertCandidates,
			Expected: fmt.Sprint(*exp.Candidates),
			Actual:   fmt.Sprint(sr.Candidates),
		})
	}

	if exp.Degraded != nil && *exp.Degraded != sr.Degraded {
		errs = append(errs, &AssertionError{
			Type:     AssertDegraded,
			Expected: fmt.Sprint(*exp.Degraded),
			Actual:   fmt.Sprint(sr.Degraded),
		})
	}

	return messages(errs)
}

// assertValues compares projected rows. Expected values are coerced to the
// type of the actual value so YAML integers match long or double columns.
func assertValues(rows []RowResult, expected [][]any) error {
	actual := make([]string, len(rows))
	for i, r := range rows {
		actual[i] = formatRow(r.Values)
	}
	fail := func() error {
		want := make([]string, len(expected))
		for i, row := range expected {
			want[i] = fmt.Sprint(row)
		}
		return &AssertionError{
			Type:     AssertValues,
			Expected: strings.Join(want, " "),
			Actual:   strings.Join(actual, " "),
		}
	}

	if len(rows) != len(expected) {
		return fail()
	}
	for i, row := range rows {
		if len(row.Values) != len(expected[i]) {
			return fail()
		}
		for j, got := range row.Values {
			if !valueMatches(got, expected[i][j]) {
				return fail()
			}
		}
	}
	return nil
}

func valueMatches(got value.Value, raw any) bool {
	want, err := value.FromAny(raw)
	if err != nil {
		return false
	}
	if value.IsNull(got) || value.IsNull(want) {
		return value.IsNull(got) && value.IsNull(want)
	}
	coerced, err := value.Coerce(want, value.TypeOf(got))
	if err != nil {
		return false
	}
	return value.Equal(got, coerced)
}

func formatRow(vals []value.Value) string {
	parts := make([]string, len(vals))
	for i, v := range vals {
		parts[i] = value.Format(v)
	}
	return "[" + strings.Join(parts, " ") + "]"
}

func messages(errs []error) []string {
	out := make([]string, len(errs))
	for i, err := range errs {
		out[i] = err.Error()
	}
	return out
}
