package harness

import "github.com/roach88/exprc/internal/value"

// RowResult is one projected row.
type RowResult struct {
	ID     int64         `json:"id"`
	Values []value.Value `json:"values"`
}

// StatementResult is the outcome of one statement.
type StatementResult struct {
	Name        string      `json:"name"`
	StatementID string      `json:"statement_id"`
	Query       string      `json:"query,omitempty"`
	Residual    []string    `json:"residual,omitempty"`
	Degraded    bool        `json:"degraded"`
	Candidates  int         `json:"candidates"`
	Columns     []string    `json:"columns,omitempty"`
	Rows        []RowResult `json:"rows,omitempty"`
	Error       string      `json:"error,omitempty"`
}

// IDs returns the ids of the returned rows.
func (s *StatementResult) IDs() []int64 {
	ids := make([]int64, 0, len(s.Rows))
	for _, r := range s.Rows {
		ids = append(ids, r.ID)
	}
	return ids
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass indicates overall test success.
	// True if all expect clauses match.
	Pass bool `json:"pass"`

	// Statements holds one result per statement, in scenario order.
	Statements []StatementResult `json:"statements"`

	// Errors contains validation error messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
// Used as the starting point for test execution.
func NewResult() *Result {
	return &Result{
		Pass:       true,
		Statements: []StatementResult{},
		Errors:     []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// Statement returns the result of the named statement.
func (r *Result) Statement(name string) (*StatementResult, bool) {
	for i := range r.Statements {
		if r.Statements[i].Name == name {
			return &r.Statements[i], true
		}
	}
	return nil, false
}
