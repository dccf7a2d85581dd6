package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/exprc/internal/value"
)

// Snapshot captures the observable outcome of a scenario execution.
// All fields use canonical JSON serialization for deterministic comparison.
type Snapshot struct {
	ScenarioName string            `json:"scenario_name"`
	Statements   []StatementResult `json:"statements"`
}

// toCanonicalMap converts a Snapshot to a map[string]any for canonical JSON serialization.
// This is required because value.MarshalCanonical only handles values and primitives.
func (s *Snapshot) toCanonicalMap() map[string]any {
	stmts := make([]any, len(s.Statements))
	for i, sr := range s.Statements {
		m := map[string]any{
			"name":       sr.Name,
			"degraded":   sr.Degraded,
			"candidates": sr.Candidates,
		}
		if sr.StatementID != "" {
			m["statement_id"] = sr.StatementID
		}
		if sr.Query != "" {
			m["query"] = sr.Query
		}
		if len(sr.Residual) > 0 {
			residual := make([]any, len(sr.Residual))
			for j, r := range sr.Residual {
				residual[j] = r
			}
			m["residual"] = residual
		}
		if len(sr.Columns) > 0 {
			cols := make([]any, len(sr.Columns))
			for j, c := range sr.Columns {
				cols[j] = c
			}
			m["columns"] = cols
		}
		if sr.Error != "" {
			m["error"] = sr.Error
		} else {
			rows := make([]any, len(sr.Rows))
			for j, r := range sr.Rows {
				vals := make([]any, len(r.Values))
				for k, v := range r.Values {
					vals[k] = v
				}
				rows[j] = map[string]any{"id": r.ID, "values": vals}
			}
			m["rows"] = rows
		}
		stmts[i] = m
	}
	return map[string]any{
		"scenario_name": s.ScenarioName,
		"statements":    stmts,
	}
}

// MarshalSnapshot renders a result as canonical JSON.
func MarshalSnapshot(name string, result *Result) ([]byte, error) {
	snapshot := Snapshot{ScenarioName: name, Statements: result.Statements}
	return value.MarshalCanonical(snapshot.toCanonicalMap())
}

// RunWithGolden executes a scenario and compares the outcome against a golden file.
// The golden file is stored in testdata/golden/{scenario.Name}.golden
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns error if scenario execution fails.
// Test failure (via goldie) occurs if the outcome doesn't match the golden file.
func RunWithGolden(t *testing.T, scenario *Scenario) error {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return err
	}
	return AssertGolden(t, scenario.Name, result)
}

// AssertGolden compares the given result against a golden file without
// re-running the scenario.
func AssertGolden(t *testing.T, scenarioName string, result *Result) error {
	t.Helper()

	data, err := MarshalSnapshot(scenarioName, result)
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenarioName, data)

	return nil
}
