package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/roach88/exprc/internal/expr"
)

// Scenario defines an end-to-end test scenario.
type Scenario struct {
	// Name uniquely identifies this scenario. Also names the golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Index names the index the statements run against.
	Index string `yaml:"index"`

	// Schema is inline CUE source declaring the index.
	Schema string `yaml:"schema,omitempty"`

	// SchemaFile is a path to a CUE file declaring the index.
	// Relative paths are resolved against the scenario file's directory
	// when loaded with LoadScenarioWithBasePath.
	SchemaFile string `yaml:"schema_file,omitempty"`

	// Config overrides execution settings.
	Config *ScenarioConfig `yaml:"config,omitempty"`

	// Session is the identity statements run as.
	Session SessionSpec `yaml:"session,omitempty"`

	// Rows are inserted before any statement runs. Each row needs an "id".
	Rows []map[string]any `yaml:"rows"`

	// Statements run in order against the same index.
	Statements []Statement `yaml:"statements"`

	// StatementPrefix prefixes the deterministic statement ids.
	// If empty, defaults to "stmt".
	StatementPrefix string `yaml:"statement_prefix,omitempty"`
}

// ScenarioConfig overrides scan settings. Zero values keep the defaults.
type ScenarioConfig struct {
	OnMismatch string `yaml:"on_mismatch,omitempty"`
	Workers    int    `yaml:"workers,omitempty"`
	BatchSize  int    `yaml:"batch_size,omitempty"`
}

// SessionSpec describes the statement user and the roles snapshot.
type SessionSpec struct {
	User  string     `yaml:"user,omitempty"`
	Roles []RoleSpec `yaml:"roles,omitempty"`
}

// RoleSpec is one entry of the roles snapshot.
type RoleSpec struct {
	Name   string `yaml:"name"`
	IsUser bool   `yaml:"is_user"`
}

// Statement is one filtered projection with its expectations.
type Statement struct {
	Name   string      `yaml:"name"`
	Where  *expr.Spec  `yaml:"where,omitempty"`
	Select []expr.Spec `yaml:"select,omitempty"`
	Expect *Expect     `yaml:"expect,omitempty"`
}

// Expect specifies the expected statement outcome.
// This is a subset match: nil fields are not checked.
type Expect struct {
	// IDs are the ids of the returned rows, in order.
	IDs []int64 `yaml:"ids,omitempty"`

	// Columns are the output column names.
	Columns []string `yaml:"columns,omitempty"`

	// Values are the projected rows, compared after coercion to the
	// actual value's type.
	Values [][]any `yaml:"values,omitempty"`

	// Query is the rendered index predicate tree.
	Query string `yaml:"query,omitempty"`

	// Residual lists the residual expressions in text form.
	Residual []string `yaml:"residual,omitempty"`

	// Candidates is the number of ids the index returned.
	Candidates *int `yaml:"candidates,omitempty"`

	// Degraded reports whether the WHERE clause fell back to per-row
	// filtering after an encoding mismatch.
	Degraded *bool `yaml:"degraded,omitempty"`

	// Error is an error code (e.g. TYPE_ENCODING_MISMATCH) or a message
	// substring. When set, the statement must fail.
	Error string `yaml:"error,omitempty"`
}

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	return LoadScenarioWithBasePath(path, "")
}

// LoadScenarioWithBasePath reads and parses a scenario YAML file,
// resolving a relative schema_file against basePath.
func LoadScenarioWithBasePath(path, basePath string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	scenario, err := ParseScenario(data)
	if err != nil {
		return nil, err
	}

	// Resolve schema path relative to base path BEFORE validation
	if scenario.SchemaFile != "" && !filepath.IsAbs(scenario.SchemaFile) && basePath != "" {
		scenario.SchemaFile = filepath.Join(basePath, scenario.SchemaFile)
	}

	if err := validateScenario(scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return scenario, nil
}

// ParseScenario parses scenario YAML without validating it.
func ParseScenario(data []byte) (*Scenario, error) {
	// Parse YAML with strict field validation (catches typos like "statement:" vs "statements:")
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	if s.Index == "" {
		return fmt.Errorf("index is required")
	}

	if (s.Schema == "") == (s.SchemaFile == "") {
		return fmt.Errorf("exactly one of schema or schema_file is required")
	}

	if len(s.Statements) == 0 {
		return fmt.Errorf("statements list is required and must be non-empty")
	}

	for i, row := range s.Rows {
		if _, ok := row["id"]; !ok {
			return fmt.Errorf("rows[%d]: id is required", i)
		}
	}

	names := make(map[string]bool)
	for i, stmt := range s.Statements {
		if stmt.Name == "" {
			return fmt.Errorf("statements[%d]: name is required", i)
		}
		if names[stmt.Name] {
			return fmt.Errorf("statements[%d]: duplicate name %q", i, stmt.Name)
		}
		names[stmt.Name] = true
	}

	if s.Config != nil {
		switch s.Config.OnMismatch {
		case "", "fail", "residual":
		default:
			return fmt.Errorf("config.on_mismatch must be \"fail\" or \"residual\", got %q", s.Config.OnMismatch)
		}
	}

	return nil
}
