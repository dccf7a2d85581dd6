package cli

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/roach88/exprc/internal/expr"
	"github.com/roach88/exprc/internal/schema"
	"github.com/roach88/exprc/internal/value"
)

// loadIndex loads the schema directory and returns the named index. With
// an empty name, the directory must declare exactly one index.
func loadIndex(dir, name string, formatter *OutputFormatter) (*schema.Index, *CLIError) {
	result, errs := schema.LoadDir(dir, schema.LoadModeFailFast)
	if len(errs) > 0 {
		var loadErr *schema.LoadError
		if errors.As(errs[0], &loadErr) {
			return nil, &CLIError{Code: loadErr.Code, Message: loadErr.Error()}
		}
		return nil, &CLIError{Code: ErrCodeGeneric, Message: errs[0].Error()}
	}
	formatter.VerboseLog("Found %d CUE file(s) in %s", result.FileCount, dir)

	if name == "" {
		if len(result.Indexes) != 1 {
			names := make([]string, len(result.Indexes))
			for i, ix := range result.Indexes {
				names[i] = ix.Schema.Name
			}
			return nil, &CLIError{
				Code:    ErrCodeUnknownIndex,
				Message: fmt.Sprintf("schema declares %d indexes, choose one with --index: %s", len(names), strings.Join(names, ", ")),
			}
		}
		return &result.Indexes[0], nil
	}

	ix, ok := result.Index(name)
	if !ok {
		return nil, &CLIError{Code: ErrCodeUnknownIndex, Message: fmt.Sprintf("index %q not declared in %s", name, dir)}
	}
	return ix, nil
}

// readSource returns src, or the contents of the file it names when it
// starts with '@'.
func readSource(src string) ([]byte, error) {
	if path, ok := strings.CutPrefix(src, "@"); ok {
		return os.ReadFile(path)
	}
	return []byte(src), nil
}

// parseExpression decodes an expression given as YAML or JSON flow text
// (or @file).
func parseExpression(src string, dec *expr.Decoder) (expr.Expression, error) {
	data, err := readSource(src)
	if err != nil {
		return nil, err
	}
	spec, err := expr.ParseYAML(data)
	if err != nil {
		return nil, err
	}
	return dec.Decode(spec)
}

// Row is one input row: an id plus named values.
type Row struct {
	ID     int64
	Values map[string]value.Value
}

// readRows loads a YAML or JSON list of objects, each with an integer "id".
func readRows(path string) ([]Row, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var raw []map[string]any
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	if err := decoder.Decode(&raw); err != nil {
		return nil, fmt.Errorf("failed to parse rows: %w", err)
	}

	rows := make([]Row, 0, len(raw))
	for i, r := range raw {
		idVal, err := value.FromAny(r["id"])
		if err != nil {
			return nil, fmt.Errorf("row %d: id: %w", i, err)
		}
		id, ok := value.AsInt64(idVal)
		if !ok {
			return nil, fmt.Errorf("row %d: id must be an integer", i)
		}
		values := make(map[string]value.Value, len(r))
		for name, v := range r {
			if name == "id" {
				continue
			}
			converted, err := value.FromAny(v)
			if err != nil {
				return nil, fmt.Errorf("row %d: %s: %w", i, name, err)
			}
			values[name] = converted
		}
		rows = append(rows, Row{ID: id, Values: values})
	}
	return rows, nil
}
