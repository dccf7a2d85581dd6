package schema

import (
	"fmt"
	"regexp"
	"sort"
)

// Validation error codes (E100-E199)
const (
	ErrIndexNoFields    = "E101" // at least one field required
	ErrInvalidFieldType = "E102" // unknown or non-storable type
	ErrInvalidFieldName = "E103" // field name is not an identifier path
	ErrInvalidIndexName = "E104" // index name is not an identifier
)

// ValidationError represents a schema validation error.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
	Line    int    `json:"line,omitempty"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("[%s] line %d: %s: %s", e.Code, e.Line, e.Field, e.Message)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

var (
	indexNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)
	fieldNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)*$`)
)

// Validate checks a compiled index declaration.
// Returns all errors found (does not fail-fast), ordered by field name.
func Validate(ix *Index) []ValidationError {
	var errs []ValidationError
	line := 0
	if ix.Pos.IsValid() {
		line = ix.Pos.Line()
	}

	// E104: index name must be usable as an identifier
	if !indexNamePattern.MatchString(ix.Schema.Name) {
		errs = append(errs, ValidationError{
			Field:   "name",
			Message: fmt.Sprintf("invalid index name %q", ix.Schema.Name),
			Code:    ErrInvalidIndexName,
			Line:    line,
		})
	}

	// E101: at least one field required
	if len(ix.Schema.Fields) == 0 {
		errs = append(errs, ValidationError{
			Field:   "fields",
			Message: "at least one field is required",
			Code:    ErrIndexNoFields,
			Line:    line,
		})
	}

	names := make([]string, 0, len(ix.Schema.Fields))
	for name := range ix.Schema.Fields {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		path := "fields." + name

		// E103: field names are dotted identifiers
		if !fieldNamePattern.MatchString(name) {
			errs = append(errs, ValidationError{
				Field:   path,
				Message: fmt.Sprintf("invalid field name %q", name),
				Code:    ErrInvalidFieldName,
				Line:    line,
			})
		}

		// E102: the type must name a storage type
		if !ix.Schema.Fields[name].IsStorable() {
			errs = append(errs, ValidationError{
				Field:   path,
				Message: fmt.Sprintf("invalid type %q for field %q", ix.Types[name], name),
				Code:    ErrInvalidFieldType,
				Line:    line,
			})
		}
	}

	return errs
}
