package schema

import (
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"

	"github.com/roach88/exprc/internal/predicate"
	"github.com/roach88/exprc/internal/value"
)

// indexDefinition closes each index struct so typos in keys are reported
// by CUE rather than silently ignored.
const indexDefinition = `
#Index: {
	description?: string
	fields: [string]: string
}
`

// Index is a compiled index declaration.
type Index struct {
	Schema      predicate.Schema
	Description string
	// Types holds the declared type names keyed by field, before
	// normalization. Used for error reporting.
	Types map[string]string
	Pos   token.Pos
}

// CompileIndex parses a CUE value into an index schema.
//
// The CUE value should be the index struct itself, e.g.:
//
//	ctx := cuecontext.New()
//	v := ctx.CompileString(`indexes: docs: { fields: { x: "long" } }`)
//	ix, err := CompileIndex(v.LookupPath(cue.ParsePath("indexes.docs")))
func CompileIndex(v cue.Value) (*Index, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	def := v.Context().CompileString(indexDefinition).LookupPath(cue.ParsePath("#Index"))
	if err := v.Unify(def).Validate(cue.Concrete(true)); err != nil {
		return nil, formatCUEError(err)
	}

	ix := &Index{
		Schema: predicate.Schema{Fields: make(map[string]value.DataType)},
		Types:  make(map[string]string),
		Pos:    v.Pos(),
	}

	labels := v.Path().Selectors()
	if len(labels) > 0 {
		ix.Schema.Name = labels[len(labels)-1].Unquoted()
	}

	if desc := v.LookupPath(cue.ParsePath("description")); desc.Exists() {
		s, err := desc.String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		ix.Description = s
	}

	fieldsVal := v.LookupPath(cue.ParsePath("fields"))
	if !fieldsVal.Exists() {
		return nil, &CompileError{
			Field:   "fields",
			Message: "fields is required",
			Pos:     v.Pos(),
		}
	}
	iter, err := fieldsVal.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}
	for iter.Next() {
		name := iter.Selector().Unquoted()
		typeName, err := iter.Value().String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		ix.Types[name] = typeName
		// Unknown names are kept as Undefined and reported by Validate.
		dt, _ := value.ParseDataType(typeName)
		ix.Schema.Fields[name] = dt
	}

	return ix, nil
}

// CompileError reports a malformed index declaration.
type CompileError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}

	// CUE errors may contain multiple errors
	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	// Return first error with position info
	firstErr := errs[0]
	positions := errors.Positions(firstErr)
	if len(positions) > 0 {
		return &CompileError{
			Field:   "cue",
			Message: firstErr.Error(),
			Pos:     positions[0],
		}
	}

	return err
}
