// Package row is the reference RowContext: rows are slices of values laid
// out in schema order, and column references bind to slot readers.
package row

import (
	"fmt"

	"github.com/roach88/exprc/internal/diag"
	"github.com/roach88/exprc/internal/expr"
	"github.com/roach88/exprc/internal/scalar"
	"github.com/roach88/exprc/internal/value"
)

// Column is a named, typed column of a relation.
type Column struct {
	Name string
	Type value.DataType
}

// Schema is the ordered column list of a relation.
type Schema struct {
	columns []Column
	slots   map[string]int
}

// NewSchema creates a schema. Column names must be unique.
func NewSchema(columns ...Column) (*Schema, error) {
	s := &Schema{
		columns: append([]Column(nil), columns...),
		slots:   make(map[string]int, len(columns)),
	}
	for i, c := range columns {
		if _, dup := s.slots[c.Name]; dup {
			return nil, fmt.Errorf("duplicate column %q", c.Name)
		}
		s.slots[c.Name] = i
	}
	return s, nil
}

// Columns returns the columns in slot order.
func (s *Schema) Columns() []Column {
	return append([]Column(nil), s.columns...)
}

// Slot returns the slot of the named column.
func (s *Schema) Slot(name string) (int, bool) {
	i, ok := s.slots[name]
	return i, ok
}

// Types returns column name to type, as used by expr.Decoder.
func (s *Schema) Types() map[string]value.DataType {
	types := make(map[string]value.DataType, len(s.columns))
	for _, c := range s.columns {
		types[c.Name] = c.Type
	}
	return types
}

// Row builds a row from named values, coercing each to its column type.
// Columns without a value are null. Names not in the schema are an error.
func (s *Schema) Row(values map[string]value.Value) (Row, error) {
	r := make(Row, len(s.columns))
	for i := range r {
		r[i] = value.Null{}
	}
	for name, v := range values {
		slot, ok := s.slots[name]
		if !ok {
			return nil, fmt.Errorf("unknown column %q", name)
		}
		coerced, err := value.Coerce(v, s.columns[slot].Type)
		if err != nil {
			return nil, fmt.Errorf("column %s: %w", name, err)
		}
		r[slot] = coerced
	}
	return r, nil
}

// Row is one tuple in schema order.
type Row []value.Value

// Column implements scalar.Row.
func (r Row) Column(slot int) (value.Value, bool) {
	if slot < 0 || slot >= len(r) {
		return nil, false
	}
	return r[slot], true
}

// Get returns the value of the named column, or null.
func (r Row) Get(s *Schema, name string) value.Value {
	if slot, ok := s.Slot(name); ok && slot < len(r) {
		return r[slot]
	}
	return value.Null{}
}

// Context binds column references against a schema.
type Context struct {
	schema *Schema
}

// NewContext creates a row context for schema.
func NewContext(schema *Schema) *Context {
	return &Context{schema: schema}
}

// Bind implements scalar.RowContext. Void columns, and dynamic columns the
// schema does not declare, bind to scalar.Null.
func (c *Context) Bind(name string, kind expr.ColumnKind) (scalar.Evaluator, error) {
	if kind == expr.Void {
		return scalar.Null, nil
	}
	slot, ok := c.schema.Slot(name)
	if !ok {
		if kind == expr.Dynamic {
			return scalar.Null, nil
		}
		return nil, &diag.CompileError{
			Code:    diag.CodeInternalInvariant,
			Message: fmt.Sprintf("column %s is not part of the relation", name),
			Kind:    "ColumnRef",
			Node:    name,
		}
	}
	return &Ref{Name: name, Slot: slot}, nil
}

// Ref reads one slot of the current row.
type Ref struct {
	Name string
	Slot int
}

// Evaluate returns the slot's value, or null if the row is too short.
func (r *Ref) Evaluate(row scalar.Row) (value.Value, error) {
	v, ok := row.Column(r.Slot)
	if !ok || v == nil {
		return value.Null{}, nil
	}
	return v, nil
}

func (r *Ref) String() string {
	return r.Name
}
