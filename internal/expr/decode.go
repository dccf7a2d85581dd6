package expr

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/roach88/exprc/internal/value"
)

// Spec is the serialized form of an expression tree, as found in fixtures,
// scenarios and CLI input. Exactly one of Call, Column, Literal or Alias is
// set. A bare YAML scalar is shorthand for a literal.
//
//	call: and
//	args:
//	  - {call: eq, args: [{column: x}, 1]}
//	  - {column: name, kind: dynamic}
//	  - {literal: 5, type: integer}
//	  - {alias: total, expr: {column: x}}
//
// JSON input decodes through the same path since YAML is a superset of JSON.
type Spec struct {
	Call    string `yaml:"call,omitempty"`
	Args    []Spec `yaml:"args,omitempty"`
	Column  string `yaml:"column,omitempty"`
	Kind    string `yaml:"kind,omitempty"`
	Literal any    `yaml:"literal,omitempty"`
	Type    string `yaml:"type,omitempty"`
	Alias   string `yaml:"alias,omitempty"`
	Expr    *Spec  `yaml:"expr,omitempty"`

	// hasLiteral distinguishes `literal: null` from an absent literal key.
	hasLiteral bool
}

var specKeys = map[string]bool{
	"call": true, "args": true, "column": true, "kind": true,
	"literal": true, "type": true, "alias": true, "expr": true,
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (s *Spec) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		var lit any
		if err := node.Decode(&lit); err != nil {
			return err
		}
		*s = Spec{Literal: lit, hasLiteral: true}
		return nil
	}
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: expression must be a mapping or a scalar", node.Line)
	}

	hasLiteral := false
	for i := 0; i+1 < len(node.Content); i += 2 {
		key := node.Content[i].Value
		if !specKeys[key] {
			return fmt.Errorf("line %d: field %s not found in expression", node.Content[i].Line, key)
		}
		if key == "literal" {
			hasLiteral = true
		}
	}

	type raw Spec
	var r raw
	if err := node.Decode(&r); err != nil {
		return err
	}
	*s = Spec(r)
	s.hasLiteral = hasLiteral
	return nil
}

// HasLiteral reports whether s describes a literal.
func (s Spec) HasLiteral() bool {
	return s.hasLiteral
}

// ParseYAML decodes a single expression spec.
func ParseYAML(data []byte) (Spec, error) {
	var s Spec
	dec := yaml.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(&s); err != nil {
		if errors.Is(err, io.EOF) {
			return Spec{}, fmt.Errorf("empty expression")
		}
		return Spec{}, fmt.Errorf("parse expression: %w", err)
	}
	return s, nil
}

// FunctionResolver supplies the return type of a function for the given
// argument types. function.Catalog implements it.
type FunctionResolver interface {
	ReturnType(name string, argTypes []value.DataType) (value.DataType, bool)
}

// Decoder turns Specs into typed expression trees.
type Decoder struct {
	// Columns are the columns of the relation. A referenced column that is
	// not listed decodes as a void reference unless its kind is dynamic.
	Columns map[string]value.DataType

	// Functions resolves call return types. When nil, only connectives and
	// comparisons (which return boolean) can be decoded without an explicit
	// type.
	Functions FunctionResolver
}

// Decode builds the expression described by s.
func (d *Decoder) Decode(s Spec) (Expression, error) {
	set := 0
	for _, b := range []bool{s.Call != "", s.Column != "", s.hasLiteral, s.Alias != ""} {
		if b {
			set++
		}
	}
	if set != 1 {
		return nil, fmt.Errorf("expression must set exactly one of call, column, literal or alias")
	}

	switch {
	case s.hasLiteral:
		return d.decodeLiteral(s)
	case s.Column != "":
		return d.decodeColumn(s)
	case s.Alias != "":
		if s.Expr == nil {
			return nil, fmt.Errorf("alias %s: missing expr", s.Alias)
		}
		inner, err := d.Decode(*s.Expr)
		if err != nil {
			return nil, fmt.Errorf("alias %s: %w", s.Alias, err)
		}
		return As(inner, s.Alias), nil
	default:
		return d.decodeCall(s)
	}
}

func (d *Decoder) decodeLiteral(s Spec) (Expression, error) {
	v, err := value.FromAny(s.Literal)
	if err != nil {
		return nil, fmt.Errorf("literal: %w", err)
	}
	if s.Type == "" {
		return Lit(v), nil
	}
	t, ok := value.ParseDataType(s.Type)
	if !ok {
		return nil, fmt.Errorf("literal: unknown type %q", s.Type)
	}
	coerced, err := value.Coerce(v, t)
	if err != nil {
		return nil, fmt.Errorf("literal: %w", err)
	}
	return TypedLit(coerced, t), nil
}

func (d *Decoder) decodeColumn(s Spec) (Expression, error) {
	kind, err := ParseColumnKind(s.Kind)
	if err != nil {
		return nil, fmt.Errorf("column %s: %w", s.Column, err)
	}
	declared := value.Undefined
	if s.Type != "" {
		t, ok := value.ParseDataType(s.Type)
		if !ok {
			return nil, fmt.Errorf("column %s: unknown type %q", s.Column, s.Type)
		}
		declared = t
	}
	if kind == Void {
		return VoidCol(s.Column), nil
	}

	t, known := d.Columns[s.Column]
	if !known && d.Columns == nil && s.Type != "" {
		t, known = declared, true
	}
	if !known {
		if kind == Dynamic {
			return DynamicCol(s.Column, declared), nil
		}
		return VoidCol(s.Column), nil
	}
	if s.Type != "" && declared != t {
		return nil, fmt.Errorf("column %s: declared type %s does not match relation type %s", s.Column, declared, t)
	}
	return &ColumnRef{Name: s.Column, DataType: t, Kind: kind}, nil
}

func (d *Decoder) decodeCall(s Spec) (Expression, error) {
	args := make([]Expression, len(s.Args))
	argTypes := make([]value.DataType, len(s.Args))
	for i, a := range s.Args {
		arg, err := d.Decode(a)
		if err != nil {
			return nil, fmt.Errorf("%s arg %d: %w", s.Call, i, err)
		}
		args[i] = arg
		argTypes[i] = arg.ValueType()
	}

	ret, err := d.returnType(s, argTypes)
	if err != nil {
		return nil, err
	}
	return Call(s.Call, ret, args...), nil
}

func (d *Decoder) returnType(s Spec, argTypes []value.DataType) (value.DataType, error) {
	if s.Type != "" {
		t, ok := value.ParseDataType(s.Type)
		if !ok {
			return value.Undefined, fmt.Errorf("%s: unknown type %q", s.Call, s.Type)
		}
		return t, nil
	}
	if d.Functions != nil {
		t, ok := d.Functions.ReturnType(s.Call, argTypes)
		if !ok {
			sig := Signature{Name: s.Call, ArgumentTypes: argTypes}
			return value.Undefined, fmt.Errorf("unknown function %s(%s)", s.Call, strings.Join(sig.ArgumentTypeNames(), ", "))
		}
		return t, nil
	}
	if IsComparison(s.Call) || IsConnective(s.Call) {
		return value.Boolean, nil
	}
	return value.Undefined, fmt.Errorf("%s: return type unknown without a function resolver", s.Call)
}
