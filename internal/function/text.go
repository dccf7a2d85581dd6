package function

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/roach88/exprc/internal/expr"
	"github.com/roach88/exprc/internal/value"
)

func textFunction(name string, fn func(string) value.Value) *simple {
	return &simple{name: name, eval: func(args []Arg) (value.Value, error) {
		if err := checkArity(name, args, 1); err != nil {
			return nil, err
		}
		vals, ok, err := strict(args)
		if err != nil || !ok {
			return value.Null{}, err
		}
		s, ok := vals[0].(value.Text)
		if !ok {
			return nil, fmt.Errorf("%s: expected text, got %s", name, value.TypeOf(vals[0]))
		}
		return fn(string(s)), nil
	}}
}

var (
	lowerFn  = textFunction("lower", func(s string) value.Value { return value.Text(strings.ToLower(s)) })
	upperFn  = textFunction("upper", func(s string) value.Value { return value.Text(strings.ToUpper(s)) })
	lengthFn = textFunction("length", func(s string) value.Value { return value.Integer(utf8.RuneCountInString(s)) })
)

// concat joins the text form of its arguments. Null arguments are skipped.
var concatFn = &simple{name: "concat", eval: func(args []Arg) (value.Value, error) {
	var b strings.Builder
	for _, arg := range args {
		v, err := arg()
		if err != nil {
			return nil, err
		}
		if value.IsNull(v) {
			continue
		}
		b.WriteString(value.Format(v))
	}
	return value.Text(b.String()), nil
}}

// regexpMatches reports whether the first argument matches the pattern in
// the second. A literal pattern is compiled once during specialization.
type regexpMatches struct {
	pattern *regexp.Regexp
}

func (r *regexpMatches) Info() Info { return Info{Name: "regexp_matches", Kind: KindScalar} }

func (r *regexpMatches) Specialize(args []expr.Expression, _ Principal) (Scalar, error) {
	if len(args) != 2 {
		return r, nil
	}
	lit, ok := expr.Unalias(args[1]).(*expr.Literal)
	if !ok {
		return r, nil
	}
	pattern, ok := lit.Value.(value.Text)
	if !ok {
		return r, nil
	}
	re, err := regexp.Compile(string(pattern))
	if err != nil {
		return nil, fmt.Errorf("regexp_matches: invalid pattern %q: %w", string(pattern), err)
	}
	return &regexpMatches{pattern: re}, nil
}

func (r *regexpMatches) Evaluate(args []Arg) (value.Value, error) {
	if err := checkArity("regexp_matches", args, 2); err != nil {
		return nil, err
	}
	vals, ok, err := strict(args)
	if err != nil || !ok {
		return value.Null{}, err
	}
	s, sok := vals[0].(value.Text)
	p, pok := vals[1].(value.Text)
	if !sok || !pok {
		return nil, fmt.Errorf("regexp_matches: expected text arguments, got %s and %s",
			value.TypeOf(vals[0]), value.TypeOf(vals[1]))
	}
	re := r.pattern
	if re == nil {
		re, err = regexp.Compile(string(p))
		if err != nil {
			return nil, fmt.Errorf("regexp_matches: invalid pattern %q: %w", string(p), err)
		}
	}
	return value.Bool(re.MatchString(string(s))), nil
}
