// Package diag defines the error taxonomy shared by the scalar and predicate
// compilers.
//
// Every compilation failure is a *CompileError carrying a Code and enough
// structured context (node kind, textual form, function signature, field) to
// diagnose the failing statement without re-running it. All codes abort
// compilation of the current statement; none are retried internally.
package diag

import (
	"errors"
	"fmt"
	"strings"
)

// Code categorizes compilation errors.
type Code string

const (
	// CodeUnsupportedFeature indicates a resolved catalog entry is not
	// scalar-callable, or a role/feature restriction blocks the operation.
	// User visible.
	CodeUnsupportedFeature Code = "UNSUPPORTED_FEATURE"

	// CodeInternalInvariant indicates a guarantee made by the analyzer or the
	// function registry did not hold. Never caused by user input.
	CodeInternalInvariant Code = "INTERNAL_INVARIANT_VIOLATION"

	// CodeTypeEncodingMismatch indicates a predicate literal cannot be encoded
	// in the column's storage type, or the column is absent from the index
	// schema. Callers may recover by degrading to residual filtering.
	CodeTypeEncodingMismatch Code = "TYPE_ENCODING_MISMATCH"
)

// CompileError is an error raised while compiling an expression tree.
type CompileError struct {
	// Code identifies the error category.
	Code Code

	// Message is a human-readable description.
	Message string

	// Kind is the expression node kind involved (e.g. "FunctionCall").
	Kind string

	// Node is the textual form of the offending expression.
	Node string

	// Function is the function name, for registry related errors.
	Function string

	// ArgTypes are the declared argument types of Function.
	ArgTypes []string

	// Field is the index field, for encoding errors.
	Field string

	// Err is the underlying cause, if any.
	Err error
}

// Error implements the error interface.
func (e *CompileError) Error() string {
	var b strings.Builder
	b.WriteString(string(e.Code))
	b.WriteString(": ")
	b.WriteString(e.Message)
	if e.Node != "" {
		if e.Kind != "" {
			fmt.Fprintf(&b, " [%s: %s]", e.Kind, e.Node)
		} else {
			fmt.Fprintf(&b, " [%s]", e.Node)
		}
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

// Unwrap returns the underlying cause.
func (e *CompileError) Unwrap() error {
	return e.Err
}

// CodeOf returns the Code of the first CompileError in err's chain, or "".
func CodeOf(err error) Code {
	var ce *CompileError
	if errors.As(err, &ce) {
		return ce.Code
	}
	return ""
}

// IsUnsupportedFeature returns true if err is an UNSUPPORTED_FEATURE error.
// Uses errors.As to handle wrapped errors.
func IsUnsupportedFeature(err error) bool {
	return CodeOf(err) == CodeUnsupportedFeature
}

// IsInternalInvariant returns true if err is an INTERNAL_INVARIANT_VIOLATION.
func IsInternalInvariant(err error) bool {
	return CodeOf(err) == CodeInternalInvariant
}

// IsTypeEncodingMismatch returns true if err is a TYPE_ENCODING_MISMATCH.
func IsTypeEncodingMismatch(err error) bool {
	return CodeOf(err) == CodeTypeEncodingMismatch
}

// NewNotScalarError reports a catalog entry that cannot be called per row.
func NewNotScalarError(name string, argTypes []string) *CompileError {
	return &CompileError{
		Code:     CodeUnsupportedFeature,
		Message:  fmt.Sprintf("function %s(%s) is not a scalar function", name, strings.Join(argTypes, ", ")),
		Kind:     "FunctionCall",
		Function: name,
		ArgTypes: argTypes,
	}
}

// NewUnsupportedError reports a feature-level restriction.
func NewUnsupportedError(message string) *CompileError {
	return &CompileError{
		Code:    CodeUnsupportedFeature,
		Message: message,
	}
}

// NewUnresolvedFunctionError reports a registry miss for a signature the
// analyzer already resolved.
func NewUnresolvedFunctionError(signature, node string) *CompileError {
	return &CompileError{
		Code:     CodeInternalInvariant,
		Message:  fmt.Sprintf("function implementation not found for resolved signature %s", signature),
		Kind:     "FunctionCall",
		Node:     node,
		Function: signature,
	}
}

// NewUnknownNodeError reports an expression kind a compiler cannot handle.
func NewUnknownNodeError(kind, node string) *CompileError {
	return &CompileError{
		Code:    CodeInternalInvariant,
		Message: "cannot handle expression",
		Kind:    kind,
		Node:    node,
	}
}

// NewMismatchError reports a literal or column that cannot be encoded for the
// index engine.
func NewMismatchError(field, node, message string, cause error) *CompileError {
	return &CompileError{
		Code:    CodeTypeEncodingMismatch,
		Message: message,
		Node:    node,
		Field:   field,
		Err:     cause,
	}
}
