// Package expr defines the typed, immutable expression tree handed to the
// scalar and predicate compilers by the analyzer.
//
// Expression is a sealed interface using the marker method pattern. Only the
// four node kinds in this package implement it:
//
//   - Literal: a constant value with its declared type
//   - ColumnRef: a reference to an ordinary, dynamic or void column
//   - FunctionCall: a resolved function signature applied to ordered arguments
//   - Alias: a named wrapper that contributes no computation
//
// Boolean connectives (and, or, not) and comparisons (eq, neq, lt, lte, gt,
// gte) are FunctionCalls over fixed symbols; there is no separate operator
// node kind. This enables exhaustive type switches in both compilers:
//
//	switch e := e.(type) {
//	case *expr.Literal:
//	case *expr.ColumnRef:
//	case *expr.FunctionCall:
//	case *expr.Alias:
//	default:
//	    // defect in the analyzer
//	}
//
// Once constructed, a tree is never mutated. The same tree may be compiled
// any number of times, by either compiler, concurrently.
package expr
