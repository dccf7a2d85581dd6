// Package scalar compiles expression trees into evaluator trees that compute
// one value per row.
//
// Compilation is a single recursive pass over the expression:
//
//   - Literal compiles to a Constant
//   - Alias compiles to its inner expression
//   - ColumnRef is bound by the RowContext, whatever its kind
//   - FunctionCall is resolved in the Registry, specialized for the session
//     and compiled argument by argument
//
// Evaluator trees are immutable once built and may be evaluated from many
// goroutines at once.
package scalar
