// Package predicate compiles boolean expressions into index predicate trees
// that an index engine can evaluate without touching row storage.
//
// The predicate tree is a sealed interface. Only the six node kinds in this
// package implement it:
//
//   - MatchAll: every document; the anchor of negation
//   - Term: field equals an encoded value
//   - Range: field within optional bounds
//   - Conjunction: all children match
//   - Disjunction: at least MinimumMatches children match
//   - Negation: documents not matched by the delegate
//
// A Negation is never evaluated alone: the compiler always places it in a
// Conjunction next to MatchAll so that "not X" means "everything minus X".
//
// Literal values are encoded in the declared storage type of the column
// (Schema), never the literal's own type. A long column compared with an
// integer literal produces a long Term.
//
// Subexpressions that cannot be expressed over an index (functions of a
// column, column-to-column comparisons, null literals, ...) are compiled by
// the scalar compiler and returned as the Plan's residual filter, applied to
// each row the index yields.
package predicate
