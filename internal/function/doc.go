// Package function defines the function registry capability consumed by the
// scalar compiler, and provides Catalog, an in-memory registry with the
// built-in functions.
//
// A Registry maps a resolved signature to an Implementation. Only Scalar
// implementations can be compiled into per-row evaluators; aggregates and
// table functions are registered so that signature resolution succeeds and
// the compiler can reject them with a precise error.
//
// Scalar implementations are specialized once per compilation via
// Specialize, which sees the argument expressions and the session principal.
// Specialize returns a new Scalar and never mutates the receiver, so every
// Scalar is safe for concurrent use by any number of evaluators.
package function
