// Package harness runs end-to-end scenarios against the expression
// compilers.
//
// A scenario declares an index schema in CUE, a set of rows, and a list of
// statements. Each statement is decoded into an expression tree, compiled
// into an index predicate tree plus residual filter, and executed against a
// fresh in-memory store. Expectations are subset checks: only the fields an
// expect clause sets are compared.
//
// Scenario format:
//
//	name: pushdown_basics
//	description: Comparisons on indexed columns are pushed into the index
//	index: docs
//	schema: |
//	  indexes: docs: fields: { x: "long", name: "keyword" }
//	rows:
//	  - {id: 1, x: 1, name: a}
//	  - {id: 2, x: 2, name: b}
//	statements:
//	  - name: greater_than
//	    where: {call: gt, args: [{column: x}, {literal: 1}]}
//	    expect:
//	      ids: [2]
//	      query: |
//	        Range x:{1 TO *}
//
// Runs are deterministic: statement ids come from a sequence generator, so
// the same scenario always produces byte-identical golden output.
package harness
