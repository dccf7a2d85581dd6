// Package scan executes filtered projections against an index: the WHERE
// clause is compiled to an index predicate plus residual filter, the index
// yields candidate ids, and candidate rows are filtered and projected in
// parallel batches.
//
// Results are deterministic: rows are returned in ascending id order no
// matter how many workers evaluate them.
package scan
