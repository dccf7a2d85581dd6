// Package store is the reference index engine: a SQLite-backed inverted
// index that answers predicate trees with document ids.
//
// Layout:
//   - indexes: one row per index with its field storage types
//   - documents: the stored values of each document as canonical JSON
//   - postings: one (field, key, doc_id) row per non-null field value
//
// Posting keys use predicate.EncodeKey, so byte order equals value order
// within a field and Range predicates become key range scans.
//
// # Critical Patterns
//
// Deterministic Query Results
//   - Search always returns ids in ascending order
//   - Fetch always returns documents in ascending id order
//
// Parameterized SQL
//   - Values are never interpolated into statements (see querysql)
//
// Storage-Type Encoding
//   - Inserted values are coerced to the field's storage type before they are
//     encoded, exactly as the predicate compiler encodes literals
package store
