// Package schema loads index schemas declared in CUE.
//
// An index declares the storage type of every indexed field:
//
//	indexes: docs: {
//		description: "Order documents"
//		fields: {
//			id:     "long"
//			status: "keyword"
//			total:  "double"
//		}
//	}
//
// Accepted types are integer, long, float, double, keyword (text) and
// boolean, plus the aliases value.ParseDataType understands. Compiled
// schemas are returned as predicate.Schema values.
package schema
