// Package queryir defines the SQL syntax tree produced by the query planner.
//
// The tree sits between planning and text rendering:
//
//	[token items] → [planner] → [queryir] → [querysql renderer] → SQL text
//
// Building a tree first lets the planner be tested on structure (which
// tables are joined, under which aliases, with which predicates) instead
// of on string matching, and lets one tree be rendered for more than one
// dialect.
//
// SEALED INTERFACES:
//
// Query, Predicate and Expr are sealed with marker methods. Only types in
// this package implement them, so renderers can use exhaustive type
// switches:
//
//	switch q := query.(type) {
//	case *Select:
//	case *Union:
//	}
//
// VALUES:
//
// Literal values never become SQL text during planning. A Literal node
// carries a Go value (string or int64) and the renderer decides whether
// it becomes a ? placeholder or an inlined, quoted literal.
//
// CASE SENSITIVITY:
//
// A Text node marks an operand as a textual column compared with a given
// case sensitivity. The renderer maps it to BINARY, COLLATE BINARY or
// COLLATE NOCASE depending on the dialect.
package queryir
