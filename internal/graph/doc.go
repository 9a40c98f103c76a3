// Package graph derives the table graph of a corpus schema.
//
// Edges run from a parent table to a child table whenever the parent
// declares a <parent>_<child>_id feature, and from an annotation parent to
// its annotation table. The graph must be acyclic; New rejects cycles with
// a *CycleError so that path search can never loop.
//
// Path search is depth-first and returns the first path found, visiting
// children in declaration order. It does not guarantee the shortest path:
// a schema that reaches a table along two routes gets the route whose
// first edge was declared first.
package graph
