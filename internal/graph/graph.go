package graph

import (
	"errors"
	"fmt"
	"strings"

	"github.com/roach88/corpusql/internal/schema"
)

// ErrNoPath is returned by PathBetween when the end table is not in the
// table tree of the start table.
var ErrNoPath = errors.New("no table path")

// CycleError reports a cycle in the table graph.
type CycleError struct {
	Path []string // ["a", "b", "a"]
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("table graph cycle: %s", strings.Join(e.Path, " → "))
}

// Graph is the derived table graph of one schema. Trees are computed once
// in New; the value is read-only afterwards and safe for concurrent use.
type Graph struct {
	schema *schema.Schema
	adj    map[string][]string
	trees  map[string][]string
}

// New builds the graph for s and rejects cyclic schemas.
func New(s *schema.Schema) (*Graph, error) {
	g := &Graph{
		schema: s,
		adj:    make(map[string][]string),
		trees:  make(map[string][]string),
	}
	tables := s.Tables()
	for _, t := range tables {
		g.adj[t] = s.ChildTables(t)
	}

	if cycles := FindCycles(tables, g.adj); len(cycles) > 0 {
		return nil, &CycleError{Path: cycles[0]}
	}

	for _, t := range tables {
		g.trees[t] = g.collectTree(t)
	}
	return g, nil
}

// Schema returns the schema the graph was derived from.
func (g *Graph) Schema() *schema.Schema {
	return g.schema
}

// ChildTables returns the direct children of table.
func (g *Graph) ChildTables(table string) []string {
	return append([]string(nil), g.adj[table]...)
}

// TableTree returns table and every table reachable from it, in depth-first
// preorder. Unknown tables yield nil.
func (g *Graph) TableTree(table string) []string {
	return append([]string(nil), g.trees[table]...)
}

// Reaches reports whether end is in the table tree of start.
func (g *Graph) Reaches(start, end string) bool {
	for _, t := range g.trees[start] {
		if t == end {
			return true
		}
	}
	return false
}

func (g *Graph) collectTree(table string) []string {
	seen := make(map[string]bool)
	var out []string
	var walk func(string)
	walk = func(t string) {
		if seen[t] {
			return
		}
		seen[t] = true
		out = append(out, t)
		for _, c := range g.adj[t] {
			walk(c)
		}
	}
	walk(table)
	return out
}

// PathBetween returns the inclusive table path [start, ..., end].
//
// PathBetween(t, t) is [t]. When end is a direct child of start the result
// is [start, end]; otherwise each child is searched in declaration order
// and the first successful branch wins. ErrNoPath is returned (wrapped)
// when no chain of linking features exists.
func (g *Graph) PathBetween(start, end string) ([]string, error) {
	if _, ok := g.adj[start]; !ok {
		return nil, fmt.Errorf("%w: unknown table %q", ErrNoPath, start)
	}
	if start == end {
		return []string{start}, nil
	}

	var stack []string
	path, err := g.search(start, end, &stack)
	if err != nil {
		return nil, err
	}
	if path == nil {
		return nil, fmt.Errorf("%w from %s to %s", ErrNoPath, start, end)
	}
	return path, nil
}

// search is the depth-first step of PathBetween. The stack guards against
// cycles that slipped past New.
func (g *Graph) search(table, end string, stack *[]string) ([]string, error) {
	for i, t := range *stack {
		if t == table {
			cycle := append(append([]string(nil), (*stack)[i:]...), table)
			return nil, &CycleError{Path: cycle}
		}
	}
	*stack = append(*stack, table)
	defer func() { *stack = (*stack)[:len(*stack)-1] }()

	children := g.adj[table]
	for _, c := range children {
		if c == end {
			return []string{table, end}, nil
		}
	}
	for _, c := range children {
		sub, err := g.search(c, end, stack)
		if err != nil {
			return nil, err
		}
		if sub != nil {
			return append([]string{table}, sub...), nil
		}
	}
	return nil, nil
}
