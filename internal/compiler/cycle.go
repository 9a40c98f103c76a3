package compiler

import (
	"fmt"
	"strings"

	"github.com/roach88/corpusql/internal/graph"
	"github.com/roach88/corpusql/internal/schema"
)

// TableCycle is a cycle in the derived table graph of a schema.
type TableCycle struct {
	Path    []string `json:"path"`    // ["a", "b", "a"]
	Message string   `json:"message"`
}

// AnalyzeCycles reports every cycle among the id and annotation edges of
// s. Table path search cannot terminate on a cyclic graph, so any result
// makes the schema unusable. An acyclic schema returns an empty list.
func AnalyzeCycles(s *schema.Schema) []TableCycle {
	tables := s.Tables()
	adj := make(map[string][]string, len(tables))
	for _, t := range tables {
		adj[t] = s.ChildTables(t)
	}

	cycles := []TableCycle{}
	for _, path := range graph.FindCycles(tables, adj) {
		cycles = append(cycles, TableCycle{
			Path:    path,
			Message: fmt.Sprintf("table cycle: %s", strings.Join(path, " -> ")),
		})
	}
	return cycles
}
