// Package harness runs query conformance scenarios.
//
// A scenario loads one or more CUE resource files, fills an in-memory
// SQLite database with fixture rows, then compiles and runs a list of
// queries against it. Each step may pin the exact SQL text, the bound
// parameters, the result columns, the result rows or an expected error.
//
// # Scenario Format
//
//	name: two_tokens
//	description: "a word followed by a noun"
//	schemas:
//	  - schemas/mini.cue
//	resource: mini
//	links: links.yaml          # optional link registry
//	link_profile: default
//	query_id: q-1              # fixed id, defaults to test-query-default
//	fixtures:
//	  - table: word
//	    rows:
//	      - {word_id: 1, word_text: walk}
//	  - resource: celex        # rows of a linked resource
//	    table: word
//	    rows: [...]
//	steps:
//	  - query: [walk, "[n*]"]
//	    features: [word_text]
//	    options: {case_sensitive: false, regex: false, limit: 0}
//	    expect:
//	      sql: "SELECT ..."
//	      params: [walk, n%]
//	      columns: [coq_word_text_1, coq_word_text_2]
//	      rows:
//	        - [walk, home]
//	      count: 1
//
// Steps compiled for a dialect other than sqlite are compile-only: their
// SQL and parameters are checked but nothing is executed.
//
// Unless a step sets ordered: true, expected rows are compared as a
// multiset. Compiled queries carry no ORDER BY, so the database is free
// to return them in any order.
//
// # Golden Files
//
// RunWithGolden snapshots the compiled SQL and sorted rows of every step
// into testdata/golden/<name>.golden. Regenerate with
//
//	go test ./internal/harness -update
package harness
