// Package resource compiles query items into SQL for one corpus.
//
// A Resource bundles a validated schema, its table graph and the link
// registry of the active connection profile. It is immutable after New
// and safe for concurrent compilations. Per-call settings travel in
// Options; nothing is read from process-wide state.
//
// Compilation runs in four steps:
//
//  1. every query item is parsed into a token (package token)
//  2. quantified tokens are expanded into alternative sequences
//  3. each sequence is planned into a select (package planner)
//  4. the selects are combined with UNION ALL and rendered (package querysql)
//
// Holder swaps the active Resource atomically when the user switches
// corpus while compilations are in flight.
package resource
