// Package store executes compiled corpus queries against SQLite or MySQL.
//
// The store is the execution side of query compilation: it runs the SQL
// produced by package resource and maps each result column back to the
// feature it carries.
//
// # SQLite
//
// Open registers a REGEXP function on every connection so that regex-mode
// queries work, and applies these pragmas:
//
//   - journal_mode=WAL: concurrent reads while fixtures are written
//   - busy_timeout=5000: wait for locks up to 5 seconds
//   - case_sensitive_like=OFF: restored after each case-sensitive query
//
// LIKE ignores collations in SQLite, so Run toggles case_sensitive_like
// on a pinned connection for case-sensitive queries.
//
// Linked resources live in separate database files that Attach makes
// visible under their database name. CreateTables and Insert build corpus
// fixtures from a schema.
//
// # MySQL
//
// New wraps an existing *sql.DB opened by the caller with a MySQL driver.
// No pragmas are applied.
package store
