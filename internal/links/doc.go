// Package links provides the external link registry.
//
// A link is a one-way reference from a feature of the active corpus to a
// feature of another corpus, usually in another database. Selected
// features of the foreign corpus are addressed as
//
//	<link hash>.<foreign table>_<foreign feature>
//
// The hash is content-addressed: SHA-256 with domain separation over the
// NFC-normalised canonical form of the link, so it is stable across
// restarts and machines. Registries are built once per connection profile,
// from persisted YAML, and are read-only afterwards.
package links
