// Package planner turns one fixed-length token sequence and a list of
// output features into a queryir.Select.
//
// The corpus root table is joined once per occupied token position under
// the alias COQ_<ROOT>_<pos>. The most specific token drives the scan and
// is the FROM table; every other occupied position joins it with
//
//	COQ_CORPUS_i.ID = COQ_CORPUS_d.ID + (off_i - off_d)
//
// where off is the corpus offset of a position (empty quantifier slots do
// not advance it). A sequence of n occupied positions therefore has n-1
// self-joins.
//
// Feature tables are joined per position along the table graph path from
// the root, parent first, under COQ_<TABLE>_<pos>. Optional tables, their
// descendants and annotation tables are LEFT joined. Features that do not
// vary per token (file metadata, speakers) are joined once, at the first
// occupied position.
//
// Linked features ("<hash>.<table>_<feature>") join the link's target
// table in the foreign database once per (link, position), then follow the
// foreign schema's graph to the requested table.
//
// A Planner is immutable after New and safe for concurrent use.
package planner
