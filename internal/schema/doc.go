// Package schema holds the validated description of a corpus database.
//
// A corpus schema is declared as a flat namespace of resource features that
// follow a naming convention:
//
//	corpus_table    = "Corpus"   table marker: resource table -> physical table
//	corpus_id       = "ID"       primary key of the corpus table
//	corpus_word_id  = "WordId"   link from corpus to the word table
//	word_table      = "Lexicon"
//	word_id         = "WordId"
//	word_label      = "Word"     plain feature: resource feature -> column
//
// New parses and validates a Description once, eagerly. After that every
// lookup is a map access and never fails for a feature that passed
// validation. Schema values are immutable and safe for concurrent use.
//
// A feature name may carry an external link hash, separated by a dot
// ("3f2a...e1.word_label"). Such names refer to a feature of another
// corpus; Split reports the hash and decomposes the rest by convention.
package schema
