package store

import (
	"context"
	"testing"

	"github.com/roach88/corpusql/internal/schema"
	"github.com/roach88/corpusql/internal/testutil"
)

// createTestStore creates a new in-memory store for testing.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(":memory:")
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// pragmaValue reads the current value of a SQLite pragma.
func pragmaValue(t *testing.T, s *Store, name string) string {
	t.Helper()
	var value string
	if err := s.DB().QueryRow("PRAGMA " + name).Scan(&value); err != nil {
		t.Fatalf("PRAGMA %s failed: %v", name, err)
	}
	return value
}

// createDemoCorpus loads the demo schema with the text
// "the man walks the men walked".
func createDemoCorpus(t *testing.T, s *Store) *schema.Schema {
	t.Helper()
	ctx := context.Background()
	sc := testutil.DemoSchema(t)
	if err := s.CreateTables(ctx, sc, ""); err != nil {
		t.Fatalf("CreateTables() failed: %v", err)
	}

	insert := func(table string, records ...Record) {
		t.Helper()
		if err := s.Insert(ctx, sc, "", table, records); err != nil {
			t.Fatalf("Insert(%s) failed: %v", table, err)
		}
	}

	insert("pos",
		Record{"pos_id": 1, "pos_label": "n"},
		Record{"pos_id": 2, "pos_label": "nns"},
		Record{"pos_id": 3, "pos_label": "v"},
		Record{"pos_id": 4, "pos_label": "vbd"},
		Record{"pos_id": 5, "pos_label": "dt"},
	)
	insert("lemma",
		Record{"lemma_id": 1, "lemma_label": "the", "lemma_gloss": "definite article"},
		Record{"lemma_id": 2, "lemma_label": "man", "lemma_gloss": "adult male"},
		Record{"lemma_id": 3, "lemma_label": "walk", "lemma_gloss": "to go on foot"},
	)
	insert("word",
		Record{"word_id": 1, "word_label": "the", "word_transcript": "D@", "word_pos_id": 5, "word_lemma_id": 1},
		Record{"word_id": 2, "word_label": "man", "word_transcript": "m{n", "word_pos_id": 1, "word_lemma_id": 2},
		Record{"word_id": 3, "word_label": "walks", "word_transcript": "wO:ks", "word_pos_id": 3, "word_lemma_id": 3},
		Record{"word_id": 4, "word_label": "walked", "word_transcript": "wO:kt", "word_pos_id": 4, "word_lemma_id": 3},
		Record{"word_id": 5, "word_label": "men", "word_transcript": "mEn", "word_pos_id": 2, "word_lemma_id": 2},
	)
	insert("file", Record{"file_id": 1, "file_name": "walks.txt"})

	var corpus []Record
	for i, w := range []int{1, 2, 3, 1, 5, 4} {
		id := i + 1
		corpus = append(corpus, Record{
			"corpus_id":        id,
			"corpus_word_id":   w,
			"corpus_file_id":   1,
			"corpus_starttime": id * 10,
			"corpus_endtime":   id*10 + 10,
		})
	}
	insert("corpus", corpus...)
	return sc
}
