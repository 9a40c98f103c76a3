package testutil

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/corpusql/internal/graph"
	"github.com/roach88/corpusql/internal/links"
	"github.com/roach88/corpusql/internal/schema"
)

// DemoTags are the part-of-speech tags of the demo corpus.
var DemoTags = []string{"n", "nn", "nns", "v", "vb", "vbd", "dt", "in"}

// DemoDescription describes a small corpus:
//
//	corpus ─┬─ word ─┬─ pos
//	        │        └─ lemma
//	        ├─ file
//	        ├─ speaker   (optional)
//	        └─ segment   (annotation, by time range)
func DemoDescription() schema.Description {
	return schema.Description{
		Name:   "demo",
		DBName: "demo",
		Entries: []schema.Entry{
			{Name: "corpus_table", Value: "Corpus"},
			{Name: "corpus_id", Value: "ID"},
			{Name: "corpus_word_id", Value: "WordId"},
			{Name: "corpus_file_id", Value: "FileId"},
			{Name: "corpus_speaker_id", Value: "SpeakerId"},
			{Name: "corpus_starttime", Value: "Start"},
			{Name: "corpus_endtime", Value: "End"},
			{Name: "word_table", Value: "Lexicon"},
			{Name: "word_id", Value: "WordId"},
			{Name: "word_label", Value: "Word"},
			{Name: "word_transcript", Value: "Transcript"},
			{Name: "word_pos_id", Value: "PosId"},
			{Name: "word_lemma_id", Value: "LemmaId"},
			{Name: "pos_table", Value: "Pos"},
			{Name: "pos_id", Value: "PosId"},
			{Name: "pos_label", Value: "Tag"},
			{Name: "lemma_table", Value: "Lemmas"},
			{Name: "lemma_id", Value: "LemmaId"},
			{Name: "lemma_label", Value: "Lemma"},
			{Name: "lemma_gloss", Value: "Gloss"},
			{Name: "file_table", Value: "Files"},
			{Name: "file_id", Value: "FileId"},
			{Name: "file_name", Value: "Filename"},
			{Name: "speaker_table", Value: "Speakers"},
			{Name: "speaker_id", Value: "SpeakerId"},
			{Name: "speaker_name", Value: "Name"},
			{Name: "segment_table", Value: "Segments"},
			{Name: "segment_id", Value: "SegmentId"},
			{Name: "segment_label", Value: "Label"},
			{Name: "segment_starttime", Value: "Start"},
			{Name: "segment_endtime", Value: "End"},
			{Name: "segment_origin", Value: "FileId"},
		},
		Labels: map[string]string{
			"word_label":  "Word",
			"pos_label":   "Part-of-speech",
			"lemma_label": "Lemma",
			"file_name":   "File",
		},
		Query: schema.QueryFeatures{
			Word:       "word_label",
			Lemma:      "lemma_label",
			POS:        "pos_label",
			Transcript: "word_transcript",
			Gloss:      "lemma_gloss",
		},
		Optional: []string{"speaker"},
		Annotations: []schema.Annotation{{
			Table:        "segment",
			Parent:       "corpus",
			Start:        "segment_starttime",
			End:          "segment_endtime",
			Origin:       "segment_origin",
			ParentStart:  "corpus_starttime",
			ParentEnd:    "corpus_endtime",
			ParentOrigin: "corpus_file_id",
		}},
	}
}

// DemoSchema returns the validated demo schema.
func DemoSchema(t testing.TB) *schema.Schema {
	t.Helper()
	s, err := schema.New(DemoDescription())
	require.NoError(t, err)
	return s
}

// DemoGraph returns the table graph of the demo schema.
func DemoGraph(t testing.TB) *graph.Graph {
	t.Helper()
	g, err := graph.New(DemoSchema(t))
	require.NoError(t, err)
	return g
}

// CelexDescription describes a lexical database that the demo corpus
// links to by word form.
func CelexDescription() schema.Description {
	return schema.Description{
		Name:   "celex",
		DBName: "celexdb",
		Root:   "word",
		Entries: []schema.Entry{
			{Name: "word_table", Value: "Lexicon"},
			{Name: "word_id", Value: "WordId"},
			{Name: "word_label", Value: "Word"},
			{Name: "word_frequency", Value: "Freq"},
			{Name: "word_phon_id", Value: "PhonId"},
			{Name: "phon_table", Value: "Phonology"},
			{Name: "phon_id", Value: "PhonId"},
			{Name: "phon_transcript", Value: "DISC"},
		},
		Query: schema.QueryFeatures{Word: "word_label"},
	}
}

// CelexSchema returns the validated celex schema.
func CelexSchema(t testing.TB) *schema.Schema {
	t.Helper()
	s, err := schema.New(CelexDescription())
	require.NoError(t, err)
	return s
}

// CelexLink links demo word forms to celex word forms.
func CelexLink() links.Link {
	return links.Link{
		SourceSchema:  "demo",
		SourceFeature: "word_label",
		TargetSchema:  "celex",
		TargetFeature: "word_label",
		Join:          links.JoinLeft,
	}
}

// CelexRegistry returns a registry holding CelexLink.
func CelexRegistry(t testing.TB) *links.Registry {
	t.Helper()
	reg, err := links.NewRegistry("default", []*schema.Schema{CelexSchema(t)}, []links.Link{CelexLink()})
	require.NoError(t, err)
	return reg
}
