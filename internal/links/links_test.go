package links

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/corpusql/internal/schema"
)

func celexSchema(t *testing.T) *schema.Schema {
	t.Helper()
	s, err := schema.New(schema.Description{
		Name:   "celex",
		DBName: "celexdb",
		Entries: []schema.Entry{
			{Name: "corpus_table", Value: "Corpus"},
			{Name: "corpus_id", Value: "ID"},
			{Name: "word_table", Value: "Lexicon"},
			{Name: "word_id", Value: "WordId"},
			{Name: "word_label", Value: "Word"},
			{Name: "word_phon_id", Value: "PhonId"},
			{Name: "phon_table", Value: "Phonology"},
			{Name: "phon_id", Value: "PhonId"},
			{Name: "phon_transcript", Value: "DISC"},
		},
	})
	require.NoError(t, err)
	return s
}

func wordLink() Link {
	return Link{
		SourceSchema:  "demo",
		SourceFeature: "word_label",
		TargetSchema:  "celex",
		TargetFeature: "word_label",
		Join:          JoinLeft,
	}
}

func TestHash_Stable(t *testing.T) {
	l := wordLink()
	h := l.Hash()

	assert.Len(t, h, 64)
	assert.Equal(t, h, wordLink().Hash(), "same link, same hash")

	lower := wordLink()
	lower.Join = "left"
	assert.Equal(t, h, lower.Hash(), "join kind is case-normalised")

	other := wordLink()
	other.CaseSensitive = true
	assert.NotEqual(t, h, other.Hash())
}

func TestHash_NFCNormalised(t *testing.T) {
	composed := wordLink()
	composed.TargetSchema = "caf\u00e9"
	decomposed := wordLink()
	decomposed.TargetSchema = "cafe\u0301"

	assert.Equal(t, composed.Hash(), decomposed.Hash())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(l *Link)
	}{
		{"missing source schema", func(l *Link) { l.SourceSchema = "" }},
		{"missing source feature", func(l *Link) { l.SourceFeature = "" }},
		{"missing target schema", func(l *Link) { l.TargetSchema = "" }},
		{"missing target feature", func(l *Link) { l.TargetFeature = "" }},
		{"bad join", func(l *Link) { l.Join = "OUTER" }},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			l := wordLink()
			tc.mutate(&l)
			assert.Error(t, l.Validate())
		})
	}
	assert.NoError(t, wordLink().Validate())
}

func TestRegistry_Resolve(t *testing.T) {
	celex := celexSchema(t)
	reg, err := NewRegistry("default", []*schema.Schema{celex}, []Link{wordLink()})
	require.NoError(t, err)

	l, foreign, err := reg.Resolve(wordLink().Hash())
	require.NoError(t, err)
	assert.Equal(t, wordLink(), l)
	assert.Same(t, celex, foreign)

	_, _, err = reg.Resolve("deadbeef")
	var ue *UnknownLinkError
	require.True(t, errors.As(err, &ue))
	assert.Equal(t, "deadbeef", ue.Hash)
	assert.Equal(t, "default", ue.Profile)
}

func TestRegistry_NilResolve(t *testing.T) {
	var reg *Registry
	_, _, err := reg.Resolve("abc")
	var ue *UnknownLinkError
	assert.True(t, errors.As(err, &ue))
	assert.Nil(t, reg.Links())
}

func TestNewRegistry_Errors(t *testing.T) {
	celex := celexSchema(t)

	unknownSchema := wordLink()
	unknownSchema.TargetSchema = "bnc"
	_, err := NewRegistry("p", []*schema.Schema{celex}, []Link{unknownSchema})
	assert.ErrorContains(t, err, "unknown target schema")

	unknownFeature := wordLink()
	unknownFeature.TargetFeature = "word_gloss"
	_, err = NewRegistry("p", []*schema.Schema{celex}, []Link{unknownFeature})
	var mf *schema.MalformedFeatureError
	assert.True(t, errors.As(err, &mf))
}

func TestRegistry_DeduplicatesByHash(t *testing.T) {
	reg, err := NewRegistry("p", []*schema.Schema{celexSchema(t)}, []Link{wordLink(), wordLink()})
	require.NoError(t, err)
	assert.Len(t, reg.Links(), 1)
}

func TestAliasFor(t *testing.T) {
	celex := celexSchema(t)

	assert.Equal(t, "CELEXDB_WORD_1", AliasFor(1, wordLink(), celex))
	assert.Equal(t, "CELEXDB_WORD_3", AliasFor(3, wordLink(), celex))
	assert.Equal(t, AliasFor(2, wordLink(), celex), AliasFor(2, wordLink(), celex))
	assert.Equal(t, "CELEXDB_PHON_2", TableAlias(2, celex, "phon"))
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "links.yaml")
	content := `
profiles:
  default:
    - source_schema: demo
      source_feature: word_label
      target_schema: celex
      target_feature: word_label
      join: left
  other: []
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	reg, err := LoadFile(path, "default", []*schema.Schema{celexSchema(t)})
	require.NoError(t, err)
	require.Len(t, reg.Links(), 1)
	assert.Equal(t, JoinLeft, reg.Links()[0].Join)
	assert.Equal(t, "default", reg.Profile())

	_, _, err = reg.Resolve(wordLink().Hash())
	assert.NoError(t, err, "hash ignores join kind spelling")

	empty, err := LoadFile(path, "missing", nil)
	require.NoError(t, err)
	assert.Empty(t, empty.Links())

	_, err = LoadFile(filepath.Join(dir, "nope.yaml"), "default", nil)
	assert.Error(t, err)
}

func TestFeature(t *testing.T) {
	l := wordLink()
	name := l.Feature("phon_transcript")

	hash, rest := schema.SplitLink(name)
	assert.Equal(t, l.Hash(), hash)
	assert.Equal(t, "phon_transcript", rest)
}
