package graph

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/corpusql/internal/schema"
)

func mustSchema(t *testing.T, entries ...schema.Entry) *schema.Schema {
	t.Helper()
	s, err := schema.New(schema.Description{Name: "test", Entries: entries})
	require.NoError(t, err)
	return s
}

func entries(pairs ...string) []schema.Entry {
	out := make([]schema.Entry, 0, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		out = append(out, schema.Entry{Name: pairs[i], Value: pairs[i+1]})
	}
	return out
}

// corpus -> word -> lemma, corpus -> file
func demoGraph(t *testing.T) *Graph {
	t.Helper()
	s := mustSchema(t, entries(
		"corpus_table", "Corpus",
		"corpus_id", "ID",
		"corpus_word_id", "WordId",
		"corpus_file_id", "FileId",
		"word_table", "Lexicon",
		"word_id", "WordId",
		"word_label", "Word",
		"word_lemma_id", "LemmaId",
		"lemma_table", "Lemmas",
		"lemma_id", "LemmaId",
		"lemma_label", "Lemma",
		"file_table", "Files",
		"file_id", "FileId",
		"file_name", "Name",
	)...)
	g, err := New(s)
	require.NoError(t, err)
	return g
}

func TestChildTables(t *testing.T) {
	g := demoGraph(t)

	assert.Equal(t, []string{"word", "file"}, g.ChildTables("corpus"))
	assert.Equal(t, []string{"lemma"}, g.ChildTables("word"))
	assert.Empty(t, g.ChildTables("lemma"))
	assert.Empty(t, g.ChildTables("nope"))
}

func TestTableTree(t *testing.T) {
	g := demoGraph(t)

	assert.Equal(t, []string{"corpus", "word", "lemma", "file"}, g.TableTree("corpus"))
	assert.Equal(t, []string{"word", "lemma"}, g.TableTree("word"))
	assert.Equal(t, []string{"lemma"}, g.TableTree("lemma"), "tree is reflexive")
	assert.Nil(t, g.TableTree("nope"))
}

func TestPathBetween(t *testing.T) {
	g := demoGraph(t)

	tests := []struct {
		name       string
		start, end string
		want       []string
	}{
		{name: "self", start: "corpus", end: "corpus", want: []string{"corpus"}},
		{name: "self leaf", start: "lemma", end: "lemma", want: []string{"lemma"}},
		{name: "direct child", start: "corpus", end: "word", want: []string{"corpus", "word"}},
		{name: "grandchild", start: "corpus", end: "lemma", want: []string{"corpus", "word", "lemma"}},
		{name: "second branch", start: "corpus", end: "file", want: []string{"corpus", "file"}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := g.PathBetween(tc.start, tc.end)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestPathBetween_NotFound(t *testing.T) {
	g := demoGraph(t)

	for _, pair := range [][2]string{
		{"word", "file"},
		{"lemma", "corpus"},
		{"file", "word"},
		{"nope", "word"},
		{"corpus", "nope"},
	} {
		assert.False(t, g.Reaches(pair[0], pair[1]))
		_, err := g.PathBetween(pair[0], pair[1])
		assert.True(t, errors.Is(err, ErrNoPath), "%s -> %s: %v", pair[0], pair[1], err)
	}
}

// Every end outside TableTree(start) must be NotFound and every end inside
// it must produce a path that starts and ends at the right tables.
func TestPathBetween_AgreesWithTableTree(t *testing.T) {
	g := demoGraph(t)
	tables := g.Schema().Tables()

	for _, a := range tables {
		for _, b := range tables {
			path, err := g.PathBetween(a, b)
			if !g.Reaches(a, b) {
				assert.ErrorIs(t, err, ErrNoPath, "%s -> %s", a, b)
				continue
			}
			require.NoError(t, err, "%s -> %s", a, b)
			assert.Equal(t, a, path[0])
			assert.Equal(t, b, path[len(path)-1])
		}
	}
}

// The search returns the first path in declaration order, not the shortest.
func TestPathBetween_FirstFound(t *testing.T) {
	s := mustSchema(t, entries(
		"corpus_table", "Corpus",
		"corpus_id", "ID",
		"corpus_a_id", "AId",
		"corpus_c_id", "CId",
		"a_table", "A",
		"a_id", "AId",
		"a_b_id", "BId",
		"b_table", "B",
		"b_id", "BId",
		"b_target_id", "TargetId",
		"c_table", "C",
		"c_id", "CId",
		"c_target_id", "TargetId",
		"target_table", "Target",
		"target_id", "TargetId",
	)...)
	g, err := New(s)
	require.NoError(t, err)

	path, err := g.PathBetween("corpus", "target")
	require.NoError(t, err)
	assert.Equal(t, []string{"corpus", "a", "b", "target"}, path)
}

func TestNew_RejectsCycles(t *testing.T) {
	s := mustSchema(t, entries(
		"corpus_table", "Corpus",
		"corpus_id", "ID",
		"corpus_word_id", "WordId",
		"word_table", "Lexicon",
		"word_id", "WordId",
		"word_corpus_id", "CorpusId",
	)...)

	_, err := New(s)
	var ce *CycleError
	require.True(t, errors.As(err, &ce), "want CycleError, got %v", err)
	assert.Equal(t, ce.Path[0], ce.Path[len(ce.Path)-1], "cycle path is closed")
	assert.ElementsMatch(t, []string{"corpus", "word"}, ce.Path[:len(ce.Path)-1])
}

func TestSearch_GuardsAgainstCycles(t *testing.T) {
	g := &Graph{adj: map[string][]string{
		"a": {"b"},
		"b": {"a"},
	}}

	_, err := g.PathBetween("a", "z")
	var ce *CycleError
	require.True(t, errors.As(err, &ce), "want CycleError, got %v", err)
	assert.Equal(t, []string{"a", "b", "a"}, ce.Path)
}

func TestFindCycles(t *testing.T) {
	tests := []struct {
		name  string
		nodes []string
		adj   map[string][]string
		want  int
	}{
		{name: "empty", want: 0},
		{name: "tree", nodes: []string{"a", "b", "c"}, adj: map[string][]string{"a": {"b", "c"}}, want: 0},
		{name: "diamond", nodes: []string{"a", "b", "c", "d"}, adj: map[string][]string{"a": {"b", "c"}, "b": {"d"}, "c": {"d"}}, want: 0},
		{name: "self loop", nodes: []string{"a"}, adj: map[string][]string{"a": {"a"}}, want: 1},
		{name: "two cycles", nodes: []string{"a", "b", "c", "d"}, adj: map[string][]string{"a": {"b"}, "b": {"a"}, "c": {"d"}, "d": {"c"}}, want: 2},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Len(t, FindCycles(tc.nodes, tc.adj), tc.want)
		})
	}
}
