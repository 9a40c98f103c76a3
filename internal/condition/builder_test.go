package condition

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/corpusql/internal/graph"
	"github.com/roach88/corpusql/internal/queryir"
	"github.com/roach88/corpusql/internal/querysql"
	"github.com/roach88/corpusql/internal/schema"
	"github.com/roach88/corpusql/internal/testutil"
	"github.com/roach88/corpusql/internal/token"
)

// render shows a predicate as inline SQL for readable assertions.
func render(t *testing.T, p queryir.Predicate) string {
	t.Helper()
	const prefix = "SELECT NULL FROM Corpus AS X WHERE "
	sql, _, err := querysql.Renderer{InlineLiterals: true}.Render(&queryir.Select{
		Columns: []queryir.Column{{Expr: queryir.Null{}}},
		From:    queryir.TableRef{Table: "Corpus", Alias: "X"},
		Where:   p,
	})
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(sql, prefix), sql)
	return strings.TrimPrefix(sql, prefix)
}

func build(t *testing.T, b *Builder, item string, position int) *Conditions {
	t.Helper()
	tok, err := token.Parse(item)
	require.NoError(t, err)
	c, err := b.Build(tok, position)
	require.NoError(t, err)
	return c
}

func TestBuild(t *testing.T) {
	b := &Builder{Graph: testutil.DemoGraph(t)}

	tests := []struct {
		item     string
		position int
		tables   []string
		want     string
	}{
		{"walk", 1, []string{"word"}, "COQ_WORD_1.Word COLLATE NOCASE = 'walk'"},
		{"~walk", 1, []string{"word"}, "COQ_WORD_1.Word COLLATE NOCASE <> 'walk'"},
		{"walk|run", 1, []string{"word"}, "COQ_WORD_1.Word COLLATE NOCASE IN ('walk', 'run')"},
		{"~walk|run", 1, []string{"word"}, "COQ_WORD_1.Word COLLATE NOCASE NOT IN ('walk', 'run')"},
		{"wal*|run", 1, []string{"word"},
			`(COQ_WORD_1.Word COLLATE NOCASE LIKE 'wal%' ESCAPE '\' OR COQ_WORD_1.Word COLLATE NOCASE = 'run')`},
		{"~wal*|run", 1, []string{"word"},
			`COQ_WORD_1.Word COLLATE NOCASE NOT LIKE 'wal%' ESCAPE '\' AND COQ_WORD_1.Word COLLATE NOCASE <> 'run'`},
		{"walk.[n*]", 2, []string{"word", "pos"},
			`COQ_WORD_2.Word COLLATE NOCASE = 'walk' AND COQ_POS_2.Tag COLLATE NOCASE LIKE 'n%' ESCAPE '\'`},
		{"~walk.[n*]", 2, []string{"word", "pos"},
			`NOT (COQ_WORD_2.Word COLLATE NOCASE = 'walk' AND COQ_POS_2.Tag COLLATE NOCASE LIKE 'n%' ESCAPE '\')`},
		{"*.[v]", 3, []string{"pos"}, "COQ_POS_3.Tag COLLATE NOCASE = 'v'"},
		{"[walk]", 1, []string{"lemma"}, "COQ_LEMMA_1.Lemma COLLATE NOCASE = 'walk'"},
		{"/wO:k/", 1, []string{"word"}, "COQ_WORD_1.Transcript COLLATE NOCASE = 'wO:k'"},
		{`"to walk"`, 1, []string{"lemma"}, "COQ_LEMMA_1.Gloss COLLATE NOCASE = 'to walk'"},
		{"50%", 1, []string{"word"}, "COQ_WORD_1.Word COLLATE NOCASE = '50%'"},
		{"50%*", 1, []string{"word"}, `COQ_WORD_1.Word COLLATE NOCASE LIKE '50\%%' ESCAPE '\'`},
	}

	for _, tc := range tests {
		t.Run(tc.item, func(t *testing.T) {
			c := build(t, b, tc.item, tc.position)
			assert.Equal(t, tc.tables, c.Tables)
			assert.Equal(t, tc.position, c.Position)
			assert.Equal(t, tc.want, render(t, c.Predicate()))
		})
	}
}

func TestBuild_Unconstrained(t *testing.T) {
	b := &Builder{Graph: testutil.DemoGraph(t)}

	c := build(t, b, "*", 1)
	assert.True(t, c.Empty())
	assert.Nil(t, c.Predicate())
	assert.Empty(t, c.Tables)

	c = build(t, b, "walk|*", 1)
	assert.True(t, c.Empty(), "a match-all alternative makes the list unconstrained")

	c, err := b.Build(nil, 2)
	require.NoError(t, err)
	assert.True(t, c.Empty())
	assert.Nil(t, c.Predicate())
}

func TestBuild_NegatedMatchAll(t *testing.T) {
	b := &Builder{Graph: testutil.DemoGraph(t)}

	c := build(t, b, "~*", 1)
	assert.False(t, c.Empty())
	assert.Empty(t, c.Tables)
	assert.Equal(t, queryir.False{}, c.Predicate())
}

func TestBuild_CaseSensitive(t *testing.T) {
	b := &Builder{Graph: testutil.DemoGraph(t), CaseSensitive: true}

	c := build(t, b, "walk.[n*]", 1)
	assert.Equal(t,
		`COQ_WORD_1.Word COLLATE BINARY = 'walk' AND COQ_POS_1.Tag COLLATE BINARY LIKE 'n%' ESCAPE '\'`,
		render(t, c.Predicate()))
}

func TestBuild_Regex(t *testing.T) {
	b := &Builder{Graph: testutil.DemoGraph(t)}
	tok, err := token.NewParser(true, nil).Parse("wal.*|run")
	require.NoError(t, err)

	c, err := b.Build(tok, 1)
	require.NoError(t, err)
	assert.Equal(t,
		"(COQ_WORD_1.Word COLLATE NOCASE REGEXP '(?i)wal.*' OR COQ_WORD_1.Word COLLATE NOCASE REGEXP '(?i)run')",
		render(t, c.Predicate()))
}

func TestBuild_Lemmatized(t *testing.T) {
	b := &Builder{Graph: testutil.DemoGraph(t)}

	c := build(t, b, "#walk", 2)
	assert.Equal(t, []string{"lemma"}, c.Tables)
	assert.Equal(t,
		"COQ_LEMMA_2.Lemma COLLATE NOCASE IN (SELECT DISTINCT SUB_LEMMA_2.Lemma FROM Lexicon AS SUB_WORD_2 "+
			"INNER JOIN Lemmas AS SUB_LEMMA_2 ON SUB_LEMMA_2.LemmaId = SUB_WORD_2.LemmaId "+
			"WHERE SUB_WORD_2.Word COLLATE NOCASE = 'walk')",
		render(t, c.Predicate()))

	c = build(t, b, "~#walk", 2)
	assert.Contains(t, render(t, c.Predicate()), "COQ_LEMMA_2.Lemma COLLATE NOCASE NOT IN (SELECT DISTINCT")
}

func TestBuild_LemmatizedUnreachable(t *testing.T) {
	d := testutil.DemoDescription()
	d.Query.Lemma = "file_name"
	s, err := schema.New(d)
	require.NoError(t, err)
	g, err := graph.New(s)
	require.NoError(t, err)

	tok, err := token.Parse("#walk")
	require.NoError(t, err)
	_, err = (&Builder{Graph: g}).Build(tok, 1)
	assert.True(t, errors.Is(err, graph.ErrNoPath), "got %v", err)
}

func TestBuild_UnsupportedKind(t *testing.T) {
	g, err := graph.New(testutil.CelexSchema(t))
	require.NoError(t, err)
	b := &Builder{Graph: g}

	for _, item := range []string{"[walk]", "#walk", "/wO:k/"} {
		tok, err := token.Parse(item)
		require.NoError(t, err)
		_, err = b.Build(tok, 1)
		var uk *UnsupportedKindError
		require.True(t, errors.As(err, &uk), "%s: got %v", item, err)
		assert.Equal(t, "celex", uk.Schema)
	}
}

func TestEdgePredicate(t *testing.T) {
	s := testutil.DemoSchema(t)

	p, err := EdgePredicate(s, "corpus", "word", "COQ_CORPUS_1", "COQ_WORD_1")
	require.NoError(t, err)
	assert.Equal(t, "COQ_WORD_1.WordId = COQ_CORPUS_1.WordId", render(t, p))

	p, err = EdgePredicate(s, "corpus", "segment", "COQ_CORPUS_1", "COQ_SEGMENT_1")
	require.NoError(t, err)
	assert.Equal(t,
		"COQ_SEGMENT_1.Start < COQ_CORPUS_1.End AND COQ_SEGMENT_1.End > COQ_CORPUS_1.Start AND COQ_SEGMENT_1.FileId = COQ_CORPUS_1.FileId",
		render(t, p))

	_, err = EdgePredicate(s, "word", "file", "A", "B")
	var mf *schema.MalformedFeatureError
	assert.True(t, errors.As(err, &mf))
}

func TestPathSelect(t *testing.T) {
	s := testutil.DemoSchema(t)
	sel, err := PathSelect(s, []string{"corpus", "word", "pos"}, func(table string) string { return schema.Alias(table, 1) })
	require.NoError(t, err)
	assert.Equal(t, []string{"COQ_CORPUS_1", "COQ_WORD_1", "COQ_POS_1"}, sel.Aliases())

	_, err = PathSelect(s, nil, nil)
	assert.Error(t, err)
	_, err = PathSelect(s, []string{"corpus", "nope"}, func(string) string { return "X" })
	assert.Error(t, err)
}

func TestNegate(t *testing.T) {
	col := queryir.ColumnRef{Table: "A", Column: "x"}
	lit := queryir.Literal{Value: "v"}

	assert.Equal(t, queryir.Compare{Left: col, Op: queryir.OpNotEq, Right: lit},
		Negate(queryir.Compare{Left: col, Op: queryir.OpEq, Right: lit}))
	assert.Equal(t, queryir.Compare{Left: col, Op: queryir.OpEq, Right: lit},
		Negate(queryir.Compare{Left: col, Op: queryir.OpNotEq, Right: lit}))
	assert.Equal(t, queryir.Not{Predicate: queryir.Compare{Left: col, Op: queryir.OpLt, Right: lit}},
		Negate(queryir.Compare{Left: col, Op: queryir.OpLt, Right: lit}))
	assert.Equal(t, queryir.False{}, Negate(queryir.Not{Predicate: queryir.False{}}))
	assert.Equal(t, queryir.Not{Predicate: queryir.False{}}, Negate(queryir.False{}))
}
