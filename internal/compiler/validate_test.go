package compiler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/corpusql/internal/schema"
	"github.com/roach88/corpusql/internal/testutil"
)

func codes(errs []ValidationError) []string {
	out := make([]string, len(errs))
	for i, e := range errs {
		out[i] = e.Code
	}
	return out
}

func TestValidateValid(t *testing.T) {
	for _, d := range []schema.Description{testutil.DemoDescription(), testutil.CelexDescription()} {
		assert.Empty(t, Validate(&d), d.Name)
	}
}

func TestValidateCollectsAllErrors(t *testing.T) {
	d := schema.Description{
		Name: "bad",
		Entries: []schema.Entry{
			{Name: "corpus_table", Value: "Corpus"},
			{Name: "corpus_id", Value: "ID"},
			{Name: "corpus_id", Value: "Other"},
			{Name: "corpus-label", Value: "Label"},
			{Name: "corpus_word", Value: "Word Form"},
		},
		Query:    schema.QueryFeatures{Word: "word_label"},
		Optional: []string{"speaker"},
	}

	errs := Validate(&d)
	assert.ElementsMatch(t, []string{
		ErrDuplicateFeature,
		ErrInvalidIdentifier,
		ErrInvalidIdentifier,
		ErrUnknownQuery,
		ErrUnknownTable,
	}, codes(errs))
	for i := 1; i < len(errs); i++ {
		assert.LessOrEqual(t, errs[i-1].Field, errs[i].Field, "errors are sorted by field")
	}
}

func TestValidateErrors(t *testing.T) {
	tests := []struct {
		name string
		desc schema.Description
		want string
	}{
		{
			name: "no tables",
			desc: schema.Description{Entries: []schema.Entry{{Name: "corpus_id", Value: "ID"}}},
			want: ErrNoTables,
		},
		{
			name: "annotation table not declared",
			desc: schema.Description{
				Entries:     []schema.Entry{{Name: "corpus_table", Value: "C"}, {Name: "corpus_id", Value: "ID"}},
				Annotations: []schema.Annotation{{Table: "segment", Parent: "corpus"}},
			},
			want: ErrUnknownTable,
		},
		{
			name: "root without id",
			desc: schema.Description{Entries: []schema.Entry{{Name: "corpus_table", Value: "C"}, {Name: "corpus_label", Value: "L"}}},
			want: ErrMalformedSchema,
		},
		{
			name: "feature of undeclared table",
			desc: schema.Description{Entries: []schema.Entry{
				{Name: "corpus_table", Value: "C"},
				{Name: "corpus_id", Value: "ID"},
				{Name: "word_label", Value: "Word"},
			}},
			want: ErrMalformedSchema,
		},
		{
			name: "table cycle",
			desc: schema.Description{Entries: []schema.Entry{
				{Name: "corpus_table", Value: "C"},
				{Name: "corpus_id", Value: "ID"},
				{Name: "corpus_a_id", Value: "AId"},
				{Name: "a_table", Value: "A"},
				{Name: "a_id", Value: "AId"},
				{Name: "a_b_id", Value: "BId"},
				{Name: "b_table", Value: "B"},
				{Name: "b_id", Value: "BId"},
				{Name: "b_a_id", Value: "AId"},
			}},
			want: ErrTableCycle,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			errs := Validate(&tc.desc)
			require.NotEmpty(t, errs)
			assert.Contains(t, codes(errs), tc.want)
		})
	}
}

func TestAnalyzeCycles(t *testing.T) {
	assert.Empty(t, AnalyzeCycles(testutil.DemoSchema(t)))

	s, err := schema.New(schema.Description{Entries: []schema.Entry{
		{Name: "corpus_table", Value: "C"},
		{Name: "corpus_id", Value: "ID"},
		{Name: "corpus_a_id", Value: "AId"},
		{Name: "a_table", Value: "A"},
		{Name: "a_id", Value: "AId"},
		{Name: "a_b_id", Value: "BId"},
		{Name: "b_table", Value: "B"},
		{Name: "b_id", Value: "BId"},
		{Name: "b_a_id", Value: "AId"},
	}})
	require.NoError(t, err)

	cycles := AnalyzeCycles(s)
	require.Len(t, cycles, 1)
	assert.Contains(t, cycles[0].Path, "a")
	assert.Contains(t, cycles[0].Path, "b")
	assert.NotContains(t, cycles[0].Path, "corpus")
	assert.Contains(t, cycles[0].Message, "table cycle")
}

func TestValidationErrorString(t *testing.T) {
	e := ValidationError{Field: "query.word", Code: ErrUnknownQuery, Message: "not declared"}
	assert.Equal(t, "[E204] query.word: not declared", e.Error())
}
