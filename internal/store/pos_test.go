package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/corpusql/internal/testutil"
)

func TestPartOfSpeech(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)
	sc := createDemoCorpus(t, s)

	isPOS, err := s.PartOfSpeech(ctx, sc)
	require.NoError(t, err)

	tests := []struct {
		candidate string
		want      bool
	}{
		{"n", true},
		{"N", true},
		{"n*", true},
		{"vb?", true},
		{"?", true},
		{"nn", false},
		{"x*", false},
		{"walk", false},
		{"n_s", false},
		{"n%", false},
	}
	for _, tc := range tests {
		t.Run(tc.candidate, func(t *testing.T) {
			assert.Equal(t, tc.want, isPOS(tc.candidate))
		})
	}
}

func TestPartOfSpeech_NoTagFeature(t *testing.T) {
	s := createTestStore(t)
	_, err := s.PartOfSpeech(context.Background(), testutil.CelexSchema(t))
	assert.Error(t, err)
}

func TestPartOfSpeech_MissingTableCountsAsNoTag(t *testing.T) {
	s := createTestStore(t)
	isPOS, err := s.PartOfSpeech(context.Background(), testutil.DemoSchema(t))
	require.NoError(t, err)
	assert.False(t, isPOS("n"))
}

func TestLikePattern(t *testing.T) {
	assert.Equal(t, "n%", likePattern("n*"))
	assert.Equal(t, "vb_", likePattern("vb?"))
	assert.Equal(t, `n\_s\%`, likePattern("n_s%"))
	assert.Equal(t, `a\\b`, likePattern(`a\b`))
}
