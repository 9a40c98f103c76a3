package testutil

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFixedIDGenerator(t *testing.T) {
	assert.Equal(t, "q-1", NewFixedIDGenerator("q-1").Generate())
	assert.Equal(t, "test-query-default", NewFixedIDGenerator("").Generate())
}

func TestPOSLookup(t *testing.T) {
	l := NewPOSLookup(DemoTags...)

	assert.True(t, l.IsPartOfSpeech("n"))
	assert.True(t, l.IsPartOfSpeech("nn*"))
	assert.True(t, l.IsPartOfSpeech("v*"))
	assert.False(t, l.IsPartOfSpeech("walk"))
	assert.False(t, l.IsPartOfSpeech("x*"))
	l.IsPartOfSpeech("n")

	assert.Equal(t, 2, l.Calls("n"))
	assert.Equal(t, 6, l.Total())
}

func TestPOSLookup_ThreadSafe(t *testing.T) {
	l := NewPOSLookup(DemoTags...)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				l.IsPartOfSpeech("v")
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1000, l.Calls("v"))
}

func TestDemoFixtures(t *testing.T) {
	g := DemoGraph(t)
	s := g.Schema()

	assert.Equal(t, []string{"word", "file", "speaker", "segment"}, g.ChildTables("corpus"))
	assert.True(t, s.IsTokenPositionFeature("lemma_label"))
	assert.False(t, s.IsTokenPositionFeature("speaker_name"))

	reg := CelexRegistry(t)
	_, foreign, err := reg.Resolve(CelexLink().Hash())
	assert.NoError(t, err)
	assert.Equal(t, "celexdb", foreign.DBName())
}
