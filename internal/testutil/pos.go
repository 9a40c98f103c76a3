package testutil

import (
	"strings"
	"sync"
)

// POSLookup is a part-of-speech predicate over a fixed tag set that
// counts how often each candidate is asked about.
//
// Candidates may end in * to match any tag with that prefix.
//
// Thread-safety: all methods are safe for concurrent use.
type POSLookup struct {
	mu    sync.Mutex
	tags  []string
	calls map[string]int
}

// NewPOSLookup returns a lookup over tags.
func NewPOSLookup(tags ...string) *POSLookup {
	return &POSLookup{tags: tags, calls: make(map[string]int)}
}

// IsPartOfSpeech reports whether candidate names a known tag.
func (l *POSLookup) IsPartOfSpeech(candidate string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls[candidate]++

	prefix, wildcard := strings.CutSuffix(candidate, "*")
	for _, tag := range l.tags {
		if tag == candidate || (wildcard && strings.HasPrefix(tag, prefix)) {
			return true
		}
	}
	return false
}

// Calls returns how often candidate was looked up.
func (l *POSLookup) Calls(candidate string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.calls[candidate]
}

// Total returns the number of lookups so far.
func (l *POSLookup) Total() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for _, c := range l.calls {
		n += c
	}
	return n
}
