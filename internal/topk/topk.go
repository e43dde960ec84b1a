// Package topk keeps the K best scored candidates seen so far.
package topk

import (
	"fmt"
	"sync"
)

// DefaultK is the number of ranked candidates reported by default.
const DefaultK = 20

// ScoredCandidate pairs a candidate identifier with its score; lower is
// more similar.
type ScoredCandidate struct {
	Path  string
	Score float64
}

// List is a bounded list of candidates sorted ascending by score. It is not
// safe for concurrent use; see Selector.
type List struct {
	k       int
	entries []ScoredCandidate
}

// NewList creates an empty list holding at most k entries.
func NewList(k int) *List {
	if k <= 0 {
		panic(fmt.Sprintf("topk: capacity must be positive, got %d", k))
	}
	return &List{
		k:       k,
		entries: make([]ScoredCandidate, 0, k+1),
	}
}

// Offer inserts c before the first entry with a strictly greater score and
// drops the last entry if the list grew past capacity. When no entry is
// greater, c is appended while there is room and discarded otherwise.
// Offer reports whether c was kept.
func (l *List) Offer(c ScoredCandidate) bool {
	pos := len(l.entries)
	for i, e := range l.entries {
		if e.Score > c.Score {
			pos = i
			break
		}
	}
	if pos == len(l.entries) && len(l.entries) >= l.k {
		return false
	}

	l.entries = append(l.entries, ScoredCandidate{})
	copy(l.entries[pos+1:], l.entries[pos:])
	l.entries[pos] = c

	if len(l.entries) > l.k {
		l.entries[l.k] = ScoredCandidate{}
		l.entries = l.entries[:l.k]
	}

	return true
}

// Len returns the number of entries.
func (l *List) Len() int { return len(l.entries) }

// Cap returns the capacity K.
func (l *List) Cap() int { return l.k }

// Entries returns a copy of the entries in ascending score order.
func (l *List) Entries() []ScoredCandidate {
	out := make([]ScoredCandidate, len(l.entries))
	copy(out, l.entries)
	return out
}

// Selector is a List shared between goroutines. Every mutation runs under
// one mutex, so the list stays sorted and bounded whatever the completion
// order of the callers.
type Selector struct {
	mu   sync.Mutex
	list *List
}

// NewSelector creates an empty selector holding at most k entries.
func NewSelector(k int) *Selector {
	return &Selector{list: NewList(k)}
}

// Offer inserts c under the selector's lock.
func (s *Selector) Offer(c ScoredCandidate) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.list.Offer(c)
}

// Merge offers every entry of a worker-local list in one critical section.
func (s *Selector) Merge(l *List) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range l.entries {
		if !s.list.Offer(c) {
			// l is sorted, so nothing after c can be kept either.
			return
		}
	}
}

// Len returns the number of retained entries.
func (s *Selector) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.list.Len()
}

// Entries returns the retained candidates in ascending score order.
func (s *Selector) Entries() []ScoredCandidate {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.list.Entries()
}

// Snapshot returns the retained identifiers in ascending score order. Call
// it once every Offer and Merge of a run has returned.
func (s *Selector) Snapshot() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	paths := make([]string, len(s.list.entries))
	for i, c := range s.list.entries {
		paths[i] = c.Path
	}
	return paths
}
