// Package analysis holds the per-match mapping from move index to engine analysis.
package analysis

import (
	"reflect"
	"sync"

	"baduklive/internal/match"
)

// MaxMoveIndex bounds the arena. Longer games do not exist on any supported board.
const MaxMoveIndex = 4096

// Entry pairs a move index with its record
type Entry struct {
	Move   int                `json:"move"`
	Record match.MoveAnalysis `json:"record"`
}

// MergeResult reports what a Merge did
type MergeResult struct {
	Changed  int
	Rejected int
}

// Store is a sparse, grow-only arena of analysis records for one match selection.
// Entries are added or overwritten, never removed, until Reset.
type Store struct {
	mu      sync.RWMutex
	records []*match.MoveAnalysis
	count   int

	subMu  sync.Mutex
	subs   map[int]func()
	nextID int
}

// NewStore creates an empty store
func NewStore() *Store {
	return &Store{subs: make(map[int]func())}
}

// Merge inserts or overwrites records. Re-merging an identical record is a no-op and
// does not notify subscribers.
func (s *Store) Merge(records map[int]match.MoveAnalysis) MergeResult {
	var res MergeResult
	s.mu.Lock()
	for idx, rec := range records {
		if idx < 0 || idx > MaxMoveIndex {
			res.Rejected++
			continue
		}
		if idx >= len(s.records) {
			grown := make([]*match.MoveAnalysis, idx+1, max(idx+1, 2*len(s.records)))
			copy(grown, s.records)
			s.records = grown
		}
		prev := s.records[idx]
		if prev != nil && reflect.DeepEqual(*prev, rec) {
			continue
		}
		if prev == nil {
			s.count++
		}
		r := rec
		s.records[idx] = &r
		res.Changed++
	}
	s.mu.Unlock()

	if res.Changed > 0 {
		s.notify()
	}
	return res
}

// Get returns the record at move index i. ok is false when no analysis exists yet.
func (s *Store) Get(i int) (match.MoveAnalysis, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i < 0 || i >= len(s.records) || s.records[i] == nil {
		return match.MoveAnalysis{}, false
	}
	return *s.records[i], true
}

// Reset drops every entry
func (s *Store) Reset() {
	s.mu.Lock()
	hadEntries := s.count > 0
	s.records = nil
	s.count = 0
	s.mu.Unlock()

	if hadEntries {
		s.notify()
	}
}

// Len returns the number of populated indices
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.count
}

// Entries returns populated records in ascending move order
func (s *Store) Entries() []Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Entry, 0, s.count)
	for i, rec := range s.records {
		if rec != nil {
			out = append(out, Entry{Move: i, Record: *rec})
		}
	}
	return out
}

// Snapshot copies the populated entries into a map keyed by move index
func (s *Store) Snapshot() map[int]match.MoveAnalysis {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[int]match.MoveAnalysis, s.count)
	for i, rec := range s.records {
		if rec != nil {
			out[i] = *rec
		}
	}
	return out
}

// Subscribe registers fn to be called after the mapping changes. The returned
// function removes the subscription.
func (s *Store) Subscribe(fn func()) func() {
	s.subMu.Lock()
	id := s.nextID
	s.nextID++
	s.subs[id] = fn
	s.subMu.Unlock()
	return func() {
		s.subMu.Lock()
		delete(s.subs, id)
		s.subMu.Unlock()
	}
}

func (s *Store) notify() {
	s.subMu.Lock()
	fns := make([]func(), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.subMu.Unlock()
	for _, fn := range fns {
		fn()
	}
}
