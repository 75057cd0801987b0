// Package history keeps the outcomes of ended activities in memory.
package history

import (
	"sync"
	"time"

	"github.com/nomis52/golaunch/activity"
)

// DefaultSize is the number of records kept when no size is given.
const DefaultSize = 100

// Record is the JSON view of an activity instance, live or ended.
type Record struct {
	ID        string         `json:"id"`
	Intent    string         `json:"intent"`
	Locator   string         `json:"locator"`
	Container string         `json:"container,omitempty"`
	State     activity.State `json:"state"`
	CreatedAt time.Time      `json:"created_at"`
	EndedAt   *time.Time     `json:"ended_at,omitempty"`
	Value     any            `json:"value,omitempty"`
	Reason    string         `json:"reason,omitempty"`
	Error     string         `json:"error,omitempty"`
}

// FromSnapshot converts a snapshot into a Record.
func FromSnapshot(s activity.Snapshot) Record {
	r := Record{
		ID:        s.ID,
		Intent:    s.Intent,
		Locator:   s.Locator,
		Container: s.Container,
		State:     s.State,
		CreatedAt: s.CreatedAt,
	}
	if !s.EndedAt.IsZero() {
		ended := s.EndedAt
		r.EndedAt = &ended
	}
	if s.Result != nil {
		r.Value = s.Result.Value
		r.Reason = s.Result.Reason
		if s.Result.Err != nil {
			r.Error = s.Result.Err.Error()
		}
	}
	return r
}

// Store keeps the most recent ended activities, newest first.
type Store struct {
	mu      sync.Mutex
	size    int
	records []Record
	evicted func(id string)
}

// Option configures a Store.
type Option func(*Store)

// WithEvictionHook calls fn with the ID of every record dropped to stay
// within size. The server uses it to release captured logs.
func WithEvictionHook(fn func(id string)) Option {
	return func(s *Store) {
		s.evicted = fn
	}
}

// NewStore creates a Store holding at most size records.
func NewStore(size int, opts ...Option) *Store {
	if size <= 0 {
		size = DefaultSize
	}
	s := &Store{size: size}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Observe records the final snapshot of an instance. Pass it to
// activity.WithObserver.
func (s *Store) Observe(snap activity.Snapshot) {
	s.Save(FromSnapshot(snap))
}

// Save adds r as the newest record.
func (s *Store) Save(r Record) {
	s.mu.Lock()
	s.records = append([]Record{r}, s.records...)
	var dropped []Record
	if len(s.records) > s.size {
		dropped = s.records[s.size:]
		s.records = s.records[:s.size:s.size]
	}
	evicted := s.evicted
	s.mu.Unlock()

	if evicted != nil {
		for _, r := range dropped {
			evicted(r.ID)
		}
	}
}

// Records returns a copy of all records, newest first.
func (s *Store) Records() []Record {
	s.mu.Lock()
	defer s.mu.Unlock()

	result := make([]Record, len(s.records))
	copy(result, s.records)
	return result
}

// Get returns the record with the given ID.
func (s *Store) Get(id string) (Record, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, r := range s.records {
		if r.ID == id {
			return r, true
		}
	}
	return Record{}, false
}
