// Package session holds short-lived per-conversation state: the armed
// pending-delete slot and the last detail-view id cache.
//
// State lives in an explicit store with a TTL so idle conversations cannot
// grow the map without bound, and a mutex in case the hosting runtime ever
// dispatches two events for the same conversation at once.
package session

import (
	"sync"
	"time"
)

// DefaultTTL is how long conversation state survives without being touched.
const DefaultTTL = 10 * time.Minute

// PendingDelete is an armed two-phase delete: the stable id captured at arm
// time plus the display id the user typed, kept only for the reply text.
type PendingDelete struct {
	RecordID  int64
	DisplayID int
}

type conversation struct {
	pending *PendingDelete
	// detail maps the display ids shown in the last detail listing to
	// stable record ids. A filtered listing is sparse, so this is a map.
	detail  map[int]int64
	touched time.Time
}

// Store is a TTL-bounded map of conversation state.
type Store struct {
	mu  sync.Mutex
	ttl time.Duration
	now func() time.Time
	m   map[string]*conversation
}

// New creates a session store. A zero ttl falls back to DefaultTTL; now may
// be nil for the wall clock.
func New(ttl time.Duration, now func() time.Time) *Store {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if now == nil {
		now = time.Now
	}
	return &Store{ttl: ttl, now: now, m: make(map[string]*conversation)}
}

// get returns live (non-expired) state, creating it if asked. Caller holds mu.
func (s *Store) get(chatID string, create bool) *conversation {
	now := s.now()
	// Lazy purge: drop whatever has expired before serving the lookup.
	for id, c := range s.m {
		if now.Sub(c.touched) > s.ttl {
			delete(s.m, id)
		}
	}

	c := s.m[chatID]
	if c == nil && create {
		c = &conversation{}
		s.m[chatID] = c
	}
	if c != nil {
		c.touched = now
	}
	return c
}

// ArmDelete arms the pending-delete slot, replacing any previous one.
func (s *Store) ArmDelete(chatID string, recordID int64, displayID int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.get(chatID, true).pending = &PendingDelete{RecordID: recordID, DisplayID: displayID}
}

// TakeDelete consumes and clears the pending-delete slot, if any.
func (s *Store) TakeDelete(chatID string) *PendingDelete {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := s.get(chatID, false)
	if c == nil {
		return nil
	}
	pending := c.pending
	c.pending = nil
	return pending
}

// SetDetailView replaces the cached display-id to stable-id mapping with
// the rows of the detail listing just shown.
func (s *Store) SetDetailView(chatID string, view map[int]int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := s.get(chatID, true)
	c.detail = make(map[int]int64, len(view))
	for displayID, recordID := range view {
		c.detail[displayID] = recordID
	}
}

// ResolveDetail resolves a display id against the cached detail listing.
// Returns (0, false) when no cache is live or the listing did not show the
// requested id, in which case the caller falls back to fresh re-resolution.
func (s *Store) ResolveDetail(chatID string, displayID int) (int64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := s.get(chatID, false)
	if c == nil {
		return 0, false
	}
	recordID, ok := c.detail[displayID]
	return recordID, ok
}
