package security

import (
	"sync"
	"time"
)

const (
	// DefaultMaxHistorySize bounds the number of behaviors retained per client.
	DefaultMaxHistorySize = 10_000
	// maxClientsBeforeGC triggers stale eviction once exceeded.
	maxClientsBeforeGC = 10_000
	// staleAfter is the idle duration after which a client record is evicted.
	staleAfter = 24 * time.Hour
)

type clientRecord struct {
	behaviors []BehaviorMetrics
	firstSeen time.Time
	lastSeen  time.Time
}

// Store is the Behavior Store (C2): a per-client bounded sliding window of
// behavior observations with stale eviction. record and gc take the
// exclusive lock; Snapshot takes the shared lock and copies out the
// window so the Scorer never holds the store's lock while scoring.
type Store struct {
	mu             sync.RWMutex
	clients        map[string]*clientRecord
	maxHistorySize int
}

// NewStore returns an empty Behavior Store with the default history bound.
func NewStore() *Store {
	return NewStoreWithCapacity(DefaultMaxHistorySize)
}

// NewStoreWithCapacity returns an empty Behavior Store bounding each
// client's window to maxHistorySize observations.
func NewStoreWithCapacity(maxHistorySize int) *Store {
	if maxHistorySize <= 0 {
		maxHistorySize = DefaultMaxHistorySize
	}
	return &Store{
		clients:        make(map[string]*clientRecord),
		maxHistorySize: maxHistorySize,
	}
}

// Record appends m to the window for m.ClientID, evicting the oldest
// observation if the window would exceed its bound, and updates the
// client's last-seen timestamp. Record never fails observably.
func (s *Store) Record(m BehaviorMetrics) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.clients[m.ClientID]
	if !ok {
		rec = &clientRecord{firstSeen: m.Timestamp}
		s.clients[m.ClientID] = rec
	}
	rec.behaviors = append(rec.behaviors, m)
	rec.lastSeen = m.Timestamp

	if len(rec.behaviors) > s.maxHistorySize {
		overflow := len(rec.behaviors) - s.maxHistorySize
		rec.behaviors = rec.behaviors[overflow:]
		rec.firstSeen = rec.behaviors[0].Timestamp
	}

	if len(s.clients) > maxClientsBeforeGC {
		s.gcLocked(time.Now())
	}
}

// Snapshot returns an immutable copy of the client's current history, or
// ok=false if the client has no recorded behavior.
func (s *Store) Snapshot(clientID string) (ClientHistory, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.clients[clientID]
	if !ok {
		return ClientHistory{}, false
	}
	behaviors := make([]BehaviorMetrics, len(rec.behaviors))
	copy(behaviors, rec.behaviors)
	return ClientHistory{
		ClientID:  clientID,
		Behaviors: behaviors,
		FirstSeen: rec.firstSeen,
		LastSeen:  rec.lastSeen,
	}, true
}

// GC evicts client records idle for longer than staleAfter. It is called
// automatically once the client count exceeds maxClientsBeforeGC, and may
// also be invoked explicitly (e.g. from a periodic maintenance loop).
func (s *Store) GC(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gcLocked(now)
}

func (s *Store) gcLocked(now time.Time) {
	for id, rec := range s.clients {
		if now.Sub(rec.lastSeen) > staleAfter {
			delete(s.clients, id)
		}
	}
}

// ClientCount returns the number of client records currently held.
func (s *Store) ClientCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.clients)
}
