package state

import (
	"sync"
	"time"

	"github.com/five82/dex/internal/pokeapi"
)

// Snapshot represents the latest data available to the UI.
type Snapshot struct {
	Displayed     []pokeapi.Record
	Source        string // network, snapshot or memory
	Loading       bool
	SearchLoading bool
	Error         string
	Degraded      bool
	Query         string
	SearchActive  bool // the query is long enough to be evaluated
	CurrentPage   int
	TotalPages    int
	CatalogSize   int
	Online        bool
	ForcedOffline bool
	OfflineCount  int
	LastUpdated   time.Time
}

// ShowErrorScreen is true only when there is an error and nothing to display.
func (s Snapshot) ShowErrorScreen() bool {
	return s.Error != "" && len(s.Displayed) == 0
}

// IsOffline reports whether the catalog is being served without the network.
func (s Snapshot) IsOffline() bool {
	return !s.Online
}

// Store coordinates concurrent updates to the snapshot.
type Store struct {
	mu       sync.RWMutex
	snapshot Snapshot

	subMu   sync.Mutex
	subs    map[int]chan struct{}
	nextSub int
	changes <-chan struct{}
}

// Update applies fn to the stored snapshot and signals subscribers.
func (s *Store) Update(fn func(*Snapshot)) {
	s.mu.Lock()
	fn(&s.snapshot)
	s.mu.Unlock()

	s.notify()
}

// Snapshot returns a copy of the current snapshot.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := s.snapshot
	snap.Displayed = CloneRecords(s.snapshot.Displayed)
	return snap
}

// Changes returns the store's primary change channel. Signals are coalesced:
// a burst of updates yields at least one receive.
func (s *Store) Changes() <-chan struct{} {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	if s.changes == nil {
		s.changes, _ = s.subscribeLocked()
	}
	return s.changes
}

// Subscribe returns a new coalescing change channel and a func that releases it.
func (s *Store) Subscribe() (<-chan struct{}, func()) {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	ch, id := s.subscribeLocked()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.subMu.Lock()
			defer s.subMu.Unlock()
			delete(s.subs, id)
		})
	}
}

func (s *Store) subscribeLocked() (chan struct{}, int) {
	if s.subs == nil {
		s.subs = make(map[int]chan struct{})
	}
	id := s.nextSub
	s.nextSub++
	ch := make(chan struct{}, 1)
	s.subs[id] = ch
	return ch, id
}

func (s *Store) notify() {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	for _, ch := range s.subs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

// CloneRecords deep-copies records, including their type slots.
func CloneRecords(records []pokeapi.Record) []pokeapi.Record {
	if records == nil {
		return nil
	}
	dup := make([]pokeapi.Record, len(records))
	copy(dup, records)
	for i := range dup {
		if records[i].Types != nil {
			dup[i].Types = append([]pokeapi.TypeSlot(nil), records[i].Types...)
		}
	}
	return dup
}
