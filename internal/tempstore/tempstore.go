// Package tempstore holds freshly generated article payloads in process
// memory so they never travel through cookies. Entries expire after an hour
// and expired entries are swept on each write. State is process-local: a
// multi-worker deployment needs an external store instead.
package tempstore

import (
	"sync"
	"time"
)

// TTL is how long an entry stays readable.
const TTL = time.Hour

type entry struct {
	value    interface{}
	storedAt time.Time
}

type Store struct {
	mu      sync.Mutex
	entries map[string]entry
	now     func() time.Time
}

func New() *Store {
	return &Store{
		entries: make(map[string]entry),
		now:     time.Now,
	}
}

func key(userID, namespace string) string {
	return userID + "_" + namespace
}

// Set stores value under (userID, namespace) and sweeps expired entries.
func (s *Store) Set(userID, namespace string, value interface{}) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for k, e := range s.entries {
		if now.Sub(e.storedAt) >= TTL {
			delete(s.entries, k)
		}
	}
	s.entries[key(userID, namespace)] = entry{value: value, storedAt: now}
}

// Get returns the stored value, or false when absent or expired.
func (s *Store) Get(userID, namespace string) (interface{}, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[key(userID, namespace)]
	if !ok {
		return nil, false
	}
	if s.now().Sub(e.storedAt) >= TTL {
		delete(s.entries, key(userID, namespace))
		return nil, false
	}
	return e.value, true
}

// Delete removes the entry for (userID, namespace).
func (s *Store) Delete(userID, namespace string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, key(userID, namespace))
}
