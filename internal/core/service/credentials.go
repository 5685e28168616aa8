package service

import (
	"sort"
	"sync"

	"github.com/stenite/planner2mqtt/internal/core/domain"
	"github.com/stenite/planner2mqtt/internal/core/port"
)

// MemoryCredentialStore keeps system entries in memory. Durable storage
// of credentials is the host's job; on restart the store is reseeded from
// configuration.
type MemoryCredentialStore struct {
	mu      sync.RWMutex
	entries map[string]domain.SystemEntry
}

func NewMemoryCredentialStore(seed []domain.SystemEntry) *MemoryCredentialStore {
	entries := make(map[string]domain.SystemEntry, len(seed))
	for _, e := range seed {
		entries[e.ID] = e
	}
	return &MemoryCredentialStore{
		entries: entries,
	}
}

func (s *MemoryCredentialStore) Get(entryID string) (domain.SystemEntry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entry, ok := s.entries[entryID]
	return entry, ok
}

func (s *MemoryCredentialStore) Put(entry domain.SystemEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[entry.ID] = entry
}

func (s *MemoryCredentialStore) Remove(entryID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.entries[entryID]
	delete(s.entries, entryID)
	return ok
}

func (s *MemoryCredentialStore) List() []domain.SystemEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	list := make([]domain.SystemEntry, 0, len(s.entries))
	for _, e := range s.entries {
		list = append(list, e)
	}
	sort.Slice(list, func(i, j int) bool {
		return list[i].ID < list[j].ID
	})
	return list
}

// ensure interface compliance
var _ port.CredentialStore = (*MemoryCredentialStore)(nil)
