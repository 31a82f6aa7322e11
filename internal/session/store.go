package session

import (
	"sort"
	"sync"

	"werewolf/internal/engine"
)

// Store holds live matches by id. Implementations only need to be safe for
// concurrent map access; each match is mutated by its own actor.
type Store interface {
	Put(m *engine.Match) error
	Get(id string) (*engine.Match, bool)
	Delete(id string)
	IDs() []string
}

// MemoryStore is the in-process Store.
type MemoryStore struct {
	mu      sync.RWMutex
	matches map[string]*engine.Match
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{matches: make(map[string]*engine.Match)}
}

// Put stores m, refusing to replace a match with the same id.
func (s *MemoryStore) Put(m *engine.Match) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.matches[m.ID]; exists {
		return ErrMatchExists
	}
	s.matches[m.ID] = m
	return nil
}

func (s *MemoryStore) Get(id string) (*engine.Match, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.matches[id]
	return m, ok
}

func (s *MemoryStore) Delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.matches, id)
}

// IDs returns every stored match id, sorted.
func (s *MemoryStore) IDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]string, 0, len(s.matches))
	for id := range s.matches {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
