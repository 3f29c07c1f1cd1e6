package memory

import (
	"context"
	"sync"

	"homeward/internal/audit"
)

type entityKey struct {
	entityType audit.EntityType
	entityID   string
}

// InMemoryStore keeps audit entries in process memory. The seq counter
// provides the insertion-order tie-break for entries sharing a timestamp.
type InMemoryStore struct {
	mu      sync.RWMutex
	nextSeq int64
	entries map[entityKey][]audit.Entry
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{entries: make(map[entityKey][]audit.Entry)}
}

func (s *InMemoryStore) Append(_ context.Context, entry audit.Entry) (audit.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextSeq++
	entry.Seq = s.nextSeq
	key := entityKey{entityType: entry.EntityType, entityID: entry.EntityID}
	s.entries[key] = append(s.entries[key], entry)
	return entry, nil
}

func (s *InMemoryStore) ListByEntity(_ context.Context, entityType audit.EntityType, entityID string) ([]audit.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	key := entityKey{entityType: entityType, entityID: entityID}
	return append([]audit.Entry{}, s.entries[key]...), nil
}

// Clear removes all entries. Test helper only.
func (s *InMemoryStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = make(map[entityKey][]audit.Entry)
}
