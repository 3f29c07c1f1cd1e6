package store

import (
	"context"
	"sync"

	"homeward/internal/adopter/models"
	"homeward/pkg/domain"
	"homeward/pkg/platform/sentinel"
)

// InMemory is the mutex-guarded adopter store used by tests and by
// deployments without PostgreSQL. History has its own lock so it can be
// appended from inside an Execute callback, which holds mu.
type InMemory struct {
	mu       sync.Mutex
	adopters map[domain.AdopterID]*models.Adopter

	histMu  sync.Mutex
	history map[domain.AdopterID][]models.StandingHistoryEntry
}

func NewInMemory() *InMemory {
	return &InMemory{
		adopters: make(map[domain.AdopterID]*models.Adopter),
		history:  make(map[domain.AdopterID][]models.StandingHistoryEntry),
	}
}

func (s *InMemory) Create(_ context.Context, adopter *models.Adopter) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.adopters[adopter.ID]; exists {
		return sentinel.ErrConflict
	}
	cp := *adopter
	s.adopters[adopter.ID] = &cp
	return nil
}

func (s *InMemory) FindByID(_ context.Context, id domain.AdopterID) (*models.Adopter, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	adopter, ok := s.adopters[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *adopter
	return &cp, nil
}

// Execute atomically loads, mutates, and persists the adopter with the given
// id. The callback runs with the store lock held; a non-nil error aborts
// without persisting. The context passed to fn is the caller's context: the
// in-memory store has no transactions to carry.
func (s *InMemory) Execute(ctx context.Context, id domain.AdopterID, fn func(txCtx context.Context, a *models.Adopter) error) (*models.Adopter, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	adopter, ok := s.adopters[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *adopter
	if err := fn(ctx, &cp); err != nil {
		return nil, err
	}
	s.adopters[id] = &cp
	out := cp
	return &out, nil
}

func (s *InMemory) AppendHistory(_ context.Context, id domain.AdopterID, entry models.StandingHistoryEntry) error {
	s.histMu.Lock()
	defer s.histMu.Unlock()
	s.history[id] = append(s.history[id], entry)
	return nil
}

func (s *InMemory) ListHistory(_ context.Context, id domain.AdopterID) ([]models.StandingHistoryEntry, error) {
	s.histMu.Lock()
	defer s.histMu.Unlock()
	return append([]models.StandingHistoryEntry{}, s.history[id]...), nil
}

// Delete removes the adopter after running fn (which records the deletion
// reason in the audit trail while the actor can still be referenced).
func (s *InMemory) Delete(ctx context.Context, id domain.AdopterID, fn func(txCtx context.Context) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.adopters[id]; !ok {
		return sentinel.ErrNotFound
	}
	if fn != nil {
		if err := fn(ctx); err != nil {
			return err
		}
	}
	delete(s.adopters, id)
	s.histMu.Lock()
	delete(s.history, id)
	s.histMu.Unlock()
	return nil
}

func (s *InMemory) CountByStatus(_ context.Context) (map[models.StandingStatus]int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	counts := make(map[models.StandingStatus]int)
	for _, adopter := range s.adopters {
		counts[adopter.Status]++
	}
	return counts, nil
}
