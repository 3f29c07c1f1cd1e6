package store

import (
	"context"
	"sync"

	"homeward/internal/organization/models"
	"homeward/pkg/domain"
	"homeward/pkg/platform/sentinel"
)

// InMemory is the mutex-guarded organization store used by tests and by
// deployments without PostgreSQL. History has its own lock so it can be
// appended from inside an Execute callback, which holds mu.
type InMemory struct {
	mu   sync.Mutex
	orgs map[domain.OrganizationID]*models.Organization

	histMu  sync.Mutex
	history map[domain.OrganizationID][]models.VerificationHistoryEntry
}

func NewInMemory() *InMemory {
	return &InMemory{
		orgs:    make(map[domain.OrganizationID]*models.Organization),
		history: make(map[domain.OrganizationID][]models.VerificationHistoryEntry),
	}
}

func (s *InMemory) Create(_ context.Context, org *models.Organization) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.orgs[org.ID]; exists {
		return sentinel.ErrConflict
	}
	cp := *org
	s.orgs[org.ID] = &cp
	return nil
}

func (s *InMemory) FindByID(_ context.Context, id domain.OrganizationID) (*models.Organization, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	org, ok := s.orgs[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *org
	return &cp, nil
}

// Execute atomically loads, mutates, and persists the organization with the
// given id. The callback runs with the store lock held; a non-nil error
// aborts without persisting.
func (s *InMemory) Execute(ctx context.Context, id domain.OrganizationID, fn func(txCtx context.Context, o *models.Organization) error) (*models.Organization, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	org, ok := s.orgs[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *org
	if err := fn(ctx, &cp); err != nil {
		return nil, err
	}
	s.orgs[id] = &cp
	out := cp
	return &out, nil
}

func (s *InMemory) AppendHistory(_ context.Context, id domain.OrganizationID, entry models.VerificationHistoryEntry) error {
	s.histMu.Lock()
	defer s.histMu.Unlock()
	s.history[id] = append(s.history[id], entry)
	return nil
}

func (s *InMemory) ListHistory(_ context.Context, id domain.OrganizationID) ([]models.VerificationHistoryEntry, error) {
	s.histMu.Lock()
	defer s.histMu.Unlock()
	return append([]models.VerificationHistoryEntry{}, s.history[id]...), nil
}

// Delete removes the organization after running fn, which performs the
// cascading cleanup (application deletion, audit recording) while the
// organization row still exists.
func (s *InMemory) Delete(ctx context.Context, id domain.OrganizationID, fn func(txCtx context.Context) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.orgs[id]; !ok {
		return sentinel.ErrNotFound
	}
	if fn != nil {
		if err := fn(ctx); err != nil {
			return err
		}
	}
	delete(s.orgs, id)
	s.histMu.Lock()
	delete(s.history, id)
	s.histMu.Unlock()
	return nil
}

func (s *InMemory) CountByStatus(_ context.Context) (map[models.VerificationStatus]int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	counts := make(map[models.VerificationStatus]int)
	for _, org := range s.orgs {
		counts[org.VerificationStatus]++
	}
	return counts, nil
}
