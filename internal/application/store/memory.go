package store

import (
	"context"
	"fmt"
	"sync"

	"homeward/internal/application/models"
	"homeward/pkg/domain"
	"homeward/pkg/platform/sentinel"
)

// InMemory is the mutex-guarded application store used by tests and by
// deployments without PostgreSQL. The one-active-application invariant is
// enforced under the same lock as the insert, making the check and the
// insert one atomic unit.
type InMemory struct {
	mu         sync.Mutex
	apps       map[domain.ApplicationID]*models.Application
	nextNumber int
}

func NewInMemory() *InMemory {
	return &InMemory{
		apps: make(map[domain.ApplicationID]*models.Application),
	}
}

// CreateActive inserts a pending application, assigning its human-readable
// application number. Fails with ErrConflict when the adopter already has an
// active application for the same pet.
func (s *InMemory) CreateActive(_ context.Context, app *models.Application) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.apps[app.ID]; exists {
		return sentinel.ErrConflict
	}
	for _, existing := range s.apps {
		if existing.AdopterID == app.AdopterID && existing.PetID == app.PetID && existing.IsActive() {
			return sentinel.ErrConflict
		}
	}
	s.nextNumber++
	app.ApplicationNumber = fmt.Sprintf("APP-%06d", s.nextNumber)
	cp := *app
	s.apps[app.ID] = &cp
	return nil
}

func (s *InMemory) FindByID(_ context.Context, id domain.ApplicationID) (*models.Application, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	app, ok := s.apps[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *app
	return &cp, nil
}

// FindActiveNumber returns the application number of the adopter's active
// application for the given pet, if one exists.
func (s *InMemory) FindActiveNumber(_ context.Context, adopterID domain.AdopterID, petID domain.PetID) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, app := range s.apps {
		if app.AdopterID == adopterID && app.PetID == petID && app.IsActive() {
			return app.ApplicationNumber, true, nil
		}
	}
	return "", false, nil
}

// Execute atomically loads, mutates, and persists the application with the
// given id. The callback runs with the store lock held; a non-nil error
// aborts without persisting.
func (s *InMemory) Execute(ctx context.Context, id domain.ApplicationID, fn func(txCtx context.Context, a *models.Application) error) (*models.Application, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	app, ok := s.apps[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *app
	if err := fn(ctx, &cp); err != nil {
		return nil, err
	}
	s.apps[id] = &cp
	out := cp
	return &out, nil
}

// HasActiveApplications reports whether the adopter has any application in a
// non-terminal status. Consumed by the adopter deletion gate.
func (s *InMemory) HasActiveApplications(_ context.Context, adopterID domain.AdopterID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, app := range s.apps {
		if app.AdopterID == adopterID && app.IsActive() {
			return true, nil
		}
	}
	return false, nil
}

// Delete removes the application after running fn.
func (s *InMemory) Delete(ctx context.Context, id domain.ApplicationID, fn func(txCtx context.Context) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.apps[id]; !ok {
		return sentinel.ErrNotFound
	}
	if fn != nil {
		if err := fn(ctx); err != nil {
			return err
		}
	}
	delete(s.apps, id)
	return nil
}

// DeleteByOrganization removes every application belonging to the
// organization. Consumed by the organization deletion cascade.
func (s *InMemory) DeleteByOrganization(_ context.Context, orgID domain.OrganizationID) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for id, app := range s.apps {
		if app.OrganizationID == orgID {
			delete(s.apps, id)
			removed++
		}
	}
	return removed, nil
}

func (s *InMemory) CountByStatus(_ context.Context) (map[models.Status]int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	counts := make(map[models.Status]int)
	for _, app := range s.apps {
		counts[app.Status]++
	}
	return counts, nil
}
