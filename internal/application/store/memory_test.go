package store

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"homeward/internal/application/models"
	"homeward/pkg/domain"
	"homeward/pkg/platform/sentinel"
)

type ApplicationStoreSuite struct {
	suite.Suite
	store *InMemory
	ctx   context.Context
}

func (s *ApplicationStoreSuite) SetupTest() {
	s.store = NewInMemory()
	s.ctx = context.Background()
}

func TestApplicationStoreSuite(t *testing.T) {
	suite.Run(t, new(ApplicationStoreSuite))
}

func (s *ApplicationStoreSuite) newApplication(adopterID domain.AdopterID, petID domain.PetID, orgID domain.OrganizationID) *models.Application {
	app, err := models.NewApplication(
		domain.NewApplicationID(), petID, adopterID, orgID,
		models.Questionnaire{
			HousingStatus:         "rent",
			PetsAllowed:           "yes",
			PetLocation:           "indoors",
			PrimaryCaregiver:      "me",
			OtherPets:             "cats",
			FinancialPreparedness: "savings",
			EmergencyCarePlan:     "neighbor",
		},
		models.Reference{Name: "Jordan", Email: "j@example.com", Phone: "01512345678"},
		true,
		time.Now(),
	)
	s.Require().NoError(err)
	return app
}

// TestCreateActive verifies insertion, numbering, and the one-active
// invariant.
func (s *ApplicationStoreSuite) TestCreateActive() {
	s.Run("assigns sequential application numbers", func() {
		adopterID, orgID := domain.NewAdopterID(), domain.NewOrganizationID()
		first := s.newApplication(adopterID, domain.NewPetID(), orgID)
		second := s.newApplication(adopterID, domain.NewPetID(), orgID)

		s.Require().NoError(s.store.CreateActive(s.ctx, first))
		s.Require().NoError(s.store.CreateActive(s.ctx, second))
		s.Equal("APP-000001", first.ApplicationNumber)
		s.Equal("APP-000002", second.ApplicationNumber)
	})

	s.Run("rejects second active application for same adopter and pet", func() {
		adopterID, petID, orgID := domain.NewAdopterID(), domain.NewPetID(), domain.NewOrganizationID()
		s.Require().NoError(s.store.CreateActive(s.ctx, s.newApplication(adopterID, petID, orgID)))

		err := s.store.CreateActive(s.ctx, s.newApplication(adopterID, petID, orgID))
		s.Require().ErrorIs(err, sentinel.ErrConflict)
	})

	s.Run("allows new application once prior is terminal", func() {
		adopterID, petID, orgID := domain.NewAdopterID(), domain.NewPetID(), domain.NewOrganizationID()
		first := s.newApplication(adopterID, petID, orgID)
		s.Require().NoError(s.store.CreateActive(s.ctx, first))

		_, err := s.store.Execute(s.ctx, first.ID, func(_ context.Context, a *models.Application) error {
			a.ApplyTransition(models.StatusWithdrawn, "", "", time.Now())
			return nil
		})
		s.Require().NoError(err)

		s.Require().NoError(s.store.CreateActive(s.ctx, s.newApplication(adopterID, petID, orgID)))
	})
}

// TestConcurrentCreate verifies the uniqueness check and the insert are one
// atomic unit: of N racing submissions exactly one wins.
func (s *ApplicationStoreSuite) TestConcurrentCreate() {
	adopterID, petID, orgID := domain.NewAdopterID(), domain.NewPetID(), domain.NewOrganizationID()

	const racers = 16
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
	)
	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := s.store.CreateActive(s.ctx, s.newApplication(adopterID, petID, orgID)); err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	s.Equal(1, succeeded)
}

// TestLookups verifies FindByID, FindActiveNumber, and the adopter gate.
func (s *ApplicationStoreSuite) TestLookups() {
	adopterID, petID, orgID := domain.NewAdopterID(), domain.NewPetID(), domain.NewOrganizationID()
	app := s.newApplication(adopterID, petID, orgID)
	s.Require().NoError(s.store.CreateActive(s.ctx, app))

	s.Run("finds by ID", func() {
		found, err := s.store.FindByID(s.ctx, app.ID)
		s.Require().NoError(err)
		s.Equal(app.ApplicationNumber, found.ApplicationNumber)
	})

	s.Run("returns ErrNotFound for unknown ID", func() {
		_, err := s.store.FindByID(s.ctx, domain.NewApplicationID())
		s.Require().ErrorIs(err, sentinel.ErrNotFound)
	})

	s.Run("finds active number", func() {
		number, ok, err := s.store.FindActiveNumber(s.ctx, adopterID, petID)
		s.Require().NoError(err)
		s.True(ok)
		s.Equal(app.ApplicationNumber, number)
	})

	s.Run("reports active applications for adopter", func() {
		active, err := s.store.HasActiveApplications(s.ctx, adopterID)
		s.Require().NoError(err)
		s.True(active)

		active, err = s.store.HasActiveApplications(s.ctx, domain.NewAdopterID())
		s.Require().NoError(err)
		s.False(active)
	})
}

// TestDeleteByOrganization verifies the organization deletion cascade.
func (s *ApplicationStoreSuite) TestDeleteByOrganization() {
	orgID, otherOrgID := domain.NewOrganizationID(), domain.NewOrganizationID()
	for i := 0; i < 3; i++ {
		s.Require().NoError(s.store.CreateActive(s.ctx, s.newApplication(domain.NewAdopterID(), domain.NewPetID(), orgID)))
	}
	kept := s.newApplication(domain.NewAdopterID(), domain.NewPetID(), otherOrgID)
	s.Require().NoError(s.store.CreateActive(s.ctx, kept))

	removed, err := s.store.DeleteByOrganization(s.ctx, orgID)
	s.Require().NoError(err)
	s.Equal(3, removed)

	_, err = s.store.FindByID(s.ctx, kept.ID)
	s.Require().NoError(err)

	counts, err := s.store.CountByStatus(s.ctx)
	s.Require().NoError(err)
	s.Equal(1, counts[models.StatusPending])
}
