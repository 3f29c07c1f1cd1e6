package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"homeward/internal/organization/models"
	"homeward/pkg/domain"
	"homeward/pkg/platform/sentinel"
)

type OrganizationStoreSuite struct {
	suite.Suite
	store *InMemory
	ctx   context.Context
}

func (s *OrganizationStoreSuite) SetupTest() {
	s.store = NewInMemory()
	s.ctx = context.Background()
}

func TestOrganizationStoreSuite(t *testing.T) {
	suite.Run(t, new(OrganizationStoreSuite))
}

func (s *OrganizationStoreSuite) newOrganization(name string) *models.Organization {
	org, err := models.NewOrganization(domain.NewOrganizationID(), name, name+"@example.com", "doc-"+name, time.Now())
	s.Require().NoError(err)
	return org
}

func (s *OrganizationStoreSuite) TestCreationAndLookups() {
	s.Run("creates and finds organization by ID", func() {
		org := s.newOrganization("paws")
		s.Require().NoError(s.store.Create(s.ctx, org))

		found, err := s.store.FindByID(s.ctx, org.ID)
		s.Require().NoError(err)
		s.Equal(org.Name, found.Name)
		s.Equal(models.VerificationPending, found.VerificationStatus)
	})

	s.Run("returns ErrNotFound for unknown ID", func() {
		_, err := s.store.FindByID(s.ctx, domain.NewOrganizationID())
		s.Require().ErrorIs(err, sentinel.ErrNotFound)
	})

	s.Run("rejects duplicate ID", func() {
		org := s.newOrganization("dup")
		s.Require().NoError(s.store.Create(s.ctx, org))
		s.Require().ErrorIs(s.store.Create(s.ctx, org), sentinel.ErrConflict)
	})
}

func (s *OrganizationStoreSuite) TestExecute() {
	s.Run("persists mutations applied in the callback", func() {
		org := s.newOrganization("exec")
		s.Require().NoError(s.store.Create(s.ctx, org))

		updated, err := s.store.Execute(s.ctx, org.ID, func(_ context.Context, o *models.Organization) error {
			o.ApplyDecision(models.VerificationVerified, "documents check out", time.Now())
			return nil
		})
		s.Require().NoError(err)
		s.Equal(models.VerificationVerified, updated.VerificationStatus)

		found, err := s.store.FindByID(s.ctx, org.ID)
		s.Require().NoError(err)
		s.Equal(models.VerificationVerified, found.VerificationStatus)
	})

	s.Run("discards mutations when the callback fails", func() {
		org := s.newOrganization("rollback")
		s.Require().NoError(s.store.Create(s.ctx, org))

		boom := errors.New("boom")
		_, err := s.store.Execute(s.ctx, org.ID, func(_ context.Context, o *models.Organization) error {
			o.ApplyDecision(models.VerificationRejected, "nope", time.Now())
			return boom
		})
		s.Require().ErrorIs(err, boom)

		found, err := s.store.FindByID(s.ctx, org.ID)
		s.Require().NoError(err)
		s.Equal(models.VerificationPending, found.VerificationStatus)
	})

	s.Run("returns ErrNotFound for unknown ID", func() {
		_, err := s.store.Execute(s.ctx, domain.NewOrganizationID(), func(_ context.Context, _ *models.Organization) error {
			return nil
		})
		s.Require().ErrorIs(err, sentinel.ErrNotFound)
	})
}

func (s *OrganizationStoreSuite) TestHistoryOrdering() {
	org := s.newOrganization("hist")
	s.Require().NoError(s.store.Create(s.ctx, org))

	for i, notes := range []string{"first", "second", "third"} {
		entry := models.VerificationHistoryEntry{
			PreviousStatus: models.VerificationPending,
			NewStatus:      models.VerificationFollowup,
			Notes:          notes,
			AdminID:        "admin-1",
			Timestamp:      time.Now().Add(time.Duration(i) * time.Second),
		}
		s.Require().NoError(s.store.AppendHistory(s.ctx, org.ID, entry))
	}

	entries, err := s.store.ListHistory(s.ctx, org.ID)
	s.Require().NoError(err)
	s.Require().Len(entries, 3)
	s.Equal("first", entries[0].Notes)
	s.Equal("third", entries[2].Notes)
}

func (s *OrganizationStoreSuite) TestDelete() {
	s.Run("removes the organization and its history", func() {
		org := s.newOrganization("gone")
		s.Require().NoError(s.store.Create(s.ctx, org))
		s.Require().NoError(s.store.AppendHistory(s.ctx, org.ID, models.VerificationHistoryEntry{
			PreviousStatus: models.VerificationPending,
			NewStatus:      models.VerificationVerified,
			Timestamp:      time.Now(),
		}))

		s.Require().NoError(s.store.Delete(s.ctx, org.ID, func(_ context.Context) error { return nil }))

		_, err := s.store.FindByID(s.ctx, org.ID)
		s.Require().ErrorIs(err, sentinel.ErrNotFound)
		entries, err := s.store.ListHistory(s.ctx, org.ID)
		s.Require().NoError(err)
		s.Empty(entries)
	})

	s.Run("keeps the organization when the callback fails", func() {
		org := s.newOrganization("kept")
		s.Require().NoError(s.store.Create(s.ctx, org))

		boom := errors.New("boom")
		s.Require().ErrorIs(s.store.Delete(s.ctx, org.ID, func(_ context.Context) error { return boom }), boom)

		_, err := s.store.FindByID(s.ctx, org.ID)
		s.Require().NoError(err)
	})
}

func (s *OrganizationStoreSuite) TestCountByStatus() {
	for _, status := range []models.VerificationStatus{
		models.VerificationPending,
		models.VerificationVerified,
		models.VerificationVerified,
		models.VerificationRejected,
	} {
		org := s.newOrganization("count-" + string(status) + "-" + domain.NewOrganizationID().String())
		org.VerificationStatus = status
		s.Require().NoError(s.store.Create(s.ctx, org))
	}

	counts, err := s.store.CountByStatus(s.ctx)
	s.Require().NoError(err)
	s.Equal(1, counts[models.VerificationPending])
	s.Equal(2, counts[models.VerificationVerified])
	s.Equal(1, counts[models.VerificationRejected])
	s.Equal(0, counts[models.VerificationFollowup])
}
