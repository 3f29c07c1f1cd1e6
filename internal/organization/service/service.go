// Package service implements the organization verification state machine.
// Organizations register into pending, admins decide verified, followup, or
// rejected, and a followup organization may resubmit its document to return
// to pending. Verified standing gates every adopter-facing action.
package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"homeward/internal/audit"
	"homeward/internal/notify"
	"homeward/internal/organization/models"
	"homeward/internal/petcatalog"
	"homeward/internal/platform/metrics"
	"homeward/pkg/domain"
	dErrors "homeward/pkg/domain-errors"
	"homeward/pkg/platform/sentinel"
	"homeward/pkg/requestcontext"
)

// OrganizationStore persists organizations and their verification history.
type OrganizationStore interface {
	Create(ctx context.Context, org *models.Organization) error
	FindByID(ctx context.Context, id domain.OrganizationID) (*models.Organization, error)
	Execute(ctx context.Context, id domain.OrganizationID, fn func(txCtx context.Context, o *models.Organization) error) (*models.Organization, error)
	AppendHistory(ctx context.Context, id domain.OrganizationID, entry models.VerificationHistoryEntry) error
	ListHistory(ctx context.Context, id domain.OrganizationID) ([]models.VerificationHistoryEntry, error)
	Delete(ctx context.Context, id domain.OrganizationID, fn func(txCtx context.Context) error) error
	CountByStatus(ctx context.Context) (map[models.VerificationStatus]int, error)
}

// ApplicationRemover deletes all applications belonging to an organization.
// Implemented by the application store; consumed by the deletion cascade.
type ApplicationRemover interface {
	DeleteByOrganization(ctx context.Context, orgID domain.OrganizationID) (int, error)
}

// Service orchestrates the organization verification lifecycle.
type Service struct {
	orgs         OrganizationStore
	recorder     *audit.Recorder
	applications ApplicationRemover
	catalog      petcatalog.Catalog
	notifier     notify.Notifier
	metrics      *metrics.Metrics
	logger       *slog.Logger
}

type Option func(s *Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithNotifier(notifier notify.Notifier) Option {
	return func(s *Service) { s.notifier = notifier }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithApplicationRemover wires the application store so organization
// deletion can cascade to that organization's applications.
func WithApplicationRemover(remover ApplicationRemover) Option {
	return func(s *Service) { s.applications = remover }
}

// WithCatalog wires the external pet catalog notified when an organization
// and its pets disappear.
func WithCatalog(catalog petcatalog.Catalog) Option {
	return func(s *Service) { s.catalog = catalog }
}

func New(orgs OrganizationStore, recorder *audit.Recorder, opts ...Option) *Service {
	s := &Service{
		orgs:     orgs,
		recorder: recorder,
		catalog:  petcatalog.Noop{},
		notifier: notify.Noop{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register creates an organization in pending verification and records the
// creating audit event.
func (s *Service) Register(ctx context.Context, name, email, document string) (*models.Organization, error) {
	now := requestcontext.Now(ctx)
	org, err := models.NewOrganization(domain.NewOrganizationID(), name, email, document, now)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeInvariantViolation) {
			return nil, dErrors.New(dErrors.CodeValidation, err.Error())
		}
		return nil, err
	}

	if err := s.orgs.Create(ctx, org); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create organization")
	}

	actor := requestcontext.Actor(ctx)
	actorID := actor.ID
	actorRole := actor.Role
	if actorID == "" {
		actorID = org.ID.String()
		actorRole = domain.RoleOrganization
	}
	if _, err := s.recorder.Record(ctx, audit.Entry{
		EntityType: audit.EntityOrganization,
		EntityID:   org.ID.String(),
		NewStatus:  org.VerificationStatus.String(),
		ActorID:    actorID,
		ActorRole:  actorRole,
		Timestamp:  now,
	}); err != nil {
		return nil, err
	}

	return org, nil
}

// Get returns the organization with the given id.
func (s *Service) Get(ctx context.Context, orgID domain.OrganizationID) (*models.Organization, error) {
	org, err := s.orgs.FindByID(ctx, orgID)
	if err != nil {
		return nil, wrapOrgErr(err)
	}
	return org, nil
}

// CanActAsVerifiedOrganization reports whether the organization may perform
// adopter-facing actions. Consumed by the application machine and the pet
// catalog.
func (s *Service) CanActAsVerifiedOrganization(ctx context.Context, orgID domain.OrganizationID) (bool, error) {
	org, err := s.orgs.FindByID(ctx, orgID)
	if err != nil {
		return false, wrapOrgErr(err)
	}
	return org.IsVerified(), nil
}

// Decide applies an admin verification decision. Moving to followup or
// rejected requires non-empty notes. Rejected is terminal.
func (s *Service) Decide(ctx context.Context, orgID domain.OrganizationID, newStatus models.VerificationStatus, notes string) (*models.Organization, error) {
	actor := requestcontext.Actor(ctx)
	if actor.Role != domain.RoleAdmin {
		return nil, dErrors.New(dErrors.CodeNotAuthorized, "verification decisions require the admin role")
	}
	if !newStatus.IsValid() {
		return nil, dErrors.Newf(dErrors.CodeValidation, "unknown verification status %q", newStatus)
	}
	notes = strings.TrimSpace(notes)
	if notes == "" && (newStatus == models.VerificationFollowup || newStatus == models.VerificationRejected) {
		return nil, dErrors.Newf(dErrors.CodeMissingReason, "%s decisions require notes", newStatus)
	}

	now := requestcontext.Now(ctx)
	org, err := s.orgs.Execute(ctx, orgID, func(txCtx context.Context, o *models.Organization) error {
		if err := o.CanDecide(newStatus); err != nil {
			return err
		}
		previous := o.VerificationStatus
		o.ApplyDecision(newStatus, notes, now)

		if err := s.orgs.AppendHistory(txCtx, orgID, models.VerificationHistoryEntry{
			PreviousStatus: previous,
			NewStatus:      newStatus,
			Notes:          notes,
			Resubmission:   false,
			AdminID:        actor.ID,
			Timestamp:      now,
		}); err != nil {
			return err
		}
		_, err := s.recorder.Record(txCtx, audit.Entry{
			EntityType:     audit.EntityOrganization,
			EntityID:       orgID.String(),
			PreviousStatus: previous.String(),
			NewStatus:      newStatus.String(),
			ActorID:        actor.ID,
			ActorRole:      actor.Role,
			Notes:          notes,
			Timestamp:      now,
		})
		return err
	})
	if err != nil {
		return nil, wrapOrgErr(err)
	}

	if s.metrics != nil {
		s.metrics.IncVerificationDecision(newStatus.String())
	}
	s.publish(ctx, orgID, org.VerificationStatus.String())
	return org, nil
}

// Resubmit returns a followup organization to pending with a new document.
// Legal only for the organization itself. The displayed notes are cleared;
// history keeps the admin's followup instructions.
func (s *Service) Resubmit(ctx context.Context, orgID domain.OrganizationID, document string) (*models.Organization, error) {
	actor := requestcontext.Actor(ctx)
	if actor.Role != domain.RoleOrganization || actor.ID != orgID.String() {
		return nil, dErrors.New(dErrors.CodeNotAuthorized, "only the organization itself may resubmit verification")
	}
	document = strings.TrimSpace(document)
	if document == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "resubmission requires a verification document")
	}

	now := requestcontext.Now(ctx)
	org, err := s.orgs.Execute(ctx, orgID, func(txCtx context.Context, o *models.Organization) error {
		if err := o.CanResubmit(); err != nil {
			return err
		}
		previous := o.VerificationStatus
		o.ApplyResubmission(document, now)

		if err := s.orgs.AppendHistory(txCtx, orgID, models.VerificationHistoryEntry{
			PreviousStatus: previous,
			NewStatus:      o.VerificationStatus,
			Resubmission:   true,
			Timestamp:      now,
		}); err != nil {
			return err
		}
		_, err := s.recorder.Record(txCtx, audit.Entry{
			EntityType:     audit.EntityOrganization,
			EntityID:       orgID.String(),
			PreviousStatus: previous.String(),
			NewStatus:      o.VerificationStatus.String(),
			ActorID:        actor.ID,
			ActorRole:      actor.Role,
			Notes:          "resubmitted verification document",
			Timestamp:      now,
		})
		return err
	})
	if err != nil {
		return nil, wrapOrgErr(err)
	}

	s.publish(ctx, orgID, org.VerificationStatus.String())
	return org, nil
}

// History returns the organization's verification history, oldest first.
func (s *Service) History(ctx context.Context, orgID domain.OrganizationID) ([]models.VerificationHistoryEntry, error) {
	if _, err := s.orgs.FindByID(ctx, orgID); err != nil {
		return nil, wrapOrgErr(err)
	}
	return s.orgs.ListHistory(ctx, orgID)
}

// Delete removes an organization and cascades to its applications. Admin
// only; a reason is required and lands in the audit trail before the rows
// disappear.
func (s *Service) Delete(ctx context.Context, orgID domain.OrganizationID, reason string) error {
	actor := requestcontext.Actor(ctx)
	if actor.Role != domain.RoleAdmin {
		return dErrors.New(dErrors.CodeNotAuthorized, "organization deletion requires the admin role")
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return dErrors.New(dErrors.CodeMissingReason, "organization deletion requires a reason")
	}

	org, err := s.orgs.FindByID(ctx, orgID)
	if err != nil {
		return wrapOrgErr(err)
	}

	now := requestcontext.Now(ctx)
	var removed int
	err = s.orgs.Delete(ctx, orgID, func(txCtx context.Context) error {
		if s.applications != nil {
			n, err := s.applications.DeleteByOrganization(txCtx, orgID)
			if err != nil {
				return err
			}
			removed = n
		}
		_, err := s.recorder.Record(txCtx, audit.Entry{
			EntityType:     audit.EntityOrganization,
			EntityID:       orgID.String(),
			PreviousStatus: org.VerificationStatus.String(),
			NewStatus:      org.VerificationStatus.String(),
			ActorID:        actor.ID,
			ActorRole:      actor.Role,
			Notes:          "organization deleted: " + reason,
			Timestamp:      now,
		})
		return err
	})
	if err != nil {
		return wrapOrgErr(err)
	}

	// Pet records live outside this engine; the catalog drops them.
	if err := s.catalog.OrganizationDeleted(ctx, orgID); err != nil && s.logger != nil {
		s.logger.WarnContext(ctx, "failed to notify pet catalog of deletion",
			"organization_id", orgID.String(),
			"error", err,
		)
	}
	if err := s.notifier.Publish(ctx, notify.Event{
		Type:     notify.OrganizationDeleted,
		EntityID: orgID.String(),
		ActorID:  actor.ID,
	}); err != nil && s.logger != nil {
		s.logger.WarnContext(ctx, "failed to publish deletion event",
			"organization_id", orgID.String(),
			"error", err,
		)
	}

	if s.logger != nil {
		s.logger.InfoContext(ctx, "organization deleted",
			"organization_id", orgID.String(),
			"admin_id", actor.ID,
			"applications_removed", removed,
			"request_id", requestcontext.RequestID(ctx),
		)
	}
	return nil
}

// CountByStatus exposes the verification distribution to the stats engine.
func (s *Service) CountByStatus(ctx context.Context) (map[models.VerificationStatus]int, error) {
	return s.orgs.CountByStatus(ctx)
}

func (s *Service) publish(ctx context.Context, orgID domain.OrganizationID, newStatus string) {
	if err := s.notifier.Publish(ctx, notify.Event{
		Type:      notify.OrganizationStatusChanged,
		EntityID:  orgID.String(),
		NewStatus: newStatus,
	}); err != nil && s.logger != nil {
		s.logger.WarnContext(ctx, "failed to publish status event",
			"organization_id", orgID.String(),
			"error", err,
		)
	}
}

func wrapOrgErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.New(dErrors.CodeNotFound, "organization not found")
	}
	var de *dErrors.Error
	if errors.As(err, &de) {
		return err
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, "organization store failure")
}
