// Package service implements the adoption application state machine.
// Applications are created pending by adopters, moved through reviewing to
// approved or rejected by the owning organization or an admin, and may be
// withdrawn by the owning adopter while still pending or reviewing.
package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"homeward/internal/application/models"
	"homeward/internal/audit"
	"homeward/internal/notify"
	"homeward/internal/petcatalog"
	"homeward/internal/platform/metrics"
	"homeward/pkg/domain"
	dErrors "homeward/pkg/domain-errors"
	"homeward/pkg/platform/sentinel"
	"homeward/pkg/requestcontext"
)

// ApplicationStore persists adoption applications.
type ApplicationStore interface {
	CreateActive(ctx context.Context, app *models.Application) error
	FindByID(ctx context.Context, id domain.ApplicationID) (*models.Application, error)
	FindActiveNumber(ctx context.Context, adopterID domain.AdopterID, petID domain.PetID) (string, bool, error)
	Execute(ctx context.Context, id domain.ApplicationID, fn func(txCtx context.Context, a *models.Application) error) (*models.Application, error)
	Delete(ctx context.Context, id domain.ApplicationID, fn func(txCtx context.Context) error) error
	CountByStatus(ctx context.Context) (map[models.Status]int, error)
}

// StandingReader reports adopter standing. Implemented by the adopter
// service; gates Submit.
type StandingReader interface {
	IsSuspended(ctx context.Context, adopterID domain.AdopterID) (bool, error)
}

// VerificationGate reports whether an organization may act towards adopters.
// Implemented by the organization service; gates organization-initiated
// transitions.
type VerificationGate interface {
	CanActAsVerifiedOrganization(ctx context.Context, orgID domain.OrganizationID) (bool, error)
}

// Service orchestrates the adoption application lifecycle.
type Service struct {
	apps     ApplicationStore
	recorder *audit.Recorder
	standing StandingReader
	verified VerificationGate
	catalog  petcatalog.Catalog
	notifier notify.Notifier
	metrics  *metrics.Metrics
	logger   *slog.Logger
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

// WithStandingReader wires the adopter standing gate for Submit.
func WithStandingReader(standing StandingReader) Option {
	return func(s *Service) { s.standing = standing }
}

// WithVerificationGate wires the organization verification gate for
// organization-initiated transitions.
func WithVerificationGate(gate VerificationGate) Option {
	return func(s *Service) { s.verified = gate }
}

// WithCatalog wires the external pet catalog notified on approval.
func WithCatalog(catalog petcatalog.Catalog) Option {
	return func(s *Service) { s.catalog = catalog }
}

func New(apps ApplicationStore, recorder *audit.Recorder, opts ...Option) *Service {
	s := &Service{
		apps:     apps,
		recorder: recorder,
		catalog:  petcatalog.Noop{},
		notifier: notify.Noop{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Submit creates a pending application for the calling adopter. The
// uniqueness check and the insert are atomic in the store, so concurrent
// submissions for the same pet cannot both succeed.
func (s *Service) Submit(
	ctx context.Context,
	petID domain.PetID,
	orgID domain.OrganizationID,
	questionnaire models.Questionnaire,
	reference models.Reference,
	termsAccepted bool,
) (*models.Application, error) {
	actor := requestcontext.Actor(ctx)
	if actor.Role != domain.RoleAdopter {
		return nil, dErrors.New(dErrors.CodeNotAuthorized, "only adopters may submit applications")
	}
	adopterID, err := domain.ParseAdopterID(actor.ID)
	if err != nil {
		return nil, dErrors.New(dErrors.CodeNotAuthorized, "actor id is not a valid adopter id")
	}

	if s.standing != nil {
		suspended, err := s.standing.IsSuspended(ctx, adopterID)
		if err != nil {
			return nil, err
		}
		if suspended {
			return nil, dErrors.New(dErrors.CodeAdopterSuspended, "suspended adopters cannot submit applications")
		}
	}

	now := requestcontext.Now(ctx)
	app, err := models.NewApplication(domain.NewApplicationID(), petID, adopterID, orgID, questionnaire, reference, termsAccepted, now)
	if err != nil {
		return nil, err
	}

	if err := s.apps.CreateActive(ctx, app); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			if number, ok, findErr := s.apps.FindActiveNumber(ctx, adopterID, petID); findErr == nil && ok {
				return nil, dErrors.Newf(dErrors.CodeDuplicateApplication,
					"an active application %s already exists for this pet", number)
			}
			return nil, dErrors.New(dErrors.CodeDuplicateApplication,
				"an active application already exists for this pet")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create application")
	}

	if _, err := s.recorder.Record(ctx, audit.Entry{
		EntityType: audit.EntityApplication,
		EntityID:   app.ID.String(),
		NewStatus:  app.Status.String(),
		ActorID:    actor.ID,
		ActorRole:  actor.Role,
		Timestamp:  now,
	}); err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.IncApplicationsSubmitted()
	}
	s.publish(ctx, app.ID, "", app.Status.String())

	if s.logger != nil {
		s.logger.InfoContext(ctx, "application submitted",
			"application_id", app.ID.String(),
			"application_number", app.ApplicationNumber,
			"adopter_id", adopterID.String(),
			"pet_id", petID.String(),
		)
	}
	return app, nil
}

// Get returns the application with the given id.
func (s *Service) Get(ctx context.Context, appID domain.ApplicationID) (*models.Application, error) {
	app, err := s.apps.FindByID(ctx, appID)
	if err != nil {
		return nil, wrapAppErr(err)
	}
	return app, nil
}

// History returns the application's audit trail, oldest first.
func (s *Service) History(ctx context.Context, appID domain.ApplicationID) ([]audit.Entry, error) {
	if _, err := s.apps.FindByID(ctx, appID); err != nil {
		return nil, wrapAppErr(err)
	}
	return s.recorder.History(ctx, audit.EntityApplication, appID.String())
}

// Transition moves the application to newStatus. Organization actors must
// own the application and hold verified standing; admins may transition any
// application; withdrawal is reserved for the owning adopter.
func (s *Service) Transition(ctx context.Context, appID domain.ApplicationID, newStatus models.Status, notes string) (*models.Application, error) {
	actor := requestcontext.Actor(ctx)
	if !newStatus.IsValid() {
		return nil, dErrors.Newf(dErrors.CodeValidation, "unknown application status %q", newStatus)
	}
	notes = strings.TrimSpace(notes)
	if newStatus == models.StatusRejected && notes == "" {
		return nil, dErrors.New(dErrors.CodeMissingReason, "rejection requires a reason")
	}

	now := requestcontext.Now(ctx)
	var previous models.Status
	app, err := s.apps.Execute(ctx, appID, func(txCtx context.Context, a *models.Application) error {
		if err := s.authorizeTransition(ctx, actor, a, newStatus); err != nil {
			return err
		}
		if err := a.CanTransitionTo(newStatus); err != nil {
			return err
		}
		previous = a.Status

		reviewedBy := ""
		if actor.Role == domain.RoleOrganization || actor.Role == domain.RoleAdmin {
			reviewedBy = actor.ID
		}
		a.ApplyTransition(newStatus, notes, reviewedBy, now)

		_, err := s.recorder.Record(txCtx, audit.Entry{
			EntityType:     audit.EntityApplication,
			EntityID:       appID.String(),
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
		return nil, wrapAppErr(err)
	}

	if s.metrics != nil {
		s.metrics.IncApplicationTransition(newStatus.String())
	}
	s.publish(ctx, appID, previous.String(), newStatus.String())

	// Pet availability is owned by the catalog, not this engine.
	if newStatus == models.StatusApproved {
		if err := s.catalog.NotifyApplicationApproved(ctx, app.PetID, app.ID); err != nil && s.logger != nil {
			s.logger.WarnContext(ctx, "failed to notify pet catalog of approval",
				"application_id", appID.String(),
				"pet_id", app.PetID.String(),
				"error", err,
			)
		}
	}
	return app, nil
}

// Withdraw is the adopter-facing shorthand for transitioning to withdrawn.
func (s *Service) Withdraw(ctx context.Context, appID domain.ApplicationID) (*models.Application, error) {
	return s.Transition(ctx, appID, models.StatusWithdrawn, "")
}

// Delete removes a terminally rejected application. Legal for an admin or
// the owning organization; no other entity is affected.
func (s *Service) Delete(ctx context.Context, appID domain.ApplicationID) error {
	actor := requestcontext.Actor(ctx)

	app, err := s.apps.FindByID(ctx, appID)
	if err != nil {
		return wrapAppErr(err)
	}

	switch actor.Role {
	case domain.RoleAdmin:
	case domain.RoleOrganization:
		if actor.ID != app.OrganizationID.String() {
			return dErrors.New(dErrors.CodeNotAuthorized, "only the owning organization may delete this application")
		}
	default:
		return dErrors.New(dErrors.CodeNotAuthorized, "application deletion requires the organization or admin role")
	}
	if app.Status != models.StatusRejected {
		return dErrors.Newf(dErrors.CodeIllegalTransition,
			"only rejected applications may be deleted, not %s", app.Status)
	}

	now := requestcontext.Now(ctx)
	err = s.apps.Delete(ctx, appID, func(txCtx context.Context) error {
		_, err := s.recorder.Record(txCtx, audit.Entry{
			EntityType:     audit.EntityApplication,
			EntityID:       appID.String(),
			PreviousStatus: app.Status.String(),
			NewStatus:      app.Status.String(),
			ActorID:        actor.ID,
			ActorRole:      actor.Role,
			Notes:          "application deleted",
			Timestamp:      now,
		})
		return err
	})
	if err != nil {
		return wrapAppErr(err)
	}

	if s.logger != nil {
		s.logger.InfoContext(ctx, "application deleted",
			"application_id", appID.String(),
			"actor_id", actor.ID,
			"request_id", requestcontext.RequestID(ctx),
		)
	}
	return nil
}

// CountByStatus exposes the application status distribution to the stats
// engine.
func (s *Service) CountByStatus(ctx context.Context) (map[models.Status]int, error) {
	return s.apps.CountByStatus(ctx)
}

// authorizeTransition enforces the role and ownership rules for a status
// change. Withdrawal belongs to the owning adopter; everything else belongs
// to the owning verified organization or an admin.
func (s *Service) authorizeTransition(ctx context.Context, actor domain.Actor, app *models.Application, newStatus models.Status) error {
	if newStatus == models.StatusWithdrawn {
		if actor.Role != domain.RoleAdopter || actor.ID != app.AdopterID.String() {
			return dErrors.New(dErrors.CodeNotAuthorized, "only the owning adopter may withdraw an application")
		}
		return nil
	}

	switch actor.Role {
	case domain.RoleAdmin:
		return nil
	case domain.RoleOrganization:
		if actor.ID != app.OrganizationID.String() {
			return dErrors.New(dErrors.CodeNotAuthorized, "only the owning organization may review this application")
		}
		if s.verified != nil {
			ok, err := s.verified.CanActAsVerifiedOrganization(ctx, app.OrganizationID)
			if err != nil {
				return err
			}
			if !ok {
				return dErrors.New(dErrors.CodeNotAuthorized, "organization is not verified")
			}
		}
		return nil
	default:
		return dErrors.New(dErrors.CodeNotAuthorized, "application review requires the organization or admin role")
	}
}

func (s *Service) publish(ctx context.Context, appID domain.ApplicationID, previousStatus, newStatus string) {
	if err := s.notifier.Publish(ctx, notify.Event{
		Type:           notify.ApplicationStatusChanged,
		EntityID:       appID.String(),
		PreviousStatus: previousStatus,
		NewStatus:      newStatus,
	}); err != nil && s.logger != nil {
		s.logger.WarnContext(ctx, "failed to publish status event",
			"application_id", appID.String(),
			"error", err,
		)
	}
}

func wrapAppErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.New(dErrors.CodeNotFound, "application not found")
	}
	var de *dErrors.Error
	if errors.As(err, &de) {
		return err
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, "application store failure")
}
