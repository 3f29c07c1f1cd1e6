// Package service implements the adopter standing state machine: the
// active/suspended lifecycle of an adopter account. Standing is independent
// of the application machine but gates it - a suspended adopter cannot
// submit new adoption applications.
package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"homeward/internal/adopter/models"
	"homeward/internal/audit"
	"homeward/internal/notify"
	"homeward/internal/platform/metrics"
	"homeward/pkg/domain"
	dErrors "homeward/pkg/domain-errors"
	"homeward/pkg/platform/sentinel"
	"homeward/pkg/requestcontext"
)

// AdopterStore persists adopter accounts and their standing history.
type AdopterStore interface {
	Create(ctx context.Context, adopter *models.Adopter) error
	FindByID(ctx context.Context, id domain.AdopterID) (*models.Adopter, error)
	Execute(ctx context.Context, id domain.AdopterID, fn func(txCtx context.Context, a *models.Adopter) error) (*models.Adopter, error)
	AppendHistory(ctx context.Context, id domain.AdopterID, entry models.StandingHistoryEntry) error
	ListHistory(ctx context.Context, id domain.AdopterID) ([]models.StandingHistoryEntry, error)
	Delete(ctx context.Context, id domain.AdopterID, fn func(txCtx context.Context) error) error
	CountByStatus(ctx context.Context) (map[models.StandingStatus]int, error)
}

// ActiveApplicationChecker reports whether an adopter still has applications
// in a non-terminal status. Implemented by the application store; consumed
// here so account deletion cannot orphan in-flight applications.
type ActiveApplicationChecker interface {
	HasActiveApplications(ctx context.Context, adopterID domain.AdopterID) (bool, error)
}

// Service orchestrates the adopter standing lifecycle.
type Service struct {
	adopters     AdopterStore
	recorder     *audit.Recorder
	applications ActiveApplicationChecker
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

// WithApplicationChecker wires the application store so Delete can refuse
// accounts that still have non-terminal applications.
func WithApplicationChecker(checker ActiveApplicationChecker) Option {
	return func(s *Service) { s.applications = checker }
}

func New(adopters AdopterStore, recorder *audit.Recorder, opts ...Option) *Service {
	s := &Service{
		adopters: adopters,
		recorder: recorder,
		notifier: notify.Noop{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register creates an adopter account in active standing and records the
// creating audit event.
func (s *Service) Register(ctx context.Context, name, email string) (*models.Adopter, error) {
	now := requestcontext.Now(ctx)
	adopter, err := models.NewAdopter(domain.NewAdopterID(), name, email, now)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeInvariantViolation) {
			return nil, dErrors.New(dErrors.CodeValidation, err.Error())
		}
		return nil, err
	}

	if err := s.adopters.Create(ctx, adopter); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create adopter")
	}

	actor := requestcontext.Actor(ctx)
	if _, err := s.recorder.Record(ctx, audit.Entry{
		EntityType: audit.EntityAdopter,
		EntityID:   adopter.ID.String(),
		NewStatus:  adopter.Status.String(),
		ActorID:    actorOrSelf(actor, adopter.ID.String()),
		ActorRole:  actorRoleOrDefault(actor, domain.RoleAdopter),
		Timestamp:  now,
	}); err != nil {
		return nil, err
	}

	return adopter, nil
}

// Get returns the adopter with the given id.
func (s *Service) Get(ctx context.Context, adopterID domain.AdopterID) (*models.Adopter, error) {
	adopter, err := s.adopters.FindByID(ctx, adopterID)
	if err != nil {
		return nil, wrapAdopterErr(err)
	}
	return adopter, nil
}

// IsSuspended implements the standing gate consumed by the application
// machine's submit path.
func (s *Service) IsSuspended(ctx context.Context, adopterID domain.AdopterID) (bool, error) {
	adopter, err := s.adopters.FindByID(ctx, adopterID)
	if err != nil {
		return false, wrapAdopterErr(err)
	}
	return adopter.IsSuspended(), nil
}

// Suspend transitions an adopter to suspended standing. Admin only; notes
// are required. Suspending an already-suspended adopter is permitted and
// updates the recorded reason - each attempt appends history.
func (s *Service) Suspend(ctx context.Context, adopterID domain.AdopterID, notes string) (*models.Adopter, error) {
	actor, err := requireAdmin(ctx)
	if err != nil {
		return nil, err
	}
	notes = strings.TrimSpace(notes)
	if notes == "" {
		return nil, dErrors.New(dErrors.CodeMissingReason, "suspension requires a reason")
	}

	now := requestcontext.Now(ctx)
	adopter, err := s.adopters.Execute(ctx, adopterID, func(txCtx context.Context, a *models.Adopter) error {
		previous := a.Status
		a.ApplySuspension(notes, now)

		if err := s.adopters.AppendHistory(txCtx, adopterID, models.StandingHistoryEntry{
			Action:    models.ActionSuspend,
			Notes:     notes,
			AdminID:   actor.ID,
			Timestamp: now,
		}); err != nil {
			return err
		}
		_, err := s.recorder.Record(txCtx, audit.Entry{
			EntityType:     audit.EntityAdopter,
			EntityID:       adopterID.String(),
			PreviousStatus: previous.String(),
			NewStatus:      a.Status.String(),
			ActorID:        actor.ID,
			ActorRole:      actor.Role,
			Notes:          notes,
			Timestamp:      now,
		})
		return err
	})
	if err != nil {
		return nil, wrapAdopterErr(err)
	}

	s.incStandingChange(string(models.ActionSuspend))
	s.publish(ctx, notify.AdopterStatusChanged, adopterID.String(), adopter.Status.String())
	return adopter, nil
}

// Reactivate transitions an adopter back to active standing. Admin only.
// Idempotent when already active: the current state is returned and a
// history entry is appended only when notes were supplied.
func (s *Service) Reactivate(ctx context.Context, adopterID domain.AdopterID, notes string) (*models.Adopter, error) {
	actor, err := requireAdmin(ctx)
	if err != nil {
		return nil, err
	}
	notes = strings.TrimSpace(notes)

	now := requestcontext.Now(ctx)
	var changed bool
	adopter, err := s.adopters.Execute(ctx, adopterID, func(txCtx context.Context, a *models.Adopter) error {
		previous := a.Status
		alreadyActive := previous == models.StandingActive
		if alreadyActive && notes == "" {
			return nil
		}
		a.ApplyReactivation(notes, now)
		changed = !alreadyActive

		if err := s.adopters.AppendHistory(txCtx, adopterID, models.StandingHistoryEntry{
			Action:    models.ActionReactivate,
			Notes:     notes,
			AdminID:   actor.ID,
			Timestamp: now,
		}); err != nil {
			return err
		}
		_, err := s.recorder.Record(txCtx, audit.Entry{
			EntityType:     audit.EntityAdopter,
			EntityID:       adopterID.String(),
			PreviousStatus: previous.String(),
			NewStatus:      a.Status.String(),
			ActorID:        actor.ID,
			ActorRole:      actor.Role,
			Notes:          notes,
			Timestamp:      now,
		})
		return err
	})
	if err != nil {
		return nil, wrapAdopterErr(err)
	}

	if changed {
		s.incStandingChange(string(models.ActionReactivate))
		s.publish(ctx, notify.AdopterStatusChanged, adopterID.String(), adopter.Status.String())
	}
	return adopter, nil
}

// History returns the adopter's standing history, oldest first.
func (s *Service) History(ctx context.Context, adopterID domain.AdopterID) ([]models.StandingHistoryEntry, error) {
	if _, err := s.adopters.FindByID(ctx, adopterID); err != nil {
		return nil, wrapAdopterErr(err)
	}
	return s.adopters.ListHistory(ctx, adopterID)
}

// Delete removes an adopter account. Admin only; a reason is required and is
// recorded in the audit trail before the row disappears, since the trail
// cannot reference a deleted actor afterwards. Deletion is refused while the
// adopter has applications in a non-terminal status.
func (s *Service) Delete(ctx context.Context, adopterID domain.AdopterID, reason string) error {
	actor, err := requireAdmin(ctx)
	if err != nil {
		return err
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return dErrors.New(dErrors.CodeMissingReason, "account deletion requires a reason")
	}

	adopter, err := s.adopters.FindByID(ctx, adopterID)
	if err != nil {
		return wrapAdopterErr(err)
	}

	if s.applications != nil {
		active, err := s.applications.HasActiveApplications(ctx, adopterID)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to check applications")
		}
		if active {
			return dErrors.New(dErrors.CodeHasActiveApplications,
				"adopter has applications in a non-terminal status")
		}
	}

	now := requestcontext.Now(ctx)
	err = s.adopters.Delete(ctx, adopterID, func(txCtx context.Context) error {
		_, err := s.recorder.Record(txCtx, audit.Entry{
			EntityType:     audit.EntityAdopter,
			EntityID:       adopterID.String(),
			PreviousStatus: adopter.Status.String(),
			NewStatus:      adopter.Status.String(),
			ActorID:        actor.ID,
			ActorRole:      actor.Role,
			Notes:          "account deleted: " + reason,
			Timestamp:      now,
		})
		return err
	})
	if err != nil {
		return wrapAdopterErr(err)
	}

	if s.logger != nil {
		s.logger.InfoContext(ctx, "adopter deleted",
			"adopter_id", adopterID.String(),
			"admin_id", actor.ID,
			"request_id", requestcontext.RequestID(ctx),
		)
	}
	return nil
}

// CountByStatus exposes the current standing distribution to the stats
// engine.
func (s *Service) CountByStatus(ctx context.Context) (map[models.StandingStatus]int, error) {
	return s.adopters.CountByStatus(ctx)
}

func (s *Service) publish(ctx context.Context, eventType notify.EventType, entityID, newStatus string) {
	if err := s.notifier.Publish(ctx, notify.Event{
		Type:      eventType,
		EntityID:  entityID,
		NewStatus: newStatus,
	}); err != nil && s.logger != nil {
		s.logger.WarnContext(ctx, "failed to publish status event",
			"event_type", string(eventType),
			"entity_id", entityID,
			"error", err,
		)
	}
}

func (s *Service) incStandingChange(action string) {
	if s.metrics != nil {
		s.metrics.IncStandingChange(action)
	}
}

func requireAdmin(ctx context.Context) (domain.Actor, error) {
	actor := requestcontext.Actor(ctx)
	if actor.Role != domain.RoleAdmin {
		return domain.Actor{}, dErrors.New(dErrors.CodeNotAuthorized, "operation requires the admin role")
	}
	return actor, nil
}

func actorOrSelf(actor domain.Actor, selfID string) string {
	if actor.ID != "" {
		return actor.ID
	}
	return selfID
}

func actorRoleOrDefault(actor domain.Actor, fallback domain.Role) domain.Role {
	if actor.Role != "" {
		return actor.Role
	}
	return fallback
}

func wrapAdopterErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.New(dErrors.CodeNotFound, "adopter not found")
	case dErrors.HasCode(err, dErrors.CodeInternal):
		return err
	}
	var de *dErrors.Error
	if errors.As(err, &de) {
		return err
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, "adopter store failure")
}
