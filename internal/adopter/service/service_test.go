package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"homeward/internal/adopter/models"
	"homeward/internal/adopter/store"
	"homeward/internal/audit"
	auditmemory "homeward/internal/audit/store/memory"
	"homeward/pkg/domain"
	dErrors "homeward/pkg/domain-errors"
	"homeward/pkg/requestcontext"
)

type stubApplicationChecker struct {
	active bool
	err    error
}

func (s stubApplicationChecker) HasActiveApplications(context.Context, domain.AdopterID) (bool, error) {
	return s.active, s.err
}

func newTestService(t *testing.T, opts ...Option) (*Service, *audit.Recorder) {
	t.Helper()
	recorder := audit.NewRecorder(auditmemory.NewInMemoryStore())
	return New(store.NewInMemory(), recorder, opts...), recorder
}

func adminCtx() context.Context {
	ctx := requestcontext.WithActor(context.Background(), domain.Actor{
		ID:   "admin-1",
		Role: domain.RoleAdmin,
	})
	return requestcontext.WithTime(ctx, time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC))
}

func adopterCtx(id string) context.Context {
	return requestcontext.WithActor(context.Background(), domain.Actor{
		ID:   id,
		Role: domain.RoleAdopter,
	})
}

func TestRegister(t *testing.T) {
	svc, recorder := newTestService(t)
	ctx := adminCtx()

	adopter, err := svc.Register(ctx, "  Dana Reyes  ", "dana@example.com")
	require.NoError(t, err)
	require.Equal(t, "Dana Reyes", adopter.Name)
	require.Equal(t, models.StandingActive, adopter.Status)

	trail, err := recorder.History(ctx, audit.EntityAdopter, adopter.ID.String())
	require.NoError(t, err)
	require.Len(t, trail, 1)
	require.Empty(t, trail[0].PreviousStatus, "creating event has no previous status")
	require.Equal(t, "active", trail[0].NewStatus)
}

func TestRegisterRejectsEmptyFields(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.Register(context.Background(), "   ", "dana@example.com")
	require.True(t, dErrors.HasCode(err, dErrors.CodeValidation))

	_, err = svc.Register(context.Background(), "Dana", "")
	require.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
}

func TestSuspendRequiresAdmin(t *testing.T) {
	svc, _ := newTestService(t)
	adopter, err := svc.Register(adminCtx(), "Dana", "dana@example.com")
	require.NoError(t, err)

	_, err = svc.Suspend(adopterCtx(adopter.ID.String()), adopter.ID, "fraudulent references")
	require.True(t, dErrors.HasCode(err, dErrors.CodeNotAuthorized))
}

func TestSuspendRequiresNotes(t *testing.T) {
	svc, _ := newTestService(t)
	adopter, err := svc.Register(adminCtx(), "Dana", "dana@example.com")
	require.NoError(t, err)

	_, err = svc.Suspend(adminCtx(), adopter.ID, "   ")
	require.True(t, dErrors.HasCode(err, dErrors.CodeMissingReason))
}

func TestSuspendAndResuspend(t *testing.T) {
	svc, recorder := newTestService(t)
	ctx := adminCtx()
	adopter, err := svc.Register(ctx, "Dana", "dana@example.com")
	require.NoError(t, err)

	suspended, err := svc.Suspend(ctx, adopter.ID, "fraudulent references")
	require.NoError(t, err)
	require.Equal(t, models.StandingSuspended, suspended.Status)

	// Suspending again is legal and records the updated reason.
	again, err := svc.Suspend(ctx, adopter.ID, "second incident reported")
	require.NoError(t, err)
	require.Equal(t, models.StandingSuspended, again.Status)

	history, err := svc.History(ctx, adopter.ID)
	require.NoError(t, err)
	require.Len(t, history, 2)
	require.Equal(t, models.ActionSuspend, history[0].Action)
	require.Equal(t, "second incident reported", history[1].Notes)
	require.Equal(t, "admin-1", history[1].AdminID)

	trail, err := recorder.History(ctx, audit.EntityAdopter, adopter.ID.String())
	require.NoError(t, err)
	require.Len(t, trail, 3, "register plus two suspensions")
	require.Equal(t, "suspended", trail[2].PreviousStatus)
	require.Equal(t, "suspended", trail[2].NewStatus)
}

func TestReactivateIdempotentWhenActive(t *testing.T) {
	svc, recorder := newTestService(t)
	ctx := adminCtx()
	adopter, err := svc.Register(ctx, "Dana", "dana@example.com")
	require.NoError(t, err)

	// No notes, already active: a no-op that still succeeds.
	reactivated, err := svc.Reactivate(ctx, adopter.ID, "")
	require.NoError(t, err)
	require.Equal(t, models.StandingActive, reactivated.Status)

	history, err := svc.History(ctx, adopter.ID)
	require.NoError(t, err)
	require.Empty(t, history)

	trail, err := recorder.History(ctx, audit.EntityAdopter, adopter.ID.String())
	require.NoError(t, err)
	require.Len(t, trail, 1, "only the creating event")
}

func TestReactivateActiveWithNotesAppendsHistory(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := adminCtx()
	adopter, err := svc.Register(ctx, "Dana", "dana@example.com")
	require.NoError(t, err)

	_, err = svc.Reactivate(ctx, adopter.ID, "cleared after manual review")
	require.NoError(t, err)

	history, err := svc.History(ctx, adopter.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	require.Equal(t, models.ActionReactivate, history[0].Action)
}

func TestSuspendReactivateRoundTrip(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := adminCtx()
	adopter, err := svc.Register(ctx, "Dana", "dana@example.com")
	require.NoError(t, err)

	_, err = svc.Suspend(ctx, adopter.ID, "incomplete home check")
	require.NoError(t, err)

	suspended, err := svc.IsSuspended(ctx, adopter.ID)
	require.NoError(t, err)
	require.True(t, suspended)

	reactivated, err := svc.Reactivate(ctx, adopter.ID, "home check completed")
	require.NoError(t, err)
	require.Equal(t, models.StandingActive, reactivated.Status)

	suspended, err = svc.IsSuspended(ctx, adopter.ID)
	require.NoError(t, err)
	require.False(t, suspended)
}

func TestDeleteRequiresReason(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := adminCtx()
	adopter, err := svc.Register(ctx, "Dana", "dana@example.com")
	require.NoError(t, err)

	err = svc.Delete(ctx, adopter.ID, "")
	require.True(t, dErrors.HasCode(err, dErrors.CodeMissingReason))
}

func TestDeleteBlockedByActiveApplications(t *testing.T) {
	svc, _ := newTestService(t, WithApplicationChecker(stubApplicationChecker{active: true}))
	ctx := adminCtx()
	adopter, err := svc.Register(ctx, "Dana", "dana@example.com")
	require.NoError(t, err)

	err = svc.Delete(ctx, adopter.ID, "requested account closure")
	require.True(t, dErrors.HasCode(err, dErrors.CodeHasActiveApplications))

	// The account survives a refused deletion.
	_, err = svc.Get(ctx, adopter.ID)
	require.NoError(t, err)
}

func TestDeleteRecordsAuditBeforeRemoval(t *testing.T) {
	svc, recorder := newTestService(t, WithApplicationChecker(stubApplicationChecker{}))
	ctx := adminCtx()
	adopter, err := svc.Register(ctx, "Dana", "dana@example.com")
	require.NoError(t, err)

	err = svc.Delete(ctx, adopter.ID, "requested account closure")
	require.NoError(t, err)

	_, err = svc.Get(ctx, adopter.ID)
	require.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))

	trail, err := recorder.History(ctx, audit.EntityAdopter, adopter.ID.String())
	require.NoError(t, err)
	require.Len(t, trail, 2)
	require.Contains(t, trail[1].Notes, "requested account closure")
}

func TestGetUnknownAdopter(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.Get(context.Background(), domain.NewAdopterID())
	require.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
}
