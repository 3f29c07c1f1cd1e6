package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"homeward/internal/audit"
	auditmemory "homeward/internal/audit/store/memory"
	"homeward/internal/organization/models"
	"homeward/internal/organization/store"
	"homeward/pkg/domain"
	dErrors "homeward/pkg/domain-errors"
	"homeward/pkg/requestcontext"
)

type recordingRemover struct {
	calls   int
	removed int
	err     error
}

func (r *recordingRemover) DeleteByOrganization(context.Context, domain.OrganizationID) (int, error) {
	r.calls++
	return r.removed, r.err
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

func orgCtx(orgID domain.OrganizationID) context.Context {
	return requestcontext.WithActor(context.Background(), domain.Actor{
		ID:   orgID.String(),
		Role: domain.RoleOrganization,
	})
}

func register(t *testing.T, svc *Service) *models.Organization {
	t.Helper()
	org, err := svc.Register(context.Background(), "Paws Haven", "contact@pawshaven.org", "doc-v1.pdf")
	require.NoError(t, err)
	return org
}

func TestRegisterStartsPending(t *testing.T) {
	svc, recorder := newTestService(t)

	org := register(t, svc)
	require.Equal(t, models.VerificationPending, org.VerificationStatus)
	require.Equal(t, "doc-v1.pdf", org.VerificationDocument)

	trail, err := recorder.History(context.Background(), audit.EntityOrganization, org.ID.String())
	require.NoError(t, err)
	require.Len(t, trail, 1)
	require.Empty(t, trail[0].PreviousStatus)
	require.Equal(t, "pending", trail[0].NewStatus)
}

func TestDecideRequiresAdmin(t *testing.T) {
	svc, _ := newTestService(t)
	org := register(t, svc)

	_, err := svc.Decide(orgCtx(org.ID), org.ID, models.VerificationVerified, "")
	require.True(t, dErrors.HasCode(err, dErrors.CodeNotAuthorized))
}

func TestDecideRequiresNotesForFollowupAndRejected(t *testing.T) {
	svc, _ := newTestService(t)
	org := register(t, svc)

	for _, status := range []models.VerificationStatus{models.VerificationFollowup, models.VerificationRejected} {
		_, err := svc.Decide(adminCtx(), org.ID, status, "  ")
		require.True(t, dErrors.HasCode(err, dErrors.CodeMissingReason), "status %s", status)
	}
}

func TestDecideVerifies(t *testing.T) {
	svc, recorder := newTestService(t)
	org := register(t, svc)

	verified, err := svc.Decide(adminCtx(), org.ID, models.VerificationVerified, "")
	require.NoError(t, err)
	require.Equal(t, models.VerificationVerified, verified.VerificationStatus)

	ok, err := svc.CanActAsVerifiedOrganization(context.Background(), org.ID)
	require.NoError(t, err)
	require.True(t, ok)

	history, err := svc.History(context.Background(), org.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	require.Equal(t, models.VerificationPending, history[0].PreviousStatus)
	require.Equal(t, models.VerificationVerified, history[0].NewStatus)
	require.False(t, history[0].Resubmission)
	require.Equal(t, "admin-1", history[0].AdminID)

	trail, err := recorder.History(context.Background(), audit.EntityOrganization, org.ID.String())
	require.NoError(t, err)
	require.Len(t, trail, 2)
}

func TestDecideRejectsIllegalTransitions(t *testing.T) {
	svc, _ := newTestService(t)
	org := register(t, svc)

	_, err := svc.Decide(adminCtx(), org.ID, models.VerificationVerified, "")
	require.NoError(t, err)

	// Verified is a resting state; no further admin decision applies.
	_, err = svc.Decide(adminCtx(), org.ID, models.VerificationRejected, "changed our minds")
	require.True(t, dErrors.HasCode(err, dErrors.CodeIllegalTransition))
}

func TestRejectedIsTerminal(t *testing.T) {
	svc, _ := newTestService(t)
	org := register(t, svc)

	_, err := svc.Decide(adminCtx(), org.ID, models.VerificationRejected, "documents do not match registry")
	require.NoError(t, err)

	_, err = svc.Decide(adminCtx(), org.ID, models.VerificationVerified, "")
	require.True(t, dErrors.HasCode(err, dErrors.CodeIllegalTransition))

	_, err = svc.Resubmit(orgCtx(org.ID), org.ID, "doc-v2.pdf")
	require.True(t, dErrors.HasCode(err, dErrors.CodeIllegalTransition))
}

func TestResubmitFromFollowup(t *testing.T) {
	svc, _ := newTestService(t)
	org := register(t, svc)

	_, err := svc.Decide(adminCtx(), org.ID, models.VerificationFollowup, "document is expired")
	require.NoError(t, err)

	resubmitted, err := svc.Resubmit(orgCtx(org.ID), org.ID, "doc-v2.pdf")
	require.NoError(t, err)
	require.Equal(t, models.VerificationPending, resubmitted.VerificationStatus)
	require.Equal(t, "doc-v2.pdf", resubmitted.VerificationDocument)
	require.Empty(t, resubmitted.VerificationNotes, "displayed notes are cleared on resubmission")

	history, err := svc.History(context.Background(), org.ID)
	require.NoError(t, err)
	require.Len(t, history, 2)
	require.True(t, history[1].Resubmission)
	require.Empty(t, history[1].AdminID)
	// The followup instructions survive in history even though the display
	// field was cleared.
	require.Equal(t, "document is expired", history[0].Notes)
}

func TestResubmitRequiresOwningOrganization(t *testing.T) {
	svc, _ := newTestService(t)
	org := register(t, svc)
	other := register(t, svc)

	_, err := svc.Decide(adminCtx(), org.ID, models.VerificationFollowup, "document is expired")
	require.NoError(t, err)

	_, err = svc.Resubmit(adminCtx(), org.ID, "doc-v2.pdf")
	require.True(t, dErrors.HasCode(err, dErrors.CodeNotAuthorized))

	_, err = svc.Resubmit(orgCtx(other.ID), org.ID, "doc-v2.pdf")
	require.True(t, dErrors.HasCode(err, dErrors.CodeNotAuthorized))
}

func TestResubmitRequiresDocument(t *testing.T) {
	svc, _ := newTestService(t)
	org := register(t, svc)

	_, err := svc.Decide(adminCtx(), org.ID, models.VerificationFollowup, "document is expired")
	require.NoError(t, err)

	_, err = svc.Resubmit(orgCtx(org.ID), org.ID, "   ")
	require.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
}

func TestDeleteCascadesApplications(t *testing.T) {
	remover := &recordingRemover{removed: 3}
	svc, recorder := newTestService(t, WithApplicationRemover(remover))
	org := register(t, svc)

	err := svc.Delete(adminCtx(), org.ID, "duplicate registration")
	require.NoError(t, err)
	require.Equal(t, 1, remover.calls)

	_, err = svc.Get(context.Background(), org.ID)
	require.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))

	trail, err := recorder.History(context.Background(), audit.EntityOrganization, org.ID.String())
	require.NoError(t, err)
	require.Len(t, trail, 2)
	require.Contains(t, trail[1].Notes, "duplicate registration")
}

func TestDeleteRequiresAdminAndReason(t *testing.T) {
	svc, _ := newTestService(t)
	org := register(t, svc)

	err := svc.Delete(orgCtx(org.ID), org.ID, "self delete")
	require.True(t, dErrors.HasCode(err, dErrors.CodeNotAuthorized))

	err = svc.Delete(adminCtx(), org.ID, "  ")
	require.True(t, dErrors.HasCode(err, dErrors.CodeMissingReason))
}

func TestCanActAsVerifiedOrganizationFalseWhilePending(t *testing.T) {
	svc, _ := newTestService(t)
	org := register(t, svc)

	ok, err := svc.CanActAsVerifiedOrganization(context.Background(), org.ID)
	require.NoError(t, err)
	require.False(t, ok)
}
