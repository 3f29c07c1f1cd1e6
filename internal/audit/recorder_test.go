package audit_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"homeward/internal/audit"
	"homeward/internal/audit/store/memory"
	"homeward/pkg/domain"
	dErrors "homeward/pkg/domain-errors"
	"homeward/pkg/requestcontext"
)

func newRecorder() *audit.Recorder {
	return audit.NewRecorder(memory.NewInMemoryStore())
}

func TestRecordValidatesStatusEnum(t *testing.T) {
	recorder := newRecorder()
	ctx := context.Background()

	t.Run("rejects status outside the entity's enum", func(t *testing.T) {
		_, err := recorder.Record(ctx, audit.Entry{
			EntityType: audit.EntityAdopter,
			EntityID:   "a1",
			NewStatus:  "reviewing", // application status, not a standing status
			ActorID:    "admin-1",
			ActorRole:  domain.RoleAdmin,
		})
		require.Error(t, err)
		require.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
	})

	t.Run("rejects unknown entity type", func(t *testing.T) {
		_, err := recorder.Record(ctx, audit.Entry{
			EntityType: audit.EntityType("pet"),
			EntityID:   "p1",
			NewStatus:  "pending",
		})
		require.Error(t, err)
		require.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
	})

	t.Run("accepts creating event with empty previous status", func(t *testing.T) {
		entry, err := recorder.Record(ctx, audit.Entry{
			EntityType: audit.EntityApplication,
			EntityID:   "app-1",
			NewStatus:  "pending",
			ActorID:    "adopter-1",
			ActorRole:  domain.RoleAdopter,
		})
		require.NoError(t, err)
		require.Empty(t, entry.PreviousStatus)
		require.False(t, entry.Timestamp.IsZero())
	})
}

func TestHistoryOrdering(t *testing.T) {
	recorder := newRecorder()

	// Same timestamp for every entry: ordering must fall back to insertion
	// sequence.
	fixed := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	ctx := requestcontext.WithTime(context.Background(), fixed)

	statuses := []string{"pending", "reviewing", "approved"}
	var prev string
	for _, status := range statuses {
		_, err := recorder.Record(ctx, audit.Entry{
			EntityType:     audit.EntityApplication,
			EntityID:       "app-1",
			PreviousStatus: prev,
			NewStatus:      status,
			ActorID:        "org-1",
			ActorRole:      domain.RoleOrganization,
		})
		require.NoError(t, err)
		prev = status
	}

	history, err := recorder.History(ctx, audit.EntityApplication, "app-1")
	require.NoError(t, err)
	require.Len(t, history, len(statuses))
	for i, entry := range history {
		require.Equal(t, statuses[i], entry.NewStatus)
		require.Equal(t, fixed, entry.Timestamp)
		if i > 0 {
			require.Greater(t, entry.Seq, history[i-1].Seq)
		}
	}
}

func TestHistoryIsolatedPerEntity(t *testing.T) {
	recorder := newRecorder()
	ctx := context.Background()

	_, err := recorder.Record(ctx, audit.Entry{
		EntityType: audit.EntityApplication,
		EntityID:   "app-1",
		NewStatus:  "pending",
		ActorID:    "adopter-1",
		ActorRole:  domain.RoleAdopter,
	})
	require.NoError(t, err)

	_, err = recorder.Record(ctx, audit.Entry{
		EntityType: audit.EntityAdopter,
		EntityID:   "app-1", // same raw id, different entity type
		NewStatus:  "active",
		ActorID:    "admin-1",
		ActorRole:  domain.RoleAdmin,
	})
	require.NoError(t, err)

	appHistory, err := recorder.History(ctx, audit.EntityApplication, "app-1")
	require.NoError(t, err)
	require.Len(t, appHistory, 1)

	adopterHistory, err := recorder.History(ctx, audit.EntityAdopter, "app-1")
	require.NoError(t, err)
	require.Len(t, adopterHistory, 1)
	require.Equal(t, "active", adopterHistory[0].NewStatus)
}
