package audit

import (
	"context"

	dErrors "homeward/pkg/domain-errors"
	"homeward/pkg/requestcontext"
)

// Store persists audit entries. Implementations must be append-only: entries
// are never mutated after Append, and ListByEntity returns them oldest first.
type Store interface {
	Append(ctx context.Context, entry Entry) (Entry, error)
	ListByEntity(ctx context.Context, entityType EntityType, entityID string) ([]Entry, error)
}

// Recorder records state transitions per entity. It is the foundation the
// three lifecycle machines build on; they call Record inside the same atomic
// unit as the status mutation itself.
type Recorder struct {
	store Store
}

func NewRecorder(store Store) *Recorder {
	return &Recorder{store: store}
}

// Record validates and appends one transition entry. It fails with a
// validation error when NewStatus is not a member of the entity's declared
// status enum; well-formed inputs always succeed (subject to store errors).
// PreviousStatus is empty for the creating event.
func (r *Recorder) Record(ctx context.Context, entry Entry) (Entry, error) {
	if !entry.EntityType.IsValid() {
		return Entry{}, dErrors.Newf(dErrors.CodeValidation, "unknown audit entity type %q", entry.EntityType)
	}
	if entry.EntityID == "" {
		return Entry{}, dErrors.New(dErrors.CodeValidation, "audit entry requires an entity id")
	}
	if !entry.EntityType.AllowsStatus(entry.NewStatus) {
		return Entry{}, dErrors.Newf(dErrors.CodeValidation,
			"status %q is not valid for entity type %q", entry.NewStatus, entry.EntityType)
	}
	if entry.PreviousStatus != "" && !entry.EntityType.AllowsStatus(entry.PreviousStatus) {
		return Entry{}, dErrors.Newf(dErrors.CodeValidation,
			"status %q is not valid for entity type %q", entry.PreviousStatus, entry.EntityType)
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = requestcontext.Now(ctx)
	}
	return r.store.Append(ctx, entry)
}

// History returns the full transition history for one entity, oldest first.
func (r *Recorder) History(ctx context.Context, entityType EntityType, entityID string) ([]Entry, error) {
	if !entityType.IsValid() {
		return nil, dErrors.Newf(dErrors.CodeValidation, "unknown audit entity type %q", entityType)
	}
	return r.store.ListByEntity(ctx, entityType, entityID)
}
