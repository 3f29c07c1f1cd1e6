// Package notify defines the status-change events emitted by the lifecycle
// services and the Notifier port they publish through. The concrete Kafka
// publisher lives in the kafka subpackage; Noop keeps the services usable
// without a broker.
package notify

import (
	"context"
	"log/slog"
	"time"
)

type EventType string

const (
	ApplicationStatusChanged  EventType = "application.status_changed"
	OrganizationStatusChanged EventType = "organization.status_changed"
	AdopterStatusChanged      EventType = "adopter.status_changed"
	OrganizationDeleted       EventType = "organization.deleted"
)

// Event describes a single status transition on a lifecycle entity.
type Event struct {
	Type           EventType `json:"type"`
	EntityID       string    `json:"entityId"`
	PreviousStatus string    `json:"previousStatus,omitempty"`
	NewStatus      string    `json:"newStatus,omitempty"`
	ActorID        string    `json:"actorId,omitempty"`
	OccurredAt     time.Time `json:"occurredAt,omitempty"`
}

type Notifier interface {
	Publish(ctx context.Context, event Event) error
}

// Noop discards events.
type Noop struct{}

func (Noop) Publish(context.Context, Event) error { return nil }

// LogNotifier writes events to the structured log. Used when no broker is
// configured so transitions remain observable in development.
type LogNotifier struct {
	Logger *slog.Logger
}

func (n LogNotifier) Publish(ctx context.Context, event Event) error {
	n.Logger.InfoContext(ctx, "status event",
		"event_type", string(event.Type),
		"entity_id", event.EntityID,
		"previous_status", event.PreviousStatus,
		"new_status", event.NewStatus,
	)
	return nil
}
