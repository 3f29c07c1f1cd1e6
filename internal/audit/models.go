package audit

import (
	"time"

	"homeward/pkg/domain"
)

// EntityType identifies which of the three lifecycle machines an audit entry
// belongs to.
type EntityType string

const (
	EntityApplication  EntityType = "application"
	EntityOrganization EntityType = "organization_verification"
	EntityAdopter      EntityType = "adopter_standing"
)

// statusEnums declares the closed status set per entity type. Record rejects
// any NewStatus outside its entity's declared set, so a bug in a caller can
// never write an unrepresentable status into the trail.
var statusEnums = map[EntityType]map[string]bool{
	EntityApplication: {
		"pending":   true,
		"reviewing": true,
		"approved":  true,
		"rejected":  true,
		"withdrawn": true,
	},
	EntityOrganization: {
		"pending":  true,
		"followup": true,
		"verified": true,
		"rejected": true,
	},
	EntityAdopter: {
		"active":    true,
		"suspended": true,
	},
}

// IsValid reports whether the entity type is one of the three machines.
func (t EntityType) IsValid() bool {
	_, ok := statusEnums[t]
	return ok
}

// AllowsStatus reports whether status is a member of this entity type's
// declared status enum.
func (t EntityType) AllowsStatus(status string) bool {
	return statusEnums[t][status]
}

// Entry is one immutable record of a status transition. Entries are never
// updated or deleted; ordering is by timestamp with Seq breaking ties in
// insertion order.
type Entry struct {
	Seq            int64       `json:"seq"`
	EntityType     EntityType  `json:"entity_type"`
	EntityID       string      `json:"entity_id"`
	PreviousStatus string      `json:"previous_status,omitempty"` // empty on the creating event
	NewStatus      string      `json:"new_status"`
	ActorID        string      `json:"actor_id"`
	ActorRole      domain.Role `json:"actor_role"`
	Notes          string      `json:"notes,omitempty"`
	Timestamp      time.Time   `json:"timestamp"`
}
