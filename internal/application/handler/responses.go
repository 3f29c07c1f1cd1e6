package handler

import (
	"time"

	"homeward/internal/application/models"
	"homeward/internal/audit"
)

// ApplicationResponse is the HTTP representation of an adoption application.
type ApplicationResponse struct {
	ID                string               `json:"id"`
	ApplicationNumber string               `json:"application_number"`
	PetID             string               `json:"pet_id"`
	AdopterID         string               `json:"adopter_id"`
	OrganizationID    string               `json:"organization_id"`
	Status            string               `json:"status"`
	Questionnaire     models.Questionnaire `json:"questionnaire"`
	Reference         models.Reference     `json:"reference"`
	RejectionReason   string               `json:"rejection_reason,omitempty"`
	OrganizationNotes string               `json:"organization_notes,omitempty"`
	ReviewedBy        string               `json:"reviewed_by,omitempty"`
	CreatedAt         time.Time            `json:"created_at"`
	UpdatedAt         time.Time            `json:"updated_at"`
}

// AuditEntryResponse is one audit trail entry.
type AuditEntryResponse struct {
	PreviousStatus string    `json:"previous_status,omitempty"`
	NewStatus      string    `json:"new_status"`
	ActorID        string    `json:"actor_id"`
	ActorRole      string    `json:"actor_role"`
	Notes          string    `json:"notes,omitempty"`
	Timestamp      time.Time `json:"timestamp"`
}

// FromApplication converts a domain application to its HTTP representation.
func FromApplication(a *models.Application) *ApplicationResponse {
	return &ApplicationResponse{
		ID:                a.ID.String(),
		ApplicationNumber: a.ApplicationNumber,
		PetID:             a.PetID.String(),
		AdopterID:         a.AdopterID.String(),
		OrganizationID:    a.OrganizationID.String(),
		Status:            a.Status.String(),
		Questionnaire:     a.Questionnaire,
		Reference:         a.Reference,
		RejectionReason:   a.RejectionReason,
		OrganizationNotes: a.OrganizationNotes,
		ReviewedBy:        a.ReviewedBy,
		CreatedAt:         a.CreatedAt,
		UpdatedAt:         a.UpdatedAt,
	}
}

// FromAuditTrail converts audit entries to their HTTP representation.
func FromAuditTrail(entries []audit.Entry) []AuditEntryResponse {
	out := make([]AuditEntryResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, AuditEntryResponse{
			PreviousStatus: e.PreviousStatus,
			NewStatus:      e.NewStatus,
			ActorID:        e.ActorID,
			ActorRole:      string(e.ActorRole),
			Notes:          e.Notes,
			Timestamp:      e.Timestamp,
		})
	}
	return out
}
