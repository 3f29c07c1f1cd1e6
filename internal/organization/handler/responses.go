package handler

import (
	"time"

	"homeward/internal/organization/models"
)

// OrganizationResponse is the HTTP representation of an organization.
type OrganizationResponse struct {
	ID                   string    `json:"id"`
	Name                 string    `json:"name"`
	Email                string    `json:"email"`
	VerificationStatus   string    `json:"verification_status"`
	VerificationDocument string    `json:"verification_document,omitempty"`
	VerificationNotes    string    `json:"verification_notes,omitempty"`
	CreatedAt            time.Time `json:"created_at"`
	UpdatedAt            time.Time `json:"updated_at"`
}

// HistoryEntryResponse is one verification history entry.
type HistoryEntryResponse struct {
	PreviousStatus string    `json:"previous_status"`
	NewStatus      string    `json:"new_status"`
	Notes          string    `json:"notes,omitempty"`
	Resubmission   bool      `json:"resubmission"`
	AdminID        string    `json:"admin_id,omitempty"`
	Timestamp      time.Time `json:"timestamp"`
}

// FromOrganization converts a domain organization to its HTTP representation.
func FromOrganization(o *models.Organization) *OrganizationResponse {
	return &OrganizationResponse{
		ID:                   o.ID.String(),
		Name:                 o.Name,
		Email:                o.Email,
		VerificationStatus:   o.VerificationStatus.String(),
		VerificationDocument: o.VerificationDocument,
		VerificationNotes:    o.VerificationNotes,
		CreatedAt:            o.CreatedAt,
		UpdatedAt:            o.UpdatedAt,
	}
}

// FromHistory converts verification history entries to their HTTP representation.
func FromHistory(entries []models.VerificationHistoryEntry) []HistoryEntryResponse {
	out := make([]HistoryEntryResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, HistoryEntryResponse{
			PreviousStatus: e.PreviousStatus.String(),
			NewStatus:      e.NewStatus.String(),
			Notes:          e.Notes,
			Resubmission:   e.Resubmission,
			AdminID:        e.AdminID,
			Timestamp:      e.Timestamp,
		})
	}
	return out
}
