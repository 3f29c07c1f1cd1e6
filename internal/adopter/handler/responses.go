package handler

import (
	"time"

	"homeward/internal/adopter/models"
)

// AdopterResponse is the HTTP representation of an adopter account.
type AdopterResponse struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Email       string    `json:"email"`
	Status      string    `json:"status"`
	StatusNotes string    `json:"status_notes,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// HistoryEntryResponse is one standing history entry.
type HistoryEntryResponse struct {
	Action    string    `json:"action"`
	Notes     string    `json:"notes"`
	AdminID   string    `json:"admin_id"`
	Timestamp time.Time `json:"timestamp"`
}

// FromAdopter converts a domain adopter to its HTTP representation.
func FromAdopter(a *models.Adopter) *AdopterResponse {
	return &AdopterResponse{
		ID:          a.ID.String(),
		Name:        a.Name,
		Email:       a.Email,
		Status:      a.Status.String(),
		StatusNotes: a.StatusNotes,
		CreatedAt:   a.CreatedAt,
		UpdatedAt:   a.UpdatedAt,
	}
}

// FromHistory converts standing history entries to their HTTP representation.
func FromHistory(entries []models.StandingHistoryEntry) []HistoryEntryResponse {
	out := make([]HistoryEntryResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, HistoryEntryResponse{
			Action:    string(e.Action),
			Notes:     e.Notes,
			AdminID:   e.AdminID,
			Timestamp: e.Timestamp,
		})
	}
	return out
}
