package models

import (
	"strings"
	"time"

	"homeward/pkg/domain"
	dErrors "homeward/pkg/domain-errors"
)

// StandingStatus is the closed enum for an adopter account's standing.
type StandingStatus string

const (
	StandingActive    StandingStatus = "active"
	StandingSuspended StandingStatus = "suspended"
)

func (s StandingStatus) IsValid() bool {
	return s == StandingActive || s == StandingSuspended
}

func (s StandingStatus) String() string { return string(s) }

// StandingAction labels a standing history entry.
type StandingAction string

const (
	ActionSuspend    StandingAction = "suspend"
	ActionReactivate StandingAction = "reactivate"
)

// StandingHistoryEntry records one suspend/reactivate action against an
// adopter. Kept alongside the shared audit trail because the admin dashboard
// renders it with action labels rather than raw statuses.
type StandingHistoryEntry struct {
	Action    StandingAction `json:"action"`
	Notes     string         `json:"notes"`
	AdminID   string         `json:"admin_id"`
	Timestamp time.Time      `json:"timestamp"`
}

// Adopter is the aggregate root for an adopter account.
//
// Invariants:
//   - Status is either active or suspended
//   - Suspension always carries non-empty notes
//   - A suspended adopter cannot create new adoption applications; existing
//     applications keep their status
//   - Reactivating an already-active adopter is a no-op, never an error
type Adopter struct {
	ID          domain.AdopterID `json:"id"`
	Name        string           `json:"name"`
	Email       string           `json:"email"`
	Status      StandingStatus   `json:"status"`
	StatusNotes string           `json:"status_notes,omitempty"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
}

func (a *Adopter) IsSuspended() bool {
	return a.Status == StandingSuspended
}

// ApplySuspension transitions the adopter to suspended. Repeated suspensions
// are permitted so an admin can update the recorded reason; each one appends
// a fresh history entry at the service layer.
func (a *Adopter) ApplySuspension(notes string, now time.Time) {
	a.Status = StandingSuspended
	a.StatusNotes = notes
	a.UpdatedAt = now
}

// ApplyReactivation transitions the adopter to active. Idempotent: calling it
// on an active adopter only refreshes the notes.
func (a *Adopter) ApplyReactivation(notes string, now time.Time) {
	a.Status = StandingActive
	a.StatusNotes = notes
	a.UpdatedAt = now
}

// NewAdopter constructs an adopter account in active standing.
func NewAdopter(adopterID domain.AdopterID, name, email string, now time.Time) (*Adopter, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "adopter name cannot be empty")
	}
	email = strings.TrimSpace(email)
	if email == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "adopter email cannot be empty")
	}
	return &Adopter{
		ID:        adopterID,
		Name:      name,
		Email:     email,
		Status:    StandingActive,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}
