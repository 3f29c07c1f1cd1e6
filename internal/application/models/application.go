// Package models defines the adoption application aggregate and its status
// lifecycle.
package models

import (
	"time"

	"homeward/pkg/domain"
	dErrors "homeward/pkg/domain-errors"
)

// Status is the closed enum for an adoption application's lifecycle.
type Status string

const (
	StatusPending   Status = "pending"
	StatusReviewing Status = "reviewing"
	StatusApproved  Status = "approved"
	StatusRejected  Status = "rejected"
	StatusWithdrawn Status = "withdrawn"
)

// statusTransitions is the legal transition graph. Withdrawn is reachable
// from any non-terminal status but only by the owning adopter; role checks
// live in the service.
var statusTransitions = map[Status][]Status{
	StatusPending:   {StatusReviewing, StatusRejected, StatusWithdrawn},
	StatusReviewing: {StatusApproved, StatusRejected, StatusWithdrawn},
	StatusApproved:  {},
	StatusRejected:  {},
	StatusWithdrawn: {},
}

// ActiveStatuses are the non-terminal statuses counted by the one-live-
// application-per-pet invariant.
var ActiveStatuses = []Status{StatusPending, StatusReviewing, StatusApproved}

func (s Status) IsValid() bool {
	_, ok := statusTransitions[s]
	return ok
}

func (s Status) String() string { return string(s) }

// IsTerminal reports whether no transition leaves s.
func (s Status) IsTerminal() bool {
	return len(statusTransitions[s]) == 0
}

// CanTransitionTo reports whether target is reachable from s in one step.
func (s Status) CanTransitionTo(target Status) bool {
	for _, t := range statusTransitions[s] {
		if t == target {
			return true
		}
	}
	return false
}

// ParseStatus parses a wire value into a Status.
func ParseStatus(s string) (Status, error) {
	status := Status(s)
	if !status.IsValid() {
		return "", dErrors.Newf(dErrors.CodeValidation, "unknown application status %q", s)
	}
	return status, nil
}

// Application is the aggregate root for one adopter's application for one
// pet.
//
// Invariants:
//   - At most one application per (adopter, pet) pair is in an active status
//     (pending, reviewing, approved); enforced by the store at insert time
//   - TermsAccepted is true for every persisted application
//   - Rejection always carries a non-empty RejectionReason
//   - Questionnaire answers are immutable once the status is terminal; only
//     OrganizationNotes and ReviewedBy may still change
type Application struct {
	ID                domain.ApplicationID  `json:"id"`
	ApplicationNumber string                `json:"application_number"`
	PetID             domain.PetID          `json:"pet_id"`
	AdopterID         domain.AdopterID      `json:"adopter_id"`
	OrganizationID    domain.OrganizationID `json:"organization_id"`
	Status            Status                `json:"status"`
	Questionnaire     Questionnaire         `json:"questionnaire"`
	Reference         Reference             `json:"reference"`
	TermsAccepted     bool                  `json:"terms_accepted"`
	RejectionReason   string                `json:"rejection_reason,omitempty"`
	OrganizationNotes string                `json:"organization_notes,omitempty"`
	ReviewedBy        string                `json:"reviewed_by,omitempty"`
	CreatedAt         time.Time             `json:"created_at"`
	UpdatedAt         time.Time             `json:"updated_at"`
}

// IsActive reports whether the application counts against the one-live-
// application invariant.
func (a *Application) IsActive() bool {
	switch a.Status {
	case StatusPending, StatusReviewing, StatusApproved:
		return true
	}
	return false
}

// CanTransitionTo checks the transition graph from the current status.
func (a *Application) CanTransitionTo(newStatus Status) error {
	if !a.Status.CanTransitionTo(newStatus) {
		return dErrors.Newf(dErrors.CodeIllegalTransition,
			"cannot transition application from %s to %s", a.Status, newStatus)
	}
	return nil
}

// ApplyTransition moves the application to newStatus. Rejection stores the
// notes as the rejection reason; other transitions record them as
// organization notes. Call CanTransitionTo first.
func (a *Application) ApplyTransition(newStatus Status, notes, reviewedBy string, now time.Time) {
	a.Status = newStatus
	if newStatus == StatusRejected {
		a.RejectionReason = notes
	} else if notes != "" {
		a.OrganizationNotes = notes
	}
	if reviewedBy != "" {
		a.ReviewedBy = reviewedBy
	}
	a.UpdatedAt = now
}

// NewApplication constructs a pending application after validating the
// questionnaire, the reference, and the terms acceptance.
func NewApplication(
	appID domain.ApplicationID,
	petID domain.PetID,
	adopterID domain.AdopterID,
	orgID domain.OrganizationID,
	questionnaire Questionnaire,
	reference Reference,
	termsAccepted bool,
	now time.Time,
) (*Application, error) {
	if !termsAccepted {
		return nil, dErrors.New(dErrors.CodeValidation, "terms must be accepted before submitting")
	}
	if err := questionnaire.Validate(); err != nil {
		return nil, err
	}
	if err := reference.Validate(); err != nil {
		return nil, err
	}
	return &Application{
		ID:             appID,
		PetID:          petID,
		AdopterID:      adopterID,
		OrganizationID: orgID,
		Status:         StatusPending,
		Questionnaire:  questionnaire,
		Reference:      reference,
		TermsAccepted:  true,
		CreatedAt:      now,
		UpdatedAt:      now,
	}, nil
}
