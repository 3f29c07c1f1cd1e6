// Package models defines the organization aggregate and its verification
// lifecycle.
package models

import (
	"strings"
	"time"

	"homeward/pkg/domain"
	dErrors "homeward/pkg/domain-errors"
)

// VerificationStatus is the closed enum for an organization's trust status.
type VerificationStatus string

const (
	VerificationPending  VerificationStatus = "pending"
	VerificationFollowup VerificationStatus = "followup"
	VerificationVerified VerificationStatus = "verified"
	VerificationRejected VerificationStatus = "rejected"
)

// verificationTransitions is the legal transition graph. Rejected is
// terminal: a rejected organization must be recreated by an admin. Followup
// leads back to pending only, via resubmission by the organization itself.
var verificationTransitions = map[VerificationStatus][]VerificationStatus{
	VerificationPending:  {VerificationVerified, VerificationFollowup, VerificationRejected},
	VerificationFollowup: {VerificationPending},
	VerificationVerified: {},
	VerificationRejected: {},
}

func (s VerificationStatus) IsValid() bool {
	_, ok := verificationTransitions[s]
	return ok
}

func (s VerificationStatus) String() string { return string(s) }

// CanTransitionTo reports whether target is reachable from s in one step.
func (s VerificationStatus) CanTransitionTo(target VerificationStatus) bool {
	for _, t := range verificationTransitions[s] {
		if t == target {
			return true
		}
	}
	return false
}

// ParseVerificationStatus parses a wire value into a VerificationStatus.
func ParseVerificationStatus(s string) (VerificationStatus, error) {
	status := VerificationStatus(strings.ToLower(strings.TrimSpace(s)))
	if !status.IsValid() {
		return "", dErrors.Newf(dErrors.CodeValidation, "unknown verification status %q", s)
	}
	return status, nil
}

// VerificationHistoryEntry records one verification transition. Resubmission
// marks a transition initiated by the organization itself rather than by an
// admin, in which case AdminID is empty.
type VerificationHistoryEntry struct {
	PreviousStatus VerificationStatus `json:"previous_status"`
	NewStatus      VerificationStatus `json:"new_status"`
	Notes          string             `json:"notes"`
	Resubmission   bool               `json:"resubmission"`
	AdminID        string             `json:"admin_id,omitempty"`
	Timestamp      time.Time          `json:"timestamp"`
}

// Organization is the aggregate root for a shelter or rescue entity.
//
// Invariants:
//   - Name and Email are non-empty
//   - VerificationStatus transitions follow verificationTransitions
//   - Transitions into followup or rejected carry non-empty notes
//   - Adopter-facing actions are gated on VerificationStatus == verified
type Organization struct {
	ID                   domain.OrganizationID `json:"id"`
	Name                 string                `json:"name"`
	Email                string                `json:"email"`
	VerificationStatus   VerificationStatus    `json:"verification_status"`
	VerificationDocument string                `json:"verification_document"`
	VerificationNotes    string                `json:"verification_notes"`
	CreatedAt            time.Time             `json:"created_at"`
	UpdatedAt            time.Time             `json:"updated_at"`
}

// IsVerified reports whether the organization may act towards adopters.
func (o *Organization) IsVerified() bool {
	return o.VerificationStatus == VerificationVerified
}

// CanDecide checks whether an admin decision moving the organization to
// newStatus is a legal transition.
func (o *Organization) CanDecide(newStatus VerificationStatus) error {
	if !o.VerificationStatus.CanTransitionTo(newStatus) {
		return dErrors.Newf(dErrors.CodeIllegalTransition,
			"cannot transition verification from %s to %s", o.VerificationStatus, newStatus)
	}
	return nil
}

// ApplyDecision transitions the verification status and records the admin's
// notes as the displayed verification notes. Call CanDecide first.
func (o *Organization) ApplyDecision(newStatus VerificationStatus, notes string, now time.Time) {
	o.VerificationStatus = newStatus
	o.VerificationNotes = notes
	o.UpdatedAt = now
}

// CanResubmit checks whether the organization may resubmit its verification
// document. Only legal from followup.
func (o *Organization) CanResubmit() error {
	if o.VerificationStatus != VerificationFollowup {
		return dErrors.Newf(dErrors.CodeIllegalTransition,
			"cannot resubmit verification from %s", o.VerificationStatus)
	}
	return nil
}

// ApplyResubmission moves the organization back to pending with the new
// document. The displayed notes are cleared; the prior notes survive in the
// verification history. Call CanResubmit first.
func (o *Organization) ApplyResubmission(document string, now time.Time) {
	o.VerificationStatus = VerificationPending
	o.VerificationDocument = document
	o.VerificationNotes = ""
	o.UpdatedAt = now
}

// NewOrganization constructs a registered organization awaiting verification.
func NewOrganization(orgID domain.OrganizationID, name, email, document string, now time.Time) (*Organization, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "organization name cannot be empty")
	}
	email = strings.TrimSpace(email)
	if email == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "organization email cannot be empty")
	}
	return &Organization{
		ID:                   orgID,
		Name:                 name,
		Email:                email,
		VerificationStatus:   VerificationPending,
		VerificationDocument: strings.TrimSpace(document),
		CreatedAt:            now,
		UpdatedAt:            now,
	}, nil
}
