package handler

import (
	"strings"

	"homeward/internal/application/models"
	"homeward/pkg/domain"
	dErrors "homeward/pkg/domain-errors"
)

// SubmitRequest is the HTTP request body for POST /applications. Field-level
// questionnaire and reference validation happens in the models package; this
// layer only parses the identifiers.
type SubmitRequest struct {
	PetID          string               `json:"pet_id"`
	OrganizationID string               `json:"organization_id"`
	Questionnaire  models.Questionnaire `json:"questionnaire"`
	Reference      models.Reference     `json:"reference"`
	TermsAccepted  bool                 `json:"terms_accepted"`

	parsedPetID domain.PetID
	parsedOrgID domain.OrganizationID
}

// Validate parses the identifiers.
// Implements the Validatable interface for httputil.DecodeAndPrepare.
func (r *SubmitRequest) Validate() error {
	petID, err := domain.ParsePetID(r.PetID)
	if err != nil {
		return err
	}
	orgID, err := domain.ParseOrganizationID(r.OrganizationID)
	if err != nil {
		return err
	}
	r.parsedPetID = petID
	r.parsedOrgID = orgID
	return nil
}

// ParsedPetID returns the pet id parsed during validation.
func (r *SubmitRequest) ParsedPetID() domain.PetID { return r.parsedPetID }

// ParsedOrganizationID returns the organization id parsed during validation.
func (r *SubmitRequest) ParsedOrganizationID() domain.OrganizationID { return r.parsedOrgID }

// TransitionRequest is the body for POST /applications/{id}/transition.
type TransitionRequest struct {
	Status string `json:"status"`
	Notes  string `json:"notes"`

	parsedStatus models.Status
}

func (r *TransitionRequest) Validate() error {
	status, err := models.ParseStatus(strings.ToLower(strings.TrimSpace(r.Status)))
	if err != nil {
		return err
	}
	if status == models.StatusPending {
		return dErrors.New(dErrors.CodeValidation, "applications cannot transition back to pending")
	}
	r.parsedStatus = status
	r.Notes = strings.TrimSpace(r.Notes)
	return nil
}

// ParsedStatus returns the target status parsed during validation.
func (r *TransitionRequest) ParsedStatus() models.Status { return r.parsedStatus }
