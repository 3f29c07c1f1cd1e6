package handler

import (
	"strings"

	"homeward/internal/organization/models"
	dErrors "homeward/pkg/domain-errors"
)

// RegisterRequest is the HTTP request body for POST /organizations.
type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Document string `json:"document"`
}

// Validate validates and normalizes the request.
// Implements the Validatable interface for httputil.DecodeAndPrepare.
func (r *RegisterRequest) Validate() error {
	r.Name = strings.TrimSpace(r.Name)
	if r.Name == "" {
		return dErrors.New(dErrors.CodeValidation, "name is required")
	}
	r.Email = strings.TrimSpace(r.Email)
	if r.Email == "" {
		return dErrors.New(dErrors.CodeValidation, "email is required")
	}
	r.Document = strings.TrimSpace(r.Document)
	return nil
}

// DecideRequest is the body for POST /admin/organizations/{id}/verification.
type DecideRequest struct {
	Status string `json:"status"`
	Notes  string `json:"notes"`

	parsedStatus models.VerificationStatus
}

func (r *DecideRequest) Validate() error {
	status, err := models.ParseVerificationStatus(r.Status)
	if err != nil {
		return err
	}
	if status == models.VerificationPending {
		return dErrors.New(dErrors.CodeValidation, "pending is not a decision; organizations return to pending via resubmission")
	}
	r.parsedStatus = status
	r.Notes = strings.TrimSpace(r.Notes)
	return nil
}

// ParsedStatus returns the decision status parsed during validation.
func (r *DecideRequest) ParsedStatus() models.VerificationStatus { return r.parsedStatus }

// ResubmitRequest is the body for POST /organizations/{id}/verification/resubmit.
type ResubmitRequest struct {
	Document string `json:"document"`
}

func (r *ResubmitRequest) Validate() error {
	r.Document = strings.TrimSpace(r.Document)
	if r.Document == "" {
		return dErrors.New(dErrors.CodeValidation, "document is required")
	}
	return nil
}

// DeleteRequest is the body for DELETE /admin/organizations/{id}.
type DeleteRequest struct {
	Reason string `json:"reason"`
}

func (r *DeleteRequest) Validate() error {
	r.Reason = strings.TrimSpace(r.Reason)
	return nil
}
