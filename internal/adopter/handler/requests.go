package handler

import (
	"strings"

	dErrors "homeward/pkg/domain-errors"
)

// RegisterRequest is the HTTP request body for POST /adopters.
type RegisterRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
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
	return nil
}

// StandingActionRequest is the body for suspend, reactivate, and delete
// actions. Notes are optional here; operations that require them enforce it
// in the service.
type StandingActionRequest struct {
	Notes string `json:"notes"`
}

func (r *StandingActionRequest) Validate() error {
	r.Notes = strings.TrimSpace(r.Notes)
	return nil
}
