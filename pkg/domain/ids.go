// Package domain holds the primitive value types shared across the engine:
// typed entity identifiers, actor roles, and closed status enums referenced
// by more than one feature package.
package domain

import (
	"github.com/google/uuid"

	dErrors "homeward/pkg/domain-errors"
)

// Typed identifiers wrap uuid.UUID so an AdopterID can never be passed where
// an OrganizationID is expected. Construct via the Parse helpers at trust
// boundaries; direct conversion bypasses validation.
type (
	AdopterID      uuid.UUID
	OrganizationID uuid.UUID
	PetID          uuid.UUID
	ApplicationID  uuid.UUID
)

func (id AdopterID) IsNil() bool    { return uuid.UUID(id) == uuid.Nil }
func (id AdopterID) String() string { return uuid.UUID(id).String() }
func NewAdopterID() AdopterID       { return AdopterID(uuid.New()) }

func (id OrganizationID) IsNil() bool    { return uuid.UUID(id) == uuid.Nil }
func (id OrganizationID) String() string { return uuid.UUID(id).String() }
func NewOrganizationID() OrganizationID  { return OrganizationID(uuid.New()) }

func (id PetID) IsNil() bool    { return uuid.UUID(id) == uuid.Nil }
func (id PetID) String() string { return uuid.UUID(id).String() }
func NewPetID() PetID           { return PetID(uuid.New()) }

func (id ApplicationID) IsNil() bool    { return uuid.UUID(id) == uuid.Nil }
func (id ApplicationID) String() string { return uuid.UUID(id).String() }
func NewApplicationID() ApplicationID   { return ApplicationID(uuid.New()) }

// ParseAdopterID validates external input into an AdopterID.
func ParseAdopterID(s string) (AdopterID, error) {
	u, err := uuid.Parse(s)
	if err != nil {
		return AdopterID{}, dErrors.New(dErrors.CodeValidation, "invalid adopter id")
	}
	return AdopterID(u), nil
}

// ParseOrganizationID validates external input into an OrganizationID.
func ParseOrganizationID(s string) (OrganizationID, error) {
	u, err := uuid.Parse(s)
	if err != nil {
		return OrganizationID{}, dErrors.New(dErrors.CodeValidation, "invalid organization id")
	}
	return OrganizationID(u), nil
}

// ParsePetID validates external input into a PetID.
func ParsePetID(s string) (PetID, error) {
	u, err := uuid.Parse(s)
	if err != nil {
		return PetID{}, dErrors.New(dErrors.CodeValidation, "invalid pet id")
	}
	return PetID(u), nil
}

// ParseApplicationID validates external input into an ApplicationID.
func ParseApplicationID(s string) (ApplicationID, error) {
	u, err := uuid.Parse(s)
	if err != nil {
		return ApplicationID{}, dErrors.New(dErrors.CodeValidation, "invalid application id")
	}
	return ApplicationID(u), nil
}
