package models

import (
	"regexp"
	"strings"

	dErrors "homeward/pkg/domain-errors"
)

// Closed option sets for the choice questionnaire fields. Everything else is
// free text validated as non-empty after trimming.
var (
	housingStatusOptions = map[string]bool{
		"own":              true,
		"rent":             true,
		"live_with_family": true,
	}
	petsAllowedOptions = map[string]bool{
		"yes":            true,
		"no":             true,
		"not_applicable": true,
	}
	otherPetsOptions = map[string]bool{
		"none":          true,
		"dogs":          true,
		"cats":          true,
		"dogs_and_cats": true,
		"other":         true,
	}
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// Questionnaire holds the adopter's answers to the fixed application form.
// Immutable once the application reaches a terminal status.
type Questionnaire struct {
	HousingStatus         string `json:"housing_status"`
	PetsAllowed           string `json:"pets_allowed"`
	PetLocation           string `json:"pet_location"`
	PrimaryCaregiver      string `json:"primary_caregiver"`
	OtherPets             string `json:"other_pets"`
	FinancialPreparedness string `json:"financial_preparedness"`
	EmergencyCarePlan     string `json:"emergency_care_plan"`
}

// Validate normalizes and checks every answer. Closed-choice fields must be
// one of their option set; free-text fields must be non-empty after trimming.
func (q *Questionnaire) Validate() error {
	q.HousingStatus = strings.ToLower(strings.TrimSpace(q.HousingStatus))
	if !housingStatusOptions[q.HousingStatus] {
		return dErrors.Newf(dErrors.CodeValidation, "invalid housing status %q", q.HousingStatus)
	}
	q.PetsAllowed = strings.ToLower(strings.TrimSpace(q.PetsAllowed))
	if !petsAllowedOptions[q.PetsAllowed] {
		return dErrors.Newf(dErrors.CodeValidation, "invalid pets-allowed answer %q", q.PetsAllowed)
	}
	q.OtherPets = strings.ToLower(strings.TrimSpace(q.OtherPets))
	if !otherPetsOptions[q.OtherPets] {
		return dErrors.Newf(dErrors.CodeValidation, "invalid other-pets answer %q", q.OtherPets)
	}

	for field, value := range map[string]*string{
		"pet_location":           &q.PetLocation,
		"primary_caregiver":      &q.PrimaryCaregiver,
		"financial_preparedness": &q.FinancialPreparedness,
		"emergency_care_plan":    &q.EmergencyCarePlan,
	} {
		*value = strings.TrimSpace(*value)
		if *value == "" {
			return dErrors.Newf(dErrors.CodeValidation, "%s is required", field)
		}
	}
	return nil
}

// Reference is the contact person vouching for the adopter.
type Reference struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

// Validate normalizes and checks the reference contact. The phone number is
// normalized to bare digits and must be exactly 11 digits starting with 0.
func (r *Reference) Validate() error {
	r.Name = strings.TrimSpace(r.Name)
	if r.Name == "" {
		return dErrors.New(dErrors.CodeValidation, "reference name is required")
	}

	r.Email = strings.TrimSpace(r.Email)
	if !emailPattern.MatchString(r.Email) {
		return dErrors.New(dErrors.CodeValidation, "reference email is not a valid address")
	}

	normalized, err := normalizePhone(r.Phone)
	if err != nil {
		return err
	}
	r.Phone = normalized
	return nil
}

// normalizePhone strips separators and validates the result.
func normalizePhone(phone string) (string, error) {
	var digits strings.Builder
	for _, c := range phone {
		switch {
		case c >= '0' && c <= '9':
			digits.WriteRune(c)
		case c == ' ' || c == '-' || c == '(' || c == ')':
			// separators are dropped
		default:
			return "", dErrors.Newf(dErrors.CodeValidation, "reference phone contains invalid character %q", c)
		}
	}
	normalized := digits.String()
	if len(normalized) != 11 || normalized[0] != '0' {
		return "", dErrors.New(dErrors.CodeValidation, "reference phone must be 11 digits starting with 0")
	}
	return normalized, nil
}
