package models

import (
	"testing"

	"github.com/stretchr/testify/require"

	dErrors "homeward/pkg/domain-errors"
)

func TestQuestionnaireValidate(t *testing.T) {
	valid := Questionnaire{
		HousingStatus:         " Own ",
		PetsAllowed:           "YES",
		PetLocation:           " indoors ",
		PrimaryCaregiver:      "me",
		OtherPets:             "none",
		FinancialPreparedness: "savings",
		EmergencyCarePlan:     "neighbor",
	}

	t.Run("normalizes answers", func(t *testing.T) {
		q := valid
		require.NoError(t, q.Validate())
		require.Equal(t, "own", q.HousingStatus)
		require.Equal(t, "yes", q.PetsAllowed)
		require.Equal(t, "indoors", q.PetLocation)
	})

	t.Run("rejects unknown choices", func(t *testing.T) {
		q := valid
		q.OtherPets = "hamsters"
		err := q.Validate()
		require.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
	})

	t.Run("rejects blank free text", func(t *testing.T) {
		q := valid
		q.FinancialPreparedness = "  "
		err := q.Validate()
		require.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
	})
}

func TestReferenceValidate(t *testing.T) {
	t.Run("normalizes phone separators", func(t *testing.T) {
		r := Reference{Name: "Jordan", Email: "j@example.com", Phone: "(0151) 234-5678"}
		require.NoError(t, r.Validate())
		require.Equal(t, "01512345678", r.Phone)
	})

	tests := []struct {
		name string
		ref  Reference
	}{
		{"empty name", Reference{Name: " ", Email: "j@example.com", Phone: "01512345678"}},
		{"email missing at", Reference{Name: "Jordan", Email: "example.com", Phone: "01512345678"}},
		{"email with space", Reference{Name: "Jordan", Email: "j @example.com", Phone: "01512345678"}},
		{"phone ten digits", Reference{Name: "Jordan", Email: "j@example.com", Phone: "0151234567"}},
		{"phone twelve digits", Reference{Name: "Jordan", Email: "j@example.com", Phone: "015123456789"}},
		{"phone leading one", Reference{Name: "Jordan", Email: "j@example.com", Phone: "11512345678"}},
		{"phone with plus", Reference{Name: "Jordan", Email: "j@example.com", Phone: "+0151234567"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := tt.ref
			err := r.Validate()
			require.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
		})
	}
}

func TestStatusGraph(t *testing.T) {
	require.True(t, StatusPending.CanTransitionTo(StatusReviewing))
	require.True(t, StatusPending.CanTransitionTo(StatusRejected))
	require.True(t, StatusPending.CanTransitionTo(StatusWithdrawn))
	require.False(t, StatusPending.CanTransitionTo(StatusApproved))

	require.True(t, StatusReviewing.CanTransitionTo(StatusApproved))
	require.True(t, StatusReviewing.CanTransitionTo(StatusRejected))
	require.True(t, StatusReviewing.CanTransitionTo(StatusWithdrawn))

	for _, terminal := range []Status{StatusApproved, StatusRejected, StatusWithdrawn} {
		require.True(t, terminal.IsTerminal())
		for _, target := range []Status{StatusPending, StatusReviewing, StatusApproved, StatusRejected, StatusWithdrawn} {
			require.False(t, terminal.CanTransitionTo(target), "%s -> %s", terminal, target)
		}
	}
}
