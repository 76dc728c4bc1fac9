package validation

import (
	"testing"

	"github.com/stretchr/testify/require"
)

type payload struct {
	Currency string `json:"currency" validate:"required,len=3,alpha"`
	Note     string `json:"note,omitempty" validate:"max=5"`
	Days     int    `validate:"gte=1"`
}

func TestValidate_ReportsJSONFieldNames(t *testing.T) {
	err := New().Validate(&payload{Currency: "E1", Note: "too long", Days: 0})
	require.Error(t, err)

	var fields Errors
	require.ErrorAs(t, err, &fields)
	require.Equal(t, Errors{
		"currency": "must be exactly 3 characters",
		"note":     "must be at most 5 characters",
		"Days":     "must be at least 1",
	}, fields)
	require.Equal(t, "Days must be at least 1; currency must be exactly 3 characters; note must be at most 5 characters", err.Error())
}

func TestValidate_Valid(t *testing.T) {
	require.NoError(t, New().Validate(&payload{Currency: "EUR", Days: 1}))
}
