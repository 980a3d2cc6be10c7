package validation

import (
	"errors"
	"testing"

	"github.com/flyeazy/flyeazy-client/internal/apperr"
	"github.com/flyeazy/flyeazy-client/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateStruct(t *testing.T) {
	tests := []struct {
		name   string
		input  any
		expect map[string]string
	}{
		{
			name:   "valid login",
			input:  models.LoginRequest{Email: "a@b.io", Password: "secret"},
			expect: nil,
		},
		{
			name:  "bad email and missing password",
			input: models.LoginRequest{Email: "nope"},
			expect: map[string]string{
				"email":    "Invalid email format",
				"password": "This field is required",
			},
		},
		{
			name:  "route with identical airports",
			input: models.NewRoute{DepartureAirportID: "TLV", ArrivalAirportID: "TLV", Duration: "2h"},
			expect: map[string]string{
				"arrivalAirport_id": "Must differ from DepartureAirportID",
			},
		},
		{
			name: "nested ticket",
			input: models.NewBooking{
				TotalPrice:      100,
				NumberOfTickets: 1,
				Tickets:         []models.NewTicket{{FirstName: "A", LastName: "B", Gender: "f", FlightID: "F1", DepartureDate: "2026-01-01"}},
			},
			expect: map[string]string{
				"tickets[0].seatNumber": "This field is required",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expect, ValidateStruct(tt.input))
		})
	}
}

func TestCheck(t *testing.T) {
	require.NoError(t, Check("login", models.LoginRequest{Email: "a@b.io", Password: "x"}))

	err := Check("login", models.LoginRequest{})
	require.Error(t, err)
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
	assert.Equal(t, "login: validation failed: email: This field is required; password: This field is required", err.Error())

	var appErr *apperr.Error
	assert.True(t, errors.As(err, &appErr))
}

func TestFormatValidationErrors_Sorted(t *testing.T) {
	out := FormatValidationErrors(map[string]string{"b": "two", "a": "one"})
	assert.Equal(t, "a: one; b: two", out)
}

func TestValidateStruct_NonStruct(t *testing.T) {
	assert.Nil(t, ValidateStruct(map[string]any{"status": "Delayed"}))
	assert.Nil(t, ValidateStruct(nil))
	var p *models.NewRoute
	assert.Nil(t, ValidateStruct(p))
	assert.NotNil(t, ValidateStruct(&models.NewRoute{}))
}
