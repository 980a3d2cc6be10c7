// Package activities exposes the flight cancellation steps as Temporal
// activities.
package activities

import (
	"context"
	"errors"

	"github.com/flyeazy/flyeazy-client/internal/apperr"
	"github.com/flyeazy/flyeazy-client/internal/models"
	"github.com/flyeazy/flyeazy-client/internal/service"
	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/temporal"
)

// Activity names used when registering and scheduling
const (
	FindAffectedBookingsName   = "FindAffectedBookings"
	CancelBookingForFlightName = "CancelBookingForFlight"
	CancelFlightRemoteName     = "CancelFlightRemote"
)

// Canceller is the part of service.Flights the activities drive
type Canceller interface {
	Authorize(op string) (*models.Session, error)
	AffectedBookings(ctx context.Context, flightID string) ([]models.Booking, error)
	CancelBookingForFlight(ctx context.Context, booking models.Booking, flightID string) error
	CancelFlightRemote(ctx context.Context, flightID string) error
}

var _ Canceller = (*service.Flights)(nil)

// CancelBookingInput is the input of CancelBookingForFlight
type CancelBookingInput struct {
	FlightID string         `json:"flightId"`
	Booking  models.Booking `json:"booking"`
}

// Activities holds activity implementations
type Activities struct {
	flights Canceller
}

// NewActivities creates a new Activities instance
func NewActivities(flights Canceller) *Activities {
	return &Activities{flights: flights}
}

// FindAffectedBookings returns the bookings holding a ticket on flightID
func (a *Activities) FindAffectedBookings(ctx context.Context, flightID string) ([]models.Booking, error) {
	logger := activity.GetLogger(ctx)
	if err := a.authorize(); err != nil {
		return nil, err
	}

	affected, err := a.flights.AffectedBookings(ctx, flightID)
	if err != nil {
		logger.Error("Failed to load bookings", "flightId", flightID, "error", err)
		return nil, toApplicationError(err)
	}
	logger.Info("Affected bookings loaded", "flightId", flightID, "count", len(affected))
	return affected, nil
}

// CancelBookingForFlight marks the booking's tickets on the flight as
// cancelled and cancels the booking
func (a *Activities) CancelBookingForFlight(ctx context.Context, input CancelBookingInput) error {
	logger := activity.GetLogger(ctx)
	if err := a.authorize(); err != nil {
		return err
	}

	if err := a.flights.CancelBookingForFlight(ctx, input.Booking, input.FlightID); err != nil {
		logger.Error("Failed to cancel booking", "bookingId", input.Booking.ID, "error", err)
		return toApplicationError(err)
	}
	logger.Info("Booking cancelled", "bookingId", input.Booking.ID, "flightId", input.FlightID)
	return nil
}

// CancelFlightRemote cancels the flight itself
func (a *Activities) CancelFlightRemote(ctx context.Context, flightID string) error {
	logger := activity.GetLogger(ctx)
	if err := a.authorize(); err != nil {
		return err
	}

	if err := a.flights.CancelFlightRemote(ctx, flightID); err != nil {
		logger.Error("Failed to cancel flight", "flightId", flightID, "error", err)
		return toApplicationError(err)
	}
	logger.Info("Flight cancelled", "flightId", flightID)
	return nil
}

func (a *Activities) authorize() error {
	if _, err := a.flights.Authorize("cancel flight"); err != nil {
		return toApplicationError(err)
	}
	return nil
}

// toApplicationError converts err into a non-retryable Temporal error. The
// error type is the failed cascade step, or the error kind when no step is
// known, so the workflow can report it.
func toApplicationError(err error) error {
	errType := apperr.KindOf(err).String()
	var stepErr *service.StepError
	if errors.As(err, &stepErr) {
		errType = stepErr.Step
	}
	return temporal.NewNonRetryableApplicationError(err.Error(), errType, err)
}
