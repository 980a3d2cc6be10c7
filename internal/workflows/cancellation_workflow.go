// Package workflows holds the durable version of the flight cancellation
// cascade.
package workflows

import (
	"errors"
	"time"

	"github.com/flyeazy/flyeazy-client/internal/activities"
	"github.com/flyeazy/flyeazy-client/internal/models"
	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"
)

const (
	// ConfirmSignal carries the operator's answer
	ConfirmSignal = "confirm-cancellation"
	// QueryState returns the current CancellationState
	QueryState = "get_state"
	// DefaultConfirmTimeout is how long the workflow waits for an answer
	DefaultConfirmTimeout = 5 * time.Minute
	// ActivityTimeout bounds each single API step
	ActivityTimeout = 30 * time.Second
)

// Status values reported by the workflow
const (
	StatusLoading              = "loading_bookings"
	StatusAwaitingConfirmation = "awaiting_confirmation"
	StatusCancelling           = "cancelling"
	StatusCompleted            = "completed"
	StatusDeclined             = "declined"
	StatusTimedOut             = "timed_out"
	StatusFailed               = "failed"
)

// CancellationInput is the input for the cancellation workflow
type CancellationInput struct {
	FlightID       string        `json:"flightId"`
	ConfirmTimeout time.Duration `json:"confirmTimeout,omitempty"`
}

// ConfirmCancellation is the payload of ConfirmSignal
type ConfirmCancellation struct {
	Confirm bool `json:"confirm"`
}

// CancellationState is both the query answer and the workflow result
type CancellationState struct {
	FlightID          string           `json:"flightId"`
	Status            string           `json:"status"`
	Affected          []models.Booking `json:"affected,omitempty"`
	CancelledBookings []string         `json:"cancelledBookings"`
	FailedStep        string           `json:"failedStep,omitempty"`
	FailureReason     string           `json:"failureReason,omitempty"`
}

// FlightCancellationWorkflow loads the bookings on a flight, waits for a
// confirmation when any exist, cancels each of them and finally the flight.
// A decline or a missing answer ends the workflow with nothing modified.
// A failed step ends it with earlier steps left applied.
func FlightCancellationWorkflow(ctx workflow.Context, input CancellationInput) (*CancellationState, error) {
	logger := workflow.GetLogger(ctx)
	logger.Info("Cancellation workflow started", "flightId", input.FlightID)

	state := &CancellationState{
		FlightID:          input.FlightID,
		Status:            StatusLoading,
		CancelledBookings: []string{},
	}
	if err := workflow.SetQueryHandler(ctx, QueryState, func() (*CancellationState, error) {
		return state, nil
	}); err != nil {
		return nil, err
	}

	// every step runs once; a failure stops the cascade
	ctx = workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
		StartToCloseTimeout: ActivityTimeout,
		RetryPolicy: &temporal.RetryPolicy{
			MaximumAttempts: 1,
		},
	})

	var affected []models.Booking
	if err := workflow.ExecuteActivity(ctx, activities.FindAffectedBookingsName, input.FlightID).Get(ctx, &affected); err != nil {
		return fail(state, err), nil
	}
	state.Affected = affected

	if len(affected) > 0 {
		state.Status = StatusAwaitingConfirmation
		timeout := input.ConfirmTimeout
		if timeout <= 0 {
			timeout = DefaultConfirmTimeout
		}

		var answer *ConfirmCancellation
		timerCtx, cancelTimer := workflow.WithCancel(ctx)
		selector := workflow.NewSelector(ctx)
		selector.AddReceive(workflow.GetSignalChannel(ctx, ConfirmSignal), func(c workflow.ReceiveChannel, more bool) {
			var signal ConfirmCancellation
			c.Receive(ctx, &signal)
			answer = &signal
		})
		selector.AddFuture(workflow.NewTimer(timerCtx, timeout), func(f workflow.Future) {})
		selector.Select(ctx)
		cancelTimer()

		switch {
		case answer == nil:
			logger.Info("No confirmation received", "flightId", input.FlightID)
			state.Status = StatusTimedOut
			return state, nil
		case !answer.Confirm:
			logger.Info("Cancellation declined", "flightId", input.FlightID)
			state.Status = StatusDeclined
			return state, nil
		}
	}

	state.Status = StatusCancelling
	for _, b := range affected {
		err := workflow.ExecuteActivity(ctx, activities.CancelBookingForFlightName, activities.CancelBookingInput{
			FlightID: input.FlightID,
			Booking:  b,
		}).Get(ctx, nil)
		if err != nil {
			logger.Error("Booking cancellation failed", "bookingId", b.ID, "error", err)
			return fail(state, err), nil
		}
		state.CancelledBookings = append(state.CancelledBookings, b.ID)
	}

	if err := workflow.ExecuteActivity(ctx, activities.CancelFlightRemoteName, input.FlightID).Get(ctx, nil); err != nil {
		logger.Error("Flight cancellation failed", "error", err)
		return fail(state, err), nil
	}

	state.Status = StatusCompleted
	logger.Info("Flight cancelled", "flightId", input.FlightID, "cancelledBookings", len(state.CancelledBookings))
	return state, nil
}

func fail(state *CancellationState, err error) *CancellationState {
	state.Status = StatusFailed
	state.FailureReason = err.Error()
	var appErr *temporal.ApplicationError
	if errors.As(err, &appErr) {
		state.FailedStep = appErr.Type()
		state.FailureReason = appErr.Error()
	}
	return state
}
