package service

import (
	"context"
	"fmt"
	"net/http"

	"github.com/flyeazy/flyeazy-client/internal/apperr"
	"github.com/flyeazy/flyeazy-client/internal/gateway"
	"github.com/flyeazy/flyeazy-client/internal/models"
	"github.com/flyeazy/flyeazy-client/internal/resource"
	"go.uber.org/zap"
)

// Cascade steps, used in StepError
const (
	StepRefreshBookings = "refresh bookings"
	StepConfirm         = "confirm"
	StepPatchTickets    = "patch tickets"
	StepCancelBooking   = "cancel booking"
	StepCancelFlight    = "cancel flight"
)

// Confirmer asks the operator whether to cancel a flight that has bookings
type Confirmer interface {
	ConfirmCancellation(ctx context.Context, flightID string, affected []models.Booking) (bool, error)
}

// ConfirmFunc adapts a function to Confirmer
type ConfirmFunc func(ctx context.Context, flightID string, affected []models.Booking) (bool, error)

func (f ConfirmFunc) ConfirmCancellation(ctx context.Context, flightID string, affected []models.Booking) (bool, error) {
	return f(ctx, flightID, affected)
}

// StepError reports which cascade step failed. Steps completed before it are
// not rolled back.
type StepError struct {
	FlightID  string
	Step      string
	BookingID string
	Err       error
}

func (e *StepError) Error() string {
	if e.BookingID != "" {
		return fmt.Sprintf("cancel flight %s: %s for booking %s: %v", e.FlightID, e.Step, e.BookingID, e.Err)
	}
	return fmt.Sprintf("cancel flight %s: %s: %v", e.FlightID, e.Step, e.Err)
}

func (e *StepError) Unwrap() error { return e.Err }

// CancelReport summarises a completed cascade
type CancelReport struct {
	FlightID          string   `json:"flightId"`
	CancelledBookings []string `json:"cancelledBookings"`
}

// Flights manages the flight list. All writes are admin-only.
type Flights struct {
	*resource.Collection[models.Flight]
	bookings *Bookings
}

func NewFlights(api gateway.Requester, auth resource.Authorizer, bookings *Bookings, log *zap.Logger) *Flights {
	return &Flights{
		Collection: resource.New(resource.Spec[models.Flight]{
			Name:      "flight",
			ListPath:  "/flights",
			AdminOnly: true,
			ID:        func(f *models.Flight) string { return f.ID },
			SetID:     func(f *models.Flight, id string) { f.ID = id },
		}, api, auth, log),
		bookings: bookings,
	}
}

// FetchByID returns the flight, or nil if it no longer exists
func (f *Flights) FetchByID(ctx context.Context, id string) (*models.Flight, error) {
	return f.FetchOne(ctx, id)
}

// Add creates a flight
func (f *Flights) Add(ctx context.Context, input models.NewFlight) (*models.Flight, error) {
	return f.Create(ctx, input)
}

// AffectedBookings re-reads all bookings and returns those with a ticket on
// flightID.
func (f *Flights) AffectedBookings(ctx context.Context, flightID string) ([]models.Booking, error) {
	if err := f.bookings.FetchAll(ctx); err != nil {
		return nil, &StepError{FlightID: flightID, Step: StepRefreshBookings, Err: err}
	}
	var affected []models.Booking
	for _, b := range f.bookings.Items() {
		if b.HasFlight(flightID) {
			affected = append(affected, b)
		}
	}
	return affected, nil
}

// CancelBookingForFlight marks the booking's tickets on flightID as
// Cancelled, persists the ticket array, then cancels the booking. Tickets on
// other flights are left untouched.
func (f *Flights) CancelBookingForFlight(ctx context.Context, booking models.Booking, flightID string) error {
	tickets := make([]models.Ticket, len(booking.Tickets))
	copy(tickets, booking.Tickets)
	for i := range tickets {
		if tickets[i].FlightID == flightID {
			tickets[i].FlightStatus = models.FlightStatusCancelled
		}
	}

	if err := f.bookings.PatchTickets(ctx, booking.ID, tickets); err != nil {
		return &StepError{FlightID: flightID, Step: StepPatchTickets, BookingID: booking.ID, Err: err}
	}
	if err := f.bookings.Cancel(ctx, booking.ID); err != nil {
		return &StepError{FlightID: flightID, Step: StepCancelBooking, BookingID: booking.ID, Err: err}
	}
	return nil
}

// CancelFlightRemote asks the backend to cancel the flight and flips the
// local status on success.
func (f *Flights) CancelFlightRemote(ctx context.Context, flightID string) error {
	if _, err := f.API().Request(ctx, "/flights/"+flightID, http.MethodDelete, nil, true); err != nil {
		return &StepError{FlightID: flightID, Step: StepCancelFlight, Err: err}
	}
	f.Mutate(flightID, func(fl *models.Flight) { fl.Status = models.FlightStatusCancelled })
	return nil
}

// CancelFlight runs the cancellation cascade: refresh bookings, ask confirm
// when any booking references the flight, cancel each affected booking, then
// cancel the flight. Declining returns apperr.ErrCancelled with nothing
// modified: the bookings read that builds the question has happened, but no
// mutating call is made. A failure part way leaves earlier steps applied.
func (f *Flights) CancelFlight(ctx context.Context, flightID string, confirm Confirmer) (*CancelReport, error) {
	const op = "cancel flight"
	defer f.Begin()()
	log := f.Logger().With(zap.String("flightId", flightID))

	if _, err := f.Authorize(op); err != nil {
		return nil, f.SetErr(err)
	}

	affected, err := f.AffectedBookings(ctx, flightID)
	if err != nil {
		log.Error("Cascade failed", zap.Error(err))
		return nil, f.SetErr(err)
	}

	if len(affected) > 0 {
		if confirm == nil {
			return nil, f.SetErr(&StepError{FlightID: flightID, Step: StepConfirm, Err: apperr.ErrCancelled})
		}
		ok, err := confirm.ConfirmCancellation(ctx, flightID, affected)
		if err != nil {
			return nil, f.SetErr(&StepError{FlightID: flightID, Step: StepConfirm, Err: err})
		}
		if !ok {
			log.Info("Flight cancellation declined", zap.Int("affectedBookings", len(affected)))
			return nil, &apperr.Error{Kind: apperr.KindCancelled, Op: op, Message: "flight cancellation declined"}
		}
	}

	report := &CancelReport{FlightID: flightID, CancelledBookings: []string{}}
	for _, b := range affected {
		if err := f.CancelBookingForFlight(ctx, b, flightID); err != nil {
			log.Error("Cascade failed", zap.String("bookingId", b.ID), zap.Error(err))
			return report, f.SetErr(err)
		}
		report.CancelledBookings = append(report.CancelledBookings, b.ID)
	}

	if err := f.CancelFlightRemote(ctx, flightID); err != nil {
		log.Error("Cascade failed", zap.Error(err))
		return report, f.SetErr(err)
	}

	log.Info("Flight cancelled", zap.Int("cancelledBookings", len(report.CancelledBookings)))
	return report, nil
}
