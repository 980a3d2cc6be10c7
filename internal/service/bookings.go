package service

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/flyeazy/flyeazy-client/internal/apperr"
	"github.com/flyeazy/flyeazy-client/internal/gateway"
	"github.com/flyeazy/flyeazy-client/internal/models"
	"github.com/flyeazy/flyeazy-client/internal/resource"
	"github.com/flyeazy/flyeazy-client/internal/validation"
	"go.uber.org/zap"
)

// Bookings manages the booking list. Writes need a valid session only.
type Bookings struct {
	*resource.Collection[models.Booking]
}

func NewBookings(api gateway.Requester, auth resource.Authorizer, log *zap.Logger) *Bookings {
	return &Bookings{
		Collection: resource.New(resource.Spec[models.Booking]{
			Name:         "booking",
			ListPath:     "/bookings",
			UpdateMethod: http.MethodPatch,
			ReadAuth:     true,
			ID:           func(b *models.Booking) string { return b.ID },
			SetID:        func(b *models.Booking, id string) { b.ID = id },
			DecodeItem: func(resp *gateway.Response) (*models.Booking, error) {
				return decodeWrapped[models.Booking](resp, "booking", "booking")
			},
		}, api, auth, log),
	}
}

// Create books input for the current user. The caller's user id and email
// are attached, and NumberOfTickets must match the ticket count. Errors are
// returned to the caller.
func (b *Bookings) Create(ctx context.Context, input models.NewBooking) (*models.Booking, error) {
	const op = "create booking"
	defer b.Begin()()

	sess, err := b.Authorize(op)
	if err != nil {
		return nil, b.SetErr(err)
	}
	if input.NumberOfTickets != len(input.Tickets) {
		return nil, b.SetErr(apperr.New(apperr.KindValidation, op,
			"numberOfTickets is %d but %d tickets were given", input.NumberOfTickets, len(input.Tickets)))
	}
	input.UserID = sess.UserID
	input.UserEmail = sess.Email
	if input.BookingStatus == "" {
		input.BookingStatus = models.BookingStatusPending
	}
	if err := validation.Check(op, input); err != nil {
		return nil, b.SetErr(err)
	}

	resp, err := b.API().Request(ctx, "/bookings", http.MethodPost, input, true)
	if err != nil {
		b.Logger().Error("Booking failed", zap.String("userId", sess.UserID), zap.Error(err))
		return nil, b.SetErr(err)
	}
	if !resp.JSON {
		b.Logger().Info("Booking created", zap.String("response", resp.Text()))
		return nil, nil
	}
	booking, err := decodeWrapped[models.Booking](resp, "booking", op)
	if err != nil {
		return nil, b.SetErr(err)
	}
	b.Upsert(*booking)
	b.Logger().Info("Booking created", zap.String("bookingId", booking.ID), zap.Int("tickets", len(booking.Tickets)))
	return booking, nil
}

// ForCurrentUser loads the bookings of the logged-in user into the list
func (b *Bookings) ForCurrentUser(ctx context.Context) ([]models.Booking, error) {
	sess, err := b.Authorize("list own bookings")
	if err != nil {
		return nil, b.SetErr(err)
	}
	return b.fetchInto(ctx, "/bookings/user/"+url.PathEscape(sess.UserID))
}

// ByEmail loads the bookings made with email into the list
func (b *Bookings) ByEmail(ctx context.Context, email string) ([]models.Booking, error) {
	if _, err := b.Authorize("list bookings by email"); err != nil {
		return nil, b.SetErr(err)
	}
	return b.fetchInto(ctx, "/bookings/user/email/"+url.PathEscape(email))
}

func (b *Bookings) fetchInto(ctx context.Context, path string) ([]models.Booking, error) {
	defer b.Begin()()

	resp, err := b.API().Request(ctx, path, http.MethodGet, nil, true)
	if err != nil {
		b.Replace(nil)
		return nil, b.SetErr(err)
	}
	var bookings []models.Booking
	if err := resp.Decode(&bookings); err != nil {
		b.Replace(nil)
		return nil, b.SetErr(apperr.Wrap(apperr.KindNetwork, "GET "+path, fmt.Errorf("unexpected response: %w", err)))
	}
	b.Replace(bookings)
	return b.Items(), nil
}

// PatchTickets replaces the ticket array of booking id
func (b *Bookings) PatchTickets(ctx context.Context, id string, tickets []models.Ticket) error {
	defer b.Begin()()
	if _, err := b.Authorize("patch booking tickets"); err != nil {
		return b.SetErr(err)
	}
	if _, err := b.API().Request(ctx, "/bookings/"+id, http.MethodPatch, models.TicketsPatch{Tickets: tickets}, true); err != nil {
		return b.SetErr(err)
	}
	b.Mutate(id, func(bk *models.Booking) { bk.Tickets = tickets })
	return nil
}

// Cancel marks booking id as Cancelled
func (b *Bookings) Cancel(ctx context.Context, id string) error {
	defer b.Begin()()
	if _, err := b.Authorize("cancel booking"); err != nil {
		return b.SetErr(err)
	}
	if _, err := b.API().Request(ctx, "/bookings/"+id+"/cancel", http.MethodPatch, nil, true); err != nil {
		return b.SetErr(err)
	}
	b.Mutate(id, func(bk *models.Booking) { bk.BookingStatus = models.BookingStatusCancelled })
	b.Logger().Info("Booking cancelled", zap.String("bookingId", id))
	return nil
}
