package service

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/flyeazy/flyeazy-client/internal/gateway"
	"github.com/flyeazy/flyeazy-client/internal/models"
	"github.com/flyeazy/flyeazy-client/internal/resource"
	"go.uber.org/zap"
)

// Tickets covers seat availability and single-ticket updates
type Tickets struct {
	*resource.Collection[models.Ticket]
}

func NewTickets(api gateway.Requester, auth resource.Authorizer, log *zap.Logger) *Tickets {
	return &Tickets{
		Collection: resource.New(resource.Spec[models.Ticket]{
			Name:     "ticket",
			ListPath: "/tickets",
			ID:       func(t *models.Ticket) string { return t.ID },
			SetID:    func(t *models.Ticket, id string) { t.ID = id },
			DecodeItem: func(resp *gateway.Response) (*models.Ticket, error) {
				return decodeWrapped[models.Ticket](resp, "ticket", "ticket")
			},
		}, api, auth, log),
	}
}

// BookedSeats returns the seats already taken on flightID for date. Failures
// and unexpected responses yield an empty list.
func (t *Tickets) BookedSeats(ctx context.Context, flightID, date string) []string {
	defer t.Begin()()

	path := "/tickets/booked/" + url.PathEscape(flightID) + "/" + url.PathEscape(date)
	resp, err := t.API().Request(ctx, path, http.MethodGet, nil, false)
	if err != nil {
		t.SetErr(err)
		t.Logger().Warn("Failed to fetch booked seats", zap.String("flightId", flightID), zap.Error(err))
		return []string{}
	}
	var body struct {
		BookedSeats []string `json:"bookedSeats"`
	}
	if err := resp.Decode(&body); err != nil || body.BookedSeats == nil {
		t.Logger().Warn("Unexpected booked seats response", zap.String("body", resp.Text()))
		return []string{}
	}
	return body.BookedSeats
}

// WatchBookedSeats streams the booked seats of flightID on date to fn until
// ctx is done. The first call carries the current state.
func (t *Tickets) WatchBookedSeats(ctx context.Context, flightID, date string, fn func([]string)) error {
	w, ok := t.API().(gateway.SeatWatcher)
	if !ok {
		return fmt.Errorf("live seat updates are not supported by this connection")
	}
	return w.WatchSeats(ctx, flightID, date, func(u gateway.SeatsUpdate) {
		fn(u.BookedSeats)
	})
}
