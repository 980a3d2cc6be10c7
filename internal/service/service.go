// Package service specialises resource collections for each API resource the
// client manages.
package service

import (
	"encoding/json"
	"fmt"

	"github.com/flyeazy/flyeazy-client/internal/apperr"
	"github.com/flyeazy/flyeazy-client/internal/gateway"
	"github.com/flyeazy/flyeazy-client/internal/resource"
	"github.com/flyeazy/flyeazy-client/internal/session"
	"go.uber.org/zap"
)

// Services groups every resource service over one gateway and session
type Services struct {
	Flights  *Flights
	Routes   *Routes
	Airports *Airports
	Bookings *Bookings
	Tickets  *Tickets
	CheckIns *CheckIns
	Company  *Company
}

// New wires all services. archive receives boarding passes from check-in.
func New(api gateway.Requester, auth session.State, archive ArchiveSaver, log *zap.Logger) *Services {
	airports := NewAirports(api, auth, log)
	bookings := NewBookings(api, auth, log)
	routes := NewRoutes(api, auth, airports, log)
	airports.routes = routes
	flights := NewFlights(api, auth, bookings, log)

	return &Services{
		Flights:  flights,
		Routes:   routes,
		Airports: airports,
		Bookings: bookings,
		Tickets:  NewTickets(api, auth, log),
		CheckIns: NewCheckIns(api, auth, airports, archive, log),
		Company:  NewCompany(api, auth, log),
	}
}

var _ resource.Authorizer = (session.State)(nil)

// decodeWrapped decodes either {"<key>": {...}} or a bare object
func decodeWrapped[T any](resp *gateway.Response, key, op string) (*T, error) {
	var wrapped map[string]json.RawMessage
	if err := resp.Decode(&wrapped); err != nil {
		return nil, apperr.Wrap(apperr.KindNetwork, op, fmt.Errorf("unexpected response: %w", err))
	}
	if raw, ok := wrapped[key]; ok && len(raw) > 0 && raw[0] == '{' {
		var v T
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, apperr.Wrap(apperr.KindNetwork, op, fmt.Errorf("unexpected response: %w", err))
		}
		return &v, nil
	}
	v, err := gateway.Decode[T](resp)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindNetwork, op, fmt.Errorf("unexpected response: %w", err))
	}
	return v, nil
}
