package service

import (
	"context"

	"github.com/flyeazy/flyeazy-client/internal/apperr"
	"github.com/flyeazy/flyeazy-client/internal/gateway"
	"github.com/flyeazy/flyeazy-client/internal/models"
	"github.com/flyeazy/flyeazy-client/internal/resource"
	"github.com/flyeazy/flyeazy-client/internal/validation"
	"go.uber.org/zap"
)

// Routes manages flight routes. Writes are admin-only and a new route must
// connect two different known airports.
type Routes struct {
	*resource.Collection[models.Route]
	airports *Airports
}

func NewRoutes(api gateway.Requester, auth resource.Authorizer, airports *Airports, log *zap.Logger) *Routes {
	return &Routes{
		Collection: resource.New(resource.Spec[models.Route]{
			Name:      "route",
			ListPath:  "/routes",
			AdminOnly: true,
			ID:        func(r *models.Route) string { return r.ID },
			SetID:     func(r *models.Route, id string) { r.ID = id },
		}, api, auth, log),
		airports: airports,
	}
}

// Add creates a route after checking both airports exist
func (r *Routes) Add(ctx context.Context, input models.NewRoute) (*models.Route, error) {
	const op = "create route"

	// gate before touching the airport list so non-admins cause no traffic
	if _, err := r.Authorize(op); err != nil {
		return nil, r.SetErr(err)
	}
	if err := validation.Check(op, input); err != nil {
		return nil, r.SetErr(err)
	}

	if r.airports != nil {
		if len(r.airports.Items()) == 0 {
			if err := r.airports.FetchAll(ctx); err != nil {
				return nil, r.SetErr(err)
			}
		}
		for _, ref := range []string{input.DepartureAirportID, input.ArrivalAirportID} {
			if !r.airports.Exists(ref) {
				return nil, r.SetErr(apperr.New(apperr.KindValidation, op, "unknown airport %s", ref))
			}
		}
	}
	return r.Create(ctx, input)
}
