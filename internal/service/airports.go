package service

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/flyeazy/flyeazy-client/internal/apperr"
	"github.com/flyeazy/flyeazy-client/internal/gateway"
	"github.com/flyeazy/flyeazy-client/internal/models"
	"github.com/flyeazy/flyeazy-client/internal/resource"
	"go.uber.org/zap"
)

// Airports is read-mostly reference data
type Airports struct {
	*resource.Collection[models.Airport]
	routes *Routes
}

func NewAirports(api gateway.Requester, auth resource.Authorizer, log *zap.Logger) *Airports {
	return &Airports{
		Collection: resource.New(resource.Spec[models.Airport]{
			Name:      "airport",
			ListPath:  "/airports/all",
			BasePath:  "/airports",
			AdminOnly: true,
			ID:        func(a *models.Airport) string { return a.ID },
			SetID:     func(a *models.Airport, id string) { a.ID = id },
		}, api, auth, log),
	}
}

// FetchByCode looks an airport up by IATA code. Unknown codes yield nil.
func (a *Airports) FetchByCode(ctx context.Context, code string) (*models.Airport, error) {
	defer a.Begin()()

	code = strings.ToUpper(strings.TrimSpace(code))
	resp, err := a.API().Request(ctx, "/airports/fetch/"+url.PathEscape(code), http.MethodGet, nil, false)
	if err != nil {
		if apperr.KindOf(err) == apperr.KindNotFound {
			return nil, nil
		}
		return nil, a.SetErr(err)
	}
	return decodeWrapped[models.Airport](resp, "airport", "fetch airport")
}

// NameMap maps IATA code to airport name for the loaded list
func (a *Airports) NameMap() map[string]string {
	names := make(map[string]string)
	for _, ap := range a.Items() {
		names[ap.Code] = ap.Name
	}
	return names
}

// Exists reports whether ref matches a loaded airport's id or code
func (a *Airports) Exists(ref string) bool {
	for _, ap := range a.Items() {
		if ap.ID == ref || strings.EqualFold(ap.Code, ref) {
			return true
		}
	}
	return false
}

// Delete removes an airport unless a route still references it by id or
// code. The airport list is loaded first when id is not in it, so the code
// is always known before the check.
func (a *Airports) Delete(ctx context.Context, id string) error {
	const op = "delete airport"
	defer a.Begin()()

	if _, err := a.Authorize(op); err != nil {
		return a.SetErr(err)
	}

	if a.routes != nil {
		if err := a.routes.FetchAll(ctx); err != nil {
			return a.SetErr(err)
		}
		ap, ok := a.Find(id)
		if !ok {
			if err := a.FetchAll(ctx); err != nil {
				return a.SetErr(err)
			}
			if ap, ok = a.Find(id); !ok {
				return a.SetErr(apperr.New(apperr.KindNotFound, op, "airport %s not found", id))
			}
		}
		for _, r := range a.routes.Items() {
			if referencesAirport(r, id) || (ap.Code != "" && referencesAirport(r, ap.Code)) {
				return a.SetErr(apperr.New(apperr.KindConflict, op,
					"airport %s is used by route %s", id, r.ID))
			}
		}
	}
	return a.Collection.Delete(ctx, id)
}

func referencesAirport(r models.Route, ref string) bool {
	return r.DepartureAirportID == ref || r.ArrivalAirportID == ref ||
		strings.EqualFold(r.DepartureAirportCode, ref) || strings.EqualFold(r.ArrivalAirportCode, ref)
}
