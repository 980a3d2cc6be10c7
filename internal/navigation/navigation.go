// Package navigation guards the client's views. Each view is a route with
// optional auth and admin requirements, matched with gorilla/mux.
package navigation

import (
	"context"
	"net/http"
	"sync"

	"github.com/flyeazy/flyeazy-client/internal/apperr"
	"github.com/flyeazy/flyeazy-client/internal/models"
	"github.com/flyeazy/flyeazy-client/internal/session"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

const (
	PathHome     = "/"
	PathAbout    = "/about"
	PathFlights  = "/flights"
	PathAuth     = "/auth"
	PathAdmin    = "/admin"
	PathBookings = "/bookings"
	PathCheckIn  = "/checkin"
)

// NoticeSessionExpired is shown after an expired session forced a redirect
const NoticeSessionExpired = "Your session has expired, please log in again"

// Route describes one view
type Route struct {
	Name          string
	Path          string
	RequiresAuth  bool
	RequiresAdmin bool
}

// Routes is the view table
var Routes = []Route{
	{Name: "home", Path: PathHome},
	{Name: "about", Path: PathAbout},
	{Name: "flights", Path: PathFlights, RequiresAuth: true},
	{Name: "login", Path: PathAuth},
	{Name: "admin", Path: PathAdmin, RequiresAuth: true, RequiresAdmin: true},
	{Name: "bookings", Path: PathBookings, RequiresAuth: true},
	{Name: "checkin", Path: PathCheckIn, RequiresAuth: true},
}

// Decision is the outcome of a navigation attempt
type Decision struct {
	// Route is the view the user ends up on
	Route Route
	// Requested is the path that was asked for
	Requested string
	// Redirected is true when Route differs from the requested view
	Redirected bool
	// Reason is the error that caused a redirect, if any
	Reason error
	// Notice is a message for the user, e.g. after session expiry
	Notice string
}

// Clearer wipes persisted session data
type Clearer interface {
	Logout()
}

// Guard evaluates navigation attempts against the session
type Guard struct {
	state   session.State
	clearer Clearer
	router  *mux.Router
	log     *zap.Logger

	mu      sync.Mutex
	current Decision
}

// New builds a guard. clearer may be nil; when set it is invoked after an
// expired session is detected.
func New(state session.State, clearer Clearer, log *zap.Logger) *Guard {
	r := mux.NewRouter().StrictSlash(true)
	for _, rt := range Routes {
		r.Path(rt.Path).Name(rt.Name)
	}
	g := &Guard{
		state:   state,
		clearer: clearer,
		router:  r,
		log:     log.With(zap.String("component", "navigation")),
	}
	g.current = Decision{Route: g.mustRoute(PathHome), Requested: PathHome}
	return g
}

// Lookup returns the route registered for path
func (g *Guard) Lookup(path string) (Route, bool) {
	req, err := http.NewRequest(http.MethodGet, path, nil)
	if err != nil {
		return Route{}, false
	}
	var match mux.RouteMatch
	if !g.router.Match(req, &match) || match.Route == nil {
		return Route{}, false
	}
	name := match.Route.GetName()
	for _, rt := range Routes {
		if rt.Name == name {
			return rt, true
		}
	}
	return Route{}, false
}

func (g *Guard) mustRoute(path string) Route {
	rt, ok := g.Lookup(path)
	if !ok {
		panic("navigation: no route for " + path)
	}
	return rt
}

// Current returns the last decision
func (g *Guard) Current() Decision {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.current
}

// Navigate evaluates a navigation attempt to path and records the result as
// the current view. Unknown paths land on home.
func (g *Guard) Navigate(path string) Decision {
	d := g.evaluate(path)
	g.mu.Lock()
	g.current = d
	g.mu.Unlock()
	return d
}

func (g *Guard) evaluate(path string) Decision {
	target, ok := g.Lookup(path)
	if !ok {
		return Decision{Route: g.mustRoute(PathHome), Requested: path, Redirected: true,
			Reason: apperr.New(apperr.KindNotFound, "navigate", "no view at %s", path)}
	}
	d := Decision{Route: target, Requested: path}
	if !target.RequiresAuth && !target.RequiresAdmin {
		return d
	}

	sess, err := g.state.GetSessionOrFail()
	if err != nil {
		return g.toLogin(path, err)
	}
	if target.RequiresAdmin && !isAdmin(sess, g.state) {
		g.log.Info("Admin view refused", zap.String("path", path), zap.String("userId", sess.UserID))
		return g.toLogin(path, apperr.ErrAccessDenied)
	}
	return d
}

func isAdmin(sess *models.Session, state session.State) bool {
	return sess.IsAdmin && state.IsAdmin()
}

func (g *Guard) toLogin(path string, reason error) Decision {
	d := Decision{
		Route:      g.mustRoute(PathAuth),
		Requested:  path,
		Redirected: true,
		Reason:     reason,
	}
	if apperr.KindOf(reason) == apperr.KindSessionExpired {
		if g.clearer != nil {
			g.clearer.Logout()
		}
		d.Notice = NoticeSessionExpired
	}
	g.log.Debug("Redirecting to login", zap.String("path", path), zap.Error(reason))
	return d
}

// Watch re-evaluates the current view whenever the session flags change and
// calls onRedirect when the user is moved away from it. The subscription is
// in place when Watch returns; it ends when ctx is done.
func (g *Guard) Watch(ctx context.Context, onRedirect func(Decision)) {
	changes, cancel := g.state.Subscribe()
	go func() {
		defer cancel()
		for {
			select {
			case <-ctx.Done():
				return
			case change := <-changes:
				g.reevaluate(change, onRedirect)
			}
		}
	}()
}

func (g *Guard) reevaluate(change session.FlagChange, onRedirect func(Decision)) {
	cur := g.Current()
	if !cur.Route.RequiresAuth && !cur.Route.RequiresAdmin {
		return
	}
	d := g.evaluate(cur.Route.Path)
	if !d.Redirected {
		return
	}
	if change.Expired && d.Notice == "" {
		d.Notice = NoticeSessionExpired
	}
	g.mu.Lock()
	g.current = d
	g.mu.Unlock()
	g.log.Info("Session changed, leaving view",
		zap.String("from", cur.Route.Path), zap.String("to", d.Route.Path))
	if onRedirect != nil {
		onRedirect(d)
	}
}
