// Package nav decides which page a user may see and owns the current route.
package nav

import (
	"errors"
	"sync"

	"go.uber.org/zap"

	"travelapp/internal/logging"
	"travelapp/internal/session"
)

// Route names a page.
type Route string

const (
	RouteHome     Route = "/"
	RouteLogin    Route = "/login"
	RouteRegister Route = "/register"
	RouteMarkers  Route = "/markers"
	RouteAddPlace Route = "/add-place"
	RouteSearch   Route = "/search"
	RouteResults  Route = "/results"
)

// ErrLoginRequired is what one-shot commands return instead of redirecting.
var ErrLoginRequired = errors.New("not logged in; run `travel login` first")

// ErrAdminRequired is returned by one-shot commands restricted to admins.
var ErrAdminRequired = errors.New("this command requires an admin account")

// Decision is the outcome of gating a route.
type Decision struct {
	Route Route
	// Hold means the session is still loading and nothing should render yet.
	Hold bool
	// Logout means the session is unusable and must be cleared first.
	Logout bool
}

func public(r Route) bool {
	return r == RouteLogin || r == RouteRegister
}

func adminOnly(r Route) bool {
	return r == RouteMarkers || r == RouteAddPlace
}

// Home is the landing page for a session.
func Home(st session.State) Decision {
	switch {
	case st.IsLoading:
		return Decision{Route: RouteHome, Hold: true}
	case !st.IsAuthenticated || st.User == nil:
		return Decision{Route: RouteLogin}
	case st.User.Role == "":
		return Decision{Route: RouteLogin, Logout: true}
	case st.User.IsAdmin():
		return Decision{Route: RouteMarkers}
	default:
		return Decision{Route: RouteSearch}
	}
}

// Gate resolves where a request for want actually lands.
func Gate(st session.State, want Route) Decision {
	if st.IsLoading {
		return Decision{Route: want, Hold: true}
	}
	if want == RouteHome {
		return Home(st)
	}
	if public(want) {
		return Decision{Route: want}
	}
	if !st.IsAuthenticated || st.User == nil {
		return Decision{Route: RouteLogin}
	}
	if adminOnly(want) && !st.User.IsAdmin() {
		return Home(st)
	}
	return Decision{Route: want}
}

// RequireLogin is the one-shot equivalent of the gate.
func RequireLogin(st session.State) error {
	if !st.IsAuthenticated || st.Token == "" {
		return ErrLoginRequired
	}
	return nil
}

// RequireAdmin requires an authenticated admin.
func RequireAdmin(st session.State) error {
	if err := RequireLogin(st); err != nil {
		return err
	}
	if !st.User.IsAdmin() {
		return ErrAdminRequired
	}
	return nil
}

// Clearer drops per-user cached state on logout.
type Clearer interface {
	Clear()
}

// Router tracks the current route. Navigate and Unauthorized may be called
// from any goroutine.
type Router struct {
	sessions *session.Store
	clear    Clearer
	log      *zap.Logger

	mu      sync.Mutex
	current Route
}

// NewRouter starts at the home route. clear may be nil.
func NewRouter(sessions *session.Store, clear Clearer) *Router {
	return &Router{
		sessions: sessions,
		clear:    clear,
		log:      logging.For(logging.CategoryUI),
		current:  RouteHome,
	}
}

// Current returns the current route.
func (r *Router) Current() Route {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.current
}

// Navigate gates want against the session and moves there. It returns the
// route actually shown; a held decision leaves the route unchanged.
func (r *Router) Navigate(want Route) Route {
	d := Gate(r.sessions.State(), want)
	if d.Hold {
		return r.Current()
	}
	if d.Logout {
		r.log.Warn("session has no role, logging out")
		r.logout()
	}
	return r.move(d.Route)
}

// Logout ends the session and returns to the login page.
func (r *Router) Logout() Route {
	r.logout()
	return r.move(RouteLogin)
}

// Unauthorized handles a 401 from the API.
func (r *Router) Unauthorized() {
	r.log.Warn("credential rejected by server, logging out")
	r.Logout()
}

func (r *Router) logout() {
	r.sessions.Logout()
	if r.clear != nil {
		r.clear.Clear()
	}
}

func (r *Router) move(to Route) Route {
	r.mu.Lock()
	changed := r.current != to
	r.current = to
	r.mu.Unlock()

	if changed {
		r.log.Debug("navigate", zap.String("route", string(to)))
	}
	return to
}
