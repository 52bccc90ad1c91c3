// Package search runs a trip-planning request: check the session, find the
// user's position, validate the prompt, call the planner and record the
// outcome in the trip store.
package search

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/paulmach/orb"
	"go.uber.org/zap"

	"travelapp/internal/api"
	"travelapp/internal/geo"
	"travelapp/internal/logging"
	"travelapp/internal/nav"
	"travelapp/internal/session"
	"travelapp/internal/trip"
)

const (
	MsgLoginRequired   = "You must be logged in to plan a trip. Please log in."
	MsgGeoFallback     = "Could not get your current location. Using default coordinates for the search."
	MsgBaseURLMissing  = "API Base URL is not configured. Please set TRAVEL_API_BASE_URL."
	MsgPromptRequired  = "Please enter your travel and food wishes."
	MsgCoordsMissing   = "Geolocation data is missing. Cannot proceed with trip planning."
	msgSearchFailedFmt = "An error occurred during search: %s"
)

// Precondition errors. Each aborts a search before the planner is called.
var (
	ErrNotLoggedIn    = errors.New("search: not logged in")
	ErrPromptRequired = errors.New("search: empty prompt")
	ErrNoCoordinates  = errors.New("search: no coordinates")
)

// Phase is where a search currently is.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseGeolocating
	PhaseSubmitting
	PhaseDone
)

func (p Phase) String() string {
	switch p {
	case PhaseGeolocating:
		return "geolocating"
	case PhaseSubmitting:
		return "submitting"
	case PhaseDone:
		return "done"
	default:
		return "idle"
	}
}

// Planner is the part of the API client a search needs.
type Planner interface {
	BaseURL() string
	PlanTrip(ctx context.Context, query, origin string) (*trip.Recommendation, error)
}

// SessionReader exposes the current session.
type SessionReader interface {
	State() session.State
}

// Result is the outcome of Submit.
type Result struct {
	// Message is the inline error text, empty on success.
	Message string
	// Warning is shown alongside a successful or failed search, for example
	// when the fallback origin was used.
	Warning  string
	Err      error
	Redirect nav.Route
	Origin   orb.Point
	Data     *trip.Recommendation
}

// Flow runs searches. Only Flow calls BeginSearch on the trip store.
type Flow struct {
	planner  Planner
	sessions SessionReader
	trips    *trip.Store
	locator  geo.Locator
	timeout  time.Duration
	// fallback is used when the locator fails; nil means no fallback.
	fallback *orb.Point
	log      *zap.Logger

	mu    sync.Mutex
	phase Phase
}

// Options configures a Flow.
type Options struct {
	Locator  geo.Locator
	Timeout  time.Duration
	Fallback *orb.Point
}

// NewFlow wires a search flow.
func NewFlow(planner Planner, sessions SessionReader, trips *trip.Store, opts Options) *Flow {
	if opts.Timeout <= 0 {
		opts.Timeout = 5 * time.Second
	}
	return &Flow{
		planner:  planner,
		sessions: sessions,
		trips:    trips,
		locator:  opts.Locator,
		timeout:  opts.Timeout,
		fallback: opts.Fallback,
		log:      logging.For(logging.CategorySearch),
	}
}

// Phase returns the current phase.
func (f *Flow) Phase() Phase {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.phase
}

func (f *Flow) setPhase(p Phase) {
	f.mu.Lock()
	f.phase = p
	f.mu.Unlock()
}

// Submit runs one search for prompt. Preconditions are checked in order:
// session, configuration, prompt, position. A failed precondition never
// reaches the planner.
func (f *Flow) Submit(ctx context.Context, prompt string) Result {
	f.trips.BeginSearch()
	defer f.setPhase(PhaseDone)

	st := f.sessions.State()
	if !st.IsAuthenticated || st.User == nil || st.Token == "" {
		return f.fail(Result{Message: MsgLoginRequired, Err: ErrNotLoggedIn, Redirect: nav.RouteLogin})
	}

	if f.planner.BaseURL() == "" {
		return f.fail(Result{Message: MsgBaseURLMissing, Err: api.ErrMissingBaseURL})
	}
	query := strings.TrimSpace(prompt)
	if query == "" {
		return f.fail(Result{Message: MsgPromptRequired, Err: ErrPromptRequired})
	}

	// Locators may go over the network, so they run only for a search that
	// will be sent.
	var res Result
	origin, ok := f.locate(ctx, &res)
	if !ok {
		res.Message, res.Err = MsgCoordsMissing, ErrNoCoordinates
		return f.fail(res)
	}
	res.Origin = origin

	f.setPhase(PhaseSubmitting)
	f.log.Info("planning trip", zap.String("origin", geo.FormatLatLng(origin)), zap.Int("prompt_len", len(query)))

	data, err := f.planner.PlanTrip(ctx, query, geo.FormatLatLng(origin))
	if err != nil {
		res.Message, res.Err = fmt.Sprintf(msgSearchFailedFmt, failureDetail(err)), err
		f.log.Warn("trip planning failed", zap.Error(err))
		if errors.Is(err, api.ErrUnauthorized) {
			res.Redirect = nav.RouteLogin
		}
		return f.fail(res)
	}

	f.trips.Finish(data, "")
	res.Data = data
	res.Redirect = nav.RouteResults
	return res
}

// locate resolves the origin, falling back when the locator fails. ok is
// false when there is neither a position nor a fallback.
func (f *Flow) locate(ctx context.Context, res *Result) (orb.Point, bool) {
	f.setPhase(PhaseGeolocating)

	if f.fallback == nil {
		if f.locator == nil {
			return orb.Point{}, false
		}
		lctx, cancel := context.WithTimeout(ctx, f.timeout)
		defer cancel()
		p, err := f.locator.Locate(lctx)
		if err != nil {
			f.log.Warn("geolocation failed with no fallback configured", zap.Error(err))
			return orb.Point{}, false
		}
		return p, true
	}

	fix := geo.Resolve(ctx, f.locator, f.timeout, *f.fallback)
	if fix.Fallback {
		res.Warning = MsgGeoFallback
	}
	return fix.Point, true
}

func (f *Flow) fail(res Result) Result {
	f.trips.Finish(nil, res.Message)
	return res
}

// failureDetail mirrors what the planner said, or describes the status.
func failureDetail(err error) string {
	if msg, ok := api.ServerMessage(err); ok {
		return msg
	}
	var apiErr *api.Error
	if errors.As(err, &apiErr) {
		return fmt.Sprintf("Backend error! Status: %d, Message: %s", apiErr.Status, apiErr.Message)
	}
	return err.Error()
}
