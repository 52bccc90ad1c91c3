package main

import (
	"fmt"

	"github.com/paulmach/orb"
	"go.uber.org/zap"

	"travelapp/cmd/travel/ui"
	"travelapp/internal/api"
	"travelapp/internal/config"
	"travelapp/internal/forms"
	"travelapp/internal/geo"
	"travelapp/internal/logging"
	"travelapp/internal/markers"
	"travelapp/internal/nav"
	"travelapp/internal/search"
	"travelapp/internal/session"
	"travelapp/internal/storage"
	"travelapp/internal/trip"
)

// app is the wired client shared by the interactive UI and the one-shot
// commands.
type app struct {
	cfg       *config.Config
	store     storage.Storage
	sessions  *session.Store
	client    *api.Client
	trips     *trip.Store
	persister *trip.Persister
	router    *nav.Router
	listing   *markers.Listing
	places    *forms.AddPlace
	search    *search.Flow
}

// newApp opens storage and wires every service. The session is not
// initialized yet; callers decide whether that blocks.
func newApp(c *config.Config) (*app, error) {
	st, err := storage.Open(c.Storage.Backend, c.StateDir())
	if err != nil {
		return nil, fmt.Errorf("failed to open storage: %w", err)
	}

	locator, err := newLocator(c.Geo)
	if err != nil {
		_ = st.Close()
		return nil, err
	}

	a := &app{cfg: c, store: st}
	a.sessions = session.NewStore(st)
	a.client = api.New(api.Options{
		BaseURL:    c.API.BaseURL,
		Timeout:    c.GetAPITimeout(),
		RetryCount: c.API.RetryCount,
		Token:      a.sessions.Token,
	})
	a.trips = trip.NewStore()
	a.persister = trip.NewPersister(a.trips, st)
	a.persister.Mirror()
	a.router = nav.NewRouter(a.sessions, a.persister)
	a.client.SetOnUnauthorized(a.router.Unauthorized)

	a.listing = markers.NewListing(a.client, a.sessions.Token, c.UI.PageSize)
	a.places = forms.NewAddPlace(a.client)

	fallback := orb.Point{c.Geo.FallbackLng, c.Geo.FallbackLat}
	a.search = search.NewFlow(a.client, a.sessions, a.trips, search.Options{
		Locator:  locator,
		Timeout:  c.GetGeoTimeout(),
		Fallback: &fallback,
	})

	logging.For(logging.CategoryBoot).Debug("client wired",
		zap.String("storage", storage.Location(c.Storage.Backend, c.StateDir())))
	return a, nil
}

// newLocator prefers a configured origin over an IP lookup. It returns nil
// when neither is configured, which makes every search use the fallback.
func newLocator(g config.GeoConfig) (geo.Locator, error) {
	var chain geo.ChainLocator
	if g.Origin != "" {
		p, err := geo.ParseLatLng(g.Origin)
		if err != nil {
			return nil, fmt.Errorf("invalid origin %q: %w", g.Origin, err)
		}
		chain = append(chain, geo.StaticLocator{Point: p})
	}
	if g.IPLookupURL != "" {
		chain = append(chain, geo.NewIPLocator(g.IPLookupURL))
	}
	if len(chain) == 0 {
		return nil, nil
	}
	return chain, nil
}

// openApp wires the client and restores the session, for one-shot commands.
func openApp() (*app, error) {
	return openAppWith(cfg)
}

func openAppWith(c *config.Config) (*app, error) {
	if c == nil {
		return nil, fmt.Errorf("configuration not loaded")
	}
	a, err := newApp(c)
	if err != nil {
		return nil, err
	}
	a.sessions.Initialize()
	return a, nil
}

func (a *app) Close() error {
	return a.store.Close()
}

// uiDeps hands the wired services to the interactive UI.
func (a *app) uiDeps() ui.Deps {
	return ui.Deps{
		Config:    a.cfg,
		Sessions:  a.sessions,
		Client:    a.client,
		Trips:     a.trips,
		Persister: a.persister,
		Router:    a.router,
		Listing:   a.listing,
		Places:    a.places,
		Search:    a.search,
		WatchPath: storage.Location(a.cfg.Storage.Backend, a.cfg.StateDir()),
	}
}
