package ui

import (
	"context"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"travelapp/internal/api"
	"travelapp/internal/config"
	"travelapp/internal/forms"
	"travelapp/internal/logging"
	"travelapp/internal/markers"
	"travelapp/internal/nav"
	"travelapp/internal/search"
	"travelapp/internal/session"
	"travelapp/internal/storage"
	"travelapp/internal/trip"
)

// Deps are the services the UI drives. All of them are owned by the caller.
type Deps struct {
	Config    *config.Config
	Sessions  *session.Store
	Client    *api.Client
	Trips     *trip.Store
	Persister *trip.Persister
	Router    *nav.Router
	Listing   *markers.Listing
	Places    *forms.AddPlace
	Search    *search.Flow
	// WatchPath is the storage file shared with other processes. Empty
	// disables watching.
	WatchPath string
}

// env is shared by every page.
type env struct {
	ctx    context.Context
	deps   Deps
	styles Styles
	log    *zap.Logger
}

type flashKind int

const (
	flashInfo flashKind = iota
	flashSuccess
	flashError
)

type flash struct {
	text string
	kind flashKind
}

// Messages produced by commands.
type (
	sessionReadyMsg   struct{ state session.State }
	watchStartedMsg   struct{ ch <-chan struct{} }
	storageChangedMsg struct{}
	sessionChangedMsg struct{ state session.State }
	navigateMsg       struct {
		route nav.Route
		flash flash
	}
)

func navigateTo(route nav.Route, text string, kind flashKind) tea.Cmd {
	return func() tea.Msg {
		return navigateMsg{route: route, flash: flash{text: text, kind: kind}}
	}
}

// Model is the root bubbletea model. It owns the current route and forwards
// everything else to the page for that route.
type Model struct {
	env    *env
	route  nav.Route
	booted bool
	width  int
	height int
	flash  flash
	watch  <-chan struct{}
	// states carries session changes, including logouts forced by a 401
	// inside a page command.
	states <-chan session.State

	login    loginPage
	register registerPage
	markers  markersPage
	addPlace addPlacePage
	search   searchPage
	results  resultsPage
}

// New builds the root model. ctx bounds every request the UI issues.
func New(ctx context.Context, deps Deps, styles Styles) Model {
	e := &env{ctx: ctx, deps: deps, styles: styles, log: logging.For(logging.CategoryUI)}
	pageSize := 10
	if deps.Config != nil && deps.Config.UI.PageSize > 0 {
		pageSize = deps.Config.UI.PageSize
	}
	states, cancel := deps.Sessions.Subscribe()
	context.AfterFunc(ctx, cancel)
	return Model{
		env:      e,
		route:    nav.RouteHome,
		states:   states,
		login:    newLoginPage(e),
		register: newRegisterPage(e),
		markers:  newMarkersPage(e, pageSize),
		addPlace: newAddPlacePage(e),
		search:   newSearchPage(e),
		results:  newResultsPage(e),
	}
}

// Init restores the session and starts watching shared storage.
func (m Model) Init() tea.Cmd {
	sessions := m.env.deps.Sessions
	return tea.Batch(
		func() tea.Msg { return sessionReadyMsg{state: sessions.Initialize()} },
		waitForSession(m.states),
		m.startWatch(),
	)
}

func (m Model) startWatch() tea.Cmd {
	path := m.env.deps.WatchPath
	if path == "" {
		return nil
	}
	e := m.env
	return func() tea.Msg {
		ch, err := storage.Watch(e.ctx, path)
		if err != nil {
			e.log.Warn("storage watch unavailable", zap.String("path", path), zap.Error(err))
			return nil
		}
		return watchStartedMsg{ch: ch}
	}
}

func waitForChange(ch <-chan struct{}) tea.Cmd {
	return func() tea.Msg {
		if _, ok := <-ch; !ok {
			return nil
		}
		return storageChangedMsg{}
	}
}

func waitForSession(ch <-chan session.State) tea.Cmd {
	return func() tea.Msg {
		st, ok := <-ch
		if !ok {
			return nil
		}
		return sessionChangedMsg{state: st}
	}
}

// Route returns the page being shown.
func (m Model) Route() nav.Route {
	return m.route
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		h := m.bodyHeight()
		m.markers.SetSize(msg.Width, h)
		m.search.SetSize(msg.Width, h)
		m.results.SetSize(msg.Width, h)
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			return m, tea.Quit
		case "ctrl+o":
			if m.booted && m.env.deps.Sessions.State().IsAuthenticated {
				m.flash = flash{text: "Logged out.", kind: flashInfo}
				return m.enter(m.env.deps.Router.Logout())
			}
			return m, nil
		}
		if !m.booted {
			return m, nil
		}
		m.flash = flash{}

	case sessionReadyMsg:
		m.booted = true
		return m.navigate(nav.RouteHome)

	case sessionChangedMsg:
		next := waitForSession(m.states)
		if !m.booted {
			return m, next
		}
		if current := m.env.deps.Router.Current(); current != m.route {
			moved, cmd := m.enter(current)
			return moved, tea.Batch(cmd, next)
		}
		if d := nav.Gate(msg.state, m.route); d.Logout || d.Route != m.route {
			moved, cmd := m.navigate(m.route)
			return moved, tea.Batch(cmd, next)
		}
		return m, next

	case watchStartedMsg:
		m.watch = msg.ch
		return m, waitForChange(msg.ch)

	case storageChangedMsg:
		before := m.env.deps.Sessions.Token()
		st := m.env.deps.Sessions.Resync()
		if st.Token == before {
			// Our own writes land here too.
			return m, waitForChange(m.watch)
		}
		m.env.log.Info("session changed in another process")
		want := m.route
		if st.IsAuthenticated && (want == nav.RouteLogin || want == nav.RouteRegister) {
			want = nav.RouteHome
		}
		next, cmd := m.navigate(want)
		return next, tea.Batch(cmd, waitForChange(m.watch))

	case navigateMsg:
		next, cmd := m.navigate(msg.route)
		if nm, ok := next.(Model); ok && msg.flash.text != "" {
			nm.flash = msg.flash
			next = nm
		}
		return next, cmd
	}

	cmd := m.updatePage(msg)
	return m, cmd
}

func (m *Model) updatePage(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	switch m.route {
	case nav.RouteLogin:
		m.login, cmd = m.login.Update(msg)
	case nav.RouteRegister:
		m.register, cmd = m.register.Update(msg)
	case nav.RouteMarkers:
		m.markers, cmd = m.markers.Update(msg)
	case nav.RouteAddPlace:
		m.addPlace, cmd = m.addPlace.Update(msg)
	case nav.RouteSearch:
		m.search, cmd = m.search.Update(msg)
	case nav.RouteResults:
		m.results, cmd = m.results.Update(msg)
	}
	return cmd
}

func (m Model) navigate(want nav.Route) (tea.Model, tea.Cmd) {
	if !m.booted {
		return m, nil
	}
	return m.enter(m.env.deps.Router.Navigate(want))
}

// enter switches to route and runs the page's entry command.
func (m Model) enter(route nav.Route) (tea.Model, tea.Cmd) {
	if m.route == nav.RouteResults && route != nav.RouteResults {
		m.results.Leave()
	}
	m.route = route

	var cmd tea.Cmd
	switch route {
	case nav.RouteLogin:
		m.login, cmd = m.login.Enter()
	case nav.RouteRegister:
		m.register, cmd = m.register.Enter()
	case nav.RouteMarkers:
		m.markers, cmd = m.markers.Enter()
	case nav.RouteAddPlace:
		m.addPlace, cmd = m.addPlace.Enter()
	case nav.RouteSearch:
		m.search, cmd = m.search.Enter()
	case nav.RouteResults:
		m.results, cmd = m.results.Enter()
	}
	return m, cmd
}

func (m Model) bodyHeight() int {
	if h := m.height - 4; h > 0 {
		return h
	}
	return 0
}

var routeTitles = map[nav.Route]string{
	nav.RouteLogin:    "Login",
	nav.RouteRegister: "Register",
	nav.RouteMarkers:  "Markers",
	nav.RouteAddPlace: "Add Place",
	nav.RouteSearch:   "Plan a Trip",
	nav.RouteResults:  "Your Trip",
}

// View implements tea.Model.
func (m Model) View() string {
	s := m.env.styles
	if !m.booted {
		return s.Content.Render(s.Muted.Render("Loading..."))
	}

	header := "TravelApp"
	if t, ok := routeTitles[m.route]; ok {
		header += " · " + t
	}
	if st := m.env.deps.Sessions.State(); st.User != nil {
		header += " · " + st.User.Username
	}

	var body string
	switch m.route {
	case nav.RouteLogin:
		body = m.login.View()
	case nav.RouteRegister:
		body = m.register.View()
	case nav.RouteMarkers:
		body = m.markers.View()
	case nav.RouteAddPlace:
		body = m.addPlace.View()
	case nav.RouteSearch:
		body = m.search.View()
	case nav.RouteResults:
		body = m.results.View()
	}

	parts := []string{s.Header.Render(header)}
	if m.flash.text != "" {
		parts = append(parts, m.renderFlash())
	}
	parts = append(parts, s.Content.Render(body), s.Footer.Render(m.help()))
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func (m Model) renderFlash() string {
	s := m.env.styles
	switch m.flash.kind {
	case flashSuccess:
		return s.Success.Render(m.flash.text)
	case flashError:
		return s.Error.Render(m.flash.text)
	default:
		return s.Info.Render(m.flash.text)
	}
}

func (m Model) help() string {
	keys := []string{}
	switch m.route {
	case nav.RouteLogin:
		keys = append(keys, "tab next field", "enter submit", "ctrl+r register")
	case nav.RouteRegister:
		keys = append(keys, "tab next field", "enter submit", "esc back to login")
	case nav.RouteMarkers:
		keys = append(keys, "/ filter", "←/→ page", "s/S sort", "e edit", "d delete", "a add", "r reload")
	case nav.RouteAddPlace:
		keys = append(keys, "tab next field", "←/→ category", "ctrl+s save", "esc back")
	case nav.RouteSearch:
		keys = append(keys, "enter search", "alt+enter newline")
	case nav.RouteResults:
		keys = append(keys, "↑/↓ scroll", "esc new search")
	}
	if m.env.deps.Sessions.State().IsAuthenticated {
		keys = append(keys, "ctrl+o logout")
	}
	keys = append(keys, "ctrl+c quit")
	return strings.Join(keys, " • ")
}
