package ui

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/ansi"
	"github.com/golang-jwt/jwt/v5"
	"github.com/paulmach/orb"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

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

const samplePolyline = "_p~iF~ps|U_ulLnnqC_mqNvxq`@"

func token(t *testing.T, username, role string) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":      "7",
		"username": username,
		"role":     role,
		"exp":      time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return tok
}

// fakeAPI serves the endpoints the pages call.
type fakeAPI struct {
	mu           sync.Mutex
	tokens       map[string]string
	records      []map[string]any
	categories   []map[string]any
	created      []map[string]any
	puts         []map[string]any
	deleted      []string
	plan         map[string]any
	markerStatus int

	// planArrived and planRelease, when set, park /plan-trip until the
	// test lets it go.
	planArrived chan struct{}
	planRelease chan struct{}
}

func (f *fakeAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path == "/plan-trip" && f.planRelease != nil {
		f.planArrived <- struct{}{}
		<-f.planRelease
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	var body map[string]any
	if r.ContentLength != 0 {
		_ = json.NewDecoder(r.Body).Decode(&body)
	}
	reply := func(status int, v any) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		if v != nil {
			_ = json.NewEncoder(w).Encode(v)
		}
	}

	switch {
	case r.URL.Path == "/auth/login":
		tok, ok := f.tokens[fmt.Sprint(body["password"])]
		if !ok {
			reply(http.StatusUnauthorized, map[string]string{"message": "Invalid credentials"})
			return
		}
		reply(http.StatusOK, map[string]string{"token": tok})
	case r.URL.Path == "/auth/register":
		reply(http.StatusCreated, nil)
	case r.URL.Path == "/marker/categories":
		reply(http.StatusOK, f.categories)
	case strings.HasPrefix(r.URL.Path, "/markers") && f.markerStatus != 0:
		reply(f.markerStatus, map[string]string{"message": "nope"})
	case r.URL.Path == "/markers" && r.Method == http.MethodGet:
		reply(http.StatusOK, f.records)
	case r.URL.Path == "/markers" && r.Method == http.MethodPost:
		f.created = append(f.created, body)
		body["id"] = 100 + len(f.created)
		f.records = append(f.records, body)
		reply(http.StatusCreated, body)
	case r.Method == http.MethodPut:
		f.puts = append(f.puts, body)
		for i, rec := range f.records {
			if fmt.Sprint(rec["id"]) == fmt.Sprint(body["id"]) {
				f.records[i] = body
			}
		}
		reply(http.StatusOK, body)
	case r.Method == http.MethodDelete:
		id := strings.TrimPrefix(r.URL.Path, "/markers/")
		f.deleted = append(f.deleted, id)
		kept := f.records[:0]
		for _, rec := range f.records {
			if fmt.Sprint(rec["id"]) != id {
				kept = append(kept, rec)
			}
		}
		f.records = kept
		reply(http.StatusNoContent, nil)
	case r.URL.Path == "/plan-trip":
		reply(http.StatusOK, f.plan)
	default:
		reply(http.StatusNotFound, nil)
	}
}

func records(n int) []map[string]any {
	recs := make([]map[string]any, n)
	for i := range recs {
		recs[i] = map[string]any{
			"id":          i + 1,
			"name":        fmt.Sprintf("Tempat %02d", i+1),
			"description": fmt.Sprintf("Deskripsi %02d", i+1),
			"kategori":    "Wisata",
		}
	}
	return recs
}

// wire builds the services the way the binary does, on st.
func wire(t *testing.T, f *fakeAPI, st storage.Storage) Deps {
	t.Helper()
	logging.Install(zap.NewNop())
	srv := httptest.NewServer(f)
	t.Cleanup(srv.Close)

	c := config.DefaultConfig()
	c.API.BaseURL = srv.URL

	sessions := session.NewStore(st)
	client := api.New(api.Options{BaseURL: srv.URL, Token: sessions.Token})
	trips := trip.NewStore()
	persister := trip.NewPersister(trips, st)
	persister.Mirror()
	router := nav.NewRouter(sessions, persister)
	client.SetOnUnauthorized(router.Unauthorized)
	fallback := orb.Point{107.6, -6.9}

	return Deps{
		Config:    c,
		Sessions:  sessions,
		Client:    client,
		Trips:     trips,
		Persister: persister,
		Router:    router,
		Listing:   markers.NewListing(client, sessions.Token, 10),
		Places:    forms.NewAddPlace(client),
		Search: search.NewFlow(client, sessions, trips, search.Options{
			Locator:  geo.StaticLocator{Point: fallback},
			Fallback: &fallback,
		}),
	}
}

func memoryWithToken(t *testing.T, tok string) storage.Storage {
	st := storage.NewMemory()
	if tok != "" {
		require.NoError(t, st.Set(storage.KeyToken, tok))
	}
	return st
}

// driver runs a Model the way tea.Program does, but on the test goroutine.
// Commands run in the background and their messages are applied in
// waitFor. Cursor blinks and spinner ticks are dropped.
type driver struct {
	t    *testing.T
	m    Model
	msgs chan tea.Msg
}

func start(t *testing.T, deps Deps) *driver {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	d := &driver{t: t, m: New(ctx, deps, NewStyles(LightTheme())), msgs: make(chan tea.Msg, 256)}
	d.exec(d.m.Init())
	d.send(tea.WindowSizeMsg{Width: 110, Height: 70})
	return d
}

func (d *driver) exec(cmd tea.Cmd) {
	if cmd == nil {
		return
	}
	go func() {
		msg := cmd()
		if batch, ok := msg.(tea.BatchMsg); ok {
			for _, c := range batch {
				d.exec(c)
			}
			return
		}
		if msg != nil {
			d.msgs <- msg
		}
	}()
}

func (d *driver) send(msg tea.Msg) {
	next, cmd := d.m.Update(msg)
	d.m = next.(Model)
	d.exec(cmd)
}

func (d *driver) key(k tea.KeyType) {
	d.send(tea.KeyMsg{Type: k})
}

func (d *driver) typeText(s string) {
	d.send(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)})
}

func (d *driver) view() string {
	return ansi.Strip(d.m.View())
}

// waitFor applies messages until cond holds.
func (d *driver) waitFor(what string, cond func(*driver) bool) {
	d.t.Helper()
	deadline := time.After(5 * time.Second)
	for !cond(d) {
		select {
		case msg := <-d.msgs:
			switch msg.(type) {
			case cursor.BlinkMsg, spinner.TickMsg:
				continue
			}
			d.send(msg)
		case <-deadline:
			d.t.Fatalf("timed out waiting for %s; route %s, view:\n%s", what, d.m.Route(), d.view())
		}
	}
}

func (d *driver) waitForRoute(r nav.Route) {
	d.t.Helper()
	d.waitFor("route "+string(r), func(d *driver) bool { return d.m.Route() == r })
}

func (d *driver) waitForText(s string) {
	d.t.Helper()
	d.waitFor(fmt.Sprintf("%q", s), func(d *driver) bool { return strings.Contains(d.view(), s) })
}
