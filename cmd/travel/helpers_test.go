package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"travelapp/internal/config"
	"travelapp/internal/logging"
	"travelapp/internal/storage"
)

const samplePolyline = "_p~iF~ps|U_ulLnnqC_mqNvxq`@"

func token(t *testing.T, username, role string) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":      "7",
		"username": username,
		"email":    username + "@example.com",
		"role":     role,
		"exp":      time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return tok
}

// backend is a fake of the travel API.
type backend struct {
	t *testing.T

	mu         sync.Mutex
	tokens     map[string]string // password -> token
	records    []map[string]any
	categories []map[string]any
	created    []map[string]any
	puts       []map[string]any
	deleted    []string
	plans      []map[string]any
	plan       map[string]any
	hits       int
}

func (b *backend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.hits++

	var body map[string]any
	if r.Body != nil && r.ContentLength != 0 {
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
		tok, ok := b.tokens[fmt.Sprint(body["password"])]
		if !ok {
			reply(http.StatusUnauthorized, map[string]string{"message": "Invalid credentials"})
			return
		}
		reply(http.StatusOK, map[string]string{"token": tok})
	case r.URL.Path == "/auth/register":
		if body["username"] == "taken" {
			reply(http.StatusConflict, map[string]string{"message": "Username sudah digunakan"})
			return
		}
		reply(http.StatusCreated, map[string]string{"message": "ok"})
	case r.URL.Path == "/marker/categories":
		reply(http.StatusOK, b.categories)
	case r.URL.Path == "/markers" && r.Method == http.MethodGet:
		reply(http.StatusOK, b.records)
	case r.URL.Path == "/markers" && r.Method == http.MethodPost:
		b.created = append(b.created, body)
		body["id"] = len(b.records) + 100
		b.records = append(b.records, body)
		reply(http.StatusCreated, body)
	case strings.HasPrefix(r.URL.Path, "/markers/") && r.Method == http.MethodPut:
		b.puts = append(b.puts, body)
		for i, rec := range b.records {
			if fmt.Sprint(rec["id"]) == fmt.Sprint(body["id"]) {
				b.records[i] = body
			}
		}
		reply(http.StatusOK, body)
	case strings.HasPrefix(r.URL.Path, "/markers/") && r.Method == http.MethodDelete:
		id := strings.TrimPrefix(r.URL.Path, "/markers/")
		b.deleted = append(b.deleted, id)
		kept := b.records[:0]
		for _, rec := range b.records {
			if fmt.Sprint(rec["id"]) != id {
				kept = append(kept, rec)
			}
		}
		b.records = kept
		reply(http.StatusNoContent, nil)
	case r.URL.Path == "/plan-trip":
		b.plans = append(b.plans, body)
		reply(http.StatusOK, b.plan)
	default:
		reply(http.StatusNotFound, map[string]string{"message": "not found"})
	}
}

func (b *backend) requests() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.hits
}

// setup points the global configuration at a fake backend with a fresh
// state directory.
func setup(t *testing.T) *backend {
	t.Helper()
	logger = zap.NewNop()
	logging.Install(logger)

	b := &backend{t: t, tokens: map[string]string{}}
	srv := httptest.NewServer(b)
	t.Cleanup(srv.Close)

	c := config.DefaultConfig()
	c.API.BaseURL = srv.URL
	c.Storage.Dir = t.TempDir()
	c.Geo.Origin = "-6.9,107.6"
	cfg = c

	t.Cleanup(func() {
		cfg = nil
		authUsername, authPassword, authEmail = "", "", ""
		markersPage, markersAll, markersFilter, markersSort, markersJSON = 1, false, "", "", false
		placeName, placeDescription, placeLat, placeLng, placeCategory = "", "", "", "", ""
		deleteYes = false
		planOrigin, tripJSON, tripRaw, mapWidth = "", false, false, 60
	})
	return b
}

// seedToken stores a credential as if a previous run had logged in.
func seedToken(t *testing.T, tok string) {
	t.Helper()
	st, err := storage.Open(cfg.Storage.Backend, cfg.StateDir())
	require.NoError(t, err)
	require.NoError(t, st.Set(storage.KeyToken, tok))
	require.NoError(t, st.Close())
}

func newCmd(input string) (*cobra.Command, *bytes.Buffer) {
	out := &bytes.Buffer{}
	cmd := &cobra.Command{}
	cmd.SetOut(out)
	cmd.SetErr(out)
	cmd.SetIn(strings.NewReader(input))
	return cmd, out
}

func markerRecords(n int) []map[string]any {
	recs := make([]map[string]any, n)
	for i := range recs {
		recs[i] = map[string]any{
			"id":          i + 1,
			"name":        fmt.Sprintf("Tempat %02d", i+1),
			"description": fmt.Sprintf("Deskripsi %02d", i+1),
			"kategori":    "Wisata",
			"latitude":    -6.9 + float64(i)/100,
			"longitude":   107.6,
		}
	}
	return recs
}
