package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"travelapp/cmd/travel/ui"
	"travelapp/internal/config"
	"travelapp/internal/forms"
	"travelapp/internal/nav"
	"travelapp/internal/search"
	"travelapp/internal/storage"
)

func TestLogin_WhoamiLogout(t *testing.T) {
	b := setup(t)
	b.tokens["secret"] = token(t, "admin", "admin")

	authUsername, authPassword = "admin", "secret"
	cmd, out := newCmd("")
	require.NoError(t, runLogin(cmd, nil))
	assert.Contains(t, out.String(), forms.MsgLoginOK)
	assert.Contains(t, out.String(), "Signed in as admin (admin)")

	raw, err := os.ReadFile(filepath.Join(cfg.StateDir(), "storage.json"))
	require.NoError(t, err)
	assert.Contains(t, string(raw), storage.KeyToken)

	cmd, out = newCmd("")
	require.NoError(t, runWhoami(cmd, nil))
	assert.Contains(t, out.String(), "Username: admin")
	assert.Contains(t, out.String(), "Role:     admin")

	cmd, out = newCmd("")
	require.NoError(t, runLogout(cmd, nil))
	assert.Equal(t, "Logged out.\n", out.String())

	cmd, _ = newCmd("")
	assert.ErrorIs(t, runWhoami(cmd, nil), nav.ErrLoginRequired)
}

func TestLogin_PromptsForMissingValues(t *testing.T) {
	b := setup(t)
	b.tokens["secret"] = token(t, "budi", "user")

	cmd, out := newCmd("budi\nsecret\n")
	require.NoError(t, runLogin(cmd, nil))
	assert.Contains(t, out.String(), "Username: ")
	assert.Contains(t, out.String(), "Password: ")
	assert.Contains(t, out.String(), "Signed in as budi (user)")
}

func TestLogin_ShowsServerMessage(t *testing.T) {
	setup(t)

	authUsername, authPassword = "admin", "wrong"
	cmd, _ := newCmd("")
	err := runLogin(cmd, nil)
	require.Error(t, err)
	assert.Equal(t, "Invalid credentials", err.Error())
}

func TestLogin_MissingFieldsNeverReachServer(t *testing.T) {
	b := setup(t)

	authUsername = "admin"
	cmd, _ := newCmd("\n")
	err := runLogin(cmd, nil)
	require.Error(t, err)
	assert.Equal(t, forms.MsgLoginRequired, err.Error())
	assert.Zero(t, b.requests())
}

func TestRegister(t *testing.T) {
	setup(t)

	authUsername, authEmail, authPassword = "budi", "budi@example.com", "rahasia"
	cmd, out := newCmd("")
	require.NoError(t, runRegister(cmd, nil))
	assert.Equal(t, forms.MsgRegisterOK+"\n", out.String())

	authUsername = "taken"
	cmd, _ = newCmd("")
	err := runRegister(cmd, nil)
	require.Error(t, err)
	assert.Equal(t, "Username sudah digunakan", err.Error())
}

func TestMarkers_RequireAdmin(t *testing.T) {
	setup(t)

	cmd, _ := newCmd("")
	assert.ErrorIs(t, runMarkersList(cmd, nil), nav.ErrLoginRequired)

	seedToken(t, token(t, "budi", "user"))
	cmd, _ = newCmd("")
	assert.ErrorIs(t, runMarkersList(cmd, nil), nav.ErrAdminRequired)
}

func TestMarkersList_Pages(t *testing.T) {
	b := setup(t)
	b.records = markerRecords(12)
	seedToken(t, token(t, "admin", "admin"))

	cmd, out := newCmd("")
	require.NoError(t, runMarkersList(cmd, nil))
	text := out.String()
	assert.Contains(t, text, "Daftar Tempat Tersimpan")
	assert.Contains(t, text, "Tempat 10")
	assert.NotContains(t, text, "Tempat 11")
	assert.Contains(t, text, "Page 1/2, 12 places")

	markersPage = 2
	cmd, out = newCmd("")
	require.NoError(t, runMarkersList(cmd, nil))
	assert.Contains(t, out.String(), "Tempat 12")
	assert.NotContains(t, out.String(), "Tempat 01")

	markersPage, markersFilter, markersSort = 1, "tempat 0", "-name"
	cmd, out = newCmd("")
	require.NoError(t, runMarkersList(cmd, nil))
	text = out.String()
	assert.Contains(t, text, "Page 1/1, 9 places")
	assert.Less(t, strings.Index(text, "Tempat 09"), strings.Index(text, "Tempat 01"))
}

func TestMarkersList_EmptyAndJSON(t *testing.T) {
	b := setup(t)
	seedToken(t, token(t, "admin", "admin"))

	cmd, out := newCmd("")
	require.NoError(t, runMarkersList(cmd, nil))
	assert.Contains(t, out.String(), "Tidak ada data tempat untuk ditampilkan.")

	b.records = markerRecords(2)
	markersJSON = true
	cmd, out = newCmd("")
	require.NoError(t, runMarkersList(cmd, nil))
	var got []map[string]any
	require.NoError(t, json.Unmarshal(out.Bytes(), &got))
	require.Len(t, got, 2)
	assert.Equal(t, "Wisata", got[0]["kategori"])
	assert.EqualValues(t, 1, got[0]["id"])
}

func TestMarkersEdit_SendsFullRecord(t *testing.T) {
	b := setup(t)
	b.records = markerRecords(3)
	seedToken(t, token(t, "admin", "admin"))

	cmd, out := newCmd("")
	require.NoError(t, runMarkersEdit(cmd, []string{"2", "Kawah", "Putih"}))
	assert.Contains(t, out.String(), "Nama tempat berhasil diperbarui.")

	require.Len(t, b.puts, 1)
	put := b.puts[0]
	assert.Equal(t, "Kawah Putih", put["name"])
	assert.Equal(t, "Deskripsi 02", put["description"])
	assert.Equal(t, "Wisata", put["kategori"])
	assert.EqualValues(t, 2, put["id"])

	cmd, out = newCmd("")
	require.NoError(t, runMarkersEdit(cmd, []string{"2", "Kawah Putih"}))
	assert.Contains(t, out.String(), "Nothing to change.")
	assert.Len(t, b.puts, 1)

	cmd, _ = newCmd("")
	assert.EqualError(t, runMarkersEdit(cmd, []string{"99", "x"}), "no place with id 99")
}

func TestMarkersDelete_Confirms(t *testing.T) {
	b := setup(t)
	b.records = markerRecords(2)
	seedToken(t, token(t, "admin", "admin"))

	cmd, out := newCmd("n\n")
	require.NoError(t, runMarkersDelete(cmd, []string{"1"}))
	assert.Contains(t, out.String(), `Hapus marker "Tempat 01"?`)
	assert.Contains(t, out.String(), "Cancelled.")
	assert.Empty(t, b.deleted)

	cmd, out = newCmd("y\n")
	require.NoError(t, runMarkersDelete(cmd, []string{"1"}))
	assert.Contains(t, out.String(), "Marker berhasil dihapus.")
	assert.Equal(t, []string{"1"}, b.deleted)

	deleteYes = true
	cmd, _ = newCmd("")
	require.NoError(t, runMarkersDelete(cmd, []string{"2"}))
	assert.Equal(t, []string{"1", "2"}, b.deleted)
}

func TestMarkersAdd(t *testing.T) {
	b := setup(t)
	b.categories = []map[string]any{{"id": 3, "name": "Kuliner"}, {"id": 4, "name": "Alam"}}
	seedToken(t, token(t, "admin", "admin"))

	placeName, placeDescription, placeLat, placeLng = "Kawah Putih", "Danau kawah", "abc", "107.4"
	cmd, _ := newCmd("")
	err := runMarkersAdd(cmd, nil)
	require.Error(t, err)
	assert.Equal(t, forms.MsgCoordsNotNumbers, err.Error())
	assert.Empty(t, b.created)

	placeLat = "-7.1662"
	cmd, out := newCmd("")
	require.NoError(t, runMarkersAdd(cmd, nil))
	assert.Equal(t, forms.MsgPlaceAdded+"\n", out.String())
	require.Len(t, b.created, 1)
	assert.EqualValues(t, "3", b.created[0]["category_id"])
	assert.InDelta(t, -7.1662, b.created[0]["latitude"], 1e-9)
}

func TestCategories(t *testing.T) {
	b := setup(t)
	b.categories = []map[string]any{{"id": 3, "name": "Kuliner"}}
	seedToken(t, token(t, "budi", "user"))

	cmd, out := newCmd("")
	require.NoError(t, runCategories(cmd, nil))
	assert.Contains(t, out.String(), "Kuliner")
}

func planResponse() map[string]any {
	return map[string]any{
		"destination":      "Lembang",
		"return_trip_plan": "oleh-oleh",
		"main_route": map[string]any{
			"routes": []any{map[string]any{
				"summary":           "Jl. Setiabudi",
				"overview_polyline": map[string]any{"points": samplePolyline},
				"legs": []any{map[string]any{
					"distance":      map[string]any{"text": "16 km", "value": 16000},
					"duration":      map[string]any{"text": "45 mins", "value": 2700},
					"start_address": "Bandung",
					"end_address":   "Lembang",
				}},
			}},
		},
		"suggested_stops": map[string]any{
			"lunch": []any{map[string]any{"place_id": "p1", "name": "Warung Sunda", "vicinity": "Jl. Raya"}},
			"empty": []any{},
		},
		"return_trip_shop": map[string]any{
			"results": []any{map[string]any{"id": 9, "name": "Toko Oleh", "address": "Jl. Dago"}},
		},
	}
}

func TestPlan_PrintsAndCachesTrip(t *testing.T) {
	b := setup(t)
	b.plan = planResponse()
	seedToken(t, token(t, "budi", "user"))

	tripRaw, mapWidth = true, 20
	cmd, out := newCmd("")
	require.NoError(t, runPlan(cmd, []string{"ke", "Lembang"}))

	require.Len(t, b.plans, 1)
	assert.Equal(t, "ke Lembang", b.plans[0]["query"])
	assert.Equal(t, "-6.9,107.6", b.plans[0]["origin"])

	text := out.String()
	assert.Contains(t, text, "Planned from -6.9,107.6")
	assert.Contains(t, text, "# Trip to Lembang")
	assert.Contains(t, text, "- **Distance:** 16 km")
	assert.Contains(t, text, "### lunch")
	assert.NotContains(t, text, "### empty")
	assert.Contains(t, text, `Shop Recommendations for "oleh-oleh"`)
	assert.Contains(t, text, "A")

	// A later run shows the cached trip without asking the planner again.
	cmd, out = newCmd("")
	require.NoError(t, runResults(cmd, nil))
	assert.Contains(t, out.String(), "**Warung Sunda**, Jl. Raya")
	assert.Len(t, b.plans, 1)
}

func TestPlan_OriginFlag(t *testing.T) {
	b := setup(t)
	b.plan = planResponse()
	seedToken(t, token(t, "budi", "user"))

	planOrigin, tripJSON = "-6.5,107.1", true
	cmd, out := newCmd("")
	require.NoError(t, runPlan(cmd, []string{"kopi"}))
	assert.Equal(t, "-6.5,107.1", b.plans[0]["origin"])
	assert.Contains(t, out.String(), `"destination": "Lembang"`)

	planOrigin = "north"
	cmd, _ = newCmd("")
	assert.ErrorContains(t, runPlan(cmd, []string{"kopi"}), "invalid --origin")
}

func TestPlan_PreconditionsMakeNoRequest(t *testing.T) {
	b := setup(t)

	cmd, _ := newCmd("")
	err := runPlan(cmd, []string{"ke Lembang"})
	require.Error(t, err)
	assert.ErrorIs(t, err, search.ErrNotLoggedIn)
	assert.Contains(t, err.Error(), search.MsgLoginRequired)

	seedToken(t, token(t, "budi", "user"))
	cmd, _ = newCmd("")
	err = runPlan(cmd, []string{"   "})
	assert.ErrorIs(t, err, search.ErrPromptRequired)
	assert.Zero(t, b.requests())
}

func TestResults_Empty(t *testing.T) {
	setup(t)

	cmd, out := newCmd("")
	require.NoError(t, runResults(cmd, nil))
	assert.Equal(t, ui.MsgNoTripData+"\n", out.String())
}

func TestConfigInit(t *testing.T) {
	setup(t)
	configPath = filepath.Join(t.TempDir(), "travel", "config.yaml")
	t.Cleanup(func() { configPath, configForce = "", false })
	cfg.UI.PageSize = 25

	cmd, out := newCmd("")
	require.NoError(t, runConfigInit(cmd, nil))
	assert.Contains(t, out.String(), "Wrote "+configPath)

	loaded, err := config.Load(configPath)
	require.NoError(t, err)
	assert.Equal(t, cfg.API.BaseURL, loaded.API.BaseURL)
	assert.Equal(t, 25, loaded.UI.PageSize)

	cmd, _ = newCmd("")
	assert.ErrorContains(t, runConfigInit(cmd, nil), "already exists")

	configForce = true
	cfg.API.BaseURL = ""
	cmd, out = newCmd("")
	require.NoError(t, runConfigInit(cmd, nil))
	assert.Contains(t, out.String(), "Set api.base_url")
}
