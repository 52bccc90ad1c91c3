// Package markers is the admin listing of places: fetch, filter, sort,
// paginate, rename and delete. Every mutation is followed by a full re-fetch;
// the local rows are only a cache of the server.
package markers

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"travelapp/internal/api"
	"travelapp/internal/logging"
)

// ErrNoToken means there is no credential to fetch with.
var ErrNoToken = errors.New("markers: no credential")

// ErrNotFound is returned for an id that is not in the current rows.
var ErrNotFound = errors.New("markers: no such marker")

const (
	MsgLoading      = "Memuat data tempat..."
	MsgTitle        = "Daftar Tempat Tersimpan"
	MsgNoRows       = "Tidak ada data tempat untuk ditampilkan."
	MsgRetry        = "Coba Lagi"
	MsgConfig       = "API Base URL tidak dikonfigurasi. Harap set TRAVEL_API_BASE_URL."
	MsgNoToken      = "Token tidak ditemukan. Pastikan Anda sudah login."
	MsgEditPrompt   = "Edit Nama Tempat:"
	MsgDeletePrompt = "Hapus marker %q?"
)

// Columns are the fixed table headers.
var Columns = []string{"No", "Nama Tempat", "Deskripsi", "Action"}

// ActionCell is the text of the action column.
const ActionCell = "[e]dit [d]elete"

// API is the part of the API client the listing uses.
type API interface {
	BaseURL() string
	ListMarkers(ctx context.Context) ([]api.Marker, error)
	UpdateMarker(ctx context.Context, m api.Marker) (*api.Marker, error)
	DeleteMarker(ctx context.Context, id api.ID) error
}

// Status is the listing's lifecycle state.
type Status int

const (
	StatusLoading Status = iota
	StatusReady
	StatusError
	// StatusUnauthorized means the credential was rejected; the caller logs
	// out and redirects rather than showing an error in the table.
	StatusUnauthorized
)

// SortKey selects the sort column.
type SortKey int

const (
	SortNone SortKey = iota
	SortName
	SortDescription
)

// Row is one displayed marker with its 1-based position.
type Row struct {
	No     int
	Marker api.Marker
}

// Cells renders the row in column order.
func (r Row) Cells() []string {
	return []string{strconv.Itoa(r.No), r.Marker.Name, r.Marker.Description, ActionCell}
}

// Listing holds the fetched markers and how they are viewed.
type Listing struct {
	client API
	token  func() string
	log    *zap.Logger
	group  singleflight.Group

	mu       sync.Mutex
	status   Status
	rows     []api.Marker
	err      error
	filter   string
	sortKey  SortKey
	desc     bool
	page     int
	pageSize int
	// mutations counts successful renames and deletes. A fetch started
	// before the latest mutation is stale and neither shares with nor
	// overwrites a fetch started after it.
	mutations uint64
}

// NewListing creates a listing in the loading state. token reports the
// current credential; pageSize <= 0 means 10.
func NewListing(client API, token func() string, pageSize int) *Listing {
	if pageSize <= 0 {
		pageSize = 10
	}
	return &Listing{
		client:   client,
		token:    token,
		log:      logging.For(logging.CategoryMarkers),
		pageSize: pageSize,
	}
}

// Fetch loads every marker. Concurrent calls share one request unless a
// mutation happened in between. Missing
// configuration or credential end in the error state without a request; a
// rejected credential ends in StatusUnauthorized.
func (l *Listing) Fetch(ctx context.Context) error {
	l.mu.Lock()
	l.status = StatusLoading
	l.err = nil
	gen := l.mutations
	l.mu.Unlock()

	key := "markers/" + strconv.FormatUint(gen, 10)
	_, err, shared := l.group.Do(key, func() (any, error) {
		rows, err := l.fetch(ctx)
		l.finish(gen, rows, err)
		return nil, err
	})
	if shared {
		l.log.Debug("joined in-flight marker fetch")
	}
	return err
}

func (l *Listing) fetch(ctx context.Context) ([]api.Marker, error) {
	if l.client.BaseURL() == "" {
		return nil, api.ErrMissingBaseURL
	}
	if l.token == nil || l.token() == "" {
		return nil, ErrNoToken
	}
	rows, err := l.client.ListMarkers(ctx)
	if err != nil {
		return nil, fmt.Errorf("list markers: %w", err)
	}
	return rows, nil
}

func (l *Listing) finish(gen uint64, rows []api.Marker, err error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if gen < l.mutations {
		l.log.Debug("dropped marker fetch older than the last change")
		return
	}

	switch {
	case err == nil:
		l.status = StatusReady
		l.rows = rows
		l.err = nil
		l.clampPage()
		l.log.Debug("markers loaded", zap.Int("count", len(rows)))
	case errors.Is(err, api.ErrUnauthorized):
		l.status = StatusUnauthorized
		l.rows = nil
		l.err = nil
	default:
		l.status = StatusError
		l.err = err
		l.log.Warn("could not load markers", zap.Error(err))
	}
}

// Status returns the lifecycle state.
func (l *Listing) Status() Status {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.status
}

// Err returns the fetch error behind StatusError.
func (l *Listing) Err() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.err
}

// ErrorMessage is the text shown in place of the table.
func (l *Listing) ErrorMessage() string {
	return fetchMessage(l.Err())
}

func fetchMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, api.ErrMissingBaseURL):
		return MsgConfig
	case errors.Is(err, ErrNoToken):
		return MsgNoToken
	}
	var apiErr *api.Error
	if errors.As(err, &apiErr) {
		msg, ok := api.ServerMessage(err)
		if !ok {
			msg = "Gagal mengambil data: " + apiErr.Message
		}
		return "Gagal memuat data tempat: " + msg
	}
	return "Gagal memuat data tempat: " + err.Error()
}

// Lookup finds a marker by id in the current rows.
func (l *Listing) Lookup(id api.ID) (api.Marker, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, m := range l.rows {
		if m.ID == id {
			return m, true
		}
	}
	return api.Marker{}, false
}

// Rename sends the full record with a new name, then re-fetches. An empty or
// unchanged name does nothing and reports false.
func (l *Listing) Rename(ctx context.Context, id api.ID, newName string) (bool, error) {
	m, ok := l.Lookup(id)
	if !ok {
		return false, ErrNotFound
	}
	newName = strings.TrimSpace(newName)
	if newName == "" || newName == m.Name {
		return false, nil
	}

	m.Name = newName
	if _, err := l.client.UpdateMarker(ctx, m); err != nil {
		l.log.Warn("could not rename marker", zap.String("id", id.String()), zap.Error(err))
		return false, fmt.Errorf("rename marker %s: %w", id, err)
	}
	l.mutated()
	return true, l.Fetch(ctx)
}

// Delete removes a marker, then re-fetches. Confirmation is the caller's job.
func (l *Listing) Delete(ctx context.Context, id api.ID) error {
	if err := l.client.DeleteMarker(ctx, id); err != nil {
		l.log.Warn("could not delete marker", zap.String("id", id.String()), zap.Error(err))
		return fmt.Errorf("delete marker %s: %w", id, err)
	}
	l.mutated()
	return l.Fetch(ctx)
}

func (l *Listing) mutated() {
	l.mu.Lock()
	l.mutations++
	l.mu.Unlock()
}

// MutationMessage is the alert text for a failed rename or delete.
func MutationMessage(op string, err error) string {
	var apiErr *api.Error
	if errors.As(err, &apiErr) {
		return fmt.Sprintf("Gagal %s marker: %s", op, apiErr.Message)
	}
	if inner := errors.Unwrap(err); inner != nil {
		err = inner
	}
	return fmt.Sprintf("Gagal %s marker: %v", op, err)
}

// SetFilter keeps only rows whose name, description or category contains
// text, case-insensitively, and returns to the first page.
func (l *Listing) SetFilter(text string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.filter = strings.ToLower(strings.TrimSpace(text))
	l.page = 0
}

// Filter returns the active filter text.
func (l *Listing) Filter() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.filter
}

// ToggleSort cycles key through ascending, descending and unsorted.
func (l *Listing) ToggleSort(key SortKey) {
	l.mu.Lock()
	defer l.mu.Unlock()
	switch {
	case l.sortKey != key:
		l.sortKey, l.desc = key, false
	case !l.desc:
		l.desc = true
	default:
		l.sortKey, l.desc = SortNone, false
	}
}

// Sort reports the active sort.
func (l *Listing) Sort() (SortKey, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.sortKey, l.desc
}

func (l *Listing) visible() []api.Marker {
	out := make([]api.Marker, 0, len(l.rows))
	for _, m := range l.rows {
		if l.filter == "" || matches(m, l.filter) {
			out = append(out, m)
		}
	}
	if l.sortKey != SortNone {
		key := func(m api.Marker) string {
			if l.sortKey == SortDescription {
				return strings.ToLower(m.Description)
			}
			return strings.ToLower(m.Name)
		}
		sort.SliceStable(out, func(i, j int) bool {
			if l.desc {
				return key(out[i]) > key(out[j])
			}
			return key(out[i]) < key(out[j])
		})
	}
	return out
}

func matches(m api.Marker, needle string) bool {
	for _, field := range []string{m.Name, m.Description, m.Kategori} {
		if strings.Contains(strings.ToLower(field), needle) {
			return true
		}
	}
	return false
}

// Total is the number of rows after filtering.
func (l *Listing) Total() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.visible())
}

// All returns every row after filtering and sorting.
func (l *Listing) All() []Row {
	l.mu.Lock()
	defer l.mu.Unlock()
	return numbered(l.visible(), 0)
}

// Page returns the rows on the current page.
func (l *Listing) Page() []Row {
	l.mu.Lock()
	defer l.mu.Unlock()
	vis := l.visible()
	start := l.page * l.pageSize
	if start >= len(vis) {
		return nil
	}
	end := min(start+l.pageSize, len(vis))
	return numbered(vis[start:end], start)
}

func numbered(ms []api.Marker, offset int) []Row {
	rows := make([]Row, len(ms))
	for i, m := range ms {
		rows[i] = Row{No: offset + i + 1, Marker: m}
	}
	return rows
}

// PageIndex returns the zero-based current page and the page count (at
// least 1).
func (l *Listing) PageIndex() (page, pages int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.page, l.pages()
}

func (l *Listing) pages() int {
	n := len(l.visible())
	if n == 0 {
		return 1
	}
	return (n + l.pageSize - 1) / l.pageSize
}

// SetPage moves to page p, clamped to the valid range.
func (l *Listing) SetPage(p int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.page = p
	l.clampPage()
}

// PageSize returns rows per page.
func (l *Listing) PageSize() int {
	return l.pageSize
}

func (l *Listing) clampPage() {
	if last := l.pages() - 1; l.page > last {
		l.page = last
	}
	if l.page < 0 {
		l.page = 0
	}
}
