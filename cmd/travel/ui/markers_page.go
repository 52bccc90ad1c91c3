package ui

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/paginator"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"travelapp/internal/api"
	"travelapp/internal/markers"
	"travelapp/internal/nav"
)

type (
	markersLoadedMsg struct{ err error }
	markerMutatedMsg struct {
		op      string
		changed bool
		err     error
	}
)

type markersMode int

const (
	modeBrowse markersMode = iota
	modeFilter
	modeEdit
	modeConfirmDelete
)

// markersPage is the admin listing: a table over the current page with a
// filter bar, inline rename and confirmed delete.
type markersPage struct {
	env    *env
	table  table.Model
	pager  paginator.Model
	filter textinput.Model
	edit   textinput.Model
	mode   markersMode
	target api.Marker

	notice    string
	noticeErr bool
	width     int
	height    int
}

func newMarkersPage(e *env, pageSize int) markersPage {
	t := table.New(
		table.WithColumns(columnsFor(80)),
		table.WithFocused(true),
		table.WithHeight(pageSize+3),
	)
	ts := table.DefaultStyles()
	ts.Header = ts.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(e.styles.Theme.Border).
		BorderBottom(true).
		Bold(true)
	ts.Selected = ts.Selected.
		Foreground(lipgloss.Color("#ffffff")).
		Background(e.styles.Theme.Primary)
	t.SetStyles(ts)

	pg := paginator.New()
	pg.Type = paginator.Arabic

	f := textinput.New()
	f.Placeholder = "Cari nama, deskripsi atau kategori..."
	f.Prompt = "/ "
	f.Width = 40

	ed := textinput.New()
	ed.Prompt = ""
	ed.CharLimit = 256
	ed.Width = 40

	return markersPage{env: e, table: t, pager: pg, filter: f, edit: ed}
}

// columnsFor splits width over the fixed columns.
func columnsFor(width int) []table.Column {
	rest := width - 6 - len(markers.ActionCell) - 10
	if rest < 30 {
		rest = 30
	}
	name := rest * 2 / 5
	return []table.Column{
		{Title: markers.Columns[0], Width: 4},
		{Title: markers.Columns[1], Width: name},
		{Title: markers.Columns[2], Width: rest - name},
		{Title: markers.Columns[3], Width: len(markers.ActionCell)},
	}
}

func (p *markersPage) SetSize(w, h int) {
	p.width, p.height = w, h
	p.table.SetColumns(columnsFor(w - 4))
}

// Enter shows the loading state and fetches.
func (p markersPage) Enter() (markersPage, tea.Cmd) {
	p.mode = modeBrowse
	p.filter.Blur()
	p.table.Focus()
	return p, p.fetch()
}

func (p markersPage) fetch() tea.Cmd {
	e := p.env
	return func() tea.Msg {
		return markersLoadedMsg{err: e.deps.Listing.Fetch(e.ctx)}
	}
}

func (p markersPage) selected() (api.Marker, bool) {
	rows := p.env.deps.Listing.Page()
	i := p.table.Cursor()
	if i < 0 || i >= len(rows) {
		return api.Marker{}, false
	}
	return rows[i].Marker, true
}

// refresh copies the listing's current page into the table.
func (p *markersPage) refresh() {
	l := p.env.deps.Listing
	page := l.Page()
	rows := make([]table.Row, len(page))
	for i, r := range page {
		rows[i] = r.Cells()
	}
	p.table.SetRows(rows)
	if c := p.table.Cursor(); c >= len(rows) {
		p.table.SetCursor(max(len(rows)-1, 0))
	}
	idx, pages := l.PageIndex()
	p.pager.TotalPages = max(pages, 1)
	p.pager.Page = idx
}

func (p markersPage) Update(msg tea.Msg) (markersPage, tea.Cmd) {
	switch msg := msg.(type) {
	case markersLoadedMsg:
		p.refresh()
		return p, nil

	case markerMutatedMsg:
		p.mode = modeBrowse
		p.table.Focus()
		switch {
		case errors.Is(msg.err, api.ErrUnauthorized):
			// The router has already logged out.
		case msg.err != nil:
			p.notice, p.noticeErr = markers.MutationMessage(msg.op, msg.err), true
		case msg.op == opDelete:
			p.notice, p.noticeErr = "Marker berhasil dihapus.", false
		case msg.changed:
			p.notice, p.noticeErr = "Nama tempat berhasil diperbarui.", false
		}
		p.refresh()
		return p, nil

	case tea.KeyMsg:
		switch p.mode {
		case modeFilter:
			return p.updateFilter(msg)
		case modeEdit:
			return p.updateEdit(msg)
		case modeConfirmDelete:
			return p.updateConfirm(msg)
		}
		return p.updateBrowse(msg)
	}
	return p, nil
}

const (
	opEdit   = "mengedit"
	opDelete = "menghapus"
)

func (p markersPage) updateBrowse(msg tea.KeyMsg) (markersPage, tea.Cmd) {
	l := p.env.deps.Listing
	if l.Status() == markers.StatusError {
		if msg.String() == "r" {
			return p, p.fetch()
		}
		return p, nil
	}

	switch msg.String() {
	case "r":
		return p, p.fetch()
	case "/":
		p.mode = modeFilter
		p.table.Blur()
		return p, p.filter.Focus()
	case "left", "h", "pgup":
		idx, _ := l.PageIndex()
		l.SetPage(idx - 1)
		p.refresh()
		return p, nil
	case "right", "l", "pgdown":
		idx, _ := l.PageIndex()
		l.SetPage(idx + 1)
		p.refresh()
		return p, nil
	case "s":
		l.ToggleSort(markers.SortName)
		p.refresh()
		return p, nil
	case "S":
		l.ToggleSort(markers.SortDescription)
		p.refresh()
		return p, nil
	case "a":
		return p, navigateTo(nav.RouteAddPlace, "", flashInfo)
	case "e":
		m, ok := p.selected()
		if !ok {
			return p, nil
		}
		p.mode, p.target, p.notice = modeEdit, m, ""
		p.table.Blur()
		p.edit.SetValue(m.Name)
		p.edit.CursorEnd()
		return p, p.edit.Focus()
	case "d":
		m, ok := p.selected()
		if !ok {
			return p, nil
		}
		p.mode, p.target, p.notice = modeConfirmDelete, m, ""
		p.table.Blur()
		return p, nil
	}

	var cmd tea.Cmd
	p.table, cmd = p.table.Update(msg)
	return p, cmd
}

func (p markersPage) updateFilter(msg tea.KeyMsg) (markersPage, tea.Cmd) {
	switch msg.String() {
	case "enter", "esc":
		p.mode = modeBrowse
		p.filter.Blur()
		p.table.Focus()
		return p, nil
	}
	var cmd tea.Cmd
	p.filter, cmd = p.filter.Update(msg)
	p.env.deps.Listing.SetFilter(p.filter.Value())
	p.refresh()
	return p, cmd
}

func (p markersPage) updateEdit(msg tea.KeyMsg) (markersPage, tea.Cmd) {
	switch msg.String() {
	case "esc":
		p.mode = modeBrowse
		p.edit.Blur()
		p.table.Focus()
		return p, nil
	case "enter":
		p.edit.Blur()
		e, id, name := p.env, p.target.ID, p.edit.Value()
		return p, func() tea.Msg {
			changed, err := e.deps.Listing.Rename(e.ctx, id, name)
			return markerMutatedMsg{op: opEdit, changed: changed, err: err}
		}
	}
	var cmd tea.Cmd
	p.edit, cmd = p.edit.Update(msg)
	return p, cmd
}

func (p markersPage) updateConfirm(msg tea.KeyMsg) (markersPage, tea.Cmd) {
	switch msg.String() {
	case "y", "Y":
		e, id := p.env, p.target.ID
		return p, func() tea.Msg {
			err := e.deps.Listing.Delete(e.ctx, id)
			return markerMutatedMsg{op: opDelete, changed: err == nil, err: err}
		}
	case "n", "N", "esc":
		p.mode = modeBrowse
		p.table.Focus()
	}
	return p, nil
}

func (p markersPage) View() string {
	s := p.env.styles
	l := p.env.deps.Listing
	var sb strings.Builder
	sb.WriteString(s.Title.Render(markers.MsgTitle))
	sb.WriteString("\n")

	switch l.Status() {
	case markers.StatusLoading, markers.StatusUnauthorized:
		sb.WriteString(s.Muted.Render(markers.MsgLoading))
		return sb.String()
	case markers.StatusError:
		sb.WriteString(s.Error.Render(l.ErrorMessage()))
		sb.WriteString("\n\n")
		sb.WriteString(s.Badge.Render("r") + " " + markers.MsgRetry)
		return sb.String()
	}

	filterBox := s.Input
	if p.mode == modeFilter {
		filterBox = s.FocusedInput
	}
	sb.WriteString(filterBox.Render(p.filter.View()))
	if key, desc := l.Sort(); key != markers.SortNone {
		dir := "asc"
		if desc {
			dir = "desc"
		}
		col := markers.Columns[1]
		if key == markers.SortDescription {
			col = markers.Columns[2]
		}
		sb.WriteString("  " + s.Muted.Render(fmt.Sprintf("sort: %s %s", col, dir)))
	}
	sb.WriteString("\n")

	if l.Total() == 0 {
		sb.WriteString(s.Muted.Render(markers.MsgNoRows))
	} else {
		sb.WriteString(p.table.View())
		sb.WriteString("\n")
		sb.WriteString(s.Muted.Render(fmt.Sprintf("%s  (%d tempat)", p.pager.View(), l.Total())))
	}
	sb.WriteString("\n")

	switch p.mode {
	case modeEdit:
		sb.WriteString("\n" + s.FocusedLabel.Render(markers.MsgEditPrompt) + "\n")
		sb.WriteString(s.FocusedInput.Render(p.edit.View()))
		sb.WriteString("\n" + s.Muted.Render("enter simpan • esc batal"))
	case modeConfirmDelete:
		sb.WriteString("\n" + s.Warning.Render(fmt.Sprintf(markers.MsgDeletePrompt, p.target.Name)+" (y/n)"))
	default:
		if p.notice != "" {
			sb.WriteString("\n" + renderMessage(s, p.notice, p.noticeErr))
		}
	}
	return sb.String()
}
