package ui

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"travelapp/internal/forms"
	"travelapp/internal/nav"
)

type (
	categoriesLoadedMsg struct {
		first string
		err   error
	}
	placeAddedMsg struct{ outcome forms.Outcome }
)

const placeFields = 4

// addPlacePage is the new-place form. The category picker sits after the
// four text inputs and is cycled with left/right.
type addPlacePage struct {
	env        *env
	fields     fieldSet
	category   int
	loading    bool
	submitting bool
	message    string
	failed     bool
}

func newAddPlacePage(e *env) addPlacePage {
	f := newFieldSet("Nama Tempat", "Deskripsi", "Latitude", "Longitude")
	f.inputs[2].Placeholder = "-6.914744"
	f.inputs[3].Placeholder = "107.609810"
	return addPlacePage{env: e, fields: f}
}

// Enter clears the form and reloads categories.
func (p addPlacePage) Enter() (addPlacePage, tea.Cmd) {
	p.loading, p.submitting, p.message, p.failed = true, false, "", false
	p.category = 0
	e := p.env
	return p, tea.Batch(p.fields.reset(), func() tea.Msg {
		first, err := e.deps.Places.LoadCategories(e.ctx)
		return categoriesLoadedMsg{first: first, err: err}
	})
}

func (p addPlacePage) onCategory() bool {
	return p.fields.focus == placeFields
}

func (p addPlacePage) categoryID() string {
	cats := p.env.deps.Places.Categories
	if p.category < 0 || p.category >= len(cats) {
		return ""
	}
	return cats[p.category].ID.String()
}

func (p addPlacePage) Update(msg tea.Msg) (addPlacePage, tea.Cmd) {
	switch msg := msg.(type) {
	case categoriesLoadedMsg:
		p.loading = false
		// The first category is preselected.
		p.category = 0
		return p, nil

	case placeAddedMsg:
		p.submitting = false
		if msg.outcome.OK() {
			return p, navigateTo(msg.outcome.Redirect, msg.outcome.Message, flashSuccess)
		}
		p.message, p.failed = msg.outcome.Message, true
		return p, nil

	case tea.KeyMsg:
		if p.submitting {
			return p, nil
		}
		switch msg.String() {
		case "esc":
			return p, navigateTo(nav.RouteMarkers, "", flashInfo)
		case "tab", "down":
			return p, p.fields.move(1, placeFields+1)
		case "shift+tab", "up":
			return p, p.fields.move(-1, placeFields+1)
		case "ctrl+s":
			return p.submit()
		case "enter":
			if p.onCategory() {
				return p.submit()
			}
			return p, p.fields.move(1, placeFields+1)
		case "left", "right":
			if p.onCategory() {
				if n := len(p.env.deps.Places.Categories); n > 0 {
					d := 1
					if msg.String() == "left" {
						d = -1
					}
					p.category = ((p.category+d)%n + n) % n
				}
				return p, nil
			}
		}
	}

	var cmd tea.Cmd
	p.fields, cmd = p.fields.update(msg)
	return p, cmd
}

func (p addPlacePage) submit() (addPlacePage, tea.Cmd) {
	p.submitting, p.message = true, ""
	e := p.env
	form := forms.AddPlaceForm{
		Name:        p.fields.value(0),
		Description: p.fields.value(1),
		Latitude:    p.fields.value(2),
		Longitude:   p.fields.value(3),
		CategoryID:  p.categoryID(),
	}
	return p, func() tea.Msg {
		return placeAddedMsg{outcome: e.deps.Places.Submit(e.ctx, form)}
	}
}

func (p addPlacePage) View() string {
	s := p.env.styles
	places := p.env.deps.Places
	var sb strings.Builder
	sb.WriteString(s.Title.Render("Tambah Tempat Baru"))
	sb.WriteString("\n")
	sb.WriteString(p.fields.view(s))

	label := s.Label
	if p.onCategory() {
		label = s.FocusedLabel
	}
	sb.WriteString(label.Render("Kategori"))
	sb.WriteString("\n")
	switch {
	case p.loading:
		sb.WriteString(s.Muted.Render("Memuat kategori..."))
	case places.CategoriesErr != nil:
		sb.WriteString(s.Error.Render(places.CategoriesMessage()))
	case len(places.Categories) == 0:
		sb.WriteString(s.Muted.Render("Belum ada kategori."))
	default:
		sb.WriteString(s.Input.Render("‹ " + places.CategoryName(p.categoryID()) + " ›"))
	}
	sb.WriteString("\n")

	if p.submitting {
		sb.WriteString(s.Muted.Render("Menyimpan..."))
	} else {
		sb.WriteString(renderMessage(s, p.message, p.failed))
	}
	return sb.String()
}
