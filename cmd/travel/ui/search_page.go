package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	tea "github.com/charmbracelet/bubbletea"

	"travelapp/internal/nav"
	"travelapp/internal/search"
)

type searchDoneMsg struct{ result search.Result }

// searchPage takes the free-text trip wish and runs the search flow.
type searchPage struct {
	env     *env
	input   textarea.Model
	spinner spinner.Model
	busy    bool
	message string
	warning string
}

func newSearchPage(e *env) searchPage {
	ta := textarea.New()
	ta.Placeholder = "Contoh: road trip ke Lembang, mampir makan siang sunda, pulangnya beli oleh-oleh"
	ta.ShowLineNumbers = false
	ta.CharLimit = 1000
	ta.SetWidth(60)
	ta.SetHeight(4)
	ta.KeyMap.InsertNewline.SetKeys("alt+enter")

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = e.styles.Spinner

	return searchPage{env: e, input: ta, spinner: sp}
}

func (p *searchPage) SetSize(w, h int) {
	if w > 8 {
		p.input.SetWidth(min(w-8, 100))
	}
}

// Enter focuses the prompt. Earlier text is kept so a failed search can be
// resubmitted.
func (p searchPage) Enter() (searchPage, tea.Cmd) {
	p.busy = false
	return p, tea.Batch(p.input.Focus(), textarea.Blink)
}

func (p searchPage) Update(msg tea.Msg) (searchPage, tea.Cmd) {
	switch msg := msg.(type) {
	case searchDoneMsg:
		p.busy = false
		res := msg.result
		p.warning = res.Warning
		if res.Err == nil {
			p.message = ""
			return p, navigateTo(res.Redirect, res.Warning, flashInfo)
		}
		if res.Redirect == nav.RouteLogin {
			return p, navigateTo(nav.RouteLogin, res.Message, flashError)
		}
		p.message = res.Message
		return p, nil

	case spinner.TickMsg:
		if !p.busy {
			return p, nil
		}
		var cmd tea.Cmd
		p.spinner, cmd = p.spinner.Update(msg)
		return p, cmd

	case tea.KeyMsg:
		if p.busy {
			return p, nil
		}
		if msg.String() == "enter" {
			return p.submit()
		}
	}

	var cmd tea.Cmd
	p.input, cmd = p.input.Update(msg)
	return p, cmd
}

func (p searchPage) submit() (searchPage, tea.Cmd) {
	p.busy, p.message, p.warning = true, "", ""
	e, prompt := p.env, p.input.Value()
	return p, tea.Batch(p.spinner.Tick, func() tea.Msg {
		return searchDoneMsg{result: e.deps.Search.Submit(e.ctx, prompt)}
	})
}

func (p searchPage) View() string {
	s := p.env.styles
	var sb strings.Builder
	sb.WriteString(s.Title.Render("Mau jalan-jalan ke mana?"))
	sb.WriteString("\n")
	sb.WriteString(s.Subtitle.Render("Ceritakan tujuan, tempat makan, dan oleh-oleh yang kamu inginkan."))
	sb.WriteString("\n\n")
	sb.WriteString(p.input.View())
	sb.WriteString("\n\n")

	if p.busy {
		status := "Planning your trip..."
		if p.env.deps.Search.Phase() == search.PhaseGeolocating {
			status = "Getting your location..."
		}
		sb.WriteString(p.spinner.View() + " " + s.Muted.Render(status))
		return sb.String()
	}
	if p.warning != "" {
		sb.WriteString(s.Warning.Render(p.warning))
		sb.WriteString("\n")
	}
	if p.message != "" {
		sb.WriteString(s.Error.Render(p.message))
	}
	return sb.String()
}
