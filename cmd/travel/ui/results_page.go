package ui

import (
	"context"
	"errors"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"go.uber.org/zap"

	"travelapp/internal/geo"
	"travelapp/internal/nav"
)

type rendererReadyMsg struct{ err error }

// markdownRenderer is built once, off the UI goroutine, the first time the
// results page is shown.
type markdownRenderer struct {
	ready *geo.Readiness
	term  *glamour.TermRenderer
}

func newMarkdownRenderer(style string, wrap int) *markdownRenderer {
	r := &markdownRenderer{}
	r.ready = geo.NewReadiness(func() error {
		term, err := glamour.NewTermRenderer(
			glamour.WithStandardStyle(style),
			glamour.WithWordWrap(wrap),
		)
		if err != nil {
			return err
		}
		r.term = term
		return nil
	})
	return r
}

// render uses glamour once ready and falls back to the raw markdown.
func (r *markdownRenderer) render(md string) string {
	if !r.ready.Ready() || r.term == nil {
		return md
	}
	out, err := r.term.Render(md)
	if err != nil {
		return md
	}
	return out
}

// resultsPage shows the last recommendation: a route map and the markdown
// summary in a scrollable viewport.
type resultsPage struct {
	env      *env
	viewport viewport.Model
	renderer *markdownRenderer
	cancel   context.CancelFunc
	width    int
}

func newResultsPage(e *env) resultsPage {
	return resultsPage{
		env:      e,
		viewport: viewport.New(80, 20),
		renderer: newMarkdownRenderer(e.styles.Theme.GlamourStyle(), 76),
		width:    80,
	}
}

func (p *resultsPage) SetSize(w, h int) {
	p.width = w
	p.viewport.Width = max(w-4, 20)
	p.viewport.Height = max(h-2, 5)
	p.refresh()
}

// Enter hydrates an empty store from the cache, then waits for the renderer
// for as long as the page is shown.
func (p resultsPage) Enter() (resultsPage, tea.Cmd) {
	if snap := p.env.deps.Trips.Snapshot(); snap.Empty() && p.env.deps.Persister != nil {
		p.env.deps.Persister.Hydrate()
	}
	p.refresh()

	if p.renderer.ready.Ready() {
		return p, nil
	}
	ctx, cancel := context.WithCancel(p.env.ctx)
	p.cancel = cancel
	ready := p.renderer.ready
	return p, func() tea.Msg {
		return rendererReadyMsg{err: ready.Wait(ctx)}
	}
}

// Leave stops waiting for the renderer.
func (p *resultsPage) Leave() {
	if p.cancel != nil {
		p.cancel()
		p.cancel = nil
	}
}

func (p resultsPage) Update(msg tea.Msg) (resultsPage, tea.Cmd) {
	switch msg := msg.(type) {
	case rendererReadyMsg:
		if msg.err != nil && !errors.Is(msg.err, context.Canceled) {
			p.env.log.Warn("markdown renderer unavailable", zap.Error(msg.err))
		}
		p.refresh()
		return p, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "esc", "n":
			return p, navigateTo(nav.RouteSearch, "", flashInfo)
		}
	}

	var cmd tea.Cmd
	p.viewport, cmd = p.viewport.Update(msg)
	return p, cmd
}

func (p *resultsPage) refresh() {
	p.viewport.SetContent(p.content())
}

func (p resultsPage) content() string {
	s := p.env.styles
	snap := p.env.deps.Trips.Snapshot()
	switch {
	case snap.Loading:
		return s.Muted.Render(MsgTripLoading)
	case snap.Err != "":
		return s.Error.Render(snap.Err) + "\n\n" + s.Muted.Render(MsgNewSearchHint)
	}

	md := TripMarkdown(snap.Data)
	if md == "" {
		return s.Muted.Render(MsgNoTripData) + "\n\n" + s.Muted.Render(MsgNewSearchHint)
	}

	var sb strings.Builder
	if m, err := RouteMap(snap.Data, max(p.width-10, 20), 12); err == nil {
		sb.WriteString(s.Map.Render(m))
		sb.WriteString("\n")
		sb.WriteString(s.Muted.Render("A start · B destination"))
		sb.WriteString("\n")
	} else {
		p.env.log.Debug("route map skipped", zap.Error(err))
	}
	sb.WriteString(p.renderer.render(md))
	return sb.String()
}

func (p resultsPage) View() string {
	return p.viewport.View()
}
