package ui

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"travelapp/internal/forms"
	"travelapp/internal/nav"
)

type (
	loginDoneMsg    struct{ outcome forms.Outcome }
	registerDoneMsg struct{ outcome forms.Outcome }
)

// loginPage collects a username and password.
type loginPage struct {
	env        *env
	fields     fieldSet
	submitting bool
	message    string
}

func newLoginPage(e *env) loginPage {
	f := newFieldSet("Username", "Password")
	f.mask(1)
	return loginPage{env: e, fields: f}
}

// Enter clears the form.
func (p loginPage) Enter() (loginPage, tea.Cmd) {
	p.submitting, p.message = false, ""
	return p, p.fields.reset()
}

func (p loginPage) Update(msg tea.Msg) (loginPage, tea.Cmd) {
	switch msg := msg.(type) {
	case loginDoneMsg:
		p.submitting = false
		if msg.outcome.OK() {
			return p, navigateTo(msg.outcome.Redirect, msg.outcome.Message, flashSuccess)
		}
		p.message = msg.outcome.Message
		return p, nil

	case tea.KeyMsg:
		if p.submitting {
			return p, nil
		}
		switch msg.String() {
		case "tab", "down":
			return p, p.fields.move(1, 2)
		case "shift+tab", "up":
			return p, p.fields.move(-1, 2)
		case "ctrl+r":
			return p, navigateTo(nav.RouteRegister, "", flashInfo)
		case "enter":
			if !p.fields.onLast() {
				return p, p.fields.move(1, 2)
			}
			return p.submit()
		}
	}

	var cmd tea.Cmd
	p.fields, cmd = p.fields.update(msg)
	return p, cmd
}

func (p loginPage) submit() (loginPage, tea.Cmd) {
	p.submitting, p.message = true, ""
	e := p.env
	form := forms.LoginForm{Username: p.fields.value(0), Password: p.fields.value(1)}
	return p, func() tea.Msg {
		return loginDoneMsg{outcome: form.Submit(e.ctx, e.deps.Client, e.deps.Sessions)}
	}
}

func (p loginPage) View() string {
	s := p.env.styles
	var sb strings.Builder
	sb.WriteString(s.Title.Render("Login"))
	sb.WriteString("\n")
	sb.WriteString(p.fields.view(s))
	if p.submitting {
		sb.WriteString(s.Muted.Render("Logging in..."))
	} else {
		sb.WriteString(renderMessage(s, p.message, true))
	}
	sb.WriteString("\n")
	sb.WriteString(s.Muted.Render("Belum punya akun? Tekan ctrl+r untuk register."))
	return sb.String()
}

// registerPage collects a new account.
type registerPage struct {
	env        *env
	fields     fieldSet
	submitting bool
	message    string
}

func newRegisterPage(e *env) registerPage {
	f := newFieldSet("Username", "Email", "Password")
	f.mask(2)
	return registerPage{env: e, fields: f}
}

func (p registerPage) Enter() (registerPage, tea.Cmd) {
	p.submitting, p.message = false, ""
	return p, p.fields.reset()
}

func (p registerPage) Update(msg tea.Msg) (registerPage, tea.Cmd) {
	switch msg := msg.(type) {
	case registerDoneMsg:
		p.submitting = false
		if msg.outcome.OK() {
			return p, navigateTo(msg.outcome.Redirect, msg.outcome.Message, flashSuccess)
		}
		p.message = msg.outcome.Message
		return p, nil

	case tea.KeyMsg:
		if p.submitting {
			return p, nil
		}
		switch msg.String() {
		case "tab", "down":
			return p, p.fields.move(1, 3)
		case "shift+tab", "up":
			return p, p.fields.move(-1, 3)
		case "esc":
			return p, navigateTo(nav.RouteLogin, "", flashInfo)
		case "enter":
			if !p.fields.onLast() {
				return p, p.fields.move(1, 3)
			}
			return p.submit()
		}
	}

	var cmd tea.Cmd
	p.fields, cmd = p.fields.update(msg)
	return p, cmd
}

func (p registerPage) submit() (registerPage, tea.Cmd) {
	p.submitting, p.message = true, ""
	e := p.env
	form := forms.RegisterForm{
		Username: p.fields.value(0),
		Email:    p.fields.value(1),
		Password: p.fields.value(2),
	}
	return p, func() tea.Msg {
		return registerDoneMsg{outcome: form.Submit(e.ctx, e.deps.Client)}
	}
}

func (p registerPage) View() string {
	s := p.env.styles
	var sb strings.Builder
	sb.WriteString(s.Title.Render("Register"))
	sb.WriteString("\n")
	sb.WriteString(p.fields.view(s))
	if p.submitting {
		sb.WriteString(s.Muted.Render("Mendaftarkan akun..."))
	} else {
		sb.WriteString(renderMessage(s, p.message, true))
	}
	return sb.String()
}
