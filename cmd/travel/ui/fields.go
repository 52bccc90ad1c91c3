package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

// fieldSet is a vertical list of labelled text inputs with one focused at a
// time.
type fieldSet struct {
	labels []string
	inputs []textinput.Model
	focus  int
}

func newFieldSet(labels ...string) fieldSet {
	f := fieldSet{labels: labels, inputs: make([]textinput.Model, len(labels))}
	for i := range f.inputs {
		in := textinput.New()
		in.Prompt = ""
		in.CharLimit = 256
		in.Width = 40
		f.inputs[i] = in
	}
	return f
}

func (f *fieldSet) mask(i int) {
	f.inputs[i].EchoMode = textinput.EchoPassword
	f.inputs[i].EchoCharacter = '•'
}

func (f fieldSet) value(i int) string {
	return f.inputs[i].Value()
}

func (f fieldSet) onLast() bool {
	return f.focus == len(f.inputs)-1
}

// setFocus focuses input i, blurring the rest. i may equal len(inputs) for
// pages that keep a non-text control after the inputs.
func (f *fieldSet) setFocus(i int) tea.Cmd {
	f.focus = i
	var cmd tea.Cmd
	for j := range f.inputs {
		if j == i {
			cmd = f.inputs[j].Focus()
		} else {
			f.inputs[j].Blur()
		}
	}
	return cmd
}

// move shifts focus by delta, wrapping over n slots.
func (f *fieldSet) move(delta, n int) tea.Cmd {
	return f.setFocus(((f.focus+delta)%n + n) % n)
}

func (f *fieldSet) reset() tea.Cmd {
	for i := range f.inputs {
		f.inputs[i].Reset()
	}
	return f.setFocus(0)
}

func (f fieldSet) update(msg tea.Msg) (fieldSet, tea.Cmd) {
	if f.focus >= len(f.inputs) {
		return f, nil
	}
	var cmd tea.Cmd
	f.inputs[f.focus], cmd = f.inputs[f.focus].Update(msg)
	return f, cmd
}

func (f fieldSet) view(s Styles) string {
	var sb strings.Builder
	for i, in := range f.inputs {
		label, box := s.Label, s.Input
		if i == f.focus {
			label, box = s.FocusedLabel, s.FocusedInput
		}
		sb.WriteString(label.Render(f.labels[i]))
		sb.WriteString("\n")
		sb.WriteString(box.Render(in.View()))
		sb.WriteString("\n")
	}
	return sb.String()
}

func renderMessage(s Styles, text string, failed bool) string {
	if text == "" {
		return ""
	}
	if failed {
		return s.Error.Render(text)
	}
	return s.Success.Render(text)
}
