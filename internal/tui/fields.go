package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

// fieldGroup is a vertical stack of labelled text inputs with one focused at a time.
type fieldGroup struct {
	labels []string
	inputs []textinput.Model
	focus  int
}

func newFieldGroup(labels, placeholders []string) fieldGroup {
	g := fieldGroup{labels: labels, inputs: make([]textinput.Model, len(labels))}
	for i := range labels {
		in := textinput.New()
		in.Prompt = "> "
		in.CharLimit = 200
		if i < len(placeholders) {
			in.Placeholder = placeholders[i]
		}
		g.inputs[i] = in
	}
	return g
}

func newLoginFields() fieldGroup {
	g := newFieldGroup([]string{"Email", "Password"}, []string{"you@example.com", "password"})
	g.inputs[1].EchoMode = textinput.EchoPassword
	g.inputs[1].EchoCharacter = '•'
	return g
}

func newTicketFields() fieldGroup {
	return newFieldGroup(
		[]string{"Names", "Location", "Issue"},
		[]string{"Pair names", "Location", "Describe your issue"},
	)
}

// load replaces every value and focuses the first input.
func (g *fieldGroup) load(values ...string) tea.Cmd {
	for i := range g.inputs {
		v := ""
		if i < len(values) {
			v = values[i]
		}
		g.inputs[i].SetValue(v)
		g.inputs[i].CursorEnd()
	}
	g.focus = 0
	return g.focusCurrent()
}

func (g *fieldGroup) focusCurrent() tea.Cmd {
	var cmd tea.Cmd
	for i := range g.inputs {
		if i == g.focus {
			cmd = g.inputs[i].Focus()
		} else {
			g.inputs[i].Blur()
		}
	}
	return cmd
}

func (g *fieldGroup) move(delta int) tea.Cmd {
	n := len(g.inputs)
	g.focus = ((g.focus+delta)%n + n) % n
	return g.focusCurrent()
}

func (g *fieldGroup) blur() {
	for i := range g.inputs {
		g.inputs[i].Blur()
	}
}

func (g *fieldGroup) update(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	g.inputs[g.focus], cmd = g.inputs[g.focus].Update(msg)
	return cmd
}

func (g fieldGroup) onLast() bool {
	return g.focus == len(g.inputs)-1
}

func (g fieldGroup) values() []string {
	out := make([]string, len(g.inputs))
	for i, in := range g.inputs {
		out[i] = strings.TrimSpace(in.Value())
	}
	return out
}

func (g fieldGroup) view(s Styles) string {
	var b strings.Builder
	for i, in := range g.inputs {
		b.WriteString(s.Label.Render(g.labels[i]))
		b.WriteString("\n")
		b.WriteString(in.View())
		b.WriteString("\n")
	}
	return b.String()
}
