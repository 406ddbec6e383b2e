package tui

import (
	"github.com/charmbracelet/bubbles/key"

	"github.com/spec-kit/help-queue/internal/queue"
)

// KeyMap defines the key bindings for the queue screen.
type KeyMap struct {
	Up     key.Binding
	Down   key.Binding
	Select key.Binding
	Add    key.Binding
	Back   key.Binding
	Edit   key.Binding
	Delete key.Binding

	NextField key.Binding
	PrevField key.Binding
	Submit    key.Binding

	SignOut   key.Binding
	Help      key.Binding
	Quit      key.Binding
	ForceQuit key.Binding
}

// DefaultKeyMap is the built-in key binding set.
var DefaultKeyMap = KeyMap{
	Up: key.NewBinding(
		key.WithKeys("k", "up"),
		key.WithHelp("k/↑", "up"),
	),
	Down: key.NewBinding(
		key.WithKeys("j", "down"),
		key.WithHelp("j/↓", "down"),
	),
	Select: key.NewBinding(
		key.WithKeys("enter"),
		key.WithHelp("enter", "open ticket"),
	),
	Add: key.NewBinding(
		key.WithKeys("a"),
		key.WithHelp("a", queue.ButtonAddTicket),
	),
	Back: key.NewBinding(
		key.WithKeys("esc"),
		key.WithHelp("esc", queue.ButtonReturnToList),
	),
	Edit: key.NewBinding(
		key.WithKeys("e"),
		key.WithHelp("e", "update ticket"),
	),
	Delete: key.NewBinding(
		key.WithKeys("d"),
		key.WithHelp("d", "close ticket"),
	),
	NextField: key.NewBinding(
		key.WithKeys("tab"),
		key.WithHelp("tab", "next field"),
	),
	PrevField: key.NewBinding(
		key.WithKeys("shift+tab"),
		key.WithHelp("shift+tab", "previous field"),
	),
	Submit: key.NewBinding(
		key.WithKeys("enter"),
		key.WithHelp("enter", "submit"),
	),
	SignOut: key.NewBinding(
		key.WithKeys("ctrl+x"),
		key.WithHelp("ctrl+x", "sign out"),
	),
	Help: key.NewBinding(
		key.WithKeys("?"),
		key.WithHelp("?", "more keys"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q"),
		key.WithHelp("q", "quit"),
	),
	ForceQuit: key.NewBinding(
		key.WithKeys("ctrl+c"),
		key.WithHelp("ctrl+c", "quit"),
	),
}

// panelHelp adapts the key map to the bindings that work on one panel.
type panelHelp struct {
	keys     KeyMap
	signedIn bool
	panel    queue.Panel
}

func (h panelHelp) ShortHelp() []key.Binding {
	k := h.keys
	if !h.signedIn {
		return []key.Binding{k.NextField, k.Submit, k.ForceQuit}
	}
	switch h.panel {
	case queue.PanelList:
		return []key.Binding{k.Up, k.Down, k.Select, k.Add, k.Help, k.Quit}
	case queue.PanelDetail:
		return []key.Binding{k.Edit, k.Delete, k.Back, k.Quit}
	case queue.PanelCreateForm, queue.PanelEditForm:
		return []key.Binding{k.NextField, k.Submit, k.Back, k.ForceQuit}
	default:
		return []key.Binding{k.SignOut, k.Quit}
	}
}

func (h panelHelp) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		h.ShortHelp(),
		{h.keys.SignOut, h.keys.Help, h.keys.ForceQuit},
	}
}
