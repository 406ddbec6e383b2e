package queue

import "github.com/spec-kit/help-queue/internal/domain"

// Panel is the one view visible at a time.
type Panel int

const (
	PanelList Panel = iota
	PanelCreateForm
	PanelDetail
	PanelEditForm
	PanelError
)

func (p Panel) String() string {
	switch p {
	case PanelList:
		return "list"
	case PanelCreateForm:
		return "create-form"
	case PanelDetail:
		return "detail"
	case PanelEditForm:
		return "edit-form"
	case PanelError:
		return "error"
	default:
		return "unknown"
	}
}

// State is everything the controller remembers between renders.
type State struct {
	FormVisible bool
	// Selected is the selected ticket, or nil. Its ID is the selected ticket id.
	Selected *domain.Ticket
	Editing  bool
	// Failed is set once the subscription reports an error; ErrMessage holds its text.
	Failed     bool
	ErrMessage string
	Tickets    []domain.Ticket
}

// SelectedID returns the selected ticket id, or "" when nothing is selected.
func (s State) SelectedID() string {
	if s.Selected == nil {
		return ""
	}
	return s.Selected.ID
}

// DerivePanel picks the visible panel. The order is a strict priority chain:
// error, then editing, then selection, then the create form, then the list.
func DerivePanel(s State) Panel {
	switch {
	case s.Failed:
		return PanelError
	case s.Editing:
		return PanelEditForm
	case s.Selected != nil:
		return PanelDetail
	case s.FormVisible:
		return PanelCreateForm
	default:
		return PanelList
	}
}
