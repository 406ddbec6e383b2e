package queue

import "github.com/spec-kit/help-queue/internal/domain"

// Labels shown to the user.
const (
	SignInPrompt       = "You must be signed in to access the queue."
	ButtonAddTicket    = "Add Ticket"
	ButtonReturnToList = "Return to Ticket List"
	ErrorMessagePrefix = "There was an error: "
)

// View is what a host renders. Only the fields relevant to Panel are set.
type View struct {
	// SignedIn is false when the session gate is closed; nothing else is set then.
	SignedIn bool
	Panel    Panel
	// Tickets is the snapshot, for the list panel.
	Tickets []domain.Ticket
	// Ticket is the selected ticket, for the detail and edit panels. It can be nil on
	// the edit panel when editing was requested without a selection.
	Ticket *domain.Ticket
	// Error is the subscription failure message, for the error panel.
	Error string
	// Button is the label of the dual add/return action, or "" when it is hidden.
	Button string
}

func buildView(s State) View {
	v := View{SignedIn: true, Panel: DerivePanel(s)}
	switch v.Panel {
	case PanelError:
		v.Error = s.ErrMessage
	case PanelEditForm, PanelDetail:
		if s.Selected != nil {
			t := *s.Selected
			v.Ticket = &t
		}
		v.Button = ButtonReturnToList
	case PanelCreateForm:
		v.Button = ButtonReturnToList
	case PanelList:
		v.Tickets = append([]domain.Ticket(nil), s.Tickets...)
		v.Button = ButtonAddTicket
	}
	return v
}
