package queue

import (
	"fmt"

	"github.com/spec-kit/help-queue/internal/domain"
)

// ActionKind names an event a panel can emit.
type ActionKind int

const (
	ActionButtonPressed ActionKind = iota
	ActionTicketSelected
	ActionEditRequested
	ActionEditSubmitted
	ActionDeleteRequested
	ActionCreateSubmitted
)

func (k ActionKind) String() string {
	switch k {
	case ActionButtonPressed:
		return "button-pressed"
	case ActionTicketSelected:
		return "ticket-selected"
	case ActionEditRequested:
		return "edit-requested"
	case ActionEditSubmitted:
		return "edit-submitted"
	case ActionDeleteRequested:
		return "delete-requested"
	case ActionCreateSubmitted:
		return "create-submitted"
	default:
		return fmt.Sprintf("action(%d)", int(k))
	}
}

// Action is a panel event. TicketID is used by select, edit-submitted and delete;
// Fields by edit-submitted and create-submitted.
type Action struct {
	Kind     ActionKind
	TicketID string
	Fields   domain.TicketFields
}

// Handle routes a panel event to the matching operation.
func (c *Controller) Handle(a Action) error {
	switch a.Kind {
	case ActionButtonPressed:
		return c.ToggleCreateOrReturn()
	case ActionTicketSelected:
		return c.SelectTicket(a.TicketID)
	case ActionEditRequested:
		return c.RequestEdit()
	case ActionEditSubmitted:
		return c.SubmitEdit(domain.Ticket{ID: a.TicketID}.WithFields(a.Fields))
	case ActionDeleteRequested:
		return c.DeleteSelected(a.TicketID)
	case ActionCreateSubmitted:
		return c.SubmitCreate(a.Fields)
	default:
		return fmt.Errorf("queue: unknown action %s", a.Kind)
	}
}
