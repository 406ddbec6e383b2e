package dto

import (
	"time"

	"github.com/spec-kit/help-queue/internal/domain"
)

// TicketRequest is the payload for creating or replacing a ticket. It is accepted
// as JSON or as a submitted form.
type TicketRequest struct {
	Names    string `json:"names" form:"names"`
	Location string `json:"location" form:"location"`
	Issue    string `json:"issue" form:"issue"`
}

// Fields converts the request to ticket fields.
func (r TicketRequest) Fields() domain.TicketFields {
	return domain.TicketFields{Names: r.Names, Location: r.Location, Issue: r.Issue}
}

// TicketEditRequest is the edit form payload, which carries the ticket id.
type TicketEditRequest struct {
	ID string `form:"id"`
	TicketRequest
}

// TicketResponse represents a ticket.
type TicketResponse struct {
	ID        string    `json:"id"`
	Names     string    `json:"names"`
	Location  string    `json:"location"`
	Issue     string    `json:"issue"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewTicketResponse builds a response from a ticket.
func NewTicketResponse(t domain.Ticket) TicketResponse {
	return TicketResponse{
		ID:        t.ID,
		Names:     t.Names,
		Location:  t.Location,
		Issue:     t.Issue,
		CreatedAt: t.CreatedAt,
		UpdatedAt: t.UpdatedAt,
	}
}

// NewTicketList builds responses for a snapshot. The result is never nil.
func NewTicketList(tickets []domain.Ticket) []TicketResponse {
	items := make([]TicketResponse, 0, len(tickets))
	for _, t := range tickets {
		items = append(items, NewTicketResponse(t))
	}
	return items
}
