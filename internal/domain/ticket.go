package domain

import (
	"errors"
	"strings"
	"time"
)

// ErrTicketFieldsRequired is returned when a ticket is missing names, location or issue.
var ErrTicketFieldsRequired = errors.New("names, location, issue required")

// TicketFields are the user-editable parts of a ticket.
type TicketFields struct {
	Names    string `json:"names" yaml:"names"`
	Location string `json:"location" yaml:"location"`
	Issue    string `json:"issue" yaml:"issue"`
}

// Normalize trims surrounding whitespace from every field.
func (f TicketFields) Normalize() TicketFields {
	return TicketFields{
		Names:    strings.TrimSpace(f.Names),
		Location: strings.TrimSpace(f.Location),
		Issue:    strings.TrimSpace(f.Issue),
	}
}

// Validate reports whether all fields are present.
func (f TicketFields) Validate() error {
	n := f.Normalize()
	if n.Names == "" || n.Location == "" || n.Issue == "" {
		return ErrTicketFieldsRequired
	}
	return nil
}

// Ticket is a single help request in the queue. ID is assigned by the store.
type Ticket struct {
	ID        string
	Names     string
	Location  string
	Issue     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Fields returns the editable fields of the ticket.
func (t Ticket) Fields() TicketFields {
	return TicketFields{Names: t.Names, Location: t.Location, Issue: t.Issue}
}

// WithFields returns a copy of t with its editable fields replaced.
func (t Ticket) WithFields(f TicketFields) Ticket {
	t.Names = f.Names
	t.Location = f.Location
	t.Issue = f.Issue
	return t
}
