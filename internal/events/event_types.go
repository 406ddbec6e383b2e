package events

import (
	"context"
	"time"

	"github.com/spec-kit/help-queue/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketCreated EventType = "ticket_created"
	EventTicketUpdated EventType = "ticket_updated"
	EventTicketDeleted EventType = "ticket_deleted"
)

// TicketEventTypes lists every event that changes the ticket collection.
var TicketEventTypes = []EventType{EventTicketCreated, EventTicketUpdated, EventTicketDeleted}

// Actor encapsulates actor metadata for an event.
type Actor struct {
	Type   domain.SubjectType `json:"type"`
	UserID *string            `json:"user_id,omitempty"`
}

// UserActor returns an actor for a signed-in user.
func UserActor(userID string) Actor {
	return Actor{Type: domain.SubjectTypeUser, UserID: &userID}
}

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	TicketID  string      `json:"ticket_id"`
	Actor     Actor       `json:"actor"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// TicketPayload carries the ticket fields after a create or update.
type TicketPayload struct {
	Names    string `json:"names"`
	Location string `json:"location"`
	Issue    string `json:"issue"`
}

type actorKey struct{}

// WithActor attaches the acting user to a write context.
func WithActor(ctx context.Context, actor Actor) context.Context {
	return context.WithValue(ctx, actorKey{}, actor)
}

// ActorFromContext returns the actor stored by WithActor.
func ActorFromContext(ctx context.Context) (Actor, bool) {
	actor, ok := ctx.Value(actorKey{}).(Actor)
	return actor, ok
}
