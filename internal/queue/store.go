package queue

import (
	"context"

	"github.com/spec-kit/help-queue/internal/domain"
)

// Store is the live ticket collection the controller reads from and writes to.
//
// Subscribe registers a listener that receives the full collection on every change.
// onError is called at most once, in place of a snapshot, and ends the subscription.
// The returned function stops all further callbacks.
type Store interface {
	Subscribe(onSnapshot func([]domain.Ticket), onError func(error)) (unsubscribe func())
	Create(ctx context.Context, fields domain.TicketFields) (*domain.Ticket, error)
	Update(ctx context.Context, ticket domain.Ticket) error
	Delete(ctx context.Context, id string) error
}

// Session reports who is signed in. A nil user means nobody.
type Session interface {
	CurrentUser() *domain.User
}
