package service

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/help-queue/internal/domain"
	"github.com/spec-kit/help-queue/internal/events"
	"github.com/spec-kit/help-queue/internal/repository"
)

// TicketService coordinates ticket workflows and is the live store behind the queue.
type TicketService struct {
	tickets    repository.TicketRepository
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// TicketDependencies bundles what the ticket service needs.
type TicketDependencies struct {
	TicketRepo repository.TicketRepository
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TicketService{
		tickets:    deps.TicketRepo,
		dispatcher: deps.Dispatcher,
		logger:     logger,
	}
}

// Create adds a ticket to the end of the queue.
func (s *TicketService) Create(ctx context.Context, fields domain.TicketFields) (*domain.Ticket, error) {
	fields = fields.Normalize()
	if err := fields.Validate(); err != nil {
		return nil, err
	}

	ticket := domain.Ticket{}.WithFields(fields)
	if err := s.tickets.Create(ctx, &ticket); err != nil {
		return nil, err
	}
	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketCreated,
		TicketID: ticket.ID,
		Payload:  ticketPayload(fields),
	})
	return &ticket, nil
}

// Update replaces the editable fields of the ticket with the same ID.
func (s *TicketService) Update(ctx context.Context, ticket domain.Ticket) error {
	fields := ticket.Fields().Normalize()
	if err := fields.Validate(); err != nil {
		return err
	}

	updated := ticket.WithFields(fields)
	if err := s.tickets.Update(ctx, &updated); err != nil {
		return err
	}
	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketUpdated,
		TicketID: updated.ID,
		Payload:  ticketPayload(fields),
	})
	return nil
}

// Delete removes a ticket.
func (s *TicketService) Delete(ctx context.Context, id string) error {
	if err := s.tickets.Delete(ctx, id); err != nil {
		return err
	}
	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketDeleted,
		TicketID: id,
	})
	return nil
}

// Get fetches one ticket.
func (s *TicketService) Get(ctx context.Context, id string) (*domain.Ticket, error) {
	return s.tickets.GetByID(ctx, id)
}

// List returns the whole queue in arrival order.
func (s *TicketService) List(ctx context.Context) ([]domain.Ticket, error) {
	return s.tickets.List(ctx)
}

// Subscribe delivers the full ticket list once right away and again after every
// ticket event. Bursts of events are coalesced into one snapshot. If listing fails,
// onError is called once and no further callbacks follow. The returned function
// stops the subscription and may be called more than once.
func (s *TicketService) Subscribe(onSnapshot func([]domain.Ticket), onError func(error)) func() {
	ctx, cancel := context.WithCancel(context.Background())

	changed := make(chan struct{}, 1)
	changed <- struct{}{}
	notify := func(context.Context, events.Event) error {
		select {
		case changed <- struct{}{}:
		default:
		}
		return nil
	}

	var cancels []func()
	if s.dispatcher != nil {
		for _, eventType := range events.TicketEventTypes {
			cancels = append(cancels, s.dispatcher.Subscribe(eventType, notify))
		}
	}

	var once sync.Once
	stop := func() {
		once.Do(func() {
			cancel()
			for _, c := range cancels {
				c()
			}
		})
	}

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-changed:
			}

			tickets, err := s.tickets.List(ctx)
			if ctx.Err() != nil {
				return
			}
			if err != nil {
				s.logger.Warn("ticket subscription failed", zap.Error(err))
				stop()
				onError(err)
				return
			}
			onSnapshot(tickets)
		}
	}()

	return stop
}

func (s *TicketService) publishEvent(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	if actor, ok := events.ActorFromContext(ctx); ok {
		event.Actor = actor
	} else {
		event.Actor = events.Actor{Type: domain.SubjectTypeSystem}
	}
	if err := s.dispatcher.Publish(ctx, event); err != nil {
		s.logger.Warn("publish ticket event", zap.String("event_type", string(event.Type)), zap.Error(err))
	}
}

func ticketPayload(fields domain.TicketFields) events.TicketPayload {
	return events.TicketPayload{Names: fields.Names, Location: fields.Location, Issue: fields.Issue}
}
