package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/spec-kit/help-queue/internal/domain"
	"github.com/spec-kit/help-queue/internal/events"
	"github.com/spec-kit/help-queue/internal/repository"
	apperrors "github.com/spec-kit/help-queue/pkg/util"
)

func newTicketService() (*TicketService, *repository.MemoryTicketRepository, events.Dispatcher) {
	repo := repository.NewMemoryTicketRepository()
	dispatcher := events.NewInMemoryDispatcher()
	return NewTicketService(TicketDependencies{TicketRepo: repo, Dispatcher: dispatcher}), repo, dispatcher
}

func TestTicketService_CreateValidatesAndNormalizes(t *testing.T) {
	svc, _, _ := newTicketService()
	ctx := context.Background()

	if _, err := svc.Create(ctx, domain.TicketFields{Names: "Ada", Location: " "}); !errors.Is(err, domain.ErrTicketFieldsRequired) {
		t.Fatalf("Create(missing) error = %v, want ErrTicketFieldsRequired", err)
	}

	ticket, err := svc.Create(ctx, domain.TicketFields{Names: " Ada ", Location: "4B", Issue: "stuck "})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if ticket.ID == "" || ticket.Names != "Ada" || ticket.Issue != "stuck" {
		t.Errorf("Create() = %+v", ticket)
	}
}

func TestTicketService_PublishesEventsWithActor(t *testing.T) {
	svc, _, dispatcher := newTicketService()
	var got []events.Event
	for _, et := range events.TicketEventTypes {
		dispatcher.Subscribe(et, func(_ context.Context, e events.Event) error {
			got = append(got, e)
			return nil
		})
	}

	ctx := events.WithActor(context.Background(), events.UserActor("u1"))
	ticket, err := svc.Create(ctx, domain.TicketFields{Names: "A", Location: "L", Issue: "I"})
	if err != nil {
		t.Fatal(err)
	}
	edited := ticket.WithFields(domain.TicketFields{Names: "A", Location: "L", Issue: "I2"})
	if err := svc.Update(ctx, edited); err != nil {
		t.Fatal(err)
	}
	if err := svc.Delete(context.Background(), ticket.ID); err != nil {
		t.Fatal(err)
	}

	wantTypes := []events.EventType{events.EventTicketCreated, events.EventTicketUpdated, events.EventTicketDeleted}
	if len(got) != len(wantTypes) {
		t.Fatalf("got %d events, want %d", len(got), len(wantTypes))
	}
	for i, e := range got {
		if e.Type != wantTypes[i] || e.TicketID != ticket.ID || e.ID == "" || e.Timestamp.IsZero() {
			t.Errorf("event %d = %+v", i, e)
		}
	}
	if got[0].Actor.UserID == nil || *got[0].Actor.UserID != "u1" {
		t.Errorf("create actor = %+v, want u1", got[0].Actor)
	}
	if got[2].Actor.Type != domain.SubjectTypeSystem {
		t.Errorf("delete actor = %+v, want system", got[2].Actor)
	}
	if p, ok := got[1].Payload.(events.TicketPayload); !ok || p.Issue != "I2" {
		t.Errorf("update payload = %+v", got[1].Payload)
	}
}

func TestTicketService_UpdateAndDeleteMissing(t *testing.T) {
	svc, _, _ := newTicketService()
	ctx := context.Background()
	missing := domain.Ticket{ID: "nope", Names: "A", Location: "L", Issue: "I"}
	if err := svc.Update(ctx, missing); !errors.Is(err, apperrors.ErrNotFound) {
		t.Errorf("Update(missing) error = %v, want ErrNotFound", err)
	}
	if err := svc.Delete(ctx, "nope"); !errors.Is(err, apperrors.ErrNotFound) {
		t.Errorf("Delete(missing) error = %v, want ErrNotFound", err)
	}
	if err := svc.Update(ctx, domain.Ticket{ID: "nope"}); !errors.Is(err, domain.ErrTicketFieldsRequired) {
		t.Errorf("Update(empty) error = %v, want ErrTicketFieldsRequired", err)
	}
}

func TestTicketService_SubscribeDeliversSnapshots(t *testing.T) {
	svc, _, _ := newTicketService()
	ctx := context.Background()
	first, _ := svc.Create(ctx, domain.TicketFields{Names: "A", Location: "L", Issue: "I"})

	rec := &recorder{}
	unsubscribe := svc.Subscribe(rec.onSnapshot, rec.onError)
	defer unsubscribe()

	waitFor(t, func() bool { return len(rec.last()) == 1 })

	second, _ := svc.Create(ctx, domain.TicketFields{Names: "B", Location: "L", Issue: "I"})
	waitFor(t, func() bool { return len(rec.last()) == 2 })
	if got := rec.last(); got[0].ID != first.ID || got[1].ID != second.ID {
		t.Errorf("snapshot order = %v, %v", got[0].ID, got[1].ID)
	}

	_ = svc.Delete(ctx, first.ID)
	waitFor(t, func() bool {
		got := rec.last()
		return len(got) == 1 && got[0].ID == second.ID
	})
}

func TestTicketService_SubscribeStopsAfterUnsubscribe(t *testing.T) {
	svc, _, _ := newTicketService()
	rec := &recorder{}
	unsubscribe := svc.Subscribe(rec.onSnapshot, rec.onError)
	waitFor(t, func() bool { n, _ := rec.counts(); return n == 1 })

	unsubscribe()
	unsubscribe()

	_, _ = svc.Create(context.Background(), domain.TicketFields{Names: "A", Location: "L", Issue: "I"})
	time.Sleep(50 * time.Millisecond)
	if n, _ := rec.counts(); n != 1 {
		t.Errorf("snapshots = %d after unsubscribe, want 1", n)
	}
}

func TestTicketService_SubscribeErrorEndsSubscription(t *testing.T) {
	svc, repo, _ := newTicketService()
	repo.FailList(errors.New("permission-denied"))

	rec := &recorder{}
	unsubscribe := svc.Subscribe(rec.onSnapshot, rec.onError)
	defer unsubscribe()

	waitFor(t, func() bool { _, n := rec.counts(); return n == 1 })

	repo.FailList(nil)
	_, _ = svc.Create(context.Background(), domain.TicketFields{Names: "A", Location: "L", Issue: "I"})
	time.Sleep(50 * time.Millisecond)

	snapshots, errs := rec.counts()
	if snapshots != 0 || errs != 1 {
		t.Errorf("snapshots=%d errs=%d, want 0 and 1", snapshots, errs)
	}
	if rec.errs[0].Error() != "permission-denied" {
		t.Errorf("error = %v", rec.errs[0])
	}
}
