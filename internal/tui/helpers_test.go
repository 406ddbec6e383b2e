package tui

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/spec-kit/help-queue/internal/domain"
)

// memStore is an in-memory queue store that publishes a snapshot after every write.
type memStore struct {
	mu           sync.Mutex
	tickets      []domain.Ticket
	next         int
	onSnapshot   func([]domain.Ticket)
	onError      func(error)
	subscribes   int
	unsubscribes int
}

func newMemStore(tickets ...domain.Ticket) *memStore {
	return &memStore{tickets: tickets}
}

func (s *memStore) Subscribe(onSnapshot func([]domain.Ticket), onError func(error)) func() {
	s.mu.Lock()
	s.subscribes++
	s.onSnapshot = onSnapshot
	s.onError = onError
	snap := append([]domain.Ticket(nil), s.tickets...)
	s.mu.Unlock()

	onSnapshot(snap)
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.unsubscribes++
		s.onSnapshot = nil
		s.onError = nil
	}
}

func (s *memStore) Create(_ context.Context, fields domain.TicketFields) (*domain.Ticket, error) {
	s.mu.Lock()
	s.next++
	t := domain.Ticket{ID: fmt.Sprintf("new-%d", s.next)}.WithFields(fields)
	s.tickets = append(s.tickets, t)
	s.mu.Unlock()
	s.publish()
	return &t, nil
}

func (s *memStore) Update(_ context.Context, ticket domain.Ticket) error {
	s.mu.Lock()
	found := false
	for i := range s.tickets {
		if s.tickets[i].ID == ticket.ID {
			s.tickets[i] = ticket
			found = true
		}
	}
	s.mu.Unlock()
	if !found {
		return errors.New("ticket not found")
	}
	s.publish()
	return nil
}

func (s *memStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	kept := s.tickets[:0]
	for _, t := range s.tickets {
		if t.ID != id {
			kept = append(kept, t)
		}
	}
	s.tickets = kept
	s.mu.Unlock()
	s.publish()
	return nil
}

func (s *memStore) publish() {
	s.mu.Lock()
	fn := s.onSnapshot
	snap := append([]domain.Ticket(nil), s.tickets...)
	s.mu.Unlock()
	if fn != nil {
		fn(snap)
	}
}

func (s *memStore) fail(message string) {
	s.mu.Lock()
	fn := s.onError
	s.mu.Unlock()
	if fn != nil {
		fn(errors.New(message))
	}
}

func (s *memStore) snapshot() []domain.Ticket {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.Ticket(nil), s.tickets...)
}

func (s *memStore) counts() (subscribes, unsubscribes int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.subscribes, s.unsubscribes
}

var ada = &domain.User{ID: "u1", Name: "Ada", Email: "ada@example.com", Status: domain.UserStatusActive}

func acceptAll(_ context.Context, email, _ string) (*domain.User, error) {
	u := *ada
	u.Email = email
	return &u, nil
}

func ticket(id, names string) domain.Ticket {
	return domain.Ticket{ID: id, Names: names, Location: "4B", Issue: "Firebase won't save record"}
}

func keyRunes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func send(t *testing.T, m Model, msgs ...tea.Msg) Model {
	t.Helper()
	for _, msg := range msgs {
		next, _ := m.Update(msg)
		m = next.(Model)
	}
	return m
}

// settle applies queued store callbacks until cond holds.
func settle(t *testing.T, m Model, cond func(Model) bool) Model {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for {
		m = send(t, m, tasksReadyMsg{})
		if cond(m) {
			return m
		}
		if time.Now().After(deadline) {
			t.Fatalf("condition not met; view:\n%s", m.View())
		}
		time.Sleep(5 * time.Millisecond)
	}
}

// signedInModel returns a model that is signed in and showing the first snapshot.
func signedInModel(t *testing.T, store *memStore) Model {
	t.Helper()
	m := NewModel(Options{Store: store, SignIn: acceptAll})
	t.Cleanup(m.Close)
	m = send(t, m, signedInMsg{user: ada})
	want := len(store.snapshot())
	return settle(t, m, func(m Model) bool {
		return m.ctrl.View().SignedIn && len(m.ctrl.View().Tickets) == want
	})
}
