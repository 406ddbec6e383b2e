package queue

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/spec-kit/help-queue/internal/domain"
)

// fakeStore records calls and lets tests push snapshots and failures by hand.
type fakeStore struct {
	mu           sync.Mutex
	onSnapshot   func([]domain.Ticket)
	onError      func(error)
	subscribes   int
	unsubscribes int
	created      []domain.TicketFields
	updated      []domain.Ticket
	deleted      []string
	writeErr     error
}

func (s *fakeStore) Subscribe(onSnapshot func([]domain.Ticket), onError func(error)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subscribes++
	s.onSnapshot = onSnapshot
	s.onError = onError
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.unsubscribes++
	}
}

func (s *fakeStore) Create(_ context.Context, fields domain.TicketFields) (*domain.Ticket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.created = append(s.created, fields)
	if s.writeErr != nil {
		return nil, s.writeErr
	}
	t := domain.Ticket{ID: "new"}.WithFields(fields)
	return &t, nil
}

func (s *fakeStore) Update(_ context.Context, ticket domain.Ticket) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.updated = append(s.updated, ticket)
	return s.writeErr
}

func (s *fakeStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deleted = append(s.deleted, id)
	return s.writeErr
}

func (s *fakeStore) push(tickets ...domain.Ticket) {
	s.mu.Lock()
	fn := s.onSnapshot
	s.mu.Unlock()
	fn(tickets)
}

func (s *fakeStore) fail(message string) {
	s.mu.Lock()
	fn := s.onError
	s.mu.Unlock()
	fn(errors.New(message))
}

func (s *fakeStore) counts() (subscribes, unsubscribes int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.subscribes, s.unsubscribes
}

type fakeSession struct {
	mu   sync.Mutex
	user *domain.User
}

func (s *fakeSession) CurrentUser() *domain.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.user
}

func (s *fakeSession) set(user *domain.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.user = user
}

func signedIn() *fakeSession {
	return &fakeSession{user: &domain.User{ID: "u1", Name: "Ada", Email: "ada@example.com"}}
}

func ticket(id, names string) domain.Ticket {
	return domain.Ticket{ID: id, Names: names, Location: "4B", Issue: "Firebase won't save record"}
}

// newMounted returns a mounted controller whose writes run synchronously.
func newMounted(t *testing.T) (*Controller, *fakeStore) {
	t.Helper()
	store := &fakeStore{}
	c := NewController(store, signedIn(), WithWriteRunner(func(write func()) { write() }))
	if err := c.Mount(); err != nil {
		t.Fatalf("Mount() error = %v", err)
	}
	return c, store
}
