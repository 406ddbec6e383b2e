package service

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/help-queue/internal/auth"
	"github.com/spec-kit/help-queue/internal/domain"
	"github.com/spec-kit/help-queue/internal/queue"
)

var _ queue.Store = (*TicketService)(nil)

// QueueSessions keeps one mounted queue controller per signed-in browser user.
type QueueSessions struct {
	store  queue.Store
	logger *zap.Logger

	mu      sync.Mutex
	entries map[string]*queueEntry
	closed  bool
}

type queueEntry struct {
	loop    *queue.Loop
	session *auth.Session
}

// NewQueueSessions creates an empty registry over store.
func NewQueueSessions(store queue.Store, logger *zap.Logger) *QueueSessions {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &QueueSessions{
		store:   store,
		logger:  logger,
		entries: make(map[string]*queueEntry),
	}
}

// Acquire returns the user's controller loop, mounting a new one on first use.
func (q *QueueSessions) Acquire(user *domain.User) (*queue.Loop, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return nil, queue.ErrStopped
	}
	if e, ok := q.entries[user.ID]; ok {
		e.session.SignIn(user)
		return e.loop, nil
	}

	session := auth.NewSession(user)
	loop := queue.NewLoop(q.store, session, queue.WithLogger(q.logger.With(zap.String("user_id", user.ID))))
	if err := loop.Mount(); err != nil {
		loop.Stop()
		return nil, err
	}
	q.entries[user.ID] = &queueEntry{loop: loop, session: session}
	q.logger.Debug("queue session started", zap.String("user_id", user.ID))
	return loop, nil
}

// Lookup returns the user's loop without creating one.
func (q *QueueSessions) Lookup(userID string) (*queue.Loop, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	e, ok := q.entries[userID]
	if !ok {
		return nil, false
	}
	return e.loop, true
}

// Release signs the user's session out and unmounts its controller.
func (q *QueueSessions) Release(userID string) bool {
	q.mu.Lock()
	e, ok := q.entries[userID]
	delete(q.entries, userID)
	q.mu.Unlock()
	if !ok {
		return false
	}
	e.session.SignOut()
	e.loop.Stop()
	q.logger.Debug("queue session released", zap.String("user_id", userID))
	return true
}

// Sweep releases sessions not used for at least idle and returns how many it released.
func (q *QueueSessions) Sweep(now time.Time, idle time.Duration) int {
	q.mu.Lock()
	var stale []string
	for id, e := range q.entries {
		if now.Sub(e.loop.LastUsed()) >= idle {
			stale = append(stale, id)
		}
	}
	q.mu.Unlock()

	released := 0
	for _, id := range stale {
		if q.Release(id) {
			released++
		}
	}
	return released
}

// Len reports how many sessions are live.
func (q *QueueSessions) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.entries)
}

// Close releases every session and rejects further Acquire calls.
func (q *QueueSessions) Close() {
	q.mu.Lock()
	q.closed = true
	ids := make([]string, 0, len(q.entries))
	for id := range q.entries {
		ids = append(ids, id)
	}
	q.mu.Unlock()

	for _, id := range ids {
		q.Release(id)
	}
}
