package queue

import "sync"

// Mailbox is an unbounded, ordered queue of tasks for a single consumer. Producers
// never block, so store callbacks can post from any goroutine, including from inside
// a task that is running on the consumer.
type Mailbox struct {
	mu     sync.Mutex
	tasks  []func()
	ready  chan struct{}
	done   chan struct{}
	closed bool
}

// NewMailbox creates an open mailbox.
func NewMailbox() *Mailbox {
	return &Mailbox{
		ready: make(chan struct{}, 1),
		done:  make(chan struct{}),
	}
}

// Post enqueues task. It reports false once the mailbox is closed.
func (m *Mailbox) Post(task func()) bool {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return false
	}
	m.tasks = append(m.tasks, task)
	m.mu.Unlock()

	select {
	case m.ready <- struct{}{}:
	default:
	}
	return true
}

// Ready receives a value when tasks may be waiting.
func (m *Mailbox) Ready() <-chan struct{} {
	return m.ready
}

// Done is closed by Close.
func (m *Mailbox) Done() <-chan struct{} {
	return m.done
}

// Drain removes and returns every queued task in posting order.
func (m *Mailbox) Drain() []func() {
	m.mu.Lock()
	defer m.mu.Unlock()
	tasks := m.tasks
	m.tasks = nil
	return tasks
}

// Close rejects further posts and drops anything still queued.
func (m *Mailbox) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return
	}
	m.closed = true
	m.tasks = nil
	close(m.done)
}
