package queue

import (
	"sync"
	"time"
)

// Loop runs a Controller on a dedicated goroutine so that HTTP handlers and store
// callbacks, which arrive on arbitrary goroutines, are applied one at a time.
type Loop struct {
	ctrl    *Controller
	mailbox *Mailbox
	stopped chan struct{}

	mu       sync.Mutex
	watchers map[uint64]chan struct{}
	nextID   uint64
	lastUsed time.Time

	stopOnce sync.Once
}

// NewLoop starts an event loop around a new controller. The controller is not mounted.
func NewLoop(store Store, session Session, opts ...Option) *Loop {
	l := &Loop{
		mailbox:  NewMailbox(),
		stopped:  make(chan struct{}),
		watchers: make(map[uint64]chan struct{}),
		lastUsed: time.Now(),
	}
	opts = append(opts, WithDispatch(l.mailbox.Post), WithOnChange(l.notify))
	l.ctrl = NewController(store, session, opts...)
	go l.run()
	return l
}

func (l *Loop) run() {
	defer close(l.stopped)
	for {
		select {
		case <-l.mailbox.Done():
			return
		case <-l.mailbox.Ready():
			for _, task := range l.mailbox.Drain() {
				task()
			}
		}
	}
}

// Do runs fn on the loop and waits for it. It reports false if the loop has stopped.
func (l *Loop) Do(fn func(c *Controller)) bool {
	l.touch()
	done := make(chan struct{})
	if !l.mailbox.Post(func() {
		fn(l.ctrl)
		close(done)
	}) {
		return false
	}
	select {
	case <-done:
		return true
	case <-l.stopped:
		select {
		case <-done:
			return true
		default:
			return false
		}
	}
}

// Mount mounts the controller on the loop.
func (l *Loop) Mount() error {
	var err error
	if !l.Do(func(c *Controller) { err = c.Mount() }) {
		return ErrStopped
	}
	return err
}

// Handle applies a panel action on the loop.
func (l *Loop) Handle(a Action) error {
	var err error
	if !l.Do(func(c *Controller) { err = c.Handle(a) }) {
		return ErrStopped
	}
	return err
}

// View renders the controller on the loop.
func (l *Loop) View() View {
	var v View
	l.Do(func(c *Controller) { v = c.View() })
	return v
}

// Watch returns a channel that receives a value after state changes, coalescing
// bursts, and a function to stop watching. The channel is closed when the loop stops.
func (l *Loop) Watch() (<-chan struct{}, func()) {
	l.mu.Lock()
	defer l.mu.Unlock()
	ch := make(chan struct{}, 1)
	if l.watchers == nil {
		close(ch)
		return ch, func() {}
	}
	l.nextID++
	id := l.nextID
	l.watchers[id] = ch
	return ch, func() {
		l.mu.Lock()
		defer l.mu.Unlock()
		if l.watchers != nil {
			delete(l.watchers, id)
		}
	}
}

// LastUsed reports when Do was last called.
func (l *Loop) LastUsed() time.Time {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.lastUsed
}

// Stop unmounts the controller and ends the loop. Later calls do nothing.
func (l *Loop) Stop() {
	l.stopOnce.Do(func() {
		l.Do(func(c *Controller) { c.Unmount() })
		l.mailbox.Close()
		<-l.stopped

		l.mu.Lock()
		defer l.mu.Unlock()
		for _, ch := range l.watchers {
			close(ch)
		}
		l.watchers = nil
	})
}

func (l *Loop) touch() {
	l.mu.Lock()
	l.lastUsed = time.Now()
	l.mu.Unlock()
}

func (l *Loop) notify() {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, ch := range l.watchers {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}
