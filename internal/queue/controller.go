package queue

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/spec-kit/help-queue/internal/domain"
	"github.com/spec-kit/help-queue/internal/events"
)

var (
	// ErrSignedOut is returned by every operation while no user is signed in.
	ErrSignedOut = errors.New("queue: sign in to access the queue")
	// ErrStopped is returned by a Loop that has been stopped.
	ErrStopped = errors.New("queue: loop stopped")
)

// Option configures a Controller.
type Option func(*Controller)

// WithDispatch sets how store callbacks get back onto the controller's event loop.
// The default calls them directly, which is only correct when the store itself calls
// back on that loop.
func WithDispatch(dispatch func(task func()) bool) Option {
	return func(c *Controller) { c.dispatch = dispatch }
}

// WithWriteRunner sets how store writes are started. The default runs each write on
// its own goroutine.
func WithWriteRunner(run func(write func())) Option {
	return func(c *Controller) { c.runWrite = run }
}

// WithLogger sets the logger used for swallowed write failures.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Controller) { c.logger = logger }
}

// WithOnChange registers a hook called on the event loop after every state change.
func WithOnChange(fn func()) Option {
	return func(c *Controller) { c.onChange = fn }
}

// Controller owns the view state of one queue screen.
type Controller struct {
	store    Store
	session  Session
	logger   *zap.Logger
	dispatch func(task func()) bool
	runWrite func(write func())
	onChange func()

	state       State
	mounted     bool
	generation  uint64
	unsubscribe func()
}

// NewController builds a controller over an injected store and session. Nothing is
// subscribed until Mount.
func NewController(store Store, session Session, opts ...Option) *Controller {
	c := &Controller{
		store:    store,
		session:  session,
		logger:   zap.NewNop(),
		dispatch: func(task func()) bool { task(); return true },
		runWrite: func(write func()) { go write() },
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Mount starts a fresh screen: state is reset to defaults and the store subscription
// is acquired. Mounting an already mounted controller does nothing. With nobody signed
// in, Mount subscribes to nothing and returns ErrSignedOut.
func (c *Controller) Mount() error {
	if c.mounted {
		return nil
	}
	if c.session.CurrentUser() == nil {
		return ErrSignedOut
	}

	c.state = State{Tickets: []domain.Ticket{}}
	c.mounted = true
	c.generation++
	gen := c.generation

	c.unsubscribe = c.store.Subscribe(
		func(tickets []domain.Ticket) {
			c.dispatch(func() { c.applySnapshot(gen, tickets) })
		},
		func(err error) {
			c.dispatch(func() { c.applyFailure(gen, err) })
		},
	)
	c.changed()
	return nil
}

// Unmount releases the store subscription. Callbacks that were already in flight are
// ignored. Unmounting twice does nothing.
func (c *Controller) Unmount() {
	if !c.mounted {
		return
	}
	c.mounted = false
	c.generation++
	unsubscribe := c.unsubscribe
	c.unsubscribe = nil
	if unsubscribe != nil {
		unsubscribe()
	}
}

// Mounted reports whether the controller holds a live subscription.
func (c *Controller) Mounted() bool {
	return c.mounted
}

// State returns a copy of the current state.
func (c *Controller) State() State {
	s := c.state
	s.Tickets = append([]domain.Ticket(nil), c.state.Tickets...)
	if c.state.Selected != nil {
		t := *c.state.Selected
		s.Selected = &t
	}
	return s
}

// View returns what should be on screen. With nobody signed in it is the zero View,
// which hosts render as the sign-in prompt.
func (c *Controller) View() View {
	if c.session.CurrentUser() == nil {
		return View{}
	}
	return buildView(c.state)
}

// ToggleCreateOrReturn is the dual "Add Ticket" / "Return to Ticket List" button.
// With a ticket selected it goes back to the list; otherwise it flips the create form.
func (c *Controller) ToggleCreateOrReturn() error {
	if _, err := c.guard(); err != nil {
		return err
	}
	if c.state.Selected != nil {
		c.state.FormVisible = false
		c.state.Selected = nil
		c.state.Editing = false
	} else {
		c.state.FormVisible = !c.state.FormVisible
	}
	c.changed()
	return nil
}

// SelectTicket selects the first ticket in the snapshot with the given id. When no
// ticket matches, the selection becomes empty.
func (c *Controller) SelectTicket(id string) error {
	if _, err := c.guard(); err != nil {
		return err
	}
	c.state.Selected = nil
	if t, ok := findTicket(c.state.Tickets, id); ok {
		c.state.Selected = &t
	}
	c.changed()
	return nil
}

// RequestEdit switches to the edit form for the selected ticket.
func (c *Controller) RequestEdit() error {
	if _, err := c.guard(); err != nil {
		return err
	}
	c.state.Editing = true
	c.changed()
	return nil
}

// SubmitEdit replaces the ticket with the same ID and returns to the list without
// waiting for the write.
func (c *Controller) SubmitEdit(ticket domain.Ticket) error {
	user, err := c.guard()
	if err != nil {
		return err
	}
	c.write("update", user, func(ctx context.Context) error {
		return c.store.Update(ctx, ticket)
	})
	c.state.Editing = false
	c.state.Selected = nil
	c.changed()
	return nil
}

// DeleteSelected deletes the ticket and clears the selection without waiting for the
// write.
func (c *Controller) DeleteSelected(id string) error {
	user, err := c.guard()
	if err != nil {
		return err
	}
	c.write("delete", user, func(ctx context.Context) error {
		return c.store.Delete(ctx, id)
	})
	c.state.Selected = nil
	c.changed()
	return nil
}

// SubmitCreate adds a ticket and hides the create form without waiting for the write.
func (c *Controller) SubmitCreate(fields domain.TicketFields) error {
	user, err := c.guard()
	if err != nil {
		return err
	}
	c.write("create", user, func(ctx context.Context) error {
		_, err := c.store.Create(ctx, fields)
		return err
	})
	c.state.FormVisible = false
	c.changed()
	return nil
}

func (c *Controller) guard() (*domain.User, error) {
	user := c.session.CurrentUser()
	if user == nil {
		return nil, ErrSignedOut
	}
	return user, nil
}

// write starts a store write. Failures are logged and otherwise dropped: the screen
// has already moved on and only the next snapshot shows what really happened.
func (c *Controller) write(op string, user *domain.User, fn func(ctx context.Context) error) {
	logger := c.logger
	userID := user.ID
	c.runWrite(func() {
		ctx := events.WithActor(context.Background(), events.UserActor(userID))
		if err := fn(ctx); err != nil {
			logger.Warn("ticket write failed", zap.String("op", op), zap.String("user_id", userID), zap.Error(err))
		}
	})
}

func (c *Controller) applySnapshot(gen uint64, tickets []domain.Ticket) {
	if gen != c.generation || !c.mounted {
		return
	}
	snapshot := make([]domain.Ticket, len(tickets))
	copy(snapshot, tickets)
	c.state.Tickets = snapshot

	if c.state.Selected != nil {
		if fresh, ok := findTicket(snapshot, c.state.Selected.ID); ok {
			c.state.Selected = &fresh
		}
	}
	c.changed()
}

func (c *Controller) applyFailure(gen uint64, err error) {
	if gen != c.generation || !c.mounted {
		return
	}
	c.state.Failed = true
	if err != nil {
		c.state.ErrMessage = err.Error()
	} else {
		c.state.ErrMessage = "unknown error"
	}
	c.changed()
}

func (c *Controller) changed() {
	if c.onChange != nil {
		c.onChange()
	}
}

func findTicket(tickets []domain.Ticket, id string) (domain.Ticket, bool) {
	for _, t := range tickets {
		if t.ID == id {
			return t, true
		}
	}
	return domain.Ticket{}, false
}
