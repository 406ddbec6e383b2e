// Package tui is a terminal host for the queue controller. Store callbacks are
// posted to a mailbox and applied inside Update, so the controller only ever runs on
// the Bubble Tea event loop.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/dustin/go-humanize"
	"go.uber.org/zap"

	"github.com/spec-kit/help-queue/internal/auth"
	"github.com/spec-kit/help-queue/internal/domain"
	"github.com/spec-kit/help-queue/internal/queue"
	apperrors "github.com/spec-kit/help-queue/pkg/util"
)

const (
	signInTimeout  = 10 * time.Second
	requiredFields = "Names, location and issue are all required."
)

// SignInFunc checks credentials and returns the user they belong to.
type SignInFunc func(ctx context.Context, email, password string) (*domain.User, error)

// Options configures a Model.
type Options struct {
	Store  queue.Store
	SignIn SignInFunc
	Logger *zap.Logger
	// Email and Password prefill the sign-in form. When both are set the model signs
	// in on start.
	Email    string
	Password string
}

// tasksReadyMsg reports that store callbacks are waiting in the mailbox.
type tasksReadyMsg struct{}

// signedInMsg carries the result of a sign-in attempt.
type signedInMsg struct {
	user *domain.User
	err  error
}

// Model is the Bubble Tea model for the queue screen.
type Model struct {
	ctrl    *queue.Controller
	session *auth.Session
	mailbox *queue.Mailbox
	signIn  SignInFunc

	keys   KeyMap
	help   help.Model
	styles Styles

	login   fieldGroup
	form    fieldGroup
	formKey string
	cursor  int
	notice  string
	busy    bool
	width   int
}

// NewModel creates a signed-out model over store.
func NewModel(opts Options) Model {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	mailbox := queue.NewMailbox()
	session := auth.NewSession(nil)
	ctrl := queue.NewController(opts.Store, session,
		queue.WithDispatch(mailbox.Post),
		queue.WithLogger(logger),
	)

	login := newLoginFields()
	login.load(opts.Email, opts.Password)

	return Model{
		ctrl:    ctrl,
		session: session,
		mailbox: mailbox,
		signIn:  opts.SignIn,
		keys:    DefaultKeyMap,
		help:    help.New(),
		styles:  DefaultStyles(),
		login:   login,
		form:    newTicketFields(),
		busy:    opts.Email != "" && opts.Password != "" && opts.SignIn != nil,
	}
}

// Init starts listening for store callbacks and, with prefilled credentials, signs in.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{waitForTasks(m.mailbox), textinput.Blink}
	if m.busy {
		v := m.login.values()
		cmds = append(cmds, signInCmd(m.signIn, v[0], v[1]))
	}
	return tea.Batch(cmds...)
}

// Close unmounts the controller and stops accepting store callbacks. It is safe to
// call more than once.
func (m Model) Close() {
	m.ctrl.Unmount()
	m.mailbox.Close()
}

func waitForTasks(mailbox *queue.Mailbox) tea.Cmd {
	return func() tea.Msg {
		select {
		case <-mailbox.Ready():
			return tasksReadyMsg{}
		case <-mailbox.Done():
			return nil
		}
	}
}

func signInCmd(fn SignInFunc, email, password string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), signInTimeout)
		defer cancel()
		user, err := fn(ctx, email, password)
		return signedInMsg{user: user, err: err}
	}
}

// Update handles incoming messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.help.Width = msg.Width
		return m, nil

	case tasksReadyMsg:
		for _, task := range m.mailbox.Drain() {
			task()
		}
		m.clampCursor()
		formCmd := m.syncForm()
		return m, tea.Batch(formCmd, waitForTasks(m.mailbox))

	case signedInMsg:
		m.busy = false
		if msg.err != nil {
			m.notice = apperrors.ToDomainError(msg.err).Message
			return m, nil
		}
		m.session.SignIn(msg.user)
		m.notice = ""
		m.cursor = 0
		m.login.blur()
		if err := m.ctrl.Mount(); err != nil {
			m.notice = err.Error()
		}
		formCmd := m.syncForm()
		return m, formCmd

	case tea.KeyMsg:
		if key.Matches(msg, m.keys.ForceQuit) {
			return m.quit()
		}
		if !m.ctrl.View().SignedIn {
			return m.updateSignedOut(msg)
		}
		return m.updateQueue(msg)
	}

	cmd := m.updateInputs(msg)
	return m, cmd
}

func (m Model) quit() (tea.Model, tea.Cmd) {
	m.Close()
	return m, tea.Quit
}

func (m Model) updateSignedOut(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.busy {
		return m, nil
	}
	var cmd tea.Cmd
	switch {
	case key.Matches(msg, m.keys.NextField):
		cmd = m.login.move(1)
	case key.Matches(msg, m.keys.PrevField):
		cmd = m.login.move(-1)
	case key.Matches(msg, m.keys.Submit):
		v := m.login.values()
		switch {
		case v[0] != "" && v[1] != "":
			m.busy = true
			m.notice = ""
			cmd = signInCmd(m.signIn, v[0], v[1])
		case !m.login.onLast():
			cmd = m.login.move(1)
		default:
			m.notice = "Email and password are required."
		}
	default:
		cmd = m.login.update(msg)
	}
	return m, cmd
}

func (m Model) updateQueue(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	v := m.ctrl.View()
	var cmd tea.Cmd

	if key.Matches(msg, m.keys.SignOut) {
		m.signOut()
		return m, textinput.Blink
	}

	switch v.Panel {
	case queue.PanelList:
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m.quit()
		case key.Matches(msg, m.keys.Up):
			if m.cursor > 0 {
				m.cursor--
			}
		case key.Matches(msg, m.keys.Down):
			if m.cursor < len(v.Tickets)-1 {
				m.cursor++
			}
		case key.Matches(msg, m.keys.Select):
			if len(v.Tickets) > 0 {
				_ = m.ctrl.SelectTicket(v.Tickets[m.cursor].ID)
			}
		case key.Matches(msg, m.keys.Add):
			_ = m.ctrl.ToggleCreateOrReturn()
		case key.Matches(msg, m.keys.Help):
			m.help.ShowAll = !m.help.ShowAll
		}

	case queue.PanelDetail:
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m.quit()
		case key.Matches(msg, m.keys.Back):
			_ = m.ctrl.ToggleCreateOrReturn()
		case key.Matches(msg, m.keys.Edit):
			_ = m.ctrl.RequestEdit()
		case key.Matches(msg, m.keys.Delete):
			if v.Ticket != nil {
				_ = m.ctrl.DeleteSelected(v.Ticket.ID)
			}
		}

	case queue.PanelCreateForm, queue.PanelEditForm:
		switch {
		case key.Matches(msg, m.keys.Back):
			m.notice = ""
			_ = m.ctrl.ToggleCreateOrReturn()
		case key.Matches(msg, m.keys.NextField):
			cmd = m.form.move(1)
		case key.Matches(msg, m.keys.PrevField):
			cmd = m.form.move(-1)
		case key.Matches(msg, m.keys.Submit):
			m.submitForm(v)
		default:
			cmd = m.form.update(msg)
		}

	case queue.PanelError:
		if key.Matches(msg, m.keys.Quit) {
			return m.quit()
		}
	}

	formCmd := m.syncForm()
	return m, tea.Batch(cmd, formCmd)
}

func (m *Model) submitForm(v queue.View) {
	values := m.form.values()
	fields := domain.TicketFields{Names: values[0], Location: values[1], Issue: values[2]}
	if err := fields.Validate(); err != nil {
		m.notice = requiredFields
		return
	}
	m.notice = ""
	if v.Panel == queue.PanelCreateForm {
		_ = m.ctrl.SubmitCreate(fields)
		return
	}
	id := ""
	if v.Ticket != nil {
		id = v.Ticket.ID
	}
	_ = m.ctrl.SubmitEdit(domain.Ticket{ID: id}.WithFields(fields))
}

func (m *Model) signOut() {
	m.ctrl.Unmount()
	m.session.SignOut()
	email := m.login.values()[0]
	m.login.load(email, "")
	m.cursor = 0
	m.formKey = ""
	m.form.blur()
	m.notice = ""
}

func (m *Model) updateInputs(msg tea.Msg) tea.Cmd {
	v := m.ctrl.View()
	if !v.SignedIn {
		return m.login.update(msg)
	}
	if v.Panel == queue.PanelCreateForm || v.Panel == queue.PanelEditForm {
		return m.form.update(msg)
	}
	return nil
}

// syncForm reloads the ticket inputs when a form panel is entered.
func (m *Model) syncForm() tea.Cmd {
	v := m.ctrl.View()
	next := ""
	switch v.Panel {
	case queue.PanelCreateForm:
		next = "create"
	case queue.PanelEditForm:
		next = "edit"
		if v.Ticket != nil {
			next += ":" + v.Ticket.ID
		}
	}
	if next == m.formKey {
		return nil
	}
	m.formKey = next
	if next == "" {
		m.form.blur()
		return nil
	}
	if v.Panel == queue.PanelEditForm && v.Ticket != nil {
		return m.form.load(v.Ticket.Names, v.Ticket.Location, v.Ticket.Issue)
	}
	return m.form.load()
}

func (m *Model) clampCursor() {
	n := len(m.ctrl.View().Tickets)
	if m.cursor >= n {
		m.cursor = n - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

// View renders the header, the visible panel and the key help.
func (m Model) View() string {
	s := m.styles
	v := m.ctrl.View()

	var b strings.Builder
	b.WriteString(m.header(v))
	b.WriteString("\n\n")

	if !v.SignedIn {
		b.WriteString(s.Prompt.Render(queue.SignInPrompt))
		b.WriteString("\n\n")
		b.WriteString(s.Title.Render("Sign In"))
		b.WriteString("\n")
		b.WriteString(m.login.view(s))
		if m.busy {
			b.WriteString(s.Meta.Render("Signing in..."))
			b.WriteString("\n")
		}
	} else {
		b.WriteString(m.panelView(v))
	}

	if m.notice != "" {
		b.WriteString("\n")
		b.WriteString(s.Notice.Render(m.notice))
		b.WriteString("\n")
	}
	if v.Button != "" {
		b.WriteString("\n")
		b.WriteString(s.Button.Render(m.buttonHint(v)))
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(m.help.View(panelHelp{keys: m.keys, signedIn: v.SignedIn, panel: v.Panel}))
	b.WriteString("\n")
	return b.String()
}

func (m Model) header(v queue.View) string {
	nav := "Sign In"
	if user := m.session.CurrentUser(); v.SignedIn && user != nil {
		nav = user.Name
	}
	return m.styles.Header.Render("Help Queue") + " " + m.styles.Nav.Render("Home · "+nav)
}

func (m Model) buttonHint(v queue.View) string {
	if v.Panel == queue.PanelList {
		return fmt.Sprintf("[%s] %s", m.keys.Add.Help().Key, v.Button)
	}
	return fmt.Sprintf("[%s] %s", m.keys.Back.Help().Key, v.Button)
}

func (m Model) panelView(v queue.View) string {
	s := m.styles
	var b strings.Builder

	switch v.Panel {
	case queue.PanelError:
		b.WriteString(s.Error.Render(queue.ErrorMessagePrefix + v.Error))
		b.WriteString("\n")

	case queue.PanelCreateForm:
		b.WriteString(s.Title.Render("New Ticket"))
		b.WriteString("\n")
		b.WriteString(m.form.view(s))

	case queue.PanelEditForm:
		b.WriteString(s.Title.Render("Edit Ticket"))
		b.WriteString("\n")
		b.WriteString(m.form.view(s))

	case queue.PanelDetail:
		b.WriteString(s.Title.Render("Ticket Detail"))
		b.WriteString("\n")
		if t := v.Ticket; t != nil {
			body := s.Ticket.Render(t.Names) + "\n" + t.Location + "\n" + t.Issue
			if !t.CreatedAt.IsZero() {
				body += "\n" + s.Meta.Render("Opened "+humanize.Time(t.CreatedAt))
			}
			b.WriteString(s.Selected.Render(body))
			b.WriteString("\n")
		}

	default:
		if len(v.Tickets) == 0 {
			b.WriteString(s.Meta.Render("The queue is empty."))
			b.WriteString("\n")
		}
		for i, t := range v.Tickets {
			marker := "  "
			if i == m.cursor {
				marker = s.Cursor.Render("> ")
			}
			line := marker + s.Ticket.Render(t.Names+" - "+t.Location) + "  " + t.Issue
			if !t.CreatedAt.IsZero() {
				line += "  " + s.Meta.Render(humanize.Time(t.CreatedAt))
			}
			b.WriteString(line)
			b.WriteString("\n")
		}
	}
	return b.String()
}
