package handlers

import (
	"bufio"
	"errors"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/spec-kit/help-queue/internal/api/dto"
	"github.com/spec-kit/help-queue/internal/auth"
	"github.com/spec-kit/help-queue/internal/domain"
	"github.com/spec-kit/help-queue/internal/queue"
	"github.com/spec-kit/help-queue/internal/service"
	apperrors "github.com/spec-kit/help-queue/pkg/util"
)

// QueueHandler serves the browser queue screen. Each signed-in user gets a controller
// from the session registry; every POST applies one panel action and redirects back.
type QueueHandler struct {
	sessions  *service.QueueSessions
	logger    *zap.Logger
	heartbeat time.Duration
}

// NewQueueHandler constructs handler.
func NewQueueHandler(sessions *service.QueueSessions, logger *zap.Logger, heartbeat time.Duration) *QueueHandler {
	if heartbeat <= 0 {
		heartbeat = DefaultHeartbeat
	}
	return &QueueHandler{sessions: sessions, logger: logger, heartbeat: heartbeat}
}

// Home GET /.
func (h *QueueHandler) Home(c *fiber.Ctx) error {
	return c.Redirect("/queue", http.StatusSeeOther)
}

// Page GET /queue renders the visible panel, or the sign-in prompt.
func (h *QueueHandler) Page(c *fiber.Ctx) error {
	user := currentUser(c)
	data := pageData{}
	if user != nil {
		u := dto.NewUserResponse(user)
		data.User = &u
		loop, err := h.sessions.Acquire(user)
		if err != nil {
			return err
		}
		data.View = loop.View()
	}
	return renderPage(c, http.StatusOK, "queue", data)
}

// Button POST /queue/button.
func (h *QueueHandler) Button(c *fiber.Ctx) error {
	return h.apply(c, queue.Action{Kind: queue.ActionButtonPressed})
}

// Select POST /queue/select/:id.
func (h *QueueHandler) Select(c *fiber.Ctx) error {
	return h.apply(c, queue.Action{Kind: queue.ActionTicketSelected, TicketID: c.Params("id")})
}

// Edit POST /queue/edit.
func (h *QueueHandler) Edit(c *fiber.Ctx) error {
	return h.apply(c, queue.Action{Kind: queue.ActionEditRequested})
}

// SubmitEdit POST /queue/edit/submit.
func (h *QueueHandler) SubmitEdit(c *fiber.Ctx) error {
	var req dto.TicketEditRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid form", nil)
	}
	fields := req.Fields()
	if err := fields.Validate(); err != nil {
		return err
	}
	return h.apply(c, queue.Action{Kind: queue.ActionEditSubmitted, TicketID: req.ID, Fields: fields})
}

// Delete POST /queue/delete/:id.
func (h *QueueHandler) Delete(c *fiber.Ctx) error {
	return h.apply(c, queue.Action{Kind: queue.ActionDeleteRequested, TicketID: c.Params("id")})
}

// Create POST /queue/create.
func (h *QueueHandler) Create(c *fiber.Ctx) error {
	var req dto.TicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid form", nil)
	}
	fields := req.Fields()
	if err := fields.Validate(); err != nil {
		return err
	}
	return h.apply(c, queue.Action{Kind: queue.ActionCreateSubmitted, Fields: fields})
}

// Events GET /queue/events sends a "refresh" event whenever the user's queue screen
// changes. The stream ends when the session is released.
func (h *QueueHandler) Events(c *fiber.Ctx) error {
	user := currentUser(c)
	if user == nil {
		return apperrors.NewUnauthorized("sign in required")
	}
	loop, err := h.sessions.Acquire(user)
	if err != nil {
		return err
	}
	changes, stop := loop.Watch()

	setEventStreamHeaders(c)
	heartbeat := h.heartbeat
	c.Context().SetBodyStreamWriter(fasthttp.StreamWriter(func(w *bufio.Writer) {
		defer stop()
		ticker := time.NewTicker(heartbeat)
		defer ticker.Stop()
		for {
			select {
			case _, ok := <-changes:
				if !ok {
					return
				}
				if err := writeEvent(w, "refresh", fiber.Map{"user_id": user.ID}); err != nil {
					return
				}
			case <-ticker.C:
				if err := writePing(w); err != nil {
					return
				}
			}
		}
	}))
	return nil
}

func (h *QueueHandler) apply(c *fiber.Ctx, action queue.Action) error {
	user := currentUser(c)
	if user == nil {
		return c.Redirect("/sign-in", http.StatusSeeOther)
	}
	loop, err := h.sessions.Acquire(user)
	if err != nil {
		return err
	}
	if err := loop.Handle(action); err != nil {
		switch {
		case errors.Is(err, queue.ErrSignedOut):
			return c.Redirect("/sign-in", http.StatusSeeOther)
		case errors.Is(err, queue.ErrStopped):
			h.logger.Debug("queue session ended mid-request", zap.String("user_id", user.ID))
		default:
			return err
		}
	}
	return c.Redirect("/queue", http.StatusSeeOther)
}

func currentUser(c *fiber.Ctx) *domain.User {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return nil
	}
	return principal.User
}
