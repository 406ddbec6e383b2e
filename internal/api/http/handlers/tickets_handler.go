package handlers

import (
	"bufio"
	"context"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/spec-kit/help-queue/internal/api/dto"
	"github.com/spec-kit/help-queue/internal/auth"
	"github.com/spec-kit/help-queue/internal/domain"
	"github.com/spec-kit/help-queue/internal/events"
	"github.com/spec-kit/help-queue/internal/service"
	apperrors "github.com/spec-kit/help-queue/pkg/util"
)

// DefaultHeartbeat is how often idle event streams send a keep-alive comment.
const DefaultHeartbeat = 15 * time.Second

// TicketsHandler exposes the ticket collection as JSON and as an event stream.
type TicketsHandler struct {
	service   *service.TicketService
	logger    *zap.Logger
	heartbeat time.Duration
}

// NewTicketsHandler constructs handler.
func NewTicketsHandler(ticketService *service.TicketService, logger *zap.Logger, heartbeat time.Duration) *TicketsHandler {
	if heartbeat <= 0 {
		heartbeat = DefaultHeartbeat
	}
	return &TicketsHandler{service: ticketService, logger: logger, heartbeat: heartbeat}
}

// ListTickets GET /api/tickets.
func (h *TicketsHandler) ListTickets(c *fiber.Ctx) error {
	tickets, err := h.service.List(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewTicketList(tickets)})
}

// CreateTicket POST /api/tickets.
func (h *TicketsHandler) CreateTicket(c *fiber.Ctx) error {
	var req dto.TicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	ticket, err := h.service.Create(actorContext(c), req.Fields())
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.NewTicketResponse(*ticket)})
}

// GetTicket GET /api/tickets/:id.
func (h *TicketsHandler) GetTicket(c *fiber.Ctx) error {
	ticket, err := h.service.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewTicketResponse(*ticket)})
}

// UpdateTicket PUT /api/tickets/:id replaces the ticket's fields.
func (h *TicketsHandler) UpdateTicket(c *fiber.Ctx) error {
	var req dto.TicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	id := c.Params("id")
	if err := h.service.Update(actorContext(c), domain.Ticket{ID: id}.WithFields(req.Fields())); err != nil {
		return err
	}
	ticket, err := h.service.Get(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewTicketResponse(*ticket)})
}

// DeleteTicket DELETE /api/tickets/:id.
func (h *TicketsHandler) DeleteTicket(c *fiber.Ctx) error {
	if err := h.service.Delete(actorContext(c), c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

// Stream GET /api/tickets/stream sends a "snapshot" event with the whole list right
// away and after every change. If the subscription fails it sends one "error" event
// and closes the stream.
func (h *TicketsHandler) Stream(c *fiber.Ctx) error {
	setEventStreamHeaders(c)
	logger := h.logger
	heartbeat := h.heartbeat
	svc := h.service

	c.Context().SetBodyStreamWriter(fasthttp.StreamWriter(func(w *bufio.Writer) {
		snapshots := make(chan []domain.Ticket, 1)
		failures := make(chan error, 1)
		unsubscribe := svc.Subscribe(
			func(tickets []domain.Ticket) { offerLatest(snapshots, tickets) },
			func(err error) { failures <- err },
		)
		defer unsubscribe()

		ticker := time.NewTicker(heartbeat)
		defer ticker.Stop()

		for {
			select {
			case tickets := <-snapshots:
				if err := writeEvent(w, "snapshot", dto.NewTicketList(tickets)); err != nil {
					return
				}
			case err := <-failures:
				logger.Warn("ticket stream failed", zap.Error(err))
				_ = writeEvent(w, "error", fiber.Map{"message": err.Error()})
				return
			case <-ticker.C:
				if err := writePing(w); err != nil {
					return
				}
			}
		}
	}))
	return nil
}

// offerLatest replaces whatever is buffered in ch with v. It relies on a single sender.
func offerLatest(ch chan []domain.Ticket, v []domain.Ticket) {
	for {
		select {
		case ch <- v:
			return
		default:
			select {
			case <-ch:
			default:
			}
		}
	}
}

func actorContext(c *fiber.Ctx) context.Context {
	ctx := c.UserContext()
	if principal, ok := auth.PrincipalFromContext(c); ok && principal.User != nil {
		ctx = events.WithActor(ctx, events.UserActor(principal.User.ID))
	}
	return ctx
}
