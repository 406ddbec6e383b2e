package handlers

import (
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/help-queue/internal/api/dto"
	"github.com/spec-kit/help-queue/internal/service"
	apperrors "github.com/spec-kit/help-queue/pkg/util"
)

// SessionHandler serves the sign-in page and keeps the session cookie.
type SessionHandler struct {
	auth         *service.AuthService
	sessions     *service.QueueSessions
	cookieName   string
	secureCookie bool
}

// NewSessionHandler constructs handler.
func NewSessionHandler(authService *service.AuthService, sessions *service.QueueSessions, cookieName string, secureCookie bool) *SessionHandler {
	return &SessionHandler{auth: authService, sessions: sessions, cookieName: cookieName, secureCookie: secureCookie}
}

// Page GET /sign-in.
func (h *SessionHandler) Page(c *fiber.Ctx) error {
	return renderPage(c, http.StatusOK, "signin", h.pageFor(c, ""))
}

// SignUp POST /sign-up registers and signs in.
func (h *SessionHandler) SignUp(c *fiber.Ctx) error {
	var req dto.UserRegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return h.fail(c, apperrors.NewValidationError("invalid form", nil))
	}
	_, token, exp, err := h.auth.RegisterUser(c.UserContext(), req.Name, req.Email, req.Password)
	if err != nil {
		return h.fail(c, err)
	}
	h.setCookie(c, token, exp)
	return c.Redirect("/queue", http.StatusSeeOther)
}

// SignIn POST /sign-in.
func (h *SessionHandler) SignIn(c *fiber.Ctx) error {
	var req dto.UserLoginRequest
	if err := c.BodyParser(&req); err != nil {
		return h.fail(c, apperrors.NewValidationError("invalid form", nil))
	}
	_, token, exp, err := h.auth.LoginUser(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return h.fail(c, err)
	}
	h.setCookie(c, token, exp)
	return c.Redirect("/queue", http.StatusSeeOther)
}

// SignOut POST /sign-out releases the user's queue screen and clears the cookie.
func (h *SessionHandler) SignOut(c *fiber.Ctx) error {
	if user := currentUser(c); user != nil {
		h.sessions.Release(user.ID)
	}
	c.Cookie(&fiber.Cookie{
		Name:     h.cookieName,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		HTTPOnly: true,
		Secure:   h.secureCookie,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
	return c.Redirect("/sign-in", http.StatusSeeOther)
}

func (h *SessionHandler) fail(c *fiber.Ctx, err error) error {
	domainErr := apperrors.ToDomainError(err)
	if domainErr.HTTPStatus >= http.StatusInternalServerError {
		return err
	}
	return renderPage(c, domainErr.HTTPStatus, "signin", h.pageFor(c, domainErr.Message))
}

func (h *SessionHandler) pageFor(c *fiber.Ctx, notice string) pageData {
	data := pageData{Notice: notice}
	if user := currentUser(c); user != nil {
		u := dto.NewUserResponse(user)
		data.User = &u
	}
	return data
}

func (h *SessionHandler) setCookie(c *fiber.Ctx, token string, expires time.Time) {
	c.Cookie(&fiber.Cookie{
		Name:     h.cookieName,
		Value:    token,
		Path:     "/",
		Expires:  expires,
		HTTPOnly: true,
		Secure:   h.secureCookie,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}
