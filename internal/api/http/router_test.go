package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	nethttp "net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/help-queue/internal/api/http/handlers"
	"github.com/spec-kit/help-queue/internal/auth"
	"github.com/spec-kit/help-queue/internal/config"
	"github.com/spec-kit/help-queue/internal/events"
	"github.com/spec-kit/help-queue/internal/observability"
	"github.com/spec-kit/help-queue/internal/persistence"
	"github.com/spec-kit/help-queue/internal/queue"
	"github.com/spec-kit/help-queue/internal/repository"
	"github.com/spec-kit/help-queue/internal/service"
)

const cookieName = "hq_session"

type testServer struct {
	app      *fiber.App
	repo     *repository.MemoryTicketRepository
	tickets  *service.TicketService
	sessions *service.QueueSessions
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	cfg := config.Config{Auth: config.AuthConfig{
		JWTSecret:             "secret",
		AccessTokenTTLMinutes: 5,
		BcryptCost:            4,
		CookieName:            cookieName,
	}}
	logger := zap.NewNop()
	metrics := observability.NewMetrics()

	repo := repository.NewMemoryTicketRepository()
	users := repository.NewMemoryUserRepository()
	tickets := service.NewTicketService(service.TicketDependencies{
		TicketRepo: repo,
		Dispatcher: events.NewInMemoryDispatcher(),
		Logger:     logger,
	})
	authService := service.NewAuthService(cfg, service.AuthDependencies{UserRepo: users})
	sessions := service.NewQueueSessions(tickets, logger)
	t.Cleanup(sessions.Close)

	var pg *persistence.Postgres
	var rd *persistence.Redis

	app := fiber.New()
	RegisterMiddlewares(app, logger, metrics, 5*time.Second)
	RegisterRoutes(app, RouteConfig{
		Health:         handlers.NewHealthHandler("help-queue", "test", pg, rd, metrics),
		Users:          handlers.NewUsersHandler(authService),
		Tickets:        handlers.NewTicketsHandler(tickets, logger, time.Second),
		Queue:          handlers.NewQueueHandler(sessions, logger, time.Second),
		Session:        handlers.NewSessionHandler(authService, sessions, cookieName, false),
		AuthMiddleware: auth.NewAuthMiddleware(authService.TokenManager(), users, cookieName),
	})
	return &testServer{app: app, repo: repo, tickets: tickets, sessions: sessions}
}

func (s *testServer) do(t *testing.T, req *nethttp.Request) (*nethttp.Response, string) {
	t.Helper()
	resp, err := s.app.Test(req, 5000)
	if err != nil {
		t.Fatalf("%s %s: %v", req.Method, req.URL.Path, err)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	return resp, string(body)
}

func jsonRequest(method, path, token string, body any) *nethttp.Request {
	var r io.Reader
	if body != nil {
		raw, _ := json.Marshal(body)
		r = strings.NewReader(string(raw))
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req
}

func formRequest(path string, cookie *nethttp.Cookie, values url.Values) *nethttp.Request {
	req := httptest.NewRequest(nethttp.MethodPost, path, strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if cookie != nil {
		req.AddCookie(cookie)
	}
	return req
}

func pageRequest(path string, cookie *nethttp.Cookie) *nethttp.Request {
	req := httptest.NewRequest(nethttp.MethodGet, path, nil)
	if cookie != nil {
		req.AddCookie(cookie)
	}
	return req
}

func (s *testServer) register(t *testing.T, email string) string {
	t.Helper()
	resp, body := s.do(t, jsonRequest(nethttp.MethodPost, "/auth/users/register", "", map[string]string{
		"name": "Ada", "email": email, "password": "hunter2",
	}))
	if resp.StatusCode != nethttp.StatusCreated {
		t.Fatalf("register status = %d: %s", resp.StatusCode, body)
	}
	var out struct {
		Data struct {
			Auth struct {
				Token string `json:"token"`
			} `json:"auth"`
		} `json:"data"`
	}
	if err := json.Unmarshal([]byte(body), &out); err != nil {
		t.Fatal(err)
	}
	return out.Data.Auth.Token
}

func (s *testServer) signUp(t *testing.T, email string) *nethttp.Cookie {
	t.Helper()
	resp, body := s.do(t, formRequest("/sign-up", nil, url.Values{
		"name": {"Ada"}, "email": {email}, "password": {"hunter2"},
	}))
	if resp.StatusCode != nethttp.StatusSeeOther {
		t.Fatalf("sign-up status = %d: %s", resp.StatusCode, body)
	}
	for _, c := range resp.Cookies() {
		if c.Name == cookieName {
			return &nethttp.Cookie{Name: c.Name, Value: c.Value}
		}
	}
	t.Fatal("sign-up set no session cookie")
	return nil
}

func (s *testServer) waitForPage(t *testing.T, cookie *nethttp.Cookie, want string) string {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for {
		_, body := s.do(t, pageRequest("/queue", cookie))
		if strings.Contains(body, want) {
			return body
		}
		if time.Now().After(deadline) {
			t.Fatalf("page never contained %q; last body:\n%s", want, body)
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)

	resp, body := s.do(t, httptest.NewRequest(nethttp.MethodGet, "/health/live", nil))
	if resp.StatusCode != nethttp.StatusOK || !strings.Contains(body, "alive") {
		t.Errorf("live = %d %s", resp.StatusCode, body)
	}

	resp, body = s.do(t, httptest.NewRequest(nethttp.MethodGet, "/health/ready", nil))
	if resp.StatusCode != nethttp.StatusOK || !strings.Contains(body, `"postgres":"disabled"`) || !strings.Contains(body, `"redis":"disabled"`) {
		t.Errorf("ready = %d %s", resp.StatusCode, body)
	}

	resp, body = s.do(t, httptest.NewRequest(nethttp.MethodGet, "/health/metrics", nil))
	if resp.StatusCode != nethttp.StatusOK || !strings.Contains(body, "/health/live|GET|200") {
		t.Errorf("metrics = %d %s", resp.StatusCode, body)
	}
}

func TestNotFoundIsJSON(t *testing.T) {
	s := newTestServer(t)
	resp, body := s.do(t, httptest.NewRequest(nethttp.MethodGet, "/nope", nil))
	if resp.StatusCode != nethttp.StatusNotFound || !strings.Contains(body, `"code":"NOT_FOUND"`) {
		t.Errorf("status = %d body = %s", resp.StatusCode, body)
	}
}

func TestAuthEndpoints(t *testing.T) {
	s := newTestServer(t)
	s.register(t, "ada@example.com")

	resp, body := s.do(t, jsonRequest(nethttp.MethodPost, "/auth/users/register", "", map[string]string{
		"name": "Ada", "email": "ada@example.com", "password": "x",
	}))
	if resp.StatusCode != nethttp.StatusConflict {
		t.Errorf("duplicate register = %d %s", resp.StatusCode, body)
	}

	resp, _ = s.do(t, jsonRequest(nethttp.MethodPost, "/auth/users/login", "", map[string]string{
		"email": "ada@example.com", "password": "hunter2",
	}))
	if resp.StatusCode != nethttp.StatusOK {
		t.Errorf("login = %d", resp.StatusCode)
	}

	resp, body = s.do(t, jsonRequest(nethttp.MethodPost, "/auth/users/login", "", map[string]string{
		"email": "ada@example.com", "password": "wrong",
	}))
	if resp.StatusCode != nethttp.StatusUnauthorized || !strings.Contains(body, "UNAUTHORIZED") {
		t.Errorf("bad login = %d %s", resp.StatusCode, body)
	}
}

func TestTicketsAPI(t *testing.T) {
	s := newTestServer(t)

	resp, _ := s.do(t, jsonRequest(nethttp.MethodGet, "/api/tickets", "", nil))
	if resp.StatusCode != nethttp.StatusUnauthorized {
		t.Fatalf("anonymous list = %d, want 401", resp.StatusCode)
	}

	token := s.register(t, "ada@example.com")

	resp, body := s.do(t, jsonRequest(nethttp.MethodPost, "/api/tickets", token, map[string]string{"names": "Ada"}))
	if resp.StatusCode != nethttp.StatusBadRequest || !strings.Contains(body, "VALIDATION_FAILED") {
		t.Errorf("invalid create = %d %s", resp.StatusCode, body)
	}

	resp, body = s.do(t, jsonRequest(nethttp.MethodPost, "/api/tickets", token, map[string]string{
		"names": "Ada & Grace", "location": "4B", "issue": "Firebase won't save record",
	}))
	if resp.StatusCode != nethttp.StatusCreated {
		t.Fatalf("create = %d %s", resp.StatusCode, body)
	}
	var created struct {
		Data struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	if err := json.Unmarshal([]byte(body), &created); err != nil || created.Data.ID == "" {
		t.Fatalf("create body = %s", body)
	}
	id := created.Data.ID

	resp, body = s.do(t, jsonRequest(nethttp.MethodPut, "/api/tickets/"+id, token, map[string]string{
		"names": "Ada & Grace", "location": "4B", "issue": "fixed?",
	}))
	if resp.StatusCode != nethttp.StatusOK || !strings.Contains(body, "fixed?") {
		t.Errorf("update = %d %s", resp.StatusCode, body)
	}

	resp, body = s.do(t, jsonRequest(nethttp.MethodGet, "/api/tickets", token, nil))
	if resp.StatusCode != nethttp.StatusOK || !strings.Contains(body, id) {
		t.Errorf("list = %d %s", resp.StatusCode, body)
	}

	resp, _ = s.do(t, jsonRequest(nethttp.MethodDelete, "/api/tickets/"+id, token, nil))
	if resp.StatusCode != nethttp.StatusNoContent {
		t.Errorf("delete = %d", resp.StatusCode)
	}

	resp, body = s.do(t, jsonRequest(nethttp.MethodGet, "/api/tickets/"+id, token, nil))
	if resp.StatusCode != nethttp.StatusNotFound {
		t.Errorf("get deleted = %d %s", resp.StatusCode, body)
	}
}

func TestTicketStreamReportsFailure(t *testing.T) {
	s := newTestServer(t)
	token := s.register(t, "ada@example.com")
	s.repo.FailList(errors.New("permission-denied"))

	resp, body := s.do(t, jsonRequest(nethttp.MethodGet, "/api/tickets/stream", token, nil))
	if resp.StatusCode != nethttp.StatusOK {
		t.Fatalf("stream status = %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/event-stream") {
		t.Errorf("Content-Type = %q", ct)
	}
	if !strings.Contains(body, "event: error") || !strings.Contains(body, "permission-denied") {
		t.Errorf("stream body = %q", body)
	}
}

func TestQueuePage_SignedOut(t *testing.T) {
	s := newTestServer(t)

	resp, body := s.do(t, pageRequest("/queue", nil))
	if resp.StatusCode != nethttp.StatusOK || !strings.Contains(body, queue.SignInPrompt) {
		t.Errorf("queue page = %d %s", resp.StatusCode, body)
	}
	if !strings.Contains(body, "Help Queue") || !strings.Contains(body, `href="/sign-in"`) {
		t.Error("header missing")
	}

	resp, _ = s.do(t, formRequest("/queue/button", nil, nil))
	if resp.StatusCode != nethttp.StatusSeeOther || resp.Header.Get("Location") != "/sign-in" {
		t.Errorf("anonymous button = %d -> %s", resp.StatusCode, resp.Header.Get("Location"))
	}

	resp, _ = s.do(t, pageRequest("/", nil))
	if resp.StatusCode != nethttp.StatusSeeOther || resp.Header.Get("Location") != "/queue" {
		t.Errorf("home = %d -> %s", resp.StatusCode, resp.Header.Get("Location"))
	}
}

func TestQueuePage_Workflow(t *testing.T) {
	s := newTestServer(t)
	cookie := s.signUp(t, "ada@example.com")

	s.waitForPage(t, cookie, queue.ButtonAddTicket)

	post := func(path string, values url.Values) {
		t.Helper()
		resp, body := s.do(t, formRequest(path, cookie, values))
		if resp.StatusCode != nethttp.StatusSeeOther || resp.Header.Get("Location") != "/queue" {
			t.Fatalf("POST %s = %d -> %s: %s", path, resp.StatusCode, resp.Header.Get("Location"), body)
		}
	}

	post("/queue/button", nil)
	body := s.waitForPage(t, cookie, "New Ticket")
	if !strings.Contains(body, queue.ButtonReturnToList) {
		t.Error("create form without return button")
	}

	post("/queue/create", url.Values{"names": {"Ada & Grace"}, "location": {"4B"}, "issue": {"Firebase won't save record"}})
	s.waitForPage(t, cookie, "Firebase won&#39;t save record")

	tickets, err := s.tickets.List(context.Background())
	if err != nil || len(tickets) != 1 {
		t.Fatalf("List() = %v, %v", tickets, err)
	}
	id := tickets[0].ID

	post("/queue/select/"+id, nil)
	s.waitForPage(t, cookie, "Ticket Detail")

	post("/queue/edit", nil)
	s.waitForPage(t, cookie, "Edit Ticket")

	post("/queue/edit/submit", url.Values{"id": {id}, "names": {"Ada & Grace"}, "location": {"5C"}, "issue": {"still broken"}})
	s.waitForPage(t, cookie, "still broken")

	post("/queue/select/"+id, nil)
	s.waitForPage(t, cookie, "Ticket Detail")
	post("/queue/delete/"+id, nil)
	s.waitForPage(t, cookie, "The queue is empty.")
}

func TestQueuePage_InvalidCreateRejected(t *testing.T) {
	s := newTestServer(t)
	cookie := s.signUp(t, "ada@example.com")

	resp, body := s.do(t, formRequest("/queue/create", cookie, url.Values{"names": {"Ada"}}))
	if resp.StatusCode != nethttp.StatusBadRequest {
		t.Errorf("status = %d %s", resp.StatusCode, body)
	}
}

func TestQueuePage_SubscriptionError(t *testing.T) {
	s := newTestServer(t)
	s.repo.FailList(errors.New("permission-denied"))
	cookie := s.signUp(t, "ada@example.com")

	body := s.waitForPage(t, cookie, queue.ErrorMessagePrefix+"permission-denied")
	if strings.Contains(body, queue.ButtonAddTicket) || strings.Contains(body, queue.ButtonReturnToList) {
		t.Error("error panel shows the add/return button")
	}

	resp, _ := s.do(t, formRequest("/queue/button", cookie, nil))
	if resp.StatusCode != nethttp.StatusSeeOther {
		t.Fatalf("button = %d", resp.StatusCode)
	}
	s.waitForPage(t, cookie, queue.ErrorMessagePrefix+"permission-denied")
}

func TestSignInFlow(t *testing.T) {
	s := newTestServer(t)
	s.signUp(t, "ada@example.com")

	resp, body := s.do(t, formRequest("/sign-in", nil, url.Values{"email": {"ada@example.com"}, "password": {"wrong"}}))
	if resp.StatusCode != nethttp.StatusUnauthorized || !strings.Contains(body, "invalid credentials") {
		t.Errorf("bad sign-in = %d %s", resp.StatusCode, body)
	}

	resp, _ = s.do(t, formRequest("/sign-in", nil, url.Values{"email": {"ada@example.com"}, "password": {"hunter2"}}))
	if resp.StatusCode != nethttp.StatusSeeOther {
		t.Fatalf("sign-in = %d", resp.StatusCode)
	}
	var cookie *nethttp.Cookie
	for _, c := range resp.Cookies() {
		if c.Name == cookieName {
			cookie = &nethttp.Cookie{Name: c.Name, Value: c.Value}
		}
	}
	if cookie == nil {
		t.Fatal("no session cookie")
	}

	_, body = s.do(t, pageRequest("/sign-in", cookie))
	if !strings.Contains(body, "Signed in as Ada") {
		t.Errorf("sign-in page = %s", body)
	}

	s.waitForPage(t, cookie, queue.ButtonAddTicket)
	if s.sessions.Len() != 1 {
		t.Fatalf("sessions = %d, want 1", s.sessions.Len())
	}

	resp, _ = s.do(t, formRequest("/sign-out", cookie, nil))
	if resp.StatusCode != nethttp.StatusSeeOther || resp.Header.Get("Location") != "/sign-in" {
		t.Errorf("sign-out = %d -> %s", resp.StatusCode, resp.Header.Get("Location"))
	}
	if s.sessions.Len() != 0 {
		t.Errorf("sessions = %d after sign-out, want 0", s.sessions.Len())
	}
}

func TestQueueEventsRequiresSignIn(t *testing.T) {
	s := newTestServer(t)
	resp, _ := s.do(t, pageRequest("/queue/events", nil))
	if resp.StatusCode != nethttp.StatusUnauthorized {
		t.Errorf("status = %d, want 401", resp.StatusCode)
	}
}
