package http

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/tickethelp/repair-service/internal/api/http/handlers"
	"github.com/tickethelp/repair-service/internal/auth"
	"github.com/tickethelp/repair-service/internal/config"
	"github.com/tickethelp/repair-service/internal/domain"
	"github.com/tickethelp/repair-service/internal/events"
	"github.com/tickethelp/repair-service/internal/observability"
	"github.com/tickethelp/repair-service/internal/service"
	"github.com/tickethelp/repair-service/internal/testutil"
)

type testServer struct {
	app    *fiber.App
	store  *testutil.MemoryStore
	cast   testutil.Cast
	tokens *auth.TokenManager
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	authz, err := auth.NewAuthorizer()
	require.NoError(t, err)

	store := testutil.NewMemoryStore()
	cast := testutil.SeedCast(store)
	logger := zap.NewNop()
	deps := service.Dependencies{
		Store:      store,
		Authorizer: authz,
		Dispatcher: events.NewInMemoryDispatcher(),
		Logger:     logger,
	}
	cfg := config.Config{Auth: config.AuthConfig{JWTSecret: "test-secret", AccessTokenTTLMinutes: 5}}
	authService := service.NewAuthService(cfg, store.Repos().Users)
	metrics := observability.NewMetrics()

	app := fiber.New()
	RegisterMiddlewares(app, logger, metrics, 5*time.Second)
	RegisterRoutes(app, RouteConfig{
		Health:         handlers.NewHealthHandler("repair-ticket-service", "test", metrics, nil),
		Auth:           handlers.NewAuthHandler(authService),
		Tickets:        handlers.NewTicketsHandler(service.NewTicketService(deps)),
		Parts:          handlers.NewPartsHandler(service.NewPartService(deps)),
		StateRequests:  handlers.NewStateRequestsHandler(service.NewStateChangeService(deps)),
		Statuses:       handlers.NewStatusesHandler(service.NewCatalogService(deps)),
		AuthMiddleware: auth.NewAuthMiddleware(authService.TokenManager(), store.Repos().Users),
	})

	return &testServer{app: app, store: store, cast: cast, tokens: authService.TokenManager()}
}

func (s *testServer) do(t *testing.T, method, path string, user *domain.User, body any) (int, map[string]any) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	if user != nil {
		token, _, err := s.tokens.GenerateToken(user)
		require.NoError(t, err)
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	}

	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	var payload map[string]any
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &payload), string(raw))
	}
	return resp.StatusCode, payload
}

func (s *testServer) assignedTicket(code string) *domain.Ticket {
	return s.store.AddTicket(domain.Ticket{
		Administrator: s.cast.Admin.Ref(),
		Technician:    s.cast.Tech.Ref(),
		Client:        s.cast.Client.Ref(),
		Status:        testutil.Status(code),
		Description:   "Does not boot",
		Equipment:     "Laptop",
	})
}

func errorCode(payload map[string]any) string {
	errBody, _ := payload["error"].(map[string]any)
	code, _ := errBody["code"].(string)
	return code
}

func data(payload map[string]any) map[string]any {
	d, _ := payload["data"].(map[string]any)
	return d
}

func TestHealthAndMetrics(t *testing.T) {
	s := newTestServer(t)

	status, body := s.do(t, fiber.MethodGet, "/health/live", nil, nil)
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "alive", body["status"])

	status, body = s.do(t, fiber.MethodGet, "/health/ready", nil, nil)
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "ready", body["status"])

	status, body = s.do(t, fiber.MethodGet, "/metrics", nil, nil)
	assert.Equal(t, fiber.StatusOK, status)
	requests, _ := body["requests"].(map[string]any)
	assert.Contains(t, requests, "/health/live|GET|200")
}

func TestLoginAndMe(t *testing.T) {
	s := newTestServer(t)
	hash, err := auth.HashPassword("s3cret-pass", bcrypt.MinCost)
	require.NoError(t, err)
	s.store.AddUser(domain.User{
		ID: 20, Document: "9000000001", Email: "login@test.com", FirstName: "Login",
		Role: domain.RoleTech, PasswordHash: hash, IsActive: true,
	})

	status, body := s.do(t, fiber.MethodPost, "/auth/login", nil, map[string]string{"email": "login@test.com", "password": "wrong"})
	assert.Equal(t, fiber.StatusUnauthorized, status)
	assert.Equal(t, "UNAUTHORIZED", errorCode(body))

	status, body = s.do(t, fiber.MethodPost, "/auth/login", nil, map[string]string{"email": "nope"})
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, "VALIDATION_FAILED", errorCode(body))

	status, body = s.do(t, fiber.MethodPost, "/auth/login", nil, map[string]string{"email": "login@test.com", "password": "s3cret-pass"})
	require.Equal(t, fiber.StatusOK, status)
	token, _ := data(body)["token"].(string)
	require.NotEmpty(t, token)

	req := httptest.NewRequest(fiber.MethodGet, "/auth/me", nil)
	req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	s := newTestServer(t)

	status, body := s.do(t, fiber.MethodGet, "/tickets", nil, nil)
	assert.Equal(t, fiber.StatusUnauthorized, status)
	assert.Equal(t, "UNAUTHORIZED", errorCode(body))
}

func TestUnknownRouteAndBadIDs(t *testing.T) {
	s := newTestServer(t)

	status, body := s.do(t, fiber.MethodGet, "/nowhere", s.cast.Admin, nil)
	assert.Equal(t, fiber.StatusNotFound, status)
	assert.Equal(t, "NOT_FOUND", errorCode(body))

	status, _ = s.do(t, fiber.MethodGet, "/tickets/abc", s.cast.Admin, nil)
	assert.Equal(t, fiber.StatusNotFound, status)
}

func TestTicketCreateUpdateAndHistory(t *testing.T) {
	s := newTestServer(t)

	status, body := s.do(t, fiber.MethodPost, "/tickets", s.cast.Admin, map[string]any{
		"descripcion": "No enciende",
		"equipo":      "Laptop",
		"prioridad":   "high",
		"tecnico":     s.cast.Tech.ID,
		"cliente":     s.cast.Client.ID,
	})
	require.Equal(t, fiber.StatusCreated, status, body)
	created := data(body)
	ticketID := int64(created["id"].(float64))
	assert.Equal(t, "high", created["prioridad"])
	assert.Equal(t, "open", created["estado"].(map[string]any)["codigo"])

	status, body = s.do(t, fiber.MethodPost, "/tickets", s.cast.Admin, map[string]any{"prioridad": "someday"})
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Contains(t, body["error"].(map[string]any)["details"], "prioridad")

	path := fmt.Sprintf("/tickets/%d", ticketID)
	status, body = s.do(t, fiber.MethodPatch, path, s.cast.Tech, map[string]any{"estado": 2})
	assert.Equal(t, fiber.StatusForbidden, status, body)

	status, body = s.do(t, fiber.MethodPatch, path, s.cast.Admin, map[string]any{"estado": 2})
	require.Equal(t, fiber.StatusOK, status, body)
	assert.Equal(t, "diagnosis", data(body)["estado"].(map[string]any)["codigo"])

	status, body = s.do(t, fiber.MethodGet, path+"/history", s.cast.Client, nil)
	require.Equal(t, fiber.StatusOK, status)
	entries := body["data"].([]any)
	require.Len(t, entries, 2)
	newest := entries[0].(map[string]any)
	assert.Contains(t, newest["accion"], "Status changed")
	assert.Equal(t, "Abierto", newest["estado_anterior"])

	status, _ = s.do(t, fiber.MethodGet, path, s.cast.OtherTech, nil)
	assert.Equal(t, fiber.StatusNotFound, status)
}

func TestListTicketsScopedToTechnician(t *testing.T) {
	s := newTestServer(t)
	s.assignedTicket(domain.StatusCodeOpen)
	s.store.AddTicket(domain.Ticket{Technician: s.cast.OtherTech.Ref(), Equipment: "Printer"})

	status, body := s.do(t, fiber.MethodGet, "/tickets?page=1&page_size=10", s.cast.Tech, nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, float64(1), body["total"])

	status, body = s.do(t, fiber.MethodGet, "/tickets", s.cast.Owner, nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, float64(2), body["total"])
}

func TestCreatePart_AssignedTechnician(t *testing.T) {
	s := newTestServer(t)
	ticket := s.assignedTicket(domain.StatusCodeDiagnosis)
	path := fmt.Sprintf("/tickets/%d/repuestos", ticket.ID)

	status, body := s.do(t, fiber.MethodPost, path, s.cast.Tech, map[string]any{
		"nombre":   "Fan",
		"costo":    "25.50",
		"cantidad": 2,
	})
	require.Equal(t, fiber.StatusCreated, status, body)
	part := body["repuesto"].(map[string]any)
	assert.Equal(t, "51.00", part["costo_total"])
	assert.Equal(t, "25.50", part["costo"])

	history := s.store.History(ticket.ID)
	require.Len(t, history, 1)
	assert.Contains(t, history[0].Action, "Fan")

	status, body = s.do(t, fiber.MethodGet, path, s.cast.Tech, nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, float64(1), body["total_repuestos"])
	assert.Equal(t, 51.0, body["total_costo"])
	assert.Equal(t, float64(ticket.ID), body["ticket_id"])
}

func TestCreatePart_Rejections(t *testing.T) {
	s := newTestServer(t)
	open := s.assignedTicket(domain.StatusCodeInRepair)
	closed := s.assignedTicket(domain.StatusCodeClosed)
	fan := map[string]any{"nombre": "Fan", "costo": 10, "cantidad": 1}

	tests := []struct {
		name       string
		ticketID   int64
		user       *domain.User
		body       map[string]any
		wantStatus int
		wantCode   string
	}{
		{"other technician", open.ID, s.cast.OtherTech, fan, fiber.StatusForbidden, "FORBIDDEN"},
		{"admin", open.ID, s.cast.Admin, fan, fiber.StatusForbidden, "FORBIDDEN"},
		{"closed ticket", closed.ID, s.cast.Tech, fan, fiber.StatusBadRequest, "VALIDATION_FAILED"},
		{"missing ticket", 9999, s.cast.Tech, fan, fiber.StatusNotFound, "NOT_FOUND"},
		{"non positive cost", open.ID, s.cast.Tech, map[string]any{"nombre": "Fan", "costo": 0}, fiber.StatusBadRequest, "VALIDATION_FAILED"},
		{"three decimal cost", open.ID, s.cast.Tech, map[string]any{"nombre": "Fan", "costo": "25.555", "cantidad": 2}, fiber.StatusBadRequest, "VALIDATION_FAILED"},
		{"sub-cent cost", open.ID, s.cast.Tech, map[string]any{"nombre": "Washer", "costo": 0.004, "cantidad": 1}, fiber.StatusBadRequest, "VALIDATION_FAILED"},
		{"invalid body before assignment", open.ID, s.cast.OtherTech, map[string]any{"costo": 5}, fiber.StatusBadRequest, "VALIDATION_FAILED"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			status, body := s.do(t, fiber.MethodPost, fmt.Sprintf("/tickets/%d/repuestos", tc.ticketID), tc.user, tc.body)
			assert.Equal(t, tc.wantStatus, status, body)
			assert.Equal(t, tc.wantCode, errorCode(body))
		})
	}
	assert.Equal(t, 0, s.store.PartCount())
}

func TestListParts_HiddenFromOthers(t *testing.T) {
	s := newTestServer(t)
	ticket := s.assignedTicket(domain.StatusCodeInRepair)
	s.store.AddPart(domain.Part{TicketID: ticket.ID, Name: "Fan", Quantity: 1, RegisteredBy: s.cast.Tech.Ref()})

	status, body := s.do(t, fiber.MethodGet, fmt.Sprintf("/tickets/%d/repuestos", ticket.ID), s.cast.Admin, nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "No parts registered for this ticket.", body["message"])
	assert.Empty(t, body["repuestos"])
	assert.Equal(t, float64(0), body["total_costo"])
}

func TestPartDetail(t *testing.T) {
	s := newTestServer(t)
	ticket := s.assignedTicket(domain.StatusCodeInRepair)
	other := s.assignedTicket(domain.StatusCodeInRepair)
	status, body := s.do(t, fiber.MethodPost, fmt.Sprintf("/tickets/%d/repuestos", ticket.ID), s.cast.Tech, map[string]any{
		"nombre": "Fan", "costo": "25.50", "cantidad": 2, "serial": "SN-1",
	})
	require.Equal(t, fiber.StatusCreated, status, body)
	partID := int64(body["repuesto"].(map[string]any)["id"].(float64))
	path := fmt.Sprintf("/tickets/%d/repuestos/%d", ticket.ID, partID)

	status, _ = s.do(t, fiber.MethodGet, fmt.Sprintf("/tickets/%d/repuestos/%d", other.ID, partID), s.cast.Tech, nil)
	assert.Equal(t, fiber.StatusNotFound, status)

	status, _ = s.do(t, fiber.MethodGet, path, s.cast.OtherTech, nil)
	assert.Equal(t, fiber.StatusNotFound, status)

	status, body = s.do(t, fiber.MethodPatch, path, s.cast.Tech, map[string]any{"cantidad": 3})
	require.Equal(t, fiber.StatusOK, status, body)
	patched := body["repuesto"].(map[string]any)
	assert.Equal(t, "76.50", patched["costo_total"])
	assert.Equal(t, "SN-1", patched["serial"])

	status, body = s.do(t, fiber.MethodPut, path, s.cast.Tech, map[string]any{"nombre": "Fan v2", "costo": "30"})
	require.Equal(t, fiber.StatusOK, status, body)
	replaced := body["repuesto"].(map[string]any)
	assert.Equal(t, float64(1), replaced["cantidad"])
	assert.Nil(t, replaced["serial"])

	status, body = s.do(t, fiber.MethodDelete, path, s.cast.Tech, nil)
	require.Equal(t, fiber.StatusOK, status, body)
	assert.Contains(t, body["message"], "Fan v2")
	assert.Len(t, s.store.History(ticket.ID), 4)
}

func TestStateRequest_ApproveOnce(t *testing.T) {
	s := newTestServer(t)
	ticket := s.assignedTicket(domain.StatusCodeDiagnosis)

	status, body := s.do(t, fiber.MethodPost, fmt.Sprintf("/tickets/%d/state-requests", ticket.ID), s.cast.Tech, map[string]any{
		"to_state": 3,
		"reason":   "diagnosis done",
	})
	require.Equal(t, fiber.StatusCreated, status, body)
	requestID := int64(data(body)["id"].(float64))
	assert.Equal(t, "pending", data(body)["status"])

	status, body = s.do(t, fiber.MethodPost, fmt.Sprintf("/tickets/%d/state-requests", ticket.ID), s.cast.Tech, map[string]any{"to_state": 5})
	assert.Equal(t, fiber.StatusConflict, status)
	assert.Equal(t, "CONFLICT", errorCode(body))

	approvePath := fmt.Sprintf("/state-requests/%d/approve", requestID)
	status, _ = s.do(t, fiber.MethodPost, approvePath, s.cast.Tech, nil)
	assert.Equal(t, fiber.StatusForbidden, status)

	status, body = s.do(t, fiber.MethodPost, approvePath, s.cast.Admin, nil)
	require.Equal(t, fiber.StatusOK, status, body)
	assert.Equal(t, "approved", data(body)["status"])

	stored, ok := s.store.Ticket(ticket.ID)
	require.True(t, ok)
	assert.Equal(t, domain.StatusCodeInRepair, stored.Status.Code)

	status, body = s.do(t, fiber.MethodPost, approvePath, s.cast.Admin, nil)
	assert.Equal(t, fiber.StatusConflict, status)
	assert.Equal(t, "CONFLICT", errorCode(body))

	status, body = s.do(t, fiber.MethodGet, "/state-requests?status=approved", s.cast.Owner, nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.Len(t, body["data"], 1)
}

func TestStateRequest_Reject(t *testing.T) {
	s := newTestServer(t)
	ticket := s.assignedTicket(domain.StatusCodeDiagnosis)

	status, body := s.do(t, fiber.MethodPost, fmt.Sprintf("/tickets/%d/state-requests", ticket.ID), s.cast.Admin, map[string]any{"to_state": 6})
	require.Equal(t, fiber.StatusCreated, status, body)
	requestID := int64(data(body)["id"].(float64))

	status, body = s.do(t, fiber.MethodPost, fmt.Sprintf("/state-requests/%d/reject", requestID), s.cast.Admin, map[string]any{
		"rejection_reason": "tests pending",
	})
	require.Equal(t, fiber.StatusOK, status, body)
	assert.Equal(t, "rejected", data(body)["status"])
	assert.Equal(t, "tests pending", data(body)["rejection_reason"])

	stored, _ := s.store.Ticket(ticket.ID)
	assert.Equal(t, domain.StatusCodeDiagnosis, stored.Status.Code)

	status, body = s.do(t, fiber.MethodGet, fmt.Sprintf("/tickets/%d/state-requests", ticket.ID), s.cast.Client, nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.Len(t, body["data"], 1)
}

func TestStatusCatalog(t *testing.T) {
	s := newTestServer(t)

	status, body := s.do(t, fiber.MethodGet, "/estados", s.cast.Client, nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.Len(t, body["data"], 6)

	status, body = s.do(t, fiber.MethodGet, "/estados/codigo/closed", s.cast.Client, nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, true, data(body)["es_final"])

	status, _ = s.do(t, fiber.MethodGet, "/estados/42", s.cast.Client, nil)
	assert.Equal(t, fiber.StatusNotFound, status)
}
