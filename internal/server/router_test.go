package server

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"event-ticketing-api/internal/handlers"
	"event-ticketing-api/internal/metrics"
	"event-ticketing-api/internal/middleware"
	"event-ticketing-api/internal/models"
	"event-ticketing-api/internal/services"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "router-test-secret"

type stubTickets struct {
	services.TicketServiceInterface
	refunds int
}

func (s *stubTickets) CheckIn(ctx context.Context, number, code string, actor *models.Actor) (*services.CheckInResult, error) {
	return nil, models.ErrTicketNotFound
}

func (s *stubTickets) Refund(ctx context.Context, id string, actor *models.Actor) (*services.CancelResult, error) {
	s.refunds++
	return &services.CancelResult{Ticket: &models.Ticket{ID: id, Status: models.TicketRefunded}}, nil
}

func (s *stubTickets) ListForUser(ctx context.Context, userID string, filter services.TicketListFilter) ([]*models.Ticket, int, error) {
	return nil, 0, nil
}

type stubEvents struct {
	services.EventServiceInterface
}

func (s *stubEvents) ListUpcoming(ctx context.Context, limit int) ([]*models.Event, error) {
	return []*models.Event{}, nil
}

type testServer struct {
	handler http.Handler
	tokens  *middleware.TokenManager
	tickets *stubTickets
	metrics *metrics.Metrics
}

func newTestServer(t *testing.T, checkInAttempts int) *testServer {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	tokens := middleware.NewTokenManager(testSecret, "event-ticketing-api")
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	tickets := &stubTickets{}

	h := NewRouter(Handlers{
		Tickets: handlers.NewTicketHandler(tickets, logger),
		Events:  handlers.NewEventHandler(&stubEvents{}, logger),
		Health:  handlers.NewHealthHandler(nil),
	}, RouterConfig{
		Auth:           middleware.NewAuthMiddleware(tokens, logger),
		CORS:           middleware.DefaultCORSConfig([]string{"https://tickets.example.com"}),
		CheckInLimiter: middleware.NewAttemptLimiter(checkInAttempts, time.Minute),
		Gatherer:       reg,
		Logger:         logger,
	})

	return &testServer{handler: h, tokens: tokens, tickets: tickets, metrics: m}
}

func (s *testServer) do(t *testing.T, method, target string, role models.UserRole) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, target, nil)
	if role != "" {
		token, err := s.tokens.Issue(models.Actor{ID: "actor-1", Name: "Test Actor", Role: role}, time.Hour)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()

	var body struct {
		Code string `json:"code"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	return body.Code
}

func TestRouter_PublicRoutes(t *testing.T) {
	srv := newTestServer(t, 30)

	rec := srv.do(t, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get(middleware.RequestIDHeader))

	rec = srv.do(t, http.MethodGet, "/api/events", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
}

func TestRouter_NotFoundAndMethodNotAllowed(t *testing.T) {
	srv := newTestServer(t, 30)

	rec := srv.do(t, http.MethodGet, "/api/unknown", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "NOT_FOUND", errorCode(t, rec))

	rec = srv.do(t, http.MethodDelete, "/api/tickets/purchase", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.Equal(t, "METHOD_NOT_ALLOWED", errorCode(t, rec))
}

func TestRouter_Authorization(t *testing.T) {
	tests := []struct {
		name       string
		method     string
		target     string
		role       models.UserRole
		wantStatus int
		wantCode   string
	}{
		{"my tickets anonymous", http.MethodGet, "/api/tickets/my-tickets", "", http.StatusUnauthorized, "UNAUTHORIZED"},
		{"my tickets user", http.MethodGet, "/api/tickets/my-tickets", models.UserRoleUser, http.StatusOK, ""},
		{"refund as user", http.MethodPut, "/api/tickets/tkt-1/refund", models.UserRoleUser, http.StatusForbidden, "FORBIDDEN"},
		{"refund as organizer", http.MethodPut, "/api/tickets/tkt-1/refund", models.UserRoleOrganizer, http.StatusForbidden, "FORBIDDEN"},
		{"event tickets as user", http.MethodGet, "/api/tickets/event/evt-1", models.UserRoleUser, http.StatusForbidden, "FORBIDDEN"},
		{"create event anonymous", http.MethodPost, "/api/events", "", http.StatusUnauthorized, "UNAUTHORIZED"},
		{"create event as user", http.MethodPost, "/api/events", models.UserRoleUser, http.StatusForbidden, "FORBIDDEN"},
		{"validate as organizer", http.MethodPut, "/api/admin/events/evt-1/validate", models.UserRoleOrganizer, http.StatusForbidden, "FORBIDDEN"},
		{"reject anonymous", http.MethodPut, "/api/admin/events/evt-1/reject", "", http.StatusUnauthorized, "UNAUTHORIZED"},
		{"audit as organizer", http.MethodGet, "/api/admin/events/evt-1/audit", models.UserRoleOrganizer, http.StatusForbidden, "FORBIDDEN"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newTestServer(t, 30)
			rec := srv.do(t, tt.method, tt.target, tt.role)

			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantCode != "" {
				assert.Equal(t, tt.wantCode, errorCode(t, rec))
			}
		})
	}
}

func TestRouter_AdminRefund(t *testing.T) {
	srv := newTestServer(t, 30)

	rec := srv.do(t, http.MethodPut, "/api/tickets/tkt-1/refund", models.UserRoleAdmin)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, srv.tickets.refunds)
}

func TestRouter_CheckInRateLimit(t *testing.T) {
	srv := newTestServer(t, 2)

	for i := 0; i < 2; i++ {
		rec := srv.do(t, http.MethodGet, "/api/tickets/validate/TKT-1/BADCODE", "")
		assert.Equal(t, http.StatusNotFound, rec.Code)
	}

	rec := srv.do(t, http.MethodGet, "/api/tickets/validate/TKT-1/BADCODE", "")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
	assert.Equal(t, "RATE_LIMITED", errorCode(t, rec))

	// other routes are not limited
	rec = srv.do(t, http.MethodGet, "/api/events", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRouter_CORSPreflight(t *testing.T) {
	srv := newTestServer(t, 30)

	req := httptest.NewRequest(http.MethodOptions, "/api/tickets/purchase", nil)
	req.Header.Set("Origin", "https://tickets.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	srv.handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "https://tickets.example.com", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestRouter_Metrics(t *testing.T) {
	srv := newTestServer(t, 30)
	srv.metrics.TrackCheckIn("accepted")

	rec := srv.do(t, http.MethodGet, "/metrics", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), `ticket_checkins_total{result="accepted"} 1`))
}
