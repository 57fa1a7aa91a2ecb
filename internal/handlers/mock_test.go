package handlers

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"event-ticketing-api/internal/middleware"
	"event-ticketing-api/internal/models"
	"event-ticketing-api/internal/repositories"
	"event-ticketing-api/internal/services"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockTicketService for testing
type MockTicketService struct {
	mock.Mock
}

func (m *MockTicketService) Purchase(ctx context.Context, req *services.PurchaseRequest, actor *models.Actor) (*services.PurchaseResult, error) {
	args := m.Called(req, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.PurchaseResult), args.Error(1)
}

func (m *MockTicketService) CheckIn(ctx context.Context, ticketNumber, validationCode string, actor *models.Actor) (*services.CheckInResult, error) {
	args := m.Called(ticketNumber, validationCode, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.CheckInResult), args.Error(1)
}

func (m *MockTicketService) CheckInByQR(ctx context.Context, payload string, actor *models.Actor) (*services.CheckInResult, error) {
	args := m.Called(payload, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.CheckInResult), args.Error(1)
}

func (m *MockTicketService) Cancel(ctx context.Context, ticketID string, actor *models.Actor) (*services.CancelResult, error) {
	args := m.Called(ticketID, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.CancelResult), args.Error(1)
}

func (m *MockTicketService) Refund(ctx context.Context, ticketID string, actor *models.Actor) (*services.CancelResult, error) {
	args := m.Called(ticketID, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.CancelResult), args.Error(1)
}

func (m *MockTicketService) GetForOwner(ctx context.Context, ticketID, userID string) (*services.TicketView, error) {
	args := m.Called(ticketID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.TicketView), args.Error(1)
}

func (m *MockTicketService) ListForUser(ctx context.Context, userID string, filter services.TicketListFilter) ([]*models.Ticket, int, error) {
	args := m.Called(userID, filter)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]*models.Ticket), args.Int(1), args.Error(2)
}

func (m *MockTicketService) EventTickets(ctx context.Context, eventID string, actor *models.Actor) (*services.EventTicketReport, error) {
	args := m.Called(eventID, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.EventTicketReport), args.Error(1)
}

func (m *MockTicketService) EventStats(ctx context.Context, eventID string, actor *models.Actor) ([]repositories.StatusStat, error) {
	args := m.Called(eventID, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]repositories.StatusStat), args.Error(1)
}

// MockEventService for testing
type MockEventService struct {
	mock.Mock
}

func (m *MockEventService) Create(ctx context.Context, req *models.EventCreateRequest, actor *models.Actor) (*models.Event, error) {
	args := m.Called(req, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Event), args.Error(1)
}

func (m *MockEventService) Get(ctx context.Context, id string) (*models.Event, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Event), args.Error(1)
}

func (m *MockEventService) ListUpcoming(ctx context.Context, limit int) ([]*models.Event, error) {
	args := m.Called(limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Event), args.Error(1)
}

func (m *MockEventService) Validate(ctx context.Context, id string, actor *models.Actor) (*models.Event, error) {
	args := m.Called(id, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Event), args.Error(1)
}

func (m *MockEventService) Reject(ctx context.Context, id string, actor *models.Actor) (*models.Event, error) {
	args := m.Called(id, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Event), args.Error(1)
}

func (m *MockEventService) Cancel(ctx context.Context, id string, actor *models.Actor) (*models.Event, error) {
	args := m.Called(id, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Event), args.Error(1)
}

func (m *MockEventService) CanDelete(ctx context.Context, id string) (bool, error) {
	args := m.Called(id)
	return args.Bool(0), args.Error(1)
}

func (m *MockEventService) AuditTrail(ctx context.Context, id string, actor *models.Actor) ([]*models.AuditLog, error) {
	args := m.Called(id, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.AuditLog), args.Error(1)
}

var (
	buyer     = &models.Actor{ID: "user-1", Name: "Ada Lovelace", Role: models.UserRoleUser}
	organizer = &models.Actor{ID: "org-1", Name: "Grace Hopper", Role: models.UserRoleOrganizer}
	admin     = &models.Actor{ID: "admin-1", Name: "Root", Role: models.UserRoleAdmin}
)

// withActor injects actor into every request the router serves
func withActor(actor *models.Actor) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if actor != nil {
				r = r.WithContext(middleware.WithActor(r.Context(), actor))
			}
			next.ServeHTTP(w, r)
		})
	}
}

func newTestRouter(actor *models.Actor, mount func(r chi.Router)) http.Handler {
	r := chi.NewRouter()
	r.Use(withActor(actor))
	mount(r)
	return r
}

func doRequest(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()

	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeSuccess(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()

	var body struct {
		Success bool                   `json:"success"`
		Message string                 `json:"message"`
		Data    map[string]interface{} `json:"data"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	require.True(t, body.Success)
	return body.Data
}

func decodeFailure(t *testing.T, rec *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()

	var body ErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	return body
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
