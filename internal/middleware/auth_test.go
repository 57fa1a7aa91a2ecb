package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"event-ticketing-api/internal/models"

	"github.com/golang-jwt/jwt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func newTestAuth() (*AuthMiddleware, *TokenManager) {
	tokens := NewTokenManager(testSecret, "event-ticketing-api")
	return NewAuthMiddleware(tokens, nil), tokens
}

func issue(t *testing.T, tokens *TokenManager, actor models.Actor) string {
	t.Helper()
	token, err := tokens.Issue(actor, time.Hour)
	require.NoError(t, err)
	return token
}

// actorEcho writes the actor id, or "anonymous"
var actorEcho = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	if actor := GetActorFromContext(r.Context()); actor != nil {
		w.Write([]byte(actor.ID + ":" + string(actor.Role)))
		return
	}
	w.Write([]byte("anonymous"))
})

func TestTokenManager_RoundTrip(t *testing.T) {
	_, tokens := newTestAuth()

	token := issue(t, tokens, models.Actor{ID: "user-1", Name: "Ada", Role: models.UserRoleOrganizer})

	actor, err := tokens.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", actor.ID)
	assert.Equal(t, "Ada", actor.Name)
	assert.Equal(t, models.UserRoleOrganizer, actor.Role)
}

func TestTokenManager_Rejects(t *testing.T) {
	_, tokens := newTestAuth()

	expired, err := tokens.Issue(models.Actor{ID: "user-1", Role: models.UserRoleUser}, -time.Minute)
	require.NoError(t, err)

	otherSecret := issue(t, NewTokenManager("other", "event-ticketing-api"), models.Actor{ID: "user-1", Role: models.UserRoleUser})
	otherIssuer := issue(t, NewTokenManager(testSecret, "someone-else"), models.Actor{ID: "user-1", Role: models.UserRoleUser})

	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{
		Role:           models.UserRoleAdmin,
		StandardClaims: jwt.StandardClaims{Subject: "user-1", Issuer: "event-ticketing-api"},
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	badRole, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		Role:           "superuser",
		StandardClaims: jwt.StandardClaims{Subject: "user-1", Issuer: "event-ticketing-api"},
	}).SignedString([]byte(testSecret))
	require.NoError(t, err)

	for name, token := range map[string]string{
		"expired":      expired,
		"other secret": otherSecret,
		"other issuer": otherIssuer,
		"alg none":     unsigned,
		"unknown role": badRole,
		"garbage":      "not.a.token",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := tokens.Parse(token)
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}

	_, err = tokens.Issue(models.Actor{Role: models.UserRoleUser}, time.Hour)
	assert.Error(t, err)
}

func TestAuthMiddleware_OptionalAuth(t *testing.T) {
	auth, tokens := newTestAuth()
	handler := auth.OptionalAuth(actorEcho)

	tests := []struct {
		name     string
		header   string
		expected string
	}{
		{name: "no header", expected: "anonymous"},
		{name: "invalid token", header: "Bearer nope", expected: "anonymous"},
		{name: "wrong scheme", header: "Basic dXNlcjpwYXNz", expected: "anonymous"},
		{
			name:     "valid token",
			header:   "Bearer " + issue(t, tokens, models.Actor{ID: "staff-1", Role: models.UserRoleUser}),
			expected: "staff-1:user",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/api/tickets/validate/TKT-1/ABC123", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, req)

			assert.Equal(t, http.StatusOK, rr.Code)
			assert.Equal(t, tt.expected, rr.Body.String())
		})
	}
}

func TestAuthMiddleware_RequireAuth(t *testing.T) {
	auth, tokens := newTestAuth()
	handler := auth.RequireAuth(actorEcho)

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest("GET", "/api/tickets/my-tickets", nil))
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.Equal(t, "UNAUTHORIZED", decodeError(t, rr).Code)

	req := httptest.NewRequest("GET", "/api/tickets/my-tickets", nil)
	req.Header.Set("Authorization", "Bearer broken")
	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	req = httptest.NewRequest("GET", "/api/tickets/my-tickets", nil)
	req.Header.Set("Authorization", "bearer "+issue(t, tokens, models.Actor{ID: "user-1", Role: models.UserRoleUser}))
	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "user-1:user", rr.Body.String())
}

func TestRequireRole(t *testing.T) {
	handler := RequireRole(models.UserRoleOrganizer, models.UserRoleAdmin)(actorEcho)

	tests := []struct {
		name     string
		actor    *models.Actor
		expected int
	}{
		{name: "anonymous", actor: nil, expected: http.StatusUnauthorized},
		{name: "user", actor: &models.Actor{ID: "u", Role: models.UserRoleUser}, expected: http.StatusForbidden},
		{name: "organizer", actor: &models.Actor{ID: "o", Role: models.UserRoleOrganizer}, expected: http.StatusOK},
		{name: "admin", actor: &models.Actor{ID: "a", Role: models.UserRoleAdmin}, expected: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/api/tickets/event/evt-1", nil)
			if tt.actor != nil {
				req = req.WithContext(WithActor(req.Context(), tt.actor))
			}
			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, req)
			assert.Equal(t, tt.expected, rr.Code)
		})
	}
}

func TestGetActorFromContext(t *testing.T) {
	req := httptest.NewRequest("GET", "/", nil)
	assert.Nil(t, GetActorFromContext(req.Context()))

	actor := &models.Actor{ID: "user-1", Role: models.UserRoleUser}
	assert.Same(t, actor, GetActorFromContext(WithActor(req.Context(), actor)))
}
