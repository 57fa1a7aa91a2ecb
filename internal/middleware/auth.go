package middleware

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"event-ticketing-api/internal/models"

	"github.com/golang-jwt/jwt"
)

type contextKey string

const (
	ActorContextKey contextKey = "actor"
)

// ErrInvalidToken is returned for tokens that fail parsing or validation
var ErrInvalidToken = errors.New("invalid or expired token")

// Claims are the JWT claims carried by bearer tokens
type Claims struct {
	Role models.UserRole `json:"role"`
	Name string          `json:"name,omitempty"`
	jwt.StandardClaims
}

// TokenManager signs and verifies HS256 bearer tokens
type TokenManager struct {
	secret []byte
	issuer string
}

// NewTokenManager creates a token manager for the given secret
func NewTokenManager(secret, issuer string) *TokenManager {
	return &TokenManager{secret: []byte(secret), issuer: issuer}
}

// Issue mints a token for actor valid for ttl
func (m *TokenManager) Issue(actor models.Actor, ttl time.Duration) (string, error) {
	if err := actor.Validate(); err != nil {
		return "", err
	}

	now := time.Now()
	claims := Claims{
		Role: actor.Role,
		Name: actor.Name,
		StandardClaims: jwt.StandardClaims{
			Subject:   actor.ID,
			Issuer:    m.issuer,
			IssuedAt:  now.Unix(),
			ExpiresAt: now.Add(ttl).Unix(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// Parse verifies a token and returns the actor it names
func (m *TokenManager) Parse(tokenString string) (*models.Actor, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return m.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}

	if m.issuer != "" && !claims.VerifyIssuer(m.issuer, true) {
		return nil, ErrInvalidToken
	}

	actor := &models.Actor{ID: claims.Subject, Name: claims.Name, Role: claims.Role}
	if err := actor.Validate(); err != nil {
		return nil, ErrInvalidToken
	}
	return actor, nil
}

// AuthMiddleware provides authentication functionality
type AuthMiddleware struct {
	tokens *TokenManager
	logger *slog.Logger
}

// NewAuthMiddleware creates a new authentication middleware
func NewAuthMiddleware(tokens *TokenManager, logger *slog.Logger) *AuthMiddleware {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthMiddleware{tokens: tokens, logger: logger}
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

// OptionalAuth loads the actor when a valid bearer token is present and
// otherwise continues anonymously.
func (m *AuthMiddleware) OptionalAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			next.ServeHTTP(w, r)
			return
		}

		actor, err := m.tokens.Parse(token)
		if err != nil {
			m.logger.DebugContext(r.Context(), "ignoring invalid bearer token", "error", err)
			next.ServeHTTP(w, r)
			return
		}

		next.ServeHTTP(w, r.WithContext(WithActor(r.Context(), actor)))
	})
}

// RequireAuth middleware ensures the request carries a valid token
func (m *AuthMiddleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			writeError(w, http.StatusUnauthorized, "Access token required", "UNAUTHORIZED")
			return
		}

		actor, err := m.tokens.Parse(token)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "Invalid or expired token", "UNAUTHORIZED")
			return
		}

		next.ServeHTTP(w, r.WithContext(WithActor(r.Context(), actor)))
	})
}

// RequireRole middleware ensures the actor holds one of roles. It must run
// after RequireAuth.
func RequireRole(roles ...models.UserRole) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actor := GetActorFromContext(r.Context())
			if actor == nil {
				writeError(w, http.StatusUnauthorized, "Access token required", "UNAUTHORIZED")
				return
			}

			if !actor.HasRole(roles...) {
				writeError(w, http.StatusForbidden, "Insufficient permissions", "FORBIDDEN")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// WithActor stores the actor in ctx
func WithActor(ctx context.Context, actor *models.Actor) context.Context {
	if entry, ok := ctx.Value(logEntryKey{}).(*logEntry); ok && actor != nil {
		entry.actorID = actor.ID
	}
	return context.WithValue(ctx, ActorContextKey, actor)
}

// GetActorFromContext retrieves the actor from request context
func GetActorFromContext(ctx context.Context) *models.Actor {
	actor, _ := ctx.Value(ActorContextKey).(*models.Actor)
	return actor
}
