package services

import (
	"context"
	"encoding/json"
	"log/slog"

	"event-ticketing-api/internal/models"
)

// AuditLogRepository is the storage used by AuditService
type AuditLogRepository interface {
	Create(ctx context.Context, entry *models.AuditLog) error
	GetByTarget(ctx context.Context, targetType, targetID string, limit, offset int) ([]*models.AuditLog, int, error)
}

// AuditService records administrative actions. A nil *AuditService records
// nothing.
type AuditService struct {
	repo   AuditLogRepository
	ids    IdentityGenerator
	clock  Clock
	logger *slog.Logger
}

// NewAuditService creates a new audit service
func NewAuditService(repo AuditLogRepository, ids IdentityGenerator, clock Clock, logger *slog.Logger) *AuditService {
	if ids == nil {
		ids = RandomIdentityGenerator{}
	}
	if clock == nil {
		clock = SystemClock{}
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &AuditService{repo: repo, ids: ids, clock: clock, logger: logger.With("component", "audit")}
}

// LogAction records an action taken by actor. The action has already
// happened, so storage failures are logged rather than returned.
func (s *AuditService) LogAction(ctx context.Context, actor *models.Actor, action, targetType, targetID string, details interface{}) {
	if s == nil || actor == nil {
		return
	}

	entry := &models.AuditLog{
		ID:         s.ids.NewID(),
		ActorID:    actor.ID,
		ActorRole:  actor.Role,
		Action:     action,
		TargetType: targetType,
		TargetID:   targetID,
		CreatedAt:  s.clock.Now(),
	}

	if details != nil {
		raw, err := json.Marshal(details)
		if err != nil {
			s.logger.WarnContext(ctx, "failed to encode audit details", "action", action, "error", err)
		} else {
			entry.Details = raw
		}
	}

	if err := s.repo.Create(context.WithoutCancel(ctx), entry); err != nil {
		s.logger.ErrorContext(ctx, "failed to write audit log",
			"action", action,
			"target_type", targetType,
			"target_id", targetID,
			"error", err,
		)
	}
}

// GetByTarget returns the audit trail of one event or ticket
func (s *AuditService) GetByTarget(ctx context.Context, targetType, targetID string, limit int) ([]*models.AuditLog, error) {
	if s == nil {
		return []*models.AuditLog{}, nil
	}

	entries, _, err := s.repo.GetByTarget(ctx, targetType, targetID, limit, 0)
	if err != nil {
		return nil, err
	}
	if entries == nil {
		entries = []*models.AuditLog{}
	}
	return entries, nil
}
