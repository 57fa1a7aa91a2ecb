package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"event-ticketing-api/internal/models"
)

// AuditLogRepository handles audit log data operations
type AuditLogRepository struct {
	db *sql.DB
}

// NewAuditLogRepository creates a new audit log repository
func NewAuditLogRepository(db *sql.DB) *AuditLogRepository {
	return &AuditLogRepository{db: db}
}

// Create stores an audit log entry
func (r *AuditLogRepository) Create(ctx context.Context, entry *models.AuditLog) error {
	query := `
		INSERT INTO audit_log (id, actor_id, actor_role, action, target_type, target_id, details, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	var details sql.NullString
	if len(entry.Details) > 0 {
		details = sql.NullString{String: string(entry.Details), Valid: true}
	}

	_, err := r.db.ExecContext(ctx, query,
		entry.ID,
		entry.ActorID,
		entry.ActorRole,
		entry.Action,
		entry.TargetType,
		entry.TargetID,
		details,
		entry.CreatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to create audit log: %w", err)
	}

	return nil
}

// GetByTarget retrieves the audit trail of one event or ticket, newest first
func (r *AuditLogRepository) GetByTarget(ctx context.Context, targetType, targetID string, limit, offset int) ([]*models.AuditLog, int, error) {
	var total int
	err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM audit_log WHERE target_type = $1 AND target_id = $2",
		targetType, targetID,
	).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to get audit log count: %w", err)
	}

	query := `
		SELECT id, actor_id, actor_role, action, target_type, target_id, details, created_at
		FROM audit_log
		WHERE target_type = $1 AND target_id = $2
		ORDER BY created_at DESC, id DESC
		LIMIT $3 OFFSET $4`

	rows, err := r.db.QueryContext(ctx, query, targetType, targetID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query audit logs: %w", err)
	}
	defer rows.Close()

	var entries []*models.AuditLog
	for rows.Next() {
		entry := &models.AuditLog{}
		var details sql.NullString

		err := rows.Scan(
			&entry.ID,
			&entry.ActorID,
			&entry.ActorRole,
			&entry.Action,
			&entry.TargetType,
			&entry.TargetID,
			&details,
			&entry.CreatedAt,
		)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan audit log: %w", err)
		}

		if details.Valid {
			entry.Details = json.RawMessage(details.String)
		}
		entry.CreatedAt = entry.CreatedAt.UTC()
		entries = append(entries, entry)
	}

	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating audit logs: %w", err)
	}

	return entries, total, nil
}
