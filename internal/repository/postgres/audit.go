package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/medicare-api/internal/model"
)

type auditRepository struct {
	BaseRepository
}

type auditRow struct {
	ID           uuid.UUID `db:"id"`
	UserID       uuid.UUID `db:"user_id"`
	Action       string    `db:"action"`
	ResourceType string    `db:"resource_type"`
	ResourceID   string    `db:"resource_id"`
	IPAddress    string    `db:"ip_address"`
	Details      []byte    `db:"details"`
	Timestamp    time.Time `db:"timestamp"`
}

func (r *auditRepository) Create(ctx context.Context, log *model.AuditLog) error {
	// NULL rather than an empty byte string, which is not valid JSONB.
	var details interface{}
	if len(log.Details) > 0 {
		raw, err := json.Marshal(log.Details)
		if err != nil {
			return fmt.Errorf("failed to marshal audit details: %w", err)
		}
		details = string(raw)
	}

	query := `
        INSERT INTO audit_logs (
            id, user_id, action, resource_type, resource_id, ip_address, details, timestamp
        ) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
    `
	_, err := r.db.ExecContext(ctx, query,
		log.ID,
		log.UserID,
		log.Action,
		log.ResourceType,
		log.ResourceID,
		log.IPAddress,
		details,
		log.Timestamp,
	)
	return wrap(err, "create audit log")
}

func (r *auditRepository) List(ctx context.Context, userID uuid.UUID, limit int) ([]*model.AuditLog, error) {
	query := `
        SELECT id, user_id, action, resource_type, resource_id, ip_address, details, timestamp
        FROM audit_logs WHERE 1=1
    `
	var args []interface{}

	if userID != uuid.Nil {
		args = append(args, userID)
		query += fmt.Sprintf(" AND user_id = $%d", len(args))
	}

	query += " ORDER BY timestamp DESC"

	if limit > 0 {
		args = append(args, limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	var rows []auditRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, wrap(err, "list audit logs")
	}

	logs := make([]*model.AuditLog, 0, len(rows))
	for _, row := range rows {
		entry := &model.AuditLog{
			ID:           row.ID,
			UserID:       row.UserID,
			Action:       row.Action,
			ResourceType: row.ResourceType,
			ResourceID:   row.ResourceID,
			IPAddress:    row.IPAddress,
			Timestamp:    row.Timestamp,
		}
		if len(row.Details) > 0 {
			if err := json.Unmarshal(row.Details, &entry.Details); err != nil {
				return nil, fmt.Errorf("failed to decode audit details: %w", err)
			}
		}
		logs = append(logs, entry)
	}
	return logs, nil
}
