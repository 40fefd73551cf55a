package repository

import (
	"context"
	"database/sql"

	"phone-verification/internal/audit/domain"
)

type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns an audit log repository that uses the given db for persistence.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create persists the audit log. The audit log must have ID set.
func (r *PostgresRepository) Create(ctx context.Context, a *domain.AuditLog) error {
	username := sql.NullString{String: a.Username, Valid: a.Username != ""}
	meta := sql.NullString{String: a.Metadata, Valid: a.Metadata != ""}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO audit_logs (id, flow_id, username, action, resource, ip, metadata, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		a.ID, a.FlowID, username, a.Action, a.Resource, a.IP, meta, a.CreatedAt)
	return err
}

// ListByFlow returns the audit logs of one flow, oldest first.
func (r *PostgresRepository) ListByFlow(ctx context.Context, flowID string) ([]*domain.AuditLog, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, flow_id, username, action, resource, ip, metadata, created_at
		 FROM audit_logs WHERE flow_id = $1 ORDER BY created_at`, flowID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*domain.AuditLog
	for rows.Next() {
		var (
			a        domain.AuditLog
			username sql.NullString
			meta     sql.NullString
		)
		if err := rows.Scan(&a.ID, &a.FlowID, &username, &a.Action, &a.Resource, &a.IP, &meta, &a.CreatedAt); err != nil {
			return nil, err
		}
		a.Username = username.String
		a.Metadata = meta.String
		out = append(out, &a)
	}
	return out, rows.Err()
}
