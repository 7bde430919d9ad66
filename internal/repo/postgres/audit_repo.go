package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
)

type AuditRepo struct {
	pool *pgxpool.Pool
}

type AuditWriteRecord struct {
	AdminID    int64
	Action     string
	TargetType string
	TargetID   string
	Details    map[string]any
}

func NewAuditRepo(pool *pgxpool.Pool) *AuditRepo {
	return &AuditRepo{pool: pool}
}

func (r *AuditRepo) Insert(ctx context.Context, rec AuditWriteRecord) error {
	if r.pool == nil {
		return fmt.Errorf("postgres pool is nil")
	}
	if strings.TrimSpace(rec.Action) == "" {
		return fmt.Errorf("audit action is required")
	}

	details, err := json.Marshal(rec.Details)
	if err != nil {
		return fmt.Errorf("marshal audit details: %w", err)
	}

	if _, err := r.pool.Exec(ctx, `
INSERT INTO audit_log (
	admin_id,
	action,
	target_type,
	target_id,
	details,
	created_at
) VALUES ($1, $2, $3, $4, $5, NOW())
`, rec.AdminID,
		strings.TrimSpace(rec.Action),
		strings.TrimSpace(rec.TargetType),
		strings.TrimSpace(rec.TargetID),
		details,
	); err != nil {
		return fmt.Errorf("insert audit log entry: %w", err)
	}

	return nil
}
