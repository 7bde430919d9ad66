package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/communa-app/backend/internal/domain/enums"
	"github.com/communa-app/backend/internal/domain/model"
)

var ErrViolationNotFound = errors.New("violation not found")

type ViolationRepo struct {
	pool *pgxpool.Pool
}

func NewViolationRepo(pool *pgxpool.Pool) *ViolationRepo {
	return &ViolationRepo{pool: pool}
}

// Insert persists a fully constructed violation record. The id is assigned
// by the caller so a failed insert can fall back to the same in-memory record.
func (r *ViolationRepo) Insert(ctx context.Context, v model.Violation) error {
	if r.pool == nil {
		return fmt.Errorf("postgres pool is nil")
	}
	if v.ID == "" || v.AccountID <= 0 {
		return fmt.Errorf("invalid violation payload")
	}

	categories, err := json.Marshal(v.FlaggedCategories)
	if err != nil {
		return fmt.Errorf("marshal flagged categories: %w", err)
	}
	scores, err := json.Marshal(v.CategoryScores)
	if err != nil {
		return fmt.Errorf("marshal category scores: %w", err)
	}

	if _, err := r.pool.Exec(ctx, `
INSERT INTO violations (
	id,
	account_id,
	violation_type,
	content_id,
	content_text,
	flagged_categories,
	category_scores,
	violation_summary,
	action_taken,
	strike_count_after,
	suspension_count_after,
	evidence_key,
	created_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
`, v.ID,
		v.AccountID,
		string(v.Type),
		v.ContentID,
		v.ContentText,
		categories,
		scores,
		v.Summary,
		string(v.ActionTaken),
		v.StrikeCountAfter,
		v.SuspensionCountAfter,
		v.EvidenceKey,
		v.CreatedAt,
	); err != nil {
		return fmt.Errorf("insert violation: %w", err)
	}

	return nil
}

func (r *ViolationRepo) GetByID(ctx context.Context, id string) (model.Violation, error) {
	if r.pool == nil {
		return model.Violation{}, fmt.Errorf("postgres pool is nil")
	}
	if id == "" {
		return model.Violation{}, fmt.Errorf("invalid violation id")
	}

	row := r.pool.QueryRow(ctx, `
SELECT id, account_id, violation_type, content_id, content_text,
       flagged_categories, category_scores, violation_summary, action_taken,
       strike_count_after, suspension_count_after, evidence_key, created_at
FROM violations
WHERE id = $1
`, id)

	violation, err := scanViolation(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Violation{}, ErrViolationNotFound
		}
		return model.Violation{}, fmt.Errorf("get violation: %w", err)
	}

	return violation, nil
}

func (r *ViolationRepo) ListForAccount(ctx context.Context, accountID int64, limit int) ([]model.Violation, error) {
	if r.pool == nil {
		return nil, fmt.Errorf("postgres pool is nil")
	}
	if accountID <= 0 {
		return nil, fmt.Errorf("invalid account id")
	}
	if limit <= 0 {
		limit = 50
	}

	rows, err := r.pool.Query(ctx, `
SELECT id, account_id, violation_type, content_id, content_text,
       flagged_categories, category_scores, violation_summary, action_taken,
       strike_count_after, suspension_count_after, evidence_key, created_at
FROM violations
WHERE account_id = $1
ORDER BY created_at DESC, id DESC
LIMIT $2
`, accountID, limit)
	if err != nil {
		return nil, fmt.Errorf("list violations: %w", err)
	}
	defer rows.Close()

	var violations []model.Violation
	for rows.Next() {
		violation, scanErr := scanViolation(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("scan violation: %w", scanErr)
		}
		violations = append(violations, violation)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate violations: %w", err)
	}

	return violations, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanViolation(row rowScanner) (model.Violation, error) {
	var (
		v           model.Violation
		vType       string
		actionTaken string
		categories  []byte
		scores      []byte
		createdAt   time.Time
	)
	if err := row.Scan(
		&v.ID,
		&v.AccountID,
		&vType,
		&v.ContentID,
		&v.ContentText,
		&categories,
		&scores,
		&v.Summary,
		&actionTaken,
		&v.StrikeCountAfter,
		&v.SuspensionCountAfter,
		&v.EvidenceKey,
		&createdAt,
	); err != nil {
		return model.Violation{}, err
	}

	v.Type = enums.ViolationType(vType)
	v.ActionTaken = enums.ActionOutcome(actionTaken)
	v.CreatedAt = createdAt
	v.Stored = true

	if len(categories) > 0 {
		_ = json.Unmarshal(categories, &v.FlaggedCategories)
	}
	if len(scores) > 0 {
		_ = json.Unmarshal(scores, &v.CategoryScores)
	}

	return v, nil
}
