package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/communa-app/backend/internal/domain/enums"
	"github.com/communa-app/backend/internal/domain/model"
)

var (
	ErrAppealNotFound = errors.New("appeal not found")
	ErrAppealResolved = errors.New("appeal already resolved")
)

type AppealRepo struct {
	pool *pgxpool.Pool
}

func NewAppealRepo(pool *pgxpool.Pool) *AppealRepo {
	return &AppealRepo{pool: pool}
}

func (r *AppealRepo) Insert(ctx context.Context, suspensionID, accountID int64, reason, additionalContext string) (model.Appeal, error) {
	if r.pool == nil {
		return model.Appeal{}, fmt.Errorf("postgres pool is nil")
	}
	if suspensionID <= 0 || accountID <= 0 || strings.TrimSpace(reason) == "" {
		return model.Appeal{}, fmt.Errorf("invalid appeal payload")
	}

	var (
		id        int64
		createdAt time.Time
	)
	if err := r.pool.QueryRow(ctx, `
INSERT INTO appeals (
	suspension_id,
	account_id,
	appeal_reason,
	additional_context,
	status,
	created_at
) VALUES ($1, $2, $3, $4, 'pending', NOW())
RETURNING id, created_at
`, suspensionID, accountID, strings.TrimSpace(reason), strings.TrimSpace(additionalContext)).Scan(&id, &createdAt); err != nil {
		return model.Appeal{}, fmt.Errorf("insert appeal: %w", err)
	}

	return model.Appeal{
		ID:                id,
		SuspensionID:      suspensionID,
		AccountID:         accountID,
		Reason:            strings.TrimSpace(reason),
		AdditionalContext: strings.TrimSpace(additionalContext),
		Status:            enums.AppealStatusPending,
		CreatedAt:         createdAt,
	}, nil
}

func (r *AppealRepo) GetByID(ctx context.Context, appealID int64) (model.Appeal, error) {
	if r.pool == nil {
		return model.Appeal{}, fmt.Errorf("postgres pool is nil")
	}
	if appealID <= 0 {
		return model.Appeal{}, fmt.Errorf("invalid appeal id")
	}

	row := r.pool.QueryRow(ctx, appealSelect+` WHERE id = $1`, appealID)
	appeal, err := scanAppeal(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Appeal{}, ErrAppealNotFound
		}
		return model.Appeal{}, fmt.Errorf("get appeal: %w", err)
	}

	return appeal, nil
}

// GetPendingForSuspension finds the open appeal against a suspension, if any.
func (r *AppealRepo) GetPendingForSuspension(ctx context.Context, suspensionID int64) (model.Appeal, error) {
	if r.pool == nil {
		return model.Appeal{}, fmt.Errorf("postgres pool is nil")
	}
	if suspensionID <= 0 {
		return model.Appeal{}, fmt.Errorf("invalid suspension id")
	}

	row := r.pool.QueryRow(ctx, appealSelect+`
 WHERE suspension_id = $1 AND status = 'pending'
 ORDER BY created_at DESC, id DESC
 LIMIT 1`, suspensionID)
	appeal, err := scanAppeal(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Appeal{}, ErrAppealNotFound
		}
		return model.Appeal{}, fmt.Errorf("get pending appeal: %w", err)
	}

	return appeal, nil
}

// MarkResolved transitions a pending appeal into its terminal state. A second
// resolution attempt fails with ErrAppealResolved.
func (r *AppealRepo) MarkResolved(ctx context.Context, appealID, adminID int64, status enums.AppealStatus, adminNotes, rejectionReason string) (model.Appeal, error) {
	if r.pool == nil {
		return model.Appeal{}, fmt.Errorf("postgres pool is nil")
	}
	if appealID <= 0 || adminID <= 0 {
		return model.Appeal{}, fmt.Errorf("invalid appeal resolution payload")
	}
	if status != enums.AppealStatusApproved && status != enums.AppealStatusRejected {
		return model.Appeal{}, fmt.Errorf("invalid appeal resolution status %q", status)
	}

	row := r.pool.QueryRow(ctx, `
UPDATE appeals
SET
	status = $2,
	reviewed_by = $3,
	reviewed_at = NOW(),
	admin_notes = $4,
	rejection_reason = NULLIF($5, '')
WHERE id = $1 AND status = 'pending'
RETURNING `+appealColumns, appealID, string(status), adminID, strings.TrimSpace(adminNotes), strings.TrimSpace(rejectionReason))
	appeal, err := scanAppeal(row)
	if err == nil {
		return appeal, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return model.Appeal{}, fmt.Errorf("resolve appeal: %w", err)
	}

	if _, getErr := r.GetByID(ctx, appealID); getErr != nil {
		return model.Appeal{}, getErr
	}
	return model.Appeal{}, ErrAppealResolved
}

const appealColumns = `id, suspension_id, account_id, appeal_reason, additional_context,
       status, reviewed_by, reviewed_at, admin_notes, rejection_reason, created_at`

const appealSelect = `
SELECT ` + appealColumns + `
FROM appeals`

func scanAppeal(row rowScanner) (model.Appeal, error) {
	var (
		a               model.Appeal
		status          string
		adminNotes      *string
		rejectionReason *string
	)
	if err := row.Scan(
		&a.ID,
		&a.SuspensionID,
		&a.AccountID,
		&a.Reason,
		&a.AdditionalContext,
		&status,
		&a.ReviewedBy,
		&a.ReviewedAt,
		&adminNotes,
		&rejectionReason,
		&a.CreatedAt,
	); err != nil {
		return model.Appeal{}, err
	}

	a.Status = enums.AppealStatus(status)
	if adminNotes != nil {
		a.AdminNotes = *adminNotes
	}
	if rejectionReason != nil {
		a.RejectionReason = *rejectionReason
	}

	return a, nil
}
