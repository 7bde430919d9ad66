package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/communa-app/backend/internal/domain/enums"
	"github.com/communa-app/backend/internal/domain/rules"
)

var ErrAccountNotFound = errors.New("moderation account not found")

type AccountRepo struct {
	pool *pgxpool.Pool
}

type AccountRecord struct {
	AccountID       int64
	StrikeCount     int
	SuspensionCount int
	Status          string
	SuspensionEnd   *time.Time
	BannedAt        *time.Time
	BannedReason    *string
	LastViolationAt *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

func NewAccountRepo(pool *pgxpool.Pool) *AccountRepo {
	return &AccountRepo{pool: pool}
}

func (r *AccountRepo) Get(ctx context.Context, accountID int64) (AccountRecord, error) {
	if r.pool == nil {
		return AccountRecord{}, fmt.Errorf("postgres pool is nil")
	}
	if accountID <= 0 {
		return AccountRecord{}, fmt.Errorf("invalid account id")
	}

	var rec AccountRecord
	err := r.pool.QueryRow(ctx, `
SELECT account_id, strike_count, suspension_count, account_status,
       suspension_end, banned_at, banned_reason, last_violation_at,
       created_at, updated_at
FROM moderation_accounts
WHERE account_id = $1
`, accountID).Scan(
		&rec.AccountID,
		&rec.StrikeCount,
		&rec.SuspensionCount,
		&rec.Status,
		&rec.SuspensionEnd,
		&rec.BannedAt,
		&rec.BannedReason,
		&rec.LastViolationAt,
		&rec.CreatedAt,
		&rec.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return AccountRecord{}, ErrAccountNotFound
		}
		return AccountRecord{}, fmt.Errorf("get moderation account: %w", err)
	}

	return rec, nil
}

// LockForUpdate reads the account row under a row lock, creating it in the
// active state on first contact. Two concurrent moderation actions against
// the same account serialize here.
func (r *AccountRepo) LockForUpdate(ctx context.Context, tx pgx.Tx, accountID int64) (rules.AccountSnapshot, error) {
	if tx == nil {
		return rules.AccountSnapshot{}, fmt.Errorf("transaction is required")
	}
	if accountID <= 0 {
		return rules.AccountSnapshot{}, fmt.Errorf("invalid account id")
	}

	if _, err := tx.Exec(ctx, `
INSERT INTO moderation_accounts (account_id, strike_count, suspension_count, account_status, created_at, updated_at)
VALUES ($1, 0, 0, 'active', NOW(), NOW())
ON CONFLICT (account_id) DO NOTHING
`, accountID); err != nil {
		return rules.AccountSnapshot{}, fmt.Errorf("ensure moderation account: %w", err)
	}

	var (
		snap         rules.AccountSnapshot
		status       string
		bannedReason *string
	)
	err := tx.QueryRow(ctx, `
SELECT account_id, strike_count, suspension_count, account_status,
       suspension_end, banned_at, banned_reason, last_violation_at
FROM moderation_accounts
WHERE account_id = $1
FOR UPDATE
`, accountID).Scan(
		&snap.AccountID,
		&snap.StrikeCount,
		&snap.SuspensionCount,
		&status,
		&snap.SuspensionEnd,
		&snap.BannedAt,
		&bannedReason,
		&snap.LastViolationAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return rules.AccountSnapshot{}, ErrAccountNotFound
		}
		return rules.AccountSnapshot{}, fmt.Errorf("lock moderation account: %w", err)
	}

	snap.Status = enums.AccountStatus(status)
	if bannedReason != nil {
		snap.BannedReason = *bannedReason
	}

	return snap, nil
}

// Save writes a computed snapshot back to the locked row.
func (r *AccountRepo) Save(ctx context.Context, tx pgx.Tx, snap rules.AccountSnapshot) error {
	if tx == nil {
		return fmt.Errorf("transaction is required")
	}
	if snap.AccountID <= 0 {
		return fmt.Errorf("invalid account snapshot")
	}

	var bannedReason *string
	if snap.BannedReason != "" {
		bannedReason = &snap.BannedReason
	}

	tag, err := tx.Exec(ctx, `
UPDATE moderation_accounts
SET
	strike_count = $2,
	suspension_count = $3,
	account_status = $4,
	suspension_end = $5,
	banned_at = $6,
	banned_reason = $7,
	last_violation_at = $8,
	updated_at = NOW()
WHERE account_id = $1
`, snap.AccountID,
		snap.StrikeCount,
		snap.SuspensionCount,
		string(snap.Status),
		snap.SuspensionEnd,
		snap.BannedAt,
		bannedReason,
		snap.LastViolationAt,
	)
	if err != nil {
		return fmt.Errorf("save moderation account: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrAccountNotFound
	}

	return nil
}

// ListExpired returns accounts whose suspension, restriction or time-boxed
// ban window has elapsed. Used by the expiry job. Permanent bans carry no
// suspension_end and never match.
func (r *AccountRepo) ListExpired(ctx context.Context, now time.Time, limit int) ([]AccountRecord, error) {
	if r.pool == nil {
		return nil, fmt.Errorf("postgres pool is nil")
	}
	if limit <= 0 {
		limit = 100
	}

	rows, err := r.pool.Query(ctx, `
SELECT account_id, strike_count, suspension_count, account_status,
       suspension_end, banned_at, banned_reason, last_violation_at,
       created_at, updated_at
FROM moderation_accounts
WHERE account_status IN ('suspended', 'restricted', 'banned')
  AND suspension_end IS NOT NULL
  AND suspension_end <= $1
ORDER BY suspension_end ASC
LIMIT $2
`, now, limit)
	if err != nil {
		return nil, fmt.Errorf("list expired moderation accounts: %w", err)
	}
	defer rows.Close()

	var records []AccountRecord
	for rows.Next() {
		var rec AccountRecord
		if err := rows.Scan(
			&rec.AccountID,
			&rec.StrikeCount,
			&rec.SuspensionCount,
			&rec.Status,
			&rec.SuspensionEnd,
			&rec.BannedAt,
			&rec.BannedReason,
			&rec.LastViolationAt,
			&rec.CreatedAt,
			&rec.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan expired moderation account: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate expired moderation accounts: %w", err)
	}

	return records, nil
}

func (rec AccountRecord) Snapshot() rules.AccountSnapshot {
	snap := rules.AccountSnapshot{
		AccountID:       rec.AccountID,
		StrikeCount:     rec.StrikeCount,
		SuspensionCount: rec.SuspensionCount,
		Status:          enums.AccountStatus(rec.Status),
		SuspensionEnd:   rec.SuspensionEnd,
		BannedAt:        rec.BannedAt,
		LastViolationAt: rec.LastViolationAt,
	}
	if rec.BannedReason != nil {
		snap.BannedReason = *rec.BannedReason
	}
	return snap
}
