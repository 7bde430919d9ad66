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
	ErrSuspensionNotFound    = errors.New("suspension not found")
	ErrSuspensionNotActive   = errors.New("suspension is not active")
	ErrSuspensionStillActive = errors.New("suspension is still active")
	ErrAlreadyAcknowledged   = errors.New("suspension lift already acknowledged")
)

type SuspensionRepo struct {
	pool *pgxpool.Pool
}

type SuspensionWriteRecord struct {
	AccountID           int64
	Type                enums.SuspensionType
	Reason              string
	SuspensionNumber    int
	StrikesAtSuspension int
	StartedAt           time.Time
	EndsAt              *time.Time
	ViolationIDs        []string
}

func NewSuspensionRepo(pool *pgxpool.Pool) *SuspensionRepo {
	return &SuspensionRepo{pool: pool}
}

// Append inserts a new active ledger row inside the caller's account
// transaction, so consecutive moderation actions cannot interleave their
// appends. It runs under a savepoint: a failed append rolls back to the
// savepoint and leaves the account write intact. Any row still marked active
// for the account is closed out first so the single-active invariant holds
// even when an admin escalates over an existing episode.
func (r *SuspensionRepo) Append(ctx context.Context, tx pgx.Tx, rec SuspensionWriteRecord) (model.Suspension, error) {
	if tx == nil {
		return model.Suspension{}, fmt.Errorf("transaction is required")
	}
	if rec.AccountID <= 0 || strings.TrimSpace(rec.Reason) == "" {
		return model.Suspension{}, fmt.Errorf("invalid suspension payload")
	}

	sp, err := tx.Begin(ctx)
	if err != nil {
		return model.Suspension{}, fmt.Errorf("begin suspension savepoint: %w", err)
	}

	suspension, err := r.appendRow(ctx, sp, rec)
	if err != nil {
		_ = sp.Rollback(ctx)
		return model.Suspension{}, err
	}
	if err := sp.Commit(ctx); err != nil {
		return model.Suspension{}, fmt.Errorf("commit suspension savepoint: %w", err)
	}

	return suspension, nil
}

func (r *SuspensionRepo) appendRow(ctx context.Context, sp pgx.Tx, rec SuspensionWriteRecord) (model.Suspension, error) {
	if _, err := sp.Exec(ctx, `
UPDATE suspensions
SET
	status = 'lifted',
	lifted_at = NOW(),
	lifted_reason = 'superseded by a newer moderation action',
	lifted_acknowledged = FALSE
WHERE account_id = $1 AND status = 'active'
`, rec.AccountID); err != nil {
		return model.Suspension{}, fmt.Errorf("close stale active suspension: %w", err)
	}

	startedAt := rec.StartedAt
	if startedAt.IsZero() {
		startedAt = time.Now().UTC()
	}

	var id int64
	if err := sp.QueryRow(ctx, `
INSERT INTO suspensions (
	account_id,
	suspension_type,
	reason,
	suspension_number,
	strikes_at_suspension,
	started_at,
	ends_at,
	status,
	lifted_acknowledged,
	violation_ids
) VALUES ($1, $2, $3, $4, $5, $6, $7, 'active', FALSE, $8)
RETURNING id
`, rec.AccountID,
		string(rec.Type),
		rec.Reason,
		rec.SuspensionNumber,
		rec.StrikesAtSuspension,
		startedAt,
		rec.EndsAt,
		rec.ViolationIDs,
	).Scan(&id); err != nil {
		return model.Suspension{}, fmt.Errorf("append suspension: %w", err)
	}

	return model.Suspension{
		ID:                  id,
		AccountID:           rec.AccountID,
		Type:                rec.Type,
		Reason:              rec.Reason,
		SuspensionNumber:    rec.SuspensionNumber,
		StrikesAtSuspension: rec.StrikesAtSuspension,
		StartedAt:           startedAt,
		EndsAt:              rec.EndsAt,
		Status:              enums.SuspensionStatusActive,
		ViolationIDs:        rec.ViolationIDs,
	}, nil
}

func (r *SuspensionRepo) GetByID(ctx context.Context, suspensionID int64) (model.Suspension, error) {
	if r.pool == nil {
		return model.Suspension{}, fmt.Errorf("postgres pool is nil")
	}
	if suspensionID <= 0 {
		return model.Suspension{}, fmt.Errorf("invalid suspension id")
	}

	row := r.pool.QueryRow(ctx, suspensionSelect+` WHERE id = $1`, suspensionID)
	suspension, err := scanSuspension(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Suspension{}, ErrSuspensionNotFound
		}
		return model.Suspension{}, fmt.Errorf("get suspension: %w", err)
	}

	return suspension, nil
}

func (r *SuspensionRepo) GetActiveForAccount(ctx context.Context, accountID int64) (model.Suspension, error) {
	if r.pool == nil {
		return model.Suspension{}, fmt.Errorf("postgres pool is nil")
	}
	if accountID <= 0 {
		return model.Suspension{}, fmt.Errorf("invalid account id")
	}

	row := r.pool.QueryRow(ctx, suspensionSelect+`
 WHERE account_id = $1 AND status = 'active'
 ORDER BY started_at DESC, id DESC
 LIMIT 1`, accountID)
	suspension, err := scanSuspension(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Suspension{}, ErrSuspensionNotFound
		}
		return model.Suspension{}, fmt.Errorf("get active suspension: %w", err)
	}

	return suspension, nil
}

// ListForAccount returns the account's full episode history, newest first.
func (r *SuspensionRepo) ListForAccount(ctx context.Context, accountID int64) ([]model.Suspension, error) {
	if r.pool == nil {
		return nil, fmt.Errorf("postgres pool is nil")
	}
	if accountID <= 0 {
		return nil, fmt.Errorf("invalid account id")
	}

	rows, err := r.pool.Query(ctx, suspensionSelect+`
 WHERE account_id = $1
 ORDER BY started_at DESC, id DESC`, accountID)
	if err != nil {
		return nil, fmt.Errorf("list suspensions: %w", err)
	}
	defer rows.Close()

	var suspensions []model.Suspension
	for rows.Next() {
		suspension, scanErr := scanSuspension(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("scan suspension: %w", scanErr)
		}
		suspensions = append(suspensions, suspension)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate suspensions: %w", err)
	}

	return suspensions, nil
}

// MarkLifted closes one ledger row. The lift always lands in the
// unacknowledged phase; acknowledgment is a separate step.
func (r *SuspensionRepo) MarkLifted(ctx context.Context, suspensionID, adminID int64, reason string) (model.Suspension, error) {
	if r.pool == nil {
		return model.Suspension{}, fmt.Errorf("postgres pool is nil")
	}
	if suspensionID <= 0 {
		return model.Suspension{}, fmt.Errorf("invalid suspension id")
	}

	row := r.pool.QueryRow(ctx, `
UPDATE suspensions
SET
	status = 'lifted',
	lifted_at = NOW(),
	lifted_by = $2,
	lifted_reason = $3,
	lifted_acknowledged = FALSE
WHERE id = $1 AND status = 'active'
RETURNING `+suspensionColumns, suspensionID, adminID, strings.TrimSpace(reason))
	suspension, err := scanSuspension(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Suspension{}, r.classifyLiftFailure(ctx, suspensionID)
		}
		return model.Suspension{}, fmt.Errorf("mark suspension lifted: %w", err)
	}

	return suspension, nil
}

// MarkLiftedActive lifts whichever row is currently active for the account.
func (r *SuspensionRepo) MarkLiftedActive(ctx context.Context, accountID, adminID int64, reason string) (model.Suspension, error) {
	if r.pool == nil {
		return model.Suspension{}, fmt.Errorf("postgres pool is nil")
	}
	if accountID <= 0 {
		return model.Suspension{}, fmt.Errorf("invalid account id")
	}

	row := r.pool.QueryRow(ctx, `
UPDATE suspensions
SET
	status = 'lifted',
	lifted_at = NOW(),
	lifted_by = $2,
	lifted_reason = $3,
	lifted_acknowledged = FALSE
WHERE id = (
	SELECT id FROM suspensions
	WHERE account_id = $1 AND status = 'active'
	ORDER BY started_at DESC, id DESC
	LIMIT 1
)
RETURNING `+suspensionColumns, accountID, adminID, strings.TrimSpace(reason))
	suspension, err := scanSuspension(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Suspension{}, ErrSuspensionNotFound
		}
		return model.Suspension{}, fmt.Errorf("mark active suspension lifted: %w", err)
	}

	return suspension, nil
}

// Acknowledge moves a lifted row from the unacknowledged to the acknowledged
// phase. Valid only from lifted/unacknowledged.
func (r *SuspensionRepo) Acknowledge(ctx context.Context, suspensionID int64) (model.Suspension, error) {
	if r.pool == nil {
		return model.Suspension{}, fmt.Errorf("postgres pool is nil")
	}
	if suspensionID <= 0 {
		return model.Suspension{}, fmt.Errorf("invalid suspension id")
	}

	row := r.pool.QueryRow(ctx, `
UPDATE suspensions
SET lifted_acknowledged = TRUE
WHERE id = $1 AND status = 'lifted' AND lifted_acknowledged = FALSE
RETURNING `+suspensionColumns, suspensionID)
	suspension, err := scanSuspension(row)
	if err == nil {
		return suspension, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return model.Suspension{}, fmt.Errorf("acknowledge suspension lift: %w", err)
	}

	current, getErr := r.GetByID(ctx, suspensionID)
	if getErr != nil {
		return model.Suspension{}, getErr
	}
	if current.Status == enums.SuspensionStatusActive {
		return model.Suspension{}, ErrSuspensionStillActive
	}
	return model.Suspension{}, ErrAlreadyAcknowledged
}

func (r *SuspensionRepo) classifyLiftFailure(ctx context.Context, suspensionID int64) error {
	current, err := r.GetByID(ctx, suspensionID)
	if err != nil {
		return err
	}
	if current.Status != enums.SuspensionStatusActive {
		return ErrSuspensionNotActive
	}
	return ErrSuspensionNotFound
}

const suspensionColumns = `id, account_id, suspension_type, reason, suspension_number,
       strikes_at_suspension, started_at, ends_at, status,
       lifted_at, lifted_by, lifted_reason, lifted_acknowledged, violation_ids`

const suspensionSelect = `
SELECT ` + suspensionColumns + `
FROM suspensions`

func scanSuspension(row rowScanner) (model.Suspension, error) {
	var (
		s            model.Suspension
		sType        string
		status       string
		liftedReason *string
		violationIDs []string
	)
	if err := row.Scan(
		&s.ID,
		&s.AccountID,
		&sType,
		&s.Reason,
		&s.SuspensionNumber,
		&s.StrikesAtSuspension,
		&s.StartedAt,
		&s.EndsAt,
		&status,
		&s.LiftedAt,
		&s.LiftedBy,
		&liftedReason,
		&s.LiftedAcknowledged,
		&violationIDs,
	); err != nil {
		return model.Suspension{}, err
	}

	s.Type = enums.SuspensionType(sType)
	s.Status = enums.SuspensionStatus(status)
	s.ViolationIDs = violationIDs
	if liftedReason != nil {
		s.LiftedReason = *liftedReason
	}

	return s, nil
}
