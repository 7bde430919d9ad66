package moderation

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/communa-app/backend/internal/domain/enums"
	"github.com/communa-app/backend/internal/domain/model"
	"github.com/communa-app/backend/internal/domain/rules"
	pgrepo "github.com/communa-app/backend/internal/repo/postgres"
	redrepo "github.com/communa-app/backend/internal/repo/redis"
)

const (
	defaultSnippetLimit   = 1000
	defaultStatusCacheTTL = time.Minute

	// SystemActorID marks actions taken by the engine itself rather than a
	// human admin (automatic strikes, expiry reactivation).
	SystemActorID int64 = 0
)

var (
	ErrInvalidInput    = errors.New("invalid input")
	ErrDependenciesNil = errors.New("moderation dependencies are not configured")
)

type AccountStore interface {
	Get(ctx context.Context, accountID int64) (pgrepo.AccountRecord, error)
	LockForUpdate(ctx context.Context, tx pgx.Tx, accountID int64) (rules.AccountSnapshot, error)
	Save(ctx context.Context, tx pgx.Tx, snap rules.AccountSnapshot) error
}

type ViolationStore interface {
	Insert(ctx context.Context, v model.Violation) error
}

type SuspensionStore interface {
	Append(ctx context.Context, tx pgx.Tx, rec pgrepo.SuspensionWriteRecord) (model.Suspension, error)
	GetByID(ctx context.Context, suspensionID int64) (model.Suspension, error)
	MarkLiftedActive(ctx context.Context, accountID, adminID int64, reason string) (model.Suspension, error)
	ListForAccount(ctx context.Context, accountID int64) ([]model.Suspension, error)
	Acknowledge(ctx context.Context, suspensionID int64) (model.Suspension, error)
}

type StatusCache interface {
	Get(ctx context.Context, accountID int64) (redrepo.CachedStatus, error)
	Set(ctx context.Context, status redrepo.CachedStatus, ttl time.Duration) error
	Invalidate(ctx context.Context, accountID int64) error
}

type EvidenceStore interface {
	Archive(ctx context.Context, accountID int64, violationID, contentText string) (string, error)
}

type Auditor interface {
	Record(ctx context.Context, adminID int64, action, targetType, targetID string, details map[string]any)
}

type Config struct {
	SnippetLimit   int
	StatusCacheTTL time.Duration
}

type Service struct {
	accounts    AccountStore
	violations  ViolationStore
	suspensions SuspensionStore
	audit       Auditor
	cache       StatusCache
	evidence    EvidenceStore
	cfg         Config
	logger      *zap.Logger

	now   func() time.Time
	newID func() string
	runTx func(ctx context.Context, fn func(context.Context, pgx.Tx) error) error
}

func NewService(
	pool *pgxpool.Pool,
	accounts AccountStore,
	violations ViolationStore,
	suspensions SuspensionStore,
	audit Auditor,
	cfg Config,
	logger *zap.Logger,
) *Service {
	if cfg.SnippetLimit <= 0 {
		cfg.SnippetLimit = defaultSnippetLimit
	}
	if cfg.StatusCacheTTL <= 0 {
		cfg.StatusCacheTTL = defaultStatusCacheTTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Service{
		accounts:    accounts,
		violations:  violations,
		suspensions: suspensions,
		audit:       audit,
		cfg:         cfg,
		logger:      logger,
		now:         time.Now,
		newID:       uuid.NewString,
		runTx: func(ctx context.Context, fn func(context.Context, pgx.Tx) error) error {
			return pgrepo.WithTx(ctx, pool, fn)
		},
	}
}

func (s *Service) AttachStatusCache(cache StatusCache) {
	s.cache = cache
}

func (s *Service) AttachEvidence(evidence EvidenceStore) {
	s.evidence = evidence
}

type ViolationInput struct {
	AccountID         int64
	Type              enums.ViolationType
	ContentID         string
	ContentText       string
	FlaggedCategories []string
	CategoryScores    map[string]float64
	Summary           string
}

type AdminActionInput struct {
	AccountID int64
	Action    enums.ModAction
	AdminID   int64
	Reason    string
	Duration  enums.BanDuration
}

// ActionResult is what the surrounding API layer renders: the updated
// account snapshot plus whichever supporting records this action produced.
type ActionResult struct {
	Account    rules.AccountSnapshot
	Outcome    enums.ActionOutcome
	Violation  *model.Violation
	Suspension *model.Suspension
	Lifted     *model.Suspension
}

// RecordViolation applies one automatic strike for a flagged content item.
// The classification itself is supplied by the caller; this core only
// escalates. The violation record is best-effort: if its insert fails, a
// synthesized record with the same fields is returned instead of an error.
func (s *Service) RecordViolation(ctx context.Context, in ViolationInput) (ActionResult, error) {
	if s.accounts == nil || s.violations == nil || s.suspensions == nil {
		return ActionResult{}, ErrDependenciesNil
	}
	if in.AccountID <= 0 {
		return ActionResult{}, fmt.Errorf("%w: account id is required", ErrInvalidInput)
	}
	if !in.Type.Valid() {
		return ActionResult{}, fmt.Errorf("%w: unknown violation_type %q", ErrInvalidInput, in.Type)
	}

	now := s.now().UTC()
	snippet := truncateSnippet(in.ContentText, s.cfg.SnippetLimit)
	violationID := s.newID()

	evidenceKey := ""
	if s.evidence != nil && in.ContentText != "" {
		key, err := s.evidence.Archive(ctx, in.AccountID, violationID, in.ContentText)
		if err != nil {
			s.logger.Warn("evidence archive failed, keeping snippet only",
				zap.Error(err), zap.Int64("account_id", in.AccountID))
		} else {
			evidenceKey = key
		}
	}

	var (
		decision  rules.Decision
		ledgerRow *model.Suspension
	)
	err := s.runTx(ctx, func(txCtx context.Context, tx pgx.Tx) error {
		snap, lockErr := s.accounts.LockForUpdate(txCtx, tx, in.AccountID)
		if lockErr != nil {
			return lockErr
		}

		d, applyErr := rules.Apply(snap, enums.ModActionStrike, rules.ActionParams{Reason: in.Summary}, now)
		if applyErr != nil {
			return applyErr
		}
		decision = d

		if saveErr := s.accounts.Save(txCtx, tx, d.Next); saveErr != nil {
			return saveErr
		}

		ledgerRow = s.appendLedgerRow(txCtx, tx, d, now, []string{violationID})
		return nil
	})
	if err != nil {
		return ActionResult{}, fmt.Errorf("apply strike: %w", err)
	}

	violation := model.Violation{
		ID:                   violationID,
		AccountID:            in.AccountID,
		Type:                 in.Type,
		ContentID:            in.ContentID,
		ContentText:          snippet,
		FlaggedCategories:    in.FlaggedCategories,
		CategoryScores:       in.CategoryScores,
		Summary:              in.Summary,
		ActionTaken:          decision.Outcome,
		StrikeCountAfter:     decision.Next.StrikeCount,
		SuspensionCountAfter: decision.Next.SuspensionCount,
		EvidenceKey:          evidenceKey,
		CreatedAt:            now,
		Stored:               true,
	}
	if insertErr := s.violations.Insert(ctx, violation); insertErr != nil {
		s.logger.Warn("violation write failed, returning synthesized record",
			zap.Error(insertErr),
			zap.Int64("account_id", in.AccountID),
			zap.String("violation_id", violationID))
		violation.Stored = false
	}

	result := ActionResult{
		Account:    decision.Next,
		Outcome:    decision.Outcome,
		Violation:  &violation,
		Suspension: ledgerRow,
	}

	s.recordAudit(ctx, SystemActorID, "moderation.strike", strconv.FormatInt(in.AccountID, 10), map[string]any{
		"outcome":        string(decision.Outcome),
		"violation_id":   violationID,
		"violation_type": string(in.Type),
		"content_id":     in.ContentID,
	})
	s.invalidateStatus(ctx, in.AccountID)

	return result, nil
}

// AdminAction applies an explicit admin decision: force_suspend, ban,
// restrict, unrestrict or lift. Strikes only enter via RecordViolation.
func (s *Service) AdminAction(ctx context.Context, in AdminActionInput) (ActionResult, error) {
	if s.accounts == nil || s.suspensions == nil {
		return ActionResult{}, ErrDependenciesNil
	}
	if in.AccountID <= 0 {
		return ActionResult{}, fmt.Errorf("%w: account id is required", ErrInvalidInput)
	}
	if in.AdminID < 0 {
		return ActionResult{}, fmt.Errorf("%w: invalid admin id", ErrInvalidInput)
	}
	if !in.Action.Valid() || in.Action == enums.ModActionStrike {
		return ActionResult{}, fmt.Errorf("%w: unknown admin action %q", ErrInvalidInput, in.Action)
	}
	if in.Action == enums.ModActionBan || in.Action == enums.ModActionRestrict {
		if !in.Duration.Valid() {
			return ActionResult{}, fmt.Errorf("%w: unknown duration %q", ErrInvalidInput, in.Duration)
		}
	}
	if in.Action != enums.ModActionUnrestrict && strings.TrimSpace(in.Reason) == "" {
		return ActionResult{}, fmt.Errorf("%w: reason is required for %s", ErrInvalidInput, in.Action)
	}

	now := s.now().UTC()
	reason := strings.TrimSpace(in.Reason)

	var (
		decision  rules.Decision
		ledgerRow *model.Suspension
	)
	err := s.runTx(ctx, func(txCtx context.Context, tx pgx.Tx) error {
		snap, lockErr := s.accounts.LockForUpdate(txCtx, tx, in.AccountID)
		if lockErr != nil {
			return lockErr
		}

		d, applyErr := rules.Apply(snap, in.Action, rules.ActionParams{Reason: reason, Duration: in.Duration}, now)
		if applyErr != nil {
			return applyErr
		}
		decision = d

		if saveErr := s.accounts.Save(txCtx, tx, d.Next); saveErr != nil {
			return saveErr
		}

		ledgerRow = s.appendLedgerRow(txCtx, tx, d, now, nil)
		return nil
	})
	if err != nil {
		if errors.Is(err, rules.ErrNotSuspended) {
			return ActionResult{}, rules.ErrNotSuspended
		}
		return ActionResult{}, fmt.Errorf("apply admin action %s: %w", in.Action, err)
	}

	result := ActionResult{
		Account:    decision.Next,
		Outcome:    decision.Outcome,
		Suspension: ledgerRow,
	}

	if decision.LiftActive {
		lifted, liftErr := s.suspensions.MarkLiftedActive(ctx, in.AccountID, in.AdminID, reason)
		if liftErr != nil {
			// The account row is the source of truth; a missing or failed
			// ledger update is secondary bookkeeping.
			s.logger.Warn("suspension ledger lift failed",
				zap.Error(liftErr), zap.Int64("account_id", in.AccountID))
		} else {
			result.Lifted = &lifted
		}
	}

	s.recordAudit(ctx, in.AdminID, "moderation."+string(in.Action), strconv.FormatInt(in.AccountID, 10), map[string]any{
		"outcome":  string(decision.Outcome),
		"reason":   reason,
		"duration": string(in.Duration),
	})
	s.invalidateStatus(ctx, in.AccountID)

	return result, nil
}

// StatusView is the read-side projection of an account's access level.
type StatusView struct {
	AccountID       int64
	Status          enums.AccountStatus
	StrikeCount     int
	SuspensionCount int
	SuspensionEnd   *time.Time
	BannedReason    string
}

// GetStatus serves the display read path, cache first. An account never seen
// by moderation reads as active with zero counters.
func (s *Service) GetStatus(ctx context.Context, accountID int64) (StatusView, error) {
	if accountID <= 0 {
		return StatusView{}, fmt.Errorf("%w: account id is required", ErrInvalidInput)
	}
	if s.accounts == nil {
		return StatusView{}, ErrDependenciesNil
	}

	if s.cache != nil {
		cached, err := s.cache.Get(ctx, accountID)
		if err == nil {
			return StatusView{
				AccountID:       cached.AccountID,
				Status:          enums.AccountStatus(cached.Status),
				StrikeCount:     cached.StrikeCount,
				SuspensionCount: cached.SuspensionCount,
				SuspensionEnd:   cached.SuspensionEnd,
				BannedReason:    cached.BannedReason,
			}, nil
		}
		if !errors.Is(err, redrepo.ErrStatusCacheMiss) {
			s.logger.Debug("status cache read failed", zap.Error(err))
		}
	}

	rec, err := s.accounts.Get(ctx, accountID)
	if err != nil {
		if errors.Is(err, pgrepo.ErrAccountNotFound) {
			return StatusView{AccountID: accountID, Status: enums.AccountStatusActive}, nil
		}
		return StatusView{}, err
	}

	snap := rec.Snapshot()
	view := StatusView{
		AccountID:       snap.AccountID,
		Status:          snap.Status,
		StrikeCount:     snap.StrikeCount,
		SuspensionCount: snap.SuspensionCount,
		SuspensionEnd:   snap.SuspensionEnd,
		BannedReason:    snap.BannedReason,
	}

	if s.cache != nil {
		if cacheErr := s.cache.Set(ctx, redrepo.CachedStatus{
			AccountID:       view.AccountID,
			Status:          string(view.Status),
			StrikeCount:     view.StrikeCount,
			SuspensionCount: view.SuspensionCount,
			SuspensionEnd:   view.SuspensionEnd,
			BannedReason:    view.BannedReason,
		}, s.cfg.StatusCacheTTL); cacheErr != nil {
			s.logger.Debug("status cache write failed", zap.Error(cacheErr))
		}
	}

	return view, nil
}

func (s *Service) ListSuspensions(ctx context.Context, accountID int64) ([]model.Suspension, error) {
	if accountID <= 0 {
		return nil, fmt.Errorf("%w: account id is required", ErrInvalidInput)
	}
	if s.suspensions == nil {
		return nil, ErrDependenciesNil
	}
	return s.suspensions.ListForAccount(ctx, accountID)
}

// AcknowledgeLift is the account holder confirming they have seen that their
// suspension was lifted. Valid only once, and only after the lift.
func (s *Service) AcknowledgeLift(ctx context.Context, accountID, suspensionID int64) (model.Suspension, error) {
	if s.suspensions == nil {
		return model.Suspension{}, ErrDependenciesNil
	}
	if accountID <= 0 || suspensionID <= 0 {
		return model.Suspension{}, fmt.Errorf("%w: account id and suspension id are required", ErrInvalidInput)
	}

	suspension, err := s.suspensions.GetByID(ctx, suspensionID)
	if err != nil {
		return model.Suspension{}, err
	}
	if suspension.AccountID != accountID {
		return model.Suspension{}, pgrepo.ErrSuspensionNotFound
	}

	return s.suspensions.Acknowledge(ctx, suspensionID)
}

// appendLedgerRow writes the suspension ledger row inside the account
// transaction, so two back-to-back actions on one account cannot interleave
// their appends and leave the surviving active row describing the older
// action. The row stays secondary bookkeeping: the repo runs it under a
// savepoint, and a failed append is logged while the account write commits
// regardless.
func (s *Service) appendLedgerRow(ctx context.Context, tx pgx.Tx, decision rules.Decision, now time.Time, violationIDs []string) *model.Suspension {
	if decision.Suspension == nil {
		return nil
	}

	directive := decision.Suspension
	suspension, err := s.suspensions.Append(ctx, tx, pgrepo.SuspensionWriteRecord{
		AccountID:           decision.Next.AccountID,
		Type:                directive.Type,
		Reason:              directive.Reason,
		SuspensionNumber:    directive.SuspensionNumber,
		StrikesAtSuspension: directive.StrikesAtSuspension,
		StartedAt:           now,
		EndsAt:              directive.EndsAt,
		ViolationIDs:        violationIDs,
	})
	if err != nil {
		s.logger.Warn("suspension ledger write failed",
			zap.Error(err), zap.Int64("account_id", decision.Next.AccountID))
		return nil
	}

	return &suspension
}

func (s *Service) recordAudit(ctx context.Context, adminID int64, action, targetID string, details map[string]any) {
	if s.audit == nil {
		return
	}
	s.audit.Record(ctx, adminID, action, "account", targetID, details)
}

func (s *Service) invalidateStatus(ctx context.Context, accountID int64) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, accountID); err != nil {
		s.logger.Debug("status cache invalidation failed", zap.Error(err))
	}
}

func truncateSnippet(text string, limit int) string {
	if limit <= 0 {
		limit = defaultSnippetLimit
	}

	count := 0
	for i := range text {
		if count == limit {
			return text[:i]
		}
		count++
	}
	return text
}
