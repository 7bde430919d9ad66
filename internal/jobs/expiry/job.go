package expiry

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/communa-app/backend/internal/domain/enums"
	pgrepo "github.com/communa-app/backend/internal/repo/postgres"
	modsvc "github.com/communa-app/backend/internal/services/moderation"
)

// Job reactivates accounts whose suspension, restriction or time-boxed ban
// window has elapsed. Bans escalated through the strike ledger are permanent,
// carry no end date and are never touched here.
type Job struct {
	accounts  expiredLister
	moderator reinstater
	interval  time.Duration
	batchSize int
	now       func() time.Time
	logger    *zap.Logger
}

type expiredLister interface {
	ListExpired(ctx context.Context, now time.Time, limit int) ([]pgrepo.AccountRecord, error)
}

type reinstater interface {
	AdminAction(ctx context.Context, in modsvc.AdminActionInput) (modsvc.ActionResult, error)
}

func New(accounts expiredLister, moderator reinstater, interval time.Duration, batchSize int, logger *zap.Logger) *Job {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	if batchSize <= 0 {
		batchSize = 100
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Job{
		accounts:  accounts,
		moderator: moderator,
		interval:  interval,
		batchSize: batchSize,
		now:       time.Now,
		logger:    logger,
	}
}

func (j *Job) Run(ctx context.Context) error {
	if j.accounts == nil || j.moderator == nil {
		return nil
	}

	records, err := j.accounts.ListExpired(ctx, j.now().UTC(), j.batchSize)
	if err != nil {
		return fmt.Errorf("list expired accounts: %w", err)
	}
	if len(records) == 0 {
		return nil
	}

	reinstated := 0
	for _, rec := range records {
		action := enums.ModActionLift
		reason := "suspension window elapsed"
		if enums.AccountStatus(rec.Status) == enums.AccountStatusRestricted {
			action = enums.ModActionUnrestrict
			reason = ""
		}

		if _, err := j.moderator.AdminAction(ctx, modsvc.AdminActionInput{
			AccountID: rec.AccountID,
			Action:    action,
			AdminID:   modsvc.SystemActorID,
			Reason:    reason,
		}); err != nil {
			// A failed account stays in the list and is retried next tick.
			j.logger.Warn("expiry reinstatement failed",
				zap.Error(err),
				zap.Int64("account_id", rec.AccountID),
				zap.String("action", string(action)))
			continue
		}
		reinstated++
	}

	if reinstated > 0 {
		j.logger.Info("expired suspensions reinstated", zap.Int("count", reinstated))
	}
	return nil
}

// RunLoop runs the job once immediately and then on every tick until the
// context is cancelled.
func (j *Job) RunLoop(ctx context.Context) error {
	if err := j.Run(ctx); err != nil {
		return err
	}

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := j.Run(ctx); err != nil {
				return err
			}
		}
	}
}
