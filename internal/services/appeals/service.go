package appeals

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/communa-app/backend/internal/domain/enums"
	"github.com/communa-app/backend/internal/domain/model"
	pgrepo "github.com/communa-app/backend/internal/repo/postgres"
	"github.com/communa-app/backend/internal/services/moderation"
)

var (
	ErrInvalidInput        = errors.New("invalid input")
	ErrDependenciesNil     = errors.New("appeal dependencies are not configured")
	ErrSuspensionNotActive = errors.New("suspension is not active")
	ErrNotSuspensionOwner  = errors.New("suspension belongs to another account")
	ErrDuplicateAppeal     = errors.New("a pending appeal already exists for this suspension")
)

type AppealStore interface {
	Insert(ctx context.Context, suspensionID, accountID int64, reason, additionalContext string) (model.Appeal, error)
	GetByID(ctx context.Context, appealID int64) (model.Appeal, error)
	GetPendingForSuspension(ctx context.Context, suspensionID int64) (model.Appeal, error)
	MarkResolved(ctx context.Context, appealID, adminID int64, status enums.AppealStatus, adminNotes, rejectionReason string) (model.Appeal, error)
}

type SuspensionReader interface {
	GetByID(ctx context.Context, suspensionID int64) (model.Suspension, error)
}

// Lifter is the reinstatement pathway an approved appeal triggers. In
// production this is the moderation service.
type Lifter interface {
	AdminAction(ctx context.Context, in moderation.AdminActionInput) (moderation.ActionResult, error)
}

type Auditor interface {
	Record(ctx context.Context, adminID int64, action, targetType, targetID string, details map[string]any)
}

type Service struct {
	appeals     AppealStore
	suspensions SuspensionReader
	lifter      Lifter
	audit       Auditor
	logger      *zap.Logger
}

func NewService(appeals AppealStore, suspensions SuspensionReader, lifter Lifter, audit Auditor, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		appeals:     appeals,
		suspensions: suspensions,
		lifter:      lifter,
		audit:       audit,
		logger:      logger,
	}
}

type FileInput struct {
	SuspensionID      int64
	AccountID         int64
	Reason            string
	AdditionalContext string
}

// File opens an appeal against a currently active suspension. One pending
// appeal per suspension; a second filing is rejected.
func (s *Service) File(ctx context.Context, in FileInput) (model.Appeal, error) {
	if s.appeals == nil || s.suspensions == nil {
		return model.Appeal{}, ErrDependenciesNil
	}
	if in.SuspensionID <= 0 || in.AccountID <= 0 {
		return model.Appeal{}, fmt.Errorf("%w: suspension id and account id are required", ErrInvalidInput)
	}
	if strings.TrimSpace(in.Reason) == "" {
		return model.Appeal{}, fmt.Errorf("%w: appeal reason is required", ErrInvalidInput)
	}

	suspension, err := s.suspensions.GetByID(ctx, in.SuspensionID)
	if err != nil {
		return model.Appeal{}, err
	}
	if suspension.AccountID != in.AccountID {
		return model.Appeal{}, ErrNotSuspensionOwner
	}
	if suspension.Status != enums.SuspensionStatusActive {
		return model.Appeal{}, ErrSuspensionNotActive
	}

	if _, err := s.appeals.GetPendingForSuspension(ctx, in.SuspensionID); err == nil {
		return model.Appeal{}, ErrDuplicateAppeal
	} else if !errors.Is(err, pgrepo.ErrAppealNotFound) {
		return model.Appeal{}, fmt.Errorf("check pending appeal: %w", err)
	}

	appeal, err := s.appeals.Insert(ctx, in.SuspensionID, in.AccountID, in.Reason, in.AdditionalContext)
	if err != nil {
		return model.Appeal{}, fmt.Errorf("file appeal: %w", err)
	}

	// The account holder is the actor here, not an admin.
	s.recordAudit(ctx, in.AccountID, "appeals.file", appeal.ID, map[string]any{
		"suspension_id": in.SuspensionID,
		"account_id":    in.AccountID,
	})

	return appeal, nil
}

type ResolveInput struct {
	AppealID        int64
	AdminID         int64
	Decision        enums.AppealDecision
	AdminNotes      string
	RejectionReason string
}

// Resolve closes a pending appeal. Approval lifts the contested suspension
// through the moderation pathway before the appeal itself is marked; rejection
// touches nothing but the appeal record.
func (s *Service) Resolve(ctx context.Context, in ResolveInput) (model.Appeal, error) {
	if s.appeals == nil || s.lifter == nil {
		return model.Appeal{}, ErrDependenciesNil
	}
	if in.AppealID <= 0 {
		return model.Appeal{}, fmt.Errorf("%w: appeal id is required", ErrInvalidInput)
	}
	if in.AdminID <= 0 {
		return model.Appeal{}, fmt.Errorf("%w: admin id is required", ErrInvalidInput)
	}
	if !in.Decision.Valid() {
		return model.Appeal{}, fmt.Errorf("%w: unknown appeal decision %q", ErrInvalidInput, in.Decision)
	}
	notes := strings.TrimSpace(in.AdminNotes)
	if notes == "" {
		return model.Appeal{}, fmt.Errorf("%w: admin notes are required", ErrInvalidInput)
	}
	rejection := strings.TrimSpace(in.RejectionReason)
	if in.Decision == enums.AppealDecisionRejected && rejection == "" {
		return model.Appeal{}, fmt.Errorf("%w: rejection reason is required", ErrInvalidInput)
	}

	appeal, err := s.appeals.GetByID(ctx, in.AppealID)
	if err != nil {
		return model.Appeal{}, err
	}
	if appeal.Status != enums.AppealStatusPending {
		return model.Appeal{}, pgrepo.ErrAppealResolved
	}

	status := enums.AppealStatusRejected
	if in.Decision == enums.AppealDecisionApproved {
		status = enums.AppealStatusApproved

		if _, err := s.lifter.AdminAction(ctx, moderation.AdminActionInput{
			AccountID: appeal.AccountID,
			Action:    enums.ModActionLift,
			AdminID:   in.AdminID,
			Reason:    "appeal approved: " + notes,
		}); err != nil {
			return model.Appeal{}, fmt.Errorf("lift suspension for appeal %d: %w", in.AppealID, err)
		}
	}

	resolved, err := s.appeals.MarkResolved(ctx, in.AppealID, in.AdminID, status, notes, rejection)
	if err != nil {
		if status == enums.AppealStatusApproved {
			// The account is already reinstated at this point; the stuck
			// appeal record needs manual attention.
			s.logger.Error("appeal approval persisted lift but not resolution",
				zap.Error(err), zap.Int64("appeal_id", in.AppealID))
		}
		return model.Appeal{}, err
	}

	s.recordAudit(ctx, in.AdminID, "appeals."+string(in.Decision), resolved.ID, map[string]any{
		"suspension_id": resolved.SuspensionID,
		"account_id":    resolved.AccountID,
	})

	return resolved, nil
}

func (s *Service) Get(ctx context.Context, appealID int64) (model.Appeal, error) {
	if s.appeals == nil {
		return model.Appeal{}, ErrDependenciesNil
	}
	if appealID <= 0 {
		return model.Appeal{}, fmt.Errorf("%w: appeal id is required", ErrInvalidInput)
	}
	return s.appeals.GetByID(ctx, appealID)
}

func (s *Service) recordAudit(ctx context.Context, adminID int64, action string, appealID int64, details map[string]any) {
	if s.audit == nil {
		return
	}
	s.audit.Record(ctx, adminID, action, "appeal", strconv.FormatInt(appealID, 10), details)
}
