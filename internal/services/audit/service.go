package audit

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	pgrepo "github.com/communa-app/backend/internal/repo/postgres"
)

// Store is the append-only sink for audit entries.
type Store interface {
	Insert(ctx context.Context, rec pgrepo.AuditWriteRecord) error
}

// Service records every moderation decision. It is fire-and-forget: a failed
// write is logged and never propagated, so the primary action cannot be
// blocked by its own audit trail.
type Service struct {
	store  Store
	logger *zap.Logger
}

func NewService(store Store, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: store, logger: logger}
}

func (s *Service) Record(ctx context.Context, adminID int64, action, targetType, targetID string, details map[string]any) {
	if s == nil || s.store == nil {
		return
	}
	if strings.TrimSpace(action) == "" {
		s.logger.Warn("audit entry dropped: empty action")
		return
	}

	err := s.store.Insert(ctx, pgrepo.AuditWriteRecord{
		AdminID:    adminID,
		Action:     action,
		TargetType: targetType,
		TargetID:   targetID,
		Details:    details,
	})
	if err != nil {
		s.logger.Warn("audit entry write failed",
			zap.Error(err),
			zap.String("action", action),
			zap.String("target_type", targetType),
			zap.String("target_id", targetID),
			zap.Time("at", time.Now().UTC()),
		)
	}
}
