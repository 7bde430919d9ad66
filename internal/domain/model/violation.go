package model

import (
	"time"

	"github.com/communa-app/backend/internal/domain/enums"
)

type Violation struct {
	ID                   string              `json:"id"`
	AccountID            int64               `json:"account_id"`
	Type                 enums.ViolationType `json:"violation_type"`
	ContentID            string              `json:"content_id"`
	ContentText          string              `json:"content_text"`
	FlaggedCategories    []string            `json:"flagged_categories,omitempty"`
	CategoryScores       map[string]float64  `json:"category_scores,omitempty"`
	Summary              string              `json:"violation_summary"`
	ActionTaken          enums.ActionOutcome `json:"action_taken"`
	StrikeCountAfter     int                 `json:"strike_count_after"`
	SuspensionCountAfter int                 `json:"suspension_count_after"`
	EvidenceKey          string              `json:"evidence_key,omitempty"`
	CreatedAt            time.Time           `json:"created_at"`

	// Stored is false when the database rejected the insert and the record
	// was synthesized in memory so the moderation action could complete.
	Stored bool `json:"-"`
}
