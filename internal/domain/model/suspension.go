package model

import (
	"time"

	"github.com/communa-app/backend/internal/domain/enums"
)

type Suspension struct {
	ID                  int64                  `json:"id"`
	AccountID           int64                  `json:"account_id"`
	Type                enums.SuspensionType   `json:"suspension_type"`
	Reason              string                 `json:"reason"`
	SuspensionNumber    int                    `json:"suspension_number"`
	StrikesAtSuspension int                    `json:"strikes_at_suspension"`
	StartedAt           time.Time              `json:"started_at"`
	EndsAt              *time.Time             `json:"ends_at,omitempty"`
	Status              enums.SuspensionStatus `json:"status"`
	LiftedAt            *time.Time             `json:"lifted_at,omitempty"`
	LiftedBy            *int64                 `json:"lifted_by,omitempty"`
	LiftedReason        string                 `json:"lifted_reason,omitempty"`
	LiftedAcknowledged  bool                   `json:"lifted_acknowledged"`
	ViolationIDs        []string               `json:"violation_ids,omitempty"`
}
