package dto

import "time"

type SuspensionResponse struct {
	ID                  int64      `json:"id"`
	AccountID           int64      `json:"account_id"`
	SuspensionType      string     `json:"suspension_type"`
	Reason              string     `json:"reason"`
	SuspensionNumber    int        `json:"suspension_number"`
	StrikesAtSuspension int        `json:"strikes_at_suspension"`
	StartedAt           time.Time  `json:"started_at"`
	EndsAt              *time.Time `json:"ends_at,omitempty"`
	Status              string     `json:"status"`
	LiftedAt            *time.Time `json:"lifted_at,omitempty"`
	LiftedReason        string     `json:"lifted_reason,omitempty"`
	LiftedAcknowledged  bool       `json:"lifted_acknowledged"`
}

type SuspensionListResponse struct {
	Items []SuspensionResponse `json:"items"`
}
