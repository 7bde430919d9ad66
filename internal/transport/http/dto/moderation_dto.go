package dto

import "time"

type ViolationRequest struct {
	AccountID         int64              `json:"account_id"`
	ViolationType     string             `json:"violation_type"`
	ContentID         string             `json:"content_id"`
	ContentText       string             `json:"content_text"`
	FlaggedCategories []string           `json:"flagged_categories,omitempty"`
	CategoryScores    map[string]float64 `json:"category_scores,omitempty"`
	Summary           string             `json:"violation_summary"`
}

type AdminActionRequest struct {
	Action   string `json:"action"`
	Reason   string `json:"reason,omitempty"`
	Duration string `json:"duration,omitempty"`
}

type AccountStatusResponse struct {
	AccountID       int64      `json:"account_id"`
	Status          string     `json:"status"`
	StrikeCount     int        `json:"strike_count"`
	SuspensionCount int        `json:"suspension_count"`
	SuspensionEnd   *time.Time `json:"suspension_end,omitempty"`
	BannedReason    string     `json:"banned_reason,omitempty"`
}

type ViolationResponse struct {
	ID                   string    `json:"id"`
	AccountID            int64     `json:"account_id"`
	ViolationType        string    `json:"violation_type"`
	ContentID            string    `json:"content_id"`
	ContentText          string    `json:"content_text"`
	Summary              string    `json:"violation_summary"`
	ActionTaken          string    `json:"action_taken"`
	StrikeCountAfter     int       `json:"strike_count_after"`
	SuspensionCountAfter int       `json:"suspension_count_after"`
	CreatedAt            time.Time `json:"created_at"`
	Stored               bool      `json:"stored"`
}

type ActionResponse struct {
	Account    AccountStatusResponse `json:"account"`
	Outcome    string                `json:"outcome"`
	Violation  *ViolationResponse    `json:"violation,omitempty"`
	Suspension *SuspensionResponse   `json:"suspension,omitempty"`
	Lifted     *SuspensionResponse   `json:"lifted,omitempty"`
}
