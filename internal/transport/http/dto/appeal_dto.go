package dto

import "time"

type AppealFileRequest struct {
	SuspensionID      int64  `json:"suspension_id"`
	Reason            string `json:"appeal_reason"`
	AdditionalContext string `json:"additional_context,omitempty"`
}

type AppealResolveRequest struct {
	Decision        string `json:"decision"`
	AdminNotes      string `json:"admin_notes"`
	RejectionReason string `json:"rejection_reason,omitempty"`
}

type AppealResponse struct {
	ID                int64      `json:"id"`
	SuspensionID      int64      `json:"suspension_id"`
	AccountID         int64      `json:"account_id"`
	Reason            string     `json:"appeal_reason"`
	AdditionalContext string     `json:"additional_context,omitempty"`
	Status            string     `json:"status"`
	ReviewedBy        *int64     `json:"reviewed_by,omitempty"`
	ReviewedAt        *time.Time `json:"reviewed_at,omitempty"`
	AdminNotes        string     `json:"admin_notes,omitempty"`
	RejectionReason   string     `json:"rejection_reason,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
}
