package enums

type AppealStatus string

const (
	AppealStatusPending  AppealStatus = "pending"
	AppealStatusApproved AppealStatus = "approved"
	AppealStatusRejected AppealStatus = "rejected"
)

type AppealDecision string

const (
	AppealDecisionApproved AppealDecision = "approved"
	AppealDecisionRejected AppealDecision = "rejected"
)

func (d AppealDecision) Valid() bool {
	return d == AppealDecisionApproved || d == AppealDecisionRejected
}
