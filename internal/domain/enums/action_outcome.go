package enums

// ActionOutcome labels what a moderation action actually did to the account.
// The first three are the only outcomes stored on violation records.
type ActionOutcome string

const (
	OutcomeStrikeAdded  ActionOutcome = "strike_added"
	OutcomeSuspended    ActionOutcome = "suspended"
	OutcomeBanned       ActionOutcome = "banned"
	OutcomeRestricted   ActionOutcome = "restricted"
	OutcomeUnrestricted ActionOutcome = "unrestricted"
	OutcomeLifted       ActionOutcome = "lifted"
)
