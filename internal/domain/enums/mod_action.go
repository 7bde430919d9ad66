package enums

type ModAction string

const (
	ModActionStrike       ModAction = "strike"
	ModActionForceSuspend ModAction = "force_suspend"
	ModActionBan          ModAction = "ban"
	ModActionRestrict     ModAction = "restrict"
	ModActionUnrestrict   ModAction = "unrestrict"
	ModActionLift         ModAction = "lift"
)

func (a ModAction) Valid() bool {
	switch a {
	case ModActionStrike, ModActionForceSuspend, ModActionBan, ModActionRestrict, ModActionUnrestrict, ModActionLift:
		return true
	}
	return false
}
