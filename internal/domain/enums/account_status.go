package enums

type AccountStatus string

const (
	AccountStatusActive     AccountStatus = "active"
	AccountStatusRestricted AccountStatus = "restricted"
	AccountStatusSuspended  AccountStatus = "suspended"
	AccountStatusBanned     AccountStatus = "banned"
)

func (s AccountStatus) Valid() bool {
	switch s {
	case AccountStatusActive, AccountStatusRestricted, AccountStatusSuspended, AccountStatusBanned:
		return true
	}
	return false
}
