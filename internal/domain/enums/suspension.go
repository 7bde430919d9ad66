package enums

type SuspensionType string

const (
	SuspensionTypeTemporary   SuspensionType = "temporary"
	SuspensionTypePermanent   SuspensionType = "permanent"
	SuspensionTypeRestriction SuspensionType = "restriction"
)

type SuspensionStatus string

const (
	SuspensionStatusActive SuspensionStatus = "active"
	SuspensionStatusLifted SuspensionStatus = "lifted"
)
