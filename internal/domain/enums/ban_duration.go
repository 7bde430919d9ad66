package enums

import "time"

type BanDuration string

const (
	BanDuration1Day      BanDuration = "1_day"
	BanDuration3Days     BanDuration = "3_days"
	BanDuration1Week     BanDuration = "1_week"
	BanDuration2Weeks    BanDuration = "2_weeks"
	BanDuration1Month    BanDuration = "1_month"
	BanDuration3Months   BanDuration = "3_months"
	BanDuration6Months   BanDuration = "6_months"
	BanDuration1Year     BanDuration = "1_year"
	BanDurationPermanent BanDuration = "permanent"
)

func (d BanDuration) Valid() bool {
	_, ok := banDurationWindows[d]
	return ok || d == BanDurationPermanent
}

// Window resolves a duration label to its time window. The second return is
// false for permanent and for labels that do not resolve, which callers treat
// as an open-ended window.
func (d BanDuration) Window() (time.Duration, bool) {
	window, ok := banDurationWindows[d]
	return window, ok
}

var banDurationWindows = map[BanDuration]time.Duration{
	BanDuration1Day:    24 * time.Hour,
	BanDuration3Days:   3 * 24 * time.Hour,
	BanDuration1Week:   7 * 24 * time.Hour,
	BanDuration2Weeks:  14 * 24 * time.Hour,
	BanDuration1Month:  30 * 24 * time.Hour,
	BanDuration3Months: 90 * 24 * time.Hour,
	BanDuration6Months: 180 * 24 * time.Hour,
	BanDuration1Year:   365 * 24 * time.Hour,
}
