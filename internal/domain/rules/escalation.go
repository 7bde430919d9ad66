package rules

import (
	"errors"
	"time"

	"github.com/communa-app/backend/internal/domain/enums"
)

const (
	// StrikeThreshold is the strike count that converts the current strike
	// cycle into a suspension.
	StrikeThreshold = 3

	// BanThreshold is the suspension count at which the next suspension
	// becomes a permanent ban.
	BanThreshold = 3

	// SuspensionWindow is the length of an automatic temporary suspension.
	SuspensionWindow = 7 * 24 * time.Hour
)

var (
	ErrUnknownAction = errors.New("unknown moderation action")
	ErrNotSuspended  = errors.New("account is not suspended or banned")
)

// AccountSnapshot is the immutable input/output of the transition function.
// It mirrors the persisted account row; the caller reads it atomically,
// applies one action and writes the result back under the same lock.
type AccountSnapshot struct {
	AccountID       int64
	StrikeCount     int
	SuspensionCount int
	Status          enums.AccountStatus
	SuspensionEnd   *time.Time
	BannedAt        *time.Time
	BannedReason    string
	LastViolationAt *time.Time
}

// ActionParams carries the caller-supplied inputs of a single action.
type ActionParams struct {
	Reason   string
	Duration enums.BanDuration
}

// SuspensionDirective tells the caller to append one suspension ledger row.
type SuspensionDirective struct {
	Type                enums.SuspensionType
	Reason              string
	SuspensionNumber    int
	StrikesAtSuspension int
	EndsAt              *time.Time
}

// Decision is the full outcome of one transition: the next account snapshot,
// the outcome label, and which supporting records must be written.
type Decision struct {
	Next       AccountSnapshot
	Outcome    enums.ActionOutcome
	Suspension *SuspensionDirective

	// LiftActive is set when the currently active suspension ledger row
	// must be marked lifted.
	LiftActive bool
}

// Apply computes the transition for one action against one atomically-read
// snapshot. It is pure: no I/O, no clock reads, deterministic for the same
// inputs. On error the snapshot is returned untouched inside the decision.
func Apply(snap AccountSnapshot, action enums.ModAction, params ActionParams, now time.Time) (Decision, error) {
	switch action {
	case enums.ModActionStrike:
		return applyStrike(snap, params, now), nil
	case enums.ModActionForceSuspend:
		return applyForceSuspend(snap, params, now), nil
	case enums.ModActionBan:
		return applyBan(snap, params, now), nil
	case enums.ModActionRestrict:
		return applyRestrict(snap, params, now), nil
	case enums.ModActionUnrestrict:
		return applyUnrestrict(snap), nil
	case enums.ModActionLift:
		return applyLift(snap)
	default:
		return Decision{Next: snap}, ErrUnknownAction
	}
}

func applyStrike(snap AccountSnapshot, params ActionParams, now time.Time) Decision {
	next := snap
	next.StrikeCount++
	next.LastViolationAt = &now

	if next.StrikeCount < StrikeThreshold {
		return Decision{Next: next, Outcome: enums.OutcomeStrikeAdded}
	}

	strikesAt := next.StrikeCount
	next.StrikeCount = 0
	next.SuspensionCount++

	if next.SuspensionCount >= BanThreshold {
		next.Status = enums.AccountStatusBanned
		next.SuspensionEnd = nil
		next.BannedAt = &now
		next.BannedReason = bannedReason(params.Reason)
		return Decision{
			Next:    next,
			Outcome: enums.OutcomeBanned,
			Suspension: &SuspensionDirective{
				Type:                enums.SuspensionTypePermanent,
				Reason:              next.BannedReason,
				SuspensionNumber:    next.SuspensionCount,
				StrikesAtSuspension: strikesAt,
			},
		}
	}

	end := now.Add(SuspensionWindow)
	next.Status = enums.AccountStatusSuspended
	next.SuspensionEnd = &end
	return Decision{
		Next:    next,
		Outcome: enums.OutcomeSuspended,
		Suspension: &SuspensionDirective{
			Type:                enums.SuspensionTypeTemporary,
			Reason:              suspensionReason(params.Reason),
			SuspensionNumber:    next.SuspensionCount,
			StrikesAtSuspension: strikesAt,
			EndsAt:              &end,
		},
	}
}

func applyForceSuspend(snap AccountSnapshot, params ActionParams, now time.Time) Decision {
	strikesAt := snap.StrikeCount

	next := snap
	next.StrikeCount = 0
	next.SuspensionCount++
	next.Status = enums.AccountStatusSuspended

	end := now.Add(SuspensionWindow)
	next.SuspensionEnd = &end

	return Decision{
		Next:    next,
		Outcome: enums.OutcomeSuspended,
		Suspension: &SuspensionDirective{
			Type:                enums.SuspensionTypeTemporary,
			Reason:              suspensionReason(params.Reason),
			SuspensionNumber:    next.SuspensionCount,
			StrikesAtSuspension: strikesAt,
			EndsAt:              &end,
		},
	}
}

func applyBan(snap AccountSnapshot, params ActionParams, now time.Time) Decision {
	strikesAt := snap.StrikeCount

	next := snap
	next.StrikeCount = 0
	next.SuspensionCount++
	next.Status = enums.AccountStatusBanned
	next.BannedAt = &now
	next.BannedReason = bannedReason(params.Reason)

	suspensionType := enums.SuspensionTypePermanent
	next.SuspensionEnd = nil

	var endsAt *time.Time
	if window, ok := params.Duration.Window(); ok {
		end := now.Add(window)
		next.SuspensionEnd = &end
		endsAt = &end
		suspensionType = enums.SuspensionTypeTemporary
	}

	return Decision{
		Next:    next,
		Outcome: enums.OutcomeBanned,
		Suspension: &SuspensionDirective{
			Type:                suspensionType,
			Reason:              next.BannedReason,
			SuspensionNumber:    next.SuspensionCount,
			StrikesAtSuspension: strikesAt,
			EndsAt:              endsAt,
		},
	}
}

func applyRestrict(snap AccountSnapshot, params ActionParams, now time.Time) Decision {
	next := snap
	next.Status = enums.AccountStatusRestricted
	next.SuspensionEnd = nil

	decision := Decision{Outcome: enums.OutcomeRestricted}

	// Restrictions never touch strike or suspension counters, and only a
	// temporary restriction gets a ledger row. Its suspension_number is 0:
	// restrictions do not consume the per-account suspension sequence.
	if window, ok := params.Duration.Window(); ok {
		end := now.Add(window)
		next.SuspensionEnd = &end
		decision.Suspension = &SuspensionDirective{
			Type:                enums.SuspensionTypeRestriction,
			Reason:              params.Reason,
			SuspensionNumber:    0,
			StrikesAtSuspension: snap.StrikeCount,
			EndsAt:              &end,
		}
	}

	decision.Next = next
	return decision
}

func applyUnrestrict(snap AccountSnapshot) Decision {
	next := snap
	next.Status = enums.AccountStatusActive
	next.SuspensionEnd = nil
	return Decision{Next: next, Outcome: enums.OutcomeUnrestricted}
}

func applyLift(snap AccountSnapshot) (Decision, error) {
	if snap.Status != enums.AccountStatusSuspended && snap.Status != enums.AccountStatusBanned {
		return Decision{Next: snap}, ErrNotSuspended
	}

	next := snap
	next.Status = enums.AccountStatusActive
	next.SuspensionEnd = nil
	next.BannedAt = nil
	next.BannedReason = ""

	return Decision{Next: next, Outcome: enums.OutcomeLifted, LiftActive: true}, nil
}

func bannedReason(reason string) string {
	if reason == "" {
		return "repeated policy violations"
	}
	return reason
}

func suspensionReason(reason string) string {
	if reason == "" {
		return "strike threshold reached"
	}
	return reason
}
