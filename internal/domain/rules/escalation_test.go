package rules

import (
	"errors"
	"testing"
	"time"

	"github.com/communa-app/backend/internal/domain/enums"
)

var testNow = time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

func activeSnapshot(strikes, suspensions int) AccountSnapshot {
	return AccountSnapshot{
		AccountID:       42,
		StrikeCount:     strikes,
		SuspensionCount: suspensions,
		Status:          enums.AccountStatusActive,
	}
}

func TestStrikeBelowThresholdOnlyIncrements(t *testing.T) {
	for strikes := 0; strikes < 2; strikes++ {
		decision, err := Apply(activeSnapshot(strikes, 0), enums.ModActionStrike, ActionParams{}, testNow)
		if err != nil {
			t.Fatalf("apply strike at %d strikes: %v", strikes, err)
		}
		if decision.Outcome != enums.OutcomeStrikeAdded {
			t.Fatalf("unexpected outcome: got %s want %s", decision.Outcome, enums.OutcomeStrikeAdded)
		}
		if decision.Next.StrikeCount != strikes+1 {
			t.Fatalf("unexpected strike count: got %d want %d", decision.Next.StrikeCount, strikes+1)
		}
		if decision.Next.Status != enums.AccountStatusActive {
			t.Fatalf("status changed on plain strike: %s", decision.Next.Status)
		}
		if decision.Suspension != nil {
			t.Fatalf("plain strike produced a suspension directive")
		}
		if decision.Next.LastViolationAt == nil || !decision.Next.LastViolationAt.Equal(testNow) {
			t.Fatalf("last_violation_at not stamped")
		}
	}
}

func TestThirdStrikeSuspendsAndResetsCounter(t *testing.T) {
	decision, err := Apply(activeSnapshot(2, 0), enums.ModActionStrike, ActionParams{}, testNow)
	if err != nil {
		t.Fatalf("apply third strike: %v", err)
	}

	if decision.Outcome != enums.OutcomeSuspended {
		t.Fatalf("unexpected outcome: got %s want %s", decision.Outcome, enums.OutcomeSuspended)
	}
	if decision.Next.StrikeCount != 0 {
		t.Fatalf("strike count not reset: got %d", decision.Next.StrikeCount)
	}
	if decision.Next.SuspensionCount != 1 {
		t.Fatalf("suspension count: got %d want 1", decision.Next.SuspensionCount)
	}
	if decision.Next.Status != enums.AccountStatusSuspended {
		t.Fatalf("unexpected status: %s", decision.Next.Status)
	}

	wantEnd := testNow.Add(SuspensionWindow)
	if decision.Next.SuspensionEnd == nil || !decision.Next.SuspensionEnd.Equal(wantEnd) {
		t.Fatalf("unexpected suspension end: got %v want %v", decision.Next.SuspensionEnd, wantEnd)
	}

	directive := decision.Suspension
	if directive == nil {
		t.Fatalf("expected suspension directive")
	}
	if directive.Type != enums.SuspensionTypeTemporary {
		t.Fatalf("unexpected suspension type: %s", directive.Type)
	}
	if directive.SuspensionNumber != 1 {
		t.Fatalf("unexpected suspension number: %d", directive.SuspensionNumber)
	}
	if directive.StrikesAtSuspension != 3 {
		t.Fatalf("unexpected strikes snapshot: %d", directive.StrikesAtSuspension)
	}
	if directive.EndsAt == nil || !directive.EndsAt.Equal(wantEnd) {
		t.Fatalf("directive ends_at mismatch")
	}
}

func TestThreeStrikeCycleFromFreshAccount(t *testing.T) {
	snap := activeSnapshot(0, 0)

	for i := 0; i < 3; i++ {
		decision, err := Apply(snap, enums.ModActionStrike, ActionParams{}, testNow)
		if err != nil {
			t.Fatalf("strike #%d: %v", i+1, err)
		}
		snap = decision.Next
	}

	if snap.StrikeCount != 0 || snap.SuspensionCount != 1 {
		t.Fatalf("unexpected counters: strikes=%d suspensions=%d", snap.StrikeCount, snap.SuspensionCount)
	}
	if snap.Status != enums.AccountStatusSuspended {
		t.Fatalf("unexpected status: %s", snap.Status)
	}
	wantEnd := testNow.Add(7 * 24 * time.Hour)
	if snap.SuspensionEnd == nil || !snap.SuspensionEnd.Equal(wantEnd) {
		t.Fatalf("unexpected suspension end: %v", snap.SuspensionEnd)
	}
}

func TestThirdSuspensionBecomesBan(t *testing.T) {
	decision, err := Apply(activeSnapshot(2, 2), enums.ModActionStrike, ActionParams{}, testNow)
	if err != nil {
		t.Fatalf("apply strike: %v", err)
	}

	next := decision.Next
	if decision.Outcome != enums.OutcomeBanned {
		t.Fatalf("unexpected outcome: %s", decision.Outcome)
	}
	if next.Status != enums.AccountStatusBanned {
		t.Fatalf("unexpected status: %s", next.Status)
	}
	if next.StrikeCount != 0 || next.SuspensionCount != 3 {
		t.Fatalf("unexpected counters: strikes=%d suspensions=%d", next.StrikeCount, next.SuspensionCount)
	}
	if next.SuspensionEnd != nil {
		t.Fatalf("ban must have no suspension end, got %v", next.SuspensionEnd)
	}
	if next.BannedAt == nil || next.BannedReason == "" {
		t.Fatalf("banned_at/banned_reason not set")
	}
	if decision.Suspension == nil || decision.Suspension.Type != enums.SuspensionTypePermanent {
		t.Fatalf("expected permanent suspension directive")
	}
	if decision.Suspension.SuspensionNumber != 3 {
		t.Fatalf("unexpected suspension number: %d", decision.Suspension.SuspensionNumber)
	}
}

func TestForceSuspendIgnoresStrikeThreshold(t *testing.T) {
	for _, strikes := range []int{0, 1, 2} {
		decision, err := Apply(activeSnapshot(strikes, 0), enums.ModActionForceSuspend, ActionParams{Reason: "tos breach"}, testNow)
		if err != nil {
			t.Fatalf("force suspend at %d strikes: %v", strikes, err)
		}
		if decision.Next.Status != enums.AccountStatusSuspended {
			t.Fatalf("unexpected status: %s", decision.Next.Status)
		}
		if decision.Next.StrikeCount != 0 {
			t.Fatalf("strike count not reset")
		}
		if decision.Next.SuspensionCount != 1 {
			t.Fatalf("suspension count not incremented")
		}
		if decision.Suspension == nil || decision.Suspension.StrikesAtSuspension != strikes {
			t.Fatalf("strikes snapshot mismatch at %d strikes", strikes)
		}
		wantEnd := testNow.Add(SuspensionWindow)
		if decision.Next.SuspensionEnd == nil || !decision.Next.SuspensionEnd.Equal(wantEnd) {
			t.Fatalf("unexpected window")
		}
	}
}

func TestBanDurationTable(t *testing.T) {
	tests := []struct {
		duration enums.BanDuration
		window   time.Duration
		typ      enums.SuspensionType
	}{
		{duration: enums.BanDuration1Day, window: 24 * time.Hour, typ: enums.SuspensionTypeTemporary},
		{duration: enums.BanDuration3Days, window: 72 * time.Hour, typ: enums.SuspensionTypeTemporary},
		{duration: enums.BanDuration1Week, window: 7 * 24 * time.Hour, typ: enums.SuspensionTypeTemporary},
		{duration: enums.BanDuration2Weeks, window: 14 * 24 * time.Hour, typ: enums.SuspensionTypeTemporary},
		{duration: enums.BanDuration1Month, window: 30 * 24 * time.Hour, typ: enums.SuspensionTypeTemporary},
		{duration: enums.BanDuration3Months, window: 90 * 24 * time.Hour, typ: enums.SuspensionTypeTemporary},
		{duration: enums.BanDuration6Months, window: 180 * 24 * time.Hour, typ: enums.SuspensionTypeTemporary},
		{duration: enums.BanDuration1Year, window: 365 * 24 * time.Hour, typ: enums.SuspensionTypeTemporary},
		{duration: enums.BanDurationPermanent, typ: enums.SuspensionTypePermanent},
		{duration: enums.BanDuration("2_years"), typ: enums.SuspensionTypePermanent},
	}

	for _, tt := range tests {
		t.Run(string(tt.duration), func(t *testing.T) {
			decision, err := Apply(activeSnapshot(1, 0), enums.ModActionBan, ActionParams{Reason: "severe abuse", Duration: tt.duration}, testNow)
			if err != nil {
				t.Fatalf("apply ban: %v", err)
			}
			if decision.Next.Status != enums.AccountStatusBanned {
				t.Fatalf("unexpected status: %s", decision.Next.Status)
			}
			if decision.Suspension == nil || decision.Suspension.Type != tt.typ {
				t.Fatalf("unexpected suspension type")
			}
			if tt.typ == enums.SuspensionTypePermanent {
				if decision.Next.SuspensionEnd != nil {
					t.Fatalf("permanent ban must leave suspension_end nil")
				}
				return
			}
			wantEnd := testNow.Add(tt.window)
			if decision.Next.SuspensionEnd == nil || !decision.Next.SuspensionEnd.Equal(wantEnd) {
				t.Fatalf("unexpected suspension end: got %v want %v", decision.Next.SuspensionEnd, wantEnd)
			}
		})
	}
}

func TestRestrictKeepsCounters(t *testing.T) {
	snap := activeSnapshot(2, 1)
	decision, err := Apply(snap, enums.ModActionRestrict, ActionParams{Reason: "spam wave", Duration: enums.BanDuration1Week}, testNow)
	if err != nil {
		t.Fatalf("apply restrict: %v", err)
	}

	if decision.Next.Status != enums.AccountStatusRestricted {
		t.Fatalf("unexpected status: %s", decision.Next.Status)
	}
	if decision.Next.StrikeCount != snap.StrikeCount || decision.Next.SuspensionCount != snap.SuspensionCount {
		t.Fatalf("restrict touched counters")
	}
	wantEnd := testNow.Add(7 * 24 * time.Hour)
	if decision.Next.SuspensionEnd == nil || !decision.Next.SuspensionEnd.Equal(wantEnd) {
		t.Fatalf("unexpected suspension end: %v", decision.Next.SuspensionEnd)
	}
	if decision.Suspension == nil {
		t.Fatalf("temporary restriction must produce a ledger directive")
	}
	if decision.Suspension.Type != enums.SuspensionTypeRestriction {
		t.Fatalf("unexpected directive type: %s", decision.Suspension.Type)
	}
	if decision.Suspension.SuspensionNumber != 0 {
		t.Fatalf("restriction must not consume the suspension sequence, got %d", decision.Suspension.SuspensionNumber)
	}
}

func TestPermanentRestrictionHasNoLedgerRow(t *testing.T) {
	decision, err := Apply(activeSnapshot(0, 0), enums.ModActionRestrict, ActionParams{Reason: "manual review", Duration: enums.BanDurationPermanent}, testNow)
	if err != nil {
		t.Fatalf("apply restrict: %v", err)
	}
	if decision.Suspension != nil {
		t.Fatalf("permanent restriction must not produce a ledger directive")
	}
	if decision.Next.SuspensionEnd != nil {
		t.Fatalf("permanent restriction must leave suspension_end nil")
	}
}

func TestUnrestrictClearsWindow(t *testing.T) {
	end := testNow.Add(time.Hour)
	snap := AccountSnapshot{
		AccountID:       7,
		StrikeCount:     1,
		SuspensionCount: 2,
		Status:          enums.AccountStatusRestricted,
		SuspensionEnd:   &end,
	}

	decision, err := Apply(snap, enums.ModActionUnrestrict, ActionParams{}, testNow)
	if err != nil {
		t.Fatalf("apply unrestrict: %v", err)
	}
	if decision.Next.Status != enums.AccountStatusActive {
		t.Fatalf("unexpected status: %s", decision.Next.Status)
	}
	if decision.Next.SuspensionEnd != nil {
		t.Fatalf("suspension_end not cleared")
	}
	if decision.Next.StrikeCount != 1 || decision.Next.SuspensionCount != 2 {
		t.Fatalf("unrestrict touched counters")
	}
	if decision.Suspension != nil {
		t.Fatalf("unrestrict must not produce a ledger directive")
	}
}

func TestLiftRestoresActive(t *testing.T) {
	end := testNow.Add(3 * 24 * time.Hour)
	for _, status := range []enums.AccountStatus{enums.AccountStatusSuspended, enums.AccountStatusBanned} {
		snap := AccountSnapshot{
			AccountID:       9,
			SuspensionCount: 1,
			Status:          status,
			SuspensionEnd:   &end,
			BannedAt:        &testNow,
			BannedReason:    "abuse",
		}

		decision, err := Apply(snap, enums.ModActionLift, ActionParams{Reason: "appeal granted"}, testNow)
		if err != nil {
			t.Fatalf("lift from %s: %v", status, err)
		}
		if decision.Next.Status != enums.AccountStatusActive {
			t.Fatalf("unexpected status after lift: %s", decision.Next.Status)
		}
		if decision.Next.SuspensionEnd != nil || decision.Next.BannedAt != nil || decision.Next.BannedReason != "" {
			t.Fatalf("lift did not clear ban fields")
		}
		if decision.Next.SuspensionCount != 1 {
			t.Fatalf("lift must not touch the suspension counter")
		}
		if !decision.LiftActive {
			t.Fatalf("lift must mark the active ledger row for lifting")
		}
	}
}

func TestLiftRequiresSuspendedOrBanned(t *testing.T) {
	for _, status := range []enums.AccountStatus{enums.AccountStatusActive, enums.AccountStatusRestricted} {
		snap := AccountSnapshot{AccountID: 5, Status: status}
		decision, err := Apply(snap, enums.ModActionLift, ActionParams{}, testNow)
		if !errors.Is(err, ErrNotSuspended) {
			t.Fatalf("expected ErrNotSuspended from %s, got %v", status, err)
		}
		if decision.Next != snap {
			t.Fatalf("failed lift mutated the snapshot")
		}
	}
}

func TestUnknownActionRejected(t *testing.T) {
	snap := activeSnapshot(1, 0)
	decision, err := Apply(snap, enums.ModAction("shadowban"), ActionParams{}, testNow)
	if !errors.Is(err, ErrUnknownAction) {
		t.Fatalf("expected ErrUnknownAction, got %v", err)
	}
	if decision.Next != snap {
		t.Fatalf("failed action mutated the snapshot")
	}
}

func TestActiveStrikeCountStaysBelowThreshold(t *testing.T) {
	snap := activeSnapshot(0, 0)
	for i := 0; i < 20; i++ {
		decision, err := Apply(snap, enums.ModActionStrike, ActionParams{}, testNow)
		if err != nil {
			t.Fatalf("strike #%d: %v", i+1, err)
		}
		snap = decision.Next
		if snap.Status == enums.AccountStatusBanned {
			break
		}
		if snap.StrikeCount < 0 || snap.StrikeCount > 2 {
			t.Fatalf("strike count out of range for non-banned account: %d", snap.StrikeCount)
		}
	}
	if snap.Status != enums.AccountStatusBanned || snap.SuspensionCount != 3 {
		t.Fatalf("repeated strikes did not converge to ban: status=%s suspensions=%d", snap.Status, snap.SuspensionCount)
	}
}
