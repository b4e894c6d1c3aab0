package powerstar

import (
	"crypto/sha256"
	"encoding/hex"
	"testing"
	"time"

	"github.com/Bboy9090/Bobbys-World-Tools-sub004/internal/model"
)

// testClock lets tests advance wall-clock time deterministically.
type testClock struct {
	now time.Time
}

func (c *testClock) advance(d time.Duration) { c.now = c.now.Add(d) }

func newTestManager() (*Manager, *testClock) {
	clock := &testClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
	m := NewManager()
	m.now = func() time.Time { return clock.now }
	return m, clock
}

func resetSpec() model.OperationSpec {
	return model.OperationSpec{
		Name:         "factory.reset",
		Description:  "Erases all user data and restores factory firmware",
		Category:     model.CategoryDestructive,
		Risk:         model.RiskDestructive,
		AllowedRoles: []model.Role{model.RoleOwner, model.RoleAdmin},
	}
}

func ownerCtx() model.RequestContext {
	return model.RequestContext{
		Role:     model.RoleOwner,
		Device:   &model.Device{ID: "d1", Mode: "adb", Serial: "ABC123"},
		Operator: &model.Operator{ID: "op-1", Verified: true},
	}
}

// completeAll walks every challenge of a star with correct responses.
func completeAll(t *testing.T, m *Manager, clock *testClock, star *StarView, operator string) CompleteResult {
	t.Helper()

	var last CompleteResult
	for _, c := range star.Challenges {
		var response any
		switch c.Type {
		case ChallengeConfirm:
			response = true
		case ChallengeDeviceSerial:
			response = "ABC123"
		case ChallengeKnowledge:
			response = "Erases all user data and restores factory firmware"
		case ChallengeTimeLock:
			clock.advance(time.Duration(c.WaitSeconds) * time.Second)
			response = true
		default:
			t.Fatalf("unexpected challenge type %s", c.Type)
		}
		last = m.CompleteChallenge(star.ID, c.ID, response, operator)
		if !last.Success {
			t.Fatalf("challenge %s (%s) failed: %s", c.ID, c.Type, last.Reason)
		}
	}
	return last
}

func TestLowRiskNeedsNoStar(t *testing.T) {
	m, _ := newTestManager()
	spec := model.OperationSpec{
		Name:         "device.info",
		Category:     model.CategoryDiagnostics,
		Risk:         model.RiskLow,
		AllowedRoles: []model.Role{model.RoleViewer},
	}

	result := m.RequestStar("device.info", spec, model.RequestContext{Role: model.RoleViewer})

	if result.Required {
		t.Error("low risk without explicit flag must not require a star")
	}
	if result.Star != nil {
		t.Error("no star may be created for a non-required request")
	}
}

func TestExplicitConfirmationOverridesLowRisk(t *testing.T) {
	m, _ := newTestManager()
	spec := model.OperationSpec{
		Name:                 "backup.create",
		Category:             model.CategoryBackup,
		Risk:                 model.RiskLow,
		AllowedRoles:         []model.Role{model.RoleOwner},
		RequiresConfirmation: true,
	}

	result := m.RequestStar("backup.create", spec, ownerCtx())

	if !result.Required || result.Star == nil {
		t.Fatal("explicit confirmation flag must create a star")
	}
}

func TestPolicyDenialSurfaces(t *testing.T) {
	m, _ := newTestManager()
	ctx := ownerCtx()
	ctx.Role = model.RoleViewer

	result := m.RequestStar("factory.reset", resetSpec(), ctx)

	if !result.Required || !result.Denied {
		t.Fatal("viewer must be denied with Required=true")
	}
	if result.Star != nil {
		t.Error("denied request must not create a star")
	}
}

func TestDestructiveChallengeSetAndWindow(t *testing.T) {
	m, _ := newTestManager()

	result := m.RequestStar("factory.reset", resetSpec(), ownerCtx())
	if result.Star == nil {
		t.Fatalf("expected a star, got %+v", result)
	}
	star := result.Star

	if len(star.Challenges) != 4 {
		t.Fatalf("expected 4 challenges, got %d", len(star.Challenges))
	}

	wantOrder := []ChallengeType{ChallengeConfirm, ChallengeDeviceSerial, ChallengeKnowledge, ChallengeTimeLock}
	for i, want := range wantOrder {
		if star.Challenges[i].Type != want {
			t.Errorf("challenge %d: expected %s, got %s", i, want, star.Challenges[i].Type)
		}
	}

	if star.Challenges[3].WaitSeconds != 30 {
		t.Errorf("destructive time lock must wait 30s, got %d", star.Challenges[3].WaitSeconds)
	}
	if star.ExpiresIn != 120000 {
		t.Errorf("destructive expiry window must be 120000ms, got %d", star.ExpiresIn)
	}

	serial := star.Challenges[1]
	if serial.Hint != "…C123" {
		t.Errorf("serial hint must show last 4 only, got %q", serial.Hint)
	}
}

func TestHighRiskGetsTenSecondLock(t *testing.T) {
	m, _ := newTestManager()
	spec := model.OperationSpec{
		Name:         "bootloader.unlock",
		Category:     model.CategoryRestore,
		Risk:         model.RiskHigh,
		AllowedRoles: []model.Role{model.RoleOwner},
	}

	result := m.RequestStar("bootloader.unlock", spec, ownerCtx())
	star := result.Star
	if star == nil {
		t.Fatal("expected a star")
	}

	last := star.Challenges[len(star.Challenges)-1]
	if last.Type != ChallengeTimeLock || last.WaitSeconds != 10 {
		t.Errorf("high risk must end with a 10s time lock, got %s/%ds", last.Type, last.WaitSeconds)
	}
	if star.ExpiresIn != 180000 {
		t.Errorf("high-risk window must be 180000ms, got %d", star.ExpiresIn)
	}
}

func TestVerifiedExactlyWhenAllComplete(t *testing.T) {
	m, clock := newTestManager()
	star := m.RequestStar("factory.reset", resetSpec(), ownerCtx()).Star

	// All but the final challenge: star must stay unverified.
	for i, c := range star.Challenges[:len(star.Challenges)-1] {
		var response any
		switch c.Type {
		case ChallengeConfirm:
			response = true
		case ChallengeDeviceSerial:
			response = "ABC123"
		case ChallengeKnowledge:
			response = "Erases all user data and restores factory firmware"
		}
		res := m.CompleteChallenge(star.ID, c.ID, response, "op-1")
		if !res.Success {
			t.Fatalf("challenge %d failed: %s", i, res.Reason)
		}
		if res.Verified {
			t.Fatal("star verified before all challenges completed")
		}
	}

	partial, _ := m.Get(star.ID)
	if partial.Remaining != 1 {
		t.Errorf("expected 1 remaining challenge, got %d", partial.Remaining)
	}
	if partial.State != StatePending {
		t.Errorf("expected pending, got %s", partial.State)
	}

	clock.advance(30 * time.Second)
	last := star.Challenges[len(star.Challenges)-1]
	res := m.CompleteChallenge(star.ID, last.ID, true, "op-1")
	if !res.Success || !res.Verified {
		t.Fatalf("final challenge should verify the star: %+v", res)
	}
}

func TestTimeLockRejectsEarlyAndIsRecheckable(t *testing.T) {
	m, clock := newTestManager()
	star := m.RequestStar("factory.reset", resetSpec(), ownerCtx()).Star

	var lock ChallengeView
	for _, c := range star.Challenges {
		if c.Type == ChallengeTimeLock {
			lock = c
		}
	}

	res := m.CompleteChallenge(star.ID, lock.ID, true, "op-1")
	if res.Success || res.Error != model.ErrChallengeFailed {
		t.Fatalf("time lock must reject before the wait elapses: %+v", res)
	}

	clock.advance(31 * time.Second)
	res = m.CompleteChallenge(star.ID, lock.ID, true, "op-1")
	if !res.Success {
		t.Fatalf("time lock must pass after the wait: %s", res.Reason)
	}
}

func TestWrongSerialRejected(t *testing.T) {
	m, _ := newTestManager()
	star := m.RequestStar("factory.reset", resetSpec(), ownerCtx()).Star

	res := m.CompleteChallenge(star.ID, star.Challenges[1].ID, "XYZ999", "op-1")
	if res.Success || res.Error != model.ErrChallengeFailed {
		t.Fatalf("wrong serial must fail verification: %+v", res)
	}
}

func TestChallengeNotFoundAndAlreadyCompleted(t *testing.T) {
	m, _ := newTestManager()
	star := m.RequestStar("factory.reset", resetSpec(), ownerCtx()).Star

	if res := m.CompleteChallenge(star.ID, "chal-99", true, "op-1"); res.Error != model.ErrChallengeNotFound {
		t.Errorf("expected challenge_not_found, got %s", res.Error)
	}

	confirm := star.Challenges[0]
	if res := m.CompleteChallenge(star.ID, confirm.ID, true, "op-1"); !res.Success {
		t.Fatalf("confirm failed: %s", res.Reason)
	}
	if res := m.CompleteChallenge(star.ID, confirm.ID, true, "op-1"); res.Error != model.ErrChallengeAlreadyCompleted {
		t.Errorf("expected challenge_already_completed, got %s", res.Error)
	}
}

func TestPasscodeChallenge(t *testing.T) {
	m, _ := newTestManager()
	sum := sha256.Sum256([]byte("open-sesame"))
	spec := resetSpec()
	spec.PasscodeSHA256 = hex.EncodeToString(sum[:])

	star := m.RequestStar("factory.reset", spec, ownerCtx()).Star

	var passcode ChallengeView
	for _, c := range star.Challenges {
		if c.Type == ChallengePasscode {
			passcode = c
		}
	}
	if passcode.ID == "" {
		t.Fatal("passcode challenge missing")
	}

	if res := m.CompleteChallenge(star.ID, passcode.ID, "guess", "op-1"); res.Success {
		t.Fatal("wrong passcode must fail")
	}
	if res := m.CompleteChallenge(star.ID, passcode.ID, "open-sesame", "op-1"); !res.Success {
		t.Fatalf("correct passcode rejected: %s", res.Reason)
	}
}

func TestDualOperatorChallenge(t *testing.T) {
	m, _ := newTestManager()
	spec := resetSpec()
	spec.DualOperator = true

	star := m.RequestStar("factory.reset", spec, ownerCtx()).Star

	var dual ChallengeView
	for _, c := range star.Challenges {
		if c.Type == ChallengeDualOperator {
			dual = c
		}
	}

	if res := m.CompleteChallenge(star.ID, dual.ID, true, "op-1"); res.Success {
		t.Fatal("creator must not countersign their own star")
	}
	if res := m.CompleteChallenge(star.ID, dual.ID, true, "op-2"); !res.Success {
		t.Fatalf("second operator rejected: %s", res.Reason)
	}
}

func TestExpiryLazyOnRead(t *testing.T) {
	m, clock := newTestManager()
	star := m.RequestStar("factory.reset", resetSpec(), ownerCtx()).Star

	clock.advance(121 * time.Second)

	res := m.CompleteChallenge(star.ID, star.Challenges[0].ID, true, "op-1")
	if res.Error != model.ErrStarExpired {
		t.Errorf("expired star must reject challenges, got %s", res.Error)
	}

	view, ok := m.Get(star.ID)
	if !ok {
		t.Fatal("expired star remains readable until the sweep")
	}
	if view.State != StateExpired {
		t.Errorf("expected expired, got %s", view.State)
	}
}

func TestVerifiedStarExpiresToo(t *testing.T) {
	m, clock := newTestManager()
	star := m.RequestStar("factory.reset", resetSpec(), ownerCtx()).Star
	completeAll(t, m, clock, star, "op-1")

	clock.advance(expiryDestructive + time.Second)

	verify := m.VerifyStar(star.ID, "factory.reset", "ABC123")
	if verify.Valid || verify.Error != model.ErrStarExpired {
		t.Errorf("fully completed but expired star must be invalid, got %+v", verify)
	}
}

func TestVerifyStarMatchesOperationAndSerial(t *testing.T) {
	m, clock := newTestManager()
	star := m.RequestStar("factory.reset", resetSpec(), ownerCtx()).Star
	completeAll(t, m, clock, star, "op-1")

	if v := m.VerifyStar(star.ID, "factory.reset", "ABC123"); !v.Valid {
		t.Fatalf("expected valid star: %+v", v)
	}
	if v := m.VerifyStar(star.ID, "factory.reset", ""); !v.Valid {
		t.Errorf("serial check is optional: %+v", v)
	}
	if v := m.VerifyStar(star.ID, "flash.boot", ""); v.Error != model.ErrOperationMismatch {
		t.Errorf("expected operation_mismatch, got %+v", v)
	}
	if v := m.VerifyStar(star.ID, "factory.reset", "WRONG"); v.Error != model.ErrDeviceMismatch {
		t.Errorf("expected device_mismatch, got %+v", v)
	}
}

func TestConsumeOnceOnly(t *testing.T) {
	m, clock := newTestManager()
	star := m.RequestStar("factory.reset", resetSpec(), ownerCtx()).Star
	completeAll(t, m, clock, star, "op-1")

	first := m.ConsumeStar(star.ID)
	if !first.Success {
		t.Fatalf("first consume must succeed: %+v", first)
	}
	if len(first.Trail) == 0 {
		t.Error("consume must return the lifecycle trail")
	}

	second := m.ConsumeStar(star.ID)
	if second.Success || second.Error != model.ErrStarNotValid {
		t.Errorf("second consume must fail with star_not_valid, got %+v", second)
	}
}

func TestConsumeUnverifiedFails(t *testing.T) {
	m, _ := newTestManager()
	star := m.RequestStar("factory.reset", resetSpec(), ownerCtx()).Star

	res := m.ConsumeStar(star.ID)
	if res.Success || res.Error != model.ErrStarNotValid {
		t.Errorf("pending star must not be consumable, got %+v", res)
	}
}

func TestRevokeIsTerminal(t *testing.T) {
	m, _ := newTestManager()
	star := m.RequestStar("factory.reset", resetSpec(), ownerCtx()).Star

	ok, _ := m.Revoke(star.ID, "op-admin", "suspicious request")
	if !ok {
		t.Fatal("revoke failed")
	}

	res := m.CompleteChallenge(star.ID, star.Challenges[0].ID, true, "op-1")
	if res.Error != model.ErrStarRevoked {
		t.Errorf("revoked star must reject challenges, got %s", res.Error)
	}

	if ok, code := m.Revoke(star.ID, "op-admin", "again"); ok || code != model.ErrStarRevoked {
		t.Errorf("double revoke must fail, got %v %s", ok, code)
	}
}

func TestSweepRemovesOldStarsRegardlessOfState(t *testing.T) {
	m, clock := newTestManager()
	old := m.RequestStar("factory.reset", resetSpec(), ownerCtx()).Star

	clock.advance(retention + time.Minute)
	fresh := m.RequestStar("factory.reset", resetSpec(), ownerCtx()).Star

	removed := m.Sweep()
	if removed != 1 {
		t.Fatalf("expected 1 removal, got %d", removed)
	}
	if _, ok := m.Get(old.ID); ok {
		t.Error("swept star must be gone")
	}
	if _, ok := m.Get(fresh.ID); !ok {
		t.Error("fresh star must survive the sweep")
	}
}
