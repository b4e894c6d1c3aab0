package powerstar

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Bboy9090/Bobbys-World-Tools-sub004/internal/model"
	"github.com/Bboy9090/Bobbys-World-Tools-sub004/internal/policy"
)

// retention is how long a star survives after creation before the sweep
// removes it, regardless of state. Bounds memory; correctness never
// depends on the sweep because expiry is re-checked on every read.
const retention = time.Hour

// RequestResult is the outcome of RequestStar.
type RequestResult struct {
	Required bool            `json:"required"`
	Denied   bool            `json:"denied,omitempty"`
	Error    model.ErrorCode `json:"error,omitempty"`
	Reason   string          `json:"reason,omitempty"`
	Star     *StarView       `json:"star,omitempty"`
}

// CompleteResult is the outcome of CompleteChallenge.
type CompleteResult struct {
	Success   bool            `json:"success"`
	Error     model.ErrorCode `json:"error,omitempty"`
	Reason    string          `json:"reason,omitempty"`
	Remaining int             `json:"remaining_challenges"`
	Verified  bool            `json:"is_verified"`
}

// VerifyResult is the outcome of VerifyStar.
type VerifyResult struct {
	Valid  bool            `json:"valid"`
	Error  model.ErrorCode `json:"error,omitempty"`
	Reason string          `json:"reason,omitempty"`
}

// ConsumeResult is the outcome of ConsumeStar. On success it carries the
// star's full lifecycle trail for attachment to the operation's own
// audit record.
type ConsumeResult struct {
	Success bool            `json:"success"`
	Error   model.ErrorCode `json:"error,omitempty"`
	Reason  string          `json:"reason,omitempty"`
	Trail   []TrailEvent    `json:"audit_trail,omitempty"`
}

// Manager owns the in-memory star table. All access is serialized by
// one mutex; expiry is applied lazily whenever a star is read.
type Manager struct {
	mu    sync.Mutex
	stars map[string]*Star
	now   func() time.Time
}

// NewManager creates an empty Manager.
func NewManager() *Manager {
	return &Manager{
		stars: make(map[string]*Star),
		now:   time.Now,
	}
}

// RequestStar starts a verification ritual for an operation. Low-risk
// operations without an explicit confirmation flag short-circuit to
// {Required:false} with no star created, keeping routine operations
// cheap. Policy denial returns {Required:true, Denied:true}.
func (m *Manager) RequestStar(operation string, spec model.OperationSpec, ctx model.RequestContext) RequestResult {
	if spec.Risk == model.RiskLow && !spec.RequiresConfirmation {
		return RequestResult{Required: false}
	}

	pol := policy.Evaluate(ctx.EffectiveRole(), spec)
	if !pol.Allowed {
		return RequestResult{
			Required: true,
			Denied:   true,
			Error:    pol.Error,
			Reason:   pol.Reason,
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now().UTC()
	star := &Star{
		ID:         "star-" + uuid.NewString(),
		Operation:  operation,
		Spec:       spec,
		Context:    ctx,
		Challenges: buildChallenges(operation, spec, ctx),
		Completed:  make(map[string]bool),
		State:      StatePending,
		CreatedAt:  now,
		ExpiresAt:  now.Add(expiryWindow(spec.Risk)),
	}
	if ctx.Operator != nil {
		star.CreatedBy = ctx.Operator.ID
	}
	star.addTrail(now, "created", star.CreatedBy, fmt.Sprintf("%d challenges", len(star.Challenges)))

	m.stars[star.ID] = star

	view := star.view()
	return RequestResult{Required: true, Star: &view}
}

// CompleteChallenge verifies one challenge response. Completing the last
// pending challenge transitions the star to VERIFIED exactly once,
// recording the verifying operator and timestamp.
func (m *Manager) CompleteChallenge(starID, challengeID string, response any, operator string) CompleteResult {
	m.mu.Lock()
	defer m.mu.Unlock()

	star, code := m.get(starID)
	if code != "" {
		return CompleteResult{Success: false, Error: code, Reason: starFailureReason(code)}
	}

	var challenge *Challenge
	for i := range star.Challenges {
		if star.Challenges[i].ID == challengeID {
			challenge = &star.Challenges[i]
			break
		}
	}
	if challenge == nil {
		return CompleteResult{
			Success:   false,
			Error:     model.ErrChallengeNotFound,
			Reason:    fmt.Sprintf("star has no challenge %q", challengeID),
			Remaining: star.remaining(),
		}
	}
	if star.Completed[challengeID] {
		return CompleteResult{
			Success:   false,
			Error:     model.ErrChallengeAlreadyCompleted,
			Reason:    "challenge already completed",
			Remaining: star.remaining(),
		}
	}

	now := m.now().UTC()
	ok, reason := challenge.verify(star, response, operator, now)
	if !ok {
		star.addTrail(now, "challenge_failed", operator, fmt.Sprintf("%s: %s", challenge.ID, reason))
		return CompleteResult{
			Success:   false,
			Error:     model.ErrChallengeFailed,
			Reason:    reason,
			Remaining: star.remaining(),
		}
	}

	star.Completed[challengeID] = true
	star.addTrail(now, "challenge_completed", operator, challenge.ID)

	if star.remaining() == 0 {
		star.State = StateVerified
		star.VerifiedAt = now
		star.VerifiedBy = operator
		star.addTrail(now, "verified", operator, "")
	}

	return CompleteResult{
		Success:   true,
		Remaining: star.remaining(),
		Verified:  star.State == StateVerified,
	}
}

// VerifyStar is the read-only check that a star is VERIFIED, unexpired,
// bound to the given operation, and (when a serial is supplied) bound to
// the same device it was created for.
func (m *Manager) VerifyStar(starID, operation, deviceSerial string) VerifyResult {
	m.mu.Lock()
	defer m.mu.Unlock()

	star, code := m.get(starID)
	if code != "" {
		return VerifyResult{Valid: false, Error: code, Reason: starFailureReason(code)}
	}

	if star.State != StateVerified {
		return VerifyResult{Valid: false, Error: model.ErrStarNotValid, Reason: "star is not verified"}
	}
	if star.Operation != operation {
		return VerifyResult{
			Valid:  false,
			Error:  model.ErrOperationMismatch,
			Reason: fmt.Sprintf("star was issued for %s", star.Operation),
		}
	}
	if deviceSerial != "" {
		captured := ""
		if star.Context.Device != nil {
			captured = star.Context.Device.Serial
		}
		if deviceSerial != captured {
			return VerifyResult{Valid: false, Error: model.ErrDeviceMismatch, Reason: "device serial does not match the star"}
		}
	}

	return VerifyResult{Valid: true}
}

// ConsumeStar burns a verified star. This is the only call that should
// gate the real side-effecting operation: it succeeds at most once, then
// forces the star to EXPIRED so replay is impossible, returning the
// lifecycle trail.
func (m *Manager) ConsumeStar(starID string) ConsumeResult {
	m.mu.Lock()
	defer m.mu.Unlock()

	star, ok := m.stars[starID]
	if !ok {
		return ConsumeResult{Success: false, Error: model.ErrStarNotFound, Reason: starFailureReason(model.ErrStarNotFound)}
	}
	if star.Consumed {
		return ConsumeResult{Success: false, Error: model.ErrStarNotValid, Reason: "star already consumed"}
	}
	m.expireIfDue(star)
	switch star.State {
	case StateExpired:
		return ConsumeResult{Success: false, Error: model.ErrStarExpired, Reason: starFailureReason(model.ErrStarExpired)}
	case StateRevoked:
		return ConsumeResult{Success: false, Error: model.ErrStarRevoked, Reason: starFailureReason(model.ErrStarRevoked)}
	}

	if star.State != StateVerified {
		return ConsumeResult{Success: false, Error: model.ErrStarNotValid, Reason: "star is not verified"}
	}

	now := m.now().UTC()
	star.Consumed = true
	star.State = StateExpired
	star.addTrail(now, "consumed", star.VerifiedBy, "")

	return ConsumeResult{
		Success: true,
		Trail:   append([]TrailEvent(nil), star.Trail...),
	}
}

// Revoke terminally cancels a star. Revocation wins over any other
// state except prior revocation.
func (m *Manager) Revoke(starID, operator, reason string) (bool, model.ErrorCode) {
	m.mu.Lock()
	defer m.mu.Unlock()

	star, ok := m.stars[starID]
	if !ok {
		return false, model.ErrStarNotFound
	}
	if star.State == StateRevoked {
		return false, model.ErrStarRevoked
	}

	star.State = StateRevoked
	star.addTrail(m.now().UTC(), "revoked", operator, reason)
	return true, ""
}

// Get returns a snapshot of a star, applying lazy expiry.
func (m *Manager) Get(starID string) (StarView, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	star, ok := m.stars[starID]
	if !ok {
		return StarView{}, false
	}
	m.expireIfDue(star)
	return star.view(), true
}

// List returns snapshots of every star in the table.
func (m *Manager) List() []StarView {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]StarView, 0, len(m.stars))
	for _, star := range m.stars {
		m.expireIfDue(star)
		out = append(out, star.view())
	}
	return out
}

// ActiveCount counts stars still pending or verified.
func (m *Manager) ActiveCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := 0
	for _, star := range m.stars {
		m.expireIfDue(star)
		if star.State == StatePending || star.State == StateVerified {
			n++
		}
	}
	return n
}

// Sweep deletes stars past the retention window regardless of state and
// returns how many were removed.
func (m *Manager) Sweep() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now().UTC()
	removed := 0
	for id, star := range m.stars {
		if now.Sub(star.CreatedAt) > retention {
			delete(m.stars, id)
			removed++
		}
	}
	return removed
}

// StartSweeper runs Sweep on the given interval until ctx is cancelled.
func (m *Manager) StartSweeper(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				m.Sweep()
			}
		}
	}()
}

// get looks up a star and applies lazy expiry, returning an error code
// for missing, expired, or revoked stars. Caller holds the lock.
func (m *Manager) get(starID string) (*Star, model.ErrorCode) {
	star, ok := m.stars[starID]
	if !ok {
		return nil, model.ErrStarNotFound
	}
	m.expireIfDue(star)
	switch star.State {
	case StateExpired:
		return nil, model.ErrStarExpired
	case StateRevoked:
		return nil, model.ErrStarRevoked
	}
	return star, ""
}

// expireIfDue applies the lazy expiry transition. Caller holds the lock.
func (m *Manager) expireIfDue(star *Star) {
	if star.State != StatePending && star.State != StateVerified {
		return
	}
	now := m.now().UTC()
	if star.expired(now) {
		star.State = StateExpired
		star.addTrail(now, "expired", "", "")
	}
}

func starFailureReason(code model.ErrorCode) string {
	switch code {
	case model.ErrStarNotFound:
		return "no such star"
	case model.ErrStarExpired:
		return "star has expired"
	case model.ErrStarRevoked:
		return "star was revoked"
	default:
		return string(code)
	}
}
