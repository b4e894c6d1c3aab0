package powerstar

import (
	"time"

	"github.com/Bboy9090/Bobbys-World-Tools-sub004/internal/model"
)

// State is the lifecycle state of a power star.
type State string

const (
	StatePending  State = "pending"
	StateVerified State = "verified"
	StateExpired  State = "expired"
	StateRevoked  State = "revoked"
)

// Expiry windows by risk level.
const (
	expiryDestructive = 120 * time.Second
	expiryHigh        = 180 * time.Second
	expiryDefault     = 300 * time.Second
)

// TrailEvent is one entry in a star's own lifecycle audit trail.
type TrailEvent struct {
	Timestamp time.Time `json:"timestamp"`
	Event     string    `json:"event"`
	Operator  string    `json:"operator,omitempty"`
	Detail    string    `json:"detail,omitempty"`
}

// Star is a time-boxed, multi-challenge verification token. It is
// mutated only by the Manager under its lock; once expired, revoked, or
// consumed it becomes unusable but survives until the retention sweep.
type Star struct {
	ID        string
	Operation string
	Spec      model.OperationSpec
	Context   model.RequestContext

	Challenges []Challenge
	Completed  map[string]bool

	State      State
	Consumed   bool
	CreatedAt  time.Time
	ExpiresAt  time.Time
	CreatedBy  string
	VerifiedAt time.Time
	VerifiedBy string

	Trail []TrailEvent
}

// remaining counts challenges not yet completed.
func (s *Star) remaining() int {
	return len(s.Challenges) - len(s.Completed)
}

// expired reports whether the expiry deadline has passed. It does not
// mutate state; the Manager applies the transition.
func (s *Star) expired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}

// addTrail appends a lifecycle event.
func (s *Star) addTrail(now time.Time, event, operator, detail string) {
	s.Trail = append(s.Trail, TrailEvent{
		Timestamp: now,
		Event:     event,
		Operator:  operator,
		Detail:    detail,
	})
}

// expiryWindow returns the risk-dependent validity window.
func expiryWindow(risk model.RiskLevel) time.Duration {
	switch risk {
	case model.RiskDestructive:
		return expiryDestructive
	case model.RiskHigh:
		return expiryHigh
	default:
		return expiryDefault
	}
}

// ChallengeView is the operator-facing form of a challenge. Expected
// values stay server-side; the serial challenge exposes a last-4 hint.
type ChallengeView struct {
	ID          string        `json:"id"`
	Type        ChallengeType `json:"type"`
	Description string        `json:"description"`
	Order       int           `json:"order"`
	Options     []string      `json:"options,omitempty"`
	WaitSeconds int           `json:"wait_seconds,omitempty"`
	Hint        string        `json:"hint,omitempty"`
	Completed   bool          `json:"completed"`
}

// StarView is the externally visible snapshot of a star.
type StarView struct {
	ID         string          `json:"id"`
	Operation  string          `json:"operation"`
	State      State           `json:"state"`
	CreatedAt  time.Time       `json:"created_at"`
	ExpiresAt  time.Time       `json:"expires_at"`
	ExpiresIn  int64           `json:"expires_in_ms"`
	Challenges []ChallengeView `json:"challenges"`
	Remaining  int             `json:"remaining_challenges"`
}

// view snapshots the star for callers.
func (s *Star) view() StarView {
	v := StarView{
		ID:        s.ID,
		Operation: s.Operation,
		State:     s.State,
		CreatedAt: s.CreatedAt,
		ExpiresAt: s.ExpiresAt,
		ExpiresIn: s.ExpiresAt.Sub(s.CreatedAt).Milliseconds(),
		Remaining: s.remaining(),
	}
	for _, c := range s.Challenges {
		v.Challenges = append(v.Challenges, ChallengeView{
			ID:          c.ID,
			Type:        c.Type,
			Description: c.Description,
			Order:       c.Order,
			Options:     c.Options,
			WaitSeconds: c.WaitSeconds,
			Hint:        c.Hint,
			Completed:   s.Completed[c.ID],
		})
	}
	return v
}
