// Package gate wires the authority router, policy evaluator, power-star
// manager, shadow logger, and session store into one front door. Every
// decision point writes through the shadow logger; a failed shadow
// write on a sensitive decision fails the decision rather than letting
// the operation proceed unaudited.
package gate

import (
	"context"
	"fmt"
	"time"

	"github.com/Bboy9090/Bobbys-World-Tools-sub004/internal/authority"
	"github.com/Bboy9090/Bobbys-World-Tools-sub004/internal/metrics"
	"github.com/Bboy9090/Bobbys-World-Tools-sub004/internal/model"
	"github.com/Bboy9090/Bobbys-World-Tools-sub004/internal/powerstar"
	"github.com/Bboy9090/Bobbys-World-Tools-sub004/internal/shadowlog"
	"github.com/Bboy9090/Bobbys-World-Tools-sub004/internal/store"
)

// sessionTTL is how long enriched session flags persist in the store.
const sessionTTL = 4 * time.Hour

// Gate is the authorization front door, built once at startup.
type Gate struct {
	router   *authority.Router
	stars    *powerstar.Manager
	shadow   *shadowlog.Logger
	sessions store.Store
}

// New assembles a Gate. The session store may be nil, in which case
// request contexts are used as supplied.
func New(router *authority.Router, stars *powerstar.Manager, shadow *shadowlog.Logger, sessions store.Store) *Gate {
	return &Gate{
		router:   router,
		stars:    stars,
		shadow:   shadow,
		sessions: sessions,
	}
}

// Router exposes the underlying router for route-table administration.
func (g *Gate) Router() *authority.Router { return g.router }

// Stars exposes the underlying star manager.
func (g *Gate) Stars() *powerstar.Manager { return g.stars }

// Authorize runs one routing decision. Session flags held in the store
// (maintenance activation, operator verification) are merged into the
// request context first, so a trapdoor armed in a previous call is
// visible to route conditions here.
func (g *Gate) Authorize(ctx context.Context, operation string, req model.RequestContext) (model.RoutingResult, error) {
	start := time.Now()
	defer func() { metrics.RouteDuration.Observe(time.Since(start).Seconds()) }()

	g.enrichFromSession(ctx, &req)

	result := g.router.Route(operation, req)

	outcome := "denied"
	if result.Success {
		outcome = "allowed"
	}
	metrics.RoutingDecisions.WithLabelValues(result.Domain, outcome).Inc()

	success := result.Success
	rec := shadowlog.Record{
		Event:     "routing_decision",
		Operation: operation,
		Domain:    result.Domain,
		Role:      string(req.EffectiveRole()),
		Success:   &success,
		Reason:    result.Reason,
	}
	if req.Operator != nil {
		rec.Operator = req.Operator.ID
	}

	if err := g.shadow.LogShadow(rec); err != nil {
		metrics.ShadowLogFailures.Inc()
		if result.RequiresConfirmation {
			return model.RoutingResult{
				Success:   false,
				Operation: operation,
				Domain:    result.Domain,
				Error:     model.ErrShadowLogFailed,
				Reason:    "audit trail unavailable, operation blocked",
				Timestamp: result.Timestamp,
			}, fmt.Errorf("gate: shadow log: %w", err)
		}
	}
	// Public stream is best-effort; the shadow stream is authoritative.
	_ = g.shadow.LogPublic(rec)

	return result, nil
}

// RequestStar starts the verification ritual for an operation. Star
// creation is always a sensitive decision: if it cannot be shadow
// logged the star is revoked before anyone sees it.
func (g *Gate) RequestStar(ctx context.Context, operation string, spec model.OperationSpec, req model.RequestContext) (powerstar.RequestResult, error) {
	g.enrichFromSession(ctx, &req)

	result := g.stars.RequestStar(operation, spec, req)
	defer g.updateActiveGauge()

	if result.Denied {
		metrics.StarOutcomes.WithLabelValues("denied").Inc()
	}
	if result.Star == nil {
		return result, nil
	}
	metrics.StarsCreated.WithLabelValues(string(spec.Risk)).Inc()

	success := true
	rec := shadowlog.Record{
		Event:     "star_requested",
		Operation: operation,
		Role:      string(req.EffectiveRole()),
		Success:   &success,
		Details: map[string]any{
			"star":       result.Star.ID,
			"risk":       string(spec.Risk),
			"challenges": len(result.Star.Challenges),
		},
	}
	if req.Operator != nil {
		rec.Operator = req.Operator.ID
	}
	if err := g.shadow.LogShadow(rec); err != nil {
		metrics.ShadowLogFailures.Inc()
		g.stars.Revoke(result.Star.ID, "gate", "shadow log unavailable")
		return powerstar.RequestResult{
			Required: true,
			Denied:   true,
			Error:    model.ErrShadowLogFailed,
			Reason:   "audit trail unavailable, star revoked",
		}, fmt.Errorf("gate: shadow log: %w", err)
	}
	return result, nil
}

// CompleteChallenge verifies one challenge response.
func (g *Gate) CompleteChallenge(starID, challengeID string, response any, operator string) powerstar.CompleteResult {
	result := g.stars.CompleteChallenge(starID, challengeID, response, operator)
	defer g.updateActiveGauge()

	label := "failed"
	if result.Success {
		label = "ok"
	}
	metrics.ChallengeResults.WithLabelValues(challengeID, label).Inc()

	event := "challenge_failed"
	if result.Success {
		event = "challenge_completed"
	}
	_ = g.shadow.LogShadow(shadowlog.Record{
		Event:    event,
		Operator: operator,
		Success:  &result.Success,
		Reason:   result.Reason,
		Details:  map[string]any{"star": starID, "challenge": challengeID, "verified": result.Verified},
	})
	return result
}

// VerifyStar is the read-only validity check; it leaves no shadow
// trail because it mutates nothing.
func (g *Gate) VerifyStar(starID, operation, deviceSerial string) powerstar.VerifyResult {
	return g.stars.VerifyStar(starID, operation, deviceSerial)
}

// ConsumeStar burns a verified star. The consumption is shadow logged
// with the star's full trail; if that write fails the star is already
// burned and the caller must NOT run the gated operation.
func (g *Gate) ConsumeStar(starID string) (powerstar.ConsumeResult, error) {
	result := g.stars.ConsumeStar(starID)
	defer g.updateActiveGauge()

	if !result.Success {
		return result, nil
	}
	metrics.StarOutcomes.WithLabelValues("consumed").Inc()

	success := true
	trail := make([]map[string]any, 0, len(result.Trail))
	for _, ev := range result.Trail {
		trail = append(trail, map[string]any{
			"timestamp": ev.Timestamp,
			"event":     ev.Event,
			"operator":  ev.Operator,
			"detail":    ev.Detail,
		})
	}
	err := g.shadow.LogShadow(shadowlog.Record{
		Event:   "star_consumed",
		Success: &success,
		Details: map[string]any{"star": starID, "trail": trail},
	})
	if err != nil {
		metrics.ShadowLogFailures.Inc()
		return powerstar.ConsumeResult{
			Success: false,
			Error:   model.ErrShadowLogFailed,
			Reason:  "audit trail unavailable, operation blocked",
		}, fmt.Errorf("gate: shadow log: %w", err)
	}
	return result, nil
}

// RevokeStar terminally cancels a star.
func (g *Gate) RevokeStar(starID, operator, reason string) (bool, model.ErrorCode) {
	ok, code := g.stars.Revoke(starID, operator, reason)
	defer g.updateActiveGauge()

	if ok {
		metrics.StarOutcomes.WithLabelValues("revoked").Inc()
		success := true
		_ = g.shadow.LogShadow(shadowlog.Record{
			Event:    "star_revoked",
			Operator: operator,
			Success:  &success,
			Reason:   reason,
			Details:  map[string]any{"star": starID},
		})
	}
	return ok, code
}

// AuditLog queries the router's bounded in-memory decision ring.
func (g *Gate) AuditLog(f authority.AuditFilter) []authority.AuditRecord {
	return g.router.AuditLog(f)
}

// ArmSession persists session flags and operator verification in the
// TTL store, making them visible to later Authorize calls.
func (g *Gate) ArmSession(ctx context.Context, rec store.SessionRecord) error {
	if g.sessions == nil {
		return fmt.Errorf("gate: no session store configured")
	}
	return store.PutSession(ctx, g.sessions, rec, sessionTTL)
}

// enrichFromSession merges stored session state into the request
// context. Flags already present on the request win.
func (g *Gate) enrichFromSession(ctx context.Context, req *model.RequestContext) {
	if g.sessions == nil || req.Session == nil || req.Session.ID == "" {
		return
	}
	rec, err := store.GetSession(ctx, g.sessions, req.Session.ID)
	if err != nil {
		return
	}
	for name, set := range rec.Flags {
		if !set {
			continue
		}
		if req.Session.Flags == nil {
			req.Session.Flags = make(map[string]bool)
		}
		req.Session.Flags[name] = true
	}
	if rec.OperatorVerified && req.Operator == nil {
		req.Operator = &model.Operator{ID: rec.OperatorID, Verified: true}
	}
}

func (g *Gate) updateActiveGauge() {
	metrics.ActiveStars.Set(float64(g.stars.ActiveCount()))
}
