package authority

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Bboy9090/Bobbys-World-Tools-sub004/internal/model"
)

// Router holds the ordered route table and evaluates operations against
// it. Insertion order is priority: the first structural match wins and
// no further conflict resolution exists. All shared state (route table,
// decision cache, audit ring) is guarded by one mutex; route mutation
// concurrent with lookup is safe.
type Router struct {
	mu      sync.Mutex
	routes  []Route
	cache   map[string]model.RoutingResult
	ring    *ring
	cfgHash string
	now     func() time.Time
}

// NewRouter creates a Router over the given ordered route table.
func NewRouter(routes []Route) *Router {
	return &Router{
		routes: routes,
		cache:  make(map[string]model.RoutingResult),
		ring:   newRing(),
		now:    time.Now,
	}
}

// Route finds the first route matching the operation and evaluates its
// role, device, and condition gates against the context.
//
// Pipeline (must not be reordered):
//  1. Cache lookup — skipped for routes marked no_cache
//  2. First structural match by insertion order
//  3. Role gate (context role defaults to viewer)
//  4. Device gate
//  5. Condition gate — every predicate must hold
func (r *Router) Route(operation string, ctx model.RequestContext) model.RoutingResult {
	r.mu.Lock()
	defer r.mu.Unlock()

	cacheKey := operation + "\x00" + ctx.CacheKey()
	if cached, ok := r.cache[cacheKey]; ok {
		return cached
	}

	matched, found := r.firstMatch(operation)
	if !found {
		return r.finish(operation, ctx, cacheKey, nil, model.RoutingResult{
			Success:   false,
			Operation: operation,
			Error:     model.ErrRouteNotFound,
			Reason:    fmt.Sprintf("no route matches operation %q", operation),
		})
	}

	role := ctx.EffectiveRole()
	if !matched.RoleAllowed(role) {
		return r.finish(operation, ctx, cacheKey, matched, model.RoutingResult{
			Success:      false,
			Operation:    operation,
			Domain:       matched.Domain,
			Error:        model.ErrRoleUnauthorized,
			Reason:       fmt.Sprintf("role %s may not run %s", role, operation),
			AllowedRoles: append([]model.Role(nil), matched.Roles...),
		})
	}

	if matched.RequiresDevice && ctx.Device == nil {
		return r.finish(operation, ctx, cacheKey, matched, model.RoutingResult{
			Success:   false,
			Operation: operation,
			Domain:    matched.Domain,
			Error:     model.ErrDeviceRequired,
			Reason:    "operation requires a connected device",
		})
	}

	if !matched.conditionsHold(ctx) {
		return r.finish(operation, ctx, cacheKey, matched, model.RoutingResult{
			Success:   false,
			Operation: operation,
			Domain:    matched.Domain,
			Error:     model.ErrConditionsFailed,
			Reason:    "route conditions not satisfied",
		})
	}

	return r.finish(operation, ctx, cacheKey, matched, model.RoutingResult{
		Success:              true,
		Operation:            operation,
		Domain:               matched.Domain,
		Category:             matched.Category,
		RequiresConfirmation: matched.RequiresConfirmation,
		Handoff:              matched.Handoff,
		Metadata:             matched.Metadata,
	})
}

// firstMatch returns the first route whose pattern matches. Caller holds
// the lock.
func (r *Router) firstMatch(operation string) (*Route, bool) {
	for i := range r.routes {
		if r.routes[i].Pattern.Matches(operation) {
			return &r.routes[i], true
		}
	}
	return nil, false
}

// finish stamps the result, records it in the audit ring, and caches it
// unless the matched route opts out. Caller holds the lock.
func (r *Router) finish(operation string, ctx model.RequestContext, cacheKey string, matched *Route, result model.RoutingResult) model.RoutingResult {
	result.Timestamp = r.now().UTC()

	rec := AuditRecord{
		ID:        uuid.NewString(),
		Timestamp: result.Timestamp,
		Operation: operation,
		Role:      ctx.EffectiveRole(),
		Domain:    result.Domain,
		Success:   result.Success,
		Error:     result.Error,
	}
	if ctx.Device != nil {
		rec.DeviceID = ctx.Device.ID
	}
	r.ring.append(rec)

	if matched == nil || !matched.NoCache() {
		r.cache[cacheKey] = result
	}
	return result
}

// OperationView is one route a role can currently exercise, for UI
// affordance. Never used for enforcement decisions.
type OperationView struct {
	Pattern              string         `json:"pattern"`
	Domain               string         `json:"domain"`
	Category             model.Category `json:"category"`
	RequiresDevice       bool           `json:"requires_device"`
	RequiresConfirmation bool           `json:"requires_confirmation"`
}

// AvailableOperations re-runs the role/device/condition gates across the
// whole table and returns the routes the context could use right now.
func (r *Router) AvailableOperations(ctx model.RequestContext) []OperationView {
	r.mu.Lock()
	defer r.mu.Unlock()

	role := ctx.EffectiveRole()
	var out []OperationView
	for _, route := range r.routes {
		if !route.RoleAllowed(role) {
			continue
		}
		if route.RequiresDevice && ctx.Device == nil {
			continue
		}
		if !route.conditionsHold(ctx) {
			continue
		}
		out = append(out, OperationView{
			Pattern:              route.Pattern.String(),
			Domain:               route.Domain,
			Category:             route.Category,
			RequiresDevice:       route.RequiresDevice,
			RequiresConfirmation: route.RequiresConfirmation,
		})
	}
	return out
}

// AddRoute appends a route to the table and invalidates the cache.
func (r *Router) AddRoute(route Route) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.routes = append(r.routes, route)
	r.cache = make(map[string]model.RoutingResult)
}

// RemoveRoute removes the first route whose pattern representation
// matches and invalidates the cache. Returns false when nothing matched.
func (r *Router) RemoveRoute(pattern string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, route := range r.routes {
		if route.Pattern.String() == pattern {
			r.routes = append(r.routes[:i], r.routes[i+1:]...)
			r.cache = make(map[string]model.RoutingResult)
			return true
		}
	}
	return false
}

// Replace swaps the entire route table (hot reload) and invalidates the
// cache. The audit ring is preserved across reloads.
func (r *Router) Replace(routes []Route, cfgHash string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.routes = routes
	r.cfgHash = cfgHash
	r.cache = make(map[string]model.RoutingResult)
}

// Routes returns a copy of the current table, in priority order.
func (r *Router) Routes() []Route {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Route(nil), r.routes...)
}

// ConfigHash returns the sha256 of the loaded route config, or the empty
// string when the built-in table is active.
func (r *Router) ConfigHash() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.cfgHash
}

// AuditLog returns ring records matching the filter, newest first.
func (r *Router) AuditLog(f AuditFilter) []AuditRecord {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.ring.query(f)
}
