package authority

import "github.com/Bboy9090/Bobbys-World-Tools-sub004/internal/model"

// Metadata keys with routing-relevant meaning. Everything else in a
// route's metadata map is free-form and passed through to callers.
const (
	// MetaNoCache disables decision caching for the route.
	MetaNoCache = "no_cache"
	// MetaEphemeral marks routes that admin tooling should not persist.
	MetaEphemeral = "ephemeral"
)

// Route binds an operation pattern to an authority domain with its
// role, device, and condition gates. Routes are immutable once matched;
// mutation happens only through Router.AddRoute/RemoveRoute, which
// invalidate the decision cache.
type Route struct {
	Pattern              Matcher
	Domain               string
	Category             model.Category
	Roles                []model.Role
	RequiresDevice       bool
	RequiresConfirmation bool
	Handoff              string
	Conditions           []Condition
	Metadata             map[string]string
}

// RoleAllowed reports whether the role is in the route's required set.
func (r Route) RoleAllowed(role model.Role) bool {
	for _, allowed := range r.Roles {
		if allowed == role {
			return true
		}
	}
	return false
}

// NoCache reports whether decisions for this route bypass the cache.
func (r Route) NoCache() bool {
	return r.Metadata[MetaNoCache] == "true"
}

// conditionsHold evaluates every condition against the context. All must
// pass; a route with no conditions always passes.
func (r Route) conditionsHold(ctx model.RequestContext) bool {
	for _, cond := range r.Conditions {
		if !cond.Evaluate(ctx) {
			return false
		}
	}
	return true
}
