package model

import (
	"fmt"
	"sort"
	"strings"
)

// Device describes the target device attached to a request.
type Device struct {
	ID     string `json:"id,omitempty"`
	Mode   string `json:"mode,omitempty"`
	Serial string `json:"serial,omitempty"`
}

// Session carries the caller's session identity and any flags the
// session store has set on it (trapdoor activation and the like).
type Session struct {
	ID    string          `json:"id,omitempty"`
	Flags map[string]bool `json:"flags,omitempty"`
}

// Operator identifies the human driving the request.
type Operator struct {
	ID       string `json:"id,omitempty"`
	Verified bool   `json:"verified,omitempty"`
}

// RequestContext is the per-call context evaluated against route gates.
// It is supplied by the caller on every call and never persisted.
type RequestContext struct {
	Role     Role      `json:"role,omitempty"`
	Device   *Device   `json:"device,omitempty"`
	Session  *Session  `json:"session,omitempty"`
	Operator *Operator `json:"operator,omitempty"`
}

// EffectiveRole returns the context role, defaulting to viewer when absent.
func (c RequestContext) EffectiveRole() Role {
	if c.Role == "" {
		return RoleViewer
	}
	return c.Role
}

// SessionFlag reports whether the named session flag is set.
func (c RequestContext) SessionFlag(name string) bool {
	if c.Session == nil {
		return false
	}
	return c.Session.Flags[name]
}

// OperatorVerified reports whether the request carries a verified operator.
func (c RequestContext) OperatorVerified() bool {
	return c.Operator != nil && c.Operator.Verified
}

// CacheKey returns a canonical serialization of the identity-bearing
// context fields. Two requests with the same key are interchangeable for
// routing purposes; free-form detail is deliberately excluded so
// equivalent requests share a cache slot.
func (c RequestContext) CacheKey() string {
	var b strings.Builder
	fmt.Fprintf(&b, "role=%s", c.EffectiveRole())
	if c.Device != nil {
		fmt.Fprintf(&b, ";dev=%s|%s|%s", c.Device.ID, c.Device.Mode, c.Device.Serial)
	}
	if c.Session != nil {
		fmt.Fprintf(&b, ";sess=%s", c.Session.ID)
		if len(c.Session.Flags) > 0 {
			names := make([]string, 0, len(c.Session.Flags))
			for name, set := range c.Session.Flags {
				if set {
					names = append(names, name)
				}
			}
			sort.Strings(names)
			fmt.Fprintf(&b, "|%s", strings.Join(names, ","))
		}
	}
	if c.Operator != nil {
		fmt.Fprintf(&b, ";op=%s|%t", c.Operator.ID, c.Operator.Verified)
	}
	return b.String()
}
