package authority

import (
	"fmt"
	"strings"

	"github.com/Bboy9090/Bobbys-World-Tools-sub004/internal/model"
)

// ConditionType enumerates the contextual gates a route may require.
// Conditions are data, not closures, so route tables stay serializable
// and inspectable.
type ConditionType string

const (
	// CondDeviceModeEquals requires ctx.Device.Mode to equal Value.
	CondDeviceModeEquals ConditionType = "device_mode_equals"
	// CondSessionFlagSet requires the session flag named by Value.
	CondSessionFlagSet ConditionType = "session_flag_set"
	// CondOperatorVerified requires a verified operator on the request.
	CondOperatorVerified ConditionType = "operator_verified"
	// CondDeviceConnected requires any device descriptor on the request.
	CondDeviceConnected ConditionType = "device_connected"
)

// Condition is one boolean predicate over a request context. Trapdoor
// routes stack these to stay inert outside their activation window.
type Condition struct {
	Type  ConditionType `json:"type" yaml:"type"`
	Value string        `json:"value,omitempty" yaml:"value,omitempty"`
}

// Evaluate applies the condition to a request context. Unknown condition
// types fail closed.
func (c Condition) Evaluate(ctx model.RequestContext) bool {
	switch c.Type {
	case CondDeviceModeEquals:
		return ctx.Device != nil && ctx.Device.Mode == c.Value
	case CondSessionFlagSet:
		return ctx.SessionFlag(c.Value)
	case CondOperatorVerified:
		return ctx.OperatorVerified()
	case CondDeviceConnected:
		return ctx.Device != nil
	default:
		return false
	}
}

// String returns the compact config form, e.g. "device_mode_equals=fastboot".
func (c Condition) String() string {
	if c.Value == "" {
		return string(c.Type)
	}
	return fmt.Sprintf("%s=%s", c.Type, c.Value)
}

// ParseCondition parses the compact "type" or "type=value" config form.
func ParseCondition(s string) (Condition, error) {
	name, value, _ := strings.Cut(s, "=")
	ct := ConditionType(strings.TrimSpace(name))
	switch ct {
	case CondDeviceModeEquals, CondSessionFlagSet:
		if value == "" {
			return Condition{}, fmt.Errorf("condition %s requires a value", ct)
		}
	case CondOperatorVerified, CondDeviceConnected:
		if value != "" {
			return Condition{}, fmt.Errorf("condition %s takes no value", ct)
		}
	default:
		return Condition{}, fmt.Errorf("unknown condition type %q", name)
	}
	return Condition{Type: ct, Value: strings.TrimSpace(value)}, nil
}
