package model

// ParameterSpec describes one parameter an operation accepts.
// Type is a JSON-ish type name: string, number, integer, boolean,
// object, array. Pattern is a regular expression applied to string
// parameters only.
type ParameterSpec struct {
	Type     string `json:"type" yaml:"type"`
	Required bool   `json:"required" yaml:"required"`
	Pattern  string `json:"pattern,omitempty" yaml:"pattern,omitempty"`
}

// OperationSpec is the policy description of a gated operation.
type OperationSpec struct {
	Name                 string                   `json:"name" yaml:"name"`
	Description          string                   `json:"description,omitempty" yaml:"description,omitempty"`
	Category             Category                 `json:"category" yaml:"category"`
	Risk                 RiskLevel                `json:"risk" yaml:"risk"`
	AllowedRoles         []Role                   `json:"allowed_roles" yaml:"allowed_roles"`
	RequiresConfirmation bool                     `json:"requires_confirmation,omitempty" yaml:"requires_confirmation,omitempty"`
	Parameters           map[string]ParameterSpec `json:"parameters,omitempty" yaml:"parameters,omitempty"`

	// PasscodeSHA256, when set, adds a PASSCODE challenge whose response
	// must hash to this hex digest.
	PasscodeSHA256 string `json:"passcode_sha256,omitempty" yaml:"passcode_sha256,omitempty"`
	// DualOperator, when set, adds a DUAL_OPERATOR challenge requiring a
	// second operator to countersign.
	DualOperator bool `json:"dual_operator,omitempty" yaml:"dual_operator,omitempty"`
}

// RoleAllowed reports whether the role appears in AllowedRoles.
func (s OperationSpec) RoleAllowed(role Role) bool {
	for _, r := range s.AllowedRoles {
		if r == role {
			return true
		}
	}
	return false
}
