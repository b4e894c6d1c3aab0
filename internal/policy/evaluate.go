package policy

import (
	"fmt"

	"github.com/Bboy9090/Bobbys-World-Tools-sub004/internal/model"
)

// Evaluate evaluates whether a role may run the given operation.
//
// Evaluation order (must not be changed):
//  1. Role enum check — unknown role is denied outright
//  2. Allow-list check — role must appear in spec.AllowedRoles
//  3. Permission matrix — role × category must be permitted
//  4. Confirmation escalation — additive flags, any one suffices
func Evaluate(role model.Role, spec model.OperationSpec) model.PolicyResult {
	if !role.Known() {
		return model.PolicyResult{
			Allowed: false,
			Error:   model.ErrInvalidRole,
			Reason:  fmt.Sprintf("unknown role %q", role),
		}
	}

	if !spec.RoleAllowed(role) {
		return model.PolicyResult{
			Allowed: false,
			Error:   model.ErrRoleNotInAllowList,
			Reason:  fmt.Sprintf("role %s is not allowed to run %s", role, spec.Name),
		}
	}

	if !CategoryPermitted(role, spec.Category) {
		return model.PolicyResult{
			Allowed: false,
			Error:   model.ErrCategoryPermissionDenied,
			Reason:  fmt.Sprintf("role %s has no %s permission", role, spec.Category),
		}
	}

	return model.PolicyResult{
		Allowed:              true,
		RequiresConfirmation: requiresConfirmation(role, spec),
		Policy:               &spec,
	}
}

// requiresConfirmation applies the escalation rules. All are additive:
// any single rule sets the flag.
func requiresConfirmation(role model.Role, spec model.OperationSpec) bool {
	if spec.RequiresConfirmation {
		return true
	}
	if spec.Risk == model.RiskDestructive && role == model.RoleAdmin {
		return true
	}
	if spec.Risk == model.RiskHigh && role == model.RoleTechnician {
		return true
	}
	return false
}
