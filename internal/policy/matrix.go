package policy

import "github.com/Bboy9090/Bobbys-World-Tools-sub004/internal/model"

// permissionMatrix is the fixed role × category permission table.
// Owner can do everything. Admin is locked out of nothing except by
// route-level role sets. Technician loses destructive and administrative.
// Viewer is diagnostics-only.
var permissionMatrix = map[model.Role]map[model.Category]bool{
	model.RoleOwner: {
		model.CategoryDiagnostics:    true,
		model.CategorySafe:           true,
		model.CategoryBackup:         true,
		model.CategoryRestore:        true,
		model.CategoryDestructive:    true,
		model.CategoryAdministrative: true,
	},
	model.RoleAdmin: {
		model.CategoryDiagnostics:    true,
		model.CategorySafe:           true,
		model.CategoryBackup:         true,
		model.CategoryRestore:        true,
		model.CategoryDestructive:    true,
		model.CategoryAdministrative: true,
	},
	model.RoleTechnician: {
		model.CategoryDiagnostics:    true,
		model.CategorySafe:           true,
		model.CategoryBackup:         true,
		model.CategoryRestore:        true,
		model.CategoryDestructive:    false,
		model.CategoryAdministrative: false,
	},
	model.RoleViewer: {
		model.CategoryDiagnostics:    true,
		model.CategorySafe:           false,
		model.CategoryBackup:         false,
		model.CategoryRestore:        false,
		model.CategoryDestructive:    false,
		model.CategoryAdministrative: false,
	},
}

// CategoryPermitted reports whether the fixed matrix allows the role to
// touch the category at all. Route-level role sets narrow this further;
// they never widen it.
func CategoryPermitted(role model.Role, category model.Category) bool {
	perms, ok := permissionMatrix[role]
	if !ok {
		return false
	}
	return perms[category]
}
