package model

import "strings"

// Role is an operator role recognized by the gate.
type Role string

const (
	RoleOwner      Role = "owner"
	RoleAdmin      Role = "admin"
	RoleTechnician Role = "technician"
	RoleViewer     Role = "viewer"
)

// KnownRoles lists every role the gate accepts, highest privilege first.
var KnownRoles = []Role{RoleOwner, RoleAdmin, RoleTechnician, RoleViewer}

// ParseRole maps a string to a Role, case-insensitively.
// Returns false for anything outside the known set.
func ParseRole(s string) (Role, bool) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range KnownRoles {
		if r == known {
			return known, true
		}
	}
	return "", false
}

// Known reports whether the role is one of the recognized enum values.
func (r Role) Known() bool {
	_, ok := ParseRole(string(r))
	return ok
}

// RiskLevel classifies how dangerous an operation is.
type RiskLevel string

const (
	RiskLow         RiskLevel = "low"
	RiskMedium      RiskLevel = "medium"
	RiskHigh        RiskLevel = "high"
	RiskDestructive RiskLevel = "destructive"
)

// Category is the operation category routed to an authority domain.
type Category string

const (
	CategoryDiagnostics    Category = "diagnostics"
	CategorySafe           Category = "safe"
	CategoryBackup         Category = "backup"
	CategoryRestore        Category = "restore"
	CategoryDestructive    Category = "destructive"
	CategoryAdministrative Category = "administrative"
)

// Categories lists every operation category.
var Categories = []Category{
	CategoryDiagnostics,
	CategorySafe,
	CategoryBackup,
	CategoryRestore,
	CategoryDestructive,
	CategoryAdministrative,
}
