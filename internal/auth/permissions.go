package auth

import (
	"slices"

	"github.com/ashaconnect/ashaconnect/internal/model"
)

// Permission strings checked by route middleware.
const (
	PermHealthAssess  = "health:assess"
	PermPatientCreate = "patient:create"
	PermPatientView   = "patient:view"
	PermPatientEdit   = "patient:edit"
	PermVoiceUse      = "voice:use"
	PermSyncTrigger   = "sync:trigger"
	PermReportView    = "report:view"
	PermUserView      = "user:view"
	PermAdminAll      = "admin:all"
)

// rolePermissions maps each role to the permissions it grants.
// Admin carries admin:all, which satisfies every permission check.
var rolePermissions = map[model.Role][]string{
	model.RoleASHA: {
		PermHealthAssess,
		PermPatientCreate,
		PermPatientView,
		PermVoiceUse,
		PermSyncTrigger,
	},
	model.RoleSupervisor: {
		PermHealthAssess,
		PermPatientCreate,
		PermPatientView,
		PermPatientEdit,
		PermVoiceUse,
		PermSyncTrigger,
		PermReportView,
		PermUserView,
	},
	model.RoleAdmin: {
		PermAdminAll,
	},
}

// PermissionsForRole returns the permissions granted to a role.
func PermissionsForRole(role model.Role) []string {
	perms := rolePermissions[role]
	return slices.Clone(perms)
}

// HasPermission reports whether a role grants the given permission.
func HasPermission(role model.Role, permission string) bool {
	perms := rolePermissions[role]
	if slices.Contains(perms, PermAdminAll) {
		return true
	}
	return slices.Contains(perms, permission)
}
