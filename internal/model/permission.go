package model

// Permission represents a capability an owner can grant to an employee
type Permission string

const (
	PermStockManagement Permission = "stock_management"
	PermCashManagement  Permission = "cash_management"
	PermMenuEdit        Permission = "menu_edit"
	PermViewStats       Permission = "view_stats"
)

// AllPermissions lists every capability; owners implicitly hold all of them.
var AllPermissions = []Permission{
	PermStockManagement,
	PermCashManagement,
	PermMenuEdit,
	PermViewStats,
}

// PermissionCodes converts permissions to their string codes (JWT claims).
func PermissionCodes(perms []Permission) []string {
	codes := make([]string, len(perms))
	for i, p := range perms {
		codes[i] = string(p)
	}
	return codes
}
