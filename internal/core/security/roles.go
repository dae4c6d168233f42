package security

// Role defines a coarse access level. Mirrors the three staff groups of a
// small wholesale shop: owner/admin, floor manager, sales representative.
type Role string

const (
	RoleAdmin    Role = "admin"
	RoleManager  Role = "manager"
	RoleSalesRep Role = "sales_rep"
)

// ValidRole reports whether r is a known role.
func ValidRole(r Role) bool {
	switch r {
	case RoleAdmin, RoleManager, RoleSalesRep:
		return true
	}
	return false
}

// Permissions are "{resource}:{action}" strings checked by route middleware.
// Admins bypass the check entirely.
const (
	PermProductsRead    = "products:read"
	PermProductsWrite   = "products:write"
	PermProductsDelete  = "products:delete"
	PermCategoriesRead  = "categories:read"
	PermCategoriesWrite = "categories:write"
	PermSuppliersRead   = "suppliers:read"
	PermSuppliersWrite  = "suppliers:write"
	PermCustomersRead   = "customers:read"
	PermCustomersWrite  = "customers:write"
	PermSalesRead       = "sales:read"
	PermSalesWrite      = "sales:write"
	PermSalesDelete     = "sales:delete"
	PermBulkOrdersRead  = "bulk-orders:read"
	PermBulkOrdersWrite = "bulk-orders:write"
	PermMovementsRead   = "movements:read"
	PermMovementsWrite  = "movements:write"
	PermAlertsRead      = "alerts:read"
	PermAlertsWrite     = "alerts:write"
	PermTargetsRead     = "targets:read"
	PermTargetsWrite    = "targets:write"
	PermReportsRead     = "reports:read"
	PermUsersAdmin      = "users:admin"
	PermAuditRead       = "audit:read"
)

// rolePermissions maps each role to its granted permissions.
// Sales reps work the counter: they sell and look things up, but cannot
// touch the stock ledger, reports, deletions or user administration.
var rolePermissions = map[Role][]string{
	RoleManager: {
		PermProductsRead, PermProductsWrite, PermProductsDelete,
		PermCategoriesRead, PermCategoriesWrite,
		PermSuppliersRead, PermSuppliersWrite,
		PermCustomersRead, PermCustomersWrite,
		PermSalesRead, PermSalesWrite, PermSalesDelete,
		PermBulkOrdersRead, PermBulkOrdersWrite,
		PermMovementsRead, PermMovementsWrite,
		PermAlertsRead, PermAlertsWrite,
		PermTargetsRead, PermTargetsWrite,
		PermReportsRead,
		PermUsersAdmin,
		PermAuditRead,
	},
	RoleSalesRep: {
		PermProductsRead, PermProductsWrite,
		PermCategoriesRead,
		PermSuppliersRead,
		PermCustomersRead, PermCustomersWrite,
		PermSalesRead, PermSalesWrite,
		PermBulkOrdersRead, PermBulkOrdersWrite,
		PermAlertsRead,
		PermTargetsRead,
	},
}

// PermissionsFor returns the permission set for a role.
// Admin returns nil: the middleware treats admins as all-access.
func PermissionsFor(r Role) []string {
	return rolePermissions[r]
}
