package schema

// CustomRoleTable represents the 'tenants.customrole' table
type CustomRoleTable struct {
	Table       string
	ID          string
	TenantID    string
	Name        string
	Permissions string
	CreatedAt   string
}

// CustomRole is the schema definition for tenants.customrole
var CustomRole = CustomRoleTable{
	Table:       "tenants.customrole",
	ID:          "id",
	TenantID:    "tenantid",
	Name:        "name",
	Permissions: "permissions",
	CreatedAt:   "createdat",
}

// Columns returns all standard column names
func (t CustomRoleTable) Columns() []string {
	return []string{
		t.ID, t.TenantID, t.Name, t.Permissions, t.CreatedAt,
	}
}
