package schema

// TenantTable represents the 'tenants.tenant' table
type TenantTable struct {
	Table     string
	ID        string
	Name      string
	Domain    string
	Status    string
	CreatedAt string
	UpdatedAt string
}

// Tenant is the schema definition for tenants.tenant
var Tenant = TenantTable{
	Table:     "tenants.tenant",
	ID:        "id",
	Name:      "name",
	Domain:    "domain",
	Status:    "status",
	CreatedAt: "createdat",
	UpdatedAt: "updatedat",
}

// Columns returns all standard column names
func (t TenantTable) Columns() []string {
	return []string{
		t.ID, t.Name, t.Domain, t.Status, t.CreatedAt, t.UpdatedAt,
	}
}
