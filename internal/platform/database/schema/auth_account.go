package schema

// AuthAccountTable represents the 'auth.account' table
type AuthAccountTable struct {
	Table                 string
	ID                    string
	TenantID              string
	Email                 string
	Password              string
	FirstName             string
	LastName              string
	Role                  string
	CustomRoleID          string
	Status                string
	MfaEnabled            string
	MfaSecret             string
	MfaBackupCodes        string
	CustomPermissions     string
	RequirePasswordChange string
	TempPasswordExpiresAt string
	LastLoginAt           string
	LastActiveAt          string
	CreatedAt             string
	UpdatedAt             string
}

// AuthAccount is the schema definition for auth.account
var AuthAccount = AuthAccountTable{
	Table:                 "auth.account",
	ID:                    "id",
	TenantID:              "tenantid",
	Email:                 "email",
	Password:              "passwordhash",
	FirstName:             "firstname",
	LastName:              "lastname",
	Role:                  "role",
	CustomRoleID:          "customroleid",
	Status:                "status",
	MfaEnabled:            "mfaenabled",
	MfaSecret:             "mfasecret",
	MfaBackupCodes:        "mfabackupcodes",
	CustomPermissions:     "custompermissions",
	RequirePasswordChange: "requirepasswordchange",
	TempPasswordExpiresAt: "temppasswordexpiresat",
	LastLoginAt:           "lastloginat",
	LastActiveAt:          "lastactiveat",
	CreatedAt:             "createdat",
	UpdatedAt:             "updatedat",
}

// Columns returns all standard column names
func (t AuthAccountTable) Columns() []string {
	return []string{
		t.ID, t.TenantID, t.Email, t.Password, t.FirstName, t.LastName,
		t.Role, t.CustomRoleID, t.Status, t.MfaEnabled, t.MfaSecret,
		t.MfaBackupCodes, t.CustomPermissions, t.RequirePasswordChange,
		t.TempPasswordExpiresAt, t.LastLoginAt, t.LastActiveAt,
		t.CreatedAt, t.UpdatedAt,
	}
}
