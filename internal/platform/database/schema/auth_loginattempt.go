package schema

// LoginAttemptTable represents the 'auth.loginattempt' table
type LoginAttemptTable struct {
	Table         string
	ID            string
	Email         string
	TenantID      string
	IPAddress     string
	UserAgent     string
	Successful    string
	FailureReason string
	CreatedAt     string
}

// LoginAttempt is the schema definition for auth.loginattempt
var LoginAttempt = LoginAttemptTable{
	Table:         "auth.loginattempt",
	ID:            "id",
	Email:         "email",
	TenantID:      "tenantid",
	IPAddress:     "ipaddress",
	UserAgent:     "useragent",
	Successful:    "successful",
	FailureReason: "failurereason",
	CreatedAt:     "createdat",
}

// Columns returns all standard column names
func (t LoginAttemptTable) Columns() []string {
	return []string{
		t.ID, t.Email, t.TenantID, t.IPAddress, t.UserAgent,
		t.Successful, t.FailureReason, t.CreatedAt,
	}
}
