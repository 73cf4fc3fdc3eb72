package schema

// OtpCodeTable represents the 'auth.otpcode' table
type OtpCodeTable struct {
	Table     string
	ID        string
	Email     string
	TenantID  string
	CodeHash  string
	OtpType   string
	Attempts  string
	UsedAt    string
	ExpiresAt string
	CreatedAt string
}

// OtpCode is the schema definition for auth.otpcode
var OtpCode = OtpCodeTable{
	Table:     "auth.otpcode",
	ID:        "id",
	Email:     "email",
	TenantID:  "tenantid",
	CodeHash:  "codehash",
	OtpType:   "otptype",
	Attempts:  "attempts",
	UsedAt:    "usedat",
	ExpiresAt: "expiresat",
	CreatedAt: "createdat",
}

// Columns returns all standard column names
func (t OtpCodeTable) Columns() []string {
	return []string{
		t.ID, t.Email, t.TenantID, t.CodeHash, t.OtpType, t.Attempts,
		t.UsedAt, t.ExpiresAt, t.CreatedAt,
	}
}
