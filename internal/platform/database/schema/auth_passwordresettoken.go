package schema

// PasswordResetTokenTable represents the 'auth.passwordresettoken' table
type PasswordResetTokenTable struct {
	Table     string
	ID        string
	UserID    string
	TokenHash string
	IsUsed    string
	UsedAt    string
	ExpiresAt string
	CreatedAt string
}

// PasswordResetToken is the schema definition for auth.passwordresettoken
var PasswordResetToken = PasswordResetTokenTable{
	Table:     "auth.passwordresettoken",
	ID:        "id",
	UserID:    "userid",
	TokenHash: "tokenhash",
	IsUsed:    "isused",
	UsedAt:    "usedat",
	ExpiresAt: "expiresat",
	CreatedAt: "createdat",
}

// Columns returns all standard column names
func (t PasswordResetTokenTable) Columns() []string {
	return []string{
		t.ID, t.UserID, t.TokenHash, t.IsUsed, t.UsedAt, t.ExpiresAt, t.CreatedAt,
	}
}
