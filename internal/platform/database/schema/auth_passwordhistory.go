package schema

// PasswordHistoryTable represents the 'auth.passwordhistory' table
type PasswordHistoryTable struct {
	Table     string
	ID        string
	UserID    string
	Password  string
	CreatedAt string
}

// PasswordHistory is the schema definition for auth.passwordhistory
var PasswordHistory = PasswordHistoryTable{
	Table:     "auth.passwordhistory",
	ID:        "id",
	UserID:    "userid",
	Password:  "passwordhash",
	CreatedAt: "createdat",
}

// Columns returns all standard column names
func (t PasswordHistoryTable) Columns() []string {
	return []string{
		t.ID, t.UserID, t.Password, t.CreatedAt,
	}
}
