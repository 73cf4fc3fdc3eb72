package schema

// RefreshTokenTable represents the 'auth.refreshtoken' table
type RefreshTokenTable struct {
	Table     string
	ID        string
	UserID    string
	TokenHash string
	ExpiresAt string
	CreatedAt string
}

// RefreshToken is the schema definition for auth.refreshtoken
var RefreshToken = RefreshTokenTable{
	Table:     "auth.refreshtoken",
	ID:        "id",
	UserID:    "userid",
	TokenHash: "tokenhash",
	ExpiresAt: "expiresat",
	CreatedAt: "createdat",
}

// Columns returns all standard column names
func (t RefreshTokenTable) Columns() []string {
	return []string{
		t.ID, t.UserID, t.TokenHash, t.ExpiresAt, t.CreatedAt,
	}
}
