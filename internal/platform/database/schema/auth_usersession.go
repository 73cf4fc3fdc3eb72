package schema

// UserSessionTable represents the 'auth.usersession' table
type UserSessionTable struct {
	Table        string
	ID           string
	UserID       string
	TokenHash    string
	IPAddress    string
	UserAgent    string
	LastActiveAt string
	ExpiresAt    string
	CreatedAt    string
}

// UserSession is the schema definition for auth.usersession
var UserSession = UserSessionTable{
	Table:        "auth.usersession",
	ID:           "id",
	UserID:       "userid",
	TokenHash:    "tokenhash",
	IPAddress:    "ipaddress",
	UserAgent:    "useragent",
	LastActiveAt: "lastactiveat",
	ExpiresAt:    "expiresat",
	CreatedAt:    "createdat",
}

// Columns returns all standard column names
func (t UserSessionTable) Columns() []string {
	return []string{
		t.ID, t.UserID, t.TokenHash, t.IPAddress, t.UserAgent,
		t.LastActiveAt, t.ExpiresAt, t.CreatedAt,
	}
}
