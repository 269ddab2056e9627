package model

import "time"

// User is a row of the users table. Staff accounts manage the catalog and
// may act on any reservation. Inactive accounts may not act at all.
type User struct {
	ID           uint64
	Email        string  // unique, stored lower case
	Phone        *string // unique when set
	FirstName    string
	LastName     string
	PasswordHash string // bcrypt
	IsStaff      bool
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Principal is the authenticated actor of a request.
type Principal struct {
	ID       uint64
	IsStaff  bool
	IsActive bool
}

// RefreshToken is a refresh_tokens row. The raw token is never stored.
type RefreshToken struct {
	ID        uint64
	UserID    uint64
	TokenHash string
	ExpiresAt time.Time
	RevokedAt *time.Time
	CreatedAt time.Time
}

// Live reports whether the token is unrevoked and unexpired at now.
func (t RefreshToken) Live(now time.Time) bool {
	return t.RevokedAt == nil && now.Before(t.ExpiresAt)
}
