package model

import "time"

// User represents an account as stored in the `users` table.
//
// Fields:
//  ID           – primary key identifier of the user.
//  FirstName    – given name, required at sign up.
//  LastName     – family name, optional.
//  Country      – free-form country, optional.
//  Email        – unique email address, stored lower-cased.
//  Contact      – phone or other contact detail, optional.
//  PasswordHash – bcrypt hashed password.
//  CreatedAt    – timestamp of creation.
//  UpdatedAt    – timestamp of last update.
type User struct {
	ID           uint64    // users.id
	FirstName    string    // users.first_name
	LastName     string    // users.last_name
	Country      string    // users.country
	Email        string    // users.email
	Contact      string    // users.contact
	PasswordHash string    // users.password_hash
	CreatedAt    time.Time // users.created_at
	UpdatedAt    time.Time // users.updated_at
}

// Profile holds the editable subset of a user.
type Profile struct {
	FirstName string
	LastName  string
	Country   string
	Email     string
	Contact   string
}

// Session models an entry in the `sessions` table.  Each issued access
// token has one session row keyed by the SHA-256 of the token id, so a
// token can be revoked before it expires.
//
// Fields:
//  ID        – primary key identifier.
//  UserID    – owner of the session.
//  TokenHash – SHA-256 hex digest of the token's jti claim.
//  ExpiresAt – expiration timestamp, equal to the token's exp.
//  RevokedAt – when the session was revoked (nil while active).
//  CreatedAt – timestamp of creation.
type Session struct {
	ID        uint64     // sessions.id
	UserID    uint64     // sessions.user_id
	TokenHash string     // sessions.token_hash
	ExpiresAt time.Time  // sessions.expires_at
	RevokedAt *time.Time // sessions.revoked_at (nullable)
	CreatedAt time.Time  // sessions.created_at
}

// Active reports whether the session may still authenticate requests.
func (s Session) Active(now time.Time) bool {
	return s.RevokedAt == nil && now.Before(s.ExpiresAt)
}
