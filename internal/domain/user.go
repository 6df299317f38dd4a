// internal/domain/user.go
package domain

import "time"

// User represents an account holder. Authentication lives upstream; the ledger only stores identity.
type User struct {
	ID          int64     `db:"id" json:"id"`
	Username    string    `db:"username" json:"username"`
	IsSuperuser bool      `db:"is_superuser" json:"is_superuser"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// NewUser creates a new User instance.
func NewUser(username string, superuser bool) *User {
	now := time.Now().UTC()
	return &User{
		Username:    username,
		IsSuperuser: superuser,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// Caller is the authenticated identity attached to a request.
type Caller struct {
	UserID      int64
	Username    string
	IsSuperuser bool
}
