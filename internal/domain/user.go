package domain

import "time"

// Role distinguishes regular accounts from administrators. Authorization
// decisions switch over every value so a new role cannot slip past a check
// unhandled.
type Role string

const (
	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleAdmin:
		return true
	}
	return false
}

// User represents a registered account.
type User struct {
	ID           int64
	Email        string
	PasswordHash string
	IsActive     bool
	Role         Role
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
