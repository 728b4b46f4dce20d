// Package model defines domain entities for the application.
package model

import "time"

// Role is a user's role in the system.
type Role string

const (
	RoleASHA       Role = "asha"
	RoleSupervisor Role = "supervisor"
	RoleAdmin      Role = "admin"
)

// IsValid checks if the role is one of the known roles.
func (r Role) IsValid() bool {
	return r == RoleASHA || r == RoleSupervisor || r == RoleAdmin
}

// User represents a system user (field worker, supervisor, or admin).
type User struct {
	ID           string            `json:"id"`
	Username     string            `json:"username"`
	PasswordHash string            `json:"-"`
	Name         string            `json:"name"`
	Role         Role              `json:"role"`
	Phone        string            `json:"phone,omitempty"`
	Village      string            `json:"village,omitempty"`
	Preferences  map[string]string `json:"preferences,omitempty"`
	Active       bool              `json:"active"`
	LastLogin    *time.Time        `json:"last_login,omitempty"`
	CreatedAt    time.Time         `json:"created_at"`
	UpdatedAt    time.Time         `json:"updated_at"`
}

// AuthContext carries the authenticated identity through a request.
type AuthContext struct {
	UserID   string
	Username string
	Role     Role
}
