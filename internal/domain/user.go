package domain

// Role represents the user's permission level in the system.
type Role string

const (
	// RoleAdmin grants catalog management access.
	RoleAdmin Role = "admin"
	// RoleMember grants standard borrowing access.
	RoleMember Role = "member"
)

// User represents a library member. Authentication happens upstream;
// the catalog only needs a stable identity to attach borrows, reviews
// and preferences to.
type User struct {
	Entity
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
	Role        Role   `json:"role"`
}

// IsAdmin returns true if the user can manage the catalog.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
