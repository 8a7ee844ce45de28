package domain

// Role enumerates directory roles.
type Role string

const (
	RoleAdmin    Role = "admin"
	RoleEmployee Role = "employee"
)

// User is a read-only reference entity sourced from the directory or an
// identity-provider claim; never created or mutated by this system.
type User struct {
	Name  string
	Email string
	Role  Role
}

// IsAdmin reports whether the user carries the admin role.
func (u User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
