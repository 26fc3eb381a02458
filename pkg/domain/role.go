package domain

import "strings"

// Role is the coarse access level carried in token claims. The registry only
// distinguishes administrators from regular group members.
type Role string

const (
	RoleAdmin Role = "Admin"
	RoleUser  Role = "User"
)

// ParseRole normalizes a free-form role string to one of the known roles.
// The second return is false for anything unrecognized.
func ParseRole(s string) (Role, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "admin":
		return RoleAdmin, true
	case "user":
		return RoleUser, true
	default:
		return Role(s), false
	}
}

func (r Role) IsAdmin() bool { return r == RoleAdmin }
