package domain

import "strings"

// Role is a per-board permission level.
type Role string

const (
	RoleAdmin  Role = "admin"
	RoleMember Role = "member"
	RoleViewer Role = "viewer"
)

// ValidRole returns true if r is a known board role.
func ValidRole(r Role) bool {
	switch r {
	case RoleAdmin, RoleMember, RoleViewer:
		return true
	}
	return false
}

// CanDeleteTasks reports whether the role may delete tasks.
func (r Role) CanDeleteTasks() bool {
	return r == RoleAdmin
}

// CanManageMembers reports whether the role sees member management controls.
func (r Role) CanManageMembers() bool {
	return r == RoleAdmin
}

// Label is the capitalized role name used in badges.
func (r Role) Label() string {
	if r == "" {
		return ""
	}
	return strings.ToUpper(string(r[:1])) + string(r[1:])
}

// BoardMember links a profile to a board with a role.
type BoardMember struct {
	ID      string  `json:"id"`
	BoardID string  `json:"board_id"`
	Role    Role    `json:"role"`
	Profile Profile `json:"profile"`
}
