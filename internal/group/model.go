package group

import (
	"time"

	"github.com/google/uuid"
)

// MembershipRole represents the role of a group membership
type MembershipRole string

const (
	RoleOwner  MembershipRole = "owner"
	RoleMember MembershipRole = "member"
	RoleViewer MembershipRole = "viewer"
)

// Valid reports whether the role is one of the known roles
func (r MembershipRole) Valid() bool {
	switch r {
	case RoleOwner, RoleMember, RoleViewer:
		return true
	}
	return false
}

// Group represents a group in the system
type Group struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Currency  string    `json:"currency"`
	CreatedAt time.Time `json:"created_at"`
}

// Membership links a user to a group. Expenses, splits and settlements all
// reference memberships, not users.
type Membership struct {
	ID        uuid.UUID      `json:"id"`
	GroupID   uuid.UUID      `json:"group_id"`
	UserID    uuid.UUID      `json:"user_id"`
	Role      MembershipRole `json:"role"`
	CreatedAt time.Time      `json:"created_at"`

	// Populated via JOIN
	DisplayName string `json:"display_name,omitempty"`
}
