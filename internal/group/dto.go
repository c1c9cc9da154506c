package group

import "github.com/google/uuid"

// CreateGroupRequest represents the request body for creating a group
type CreateGroupRequest struct {
	Name     string `json:"name" validate:"required,min=1,max=100"`
	Currency string `json:"currency" validate:"omitempty,len=3"`
}

// AddMemberRequest represents the request body for adding a member
type AddMemberRequest struct {
	UserID uuid.UUID      `json:"user_id" validate:"required"`
	Role   MembershipRole `json:"role" validate:"omitempty,oneof=owner member viewer"`
}

// MembershipResponse represents a single membership
type MembershipResponse struct {
	ID          uuid.UUID      `json:"id"`
	GroupID     uuid.UUID      `json:"group_id"`
	UserID      uuid.UUID      `json:"user_id"`
	Role        MembershipRole `json:"role"`
	DisplayName string         `json:"display_name,omitempty"`
	CreatedAt   string         `json:"created_at"`
}

// GroupResponse represents a group with its members
type GroupResponse struct {
	ID        uuid.UUID             `json:"id"`
	Name      string                `json:"name"`
	Currency  string                `json:"currency"`
	Members   []*MembershipResponse `json:"members,omitempty"`
	CreatedAt string                `json:"created_at"`
}

// ToResponse converts a Membership model to a MembershipResponse DTO
func (m *Membership) ToResponse() *MembershipResponse {
	return &MembershipResponse{
		ID:          m.ID,
		GroupID:     m.GroupID,
		UserID:      m.UserID,
		Role:        m.Role,
		DisplayName: m.DisplayName,
		CreatedAt:   m.CreatedAt.UTC().Format("2006-01-02T15:04:05Z"),
	}
}

// ToResponse converts a Group model to a GroupResponse DTO
func (g *Group) ToResponse(members []*Membership) *GroupResponse {
	resp := &GroupResponse{
		ID:        g.ID,
		Name:      g.Name,
		Currency:  g.Currency,
		CreatedAt: g.CreatedAt.UTC().Format("2006-01-02T15:04:05Z"),
	}
	for _, m := range members {
		resp.Members = append(resp.Members, m.ToResponse())
	}
	return resp
}
