package group

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// Common errors
var (
	ErrGroupNotFound  = errors.New("group not found")
	ErrNotGroupMember = errors.New("not a member of this group")
	ErrInvalidRole    = errors.New("invalid membership role")
)

// Service handles group business logic
type Service struct {
	repo *Repository
}

// NewService creates a new group service
func NewService(repo *Repository) *Service {
	return &Service{repo: repo}
}

// Create creates a group; the creating user becomes its owner
func (s *Service) Create(ctx context.Context, creatorUserID uuid.UUID, req *CreateGroupRequest) (*Group, *Membership, error) {
	currency := req.Currency
	if currency == "" {
		currency = "USD"
	}
	return s.repo.Create(ctx, req.Name, currency, creatorUserID)
}

// GetByID retrieves a group with its memberships; the requester must be a member
func (s *Service) GetByID(ctx context.Context, groupID, userID uuid.UUID) (*Group, []*Membership, error) {
	group, err := s.repo.GetByID(ctx, groupID)
	if err != nil {
		return nil, nil, err
	}
	if group == nil {
		return nil, nil, ErrGroupNotFound
	}

	if _, err := s.RequireMembership(ctx, groupID, userID); err != nil {
		return nil, nil, err
	}

	members, err := s.repo.ListMemberships(ctx, groupID)
	if err != nil {
		return nil, nil, err
	}

	return group, members, nil
}

// AddMember adds a user to a group. Only existing members may add others.
func (s *Service) AddMember(ctx context.Context, groupID, actingUserID uuid.UUID, req *AddMemberRequest) (*Membership, error) {
	group, err := s.repo.GetByID(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if group == nil {
		return nil, ErrGroupNotFound
	}

	if _, err := s.RequireMembership(ctx, groupID, actingUserID); err != nil {
		return nil, err
	}

	role := req.Role
	if role == "" {
		role = RoleMember
	}
	if !role.Valid() {
		return nil, ErrInvalidRole
	}

	return s.repo.AddMember(ctx, groupID, req.UserID, role)
}

// Roster returns every membership of the group without an authorization
// check. Intended for other services that have already authorized the caller.
func (s *Service) Roster(ctx context.Context, groupID uuid.UUID) ([]*Membership, error) {
	return s.repo.ListMemberships(ctx, groupID)
}

// RequireMembership returns the acting user's membership in the group, or
// ErrNotGroupMember. Used by expense and settlement handlers for
// authorization.
func (s *Service) RequireMembership(ctx context.Context, groupID, userID uuid.UUID) (*Membership, error) {
	membership, err := s.repo.GetMembershipForUser(ctx, groupID, userID)
	if err != nil {
		return nil, err
	}
	if membership == nil {
		return nil, ErrNotGroupMember
	}
	return membership, nil
}
