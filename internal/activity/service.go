package activity

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/obadran/settleup/internal/group"
)

// Service handles activity log business logic
type Service struct {
	repo   *Repository
	groups *group.Service
}

// NewService creates a new activity service
func NewService(repo *Repository, groups *group.Service) *Service {
	return &Service{repo: repo, groups: groups}
}

// Record appends an event to the group's activity log. Recording is
// best-effort: failures are logged and swallowed so they never break the
// operation being recorded.
func (s *Service) Record(ctx context.Context, groupID, actorMembership uuid.UUID, eventType string, subjectID uuid.UUID) {
	if _, err := s.repo.Create(ctx, groupID, actorMembership, eventType, subjectID); err != nil {
		slog.Warn("failed to record activity event",
			"group_id", groupID,
			"event_type", eventType,
			"error", err,
		)
	}
}

// ListByGroup retrieves recent activity for a group (members only)
func (s *Service) ListByGroup(ctx context.Context, userID, groupID uuid.UUID, limit int) ([]*Event, error) {
	if _, err := s.groups.RequireMembership(ctx, groupID, userID); err != nil {
		return nil, err
	}
	if limit < 1 || limit > 200 {
		limit = 50
	}
	return s.repo.ListByGroupID(ctx, groupID, limit)
}
