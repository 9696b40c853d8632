package service

import (
	"context"
	"time"

	"github.com/idia-astro/ilifudb/internal/domain"
	"github.com/idia-astro/ilifudb/internal/repository"
)

type membershipService struct {
	members  repository.MembershipRepo
	observer UseCaseObserver
}

func NewMembershipService(members repository.MembershipRepo, observers ...UseCaseObserver) MembershipService {
	return &membershipService{
		members:  members,
		observer: useCaseObserverOrNoop(observers),
	}
}

func (s *membershipService) Add(ctx context.Context, projectID, userID int64) (err error) {
	startedAt := time.Now().UTC()
	fields := map[string]any{"project_id": projectID, "user_id": userID}
	defer func() {
		observe(ctx, s.observer, "add-member", startedAt, fields, err)
	}()

	return s.members.Add(ctx, &domain.ProjectMember{ProjectID: projectID, UserID: userID})
}

func (s *membershipService) Remove(ctx context.Context, projectID, userID int64) (err error) {
	startedAt := time.Now().UTC()
	fields := map[string]any{"project_id": projectID, "user_id": userID}
	defer func() {
		observe(ctx, s.observer, "remove-member", startedAt, fields, err)
	}()

	return s.members.Remove(ctx, projectID, userID)
}

func (s *membershipService) Members(ctx context.Context, projectID int64) ([]*domain.User, error) {
	return s.members.ListUsers(ctx, projectID)
}

func (s *membershipService) ProjectsOf(ctx context.Context, userID int64) ([]*domain.Project, error) {
	return s.members.ListProjects(ctx, userID)
}
