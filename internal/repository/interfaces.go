package repository

import (
	"context"

	"github.com/idia-astro/ilifudb/internal/domain"
)

type ProjectRepo interface {
	Create(ctx context.Context, p *domain.Project) error
	GetByID(ctx context.Context, id int64) (*domain.Project, error)
	GetByName(ctx context.Context, name string) (*domain.Project, error)
	GetByPosition(ctx context.Context, pos domain.TreePosition) (*domain.Project, error)
	ListChildren(ctx context.Context, parent domain.TreePosition) ([]*domain.Project, error)
	ListSubtree(ctx context.Context, pos domain.TreePosition) ([]*domain.Project, error)
	ListByUser(ctx context.Context, userID int64) ([]*domain.Project, error)
	List(ctx context.Context, includeDisabled bool) ([]*domain.Project, error)
	NextChildIndex(ctx context.Context, parent domain.TreePosition) (int, error)
	Update(ctx context.Context, p *domain.Project) error
	SetEnabled(ctx context.Context, id int64, enabled bool) error
	Delete(ctx context.Context, id int64) error
}

type UserRepo interface {
	Create(ctx context.Context, u *domain.User) error
	GetByID(ctx context.Context, id int64) (*domain.User, error)
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
	List(ctx context.Context, includeDisabled bool) ([]*domain.User, error)
	Update(ctx context.Context, u *domain.User) error
	SetEnabled(ctx context.Context, id int64, enabled bool) error
	Delete(ctx context.Context, id int64) error
}

type MembershipRepo interface {
	Add(ctx context.Context, m *domain.ProjectMember) error
	Remove(ctx context.Context, projectID, userID int64) error
	ListUsers(ctx context.Context, projectID int64) ([]*domain.User, error)
	ListProjects(ctx context.Context, userID int64) ([]*domain.Project, error)
}
