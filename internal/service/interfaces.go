package service

import (
	"context"
	"errors"

	"github.com/idia-astro/ilifudb/internal/domain"
	"github.com/idia-astro/ilifudb/internal/importer"
)

// ErrHasChildren is returned when removing a project that still has child
// projects and force was not requested.
var ErrHasChildren = errors.New("project has child projects")

// ResourceTreeService answers queries over the project resource tree and
// maintains its nodes.
type ResourceTreeService interface {
	// Get returns the project at pos. The root position yields the implicit
	// root node; any position without a stored record, including one deeper
	// than five levels, yields repository.ErrNotFound.
	Get(ctx context.Context, pos domain.TreePosition) (*domain.Project, error)
	GetByName(ctx context.Context, name string) (*domain.Project, error)
	// EffectiveAllocation multiplies the parent fractions from the root down
	// to pos. The root is 1.0.
	EffectiveAllocation(ctx context.Context, pos domain.TreePosition) (float64, error)
	Allocation(ctx context.Context, pos domain.TreePosition) (*domain.Allocation, error)
	// Children returns the direct children of pos ordered by their final
	// level, or an empty slice.
	Children(ctx context.Context, pos domain.TreePosition) ([]*domain.Project, error)
	Tree(ctx context.Context, pos domain.TreePosition) ([]TreeEntry, error)
	SiblingSummary(ctx context.Context, parent domain.TreePosition) (*SiblingSummary, error)
	List(ctx context.Context, includeDisabled bool) ([]*domain.Project, error)
	AddProject(ctx context.Context, p *domain.Project) error
	AddChild(ctx context.Context, parent domain.TreePosition, p *domain.Project) error
	UpdateProject(ctx context.Context, p *domain.Project) error
	SetEnabled(ctx context.Context, pos domain.TreePosition, enabled bool) error
	RemoveProject(ctx context.Context, pos domain.TreePosition, force bool) (int, error)
}

// TreeEntry is one node of a rendered subtree.
type TreeEntry struct {
	Project *domain.Project
	// Effective is the root-relative allocation.
	Effective float64
	// Level is the depth below the subtree's top node, starting at 0.
	Level int
	// Orphan marks a node whose parent has no stored record.
	Orphan bool
}

// SiblingSummary reports the fractions handed out below one parent.
// Sibling sums are informational; nothing requires them to reach 1.
type SiblingSummary struct {
	Parent   *domain.Project
	Children []*domain.Project
	Sum      float64
	Balanced bool
}

// NewUserRequest carries the fields for creating a user. Password is
// plain text and is stored hashed.
type NewUserRequest struct {
	Username      string
	Email         string
	FirstName     string
	LastName      string
	Institution   string
	ContactNumber string
	Password      string
	PublicKey     string
	Enabled       bool
}

type UserService interface {
	Create(ctx context.Context, req NewUserRequest) (*domain.User, error)
	Get(ctx context.Context, id int64) (*domain.User, error)
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
	List(ctx context.Context, includeDisabled bool) ([]*domain.User, error)
	Update(ctx context.Context, u *domain.User) error
	SetEnabled(ctx context.Context, username string, enabled bool) error
	SetPassword(ctx context.Context, username, plain string) error
	// ProjectRoles lists projects where the user is PI, co-PI or admin.
	ProjectRoles(ctx context.Context, username string) ([]*domain.Project, error)
	Delete(ctx context.Context, username string) error
}

type MembershipService interface {
	Add(ctx context.Context, projectID, userID int64) error
	Remove(ctx context.Context, projectID, userID int64) error
	Members(ctx context.Context, projectID int64) ([]*domain.User, error)
	ProjectsOf(ctx context.Context, userID int64) ([]*domain.Project, error)
}

// ImportResult holds the outcome of a tree file import.
type ImportResult struct {
	UserCount    int
	ProjectCount int
	MemberCount  int
}

type ImportService interface {
	ImportFile(ctx context.Context, filePath string) (*ImportResult, error)
	Import(ctx context.Context, f *importer.TreeFile) (*ImportResult, error)
}
