package testutil

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/idia-astro/ilifudb/internal/domain"
)

var testUserCounter atomic.Int64

// Project options
type ProjectOption func(*domain.Project)

func WithFraction(f float64) ProjectOption {
	return func(p *domain.Project) {
		p.ParentFraction = f
	}
}

func WithStatus(s domain.ProjectStatus) ProjectOption {
	return func(p *domain.Project) {
		p.Status = s
	}
}

func WithDisabled() ProjectOption {
	return func(p *domain.Project) {
		p.Enabled = false
	}
}

func WithPI(userID int64) ProjectOption {
	return func(p *domain.Project) {
		p.PIUserID = &userID
	}
}

func WithResources(allocated, limits string) ProjectOption {
	return func(p *domain.Project) {
		p.AllocatedResources = allocated
		p.ResourceLimits = limits
	}
}

// NewTestProject builds an enabled project at pos with a 50% parent fraction.
func NewTestProject(name string, pos domain.TreePosition, opts ...ProjectOption) *domain.Project {
	p := &domain.Project{
		Enabled:        true,
		Status:         domain.ProjectLive,
		Name:           name,
		Position:       pos,
		ParentFraction: 0.5,
		CreatedAt:      time.Now().UTC().Truncate(time.Second),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// User options
type UserOption func(*domain.User)

func WithEmail(email string) UserOption {
	return func(u *domain.User) {
		u.Email = email
	}
}

func WithEnabled(enabled bool) UserOption {
	return func(u *domain.User) {
		u.Enabled = enabled
	}
}

func WithInstitution(inst string) UserOption {
	return func(u *domain.User) {
		u.Institution = inst
	}
}

// NewTestUser builds a valid user. An empty username gets a unique default.
func NewTestUser(username string, opts ...UserOption) *domain.User {
	if username == "" {
		username = fmt.Sprintf("user%02d", testUserCounter.Add(1))
	}
	u := &domain.User{
		Enabled:     true,
		Username:    username,
		Email:       username + "@idia.ac.za",
		FirstName:   strings.ToUpper(username[:1]) + username[1:],
		LastName:    "Tester",
		Institution: "IDIA",
		CreatedAt:   time.Now().UTC().Truncate(time.Second),
	}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

// ProjectCreator is the slice of a project store the seed helpers need.
type ProjectCreator interface {
	Create(ctx context.Context, p *domain.Project) error
}

// IlifuTree is the documented example resource tree below the implicit root.
var IlifuTree = []struct {
	Name     string
	Position domain.TreePosition
	Fraction float64
}{
	{"IDIA", domain.TreePosition{1}, 0.30},
	{"LADUMA", domain.TreePosition{1, 1}, 0.20},
	{"MHONGOOSE", domain.TreePosition{1, 2}, 0.50},
	{"MIGHTEE", domain.TreePosition{1, 3}, 0.30},
	{"CBIO", domain.TreePosition{2}, 0.40},
	{"DIRISA", domain.TreePosition{3}, 0.30},
	{"DIRISA-ASTRO", domain.TreePosition{3, 1}, 0.50},
	{"DIRISA-BIO", domain.TreePosition{3, 2}, 0.50},
}

// SeedIlifuTree stores IlifuTree and returns the created projects by name.
func SeedIlifuTree(t *testing.T, repo ProjectCreator) map[string]*domain.Project {
	t.Helper()
	out := make(map[string]*domain.Project, len(IlifuTree))
	for _, n := range IlifuTree {
		p := NewTestProject(n.Name, n.Position, WithFraction(n.Fraction))
		if err := repo.Create(context.Background(), p); err != nil {
			t.Fatalf("seeding %s: %v", n.Name, err)
		}
		out[n.Name] = p
	}
	return out
}
