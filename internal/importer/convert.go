package importer

import (
	"fmt"
	"sort"
	"time"

	"github.com/idia-astro/ilifudb/internal/domain"
	"github.com/idia-astro/ilifudb/internal/password"
)

// Tree holds the domain records of a validated tree file. Projects are
// ordered parent-first so they can be inserted in sequence.
type Tree struct {
	Users    []*domain.User
	Projects []*ProjectRecord
	Members  []MemberImport
}

// ProjectRecord is a project plus the usernames its role columns refer to.
// The IDs are resolved once the users have been stored.
type ProjectRecord struct {
	Project *domain.Project
	PI      string
	CoPI    string
	Admin   string
}

// Convert transforms a validated TreeFile into domain records.
// Call ValidateTreeFile first; Convert assumes the file is valid.
func Convert(f *TreeFile) (*Tree, error) {
	now := time.Now().UTC().Truncate(time.Second)
	tree := &Tree{
		Users:    make([]*domain.User, 0, len(f.Users)),
		Projects: make([]*ProjectRecord, 0, len(f.Projects)),
		Members:  append([]MemberImport(nil), f.Members...),
	}

	for _, u := range f.Users {
		user := &domain.User{
			Enabled:       boolOr(u.Enabled, false),
			Username:      u.Username,
			Email:         u.Email,
			FirstName:     u.FirstName,
			LastName:      u.LastName,
			Institution:   u.Institution,
			ContactNumber: optional(u.ContactNumber),
			CreatedAt:     now,
		}
		if u.Password != "" {
			hash, err := password.Hash(u.Password)
			if err != nil {
				return nil, fmt.Errorf("hashing password for %q: %w", u.Username, err)
			}
			user.PasswordHash = &hash
		}
		if u.PublicKey != "" {
			key, err := password.ValidatePublicKey(u.PublicKey)
			if err != nil {
				return nil, fmt.Errorf("user %q: %w", u.Username, err)
			}
			user.PublicKey = &key
		}
		tree.Users = append(tree.Users, user)
	}

	for _, p := range f.Projects {
		pos, err := domain.ParseTreePosition(p.Position)
		if err != nil {
			return nil, fmt.Errorf("project %q: %w", p.Name, err)
		}
		status := domain.ProjectStatus(p.Status)
		if status == "" {
			status = domain.ProjectPlanning
		}
		tree.Projects = append(tree.Projects, &ProjectRecord{
			Project: &domain.Project{
				Enabled:            boolOr(p.Enabled, true),
				Status:             status,
				Name:               p.Name,
				Position:           pos,
				ParentFraction:     p.ParentFraction,
				AllocatedResources: p.AllocatedResources,
				ResourceLimits:     p.ResourceLimits,
				CreatedAt:          now,
			},
			PI:    p.PI,
			CoPI:  p.CoPI,
			Admin: p.Admin,
		})
	}

	// Shallower nodes first; siblings in position order.
	sort.SliceStable(tree.Projects, func(i, j int) bool {
		a, b := tree.Projects[i].Project.Position, tree.Projects[j].Project.Position
		if a.Depth() != b.Depth() {
			return a.Depth() < b.Depth()
		}
		return lessPosition(a, b)
	})

	return tree, nil
}

func lessPosition(a, b domain.TreePosition) bool {
	for i := 0; i < len(a) && i < len(b); i++ {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return len(a) < len(b)
}

func boolOr(v *bool, def bool) bool {
	if v == nil {
		return def
	}
	return *v
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
