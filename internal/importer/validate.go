package importer

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/idia-astro/ilifudb/internal/domain"
)

// ValidateTreeFile checks a tree file before conversion. Field rules run
// first, then the tree checks: unique names and positions, parents present,
// and every referenced username and project defined in the file.
// Returns all problems found.
func ValidateTreeFile(f *TreeFile) []error {
	errs := fieldErrors(f)

	usernames := make(map[string]bool, len(f.Users))
	for i, u := range f.Users {
		if u.Username == "" {
			continue
		}
		if usernames[u.Username] {
			errs = append(errs, fmt.Errorf("users[%d].username: duplicate username %q", i, u.Username))
		}
		usernames[u.Username] = true
	}

	projectNames := make(map[string]bool, len(f.Projects))
	positions := make(map[string]string, len(f.Projects))
	parsed := make([]domain.TreePosition, len(f.Projects))
	for i, p := range f.Projects {
		prefix := fmt.Sprintf("projects[%d]", i)
		if p.Name != "" {
			if projectNames[p.Name] {
				errs = append(errs, fmt.Errorf("%s.name: duplicate project name %q", prefix, p.Name))
			}
			projectNames[p.Name] = true
		}

		pos, err := domain.ParseTreePosition(p.Position)
		if err != nil || pos.IsRoot() || pos.Validate() != nil {
			continue
		}
		parsed[i] = pos
		if other, ok := positions[pos.Key()]; ok {
			errs = append(errs, fmt.Errorf("%s.position: %s already used by %q", prefix, pos, other))
			continue
		}
		positions[pos.Key()] = p.Name

		for _, ref := range []struct{ field, username string }{
			{"pi", p.PI}, {"co_pi", p.CoPI}, {"admin", p.Admin},
		} {
			if ref.username != "" && !usernames[ref.username] {
				errs = append(errs, fmt.Errorf("%s.%s: user %q not found in users", prefix, ref.field, ref.username))
			}
		}
	}

	for i, pos := range parsed {
		if len(pos) == 0 || pos.Depth() == 1 {
			continue
		}
		if _, ok := positions[pos.Parent().Key()]; !ok {
			errs = append(errs, fmt.Errorf("projects[%d].position: parent %s of %s not found in projects",
				i, pos.Parent(), pos))
		}
	}

	seen := make(map[MemberImport]bool, len(f.Members))
	for i, m := range f.Members {
		prefix := fmt.Sprintf("members[%d]", i)
		if m.Project != "" && !projectNames[m.Project] {
			errs = append(errs, fmt.Errorf("%s.project: project %q not found in projects", prefix, m.Project))
		}
		if m.User != "" && !usernames[m.User] {
			errs = append(errs, fmt.Errorf("%s.user: user %q not found in users", prefix, m.User))
		}
		if seen[m] {
			errs = append(errs, fmt.Errorf("%s: %q is already a member of %q", prefix, m.User, m.Project))
		}
		seen[m] = true
	}

	return errs
}

// fieldErrors runs the struct tag rules and renders each failure against
// its file path.
func fieldErrors(f *TreeFile) []error {
	err := V().Struct(f)
	if err == nil {
		return nil
	}
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return []error{fmt.Errorf("validating tree file: %w", err)}
	}

	errs := make([]error, 0, len(ve))
	for _, fe := range ve {
		path := fe.Namespace()
		if _, rest, ok := strings.Cut(path, "."); ok {
			path = rest
		}
		errs = append(errs, fmt.Errorf("%s: %s", path, describe(fe)))
	}
	return errs
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "max":
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	case "gt":
		return fmt.Sprintf("must be greater than %s", fe.Param())
	case "lte":
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "oneof":
		return fmt.Sprintf("invalid value %q (want one of %s)", fe.Value(), fe.Param())
	case "email":
		return fmt.Sprintf("invalid email address %q", fe.Value())
	case "treeposn":
		return fmt.Sprintf("invalid tree position %q (1 to %d positive levels)", fe.Value(), domain.MaxTreeDepth)
	case "authorizedkey":
		return "invalid SSH public key"
	case "username":
		return fmt.Sprintf("invalid username %q (lowercase letters, digits, '_', '.', '-')", fe.Value())
	default:
		return fmt.Sprintf("failed %q validation", fe.Tag())
	}
}

// JoinErrors renders validation errors one per line.
func JoinErrors(errs []error) string {
	lines := make([]string, len(errs))
	for i, e := range errs {
		lines[i] = "  - " + e.Error()
	}
	return strings.Join(lines, "\n")
}
