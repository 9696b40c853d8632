package cli

import (
	"context"
	"fmt"
	"strings"
	"unicode"

	"github.com/idia-astro/ilifudb/internal/domain"
)

// resolveProject accepts a tree position ("1.1", "1,1", "[1, 1, NULL, NULL,
// NULL]", "root") or a project name. Anything starting with a digit or a
// bracket is read as a position.
func resolveProject(ctx context.Context, app *App, ref string) (*domain.Project, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, fmt.Errorf("project name or position is required")
	}
	if looksLikePosition(ref) {
		pos, err := domain.ParseTreePosition(ref)
		if err != nil {
			return nil, err
		}
		return app.Tree.Get(ctx, pos)
	}
	return app.Tree.GetByName(ctx, ref)
}

// resolvePosition is resolveProject reduced to the node's position.
func resolvePosition(ctx context.Context, app *App, ref string) (domain.TreePosition, error) {
	p, err := resolveProject(ctx, app, ref)
	if err != nil {
		return nil, err
	}
	return p.Position, nil
}

// resolveStoredProject rejects the implicit root, which has no ID.
func resolveStoredProject(ctx context.Context, app *App, ref string) (*domain.Project, error) {
	p, err := resolveProject(ctx, app, ref)
	if err != nil {
		return nil, err
	}
	if p.Position.IsRoot() {
		return nil, fmt.Errorf("%w: the root is not a stored project", domain.ErrInvalidPosition)
	}
	return p, nil
}

func looksLikePosition(ref string) bool {
	if strings.EqualFold(ref, domain.RootProjectName) {
		return true
	}
	r := rune(ref[0])
	return r == '[' || unicode.IsDigit(r)
}

// resolveUserID maps an optional username flag to a user ID.
func resolveUserID(ctx context.Context, app *App, username string) (*int64, error) {
	if username == "" {
		return nil, nil
	}
	u, err := app.Users.GetByUsername(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("user %q: %w", username, err)
	}
	return &u.ID, nil
}

// usernameOf is the display form of an optional user reference.
func usernameOf(ctx context.Context, app *App, id *int64) string {
	if id == nil {
		return ""
	}
	u, err := app.Users.Get(ctx, *id)
	if err != nil {
		return fmt.Sprintf("#%d", *id)
	}
	return u.Username
}
