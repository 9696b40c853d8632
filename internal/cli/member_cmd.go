package cli

import (
	"context"
	"fmt"

	"github.com/idia-astro/ilifudb/internal/cli/formatter"
	"github.com/idia-astro/ilifudb/internal/domain"
	"github.com/spf13/cobra"
)

func newMemberCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "member",
		Aliases: []string{"members", "m"},
		Short:   "Manage project membership",
	}

	cmd.AddCommand(
		newMemberAddCmd(app),
		newMemberRemoveCmd(app),
		newMemberListCmd(app),
	)

	return cmd
}

// memberRefs resolves a project reference and a username to their IDs.
func memberRefs(ctx context.Context, app *App, projectRef, username string) (*domain.Project, *domain.User, error) {
	p, err := resolveStoredProject(ctx, app, projectRef)
	if err != nil {
		return nil, nil, err
	}
	u, err := app.Users.GetByUsername(ctx, username)
	if err != nil {
		return nil, nil, fmt.Errorf("user %q: %w", username, err)
	}
	return p, u, nil
}

func newMemberAddCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "add PROJECT USERNAME",
		Short: "Add a user to a project",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			p, u, err := memberRefs(ctx, app, args[0], args[1])
			if err != nil {
				return err
			}
			if err := app.Members.Add(ctx, p.ID, u.ID); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added %s to %s\n", u.Username, p.Name)
			return nil
		},
	}
}

func newMemberRemoveCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:     "remove PROJECT USERNAME",
		Aliases: []string{"rm"},
		Short:   "Remove a user from a project",
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			p, u, err := memberRefs(ctx, app, args[0], args[1])
			if err != nil {
				return err
			}
			if err := app.Members.Remove(ctx, p.ID, u.ID); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %s from %s\n", u.Username, p.Name)
			return nil
		},
	}
}

func newMemberListCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "list PROJECT",
		Short: "List the members of a project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			p, err := resolveStoredProject(ctx, app, args[0])
			if err != nil {
				return err
			}
			users, err := app.Members.Members(ctx, p.ID)
			if err != nil {
				return err
			}
			if len(users) == 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "%s has no members.\n", p.Name)
				return nil
			}
			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatUserList(users))
			return nil
		},
	}
}
