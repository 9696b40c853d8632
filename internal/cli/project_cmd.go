package cli

import (
	"fmt"
	"strings"

	"github.com/idia-astro/ilifudb/internal/cli/formatter"
	"github.com/idia-astro/ilifudb/internal/domain"
	"github.com/spf13/cobra"
)

func newProjectCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "project",
		Aliases: []string{"projects", "p"},
		Short:   "Manage projects in the resource tree",
		Long: `Manage projects in the resource tree.

A project is addressed by name or by tree position. Positions may be
written as 1.2, 1,2 or [1, 2, NULL, NULL, NULL]; "root" is the implicit
top of the tree which holds 100% of the resources.`,
	}

	cmd.AddCommand(
		newProjectAddCmd(app),
		newProjectListCmd(app),
		newProjectShowCmd(app),
		newProjectChildrenCmd(app),
		newProjectAllocCmd(app),
		newProjectTreeCmd(app),
		newProjectSiblingsCmd(app),
		newProjectUpdateCmd(app),
		newProjectEnableCmd(app, true),
		newProjectEnableCmd(app, false),
		newProjectRemoveCmd(app),
	)

	return cmd
}

// projectFlags are the fields shared by add and update.
type projectFlags struct {
	name      string
	position  string
	fraction  float64
	status    string
	pi        string
	coPI      string
	admin     string
	allocated string
	limits    string
}

func (f *projectFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.name, "name", "", "Project name (unique)")
	cmd.Flags().StringVar(&f.position, "position", "", "Tree position, e.g. 1.2")
	cmd.Flags().Float64Var(&f.fraction, "fraction", 0, "Share of the parent's resources, in (0, 1]")
	cmd.Flags().StringVar(&f.status, "status", string(domain.ProjectPlanning), "planning, live or disabled")
	cmd.Flags().StringVar(&f.pi, "pi", "", "Username of the principal investigator")
	cmd.Flags().StringVar(&f.coPI, "co-pi", "", "Username of the co-PI")
	cmd.Flags().StringVar(&f.admin, "admin", "", "Username of the project admin")
	cmd.Flags().StringVar(&f.allocated, "allocated", "", "Allocated resources (free text)")
	cmd.Flags().StringVar(&f.limits, "limits", "", "Resource limits (free text)")
}

// applyRoles sets each role whose flag was given. An empty username clears it.
func (f *projectFlags) applyRoles(cmd *cobra.Command, app *App, p *domain.Project) error {
	roles := []struct {
		flag  string
		value string
		dst   **int64
	}{
		{"pi", f.pi, &p.PIUserID},
		{"co-pi", f.coPI, &p.CoPIUserID},
		{"admin", f.admin, &p.AdminUserID},
	}
	for _, r := range roles {
		if !cmd.Flags().Changed(r.flag) {
			continue
		}
		id, err := resolveUserID(cmd.Context(), app, r.value)
		if err != nil {
			return err
		}
		*r.dst = id
	}
	return nil
}

func newProjectAddCmd(app *App) *cobra.Command {
	var flags projectFlags
	var parent string
	var disabled bool

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Create a project at a position or as the next child of a parent",
		Example: `  ilifudb project add --name IDIA --position 1 --fraction 0.3 --status live
  ilifudb project add --name LADUMA --parent IDIA --fraction 0.2 --pi sblyth`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if (flags.position == "") == (parent == "") {
				return fmt.Errorf("exactly one of --position or --parent is required")
			}

			p := &domain.Project{
				Enabled:            !disabled,
				Status:             domain.ProjectStatus(strings.ToLower(flags.status)),
				Name:               flags.name,
				ParentFraction:     flags.fraction,
				AllocatedResources: flags.allocated,
				ResourceLimits:     flags.limits,
			}
			if err := flags.applyRoles(cmd, app, p); err != nil {
				return err
			}

			if parent != "" {
				parentPos, err := resolvePosition(ctx, app, parent)
				if err != nil {
					return fmt.Errorf("parent: %w", err)
				}
				if err := app.Tree.AddChild(ctx, parentPos, p); err != nil {
					return err
				}
			} else {
				pos, err := domain.ParseTreePosition(flags.position)
				if err != nil {
					return err
				}
				p.Position = pos
				if err := app.Tree.AddProject(ctx, p); err != nil {
					return err
				}
			}

			share, err := app.Tree.EffectiveAllocation(ctx, p.Position)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created project %s at %s (%s of total)\n",
				p.Name, p.Position, formatter.FormatPercent(share))
			return nil
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVar(&parent, "parent", "", "Parent project (name or position); the next free index is used")
	cmd.Flags().BoolVar(&disabled, "disabled", false, "Create the project disabled")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("fraction")

	return cmd
}

func newProjectListCmd(app *App) *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List projects in tree order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			projects, err := app.Tree.List(ctx, all)
			if err != nil {
				return err
			}
			if len(projects) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No projects found.")
				return nil
			}

			entries, err := app.Tree.Tree(ctx, domain.RootPosition)
			if err != nil {
				return err
			}
			effective := make(map[string]float64, len(entries))
			for _, e := range entries {
				if !e.Orphan {
					effective[e.Project.Position.Key()] = e.Effective
				}
			}

			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatProjectList(projects, effective))
			return nil
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "Include disabled projects")

	return cmd
}

func newProjectShowCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:     "show PROJECT",
		Aliases: []string{"inspect"},
		Short:   "Show project details, allocation, children and members",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			p, err := resolveProject(ctx, app, args[0])
			if err != nil {
				return err
			}
			alloc, err := app.Tree.Allocation(ctx, p.Position)
			if err != nil {
				return err
			}
			children, err := app.Tree.Children(ctx, p.Position)
			if err != nil {
				return err
			}

			detail := formatter.ProjectDetail{
				Project:    p,
				Allocation: alloc,
				Children:   children,
				PI:         usernameOf(ctx, app, p.PIUserID),
				CoPI:       usernameOf(ctx, app, p.CoPIUserID),
				Admin:      usernameOf(ctx, app, p.AdminUserID),
			}
			if !p.Position.IsRoot() {
				if detail.Members, err = app.Members.Members(ctx, p.ID); err != nil {
					return err
				}
			}

			fmt.Fprintln(cmd.OutOrStdout(), formatter.FormatProjectDetail(detail))
			return nil
		},
	}
}

func newProjectChildrenCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "children PROJECT",
		Short: "List the direct children of a project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			pos, err := resolvePosition(ctx, app, args[0])
			if err != nil {
				return err
			}
			children, err := app.Tree.Children(ctx, pos)
			if err != nil {
				return err
			}
			if len(children) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No child projects.")
				return nil
			}

			parentShare, err := app.Tree.EffectiveAllocation(ctx, pos)
			if err != nil {
				return err
			}
			effective := make(map[string]float64, len(children))
			for _, c := range children {
				effective[c.Position.Key()] = parentShare * c.ParentFraction
			}
			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatProjectList(children, effective))
			return nil
		},
	}
}

func newProjectAllocCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:     "alloc PROJECT",
		Aliases: []string{"allocation"},
		Short:   "Show a project's effective share of the total resources",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			pos, err := resolvePosition(ctx, app, args[0])
			if err != nil {
				return err
			}
			alloc, err := app.Tree.Allocation(ctx, pos)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatAllocation(alloc))
			return nil
		},
	}
}

func newProjectTreeCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "tree [PROJECT]",
		Short: "Draw the resource tree with effective shares",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			pos := domain.RootPosition
			if len(args) == 1 {
				var err error
				if pos, err = resolvePosition(ctx, app, args[0]); err != nil {
					return err
				}
			}
			entries, err := app.Tree.Tree(ctx, pos)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatTree(entries))
			return nil
		},
	}
}

func newProjectSiblingsCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "siblings PARENT",
		Short: "Show the fractions handed out below a parent and their sum",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			pos, err := resolvePosition(ctx, app, args[0])
			if err != nil {
				return err
			}
			summary, err := app.Tree.SiblingSummary(ctx, pos)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatSiblings(summary))
			return nil
		},
	}
}

func newProjectUpdateCmd(app *App) *cobra.Command {
	var flags projectFlags

	cmd := &cobra.Command{
		Use:   "update PROJECT",
		Short: "Change a project's fields; --position moves a childless project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			p, err := resolveStoredProject(ctx, app, args[0])
			if err != nil {
				return err
			}

			changed := cmd.Flags().Changed
			if changed("name") {
				p.Name = flags.name
			}
			if changed("position") {
				if p.Position, err = domain.ParseTreePosition(flags.position); err != nil {
					return err
				}
			}
			if changed("fraction") {
				p.ParentFraction = flags.fraction
			}
			if changed("status") {
				p.Status = domain.ProjectStatus(strings.ToLower(flags.status))
			}
			if changed("allocated") {
				p.AllocatedResources = flags.allocated
			}
			if changed("limits") {
				p.ResourceLimits = flags.limits
			}
			if err := flags.applyRoles(cmd, app, p); err != nil {
				return err
			}

			if err := app.Tree.UpdateProject(ctx, p); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated project %s\n", p.DisplayLabel())
			return nil
		},
	}

	flags.register(cmd)

	return cmd
}

func newProjectEnableCmd(app *App, enabled bool) *cobra.Command {
	use, verb := "disable", "Disabled"
	if enabled {
		use, verb = "enable", "Enabled"
	}
	return &cobra.Command{
		Use:   use + " PROJECT",
		Short: verb + " a project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			p, err := resolveStoredProject(ctx, app, args[0])
			if err != nil {
				return err
			}
			if err := app.Tree.SetEnabled(ctx, p.Position, enabled); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s project %s\n", verb, p.DisplayLabel())
			return nil
		},
	}
}

func newProjectRemoveCmd(app *App) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:     "remove PROJECT",
		Aliases: []string{"rm"},
		Short:   "Remove a project; --force also removes its descendants",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			p, err := resolveStoredProject(ctx, app, args[0])
			if err != nil {
				return err
			}
			n, err := app.Tree.RemoveProject(ctx, p.Position, force)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %d project(s) from %s\n", n, p.Position)
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Also remove all descendant projects")

	return cmd
}
