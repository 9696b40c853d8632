package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/idia-astro/ilifudb/internal/cli/formatter"
	"github.com/idia-astro/ilifudb/internal/service"
	"github.com/spf13/cobra"
)

func newUserCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "user",
		Aliases: []string{"users", "u"},
		Short:   "Manage Ilifu users",
	}

	cmd.AddCommand(
		newUserAddCmd(app),
		newUserListCmd(app),
		newUserShowCmd(app),
		newUserUpdateCmd(app),
		newUserPasswdCmd(app),
		newUserEnableCmd(app, true),
		newUserEnableCmd(app, false),
		newUserRemoveCmd(app),
	)

	return cmd
}

// userFlags are the profile fields shared by add and update.
type userFlags struct {
	email       string
	firstName   string
	lastName    string
	institution string
	contact     string
	key         string
	keyFile     string
}

func (f *userFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.email, "email", "", "Email address")
	cmd.Flags().StringVar(&f.firstName, "first-name", "", "First name")
	cmd.Flags().StringVar(&f.lastName, "last-name", "", "Last name")
	cmd.Flags().StringVar(&f.institution, "institution", "", "Home institution")
	cmd.Flags().StringVar(&f.contact, "contact", "", "Contact number")
	cmd.Flags().StringVar(&f.key, "key", "", "SSH public key in authorized_keys format")
	cmd.Flags().StringVar(&f.keyFile, "key-file", "", "Read the SSH public key from a file")
	cmd.MarkFlagsMutuallyExclusive("key", "key-file")
}

// publicKey returns the key from --key or --key-file.
func (f *userFlags) publicKey() (string, error) {
	if f.keyFile == "" {
		return f.key, nil
	}
	data, err := os.ReadFile(f.keyFile)
	if err != nil {
		return "", fmt.Errorf("reading key file: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}

// passwordFlags choose where a new password comes from.
type passwordFlags struct {
	value string
	stdin bool
}

func (f *passwordFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.value, "password", "", "Password (visible in shell history; prefer the prompt)")
	cmd.Flags().BoolVar(&f.stdin, "password-stdin", false, "Read the password from stdin")
	cmd.MarkFlagsMutuallyExclusive("password", "password-stdin")
}

// read returns the password from a flag, stdin or an interactive prompt.
// It returns "" when none is given and no terminal is attached.
func (f *passwordFlags) read(cmd *cobra.Command, app *App) (string, error) {
	switch {
	case cmd.Flags().Changed("password"):
		if err := validatePassword(f.value); err != nil {
			return "", err
		}
		return f.value, nil
	case f.stdin:
		return readPasswordLine(cmd.InOrStdin())
	case app.interactive():
		return app.promptPassword("Password")
	default:
		return "", nil
	}
}

func newUserAddCmd(app *App) *cobra.Command {
	var flags userFlags
	var pw passwordFlags
	var enabled bool

	cmd := &cobra.Command{
		Use:   "add USERNAME",
		Short: "Create a user",
		Long: `Create a user. When stdin is a terminal and no --password or
--password-stdin is given, the password is prompted for.`,
		Example: `  ilifudb user add jhorrell --email jasper@idia.ac.za --first-name Jasper \
      --last-name Horrell --institution IDIA --key-file ~/.ssh/id_ed25519.pub`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := flags.publicKey()
			if err != nil {
				return err
			}
			plain, err := pw.read(cmd, app)
			if err != nil {
				return err
			}

			u, err := app.Users.Create(cmd.Context(), service.NewUserRequest{
				Username:      args[0],
				Email:         flags.email,
				FirstName:     flags.firstName,
				LastName:      flags.lastName,
				Institution:   flags.institution,
				ContactNumber: flags.contact,
				Password:      plain,
				PublicKey:     key,
				Enabled:       enabled,
			})
			if err != nil {
				return err
			}

			state := "disabled"
			if u.Enabled {
				state = "enabled"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created user %s (%s, %s)\n", u.Username, u.FullName(), state)
			return nil
		},
	}

	flags.register(cmd)
	pw.register(cmd)
	cmd.Flags().BoolVar(&enabled, "enabled", false, "Enable the account immediately")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("first-name")
	_ = cmd.MarkFlagRequired("last-name")
	_ = cmd.MarkFlagRequired("institution")

	return cmd
}

func newUserListCmd(app *App) *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List users",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			users, err := app.Users.List(cmd.Context(), all)
			if err != nil {
				return err
			}
			if len(users) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No users found.")
				return nil
			}
			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatUserList(users))
			return nil
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "Include disabled users")

	return cmd
}

func newUserShowCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "show USERNAME",
		Short: "Show a user with their project roles and memberships",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			u, err := app.Users.GetByUsername(ctx, args[0])
			if err != nil {
				return err
			}
			roles, err := app.Users.ProjectRoles(ctx, u.Username)
			if err != nil {
				return err
			}
			projects, err := app.Members.ProjectsOf(ctx, u.ID)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), formatter.FormatUserDetail(formatter.UserDetail{
				User:     u,
				Roles:    roles,
				Projects: projects,
			}))
			return nil
		},
	}
}

func newUserUpdateCmd(app *App) *cobra.Command {
	var flags userFlags

	cmd := &cobra.Command{
		Use:   "update USERNAME",
		Short: "Change a user's profile fields or public key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			u, err := app.Users.GetByUsername(ctx, args[0])
			if err != nil {
				return err
			}

			changed := cmd.Flags().Changed
			if changed("email") {
				u.Email = flags.email
			}
			if changed("first-name") {
				u.FirstName = flags.firstName
			}
			if changed("last-name") {
				u.LastName = flags.lastName
			}
			if changed("institution") {
				u.Institution = flags.institution
			}
			if changed("contact") {
				u.ContactNumber = optionalFlag(flags.contact)
			}
			if changed("key") || changed("key-file") {
				key, err := flags.publicKey()
				if err != nil {
					return err
				}
				u.PublicKey = optionalFlag(key)
			}

			if err := app.Users.Update(ctx, u); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated user %s\n", u.Username)
			return nil
		},
	}

	flags.register(cmd)

	return cmd
}

func newUserPasswdCmd(app *App) *cobra.Command {
	var pw passwordFlags

	cmd := &cobra.Command{
		Use:   "passwd USERNAME",
		Short: "Set a user's password",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			plain, err := pw.read(cmd, app)
			if err != nil {
				return err
			}
			if plain == "" {
				return fmt.Errorf("no terminal to prompt on: use --password-stdin")
			}
			if err := app.Users.SetPassword(cmd.Context(), args[0], plain); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Password updated for %s\n", args[0])
			return nil
		},
	}

	pw.register(cmd)

	return cmd
}

func newUserEnableCmd(app *App, enabled bool) *cobra.Command {
	use, short, verb := "disable", "Disable a user account", "Disabled"
	if enabled {
		use, short, verb = "enable", "Enable a user account", "Enabled"
	}
	return &cobra.Command{
		Use:   use + " USERNAME",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.Users.SetEnabled(cmd.Context(), args[0], enabled); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s user %s\n", verb, args[0])
			return nil
		},
	}
}

func newUserRemoveCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:     "remove USERNAME",
		Aliases: []string{"rm"},
		Short:   "Delete a user; project roles they held are cleared",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.Users.Delete(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed user %s\n", args[0])
			return nil
		},
	}
}

func optionalFlag(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
