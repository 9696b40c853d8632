package formatter

import (
	"fmt"
	"strings"

	"github.com/idia-astro/ilifudb/internal/domain"
	"github.com/idia-astro/ilifudb/internal/password"
)

// FormatUserList renders users as a table.
func FormatUserList(users []*domain.User) string {
	t := &Table{Headers: []string{"USERNAME", "NAME", "EMAIL", "INSTITUTION", "ENABLED", "PASSWORD", "KEY"}}
	for _, u := range users {
		t.AddRow(
			StyleBold.Render(u.Username),
			u.FullName(),
			u.Email,
			u.Institution,
			EnabledPill(u.Enabled),
			yesNo(u.HasPassword()),
			yesNo(u.PublicKey != nil && *u.PublicKey != ""),
		)
	}
	return t.Render()
}

// UserDetail gathers what `user show` prints.
type UserDetail struct {
	User     *domain.User
	Roles    []*domain.Project
	Projects []*domain.Project
}

// FormatUserDetail renders one user inside a box.
func FormatUserDetail(d UserDetail) string {
	u := d.User
	fields := [][2]string{
		{"Name", u.FullName()},
		{"Email", u.Email},
		{"Institution", u.Institution},
		{"Contact", OptionalString(u.ContactNumber)},
		{"Enabled", EnabledPill(u.Enabled)},
		{"Password", passwordSummary(u)},
		{"Public key", keySummary(u.PublicKey)},
	}
	if !u.CreatedAt.IsZero() {
		fields = append(fields, [2]string{"Created", HumanDate(u.CreatedAt)})
	}

	var b strings.Builder
	b.WriteString(renderFields(fields))
	if len(d.Roles) > 0 {
		b.WriteString("\n\n" + Header("Roles") + "\n")
		for _, p := range d.Roles {
			fmt.Fprintf(&b, "%s %s %s\n", p.Name, Dim(p.Position.Key()), StylePurple.Render(strings.Join(rolesOf(u.ID, p), ", ")))
		}
	}
	if len(d.Projects) > 0 {
		b.WriteString("\n" + Header("Member of") + "\n")
		for _, p := range d.Projects {
			fmt.Fprintf(&b, "%s %s\n", p.Name, Dim(p.Position.Key()))
		}
	}
	return RenderBox(u.Username, strings.TrimSuffix(b.String(), "\n"))
}

// rolesOf names the roles userID holds on p.
func rolesOf(userID int64, p *domain.Project) []string {
	var roles []string
	is := func(id *int64) bool { return id != nil && *id == userID }
	if is(p.PIUserID) {
		roles = append(roles, "pi")
	}
	if is(p.CoPIUserID) {
		roles = append(roles, "co-pi")
	}
	if is(p.AdminUserID) {
		roles = append(roles, "admin")
	}
	return roles
}

func passwordSummary(u *domain.User) string {
	if !u.HasPassword() {
		return OrDash("")
	}
	if password.NeedsRehash(*u.PasswordHash) {
		return StyleYellow.Render("set (weak hash)")
	}
	return StyleGreen.Render("set")
}

func keySummary(key *string) string {
	if key == nil || *key == "" {
		return OrDash("")
	}
	fp, err := password.Fingerprint(*key)
	if err != nil {
		return StyleRed.Render("unparseable")
	}
	return fp
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return Dim("no")
}
