package formatter

import (
	"fmt"
	"strings"

	"github.com/idia-astro/ilifudb/internal/domain"
	"github.com/idia-astro/ilifudb/internal/service"
)

const shareBarWidth = 20

// FormatProjectList renders projects as a table. effective maps a position
// key to its root-relative share; projects missing from it show a dash.
func FormatProjectList(projects []*domain.Project, effective map[string]float64) string {
	t := &Table{
		Headers:    []string{"POSITION", "NAME", "FRACTION", "EFFECTIVE", "STATUS", "ENABLED"},
		RightAlign: map[int]bool{2: true, 3: true},
	}
	for _, p := range projects {
		share := OrDash("")
		if e, ok := effective[p.Position.Key()]; ok {
			share = FormatPercent(e)
		}
		t.AddRow(
			Dim(p.Position.String()),
			StyleBold.Render(p.Name),
			FormatFraction(p.ParentFraction),
			share,
			StatusPill(p.Status),
			EnabledPill(p.Enabled),
		)
	}
	return t.Render()
}

// ProjectDetail gathers what `project show` prints.
type ProjectDetail struct {
	Project    *domain.Project
	Allocation *domain.Allocation
	Children   []*domain.Project
	PI         string
	CoPI       string
	Admin      string
	Members    []*domain.User
}

// FormatProjectDetail renders one project inside a box.
func FormatProjectDetail(d ProjectDetail) string {
	p := d.Project
	fields := [][2]string{
		{"Position", p.Position.String()},
		{"Status", StatusPill(p.Status)},
		{"Enabled", EnabledPill(p.Enabled)},
		{"Fraction", FormatFraction(p.ParentFraction) + Dim(" of parent")},
	}
	if d.Allocation != nil {
		fields = append(fields, [2]string{"Effective", RenderShare(d.Allocation.Effective, shareBarWidth)})
	}
	fields = append(fields,
		[2]string{"PI", OrDash(d.PI)},
		[2]string{"Co-PI", OrDash(d.CoPI)},
		[2]string{"Admin", OrDash(d.Admin)},
		[2]string{"Allocated", OrDash(p.AllocatedResources)},
		[2]string{"Limits", OrDash(p.ResourceLimits)},
	)
	if !p.CreatedAt.IsZero() {
		fields = append(fields, [2]string{"Created", HumanDate(p.CreatedAt)})
	}

	var b strings.Builder
	b.WriteString(renderFields(fields))

	if len(d.Children) > 0 {
		b.WriteString("\n\n" + Header("Children") + "\n")
		for _, c := range d.Children {
			fmt.Fprintf(&b, "%s %s %s\n", Dim(c.Position.Key()), c.Name, Dim(FormatFraction(c.ParentFraction)))
		}
	}
	if len(d.Members) > 0 {
		b.WriteString("\n" + Header("Members") + "\n")
		for _, u := range d.Members {
			fmt.Fprintf(&b, "%s %s\n", u.Username, Dim(u.FullName()))
		}
	}
	return RenderBox(p.Name, strings.TrimSuffix(b.String(), "\n"))
}

// FormatAllocation shows how a project's share is built up from the root.
func FormatAllocation(a *domain.Allocation) string {
	t := &Table{
		Headers:    []string{"POSITION", "NAME", "FRACTION", "CUMULATIVE"},
		RightAlign: map[int]bool{2: true, 3: true},
	}
	t.AddRow(Dim(domain.RootPosition.String()), domain.RootProjectName, "1", FormatPercent(1))
	share := 1.0
	for _, p := range a.Chain {
		share *= p.ParentFraction
		t.AddRow(Dim(p.Position.String()), p.Name, FormatFraction(p.ParentFraction), FormatPercent(share))
	}

	var b strings.Builder
	b.WriteString(t.Render())
	b.WriteString("\n")
	fmt.Fprintf(&b, "%s %s\n", Bold(a.Project.Name), RenderShare(a.Effective, shareBarWidth))
	return b.String()
}

// FormatTree renders a subtree with each node's root-relative share.
func FormatTree(entries []service.TreeEntry) string {
	items := make([]TreeItem, len(entries))
	for i, e := range entries {
		badge := FormatPercent(e.Effective)
		if e.Orphan {
			badge = "no parent"
		}
		position := ""
		if !e.Project.Position.IsRoot() {
			position = e.Project.Position.Key()
		}
		items[i] = TreeItem{
			Title:    e.Project.Name,
			Position: position,
			Level:    e.Level,
			IsLast:   isLastSibling(entries, i),
			Disabled: !e.Project.Enabled,
			Orphan:   e.Orphan,
			Badge:    badge,
		}
	}
	return RenderTree(items)
}

// isLastSibling reports whether no later entry shares entries[i]'s level
// before the walk climbs above it.
func isLastSibling(entries []service.TreeEntry, i int) bool {
	level := entries[i].Level
	for _, e := range entries[i+1:] {
		if e.Level < level {
			return true
		}
		if e.Level == level {
			return false
		}
	}
	return true
}

// FormatSiblings lists the fractions handed out below one parent.
func FormatSiblings(s *service.SiblingSummary) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s\n\n", Bold(s.Parent.Name), Dim(s.Parent.Position.String()))
	if len(s.Children) == 0 {
		b.WriteString(Dim("No child projects.") + "\n")
		return b.String()
	}

	t := &Table{
		Headers:    []string{"POSITION", "NAME", "FRACTION"},
		RightAlign: map[int]bool{2: true},
	}
	for _, c := range s.Children {
		t.AddRow(Dim(c.Position.Key()), c.Name, FormatFraction(c.ParentFraction))
	}
	b.WriteString(t.Render())

	sum := fmt.Sprintf("sum %s", FormatFraction(roundFraction(s.Sum)))
	switch {
	case s.Balanced:
		b.WriteString(StyleGreen.Render(sum+" (balanced)") + "\n")
	case s.Sum > 1:
		b.WriteString(StyleRed.Render(sum+" (over-allocated)") + "\n")
	default:
		b.WriteString(StyleYellow.Render(sum+" (under-allocated)") + "\n")
	}
	return b.String()
}

// roundFraction trims float noise such as 0.30000000000000004.
func roundFraction(f float64) float64 {
	const scale = 1e9
	return float64(int64(f*scale+0.5)) / scale
}
