package formatter

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// TreeItem is one line of a rendered resource tree.
type TreeItem struct {
	Title    string
	Position string
	Level    int
	IsLast   bool
	Disabled bool
	// Orphan marks a node whose parent has no stored record.
	Orphan bool
	Badge  string
}

const (
	treeBranch = "├─ "
	treeCorner = "└─ "
	treePipe   = "│  "
	treeBlank  = "   "
)

// RenderTree draws items, given in depth-first order, with box-drawing
// connectors. Badges are right-aligned in a single column.
func RenderTree(items []TreeItem) string {
	if len(items) == 0 {
		return ""
	}

	// closed[l] records whether the most recent node at level l was the
	// last of its siblings, so deeper lines know whether to draw a pipe.
	var closed []bool
	contents := make([]string, len(items))
	width := 0

	for idx, item := range items {
		var prefix strings.Builder
		if item.Level > 0 {
			for l := 1; l < item.Level; l++ {
				if l < len(closed) && closed[l] {
					prefix.WriteString(treeBlank)
				} else {
					prefix.WriteString(treePipe)
				}
			}
			if item.IsLast {
				prefix.WriteString(treeCorner)
			} else {
				prefix.WriteString(treeBranch)
			}
		}
		for len(closed) <= item.Level {
			closed = append(closed, false)
		}
		closed[item.Level] = item.IsLast

		title := StyleBold.Render(item.Title)
		switch {
		case item.Orphan:
			title = StyleRed.Render("? " + item.Title)
		case item.Disabled:
			title = Dim(item.Title + " (disabled)")
		}
		line := prefix.String() + title
		if item.Position != "" {
			line += " " + Dim(item.Position)
		}
		contents[idx] = line
		if w := lipgloss.Width(line); w > width {
			width = w
		}
	}

	var b strings.Builder
	for idx, item := range items {
		line := contents[idx]
		if item.Badge == "" {
			b.WriteString(line + "\n")
			continue
		}
		pad := width - lipgloss.Width(line)
		if pad < 0 {
			pad = 0
		}
		b.WriteString(line + strings.Repeat(" ", pad) + "  " + StyleBlue.Render("[ "+item.Badge+" ]") + "\n")
	}
	return b.String()
}
