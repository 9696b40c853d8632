package formatter

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/idia-astro/ilifudb/internal/domain"
)

// RenderBox wraps content in a rounded-border box with an optional title.
func RenderBox(title string, content string) string {
	boxStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ColorDim).
		PaddingLeft(2).
		PaddingRight(2).
		PaddingTop(1).
		PaddingBottom(1)

	if title != "" {
		return boxStyle.Render(StyleHeader.Render(strings.ToUpper(title)) + "\n\n" + content)
	}
	return boxStyle.Render(content)
}

// FormatPercent renders a 0..1 share as a percentage with two decimals.
func FormatPercent(share float64) string {
	return fmt.Sprintf("%.2f%%", share*100)
}

// FormatFraction renders a parent fraction without trailing zeros.
func FormatFraction(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// HumanDate returns "Today", "Yesterday" or a short absolute date.
func HumanDate(t time.Time) string {
	return HumanDateFrom(t, time.Now())
}

// HumanDateFrom is HumanDate relative to now.
func HumanDateFrom(t, now time.Time) string {
	y1, m1, d1 := now.Date()
	y2, m2, d2 := t.Date()
	if y1 == y2 && m1 == m2 && d1 == d2 {
		return "Today"
	}
	y3, m3, d3 := now.AddDate(0, 0, -1).Date()
	if y2 == y3 && m2 == m3 && d2 == d3 {
		return "Yesterday"
	}
	return t.Format("Jan 2, 2006")
}

// StatusPill returns a colored project status indicator.
func StatusPill(status domain.ProjectStatus) string {
	switch status {
	case domain.ProjectLive:
		return StatusColor(status).Render("● Live")
	case domain.ProjectPlanning:
		return StatusColor(status).Render("○ Planning")
	case domain.ProjectDisabled:
		return StatusColor(status).Render("✖ Disabled")
	default:
		return StyleDim.Render(string(status))
	}
}

// EnabledPill renders an enabled flag.
func EnabledPill(enabled bool) string {
	if enabled {
		return StyleGreen.Render("yes")
	}
	return StyleRed.Render("no")
}

// OrDash returns s, or a dim dash when s is empty.
func OrDash(s string) string {
	if s == "" {
		return StyleDim.Render("--")
	}
	return s
}

// OptionalString dereferences p for display.
func OptionalString(p *string) string {
	if p == nil {
		return OrDash("")
	}
	return OrDash(*p)
}

// renderFields lays out label/value pairs with aligned labels.
func renderFields(pairs [][2]string) string {
	width := 0
	for _, p := range pairs {
		if len(p[0]) > width {
			width = len(p[0])
		}
	}
	var b strings.Builder
	for _, p := range pairs {
		b.WriteString(StyleDim.Render(fmt.Sprintf("%-*s", width, p[0])))
		b.WriteString("  ")
		b.WriteString(p[1])
		b.WriteString("\n")
	}
	return strings.TrimSuffix(b.String(), "\n")
}
