package formatter

import (
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/idia-astro/ilifudb/internal/domain"
	"github.com/stretchr/testify/assert"
)

// ansiPattern matches ANSI escape sequences.
var ansiPattern = regexp.MustCompile(`\x1b\[[0-9;]*[a-zA-Z]`)

func stripANSI(s string) string {
	return ansiPattern.ReplaceAllString(s, "")
}

func TestFormatPercent(t *testing.T) {
	assert.Equal(t, "6.00%", FormatPercent(0.06))
	assert.Equal(t, "15.00%", FormatPercent(0.15))
	assert.Equal(t, "100.00%", FormatPercent(1))
}

func TestFormatFraction(t *testing.T) {
	assert.Equal(t, "0.3", FormatFraction(0.3))
	assert.Equal(t, "1", FormatFraction(1))
	assert.Equal(t, "0.125", FormatFraction(0.125))
}

func TestHumanDateFrom(t *testing.T) {
	now := time.Date(2026, 2, 7, 12, 0, 0, 0, time.UTC)

	assert.Equal(t, "Today", HumanDateFrom(now.Add(-time.Hour), now))
	assert.Equal(t, "Yesterday", HumanDateFrom(now.AddDate(0, 0, -1), now))
	assert.Equal(t, "Sep 30, 2022", HumanDateFrom(time.Date(2022, 9, 30, 0, 0, 0, 0, time.UTC), now))
}

func TestStatusPill(t *testing.T) {
	assert.Contains(t, stripANSI(StatusPill(domain.ProjectLive)), "Live")
	assert.Contains(t, stripANSI(StatusPill(domain.ProjectPlanning)), "Planning")
	assert.Contains(t, stripANSI(StatusPill(domain.ProjectDisabled)), "Disabled")
	assert.Equal(t, "odd", stripANSI(StatusPill("odd")))
}

func TestRenderShare(t *testing.T) {
	out := stripANSI(RenderShare(0.5, 10))
	assert.Equal(t, "[█████░░░░░] 50.00%", out)

	// A tiny but non-zero share still shows one block.
	out = stripANSI(RenderShare(0.001, 10))
	assert.True(t, strings.HasPrefix(out, "[█░"), out)

	out = stripANSI(RenderShare(2, 4))
	assert.Equal(t, "[████] 100.00%", out)
}

func TestTable_RightAlign(t *testing.T) {
	tbl := &Table{Headers: []string{"NAME", "FRACTION"}, RightAlign: map[int]bool{1: true}}
	tbl.AddRow("IDIA", "0.3")
	tbl.AddRow("MHONGOOSE", "0.5")

	lines := strings.Split(strings.TrimSuffix(stripANSI(tbl.Render()), "\n"), "\n")
	assert.Len(t, lines, 4)
	assert.Equal(t, "NAME       FRACTION", lines[0])
	assert.Equal(t, "IDIA            0.3", lines[2])
	assert.Equal(t, "MHONGOOSE       0.5", lines[3])
}

func TestRenderTable_Empty(t *testing.T) {
	assert.Equal(t, "", RenderTable(nil, nil))
}
