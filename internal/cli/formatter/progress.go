package formatter

import (
	"fmt"
	"strings"
)

const (
	filledBlock = "█"
	emptyBlock  = "░"
)

// RenderShare draws a root-relative share as a bar, e.g. [██░░░░░░] 6.00%.
// The bar is drawn in a single color.
func RenderShare(share float64, width int) string {
	if share < 0 {
		share = 0
	}
	if share > 1 {
		share = 1
	}
	if width < 2 {
		width = 2
	}

	filled := int(share*float64(width) + 0.5)
	if filled == 0 && share > 0 {
		filled = 1
	}
	if filled > width {
		filled = width
	}
	bar := strings.Repeat(filledBlock, filled) + strings.Repeat(emptyBlock, width-filled)
	return fmt.Sprintf("[%s] %s", StyleBlue.Render(bar), FormatPercent(share))
}
