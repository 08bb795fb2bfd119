package histogram

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	keyStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#7dcfff"))

	barStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#7aa2f7"))

	countStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#565f89"))
)

// Terminal renders one row per outcome:
//
//	00 ███████████               512  50.0%
//
// The longest bar is width cells wide.
func Terminal(counts map[string]int, width int) string {
	if len(counts) == 0 {
		return countStyle.Render("(no counts)")
	}
	width = max(width, 1)

	keys := sortedKeys(counts)
	peak := 0
	keyW := 0
	for _, k := range keys {
		peak = max(peak, counts[k])
		keyW = max(keyW, len(k))
	}
	sum := total(counts)

	var sb strings.Builder
	for i, k := range keys {
		v := counts[k]
		n := 0
		if peak > 0 {
			n = v * width / peak
		}
		if v > 0 && n == 0 {
			n = 1
		}
		bar := strings.Repeat("█", n) + strings.Repeat(" ", width-n)
		pct := 0.0
		if sum > 0 {
			pct = 100 * float64(v) / float64(sum)
		}
		fmt.Fprintf(&sb, "%s %s %s",
			keyStyle.Render(fmt.Sprintf("%-*s", keyW, k)),
			barStyle.Render(bar),
			countStyle.Render(fmt.Sprintf("%6d %5.1f%%", v, pct)))
		if i < len(keys)-1 {
			sb.WriteByte('\n')
		}
	}
	return sb.String()
}
