package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/abelbrown/feedline/internal/events"
)

// debugPanelChrome is the number of terminal lines consumed by DebugPanel's
// border (top + bottom = 2) and vertical padding (top + bottom = 2).
// Must be updated if DebugPanel style changes.
const debugPanelChrome = 4

// DebugPanel frames the debug overlay.
var DebugPanel = lipgloss.NewStyle().
	Border(lipgloss.RoundedBorder()).
	BorderForeground(colorPrimary).
	Padding(1, 2)

// DebugHeader style for section headings in the debug overlay.
var DebugHeader = lipgloss.NewStyle().
	Bold(true).
	Foreground(colorHighlight)

// debugOverlay renders pipeline stats and recent events.
// Pure function with no side effects. Returns empty string if rec is nil.
func debugOverlay(rec *events.Recorder, width, height int, now time.Time) string {
	if rec == nil {
		return ""
	}

	stats := rec.Stats()

	// Keyed lookups, not map iteration, so the layout is stable.
	var lines []string
	lines = append(lines, DebugHeader.Render("Pipeline Stats"))
	lines = append(lines, fmt.Sprintf("  Cycles:   %d complete, %d cancelled",
		stats[events.KindCycleComplete], stats[events.KindCycleCancel]))
	lines = append(lines, fmt.Sprintf("  Fetches:  %d complete, %d errors",
		stats[events.KindFetchComplete], stats[events.KindFetchError]))
	lines = append(lines, fmt.Sprintf("  Cache:    %d writes, %d errors",
		stats[events.KindCacheWrite], stats[events.KindCacheError]))
	lines = append(lines, fmt.Sprintf("  Buffer:   %d / %d events", rec.Len(), rec.Cap()))
	lines = append(lines, "")

	lines = append(lines, DebugHeader.Render("Recent Events"))
	for _, e := range rec.Last(20) {
		line := fmt.Sprintf("  %6s  %-15s", formatElapsed(now.Sub(e.Time)), string(e.Kind))
		if e.Source != "" {
			line += "  " + runewidth.Truncate(e.Source, 32, "…")
		}
		if e.Msg != "" {
			line += "  " + e.Msg
		}
		if e.Count > 0 {
			line += fmt.Sprintf("  n=%d", e.Count)
		}
		if e.Dur > 0 {
			line += "  " + e.Dur.Round(time.Millisecond).String()
		}
		if e.Err != "" {
			line += "  ERR:" + runewidth.Truncate(e.Err, 30, "…")
		}
		lines = append(lines, line)
	}

	// Truncate to fit terminal height
	maxHeight := max(height-debugPanelChrome, 1)
	if len(lines) > maxHeight {
		lines = lines[:maxHeight]
	}

	panelWidth := min(96, width-4)
	if panelWidth < 20 {
		panelWidth = 20
	}

	return DebugPanel.Width(panelWidth).Render(strings.Join(lines, "\n"))
}

// formatElapsed formats a duration as a compact human string.
// Handles negative durations from clock skew by clamping to "0ms".
func formatElapsed(d time.Duration) string {
	if d < 0 {
		return "0ms"
	}
	switch {
	case d < time.Second:
		return fmt.Sprintf("%dms", d.Milliseconds())
	case d < time.Minute:
		return fmt.Sprintf("%.1fs", d.Seconds())
	case d < time.Hour:
		return fmt.Sprintf("%.0fm", d.Minutes())
	default:
		return fmt.Sprintf("%.0fh", d.Hours())
	}
}
