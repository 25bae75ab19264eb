package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/mattn/go-runewidth"

	"github.com/abelbrown/feedline/internal/article"
)

// ageWidth is the fixed width of the age column.
const ageWidth = 14

// RenderList renders the visible window of items, one row per article,
// scrolled so the cursor stays on screen.
func RenderList(items []article.Article, cursor, width, height int, now time.Time) string {
	if len(items) == 0 {
		return HelpStyle.Render("No articles yet. Add sources to the config file, or press 'r' to reload.")
	}
	if height < 1 {
		height = 1
	}

	offset := scrollOffset(cursor, len(items), height)
	end := min(offset+height, len(items))

	var b strings.Builder
	for i := offset; i < end; i++ {
		b.WriteString(renderRow(items[i], i == cursor, width, now))
		b.WriteString("\n")
	}
	return b.String()
}

// scrollOffset returns the first visible index keeping cursor in view.
func scrollOffset(cursor, total, height int) int {
	if cursor < 0 || total == 0 {
		return 0
	}
	if cursor >= height {
		return cursor - height + 1
	}
	return 0
}

// renderRow renders a single article row: age column, then title.
func renderRow(a article.Article, selected bool, width int, now time.Time) string {
	age := runewidth.FillRight(formatAge(a.Date, now), ageWidth)

	titleWidth := width - ageWidth - 2
	if titleWidth < 10 {
		titleWidth = 10
	}
	title := a.Title
	if title == "" {
		title = "(untitled)"
	}
	title = runewidth.Truncate(singleLine(title), titleWidth, "…")

	if selected {
		line := runewidth.FillRight(age+" "+title, max(width-1, 0))
		return SelectedItem.Render(line)
	}
	return AgeStyle.Render(age) + " " + NormalItem.Render(title)
}

// formatAge renders a date relative to now ("3 hours ago").
func formatAge(date time.Time, now time.Time) string {
	if date.IsZero() {
		return "undated"
	}
	if now.Sub(date) < time.Minute && now.Sub(date) > -time.Minute {
		return "just now"
	}
	return humanize.RelTime(date, now, "ago", "from now")
}

// singleLine collapses line breaks so a row never wraps.
func singleLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// RenderStatusBar renders the bottom status bar: left text and key hints.
func RenderStatusBar(left string, hints []string, width int) string {
	keyHints := strings.Join(hints, " ")

	// Calculate padding to fill width
	leftWidth := lipgloss.Width(left)
	rightWidth := lipgloss.Width(keyHints)
	padding := width - leftWidth - rightWidth - 2
	if padding < 1 {
		padding = 1
	}

	bar := left + strings.Repeat(" ", padding) + keyHints
	return StatusBar.Width(width).MaxHeight(1).Render(bar)
}

func hint(key, desc string) string {
	return StatusBarKey.Render(key) + StatusBarText.Render(":"+desc)
}

var (
	listHints = []string{
		hint("j/k", "nav"),
		hint("Enter", "read"),
		hint("r", "reload"),
		hint("D", "debug"),
		hint("q", "quit"),
	}
	articleHints = []string{
		hint("j/k", "scroll"),
		hint("Esc", "back"),
		hint("q", "quit"),
	}
	debugHints = []string{
		hint("D", "close"),
		hint("q", "quit"),
	}
)

// renderArticle renders the full article for the viewport.
func renderArticle(a article.Article, width int) string {
	wrap := lipgloss.NewStyle().Width(max(width, 20))

	var b strings.Builder
	title := a.Title
	if title == "" {
		title = "(untitled)"
	}
	b.WriteString(ArticleTitle.Inherit(wrap).Render(title))
	b.WriteString("\n")
	if a.SubTitle != "" {
		b.WriteString(ArticleSubTitle.Inherit(wrap).Render(a.SubTitle))
		b.WriteString("\n")
	}

	meta := a.Source
	if a.HasDate() {
		meta = fmt.Sprintf("%s  %s", a.Date.Format("Mon, 02 Jan 2006 15:04 -0700"), a.Source)
	}
	b.WriteString(ArticleMeta.Inherit(wrap).Render(meta))
	b.WriteString("\n\n")

	if a.Content != "" {
		b.WriteString(wrap.Render(a.Content))
	} else {
		b.WriteString(ArticleMeta.Render("(no content)"))
	}
	b.WriteString("\n")
	return b.String()
}
