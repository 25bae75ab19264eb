package ui

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/abelbrown/feedline/internal/article"
)

func TestFormatAge(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		date time.Time
		want string
	}{
		{time.Time{}, "undated"},
		{now.Add(-20 * time.Second), "just now"},
		{now.Add(-3 * time.Hour), "3 hours ago"},
		{now.Add(-48 * time.Hour), "2 days ago"},
		{now.Add(2 * time.Hour), "2 hours from now"},
	}
	for _, tt := range tests {
		if got := formatAge(tt.date, now); got != tt.want {
			t.Errorf("formatAge(%v) = %q, want %q", tt.date, got, tt.want)
		}
	}
}

func TestRenderRowTruncates(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	a := article.Article{
		ID:    "1",
		Title: strings.Repeat("很长的标题 ", 30),
		Date:  now.Add(-time.Hour),
	}

	for _, selected := range []bool{false, true} {
		row := renderRow(a, selected, 60, now)
		if w := lipgloss.Width(row); w > 60 {
			t.Errorf("selected=%v: row width %d exceeds 60", selected, w)
		}
		if !strings.Contains(row, "…") {
			t.Errorf("selected=%v: expected ellipsis in %q", selected, row)
		}
	}
}

func TestRenderRowSingleLine(t *testing.T) {
	a := article.Article{Title: "line one\nline two"}
	row := renderRow(a, false, 80, time.Now())
	if strings.Contains(row, "\n") {
		t.Errorf("row should not contain line breaks: %q", row)
	}
	if !strings.Contains(row, "undated") {
		t.Errorf("expected undated marker: %q", row)
	}
}

func TestRenderListScrollsToCursor(t *testing.T) {
	var items []article.Article
	for i := 0; i < 50; i++ {
		items = append(items, article.Article{ID: fmt.Sprint(i), Title: fmt.Sprintf("Title %02d", i)})
	}

	out := RenderList(items, 40, 80, 10, time.Now())
	lines := strings.Split(strings.TrimSuffix(out, "\n"), "\n")
	if len(lines) != 10 {
		t.Fatalf("expected 10 rows, got %d", len(lines))
	}
	if !strings.Contains(lines[9], "Title 40") {
		t.Errorf("cursor row should be last visible, got %q", lines[9])
	}
	if strings.Contains(out, "Title 30") {
		t.Error("rows above the window should not render")
	}
}

func TestScrollOffset(t *testing.T) {
	tests := []struct {
		cursor, total, height, want int
	}{
		{0, 0, 10, 0},
		{5, 50, 10, 0},
		{9, 50, 10, 0},
		{10, 50, 10, 1},
		{49, 50, 10, 40},
	}
	for _, tt := range tests {
		if got := scrollOffset(tt.cursor, tt.total, tt.height); got != tt.want {
			t.Errorf("scrollOffset(%d, %d, %d) = %d, want %d", tt.cursor, tt.total, tt.height, got, tt.want)
		}
	}
}

func TestRenderArticleUntitled(t *testing.T) {
	out := renderArticle(article.Article{Source: "https://example.com"}, 60)
	if !strings.Contains(out, "(untitled)") || !strings.Contains(out, "(no content)") {
		t.Errorf("expected placeholders, got:\n%s", out)
	}
}
