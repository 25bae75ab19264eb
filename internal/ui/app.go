package ui

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/abelbrown/feedline/internal/article"
	"github.com/abelbrown/feedline/internal/collection"
	"github.com/abelbrown/feedline/internal/events"
)

type mode int

const (
	modeList mode = iota
	modeArticle
)

// App is the root Bubble Tea model.
// IMPORTANT: App only holds a read-only collection.Reader. Fetching and
// persistence happen elsewhere and reach the UI as messages.
type App struct {
	reader collection.Reader
	events *events.Recorder // optional: nil hides the debug overlay
	now    func() time.Time

	items  []article.Article
	cursor int
	mode   mode
	debug  bool

	viewport viewport.Model
	spinner  spinner.Model
	fetching bool

	failed   int   // sources that failed in the last cycle
	cacheErr error // last cache write error, cleared on success

	width  int
	height int
	ready  bool
}

// New creates an App reading from reader and loads its first snapshot.
// rec feeds the debug overlay and may be nil.
func New(reader collection.Reader, rec *events.Recorder) App {
	a := App{
		reader:   reader,
		events:   rec,
		now:      time.Now,
		viewport: viewport.New(0, 0),
		spinner:  spinner.New(spinner.WithSpinner(spinner.Dot)),
	}
	a.reload()
	return a
}

// Init implements tea.Model.
func (a App) Init() tea.Cmd {
	return nil
}

// Update handles messages and returns the updated model and any commands.
func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return a.handleKeyMsg(msg)

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.ready = true
		a.viewport.Width = msg.Width
		a.viewport.Height = max(msg.Height-1, 1)
		if a.mode == modeArticle {
			a.openSelected()
		}
		return a, nil

	case CycleStarted:
		a.fetching = true
		return a, a.spinner.Tick

	case CycleComplete:
		a.fetching = false
		a.failed = len(msg.Failed)
		a.reload()
		return a, nil

	case CacheSynced:
		a.cacheErr = msg.Err
		return a, nil

	case Refresh:
		a.reload()
		return a, nil

	case spinner.TickMsg:
		if !a.fetching {
			return a, nil
		}
		var cmd tea.Cmd
		a.spinner, cmd = a.spinner.Update(msg)
		return a, cmd
	}

	return a, nil
}

// handleKeyMsg processes keyboard input.
func (a App) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return a, tea.Quit
	case "D":
		if a.events != nil {
			a.debug = !a.debug
		}
		return a, nil
	}

	if a.debug {
		if msg.String() == "esc" {
			a.debug = false
		}
		return a, nil
	}

	if a.mode == modeArticle {
		switch msg.String() {
		case "esc", "h", "backspace":
			a.mode = modeList
			return a, nil
		}
		var cmd tea.Cmd
		a.viewport, cmd = a.viewport.Update(msg)
		return a, cmd
	}

	n := len(a.items)
	switch msg.String() {
	case "j", "down":
		if n > 0 {
			a.cursor = (a.cursor + 1) % n
		}

	case "k", "up":
		if n > 0 {
			a.cursor = (a.cursor - 1 + n) % n
		}

	case "g", "home":
		a.cursor = 0

	case "G", "end":
		if n > 0 {
			a.cursor = n - 1
		}

	case "enter", "l":
		if n > 0 {
			a.mode = modeArticle
			a.openSelected()
		}

	case "r":
		a.reload()
	}
	return a, nil
}

// reload replaces items with a fresh snapshot, keeping the cursor on the
// same article when it is still present.
func (a *App) reload() {
	selected, hadSelection := a.Selected()
	a.items = a.reader.Snapshot()

	if hadSelection {
		for i, it := range a.items {
			if it.Key() == selected {
				a.cursor = i
				return
			}
		}
	}
	// Reset cursor if it's out of bounds
	if a.cursor >= len(a.items) {
		a.cursor = max(len(a.items)-1, 0)
	}
	if len(a.items) == 0 && a.mode == modeArticle {
		a.mode = modeList
	}
}

func (a *App) openSelected() {
	if a.cursor >= len(a.items) {
		return
	}
	a.viewport.SetContent(renderArticle(a.items[a.cursor], a.width))
	a.viewport.GotoTop()
}

// View renders the UI.
func (a App) View() string {
	if !a.ready {
		return "Loading..."
	}

	if a.debug {
		overlay := debugOverlay(a.events, a.width, a.height-1, a.now())
		return overlay + "\n" + RenderStatusBar(" [DEBUG] ", debugHints, a.width)
	}

	if a.mode == modeArticle {
		return a.viewport.View() + "\n" + RenderStatusBar(a.statusText(), articleHints, a.width)
	}

	// Content height: subtract status bar and error bar if present
	contentHeight := a.height - 1
	errorBar := ""
	if a.cacheErr != nil {
		contentHeight--
		errorBar = ErrorStyle.Width(a.width).Render("Cache error: "+a.cacheErr.Error()) + "\n"
	}

	list := RenderList(a.items, a.cursor, a.width, contentHeight, a.now())
	return list + errorBar + RenderStatusBar(a.statusText(), listHints, a.width)
}

func (a App) statusText() string {
	var s string
	if len(a.items) == 0 {
		s = "0 articles"
	} else {
		s = fmt.Sprintf("%d/%d", a.cursor+1, len(a.items))
	}
	if a.fetching {
		s += " " + a.spinner.View() + " fetching"
	}
	if a.failed > 0 {
		s += fmt.Sprintf("  %d failed", a.failed)
	}
	return s
}

// Cursor returns the current cursor position (for testing).
func (a App) Cursor() int {
	return a.cursor
}

// Items returns the current items (for testing).
func (a App) Items() []article.Article {
	return a.items
}

// Selected returns the key of the article under the cursor.
func (a App) Selected() (article.Key, bool) {
	if a.cursor < 0 || a.cursor >= len(a.items) {
		return article.Key{}, false
	}
	return a.items[a.cursor].Key(), true
}

// Debugging reports whether the debug overlay is shown.
func (a App) Debugging() bool {
	return a.debug
}

// Reading reports whether the article view is open.
func (a App) Reading() bool {
	return a.mode == modeArticle
}
