package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
)

func TestInitWritesToDatedFile(t *testing.T) {
	dir := t.TempDir()
	path, err := Init(dir, "debug")
	if err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	defer Close()

	if filepath.Dir(path) != dir || !strings.HasPrefix(filepath.Base(path), "feedline-") {
		t.Errorf("unexpected log path %q", path)
	}

	Debug("cycle complete", "added", 3)
	Close()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if !strings.Contains(string(data), "cycle complete") || !strings.Contains(string(data), "added=3") {
		t.Errorf("log file missing entry:\n%s", data)
	}
}

func TestInitRejectsBadLevel(t *testing.T) {
	if _, err := Init(t.TempDir(), "chatty"); err == nil {
		t.Error("expected error for unknown level")
	}
}

func TestSetOutputRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf, log.WarnLevel)
	defer SetOutput(os.Stderr, log.WarnLevel)

	Info("hidden")
	Warn("shown", "source", "https://example.com")
	WithPrefix("fetch").Error("prefixed")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Error("info message should be filtered at warn level")
	}
	if !strings.Contains(out, "shown") || !strings.Contains(out, "fetch") {
		t.Errorf("unexpected output:\n%s", out)
	}
}
