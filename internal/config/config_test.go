package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestParseDefaults(t *testing.T) {
	cfg, err := Parse(nil)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if len(cfg.Sources) != 0 {
		t.Errorf("expected no sources, got %v", cfg.Sources)
	}
	if cfg.Interval() != 5*time.Minute {
		t.Errorf("expected 5m interval, got %v", cfg.Interval())
	}
	if cfg.Timeout() != 30*time.Second {
		t.Errorf("expected 30s timeout, got %v", cfg.Timeout())
	}
	if cfg.MaxConcurrentFetches != 8 {
		t.Errorf("expected 8 concurrent fetches, got %d", cfg.MaxConcurrentFetches)
	}
	if cfg.KeepFailedSources {
		t.Error("keep_failed_sources should default to false")
	}
	if !strings.HasSuffix(cfg.CachePath, filepath.Join("feedline", "cache.db")) {
		t.Errorf("unexpected cache path %q", cfg.CachePath)
	}
}

func TestParseValues(t *testing.T) {
	data := []byte(`
sources = ["https://example.com/feed.xml", "  http://other.org/rss  ", ""]
update_interval = 60
cache_path = "/tmp/feedline.db"
fetch_timeout = 5
max_concurrent_fetches = 0
keep_failed_sources = true
log_level = "debug"
`)
	cfg, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	want := []string{"https://example.com/feed.xml", "http://other.org/rss"}
	if len(cfg.Sources) != len(want) {
		t.Fatalf("expected %v, got %v", want, cfg.Sources)
	}
	for i := range want {
		if cfg.Sources[i] != want[i] {
			t.Errorf("source %d: expected %q, got %q", i, want[i], cfg.Sources[i])
		}
	}
	if cfg.Interval() != time.Minute || cfg.Timeout() != 5*time.Second {
		t.Errorf("unexpected durations %v %v", cfg.Interval(), cfg.Timeout())
	}
	if cfg.CachePath != "/tmp/feedline.db" || cfg.MaxConcurrentFetches != 0 || !cfg.KeepFailedSources || cfg.LogLevel != "debug" {
		t.Errorf("unexpected config %+v", cfg)
	}
}

func TestParseRejects(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"unknown key", `colour = "blue"`},
		{"relative source", `sources = ["example.com/feed"]`},
		{"non-http source", `sources = ["ftp://example.com/feed"]`},
		{"zero interval", `update_interval = 0`},
		{"negative interval", `update_interval = -5`},
		{"negative concurrency", `max_concurrent_fetches = -1`},
		{"bad log level", `log_level = "loud"`},
		{"wrong type", `sources = "https://example.com"`},
		{"syntax", `sources = [`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Parse([]byte(tt.data)); err == nil {
				t.Errorf("expected error for %q", tt.data)
			}
		})
	}
}

func TestLoadExplicitMissing(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestLoadExplicit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "feedline.toml")
	if err := os.WriteFile(path, []byte(`sources = ["https://example.com/a.xml"]`), 0644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(cfg.Sources) != 1 {
		t.Errorf("expected 1 source, got %v", cfg.Sources)
	}
}

func TestLoadErrorNamesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "feedline.toml")
	if err := os.WriteFile(path, []byte(`bogus = 1`), 0644); err != nil {
		t.Fatal(err)
	}
	_, err := Load(path)
	if err == nil || !strings.Contains(err.Error(), path) {
		t.Errorf("expected error naming %s, got %v", path, err)
	}
}

func TestCreateDefaultFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "feedline.toml")
	if err := create(path); err != nil {
		t.Fatalf("create failed: %v", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("config not created: %v", err)
	}
	if info.Size() != 0 {
		t.Errorf("expected empty file, got %d bytes", info.Size())
	}

	// Existing files are left alone.
	if err := os.WriteFile(path, []byte(`update_interval = 10`), 0644); err != nil {
		t.Fatal(err)
	}
	if err := create(path); err != nil {
		t.Fatalf("create on existing file failed: %v", err)
	}
	data, _ := os.ReadFile(path)
	if string(data) != `update_interval = 10` {
		t.Errorf("existing config overwritten: %q", data)
	}
}
