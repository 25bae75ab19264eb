package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/abelbrown/feedline/internal/collection"
	"github.com/abelbrown/feedline/internal/config"
	"github.com/abelbrown/feedline/internal/coord"
	"github.com/abelbrown/feedline/internal/events"
	"github.com/abelbrown/feedline/internal/fetch"
	"github.com/abelbrown/feedline/internal/logging"
	"github.com/abelbrown/feedline/internal/store"
	"github.com/abelbrown/feedline/internal/ui"
)

var (
	version = "dev"
	commit  = "none"
)

var flagConfig string

var rootCmd = &cobra.Command{
	Use:           "feedline",
	Short:         "Terminal feed reader",
	Long:          "feedline periodically fetches RSS, Atom and JSON feeds, keeps a local cache and shows the articles newest first.",
	RunE:          runTUI,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&flagConfig, "config", "c", "", "path to config file (default $XDG_CONFIG_HOME/feedline/feedline.toml)")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(fetchCmd)
	rootCmd.AddCommand(listCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "feedline %s (commit: %s)\n", version, commit)
	},
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "feedline:", err)
		os.Exit(1)
	}
}

// runTUI is the default command: seed the collection from the cache, start
// the coordinator and run the UI until the user quits.
func runTUI(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return err
	}

	logPath, err := logging.Init(config.LogDir(), cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logging.Close()
	logging.Info("feedline starting", "version", version, "sources", len(cfg.Sources), "log", logPath)

	st, coll, err := openCache(cfg.CachePath)
	if err != nil {
		return err
	}
	defer st.Close()

	rec := events.NewRecorder(events.DefaultSize)
	coordinator := newCoordinator(cfg, coll, st, rec)

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	program := tea.NewProgram(ui.New(coll, rec), tea.WithAltScreen(), tea.WithContext(ctx))
	coordinator.Start(ctx, program)

	// Run UI (blocks until quit)
	_, runErr := program.Run()
	err = programError(ctx, runErr)

	// Graceful shutdown
	cancel()
	coordinator.Wait()

	return err
}

// programError reports a UI run failure unless the program stopped because
// ctx was cancelled. It must be called before the caller cancels ctx itself.
func programError(ctx context.Context, err error) error {
	if err == nil || ctx.Err() != nil {
		return nil
	}
	return fmt.Errorf("run ui: %w", err)
}

// setupCLILogging sends log output to stderr for the non-interactive commands.
func setupCLILogging(cfg *config.Config) {
	level, err := log.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = log.WarnLevel
	}
	// Info-level cycle summaries are printed by the commands themselves.
	logging.SetOutput(os.Stderr, max(level, log.WarnLevel))
}

// openCache opens the article cache and loads it into a new collection.
// Any failure here is fatal: running on an unreadable cache would mirror
// an empty collection back over it.
func openCache(path string) (*store.Store, *collection.Collection, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, nil, fmt.Errorf("create cache directory: %w", err)
		}
	}

	st, err := store.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open cache %s: %w", path, err)
	}

	cached, err := st.LoadAll()
	if err != nil {
		st.Close()
		return nil, nil, fmt.Errorf("load cache: %w", err)
	}

	coll := collection.New()
	coll.Load(cached)
	logging.Info("cache loaded", "articles", coll.Len(), "path", path)
	return st, coll, nil
}

func newCoordinator(cfg *config.Config, coll *collection.Collection, st *store.Store, rec *events.Recorder) *coord.Coordinator {
	return coord.New(coll, st, fetch.NewFetcher(cfg.Timeout()), coord.Options{
		Sources:           cfg.Sources,
		Interval:          cfg.Interval(),
		Concurrency:       cfg.MaxConcurrentFetches,
		KeepFailedSources: cfg.KeepFailedSources,
		Events:            rec,
	})
}
