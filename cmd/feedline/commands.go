package main

import (
	"fmt"
	"io"
	"net/url"
	"slices"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/mattn/go-runewidth"
	"github.com/spf13/cobra"

	"github.com/abelbrown/feedline/internal/article"
	"github.com/abelbrown/feedline/internal/config"
	"github.com/abelbrown/feedline/internal/coord"
)

var flagLimit int

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Fetch every source once and update the cache",
	Args:  cobra.NoArgs,
	RunE:  runFetch,
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "Print cached articles, newest first",
	Args:  cobra.NoArgs,
	RunE:  runList,
}

func init() {
	listCmd.Flags().IntVarP(&flagLimit, "limit", "n", 50, "maximum number of articles to print (0 = all)")
}

func runFetch(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return err
	}
	setupCLILogging(cfg)

	if len(cfg.Sources) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "no sources configured")
		return nil
	}

	st, coll, err := openCache(cfg.CachePath)
	if err != nil {
		return err
	}
	defer st.Close()

	report, err := newCoordinator(cfg, coll, st, nil).RunOnce(cmd.Context())
	if err != nil {
		return fmt.Errorf("fetch: %w", err)
	}
	printReport(cmd.OutOrStdout(), len(cfg.Sources), report)
	return nil
}

// printReport writes a one-line cycle summary followed by each failure.
func printReport(w io.Writer, sources int, r coord.CycleReport) {
	fmt.Fprintf(w, "%d sources, %d failed: %d added, %d changed, %d removed, %d total (%s)\n",
		sources, len(r.Failed), r.Added, r.Changed, r.Removed, r.Total, r.Duration.Round(time.Millisecond))

	failed := make([]string, 0, len(r.Failed))
	for src := range r.Failed {
		failed = append(failed, src)
	}
	slices.Sort(failed)
	for _, src := range failed {
		fmt.Fprintf(w, "  %s: %v\n", src, r.Failed[src])
	}
}

func runList(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return err
	}
	setupCLILogging(cfg)

	st, coll, err := openCache(cfg.CachePath)
	if err != nil {
		return err
	}
	defer st.Close()

	return printList(cmd.OutOrStdout(), coll.Snapshot(), flagLimit)
}

// printList writes one aligned row per article: date, source host, title.
func printList(w io.Writer, articles []article.Article, limit int) error {
	if limit > 0 && len(articles) > limit {
		articles = articles[:limit]
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, a := range articles {
		date := "undated"
		if a.HasDate() {
			date = a.Date.Format("2006-01-02 15:04")
		}
		title := strings.Join(strings.Fields(a.Title), " ")
		fmt.Fprintf(tw, "%s\t%s\t%s\n", date, sourceHost(a.Source), runewidth.Truncate(title, 100, "…"))
	}
	return tw.Flush()
}

// sourceHost shortens a feed URL to its host for display.
func sourceHost(source string) string {
	u, err := url.Parse(source)
	if err != nil || u.Host == "" {
		return source
	}
	return u.Host
}
