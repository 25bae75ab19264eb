package fetch

import (
	"context"

	"github.com/abelbrown/feedline/internal/article"
	"github.com/abelbrown/feedline/internal/logging"
	"golang.org/x/sync/errgroup"
)

// SourceFetcher fetches and parses a single source.
// *Fetcher is the production implementation.
type SourceFetcher interface {
	Fetch(ctx context.Context, source string) ([]article.Article, error)
}

// Result is the outcome of one fetch cycle.
type Result struct {
	// Latest holds every article retrieved this cycle, keyed by identity.
	// When two articles share a key the one observed last wins.
	Latest map[article.Key]article.Article

	// Failed maps each failed source to its error.
	Failed map[string]error

	// Fetched counts the articles each successful source returned.
	Fetched map[string]int

	// Completed lists every source that reported back, in completion order.
	Completed []string
}

// sourceResult is what each fetch task reports, exactly once.
type sourceResult struct {
	source   string
	articles []article.Article
	err      error
}

// All fetches every source concurrently and merges the results.
// At most limit fetches run at once (limit <= 0 means no limit).
//
// All returns only after every per-source task has reported. A failing
// source never fails the cycle: it is logged, recorded in Result.Failed and
// contributes nothing to Result.Latest.
func All(ctx context.Context, f SourceFetcher, sources []string, limit int) Result {
	results := make(chan sourceResult)
	collected := make(chan Result, 1)
	go func() {
		collected <- collect(results)
	}()

	var g errgroup.Group
	if limit > 0 {
		g.SetLimit(limit)
	}

	for _, src := range unique(sources) {
		g.Go(func() error {
			// Early exit if context cancelled
			if err := ctx.Err(); err != nil {
				results <- sourceResult{source: src, err: err}
				return nil
			}
			articles, err := f.Fetch(ctx, src)
			results <- sourceResult{source: src, articles: articles, err: err}
			return nil // never fail the group - errors reported per-source
		})
	}

	_ = g.Wait() // All goroutines return nil
	close(results)
	return <-collected
}

// collect is the fan-in: the only goroutine touching the merged map.
func collect(results <-chan sourceResult) Result {
	res := Result{
		Latest:  make(map[article.Key]article.Article),
		Failed:  make(map[string]error),
		Fetched: make(map[string]int),
	}
	for r := range results {
		res.Completed = append(res.Completed, r.source)
		if r.err != nil {
			res.Failed[r.source] = r.err
			logging.Warn("fetch failed", "source", r.source, "err", r.err)
			continue
		}
		for _, a := range r.articles {
			a.Source = r.source
			res.Latest[a.Key()] = a
		}
		res.Fetched[r.source] = len(r.articles)
		logging.Debug("fetched", "source", r.source, "articles", len(r.articles))
	}
	return res
}

// unique drops repeated sources, keeping first occurrence order.
func unique(sources []string) []string {
	seen := make(map[string]bool, len(sources))
	out := make([]string, 0, len(sources))
	for _, s := range sources {
		if seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}
