// Package coord drives the periodic fetch, reconcile and cache cycle.
package coord

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/abelbrown/feedline/internal/article"
	"github.com/abelbrown/feedline/internal/collection"
	"github.com/abelbrown/feedline/internal/events"
	"github.com/abelbrown/feedline/internal/fetch"
	"github.com/abelbrown/feedline/internal/logging"
	"github.com/abelbrown/feedline/internal/ui"
)

// DefaultInterval is the time between fetch cycles.
const DefaultInterval = 5 * time.Minute

// DefaultConcurrency limits parallel fetch operations.
const DefaultConcurrency = 8

// Notifier receives progress messages. *tea.Program satisfies it.
type Notifier interface {
	Send(msg tea.Msg)
}

// Cache persists the outcome of each cycle. *store.Store satisfies it.
type Cache interface {
	Apply(upserts []article.Article, deletes []article.Key) error
}

// Options configures a Coordinator.
type Options struct {
	Sources     []string
	Interval    time.Duration // <= 0 means DefaultInterval
	Concurrency int           // max parallel fetches, 0 = unlimited

	// KeepFailedSources keeps the articles of a source whose fetch failed
	// instead of pruning them with the rest of the cycle's absentees.
	KeepFailedSources bool

	// Events receives cycle, fetch and cache activity. May be nil.
	Events *events.Recorder
}

// State is the coordinator's cycle state.
type State int32

const (
	Idle State = iota
	Fetching
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Fetching:
		return "fetching"
	}
	return "unknown"
}

// CycleReport summarizes one fetch cycle.
type CycleReport struct {
	Added    int
	Changed  int
	Removed  int
	Total    int
	Failed   map[string]error
	Duration time.Duration
}

// Coordinator manages background fetching and reconciliation.
// Uses context cancellation as the ONLY stop mechanism.
type Coordinator struct {
	coll    *collection.Collection
	fetcher fetch.SourceFetcher // interface for testing
	writer  *cacheWriter
	opts    Options // Sources is IMMUTABLE: copied at construction

	state    atomic.Int32
	notifier Notifier
	wg       sync.WaitGroup
}

// New creates a Coordinator. cache may be nil to run without persistence.
func New(coll *collection.Collection, cache Cache, f fetch.SourceFetcher, opts Options) *Coordinator {
	// Copy sources slice to ensure immutability
	opts.Sources = append([]string(nil), opts.Sources...)
	if opts.Interval <= 0 {
		opts.Interval = DefaultInterval
	}

	c := &Coordinator{
		coll:    coll,
		fetcher: f,
		opts:    opts,
	}
	if cache != nil {
		c.writer = newCacheWriter(cache, opts.Events, c.cacheSynced)
	}
	return c
}

// Start begins background fetching. Call with a cancellable context.
// Performs the first cycle immediately, then one per Interval. Does nothing
// when no sources are configured. The notifier may be nil.
func (c *Coordinator) Start(ctx context.Context, notifier Notifier) {
	if len(c.opts.Sources) == 0 {
		logging.Info("no sources configured, coordinator not started")
		return
	}
	c.notifier = notifier

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()

		// Perform initial cycle immediately
		c.cycle(ctx)

		// The ticker channel buffers one tick: a cycle that overruns the
		// interval is followed by exactly one more, not a burst.
		ticker := time.NewTicker(c.opts.Interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				c.cycle(ctx)
			}
		}
	}()
}

// Wait blocks until the background loop and any pending cache write exit.
// Call after canceling the context passed to Start.
func (c *Coordinator) Wait() {
	c.wg.Wait()
	if c.writer != nil {
		c.writer.wait()
	}
}

// State reports whether a cycle is in progress.
func (c *Coordinator) State() State {
	return State(c.state.Load())
}

// RunOnce performs a single cycle and writes its outcome to the cache
// before returning. Must not be used concurrently with Start.
func (c *Coordinator) RunOnce(ctx context.Context) (CycleReport, error) {
	report, err := c.cycle(ctx)
	if err != nil {
		return report, err
	}
	if c.writer != nil {
		if err := c.writer.flush(); err != nil {
			return report, err
		}
	}
	return report, nil
}

// cycle fetches every source, reconciles the collection against the result
// and hands the difference to the cache writer.
func (c *Coordinator) cycle(ctx context.Context) (CycleReport, error) {
	c.state.Store(int32(Fetching))
	defer c.state.Store(int32(Idle))
	c.send(ui.CycleStarted{})
	c.opts.Events.Record(events.Event{Kind: events.KindCycleStart, Count: len(c.opts.Sources)})

	start := time.Now()
	res := fetch.All(ctx, c.fetcher, c.opts.Sources, c.opts.Concurrency)

	// A cancelled cycle saw partial results; reconciling against them
	// would prune everything that did not arrive in time.
	if err := ctx.Err(); err != nil {
		c.opts.Events.Record(events.Event{Kind: events.KindCycleCancel, Dur: time.Since(start)})
		return CycleReport{Failed: res.Failed}, err
	}

	for src, n := range res.Fetched {
		c.opts.Events.Record(events.Event{Kind: events.KindFetchComplete, Source: src, Count: n})
	}
	for src, err := range res.Failed {
		c.opts.Events.Error(events.KindFetchError, src, err)
	}

	latest := res.Latest
	if c.opts.KeepFailedSources {
		for src := range res.Failed {
			for _, a := range c.coll.BySource(src) {
				if _, ok := latest[a.Key()]; !ok {
					latest[a.Key()] = a
				}
			}
		}
	}

	diff := c.coll.ReconcileDiff(latest)

	if c.writer != nil {
		upserts := make([]article.Article, 0, len(diff.Added)+len(diff.Changed))
		for _, k := range diff.Added {
			upserts = append(upserts, latest[k])
		}
		for _, k := range diff.Changed {
			upserts = append(upserts, latest[k])
		}
		deletes := make([]article.Key, 0, len(diff.Removed))
		for k := range diff.Removed {
			deletes = append(deletes, k)
		}
		c.writer.submit(upserts, deletes)
	}

	report := CycleReport{
		Added:    len(diff.Added),
		Changed:  len(diff.Changed),
		Removed:  len(diff.Removed),
		Total:    c.coll.Len(),
		Failed:   res.Failed,
		Duration: time.Since(start),
	}
	c.opts.Events.Record(events.Event{
		Kind:  events.KindCycleComplete,
		Count: report.Total,
		Dur:   report.Duration,
		Msg:   fmt.Sprintf("+%d ~%d -%d", report.Added, report.Changed, report.Removed),
	})
	logging.Info("cycle complete",
		"added", report.Added,
		"changed", report.Changed,
		"removed", report.Removed,
		"failed", len(report.Failed),
		"total", report.Total,
		"took", report.Duration.Round(time.Millisecond),
	)

	c.send(ui.CycleComplete{
		Added:    report.Added,
		Changed:  report.Changed,
		Removed:  report.Removed,
		Total:    report.Total,
		Failed:   report.Failed,
		Duration: report.Duration,
	})
	return report, nil
}

func (c *Coordinator) cacheSynced(err error) {
	c.send(ui.CacheSynced{Err: err})
}

// send delivers msg to the notifier (handles nil notifier for testing and
// the CLI).
func (c *Coordinator) send(msg tea.Msg) {
	if c.notifier != nil {
		c.notifier.Send(msg)
	}
}

// FailedErr joins the per-source errors of a report, or returns nil.
func (r CycleReport) FailedErr() error {
	if len(r.Failed) == 0 {
		return nil
	}
	errs := make([]error, 0, len(r.Failed))
	for _, err := range r.Failed {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}
