package coord

import (
	"sync"
	"time"

	"github.com/abelbrown/feedline/internal/article"
	"github.com/abelbrown/feedline/internal/events"
	"github.com/abelbrown/feedline/internal/logging"
)

// cacheWriter applies cycle results to the cache off the driver's goroutine.
//
// Submitted work is merged into a single pending set: a newer upsert or
// delete of a key replaces any older pending operation on it. At most one
// flush goroutine runs; it keeps draining until nothing is pending, so
// writes land in submission order. A failed flush is merged back under any
// newer work and retried on the next submit.
type cacheWriter struct {
	cache  Cache
	events *events.Recorder
	synced func(error) // called after every flush attempt

	mu      sync.Mutex
	upserts map[article.Key]article.Article
	deletes map[article.Key]struct{}
	running bool
	wg      sync.WaitGroup
}

func newCacheWriter(cache Cache, rec *events.Recorder, synced func(error)) *cacheWriter {
	return &cacheWriter{
		cache:   cache,
		events:  rec,
		synced:  synced,
		upserts: make(map[article.Key]article.Article),
		deletes: make(map[article.Key]struct{}),
	}
}

// submit queues work and starts a flush goroutine if none is running.
func (w *cacheWriter) submit(upserts []article.Article, deletes []article.Key) {
	w.mu.Lock()
	for _, a := range upserts {
		w.upserts[a.Key()] = a
		delete(w.deletes, a.Key())
	}
	for _, k := range deletes {
		w.deletes[k] = struct{}{}
		delete(w.upserts, k)
	}
	if w.running || w.emptyLocked() {
		w.mu.Unlock()
		return
	}
	w.running = true
	w.wg.Add(1)
	w.mu.Unlock()

	go w.run()
}

func (w *cacheWriter) run() {
	defer w.wg.Done()
	for {
		w.mu.Lock()
		if w.emptyLocked() {
			w.running = false
			w.mu.Unlock()
			return
		}
		upserts, deletes := w.takeLocked()
		w.mu.Unlock()

		err := w.apply(upserts, deletes)
		if err != nil {
			logging.Error("cache write failed, will retry next cycle", "err", err,
				"upserts", len(upserts), "deletes", len(deletes))
			w.mu.Lock()
			w.requeueLocked(upserts, deletes)
			w.running = false
			w.mu.Unlock()
			w.notify(err)
			return
		}
		logging.Debug("cache write complete", "upserts", len(upserts), "deletes", len(deletes))
		w.notify(nil)
	}
}

// flush waits for any running flush, then writes what is still pending
// synchronously. Must not race with submit.
func (w *cacheWriter) flush() error {
	w.wait()

	w.mu.Lock()
	if w.emptyLocked() {
		w.mu.Unlock()
		return nil
	}
	upserts, deletes := w.takeLocked()
	w.mu.Unlock()

	if err := w.apply(upserts, deletes); err != nil {
		w.mu.Lock()
		w.requeueLocked(upserts, deletes)
		w.mu.Unlock()
		return err
	}
	return nil
}

// apply writes one batch and records the outcome.
func (w *cacheWriter) apply(upserts []article.Article, deletes []article.Key) error {
	start := time.Now()
	if err := w.cache.Apply(upserts, deletes); err != nil {
		w.events.Error(events.KindCacheError, "", err)
		return err
	}
	w.events.Record(events.Event{
		Kind:  events.KindCacheWrite,
		Count: len(upserts) + len(deletes),
		Dur:   time.Since(start),
	})
	return nil
}

// wait blocks until the flush goroutine, if any, exits.
func (w *cacheWriter) wait() {
	w.wg.Wait()
}

// pending reports the number of queued operations.
func (w *cacheWriter) pending() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.upserts) + len(w.deletes)
}

func (w *cacheWriter) emptyLocked() bool {
	return len(w.upserts) == 0 && len(w.deletes) == 0
}

func (w *cacheWriter) takeLocked() ([]article.Article, []article.Key) {
	upserts := make([]article.Article, 0, len(w.upserts))
	for _, a := range w.upserts {
		upserts = append(upserts, a)
	}
	deletes := make([]article.Key, 0, len(w.deletes))
	for k := range w.deletes {
		deletes = append(deletes, k)
	}
	clear(w.upserts)
	clear(w.deletes)
	return upserts, deletes
}

// requeueLocked merges failed work back in without overriding anything
// submitted since it was taken.
func (w *cacheWriter) requeueLocked(upserts []article.Article, deletes []article.Key) {
	for _, a := range upserts {
		if w.hasLocked(a.Key()) {
			continue
		}
		w.upserts[a.Key()] = a
	}
	for _, k := range deletes {
		if w.hasLocked(k) {
			continue
		}
		w.deletes[k] = struct{}{}
	}
}

func (w *cacheWriter) hasLocked(k article.Key) bool {
	if _, ok := w.upserts[k]; ok {
		return true
	}
	_, ok := w.deletes[k]
	return ok
}

func (w *cacheWriter) notify(err error) {
	if w.synced != nil {
		w.synced(err)
	}
}
