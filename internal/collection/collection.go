// Package collection holds the in-memory, authoritative set of articles.
//
// A Collection keeps two views of the same articles: a map from identity key
// for lookup and a B-tree ordered newest first for display. Both views point
// at one immutable *article.Article per entry, so an update is a pointer swap
// seen identically from both sides.
//
// Thread-safety: all methods are safe for concurrent use. Readers share a
// read lock; mutations take the write lock only for the in-memory change.
package collection

import (
	"sync"

	"github.com/abelbrown/feedline/internal/article"
	"github.com/google/btree"
)

// btreeDegree is the B-tree node degree.
const btreeDegree = 16

// Reader is the read-only handle given to the UI.
type Reader interface {
	Snapshot() []article.Article
	Len() int
}

// InsertResult reports what Insert did.
type InsertResult int

const (
	Unchanged InsertResult = iota // key present, all fields equal
	Added                         // key was absent
	Changed                       // key present, some field differed
)

func (r InsertResult) String() string {
	switch r {
	case Added:
		return "added"
	case Changed:
		return "changed"
	default:
		return "unchanged"
	}
}

// Diff describes the effect of a reconcile.
type Diff struct {
	Added   []article.Key
	Changed []article.Key
	Removed map[article.Key]article.Article
}

// Collection is the ordered, de-duplicated article set.
type Collection struct {
	mu      sync.RWMutex
	index   map[article.Key]*article.Article
	ordered *btree.BTreeG[*article.Article]
}

// New creates an empty Collection.
func New() *Collection {
	return &Collection{
		index: make(map[article.Key]*article.Article),
		ordered: btree.NewG(btreeDegree, func(a, b *article.Article) bool {
			return article.Compare(*a, *b) < 0
		}),
	}
}

// Load inserts a batch of articles under a single lock.
// Used once at startup to seed the collection from the cache.
func (c *Collection) Load(articles []article.Article) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, a := range articles {
		c.insert(a)
	}
}

// Insert adds a or replaces the article with the same key.
func (c *Collection) Insert(a article.Article) InsertResult {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.insert(a)
}

// insert is the upsert. Caller must hold c.mu for writing.
func (c *Collection) insert(a article.Article) InsertResult {
	key := a.Key()
	old, ok := c.index[key]
	if ok && old.Equal(a) {
		return Unchanged
	}
	if ok {
		// The ordering depends on Date, which may have changed. Remove the
		// old slot first or the tree keeps a stale entry.
		c.ordered.Delete(old)
	}
	stored := a
	c.index[key] = &stored
	c.ordered.ReplaceOrInsert(&stored)
	if ok {
		return Changed
	}
	return Added
}

// Remove deletes the article with key k from both views.
func (c *Collection) Remove(k article.Key) (article.Article, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.remove(k)
}

// remove deletes k. Caller must hold c.mu for writing.
func (c *Collection) remove(k article.Key) (article.Article, bool) {
	old, ok := c.index[k]
	if !ok {
		return article.Article{}, false
	}
	delete(c.index, k)
	c.ordered.Delete(old)
	return *old, true
}

// Get returns the article stored under k.
func (c *Collection) Get(k article.Key) (article.Article, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	a, ok := c.index[k]
	if !ok {
		return article.Article{}, false
	}
	return *a, true
}

// Len returns the number of articles held.
func (c *Collection) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.index)
}

// Reconcile makes the collection mirror latest exactly: every held key absent
// from latest is removed, then every article in latest is inserted.
// Returns the removed articles so the caller can prune the cache to match.
func (c *Collection) Reconcile(latest map[article.Key]article.Article) map[article.Key]article.Article {
	return c.ReconcileDiff(latest).Removed
}

// ReconcileDiff is Reconcile, additionally reporting which keys were added
// and which changed content.
func (c *Collection) ReconcileDiff(latest map[article.Key]article.Article) Diff {
	c.mu.Lock()
	defer c.mu.Unlock()

	diff := Diff{Removed: make(map[article.Key]article.Article)}
	for k := range c.index {
		if _, ok := latest[k]; !ok {
			if old, ok := c.remove(k); ok {
				diff.Removed[k] = old
			}
		}
	}
	for k, a := range latest {
		// The map key wins over the article's own fields so that membership
		// always equals latest's key set.
		a.ID, a.Source = k.ID, k.Source
		switch c.insert(a) {
		case Added:
			diff.Added = append(diff.Added, k)
		case Changed:
			diff.Changed = append(diff.Changed, k)
		}
	}
	return diff
}

// Snapshot returns the articles in display order (newest first).
// The returned slice is a copy owned by the caller.
func (c *Collection) Snapshot() []article.Article {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]article.Article, 0, c.ordered.Len())
	c.ordered.Ascend(func(a *article.Article) bool {
		out = append(out, *a)
		return true
	})
	return out
}

// BySource returns the held articles whose Source is source, in display order.
func (c *Collection) BySource(source string) []article.Article {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var out []article.Article
	c.ordered.Ascend(func(a *article.Article) bool {
		if a.Source == source {
			out = append(out, *a)
		}
		return true
	})
	return out
}
