// Package article defines the normalized feed entry shared by every layer of
// feedline, together with its identity key and display ordering.
package article

import (
	"cmp"
	"time"
)

// Key identifies an article across fetches. Source namespaces ID so that
// identical entry IDs from different feeds never collide.
type Key struct {
	ID     string
	Source string
}

// String returns "source#id" (for logging).
func (k Key) String() string {
	return k.Source + "#" + k.ID
}

// Article is one normalized feed entry.
// Text fields are plain text; HTML has already been normalized by the parser.
type Article struct {
	ID       string // feed-provided entry id, may be empty
	Source   string // configured feed URL
	Title    string
	SubTitle string
	Content  string
	Date     time.Time // zero value means the feed supplied no usable date
}

// Key returns the identity key of the article.
func (a Article) Key() Key {
	return Key{ID: a.ID, Source: a.Source}
}

// HasDate reports whether the article carries a date.
func (a Article) HasDate() bool {
	return !a.Date.IsZero()
}

// Equal reports whether every field of a and b is equal.
// Dates compare by instant and UTC offset, so a date read back from the cache
// equals the one parsed from the feed even though its *time.Location differs.
func (a Article) Equal(b Article) bool {
	return a.ID == b.ID &&
		a.Source == b.Source &&
		a.Title == b.Title &&
		a.SubTitle == b.SubTitle &&
		a.Content == b.Content &&
		sameDate(a.Date, b.Date)
}

func sameDate(a, b time.Time) bool {
	if a.IsZero() || b.IsZero() {
		return a.IsZero() == b.IsZero()
	}
	_, oa := a.Zone()
	_, ob := b.Zone()
	return a.Equal(b) && oa == ob
}

// Compare orders articles newest first: dated articles before undated ones,
// later dates before earlier ones, then Source ascending, then ID ascending.
// Two articles compare equal only when their keys are equal, which makes
// Compare a strict total order over keys.
func Compare(a, b Article) int {
	switch {
	case a.HasDate() && !b.HasDate():
		return -1
	case !a.HasDate() && b.HasDate():
		return 1
	case a.HasDate() && b.HasDate():
		// Reversed: the more recent date sorts first.
		if c := b.Date.Compare(a.Date); c != 0 {
			return c
		}
	}
	if c := cmp.Compare(a.Source, b.Source); c != 0 {
		return c
	}
	return cmp.Compare(a.ID, b.ID)
}

// Less reports whether a sorts before b.
func (a Article) Less(b Article) bool {
	return Compare(a, b) < 0
}
