// Package feed maps raw RSS, Atom and JSON Feed documents onto articles.
//
// Format detection and XML/JSON decoding are done by gofeed's native
// per-format parsers so that feed-specific fields (Atom updated, RSS guid and
// content:encoded) stay available. This layer only maps fields, parses dates
// and normalizes HTML. A bad field never fails the feed: it falls back to an
// empty string or an absent date.
package feed

import (
	"bytes"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/abelbrown/feedline/internal/article"
	"github.com/abelbrown/feedline/internal/htmltext"
	"github.com/mmcdole/gofeed"
	"github.com/mmcdole/gofeed/atom"
	jsonfeed "github.com/mmcdole/gofeed/json"
	"github.com/mmcdole/gofeed/rss"
)

// ErrUnknownFormat is returned when raw is not RSS, Atom or JSON Feed.
var ErrUnknownFormat = errors.New("unrecognized feed format")

// Parse converts a raw feed document fetched from source into articles.
// Every returned article has Source set to source.
func Parse(source string, raw []byte) ([]article.Article, error) {
	switch gofeed.DetectFeedType(bytes.NewReader(raw)) {
	case gofeed.FeedTypeAtom:
		f, err := (&atom.Parser{}).Parse(bytes.NewReader(raw))
		if err != nil {
			return nil, fmt.Errorf("parse atom %s: %w", source, err)
		}
		return fromAtom(source, f), nil

	case gofeed.FeedTypeRSS:
		f, err := (&rss.Parser{}).Parse(bytes.NewReader(raw))
		if err != nil {
			return nil, fmt.Errorf("parse rss %s: %w", source, err)
		}
		return fromRSS(source, f), nil

	case gofeed.FeedTypeJSON:
		f, err := (&jsonfeed.Parser{}).Parse(bytes.NewReader(raw))
		if err != nil {
			return nil, fmt.Errorf("parse json feed %s: %w", source, err)
		}
		return fromJSON(source, f), nil
	}
	return nil, fmt.Errorf("%s: %w", source, ErrUnknownFormat)
}

func fromAtom(source string, f *atom.Feed) []article.Article {
	articles := make([]article.Article, 0, len(f.Entries))
	for _, e := range f.Entries {
		if e == nil {
			continue
		}
		a := article.Article{
			ID:       strings.TrimSpace(e.ID),
			Source:   source,
			Title:    htmltext.Normalize(e.Title),
			SubTitle: htmltext.Normalize(e.Summary),
			Date:     parseRFC3339(e.Updated),
		}
		if !a.HasDate() {
			a.Date = parseRFC3339(e.Published)
		}
		if e.Content != nil {
			a.Content = htmltext.Normalize(e.Content.Value)
		}
		articles = append(articles, a)
	}
	return articles
}

func fromRSS(source string, f *rss.Feed) []article.Article {
	articles := make([]article.Article, 0, len(f.Items))
	for _, item := range f.Items {
		if item == nil {
			continue
		}
		a := article.Article{
			Source:   source,
			Title:    htmltext.Normalize(item.Title),
			SubTitle: htmltext.Normalize(item.Description),
			Content:  htmltext.Normalize(item.Content),
			Date:     parseRFC2822(item.PubDate),
		}
		if item.GUID != nil {
			a.ID = strings.TrimSpace(item.GUID.Value)
		}
		articles = append(articles, a)
	}
	return articles
}

func fromJSON(source string, f *jsonfeed.Feed) []article.Article {
	articles := make([]article.Article, 0, len(f.Items))
	for _, item := range f.Items {
		if item == nil {
			continue
		}
		content := htmltext.Normalize(item.ContentHTML)
		if content == "" {
			content = strings.TrimSpace(item.ContentText)
		}
		date := parseRFC3339(item.DateModified)
		if date.IsZero() {
			date = parseRFC3339(item.DatePublished)
		}
		articles = append(articles, article.Article{
			ID:       strings.TrimSpace(item.ID),
			Source:   source,
			Title:    htmltext.Normalize(item.Title),
			SubTitle: htmltext.Normalize(item.Summary),
			Content:  content,
			Date:     date,
		})
	}
	return articles
}

// parseRFC3339 parses an Atom/JSON Feed date. Unparsable input yields the
// zero time.
func parseRFC3339(s string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}
	}
	return fixedZone(t)
}

// rfc2822Fallbacks covers pubDate variants net/mail rejects.
var rfc2822Fallbacks = []string{
	time.RFC1123Z,
	time.RFC1123,
	time.RFC822Z,
	time.RFC822,
	"Mon, 2 Jan 2006 15:04:05 -0700",
	"Mon, 2 Jan 2006 15:04:05 MST",
	"2 Jan 2006 15:04:05 -0700",
}

// parseRFC2822 parses an RSS pubDate. Unparsable input yields the zero time.
func parseRFC2822(s string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}
	s = numericZone(s)
	if t, err := mail.ParseDate(s); err == nil {
		return fixedZone(t)
	}
	for _, layout := range rfc2822Fallbacks {
		if t, err := time.Parse(layout, s); err == nil {
			return fixedZone(t)
		}
	}
	return time.Time{}
}

// obsoleteZones are the named zones RFC 2822 section 4.3 still allows.
// time.Parse does not know them unless the local tz database happens to.
var obsoleteZones = map[string]string{
	"UT":  "+0000",
	"GMT": "+0000",
	"Z":   "+0000",
	"EST": "-0500",
	"EDT": "-0400",
	"CST": "-0600",
	"CDT": "-0500",
	"MST": "-0700",
	"MDT": "-0600",
	"PST": "-0800",
	"PDT": "-0700",
}

// numericZone replaces a trailing obsolete zone name with its offset.
func numericZone(s string) string {
	i := strings.LastIndexByte(s, ' ')
	if i < 0 {
		return s
	}
	if off, ok := obsoleteZones[strings.ToUpper(s[i+1:])]; ok {
		return s[:i+1] + off
	}
	return s
}

// fixedZone pins t to an unnamed zone with its own offset so the result does
// not depend on the local timezone database.
func fixedZone(t time.Time) time.Time {
	_, offset := t.Zone()
	return t.In(time.FixedZone("", offset))
}
