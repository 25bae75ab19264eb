package article

import (
	"math/rand"
	"slices"
	"testing"
	"time"
)

func date(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestCompareDateOrdering(t *testing.T) {
	a := Article{ID: "a", Source: "s", Date: date("2024-02-01T00:00:00Z")}
	b := Article{ID: "b", Source: "s", Date: date("2024-01-01T00:00:00Z")}
	c := Article{ID: "c", Source: "s"}

	perms := [][]Article{
		{a, b, c}, {a, c, b}, {b, a, c}, {b, c, a}, {c, a, b}, {c, b, a},
	}
	for _, p := range perms {
		got := slices.Clone(p)
		slices.SortFunc(got, Compare)
		if got[0].ID != "a" || got[1].ID != "b" || got[2].ID != "c" {
			t.Errorf("sorted %v, want [a b c]", []string{got[0].ID, got[1].ID, got[2].ID})
		}
	}
}

func TestCompareTieBreak(t *testing.T) {
	d := date("2024-01-01T00:00:00Z")

	tests := []struct {
		name string
		x, y Article
	}{
		{"same date, source", Article{ID: "9", Source: "a", Date: d}, Article{ID: "1", Source: "b", Date: d}},
		{"no date, source", Article{ID: "9", Source: "a"}, Article{ID: "1", Source: "b"}},
		{"same date, id", Article{ID: "1", Source: "a", Date: d}, Article{ID: "2", Source: "a", Date: d}},
		{"no date, id", Article{ID: "1", Source: "a"}, Article{ID: "2", Source: "a"}},
		{"same instant, other offset", Article{ID: "1", Source: "a", Date: d}, Article{ID: "2", Source: "a", Date: d.In(time.FixedZone("", 3600))}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !tt.x.Less(tt.y) {
				t.Errorf("expected %v < %v", tt.x.Key(), tt.y.Key())
			}
			if tt.y.Less(tt.x) {
				t.Errorf("expected !(%v < %v)", tt.y.Key(), tt.x.Key())
			}
		})
	}
}

func TestCompareTotalOrder(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	dates := []time.Time{{}, date("2024-01-01T00:00:00Z"), date("2024-01-02T00:00:00Z")}
	var arts []Article
	for i := 0; i < 60; i++ {
		arts = append(arts, Article{
			ID:     string(rune('a' + rng.Intn(4))),
			Source: string(rune('p' + rng.Intn(3))),
			Date:   dates[rng.Intn(len(dates))],
		})
	}

	for _, x := range arts {
		for _, y := range arts {
			lt, gt := x.Less(y), y.Less(x)
			if x.Key() == y.Key() {
				// A collection never holds two entries with one key.
				if x.Date.Equal(y.Date) && (lt || gt) {
					t.Fatalf("identical articles ordered: %v", x.Key())
				}
				continue
			}
			if lt == gt {
				t.Fatalf("distinct keys %v and %v: less=%v greater=%v", x.Key(), y.Key(), lt, gt)
			}
		}
	}
}

func TestEqual(t *testing.T) {
	base := Article{
		ID: "1", Source: "s", Title: "t", SubTitle: "st", Content: "c",
		Date: date("2024-01-01T10:00:00+02:00"),
	}

	same := base
	same.Date = date("2024-01-01T10:00:00+02:00")
	if !base.Equal(same) {
		t.Error("identical articles should be equal")
	}

	otherOffset := base
	otherOffset.Date = base.Date.UTC()
	if base.Equal(otherOffset) {
		t.Error("same instant with a different offset should not be equal")
	}

	noDate := base
	noDate.Date = time.Time{}
	if base.Equal(noDate) || noDate.Equal(base) {
		t.Error("dated and undated articles should not be equal")
	}

	changed := base
	changed.Content = "other"
	if base.Equal(changed) {
		t.Error("content change should break equality")
	}
}

func TestKeyString(t *testing.T) {
	k := Article{ID: "42", Source: "https://example.com/feed"}.Key()
	if got := k.String(); got != "https://example.com/feed#42" {
		t.Errorf("Key.String() = %q", got)
	}
}
