package events

import (
	"errors"
	"sync"
	"testing"
	"time"
)

func TestRingPushAndLast(t *testing.T) {
	r := NewRing[int](8)
	for i := 0; i < 5; i++ {
		r.Push(i)
	}

	got := r.Last(10)
	if len(got) != 5 {
		t.Fatalf("expected 5 values, got %d", len(got))
	}
	for i, v := range got {
		if v != i {
			t.Errorf("got[%d]=%d, want %d", i, v, i)
		}
	}
}

func TestRingWrapAround(t *testing.T) {
	r := NewRing[int](4)
	for i := 0; i < 10; i++ {
		r.Push(i)
	}

	if r.Len() != 4 {
		t.Fatalf("expected len 4, got %d", r.Len())
	}
	// Should contain 6, 7, 8, 9 (oldest evicted)
	got := r.Last(4)
	for i, v := range got {
		if want := i + 6; v != want {
			t.Errorf("got[%d]=%d, want %d", i, v, want)
		}
	}

	// A window that straddles the wrap point.
	got = r.Last(3)
	if len(got) != 3 || got[0] != 7 || got[2] != 9 {
		t.Errorf("Last(3) = %v, want [7 8 9]", got)
	}
}

func TestRingLastEdgeCases(t *testing.T) {
	r := NewRing[int](4)
	if got := r.Last(3); got != nil {
		t.Errorf("empty ring Last = %v, want nil", got)
	}
	r.Push(1)
	if got := r.Last(0); got != nil {
		t.Errorf("Last(0) = %v, want nil", got)
	}
	if got := r.Last(-1); got != nil {
		t.Errorf("Last(-1) = %v, want nil", got)
	}
	if r.Cap() != 4 {
		t.Errorf("Cap = %d, want 4", r.Cap())
	}
}

func TestRingConcurrentPush(t *testing.T) {
	r := NewRing[int](64)
	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				r.Push(i)
				r.Last(5)
			}
		}()
	}
	wg.Wait()

	if r.Len() != 64 {
		t.Errorf("expected full ring, got %d", r.Len())
	}
}

func TestRecorder(t *testing.T) {
	rec := NewRecorder(4)
	fixed := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	rec.now = func() time.Time { return fixed }

	rec.Record(Event{Kind: KindCycleStart})
	rec.Error(KindFetchError, "https://a", errors.New("timeout"))
	rec.Error(KindFetchError, "https://b", nil) // ignored
	rec.Record(Event{Kind: KindCycleComplete, Count: 3})

	got := rec.Last(10)
	if len(got) != 3 {
		t.Fatalf("expected 3 events, got %d", len(got))
	}
	if !got[0].Time.Equal(fixed) {
		t.Errorf("event not stamped: %v", got[0].Time)
	}
	if got[1].Source != "https://a" || got[1].Err != "timeout" {
		t.Errorf("unexpected error event %+v", got[1])
	}

	stats := rec.Stats()
	if stats[KindFetchError] != 1 || stats[KindCycleComplete] != 1 {
		t.Errorf("unexpected stats %v", stats)
	}
}

func TestNilRecorder(t *testing.T) {
	var rec *Recorder
	rec.Record(Event{Kind: KindCycleStart})
	rec.Error(KindCacheError, "", errors.New("x"))
	if rec.Len() != 0 || rec.Cap() != 0 || rec.Last(5) != nil || len(rec.Stats()) != 0 {
		t.Error("nil recorder should be empty")
	}
}
