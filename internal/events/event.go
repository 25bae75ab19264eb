// Package events records recent pipeline activity for live inspection.
//
// The coordinator pushes an Event for every cycle, failed source and cache
// write into a Ring; the TUI renders the ring in its debug overlay. Events
// are in-memory only; the log file remains the durable record.
package events

import "time"

// Kind identifies the category of an event.
// Dot-delimited: "<subsystem>.<action>".
type Kind string

const (
	KindCycleStart    Kind = "cycle.start"
	KindCycleComplete Kind = "cycle.complete"
	KindCycleCancel   Kind = "cycle.cancel"
	KindFetchComplete Kind = "fetch.complete"
	KindFetchError    Kind = "fetch.error"
	KindCacheWrite    Kind = "cache.write"
	KindCacheError    Kind = "cache.error"
)

// Event is one recorded occurrence. Every field except Kind and Time is
// optional.
type Event struct {
	Time   time.Time
	Kind   Kind
	Source string
	Count  int
	Dur    time.Duration
	Err    string
	Msg    string
}

// DefaultSize is the default recorder capacity.
const DefaultSize = 256

// Recorder is a Ring of Events. A nil *Recorder discards everything, so
// callers never need to check before recording.
type Recorder struct {
	ring *Ring[Event]
	now  func() time.Time
}

// NewRecorder creates a recorder holding the last size events.
func NewRecorder(size int) *Recorder {
	if size <= 0 {
		size = DefaultSize
	}
	return &Recorder{ring: NewRing[Event](size), now: time.Now}
}

// Record stamps e with the current time if unset and stores it.
func (r *Recorder) Record(e Event) {
	if r == nil {
		return
	}
	if e.Time.IsZero() {
		e.Time = r.now()
	}
	r.ring.Push(e)
}

// Error records an event of kind carrying err.
func (r *Recorder) Error(kind Kind, source string, err error) {
	if r == nil || err == nil {
		return
	}
	r.Record(Event{Kind: kind, Source: source, Err: err.Error()})
}

// Last returns the n most recent events, oldest first.
func (r *Recorder) Last(n int) []Event {
	if r == nil {
		return nil
	}
	return r.ring.Last(n)
}

// Stats counts buffered events by kind.
func (r *Recorder) Stats() map[Kind]int {
	counts := make(map[Kind]int)
	if r == nil {
		return counts
	}
	for _, e := range r.ring.Last(r.ring.Cap()) {
		counts[e.Kind]++
	}
	return counts
}

// Len returns the number of buffered events.
func (r *Recorder) Len() int {
	if r == nil {
		return 0
	}
	return r.ring.Len()
}

// Cap returns the recorder capacity.
func (r *Recorder) Cap() int {
	if r == nil {
		return 0
	}
	return r.ring.Cap()
}
