// Package ui provides the Bubble Tea TUI for feedline.
package ui

import "time"

// CycleStarted is sent when the coordinator begins a fetch cycle.
type CycleStarted struct{}

// CycleComplete is sent after a cycle has been reconciled into the
// collection. The UI reloads its snapshot on receipt.
type CycleComplete struct {
	Added    int
	Changed  int
	Removed  int
	Total    int // collection size after reconcile
	Failed   map[string]error
	Duration time.Duration
}

// CacheSynced is sent when a background cache write finishes.
type CacheSynced struct {
	Err error
}

// Refresh asks the UI to reload its snapshot from the collection.
type Refresh struct{}
