// Package state provides thread-safe state management for dex.
//
// # Overview
//
// The Store is the coordination point between the catalog controller, which
// produces state after every mutation, and the presentation surfaces (TUI,
// HTTP/SSE API) that render it.
//
//	Producer (catalog.Browser):    Consumers (UI, SSE):
//	┌────────────────────┐        ┌────────────────────┐
//	│ FetchPage/Search   │        │ <-Changes()        │
//	│      ↓             │        │      ↓             │
//	│ store.Update(fn)   │───────→│ store.Snapshot()   │
//	└────────────────────┘        └────────────────────┘
//
// # Update Semantics
//
// Update runs a mutation function under the write lock, then signals every
// subscriber. Signals are coalesced: each subscriber channel has a buffer of
// one, so a burst of updates wakes a slow reader once and it reads the latest
// Snapshot.
//
// Snapshot returns a deep copy. Callers may modify it freely.
//
// # Error Screen
//
// Snapshot.ShowErrorScreen is true only when an error message is set and
// there is nothing to display. A degraded page (offline data with a banner)
// keeps the normal layout.
package state
