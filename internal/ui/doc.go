// Package ui provides the terminal user interface for dex.
//
// # Architecture Overview
//
// The UI is a Bubble Tea program. It never talks to the network itself: every
// action goes through a Controller (implemented by catalog.Browser), and every
// frame is drawn from the latest state.Snapshot. The model subscribes to the
// store's change channel and re-renders on each signal, plus a periodic tick
// that refreshes relative timestamps and the log overlay.
//
// # Package Structure
//
//   - app.go: Model, Update loop, key dispatch and Run
//   - header.go: status header, offline banner and command bar
//   - list.go: result list, detail pane, pagination bar and error screen
//   - logs.go: application log overlay backed by logtail
//   - help.go: help overlay generated from the key map
//   - keys.go: key bindings
//   - theme.go, style_helpers.go: palettes and background-safe rendering
//
// # Screen Layout
//
//	dex  ● ONLINE  Catalog: 1025  Page: 3/52  21:04:10 (now)
//	←/→:Page  </>:First/Last  :Jump  /:Search  ...  T:Nightfox
//	[ Offline mode: showing cached data ]          (only when offline/degraded)
//	/ pika
//	┌──── Pokémon ────┐┌──── Details ────┐
//	│#025 Pikachu · e ││#025 Pikachu     │
//	└─────────────────┘└─────────────────┘
//	‹ 1 … 2 [3] 4 5 … 52 ›   20 Pokémon
//
// The pagination bar is hidden while a search is active. When a page failed
// and nothing can be shown, the list is replaced by a full-screen error with
// "r" to retry.
//
// # Key Bindings
//
//   - ←/→ or p/n: Previous/next page
//   - < and >: First/last page
//   - ":": Jump to a page number
//   - "/": Focus search; typing searches as you go, enter keeps, esc clears
//   - j/k, g/G: Move the selection
//   - r: Retry the current page
//   - o: Force offline on/off
//   - L: Application log overlay
//   - T: Cycle theme (saved to prefs)
//   - h or ?: Help
//   - e or Ctrl+C: Exit
//
// The theme and the page being viewed are written to prefs on theme change
// and on exit, so the next session resumes where this one stopped.
package ui
