// Package app is the composition root for dex.
//
// # Overview
//
// Open wires configuration, logging, the PokéAPI client, the offline
// snapshot store, connectivity tracking and the catalog browser into an Env.
// The TUI (Run) and the headless surfaces (CLI subcommands, HTTP API, MCP
// server) all start from the same Env, so they share one behaviour.
//
// # Startup
//
//	┌──────────────┐
//	│   Open()     │
//	└──────┬───────┘
//	       ├─────> config.Load()            TOML + env expansion + validation
//	       ├─────> slog text handler        log file, or the caller's writer
//	       ├─────> pokeapi.NewClient()      timeout, rate limit, user agent
//	       ├─────> offline.Open()           SQLite snapshot at <data_dir>/dex.db
//	       ├─────> connectivity.Monitor     forced offline with --offline
//	       ├─────> catalog.New()            page fetcher + search orchestrator
//	       ├─────> Prober.Prime()           one synchronous probe (3s cap)
//	       └─────> Prober.Start()           background probes with backoff
//
// Run then loads prefs, starts the browser on the last viewed page and hands
// control to ui.Run until the user exits.
//
// # Error Handling
//
// Fatal (returned from Open): invalid config, unusable log or data
// directory, snapshot database failures. Everything after startup is soft:
// network failures degrade to the snapshot, and the prober keeps retrying.
//
// # Shutdown
//
// Env.Close stops the prober, cancels pending searches, waits for in-flight
// page fetches and closes the database and log file.
package app
