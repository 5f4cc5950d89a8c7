// Package pokeapi provides an HTTP client for the PokéAPI pokemon endpoints.
//
// # Overview
//
// Dex only needs two read-only endpoints:
//
//   - GET <base>?limit=N&offset=M: a page of {name, url} summaries plus the total count
//   - GET <url>: the full record a summary points at
//
// The client decodes only the fields Dex displays (identity, name, sprites,
// types, and a few physical stats); the rest of the detail payload is ignored.
//
// # Request Handling
//
// All requests:
//   - Use context for cancellation and timeout control
//   - Set Accept: application/json and User-Agent: dex/0.1
//   - Pass through a token-bucket limiter (disabled unless WithRateLimit is used)
//   - Return wrapped errors; non-2xx responses are *StatusError
//
// Concurrent FetchDetail calls for the same URL share one in-flight request,
// so a page fetch and a search resolving the same Pokémon hit the API once.
//
// # Testing
//
// Consumers depend on the Catalog and Pinger interfaces. Tests substitute fakes
// or point a real Client at an httptest server.
package pokeapi
