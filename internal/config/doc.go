// Package config loads the dex configuration file.
//
// # Configuration Discovery
//
// The Load function follows this resolution order:
//
//  1. If a path is explicitly provided, use it
//  2. Otherwise, use $DEX_CONFIG when set
//  3. Otherwise, use ~/.config/dex/config.toml
//  4. If the file doesn't exist, fall back to defaults
//
// # TOML Format
//
// Every key is optional:
//
//	api_base = "https://pokeapi.co/api/v2/pokemon"
//	page_size = 20
//	catalog_size = 1025        # 0 adopts the list endpoint's count
//	search_batch = 1000
//	search_limit = 50
//	min_query_length = 2
//	debounce = "500ms"
//	concurrency = 10
//	requests_per_second = 20   # 0 disables pacing
//	burst = 10
//	request_timeout = "10s"
//	probe_interval = "15s"
//	data_dir = "~/.local/share/dex"
//	log_file = "~/.local/state/dex/dex.log"
//	log_level = "info"
//
// ${VAR} references are expanded from the environment before parsing, and
// tilde paths are expanded to the home directory. Values are validated after
// defaults are applied; a file that parses but fails validation is an error.
//
// Missing config files are NOT an error. dex works out-of-the-box.
package config
