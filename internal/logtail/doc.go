// Package logtail reads the tail of the dex log file for display in the TUI.
//
// # Reading
//
// Read scans a file once and keeps the last N lines in a ring buffer, so
// memory stays bounded regardless of file size. A missing file yields no
// lines and no error: the log file is created lazily on first write.
//
// # Parsing
//
// dex logs with the slog text handler:
//
//	time=2025-10-08T21:01:05.123Z level=WARN msg="page fetch failed" page=3 error="..."
//
// Parse splits such a line into time, level, message and trailing attributes.
// Quoted values are unquoted. Lines in any other format are kept verbatim as
// the message, so foreign output (panics, stray prints) still shows up.
//
// Entry.Format renders a compact single line for narrow terminals:
//
//	21:01:05 WARN page fetch failed page=3 error=...
//
// Styling is left to the caller; the UI colours the level with its theme.
package logtail
