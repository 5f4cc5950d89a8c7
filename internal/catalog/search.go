package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/five82/dex/internal/pokeapi"
	"github.com/five82/dex/internal/state"
	"github.com/five82/dex/internal/variant"
)

// SetSearch records a query change, typically one keystroke.
//
// An empty query shows the current page slice synchronously. Anything else
// cancels the pending evaluation and schedules a new one after the debounce
// delay; only the latest evaluation is published.
func (b *Browser) SetSearch(query string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.query = query
	b.searchToken++
	token := b.searchToken
	b.stopTimerLocked()

	if strings.TrimSpace(query) == "" {
		slice := b.pageSliceLocked()
		b.publishLocked(func(s *state.Snapshot) {
			s.SearchLoading = false
			s.Displayed = slice
		})
		return
	}

	b.wg.Add(1)
	b.timer = time.AfterFunc(b.opts.Debounce, func() {
		defer b.wg.Done()
		b.evaluate(token, query)
	})
	b.publishLocked(func(s *state.Snapshot) { s.SearchLoading = true })
}

// SearchNow sets the query and evaluates it immediately, bypassing the
// debounce. The result is published unless a newer query arrives first.
func (b *Browser) SearchNow(ctx context.Context, query string) Outcome {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return Outcome{Err: context.Canceled}
	}
	b.query = query
	b.searchToken++
	token := b.searchToken
	b.stopTimerLocked()
	b.publishLocked(func(s *state.Snapshot) { s.SearchLoading = strings.TrimSpace(query) != "" })
	b.mu.Unlock()

	return b.evaluateWith(ctx, token, query)
}

// ClearSearch empties the query, cancels any pending evaluation and returns
// to page 1.
func (b *Browser) ClearSearch() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.query = ""
	b.searchToken++
	b.stopTimerLocked()
	b.pager.Current = 1
	slice := b.pageSliceLocked()
	b.publishLocked(func(s *state.Snapshot) {
		s.SearchLoading = false
		s.Displayed = slice
	})
	token := b.beginPageLocked(1)
	b.mu.Unlock()

	b.goFetch(1, token)
}

func (b *Browser) evaluate(token uint64, query string) {
	b.evaluateWith(b.ctx, token, query)
}

func (b *Browser) evaluateWith(ctx context.Context, token uint64, query string) Outcome {
	out := b.Search(ctx, query)

	b.mu.Lock()
	defer b.mu.Unlock()
	if token != b.searchToken {
		out.Stale = true
		b.logger.Debug("discarding stale search", slog.String("query", query))
		return out
	}
	b.publishLocked(func(s *state.Snapshot) {
		s.SearchLoading = false
		s.Displayed = out.Records
		s.Source = string(out.Source)
	})
	return out
}

// Search evaluates query without touching the published state, the
// accumulated collection or the snapshot.
//
// Queries shorter than the minimum length yield the current page slice.
// Offline, the in-memory snapshot is filtered. Online, a batch of summaries is
// listed, variant-filtered, matched by substring and capped before details
// are resolved. A failed remote search falls back to filtering the
// accumulated collection, then the snapshot; the error is returned in
// Outcome.Err but never becomes a user-visible message.
func (b *Browser) Search(ctx context.Context, query string) Outcome {
	term := strings.ToLower(strings.TrimSpace(query))

	b.mu.Lock()
	if len([]rune(term)) < b.opts.MinQueryLength || term == "" {
		slice := b.pageSliceLocked()
		b.mu.Unlock()
		return Outcome{Records: slice, Source: SourceMemory}
	}
	snapshot := b.offline
	b.mu.Unlock()

	logger := b.logger.With(slog.String("query", term))

	if !b.online() {
		results := filterByName(snapshot, term)
		logger.Debug("offline search", slog.Int("records", len(results)))
		return Outcome{Records: results, Source: SourceSnapshot}
	}

	list, err := b.remote.FetchList(ctx, b.opts.SearchBatch, 0)
	if err != nil {
		logger.Warn("remote search failed, searching local data", slog.String("error", err.Error()))
		return b.localFallback(term, fmt.Errorf("search %q: %w", term, err))
	}

	var matches []pokeapi.Summary
	for _, s := range variant.Filter(list.Results) {
		if strings.Contains(strings.ToLower(s.Name), term) {
			matches = append(matches, s)
			if len(matches) == b.opts.SearchLimit {
				break
			}
		}
	}

	records := b.resolve(ctx, matches)
	logger.Debug("remote search", slog.Int("matches", len(matches)), slog.Int("records", len(records)))
	return Outcome{Records: records, Source: SourceNetwork}
}

func (b *Browser) localFallback(term string, cause error) Outcome {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, rec := range b.accumulated {
		if rec.Populated() {
			return Outcome{Records: filterByName(b.accumulated, term), Source: SourceMemory, Err: cause}
		}
	}
	return Outcome{Records: filterByName(b.offline, term), Source: SourceSnapshot, Err: cause}
}

func filterByName(records []pokeapi.Record, term string) []pokeapi.Record {
	out := make([]pokeapi.Record, 0)
	for _, rec := range records {
		if rec.Populated() && rec.MatchesName(term) {
			out = append(out, rec)
		}
	}
	return out
}
