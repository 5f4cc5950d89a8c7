package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/five82/dex/internal/offline"
	"github.com/five82/dex/internal/pagination"
	"github.com/five82/dex/internal/pokeapi"
	"github.com/five82/dex/internal/state"
	"github.com/five82/dex/internal/variant"
)

// FetchPage loads page and makes it the current page.
//
// Offline with a loaded snapshot, the page is sliced from the snapshot and the
// network is not touched. Otherwise the list endpoint is queried, variants are
// dropped and the survivors are resolved in parallel. Resolved records replace
// the snapshot and are merged into the accumulated collection at
// offset+index. A failed list fetch falls back to the snapshot slice
// (degraded) or, with no snapshot, to a hard failure.
//
// A call superseded by a newer FetchPage still merges its records but is
// otherwise discarded and reported as Stale.
func (b *Browser) FetchPage(ctx context.Context, page int) Outcome {
	b.mu.Lock()
	if page < 1 || (b.pager.Total > 0 && page > b.pager.Total) {
		total := b.pager.Total
		b.mu.Unlock()
		return Outcome{Err: fmt.Errorf("%w: %d of %d", ErrPageRange, page, total)}
	}
	token := b.beginPageLocked(page)
	b.mu.Unlock()

	return b.fetchPage(ctx, page, token)
}

// beginPageLocked makes page current and issues the token that orders page
// requests. Later calls always win, whatever order the fetches finish in.
// b.mu must be held.
func (b *Browser) beginPageLocked(page int) uint64 {
	b.pageToken++
	b.pager.Current = page
	b.publishLocked(func(s *state.Snapshot) {
		s.Loading = true
		s.Error = ""
		s.Degraded = false
	})
	return b.pageToken
}

func (b *Browser) fetchPage(ctx context.Context, page int, token uint64) Outcome {
	b.mu.Lock()
	snapshot := b.offline
	loaded := b.offlineLoaded
	b.mu.Unlock()

	pageSize := b.opts.PageSize
	offset := pagination.Offset(page, pageSize)
	logger := b.logger.With(slog.Int("page", page), slog.Int("offset", offset))

	if !b.online() && loaded && len(snapshot) > 0 {
		logger.Debug("serving page from offline snapshot")
		return b.finishPage(token, page, Outcome{Records: slicePage(snapshot, page, pageSize), Source: SourceSnapshot})
	}

	list, err := b.remote.FetchList(ctx, pageSize, offset)
	if err != nil {
		logger.Warn("page fetch failed", slog.String("error", err.Error()))
		b.mu.Lock()
		snapshot = b.offline
		b.mu.Unlock()
		if len(snapshot) > 0 {
			return b.finishPage(token, page, Outcome{
				Records:  slicePage(snapshot, page, pageSize),
				Source:   SourceSnapshot,
				Degraded: true,
				Err:      fmt.Errorf("fetch page %d: %w", page, err),
			})
		}
		return b.finishPage(token, page, Outcome{Err: fmt.Errorf("%w: fetch page %d: %w", ErrNoData, page, err)})
	}

	summaries := variant.Filter(list.Results)
	records := b.resolve(ctx, summaries)
	logger.Debug("page resolved", slog.Int("records", len(records)), slog.Int("listed", len(list.Results)))

	b.mu.Lock()
	b.mergeLocked(offset, records)
	if b.catalogSize == 0 && list.Count > 0 {
		b.catalogSize = list.Count
		b.pager.Total = pagination.TotalPages(list.Count, pageSize)
	}
	current := token == b.pageToken
	if current {
		b.offline = offline.Reduce(records)
		b.offlineLoaded = true
	}
	b.mu.Unlock()

	if current && b.snapshots != nil {
		b.snapshots.Save(ctx, records)
	}
	return b.finishPage(token, page, Outcome{Records: records, Source: SourceNetwork})
}

// finishPage publishes out when token is still the latest page request.
func (b *Browser) finishPage(token uint64, page int, out Outcome) Outcome {
	b.mu.Lock()
	defer b.mu.Unlock()
	if token != b.pageToken {
		out.Stale = true
		return out
	}
	b.lastPage = out
	b.lastPageNum = page
	searching := b.searchActiveLocked()

	b.publishLocked(func(s *state.Snapshot) {
		s.Loading = false
		s.Degraded = out.Degraded
		switch {
		case out.Degraded:
			s.Error = MessageDegraded
		case out.Err != nil:
			s.Error = MessageFailed
		default:
			s.Error = ""
		}
		if searching {
			return
		}
		if out.Err != nil && !out.Degraded {
			s.Displayed = nil
			return
		}
		s.Displayed = out.Records
		s.Source = string(out.Source)
		s.LastUpdated = time.Now()
	})
	return out
}

// resolve fetches details for summaries in parallel. Failed items are logged
// and dropped; order of the survivors follows the input.
func (b *Browser) resolve(ctx context.Context, summaries []pokeapi.Summary) []pokeapi.Record {
	if len(summaries) == 0 {
		return []pokeapi.Record{}
	}
	results := make([]pokeapi.Record, len(summaries))
	ok := make([]bool, len(summaries))

	var g errgroup.Group
	g.SetLimit(b.opts.Concurrency)
	for i, summary := range summaries {
		g.Go(func() error {
			rec, err := b.remote.FetchDetail(ctx, summary.URL)
			if err != nil {
				b.logger.Warn("detail fetch failed",
					slog.String("name", summary.Name),
					slog.String("url", summary.URL),
					slog.String("error", err.Error()))
				return nil
			}
			results[i] = rec
			ok[i] = true
			return nil
		})
	}
	_ = g.Wait()

	out := make([]pokeapi.Record, 0, len(results))
	for i, rec := range results {
		if ok[i] {
			out = append(out, rec)
		}
	}
	return out
}

// mergeLocked writes records into the accumulated collection starting at offset.
func (b *Browser) mergeLocked(offset int, records []pokeapi.Record) {
	if len(records) == 0 {
		return
	}
	if need := offset + len(records); need > len(b.accumulated) {
		b.accumulated = append(b.accumulated, make([]pokeapi.Record, need-len(b.accumulated))...)
	}
	copy(b.accumulated[offset:], records)
}

// pageSliceLocked returns the populated records of the current page of the
// accumulated collection, or the last outcome for that same page when the
// collection holds nothing there.
func (b *Browser) pageSliceLocked() []pokeapi.Record {
	start, end := pagination.Bounds(b.pager.Current, b.opts.PageSize, len(b.accumulated))
	out := make([]pokeapi.Record, 0, end-start)
	for _, rec := range b.accumulated[start:end] {
		if rec.Populated() {
			out = append(out, rec)
		}
	}
	if len(out) == 0 && b.lastPageNum == b.pager.Current && len(b.lastPage.Records) > 0 {
		return b.lastPage.Records
	}
	return out
}

func slicePage(records []pokeapi.Record, page, pageSize int) []pokeapi.Record {
	start, end := pagination.Bounds(page, pageSize, len(records))
	out := make([]pokeapi.Record, end-start)
	copy(out, records[start:end])
	return out
}
