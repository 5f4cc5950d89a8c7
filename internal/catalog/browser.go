// Package catalog owns the browsing session: the accumulated collection, the
// in-memory offline snapshot, the current page and the search query. Every
// mutation is published to a state.Store for the presentation surfaces.
package catalog

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/five82/dex/internal/pagination"
	"github.com/five82/dex/internal/pokeapi"
	"github.com/five82/dex/internal/state"
)

// User-visible status messages.
const (
	MessageDegraded = "Offline mode: showing cached data"
	MessageFailed   = "Could not load Pokémon. Try again."
)

var (
	// ErrNoData is returned when a page cannot be fetched and no snapshot can stand in.
	ErrNoData = errors.New("catalog: no data available")
	// ErrPageRange is returned for page numbers outside [1, total].
	ErrPageRange = errors.New("catalog: page out of range")
)

// Source says where an outcome's records came from.
type Source string

const (
	SourceNetwork  Source = "network"
	SourceSnapshot Source = "snapshot"
	SourceMemory   Source = "memory"
)

// Outcome is the result of a page fetch or a search evaluation.
type Outcome struct {
	Records  []pokeapi.Record
	Source   Source
	Degraded bool  // served from the snapshot after a failed list fetch
	Err      error // underlying failure, set for degraded and hard failures
	Stale    bool  // superseded by a newer request; not published
}

// SnapshotStore is the durable offline snapshot. *offline.Store satisfies it.
type SnapshotStore interface {
	Load(ctx context.Context) []pokeapi.Record
	Save(ctx context.Context, records []pokeapi.Record)
}

// Connectivity reports whether the network path should be used.
// *connectivity.Monitor satisfies it.
type Connectivity interface {
	Online() bool
}

type forcer interface {
	Forced() bool
}

// Options tune the browser.
type Options struct {
	PageSize       int
	CatalogSize    int // 0 adopts the list endpoint's count
	SearchBatch    int
	SearchLimit    int
	MinQueryLength int
	Debounce       time.Duration
	Concurrency    int
	Logger         *slog.Logger
}

// DefaultOptions mirrors the configuration defaults.
func DefaultOptions() Options {
	return Options{
		PageSize:       20,
		CatalogSize:    1025,
		SearchBatch:    1000,
		SearchLimit:    50,
		MinQueryLength: 2,
		Debounce:       500 * time.Millisecond,
		Concurrency:    10,
	}
}

// Browser is the single controller for a browsing session.
type Browser struct {
	remote    pokeapi.Catalog
	snapshots SnapshotStore
	conn      Connectivity
	store     *state.Store
	opts      Options
	logger    *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu            sync.Mutex
	accumulated   []pokeapi.Record
	offline       []pokeapi.Record
	offlineLoaded bool
	pager         pagination.Pager
	catalogSize   int
	query         string
	pageToken     uint64
	searchToken   uint64
	timer         *time.Timer
	lastPage      Outcome
	lastPageNum   int
	closed        bool
}

// New builds a browser. snapshots, conn and store may be nil.
func New(remote pokeapi.Catalog, snapshots SnapshotStore, conn Connectivity, store *state.Store, opts Options) *Browser {
	defaults := DefaultOptions()
	if opts.PageSize <= 0 {
		opts.PageSize = defaults.PageSize
	}
	if opts.CatalogSize < 0 {
		opts.CatalogSize = 0
	}
	if opts.SearchBatch <= 0 {
		opts.SearchBatch = defaults.SearchBatch
	}
	if opts.SearchLimit <= 0 {
		opts.SearchLimit = defaults.SearchLimit
	}
	if opts.MinQueryLength < 0 {
		opts.MinQueryLength = 0
	}
	if opts.Debounce < 0 {
		opts.Debounce = 0
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = defaults.Concurrency
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	ctx, cancel := context.WithCancel(context.Background())
	b := &Browser{
		remote:      remote,
		snapshots:   snapshots,
		conn:        conn,
		store:       store,
		opts:        opts,
		logger:      logger,
		ctx:         ctx,
		cancel:      cancel,
		catalogSize: opts.CatalogSize,
		pager:       pagination.New(pagination.TotalPages(opts.CatalogSize, opts.PageSize)),
	}

	b.mu.Lock()
	b.publishLocked(nil)
	b.mu.Unlock()
	return b
}

// Start loads the offline snapshot and fetches the given page in the background.
// Pages outside the known range start on page 1.
func (b *Browser) Start(page int) {
	b.mu.Lock()
	if page >= 1 && (b.pager.Total == 0 || page <= b.pager.Total) {
		b.pager.Current = page
	}
	b.mu.Unlock()

	b.LoadOffline(b.ctx)

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	page = b.pager.Current
	token := b.beginPageLocked(page)
	b.mu.Unlock()

	b.goFetch(page, token)
}

// NextPage advances one page and fetches it. It reports whether the page changed.
func (b *Browser) NextPage() bool {
	return b.move(func(p *pagination.Pager) bool {
		if p.Total == 0 {
			p.Current++
			return true
		}
		return p.Next()
	})
}

// PrevPage moves back one page and fetches it.
func (b *Browser) PrevPage() bool {
	return b.move(func(p *pagination.Pager) bool { return p.Prev() })
}

// GoToPage jumps to page n. Pages outside [1, total] are ignored.
func (b *Browser) GoToPage(n int) bool {
	return b.move(func(p *pagination.Pager) bool {
		if p.Total == 0 && n >= 1 && n != p.Current {
			p.Current = n
			return true
		}
		return p.GoTo(n)
	})
}

// FirstPage jumps to page 1.
func (b *Browser) FirstPage() bool {
	return b.GoToPage(1)
}

// LastPage jumps to the last known page.
func (b *Browser) LastPage() bool {
	return b.move(func(p *pagination.Pager) bool { return p.GoTo(p.Total) })
}

// Retry clears the error and refetches the current page.
func (b *Browser) Retry() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	page := b.pager.Current
	token := b.beginPageLocked(page)
	b.mu.Unlock()

	b.goFetch(page, token)
}

// LoadOffline reads the durable snapshot into memory unless it is already loaded.
func (b *Browser) LoadOffline(ctx context.Context) {
	b.mu.Lock()
	loaded := b.offlineLoaded
	b.mu.Unlock()
	if loaded || b.snapshots == nil {
		return
	}

	records := b.snapshots.Load(ctx)

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.offlineLoaded {
		return
	}
	b.offline = records
	b.offlineLoaded = true
	b.logger.Info("offline snapshot loaded", slog.Int("records", len(records)))
	b.publishLocked(nil)
}

// HandleConnectivity reacts to a connectivity transition. Going offline loads
// the snapshot so pages and searches can use it immediately.
func (b *Browser) HandleConnectivity(online bool) {
	if online {
		b.logger.Info("connectivity restored")
	} else {
		b.logger.Warn("connectivity lost, switching to offline data")
		b.LoadOffline(b.ctx)
	}
	b.mu.Lock()
	b.publishLocked(nil)
	b.mu.Unlock()
}

// Wait blocks until in-flight background work (page fetches, pending searches) finishes.
func (b *Browser) Wait() {
	b.wg.Wait()
}

// Close cancels any pending search and background requests.
func (b *Browser) Close() {
	b.mu.Lock()
	b.closed = true
	b.searchToken++
	b.stopTimerLocked()
	b.mu.Unlock()
	b.cancel()
}

// CurrentPage returns the current page number.
func (b *Browser) CurrentPage() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.pager.Current
}

// TotalPages returns the known page count, 0 when not yet known.
func (b *Browser) TotalPages() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.pager.Total
}

// Query returns the raw search query.
func (b *Browser) Query() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.query
}

// Accumulated returns a copy of the accumulated collection, unpopulated slots included.
func (b *Browser) Accumulated() []pokeapi.Record {
	b.mu.Lock()
	defer b.mu.Unlock()
	return state.CloneRecords(b.accumulated)
}

// OfflineSnapshot returns a copy of the in-memory offline snapshot.
func (b *Browser) OfflineSnapshot() []pokeapi.Record {
	b.mu.Lock()
	defer b.mu.Unlock()
	return state.CloneRecords(b.offline)
}

func (b *Browser) move(step func(*pagination.Pager) bool) bool {
	b.mu.Lock()
	if b.closed || !step(&b.pager) {
		b.mu.Unlock()
		return false
	}
	page := b.pager.Current
	token := b.beginPageLocked(page)
	b.mu.Unlock()

	b.goFetch(page, token)
	return true
}

// goFetch runs a page fetch in the background under a token issued by the caller.
func (b *Browser) goFetch(page int, token uint64) {
	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		b.fetchPage(b.ctx, page, token)
	}()
}

func (b *Browser) online() bool {
	if b.conn == nil {
		return true
	}
	return b.conn.Online()
}

func (b *Browser) searchActiveLocked() bool {
	return strings.TrimSpace(b.query) != ""
}

// publishLocked pushes session fields plus fn's changes to the store. b.mu must be held.
func (b *Browser) publishLocked(fn func(*state.Snapshot)) {
	if b.store == nil {
		return
	}
	forced := false
	if f, ok := b.conn.(forcer); ok {
		forced = f.Forced()
	}
	online := b.online()
	b.store.Update(func(s *state.Snapshot) {
		if fn != nil {
			fn(s)
		}
		s.Query = b.query
		s.SearchActive = b.searchActiveLocked()
		s.CurrentPage = b.pager.Current
		s.TotalPages = b.pager.Total
		s.CatalogSize = b.catalogSize
		s.OfflineCount = len(b.offline)
		s.Online = online
		s.ForcedOffline = forced
	})
}

func (b *Browser) stopTimerLocked() {
	if b.timer == nil {
		return
	}
	if b.timer.Stop() {
		b.wg.Done()
	}
	b.timer = nil
}
