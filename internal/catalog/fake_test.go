package catalog

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/five82/dex/internal/connectivity"
	"github.com/five82/dex/internal/offline"
	"github.com/five82/dex/internal/pokeapi"
	"github.com/five82/dex/internal/state"
)

type listCall struct {
	limit, offset int
}

// fakeCatalog serves an in-memory catalog. Detail URLs are "mem://<name>".
type fakeCatalog struct {
	mu          sync.Mutex
	entries     []pokeapi.Summary
	details     map[string]pokeapi.Record
	failDetail  map[string]bool
	listErr     error
	listCalls   []listCall
	detailCalls int

	// onList runs before FetchList returns, outside the lock.
	onList func(limit, offset int)
}

func newFakeCatalog(names ...string) *fakeCatalog {
	f := &fakeCatalog{details: map[string]pokeapi.Record{}, failDetail: map[string]bool{}}
	for i, name := range names {
		f.add(i+1, name)
	}
	return f
}

func (f *fakeCatalog) add(id int, name string) {
	url := "mem://" + name
	f.entries = append(f.entries, pokeapi.Summary{Name: name, URL: url})
	f.details[url] = pokeapi.Record{
		ID:   id,
		Name: name,
		Sprites: pokeapi.Sprites{
			FrontDefault: "https://img/" + name + ".png",
		},
		Types:  []pokeapi.TypeSlot{{Slot: 1, Type: pokeapi.NamedLinkRef{Name: "normal"}}},
		Weight: 10 * id,
	}
}

func (f *fakeCatalog) FetchList(_ context.Context, limit, offset int) (pokeapi.ListPage, error) {
	f.mu.Lock()
	f.listCalls = append(f.listCalls, listCall{limit: limit, offset: offset})
	err := f.listErr
	hook := f.onList
	var page pokeapi.ListPage
	if err == nil {
		start := min(offset, len(f.entries))
		end := min(start+limit, len(f.entries))
		page = pokeapi.ListPage{
			Count:   len(f.entries),
			Results: append([]pokeapi.Summary(nil), f.entries[start:end]...),
		}
	}
	f.mu.Unlock()

	if hook != nil {
		hook(limit, offset)
	}
	if err != nil {
		return pokeapi.ListPage{}, err
	}
	return page, nil
}

func (f *fakeCatalog) FetchDetail(_ context.Context, url string) (pokeapi.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.detailCalls++
	if f.failDetail[url] {
		return pokeapi.Record{}, &pokeapi.StatusError{URL: url, Code: 500}
	}
	rec, ok := f.details[url]
	if !ok {
		return pokeapi.Record{}, &pokeapi.StatusError{URL: url, Code: 404}
	}
	return rec, nil
}

func (f *fakeCatalog) setListErr(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listErr = err
}

func (f *fakeCatalog) setOnList(hook func(limit, offset int)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.onList = hook
}

func (f *fakeCatalog) calls() []listCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]listCall(nil), f.listCalls...)
}

func (f *fakeCatalog) searchCalls(batch int) int {
	n := 0
	for _, c := range f.calls() {
		if c.limit == batch && c.offset == 0 {
			n++
		}
	}
	return n
}

// fakeSnapshots stores reduced records in memory.
type fakeSnapshots struct {
	mu    sync.Mutex
	data  []pokeapi.Record
	saves [][]pokeapi.Record
	loads int
}

func (f *fakeSnapshots) Load(context.Context) []pokeapi.Record {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.loads++
	return state.CloneRecords(f.data)
}

func (f *fakeSnapshots) Save(_ context.Context, records []pokeapi.Record) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.data = offline.Reduce(records)
	f.saves = append(f.saves, f.data)
}

func (f *fakeSnapshots) saveCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.saves)
}

// monNames returns n base-form names: mon001, mon002, ...
func monNames(n int) []string {
	names := make([]string, n)
	for i := range names {
		names[i] = fmt.Sprintf("mon%03d", i+1)
	}
	return names
}

func snapshotRecords(names ...string) []pokeapi.Record {
	out := make([]pokeapi.Record, len(names))
	for i, name := range names {
		out[i] = pokeapi.Record{ID: i + 1, Name: name}
	}
	return out
}

type harness struct {
	remote    *fakeCatalog
	snapshots *fakeSnapshots
	monitor   *connectivity.Monitor
	store     *state.Store
	browser   *Browser
}

func newHarness(t *testing.T, remote *fakeCatalog, opts Options) *harness {
	t.Helper()
	h := &harness{
		remote:    remote,
		snapshots: &fakeSnapshots{},
		monitor:   connectivity.NewMonitor(true),
		store:     &state.Store{},
	}
	if opts.PageSize == 0 {
		opts = DefaultOptions()
		opts.Debounce = 10 * time.Millisecond
	}
	h.browser = New(remote, h.snapshots, h.monitor, h.store, opts)
	h.monitor.OnChange(h.browser.HandleConnectivity)
	t.Cleanup(func() {
		h.browser.Close()
		h.browser.Wait()
	})
	return h
}

func names(records []pokeapi.Record) []string {
	out := make([]string, len(records))
	for i, r := range records {
		out[i] = r.Name
	}
	return out
}

var errNetwork = errors.New("dial tcp: network is unreachable")
