package state

import (
	"sync"
	"testing"
	"time"

	"github.com/five82/dex/internal/pokeapi"
)

func record(id int, name string, types ...string) pokeapi.Record {
	r := pokeapi.Record{ID: id, Name: name}
	for i, t := range types {
		r.Types = append(r.Types, pokeapi.TypeSlot{Slot: i + 1, Type: pokeapi.NamedLinkRef{Name: t}})
	}
	return r
}

func TestStore_UpdateAndSnapshotClone(t *testing.T) {
	var s Store

	before := time.Now()
	s.Update(func(snap *Snapshot) {
		snap.Displayed = []pokeapi.Record{record(1, "bulbasaur", "grass", "poison"), record(2, "ivysaur")}
		snap.CurrentPage = 1
		snap.LastUpdated = time.Now()
	})

	snap := s.Snapshot()
	if len(snap.Displayed) != 2 || snap.Displayed[0].ID != 1 {
		t.Fatalf("snapshot displayed = %#v, want 2 items", snap.Displayed)
	}
	if snap.LastUpdated.Before(before) {
		t.Fatalf("LastUpdated = %v, want >= %v", snap.LastUpdated, before)
	}

	// Returned snapshot should be independent of the stored one.
	snap.Displayed[0].ID = 999
	snap.Displayed[0].Types[0].Type.Name = "fire"
	snap2 := s.Snapshot()
	if snap2.Displayed[0].ID != 1 {
		t.Fatalf("Snapshot should clone records; got id %d want 1", snap2.Displayed[0].ID)
	}
	if snap2.Displayed[0].Types[0].Type.Name != "grass" {
		t.Fatalf("Snapshot should clone type slots; got %q", snap2.Displayed[0].Types[0].Type.Name)
	}
}

func TestStore_UpdateKeepsUntouchedFields(t *testing.T) {
	var s Store
	s.Update(func(snap *Snapshot) {
		snap.Displayed = []pokeapi.Record{record(1, "bulbasaur")}
		snap.Query = "bulb"
	})
	s.Update(func(snap *Snapshot) { snap.Loading = true })

	snap := s.Snapshot()
	if len(snap.Displayed) != 1 || snap.Query != "bulb" || !snap.Loading {
		t.Fatalf("snapshot = %+v", snap)
	}
}

func TestSnapshot_ShowErrorScreen(t *testing.T) {
	tests := []struct {
		name string
		snap Snapshot
		want bool
	}{
		{"no error", Snapshot{}, false},
		{"error with nothing to show", Snapshot{Error: "Could not load"}, true},
		{"error with records", Snapshot{Error: "Could not load", Displayed: []pokeapi.Record{record(1, "bulbasaur")}}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.snap.ShowErrorScreen(); got != tt.want {
				t.Fatalf("ShowErrorScreen() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestStore_ChangesCoalesces(t *testing.T) {
	var s Store
	ch := s.Changes()
	if ch != s.Changes() {
		t.Fatalf("Changes should return the same channel")
	}

	for i := 0; i < 5; i++ {
		s.Update(func(snap *Snapshot) { snap.CurrentPage = i })
	}

	select {
	case <-ch:
	default:
		t.Fatalf("expected a change signal")
	}
	select {
	case <-ch:
		t.Fatalf("signals should be coalesced")
	default:
	}
}

func TestStore_SubscribeFansOut(t *testing.T) {
	var s Store
	a, cancelA := s.Subscribe()
	b, cancelB := s.Subscribe()
	defer cancelB()

	s.Update(func(snap *Snapshot) { snap.Online = true })
	for _, ch := range []<-chan struct{}{a, b} {
		select {
		case <-ch:
		default:
			t.Fatalf("subscriber missed signal")
		}
	}

	cancelA()
	cancelA()
	s.Update(func(snap *Snapshot) { snap.Online = false })
	select {
	case <-a:
		t.Fatalf("cancelled subscriber received signal")
	default:
	}
	select {
	case <-b:
	default:
		t.Fatalf("remaining subscriber missed signal")
	}
}

func TestStore_ConcurrentAccess(t *testing.T) {
	var s Store
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func(n int) {
			defer wg.Done()
			s.Update(func(snap *Snapshot) {
				snap.Displayed = append(snap.Displayed, record(n, "x"))
			})
		}(i)
		go func() {
			defer wg.Done()
			_ = s.Snapshot()
		}()
	}
	wg.Wait()
	if got := len(s.Snapshot().Displayed); got != 8 {
		t.Fatalf("len(Displayed) = %d, want 8", got)
	}
}
