package registry_test

import (
	"math"
	"sync"
	"testing"
	"time"

	"github.com/devpablofiz/Hotelier/internal/domain"
	"github.com/devpablofiz/Hotelier/internal/registry"
)

var now = time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)

func fixedNow() time.Time { return now }

func seed() []*domain.Hotel {
	return []*domain.Hotel{
		{ID: 1, Name: "Hotel Arno", City: "Pisa", Phone: "050-1", Services: []string{"wifi"}},
		{ID: 2, Name: "Hotel Torre", City: "Pisa", Phone: "050-2"},
		{ID: 3, Name: "Hotel Duomo", City: "Milano", Phone: "02-1"},
	}
}

func TestSubmitReview_HitAndMiss(t *testing.T) {
	reg := registry.New(seed(), fixedNow)

	if !reg.SubmitReview("hotel ARNO", "pisa", 5, 4, 3, 2, 1) {
		t.Fatalf("case-insensitive lookup should hit")
	}
	if reg.SubmitReview("Hotel Arno", "Milano", 5, 4, 3, 2, 1) {
		t.Fatalf("wrong city should miss")
	}

	hv, ok := reg.FindByNameAndCity("Hotel Arno", "Pisa")
	if !ok {
		t.Fatalf("expected hotel")
	}
	if hv.ReviewCount != 1 || hv.Overall != 5 || hv.Location != 4 {
		t.Fatalf("averages not applied: %+v", hv)
	}
}

func TestSubmitReview_Concurrent_NoLostUpdates(t *testing.T) {
	reg := registry.New(seed(), fixedNow)

	const workers = 16
	const perWorker = 25
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				if !reg.SubmitReview("Hotel Arno", "Pisa", 4, 3, 3, 3, 3) {
					t.Error("unexpected miss")
					return
				}
			}
		}()
	}
	wg.Wait()

	hv, _ := reg.FindByNameAndCity("Hotel Arno", "Pisa")
	if hv.ReviewCount != workers*perWorker {
		t.Fatalf("reviewCount = %d, want %d", hv.ReviewCount, workers*perWorker)
	}
	// identical inputs, so the running mean must be exact in any order
	if math.Abs(hv.Overall-4) > 1e-9 || math.Abs(hv.Location-3) > 1e-9 {
		t.Fatalf("averages drifted: %+v", hv)
	}
}

func TestSnapshotRankedView_SortedDescending(t *testing.T) {
	reg := registry.New(seed(), fixedNow)
	reg.SubmitReview("Hotel Torre", "Pisa", 5, 5, 5, 5, 5)
	reg.SubmitReview("Hotel Arno", "Pisa", 1, 1, 1, 1, 1)

	view := reg.SnapshotRankedView()
	pisa := view["Pisa"]
	if len(pisa) != 2 {
		t.Fatalf("Pisa entries = %d, want 2", len(pisa))
	}
	if pisa[0].ID != 2 || pisa[1].ID != 1 {
		t.Fatalf("expected Torre before Arno, got %+v", pisa)
	}
	if pisa[0].Score <= pisa[1].Score {
		t.Fatalf("not descending: %+v", pisa)
	}
}

func TestSnapshotRankedView_StableOnTies(t *testing.T) {
	// Two hotels with identical histories score identically; catalog order
	// must break the tie.
	reg := registry.New(seed(), fixedNow)
	reg.SubmitReview("Hotel Arno", "Pisa", 3, 3, 3, 3, 3)
	reg.SubmitReview("Hotel Torre", "Pisa", 3, 3, 3, 3, 3)

	view := reg.SnapshotRankedView()
	pisa := view["Pisa"]
	if pisa[0].Score != pisa[1].Score {
		t.Fatalf("expected a tie, got %+v", pisa)
	}
	if pisa[0].ID != 1 || pisa[1].ID != 2 {
		t.Fatalf("tie must preserve insertion order, got %+v", pisa)
	}
}

func TestListByCity(t *testing.T) {
	reg := registry.New(seed(), fixedNow)
	reg.WarmRankedView()

	got := reg.ListByCity("pisa")
	if len(got) != 2 {
		t.Fatalf("lowercase city should resolve via capitalization, got %d entries", len(got))
	}

	// defensive copy: mutating the result must not leak into the registry
	got[0].Services = append(got[0].Services, "spa")
	again := reg.ListByCity("Pisa")
	for _, hv := range again {
		for _, s := range hv.Services {
			if s == "spa" {
				t.Fatalf("ListByCity leaked live state")
			}
		}
	}

	if empty := reg.ListByCity("Atlantis"); empty == nil || len(empty) != 0 {
		t.Fatalf("unknown city must return empty non-nil slice, got %#v", empty)
	}
}

func TestApplyRankedView_DiffSemantics(t *testing.T) {
	reg := registry.New(seed(), fixedNow)
	reg.WarmRankedView()

	// unchanged snapshot -> no changes
	if changes := reg.ApplyRankedView(reg.SnapshotRankedView()); len(changes) != 0 {
		t.Fatalf("unchanged view reported changes: %+v", changes)
	}

	// push Torre above Arno: order change and top change in Pisa
	reg.SubmitReview("Hotel Torre", "Pisa", 5, 5, 5, 5, 5)
	changes := reg.ApplyRankedView(reg.SnapshotRankedView())
	if len(changes) != 1 || changes[0].City != "Pisa" {
		t.Fatalf("want one Pisa change, got %+v", changes)
	}
	if !changes[0].TopChanged {
		t.Fatalf("first place moved from Arno to Torre, TopChanged should be true")
	}

	// another Torre review keeps order but changes nothing id-wise
	reg.SubmitReview("Hotel Torre", "Pisa", 5, 5, 5, 5, 5)
	if changes := reg.ApplyRankedView(reg.SnapshotRankedView()); len(changes) != 0 {
		t.Fatalf("same id order must not be a change: %+v", changes)
	}
}

func TestSnapshotHotels_DeepCopy(t *testing.T) {
	reg := registry.New(seed(), fixedNow)
	snap := reg.SnapshotHotels()

	reg.SubmitReview("Hotel Arno", "Pisa", 5, 5, 5, 5, 5)
	if snap[0].ReviewCount != 0 || len(snap[0].Reviews) != 0 {
		t.Fatalf("snapshot shares live hotel state: %+v", snap[0])
	}
}

func TestCapitalizeCity(t *testing.T) {
	if got := registry.CapitalizeCity("milano"); got != "Milano" {
		t.Fatalf("got %q", got)
	}
	if got := registry.CapitalizeCity(""); got != "" {
		t.Fatalf("got %q", got)
	}
}
