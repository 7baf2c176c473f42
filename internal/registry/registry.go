// Package registry owns the mutable hotel set and the stored per-city ranked
// view. All mutation goes through exclusive locks; reads return value copies
// so callers never alias live state.
package registry

import (
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/devpablofiz/Hotelier/internal/domain"
)

// RankedHotel is one entry of a ranked view, captured at snapshot time so
// diffing and digest formatting never touch live hotels.
type RankedHotel struct {
	ID    int64
	Name  string
	Score float64
}

// RankedView maps city name to that city's hotels, descending by score.
type RankedView map[string][]RankedHotel

// CityChange reports one city whose ranking differs from the stored view.
type CityChange struct {
	City       string
	Ranked     []RankedHotel
	TopChanged bool
}

type Registry struct {
	mu     sync.RWMutex
	hotels []*domain.Hotel
	byID   map[int64]*domain.Hotel

	viewMu sync.RWMutex
	view   RankedView

	now func() time.Time
}

// New builds a registry over the loaded catalog. now is injected so scoring
// and review timestamps stay deterministic under test; nil means wall clock.
func New(hotels []*domain.Hotel, now func() time.Time) *Registry {
	if now == nil {
		now = time.Now
	}
	byID := make(map[int64]*domain.Hotel, len(hotels))
	for _, h := range hotels {
		byID[h.ID] = h
	}
	return &Registry{
		hotels: hotels,
		byID:   byID,
		view:   RankedView{},
		now:    now,
	}
}

// SubmitReview records a review against the hotel matching (name, city)
// case-insensitively. Returns false, with no mutation, when no hotel matches.
func (r *Registry) SubmitReview(name, city string, overall, location, cleanliness, service, price int) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	h := r.lookupLocked(name, city)
	if h == nil {
		return false
	}
	h.AddReview(overall, location, cleanliness, service, price, r.now())
	return true
}

// FindByNameAndCity returns a copy of the first hotel matching both fields
// case-insensitively.
func (r *Registry) FindByNameAndCity(name, city string) (domain.HotelView, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h := r.lookupLocked(name, city)
	if h == nil {
		return domain.HotelView{}, false
	}
	return h.View(), true
}

// lookupLocked scans in insertion order; first match wins when the catalog
// carries duplicate (name, city) pairs.
func (r *Registry) lookupLocked(name, city string) *domain.Hotel {
	for _, h := range r.hotels {
		if strings.EqualFold(h.Name, name) && strings.EqualFold(h.City, city) {
			return h
		}
	}
	return nil
}

// ListByCity returns the city's hotels in stored-ranking order as defensive
// copies. Unknown cities yield an empty, non-nil slice. Hotels that left the
// live set since the last tick are skipped.
func (r *Registry) ListByCity(city string) []domain.HotelView {
	key := CapitalizeCity(city)

	r.viewMu.RLock()
	entries := append([]RankedHotel(nil), r.view[key]...)
	r.viewMu.RUnlock()

	out := make([]domain.HotelView, 0, len(entries))
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, e := range entries {
		if h, ok := r.byID[e.ID]; ok {
			out = append(out, h.View())
		}
	}
	return out
}

// SnapshotRankedView groups the live hotels by city and sorts each city
// descending by score. The sort is stable: equal scores keep catalog order.
func (r *Registry) SnapshotRankedView() RankedView {
	now := r.now()

	r.mu.RLock()
	defer r.mu.RUnlock()

	view := RankedView{}
	for _, h := range r.hotels {
		view[h.City] = append(view[h.City], RankedHotel{
			ID:    h.ID,
			Name:  h.Name,
			Score: h.Score(now),
		})
	}
	for _, ranked := range view {
		sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].Score > ranked[j].Score })
	}
	return view
}

// ApplyRankedView diffs newView against the stored view and replaces changed
// cities, returning the changes in deterministic city order so the caller can
// dispatch notifications after the lock is released. Two city rankings are
// equal iff their id sequences match in order and length; cities absent from
// newView are carried forward untouched.
func (r *Registry) ApplyRankedView(newView RankedView) []CityChange {
	cities := make([]string, 0, len(newView))
	for city := range newView {
		cities = append(cities, city)
	}
	sort.Strings(cities)

	r.viewMu.Lock()
	defer r.viewMu.Unlock()

	var changes []CityChange
	for _, city := range cities {
		ranked := newView[city]
		old := r.view[city]
		if sameRanking(ranked, old) {
			continue
		}
		r.view[city] = ranked
		changes = append(changes, CityChange{
			City:       city,
			Ranked:     append([]RankedHotel(nil), ranked...),
			TopChanged: len(old) == 0 || old[0].ID != ranked[0].ID,
		})
	}
	return changes
}

// WarmRankedView seeds the stored view from the current hotel set without
// reporting changes. Called once at startup so searches work before the first
// scheduler tick fires.
func (r *Registry) WarmRankedView() {
	r.ApplyRankedView(r.SnapshotRankedView())
}

func sameRanking(a, b []RankedHotel) bool {
	if b == nil || len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].ID != b[i].ID {
			return false
		}
	}
	return true
}

// SnapshotHotels deep-copies the hotel set for the persistence tick so file
// I/O never runs under the registry lock.
func (r *Registry) SnapshotHotels() []*domain.Hotel {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*domain.Hotel, len(r.hotels))
	for i, h := range r.hotels {
		out[i] = h.Clone()
	}
	return out
}

// CapitalizeCity normalizes a city name to the capitalized-first-letter form
// used for all ranked-view and subscription keys.
func CapitalizeCity(city string) string {
	if city == "" {
		return city
	}
	return strings.ToUpper(city[:1]) + city[1:]
}
