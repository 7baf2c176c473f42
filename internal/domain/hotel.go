package domain

import (
	"math"
	"time"
)

// ReviewEvent is the immutable trace of one submitted review, kept for the
// lifetime of the hotel so the rank score can always be recomputed from
// history instead of from the lossy running averages.
type ReviewEvent struct {
	Score       float64   `json:"score"`
	SubmittedAt time.Time `json:"submittedAt"`
}

type Hotel struct {
	ID          int64    `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	City        string   `json:"city"`
	Phone       string   `json:"phone"`
	Services    []string `json:"services"`

	// Running category averages in [0,5], maintained incrementally.
	Overall     float64 `json:"overall"`
	Location    float64 `json:"location"`
	Cleanliness float64 `json:"cleanliness"`
	Service     float64 `json:"service"`
	Price       float64 `json:"price"`

	ReviewCount int           `json:"reviewCount"`
	Reviews     []ReviewEvent `json:"reviews"`
}

// AddReview folds one review into the running averages and appends the
// event used for scoring. The overall score is valued over categories (0.5x)
// in the composite. Callers must hold the registry write lock.
func (h *Hotel) AddReview(overall, location, cleanliness, service, price int, now time.Time) {
	n := float64(h.ReviewCount)
	h.Overall = (h.Overall*n + float64(overall)) / (n + 1)
	h.Location = (h.Location*n + float64(location)) / (n + 1)
	h.Cleanliness = (h.Cleanliness*n + float64(cleanliness)) / (n + 1)
	h.Service = (h.Service*n + float64(service)) / (n + 1)
	h.Price = (h.Price*n + float64(price)) / (n + 1)

	composite := float64(overall) + float64(location+cleanliness+service+price)/2.0
	h.Reviews = append(h.Reviews, ReviewEvent{Score: composite, SubmittedAt: now})
	h.ReviewCount++
}

// Score computes the rank score from the full review history at the given
// instant. Recent reviews are weighted up; the weight decays with age toward
// a 0.2 floor, so stale history still counts but barely. A logarithmic factor
// rewards review volume. Zero reviews score exactly 0.
func (h *Hotel) Score(now time.Time) float64 {
	var total float64
	for _, rv := range h.Reviews {
		months := monthsBetween(rv.SubmittedAt, now)
		weight := 1.2 - math.Tanh(float64(months)+0.2)
		total += rv.Score * weight
	}
	return total * math.Log(1+float64(h.ReviewCount))
}

// monthsBetween counts whole calendar months from a to b, negative if b
// precedes a.
func monthsBetween(a, b time.Time) int {
	m := (b.Year()-a.Year())*12 + int(b.Month()) - int(a.Month())
	if b.Day() < a.Day() {
		m--
	}
	return m
}

// Clone deep-copies the hotel, including its review history. Used to hand a
// consistent snapshot to the persistence layer without holding registry locks
// across file I/O.
func (h *Hotel) Clone() *Hotel {
	c := *h
	c.Services = append([]string(nil), h.Services...)
	c.Reviews = append([]ReviewEvent(nil), h.Reviews...)
	return &c
}

// HotelView is the read model returned by registry lookups: a value copy that
// callers may format and hold without racing registry writers.
type HotelView struct {
	ID          int64    `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	City        string   `json:"city"`
	Phone       string   `json:"phone"`
	Services    []string `json:"services"`
	Overall     float64  `json:"overall"`
	Location    float64  `json:"location"`
	Cleanliness float64  `json:"cleanliness"`
	Service     float64  `json:"service"`
	Price       float64  `json:"price"`
	ReviewCount int      `json:"reviewCount"`
}

func (h *Hotel) View() HotelView {
	return HotelView{
		ID:          h.ID,
		Name:        h.Name,
		Description: h.Description,
		City:        h.City,
		Phone:       h.Phone,
		Services:    append([]string(nil), h.Services...),
		Overall:     h.Overall,
		Location:    h.Location,
		Cleanliness: h.Cleanliness,
		Service:     h.Service,
		Price:       h.Price,
		ReviewCount: h.ReviewCount,
	}
}
