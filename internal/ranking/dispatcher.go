// Package ranking runs the periodic re-rank and fans detected changes out to
// the two notification channels: synchronous per-city callbacks and a
// best-effort multicast datagram on top-rank changes.
package ranking

import (
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/devpablofiz/Hotelier/internal/adapters/observability"
	"github.com/devpablofiz/Hotelier/internal/domain"
	"github.com/devpablofiz/Hotelier/internal/registry"
)

// Dispatcher delivers ranking-change notifications. Per-city subscribers are
// invoked synchronously in registration order; global sinks (transport
// adapters such as the redis publisher) receive every city change.
type Dispatcher struct {
	mu        sync.Mutex
	listeners map[string][]domain.RankingListener
	global    []domain.RankingListener

	mcast   *MulticastSender // nil when multicast is disabled
	limiter *rate.Limiter
}

func NewDispatcher(mcast *MulticastSender) *Dispatcher {
	return &Dispatcher{
		listeners: map[string][]domain.RankingListener{},
		mcast:     mcast,
		// top-change datagrams are damped to one per second with a small
		// burst; excess sends are dropped and counted
		limiter: rate.NewLimiter(rate.Limit(1), 3),
	}
}

// RegisterSubscriber adds a listener for one city. Cities are keyed in
// capitalized-first-letter form, matching how the catalog stores them.
func (d *Dispatcher) RegisterSubscriber(city string, l domain.RankingListener) {
	key := registry.CapitalizeCity(city)
	d.mu.Lock()
	defer d.mu.Unlock()
	d.listeners[key] = append(d.listeners[key], l)
}

// RemoveSubscriber detaches a listener by identity. The city entry is pruned
// as soon as its last subscriber leaves.
func (d *Dispatcher) RemoveSubscriber(city string, l domain.RankingListener) {
	key := registry.CapitalizeCity(city)
	d.mu.Lock()
	defer d.mu.Unlock()
	ls := d.listeners[key]
	for i, cur := range ls {
		if cur == l {
			d.listeners[key] = append(ls[:i], ls[i+1:]...)
			break
		}
	}
	if len(d.listeners[key]) == 0 {
		delete(d.listeners, key)
	}
}

// RegisterGlobal adds a sink invoked for every city change, regardless of
// per-city subscriptions.
func (d *Dispatcher) RegisterGlobal(l domain.RankingListener) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.global = append(d.global, l)
}

// NotifyCityChanged formats the digest and invokes every current subscriber
// for the city. The subscriber list is copied under the lock and invoked
// after release: a listener may re-enter Register/Remove without deadlock.
// Delivery failures are logged and do not abort the remaining deliveries, nor
// do they evict the failing listener.
func (d *Dispatcher) NotifyCityChanged(city string, ranked []registry.RankedHotel) {
	digest := Digest(city, ranked)

	d.mu.Lock()
	targets := append([]domain.RankingListener(nil), d.listeners[city]...)
	targets = append(targets, d.global...)
	d.mu.Unlock()

	for _, l := range targets {
		if err := l.OnRankingUpdate(city, digest); err != nil {
			observability.ObserveNotification("callback", "error")
			log.Warn().Err(err).Str("city", city).Msg("ranking listener delivery failed")
			continue
		}
		observability.ObserveNotification("callback", "ok")
	}
}

// NotifyTopChanged emits one best-effort multicast datagram announcing the
// city's new rank-1 hotel.
func (d *Dispatcher) NotifyTopChanged(city string, top registry.RankedHotel) {
	if d.mcast == nil {
		return
	}
	if !d.limiter.Allow() {
		observability.ObserveNotification("multicast", "dropped")
		log.Warn().Str("city", city).Msg("multicast announcement dropped by rate limit")
		return
	}
	msg := fmt.Sprintf("New top hotel in %s: %s with score %s", city, top.Name, formatScore(top.Score))
	if err := d.mcast.Send(msg); err != nil {
		observability.ObserveNotification("multicast", "error")
		log.Warn().Err(err).Str("city", city).Msg("multicast send failed")
		return
	}
	observability.ObserveNotification("multicast", "ok")
}

// Digest renders the human-readable ranking summary pushed to subscribers.
func Digest(city string, ranked []registry.RankedHotel) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Updated rankings for %s:\n", city)
	for i, h := range ranked {
		fmt.Fprintf(&b, "%d. %s - Score: %s\n", i+1, h.Name, formatScore(h.Score))
	}
	return b.String()
}

func formatScore(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
