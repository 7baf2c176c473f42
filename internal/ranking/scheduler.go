package ranking

import (
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/devpablofiz/Hotelier/internal/adapters/observability"
	"github.com/devpablofiz/Hotelier/internal/registry"
)

// Notifier receives the per-city change notifications produced by a tick.
// Dispatcher is the production implementation.
type Notifier interface {
	NotifyCityChanged(city string, ranked []registry.RankedHotel)
	NotifyTopChanged(city string, top registry.RankedHotel)
}

// Scheduler recomputes the ranked view on a fixed period and hands detected
// changes to the notifier. A tick still running when the next is due causes
// the next to be skipped, never queued.
type Scheduler struct {
	reg      *registry.Registry
	notifier Notifier
	interval time.Duration

	busy atomic.Bool
	stop chan struct{}
	done chan struct{}
}

func NewScheduler(reg *registry.Registry, n Notifier, interval time.Duration) *Scheduler {
	return &Scheduler{
		reg:      reg,
		notifier: n,
		interval: interval,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

func (s *Scheduler) Start() {
	go func() {
		defer close(s.done)
		t := time.NewTicker(s.interval)
		defer t.Stop()
		for {
			select {
			case <-s.stop:
				return
			case <-t.C:
				s.RunTick()
			}
		}
	}()
}

// Stop halts the loop and waits for an in-flight tick to finish.
func (s *Scheduler) Stop() {
	close(s.stop)
	<-s.done
}

// RunTick executes one snapshot-diff-dispatch cycle. Safe to call directly;
// concurrent invocations beyond the first are skipped.
func (s *Scheduler) RunTick() {
	if !s.busy.CompareAndSwap(false, true) {
		observability.ObserveTick("skipped", 0)
		log.Warn().Msg("ranking tick still running, skipping this period")
		return
	}
	defer s.busy.Store(false)

	newView := s.reg.SnapshotRankedView()
	changes := s.reg.ApplyRankedView(newView)
	observability.ObserveTick("ran", len(changes))

	// dispatch strictly outside registry locks; a subscriber may re-enter
	// the registry
	for _, c := range changes {
		s.notifier.NotifyCityChanged(c.City, c.Ranked)
		if c.TopChanged && len(c.Ranked) > 0 {
			s.notifier.NotifyTopChanged(c.City, c.Ranked[0])
		}
	}
	if len(changes) > 0 {
		log.Info().Int("cities", len(changes)).Msg("hotel rankings updated")
	}
}
