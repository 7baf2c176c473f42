package observability

import (
	"net/http"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	Commands = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "hotelier", Name: "commands_total", Help: "Protocol commands handled."},
		[]string{"command", "outcome"}, // outcome: ok|rejected|error
	)
	CommandLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "hotelier", Name: "command_duration_seconds",
			Help:    "Protocol command handling duration seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"command"},
	)
	SessionsActive = prometheus.NewGauge(
		prometheus.GaugeOpts{Namespace: "hotelier", Name: "sessions_active", Help: "Open client connections."},
	)
	RankingTicks = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "hotelier", Name: "ranking_ticks_total", Help: "Ranking scheduler ticks."},
		[]string{"result"}, // result: ran|skipped
	)
	RankingChanges = prometheus.NewCounter(
		prometheus.CounterOpts{Namespace: "hotelier", Name: "ranking_city_changes_total", Help: "Per-city ranking changes detected."},
	)
	Notifications = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "hotelier", Name: "notifications_total", Help: "Notification deliveries."},
		[]string{"channel", "outcome"}, // channel: callback|multicast ; outcome: ok|error|dropped
	)
	HTTPRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "hotelier", Name: "http_requests_total", Help: "Admin HTTP requests."},
		[]string{"route", "method", "status"},
	)
	HTTPLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "hotelier", Name: "http_request_duration_seconds",
			Help:    "Admin HTTP request duration seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route", "method"},
	)
)

// Serve starts a standalone metrics listener when METRICS_ADDR is set. It
// exposes the shared app registry, the same one mounted on the admin API.
func Serve() {
	addr := os.Getenv("METRICS_ADDR")
	if addr == "" {
		return // disabled
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", MetricsHandler(InitRegistry()))

	go func() {
		srv := &http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		}
		log.Info().Str("addr", addr).Msg("metrics server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("metrics server failed")
		}
	}()
}

var (
	registryOnce sync.Once
	registry     *prometheus.Registry
)

// InitRegistry returns the process-wide registry holding every hotelier
// collector. Idempotent: the standalone listener and the admin API mount the
// same registry.
func InitRegistry() *prometheus.Registry {
	registryOnce.Do(func() {
		registry = prometheus.NewRegistry()
		registry.MustRegister(
			Commands, CommandLatency, SessionsActive,
			RankingTicks, RankingChanges, Notifications,
			HTTPRequests, HTTPLatency,
		)
	})
	return registry
}

func MetricsHandler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}

func ObserveCommand(command, outcome string, dur time.Duration) {
	Commands.WithLabelValues(command, outcome).Inc()
	CommandLatency.WithLabelValues(command).Observe(dur.Seconds())
}

func ObserveTick(result string, changes int) { // result: ran|skipped
	RankingTicks.WithLabelValues(result).Inc()
	if changes > 0 {
		RankingChanges.Add(float64(changes))
	}
}

func ObserveNotification(channel, outcome string) { // outcome: ok|error|dropped
	Notifications.WithLabelValues(channel, outcome).Inc()
}

func ObserveHTTP(route, method string, status int, dur time.Duration) {
	HTTPRequests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	HTTPLatency.WithLabelValues(route, method).Observe(dur.Seconds())
}
