// Package metrics exposes Prometheus counters for the stream and fetch
// layers, plus an optional scrape endpoint.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	StreamConnects = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pulse_stream_connects_total",
			Help: "Stream connection attempts by result (attempt, open)",
		},
		[]string{"result"},
	)

	StreamErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "pulse_stream_errors_total",
			Help: "Stream transport errors",
		},
	)

	StreamReconnectsScheduled = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "pulse_stream_reconnects_scheduled_total",
			Help: "Reconnects scheduled after a transport error",
		},
	)

	StreamGiveUps = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "pulse_stream_give_ups_total",
			Help: "Subscriptions that exhausted their reconnect budget",
		},
	)

	StreamMessages = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pulse_stream_messages_total",
			Help: "Stream messages by outcome (merged, invalid)",
		},
		[]string{"outcome"},
	)

	FetchRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pulse_fetch_requests_total",
			Help: "One-shot HTTP requests by outcome (response, rate_limited, network_error)",
		},
		[]string{"outcome"},
	)

	FetchRateLimitWait = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "pulse_fetch_rate_limit_wait_seconds",
			Help:    "Server-advised waits honoured before retrying",
			Buckets: []float64{0.5, 1, 2, 5, 10, 30, 60},
		},
	)
)

// Stream connect results.
const (
	ConnectAttempt = "attempt"
	ConnectOpen    = "open"
)

// Stream message outcomes.
const (
	MessageMerged  = "merged"
	MessageInvalid = "invalid"
)

// Fetch outcomes.
const (
	FetchResponse     = "response"
	FetchRateLimited  = "rate_limited"
	FetchNetworkError = "network_error"
)

// RecordRateLimitWait observes a rate-limit wait.
func RecordRateLimitWait(d time.Duration) {
	FetchRateLimitWait.Observe(d.Seconds())
}

// NewRouter serves /metrics and /healthz.
func NewRouter() http.Handler {
	r := chi.NewRouter()
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())
	return r
}

// Serve runs the scrape endpoint on addr until ctx is cancelled.
func Serve(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           NewRouter(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
