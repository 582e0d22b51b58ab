package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Controller and session counters, partitioned by controller mode.

var (
	controllerOutcomesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "reelbrainz",
		Subsystem: "controller",
		Name:      "outcomes_total",
		Help:      "Controller decisions by outcome",
	}, []string{"mode", "outcome"})

	controllerResetsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "reelbrainz",
		Subsystem: "controller",
		Name:      "resets_total",
		Help:      "Forced releases through Reset",
	}, []string{"mode"})

	pulseHoldSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "reelbrainz",
		Subsystem: "controller",
		Name:      "pulse_hold_seconds",
		Help:      "Hold duration of proportional pulses",
		Buckets:   []float64{0.002, 0.004, 0.006, 0.008, 0.01, 0.012, 0.014, 0.016, 0.018, 0.025, 0.05},
	})

	actuatorErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "reelbrainz",
		Subsystem: "actuator",
		Name:      "errors_total",
		Help:      "Failed actuator commands (swallowed by the controller)",
	}, []string{"op"})

	sessionTickDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "reelbrainz",
		Subsystem: "session",
		Name:      "tick_duration_seconds",
		Help:      "Time spent sampling and deciding per tick",
		Buckets:   []float64{0.0001, 0.0005, 0.001, 0.0025, 0.005, 0.01, 0.02, 0.05, 0.1},
	})

	sessionSamplerErrorsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "reelbrainz",
		Subsystem: "session",
		Name:      "sampler_errors_total",
		Help:      "Sessions ended by a sampler failure",
	})
)

// runMetricsServer serves /metrics on addr until ctx is canceled.
func runMetricsServer(ctx context.Context, addr string, logger *slog.Logger) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Info("metrics listening", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
