// Package metrics provides Prometheus instrumentation for the display
// services. It exposes counters for validation outcomes and violations,
// registry refresh health, and gauges/histograms for the rendering side.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// ValidationsTotal counts message validations, labeled by result:
	// "accepted", "rejected", or "error".
	ValidationsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "display_validations_total",
		Help: "Total number of message validations",
	}, []string{"result"})

	// ViolationsTotal counts individual violations, labeled by reason.
	ViolationsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "display_violations_total",
		Help: "Total number of validation violations",
	}, []string{"reason"})

	// RegistryRefreshes counts icon registry refresh attempts, labeled by
	// outcome: "ok" or "error".
	RegistryRefreshes = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "display_registry_refreshes_total",
		Help: "Total number of icon registry refresh attempts",
	}, []string{"outcome"})

	// RegistryFallbacks counts validations served from a stale or warm-cache
	// snapshot because the upstream registry was unreachable.
	RegistryFallbacks = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "display_registry_fallbacks_total",
		Help: "Validations served from a stale or cached icon snapshot",
	})

	// SnapshotSize tracks the number of icon codes in the current snapshot.
	SnapshotSize = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "display_icon_snapshot_size",
		Help: "Number of icon codes in the current registry snapshot",
	})

	// RenderLatency records the time from gateway accept to renderer apply.
	RenderLatency = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "display_render_latency_seconds",
		Help:    "Time from gateway accept to renderer state update",
		Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
	})

	// DisplayUpdates counts renderer state changes, labeled by command type:
	// "render" or "clear".
	DisplayUpdates = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "display_updates_total",
		Help: "Total number of display state updates",
	}, []string{"command"})

	// StreamSubscribers tracks the current number of state-stream
	// WebSocket subscribers on the renderer.
	StreamSubscribers = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "display_stream_subscribers",
		Help: "Current number of display state stream subscribers",
	})
)

func init() {
	prometheus.MustRegister(
		ValidationsTotal,
		ViolationsTotal,
		RegistryRefreshes,
		RegistryFallbacks,
		SnapshotSize,
		RenderLatency,
		DisplayUpdates,
		StreamSubscribers,
	)
}

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
