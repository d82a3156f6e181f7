// Package metrics defines the Prometheus collectors exported by Starfield.
//
// Collectors are registered with the default registry at package init and
// exposed by the star server at /metrics.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTPRequestDuration tracks request latency by route pattern.
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "starfield_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)

	// StarMutations counts store mutations by event type.
	StarMutations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "starfield_star_mutations_total",
			Help: "Total number of star mutations",
		},
		[]string{"event"},
	)

	// StreamConnections tracks open streaming connections by transport.
	StreamConnections = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "starfield_stream_connections",
			Help: "Current number of open star update streams",
		},
		[]string{"transport"}, // "sse", "ws"
	)

	// StreamEventsSent counts updates written to stream clients.
	StreamEventsSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "starfield_stream_events_sent_total",
			Help: "Total number of star updates written to stream clients",
		},
		[]string{"transport"},
	)

	// StreamEvictions counts subscriptions evicted for falling behind.
	StreamEvictions = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "starfield_stream_evictions_total",
			Help: "Total number of stream subscriptions evicted because their buffer was full",
		},
	)

	// AudioTriggers counts audio trigger requests by outcome.
	AudioTriggers = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "starfield_audio_triggers_total",
			Help: "Total number of star sound trigger requests",
		},
		[]string{"outcome"}, // "accepted", "rate_limited", "invalid"
	)

	// AudioEventLogErrors counts failed event log writes.
	AudioEventLogErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "starfield_audio_event_log_errors_total",
			Help: "Total number of audio event log write failures",
		},
	)
)

// RecordHTTPRequest records a completed HTTP request.
func RecordHTTPRequest(method, route string, status int, duration time.Duration) {
	HTTPRequestDuration.WithLabelValues(method, route, strconv.Itoa(status)).Observe(duration.Seconds())
}

// RecordMutation counts a store mutation.
func RecordMutation(event string) {
	StarMutations.WithLabelValues(event).Inc()
}

// TrackStream increments or decrements the open stream gauge.
func TrackStream(transport string, open bool) {
	if open {
		StreamConnections.WithLabelValues(transport).Inc()
	} else {
		StreamConnections.WithLabelValues(transport).Dec()
	}
}
