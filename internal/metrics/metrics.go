// Package metrics holds the Prometheus collectors for the focus pipeline.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Inference metrics
	FramesProcessed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gofocus_frames_processed_total",
			Help: "Frames run through the inference pipeline",
		},
		[]string{"face"},
	)

	InferenceErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gofocus_inference_errors_total",
			Help: "Transient per-frame detector failures",
		},
		[]string{"stage"},
	)

	InferenceDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "gofocus_inference_duration_seconds",
			Help:    "Time spent processing one frame",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1},
		},
	)

	PhoneConfidence = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "gofocus_phone_confidence",
			Help: "Current phone hysteresis counter (0-10)",
		},
	)

	// Session metrics
	SlicesRecorded = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gofocus_slices_recorded_total",
			Help: "Time slices appended to sessions",
		},
		[]string{"status", "distraction"},
	)

	CatchUpBatches = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "gofocus_sampler_catchup_batches_total",
			Help: "Sampler wakeups that emitted more than one slice",
		},
	)

	SessionsActive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "gofocus_sessions_active",
			Help: "Sessions currently being sampled",
		},
	)

	SessionsCompleted = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "gofocus_sessions_completed_total",
			Help: "Sessions stopped and persisted",
		},
	)

	FocusScore = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "gofocus_session_focus_score",
			Help:    "Focus score of completed sessions",
			Buckets: prometheus.LinearBuckets(0, 10, 11),
		},
	)

	// Ingest metrics
	MessagesReceived = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gofocus_ingest_messages_total",
			Help: "Websocket messages received from clients",
		},
		[]string{"type"},
	)
)

// Register registers all collectors with the given registerer.
func Register(reg prometheus.Registerer) {
	reg.MustRegister(
		FramesProcessed,
		InferenceErrors,
		InferenceDuration,
		PhoneConfidence,
		SlicesRecorded,
		CatchUpBatches,
		SessionsActive,
		SessionsCompleted,
		FocusScore,
		MessagesReceived,
	)
}

// Handler returns an http.Handler serving the collectors registered on reg.
func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})
}
