// Package telemetry provides Prometheus metrics, OpenTelemetry tracing setup,
// and correlation-id aware logging helpers.
package telemetry

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	once sync.Once

	// Counters
	CommandsReceived     prometheus.Counter
	CommandsUnauthorized prometheus.Counter
	RecipesExtracted     prometheus.Counter
	ExtractFailures      prometheus.Counter
	TranscriptFailures   prometheus.Counter
	SynthesisFailures    prometheus.Counter
	SinkFailures         prometheus.Counter

	// Histograms (seconds)
	TranscriptFetchDuration prometheus.Observer
	SynthesisDuration       prometheus.Observer
	SinkWriteDuration       prometheus.Observer
	PipelineDuration        prometheus.Observer
)

// Init registers metrics (idempotent).
func Init() {
	once.Do(func() {
		CommandsReceived = promauto.NewCounter(prometheus.CounterOpts{Name: "recipe_commands_received_total", Help: "Number of recipe commands received in chat"})
		CommandsUnauthorized = promauto.NewCounter(prometheus.CounterOpts{Name: "recipe_commands_unauthorized_total", Help: "Number of commands rejected by the allow-list"})
		RecipesExtracted = promauto.NewCounter(prometheus.CounterOpts{Name: "recipe_extractions_succeeded_total", Help: "Number of recipes extracted and sunk successfully"})
		ExtractFailures = promauto.NewCounter(prometheus.CounterOpts{Name: "recipe_link_failures_total", Help: "Number of commands with an unrecognized video link"})
		TranscriptFailures = promauto.NewCounter(prometheus.CounterOpts{Name: "recipe_transcript_failures_total", Help: "Number of transcript fetch failures"})
		SynthesisFailures = promauto.NewCounter(prometheus.CounterOpts{Name: "recipe_synthesis_failures_total", Help: "Number of completion/parse failures (incl. not-cooking)"})
		SinkFailures = promauto.NewCounter(prometheus.CounterOpts{Name: "recipe_sink_failures_total", Help: "Number of sink write failures"})
		TranscriptFetchDuration = promauto.NewHistogram(prometheus.HistogramOpts{Name: "recipe_transcript_fetch_duration_seconds", Help: "Transcript fetch duration seconds", Buckets: prometheus.DefBuckets})
		SynthesisDuration = promauto.NewHistogram(prometheus.HistogramOpts{Name: "recipe_synthesis_duration_seconds", Help: "Completion request duration seconds", Buckets: prometheus.DefBuckets})
		SinkWriteDuration = promauto.NewHistogram(prometheus.HistogramOpts{Name: "recipe_sink_write_duration_seconds", Help: "Sink write duration seconds", Buckets: prometheus.DefBuckets})
		PipelineDuration = promauto.NewHistogram(prometheus.HistogramOpts{Name: "recipe_pipeline_duration_seconds", Help: "End-to-end command duration seconds", Buckets: prometheus.DefBuckets})
	})
}

// TimeFunc measures the duration of fn and records in observer if non-nil.
func TimeFunc(obs prometheus.Observer, fn func()) time.Duration {
	start := time.Now()
	fn()
	d := time.Since(start)
	if obs != nil {
		obs.Observe(d.Seconds())
	}
	return d
}

// Correlation ID helpers ----------------------------------------------------

type corrKeyType struct{}

var corrKey corrKeyType

// WithCorrelation returns a new context embedding the correlation id.
func WithCorrelation(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, corrKey, id)
}

// GetCorrelation returns the correlation id or empty string.
func GetCorrelation(ctx context.Context) string {
	if s, ok := ctx.Value(corrKey).(string); ok {
		return s
	}
	return ""
}

// LoggerWithCorr returns a logger with a corr attribute if present.
func LoggerWithCorr(ctx context.Context) *slog.Logger {
	if id := GetCorrelation(ctx); id != "" {
		return slog.Default().With(slog.String("corr", id))
	}
	return slog.Default()
}
