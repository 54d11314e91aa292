// Package observe provides application-wide observability primitives:
// OpenTelemetry metrics, tracing, and HTTP middleware that ties them
// together.
//
// Metrics are recorded through the OpenTelemetry Metrics API. A Prometheus
// exporter bridge is available via [InitProvider] so that metrics can be
// scraped via the standard /metrics endpoint. A package-level default
// [Metrics] instance ([DefaultMetrics]) is provided for convenience; tests
// should use [NewMetrics] with a custom [metric.MeterProvider] to avoid
// cross-test pollution.
package observe

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// meterName is the instrumentation scope name used for all metrics.
const meterName = "github.com/wrsmith108/bingo-demo"

// Metrics holds all OpenTelemetry metric instruments for the application.
// All fields are safe for concurrent use — the underlying OTel types handle
// their own synchronisation.
type Metrics struct {
	// DetectionDuration tracks the latency of one word-detection pass over
	// a final transcript.
	DetectionDuration metric.Float64Histogram

	// SquaresFilled counts filled squares. Use with attribute:
	//   attribute.String("mode", "manual"|"auto")
	SquaresFilled metric.Int64Counter

	// Wins counts completed games. Use with attribute:
	//   attribute.String("line", "row"|"column"|"diagonal")
	Wins metric.Int64Counter

	// Transcripts counts final transcripts processed by detection.
	Transcripts metric.Int64Counter

	// ActiveSessions tracks whether a game is currently in progress (0 or 1
	// for a single-session daemon, but kept as a gauge for symmetry with
	// multi-session deployments).
	ActiveSessions metric.Int64UpDownCounter

	// ActiveListeners tracks the number of live STT audio streams.
	ActiveListeners metric.Int64UpDownCounter

	// HTTPRequestDuration tracks HTTP request processing time. Use with
	// attributes:
	//   attribute.String("method", ...), attribute.String("path", ...)
	HTTPRequestDuration metric.Float64Histogram
}

// latencyBuckets defines histogram bucket boundaries (in seconds). Detection
// runs are sub-millisecond; the upper buckets catch pathological transcripts.
var latencyBuckets = []float64{
	0.0001, 0.00025, 0.0005, 0.001, 0.0025, 0.005, 0.01, 0.05, 0.25, 1,
}

// NewMetrics creates a fully initialised [Metrics] struct using the given
// [metric.MeterProvider]. Returns an error if any instrument creation fails.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	if met.DetectionDuration, err = m.Float64Histogram("bingo.detection.duration",
		metric.WithDescription("Latency of one word-detection pass over a transcript."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.SquaresFilled, err = m.Int64Counter("bingo.squares.filled",
		metric.WithDescription("Total squares filled by mode (manual or auto)."),
	); err != nil {
		return nil, err
	}
	if met.Wins, err = m.Int64Counter("bingo.wins",
		metric.WithDescription("Total completed games by winning line type."),
	); err != nil {
		return nil, err
	}
	if met.Transcripts, err = m.Int64Counter("bingo.transcripts",
		metric.WithDescription("Total final transcripts processed by word detection."),
	); err != nil {
		return nil, err
	}
	if met.ActiveSessions, err = m.Int64UpDownCounter("bingo.active_sessions",
		metric.WithDescription("Number of games currently in progress."),
	); err != nil {
		return nil, err
	}
	if met.ActiveListeners, err = m.Int64UpDownCounter("bingo.active_listeners",
		metric.WithDescription("Number of live STT audio streams."),
	); err != nil {
		return nil, err
	}
	if met.HTTPRequestDuration, err = m.Float64Histogram("bingo.http.request.duration",
		metric.WithDescription("HTTP request latency by method and path."),
		metric.WithUnit("s"),
	); err != nil {
		return nil, err
	}

	return met, nil
}

var (
	defaultMetrics     *Metrics
	defaultMetricsOnce sync.Once
)

// DefaultMetrics returns the package-level [Metrics] instance, creating it
// on first call using [otel.GetMeterProvider]. Subsequent calls return the
// same pointer. Panics if instrument creation fails (should not happen with
// the global provider).
func DefaultMetrics() *Metrics {
	defaultMetricsOnce.Do(func() {
		var err error
		defaultMetrics, err = NewMetrics(otel.GetMeterProvider())
		if err != nil {
			panic("observe: failed to create default metrics: " + err.Error())
		}
	})
	return defaultMetrics
}

// RecordSquareFilled records a square fill with its mode ("manual" or
// "auto").
func (m *Metrics) RecordSquareFilled(ctx context.Context, mode string) {
	m.SquaresFilled.Add(ctx, 1,
		metric.WithAttributes(attribute.String("mode", mode)),
	)
}

// RecordWin records a completed game with its winning line type.
func (m *Metrics) RecordWin(ctx context.Context, lineType string) {
	m.Wins.Add(ctx, 1,
		metric.WithAttributes(attribute.String("line", lineType)),
	)
}

// RecordTranscript records one processed final transcript and the duration
// of its detection pass.
func (m *Metrics) RecordTranscript(ctx context.Context, seconds float64) {
	m.Transcripts.Add(ctx, 1)
	m.DetectionDuration.Record(ctx, seconds)
}
