package observability

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// MeterName is the instrumentation scope of exprbind metrics.
const MeterName = "exprbind"

// MetricsRecorder records exprbind metrics.
// Use NewMetricsRecorder() for OTel metrics or NoopMetrics{} when disabled.
type MetricsRecorder interface {
	// RecordEvaluation records one observer re-evaluation.
	RecordEvaluation(ctx context.Context, duration time.Duration, err error)

	// RecordCheckpoint records a completed checkpoint.
	RecordCheckpoint(ctx context.Context, cycles, fired int, duration time.Duration, err error)

	// AddLiveObservers adjusts the live observer gauge by delta.
	AddLiveObservers(ctx context.Context, delta int64)

	// RecordSnapshot records a snapshot save.
	RecordSnapshot(ctx context.Context, sizeBytes int64)
}

// otelMetrics implements MetricsRecorder using OpenTelemetry.
type otelMetrics struct {
	evaluations       metric.Int64Counter
	evaluationErrors  metric.Int64Counter
	evaluationLatency metric.Float64Histogram
	checkpoints       metric.Int64Counter
	checkpointCycles  metric.Int64Histogram
	checkpointLatency metric.Float64Histogram
	callbacks         metric.Int64Counter
	liveObservers     metric.Int64UpDownCounter
	snapshotSize      metric.Int64Histogram
}

var (
	defaultMetrics     *otelMetrics
	defaultMetricsOnce sync.Once
	defaultMetricsErr  error
)

// getDefaultMetrics returns the default OTel metrics instance.
// Lazily initializes the metrics on first call.
func getDefaultMetrics() (*otelMetrics, error) {
	defaultMetricsOnce.Do(func() {
		defaultMetrics, defaultMetricsErr = newOtelMetrics(otel.Meter(MeterName))
	})
	return defaultMetrics, defaultMetricsErr
}

// newOtelMetrics creates the instruments on meter.
func newOtelMetrics(meter metric.Meter) (*otelMetrics, error) {
	var m otelMetrics
	var err error

	if m.evaluations, err = meter.Int64Counter("exprbind.evaluations",
		metric.WithDescription("Number of observer re-evaluations"),
	); err != nil {
		return nil, err
	}

	if m.evaluationErrors, err = meter.Int64Counter("exprbind.evaluation.errors",
		metric.WithDescription("Number of failed evaluations"),
	); err != nil {
		return nil, err
	}

	if m.evaluationLatency, err = meter.Float64Histogram("exprbind.evaluation.latency_ms",
		metric.WithDescription("Evaluation latency in milliseconds"),
		metric.WithUnit("ms"),
	); err != nil {
		return nil, err
	}

	if m.checkpoints, err = meter.Int64Counter("exprbind.checkpoints",
		metric.WithDescription("Number of checkpoints"),
	); err != nil {
		return nil, err
	}

	if m.checkpointCycles, err = meter.Int64Histogram("exprbind.checkpoint.cycles",
		metric.WithDescription("Dirty-check cycles per checkpoint"),
	); err != nil {
		return nil, err
	}

	if m.checkpointLatency, err = meter.Float64Histogram("exprbind.checkpoint.latency_ms",
		metric.WithDescription("Checkpoint latency in milliseconds"),
		metric.WithUnit("ms"),
	); err != nil {
		return nil, err
	}

	if m.callbacks, err = meter.Int64Counter("exprbind.callbacks",
		metric.WithDescription("Number of observer callbacks fired"),
	); err != nil {
		return nil, err
	}

	if m.liveObservers, err = meter.Int64UpDownCounter("exprbind.observers.live",
		metric.WithDescription("Number of open observers"),
	); err != nil {
		return nil, err
	}

	if m.snapshotSize, err = meter.Int64Histogram("exprbind.snapshot.size_bytes",
		metric.WithDescription("Snapshot size in bytes"),
		metric.WithUnit("By"),
	); err != nil {
		return nil, err
	}

	return &m, nil
}

// NewMetricsRecorder returns a MetricsRecorder that uses OpenTelemetry.
// If metrics initialization fails, returns a no-op recorder.
//
// The recorder uses the global OTel meter provider. Configure the provider
// before calling this function:
//
//	import "go.opentelemetry.io/otel"
//	otel.SetMeterProvider(yourProvider)
func NewMetricsRecorder() MetricsRecorder {
	m, err := getDefaultMetrics()
	if err != nil {
		slog.Warn("metrics initialization failed, using no-op recorder",
			slog.String("error", err.Error()))
		return NoopMetrics{}
	}
	return m
}

// NewMetricsRecorderFromProvider returns a MetricsRecorder bound to an
// explicit meter provider instead of the global one.
func NewMetricsRecorderFromProvider(provider metric.MeterProvider) (MetricsRecorder, error) {
	return newOtelMetrics(provider.Meter(MeterName))
}

// RecordEvaluation records one evaluation.
func (m *otelMetrics) RecordEvaluation(ctx context.Context, duration time.Duration, err error) {
	m.evaluations.Add(ctx, 1)
	m.evaluationLatency.Record(ctx, durationMs(duration))
	if err != nil {
		m.evaluationErrors.Add(ctx, 1)
	}
}

// RecordCheckpoint records a checkpoint.
func (m *otelMetrics) RecordCheckpoint(ctx context.Context, cycles, fired int, duration time.Duration, err error) {
	attrs := metric.WithAttributes(attribute.Bool("success", err == nil))
	m.checkpoints.Add(ctx, 1, attrs)
	m.checkpointCycles.Record(ctx, int64(cycles), attrs)
	m.checkpointLatency.Record(ctx, durationMs(duration), attrs)
	if fired > 0 {
		m.callbacks.Add(ctx, int64(fired))
	}
}

// AddLiveObservers adjusts the live observer gauge.
func (m *otelMetrics) AddLiveObservers(ctx context.Context, delta int64) {
	m.liveObservers.Add(ctx, delta)
}

// RecordSnapshot records a snapshot save.
func (m *otelMetrics) RecordSnapshot(ctx context.Context, sizeBytes int64) {
	m.snapshotSize.Record(ctx, sizeBytes)
}

func durationMs(d time.Duration) float64 {
	return float64(d.Microseconds()) / 1000
}
