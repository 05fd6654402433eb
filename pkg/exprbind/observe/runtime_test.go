package observe

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/goleak"

	"github.com/randalmurphal/exprbind/pkg/exprbind/expr"
	"github.com/randalmurphal/exprbind/pkg/exprbind/observability"
	"github.com/randalmurphal/exprbind/pkg/exprbind/value"
)

func TestRuntime_MaxCycles(t *testing.T) {
	rt, _, sink := newTestRuntime(t, WithMaxCycles(5))
	model := map[string]any{"n": 0}
	o := rt.Observe(expr.MustParse("n"), expr.NewScope(model))
	_, err := o.Open(func(newValue, _ any) {
		model["n"] = value.ToNumber(newValue) + 1
	})
	require.NoError(t, err)

	model["n"] = 1
	stats, err := rt.Checkpoint(context.Background())
	require.ErrorIs(t, err, ErrMaxCycles)
	assert.Equal(t, 5, stats.Cycles)
	assert.Equal(t, 5, stats.Fired)

	require.Len(t, sink.errs, 1)
	assert.ErrorIs(t, sink.errs[0], ErrMaxCycles)
	assert.False(t, o.Closed())
}

func TestRuntime_CheckpointHook(t *testing.T) {
	var seen []Stats
	rt, _, _ := newTestRuntime(t, WithCheckpointHook(func(_ context.Context, s Stats) {
		seen = append(seen, s)
	}))
	model := map[string]any{"x": 1}
	_, err := rt.Observe(expr.MustParse("x"), expr.NewScope(model)).Open(nil)
	require.NoError(t, err)

	// Nothing to do: hook is skipped.
	_, err = rt.Checkpoint(context.Background())
	require.NoError(t, err)
	assert.Empty(t, seen)

	model["x"] = 2
	_, err = rt.Checkpoint(context.Background())
	require.NoError(t, err)
	require.Len(t, seen, 1)
	assert.Equal(t, 1, seen[0].Evaluations)
	assert.Equal(t, 0, seen[0].Fired)
}

func TestRuntime_Metrics(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })

	metrics, err := observability.NewMetricsRecorderFromProvider(provider)
	require.NoError(t, err)

	rt, _, _ := newTestRuntime(t, WithMetrics(metrics))
	model := map[string]any{"x": 1}
	o := rt.Observe(expr.MustParse("x"), expr.NewScope(model))
	_, err = o.Open(func(any, any) {})
	require.NoError(t, err)

	model["x"] = 2
	_, err = rt.Checkpoint(context.Background())
	require.NoError(t, err)
	o.Close()

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	sums := map[string]int64{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if s, ok := m.Data.(metricdata.Sum[int64]); ok {
				for _, dp := range s.DataPoints {
					sums[m.Name] += dp.Value
				}
			}
		}
	}
	assert.Equal(t, int64(2), sums["exprbind.evaluations"])
	assert.Equal(t, int64(1), sums["exprbind.checkpoints"])
	assert.Equal(t, int64(1), sums["exprbind.callbacks"])
	assert.Equal(t, int64(0), sums["exprbind.observers.live"])
}

// spanRecorder is a SpanManager that records span names and events.
type spanRecorder struct {
	started []string
	events  []string
	errs    []error
}

func (r *spanRecorder) StartCheckpointSpan(ctx context.Context, _ int) (context.Context, trace.Span) {
	r.started = append(r.started, "checkpoint")
	return ctx, noop.Span{}
}

func (r *spanRecorder) StartWriteSpan(ctx context.Context, expr string) (context.Context, trace.Span) {
	r.started = append(r.started, "write "+expr)
	return ctx, noop.Span{}
}

func (r *spanRecorder) EndSpanWithError(_ trace.Span, err error) {
	r.errs = append(r.errs, err)
}

func (r *spanRecorder) AddSpanEvent(_ context.Context, name string, _ ...attribute.KeyValue) {
	r.events = append(r.events, name)
}

func TestRuntime_Tracing(t *testing.T) {
	spans := &spanRecorder{}
	rt, _, _ := newTestRuntime(t, WithTracing(spans))
	model := map[string]any{"x": 1}
	o := rt.Observe(expr.MustParse("x"), expr.NewScope(model))
	_, err := o.Open(nil)
	require.NoError(t, err)

	require.NoError(t, o.SetValue(2))
	_, err = rt.Checkpoint(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"write x", "checkpoint"}, spans.started)
	assert.Equal(t, []string{"cycle"}, spans.events)
	assert.Equal(t, []error{nil, nil}, spans.errs)
}

func TestRuntime_RunDoRequest(t *testing.T) {
	defer goleak.VerifyNone(t)

	rt, counter, _ := newTestRuntime(t)
	model := map[string]any{"x": 1}
	scope := expr.NewScope(model)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- rt.Run(ctx, 0) }()

	changes := make(chan change, 4)
	var o *Observer
	require.NoError(t, rt.Do(ctx, func() {
		o = rt.Observe(expr.MustParse("x"), scope)
		_, _ = o.Open(func(newValue, oldValue any) {
			changes <- change{newValue, oldValue}
		})
	}))

	// Run is active once Do returns.
	assert.ErrorIs(t, rt.Run(ctx, 0), ErrRunning)

	require.NoError(t, rt.Do(ctx, func() { model["x"] = 2 }))
	select {
	case c := <-changes:
		assert.Equal(t, change{2, 1}, c)
	case <-time.After(time.Second):
		t.Fatal("callback not called after Do")
	}

	// Do checkpoints on its own; an extra Request is harmless.
	rt.Request()
	require.NoError(t, rt.Do(ctx, func() { model["x"] = 3 }))
	select {
	case c := <-changes:
		assert.Equal(t, change{3, 2}, c)
	case <-time.After(time.Second):
		t.Fatal("callback not called")
	}

	require.NoError(t, rt.Do(ctx, func() { o.Close() }))
	assert.Equal(t, 0, counter.Load())

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestRuntime_DoWithoutLoop(t *testing.T) {
	rt, _, _ := newTestRuntime(t)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	err := rt.Do(ctx, func() {})
	assert.True(t, errors.Is(err, context.DeadlineExceeded))

	// Request never blocks.
	rt.Request()
	rt.Request()
}
