package snapshot

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/randalmurphal/exprbind/pkg/exprbind/observability"
	"github.com/randalmurphal/exprbind/pkg/exprbind/observe"
)

// Recorder appends a snapshot of one model to a Store after every
// checkpoint that changed something. Install it with
// observe.WithCheckpointHook(rec.Hook()).
type Recorder struct {
	store     Store
	sessionID string
	model     any
	keep      int
	logger    *slog.Logger
	metrics   observability.MetricsRecorder
}

// RecorderOption configures a Recorder.
type RecorderOption func(*Recorder)

// WithSessionID sets the session ID. Default: a new UUID.
func WithSessionID(id string) RecorderOption {
	return func(r *Recorder) {
		if id != "" {
			r.sessionID = id
		}
	}
}

// WithKeep prunes the session to the newest n snapshots after each save.
// Zero, the default, keeps everything.
func WithKeep(n int) RecorderOption {
	return func(r *Recorder) {
		r.keep = n
	}
}

// WithRecorderLogger sets the logger. Default: slog.Default().
func WithRecorderLogger(logger *slog.Logger) RecorderOption {
	return func(r *Recorder) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithRecorderMetrics records snapshot sizes.
func WithRecorderMetrics(m observability.MetricsRecorder) RecorderOption {
	return func(r *Recorder) {
		if m != nil {
			r.metrics = m
		}
	}
}

// NewRecorder creates a Recorder for model.
func NewRecorder(store Store, model any, opts ...RecorderOption) *Recorder {
	r := &Recorder{
		store:     store,
		sessionID: uuid.NewString(),
		model:     model,
		logger:    slog.Default(),
		metrics:   observability.NoopMetrics{},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// SessionID returns the session snapshots are stored under.
func (r *Recorder) SessionID() string {
	return r.sessionID
}

// Record stores a snapshot of the model and returns its sequence number.
func (r *Recorder) Record(ctx context.Context, stats observe.Stats) (int64, error) {
	s, err := New(r.sessionID, r.model, stats)
	if err != nil {
		return 0, err
	}
	data, err := s.Marshal()
	if err != nil {
		return 0, err
	}

	seq, err := r.store.Append(r.sessionID, data)
	if err != nil {
		return 0, err
	}
	r.metrics.RecordSnapshot(ctx, int64(len(data)))
	observability.LogSnapshot(r.logger, r.sessionID, seq, len(data))

	if r.keep > 0 {
		if _, err := r.store.Prune(r.sessionID, r.keep); err != nil {
			return seq, err
		}
	}
	return seq, nil
}

// Hook returns a checkpoint hook that records a snapshot. Failures are
// logged; they never interrupt the runtime.
func (r *Recorder) Hook() observe.CheckpointHook {
	return func(ctx context.Context, stats observe.Stats) {
		if _, err := r.Record(ctx, stats); err != nil {
			observability.LogSnapshotError(r.logger, r.sessionID, "record", err)
		}
	}
}
