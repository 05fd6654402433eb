package observability

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newJSONLogger returns a debug-level logger writing JSON lines to buf.
func newJSONLogger(buf *bytes.Buffer) *slog.Logger {
	return slog.New(slog.NewJSONHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

// lastRecord decodes the last JSON line written to buf.
func lastRecord(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.NotEmpty(t, lines)
	var rec map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[len(lines)-1]), &rec))
	return rec
}

func TestEnrichLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := EnrichLogger(newJSONLogger(&buf), "obs-1", "a.b")
	logger.Info("hello")

	rec := lastRecord(t, &buf)
	assert.Equal(t, "obs-1", rec["observer_id"])
	assert.Equal(t, "a.b", rec["expr"])

	assert.Nil(t, EnrichLogger(nil, "x", "y"))
}

func TestLogHelpers(t *testing.T) {
	tests := []struct {
		name  string
		log   func(*slog.Logger)
		msg   string
		level string
		check func(t *testing.T, rec map[string]any)
	}{
		{
			name:  "observer open",
			log:   func(l *slog.Logger) { LogObserverOpen(l, "o1", "x + y", 2) },
			msg:   "observer opened",
			level: "DEBUG",
			check: func(t *testing.T, rec map[string]any) { assert.Equal(t, 2.0, rec["deps"]) },
		},
		{
			name:  "observer close",
			log:   func(l *slog.Logger) { LogObserverClose(l, "o1", 0) },
			msg:   "observer closed",
			level: "DEBUG",
			check: func(t *testing.T, rec map[string]any) { assert.Equal(t, 0.0, rec["live"]) },
		},
		{
			name:  "checkpoint",
			log:   func(l *slog.Logger) { LogCheckpoint(l, 2, 3, 1, 0.5) },
			msg:   "checkpoint completed",
			level: "DEBUG",
			check: func(t *testing.T, rec map[string]any) {
				assert.Equal(t, 2.0, rec["cycles"])
				assert.Equal(t, 1.0, rec["fired"])
			},
		},
		{
			name:  "eval error",
			log:   func(l *slog.Logger) { LogEvalError(l, "o2", "f()", errors.New("boom")) },
			msg:   "binding failed",
			level: "ERROR",
			check: func(t *testing.T, rec map[string]any) { assert.Equal(t, "boom", rec["error"]) },
		},
		{
			name:  "snapshot",
			log:   func(l *slog.Logger) { LogSnapshot(l, "s1", 4, 128) },
			msg:   "snapshot saved",
			level: "DEBUG",
			check: func(t *testing.T, rec map[string]any) { assert.Equal(t, 4.0, rec["seq"]) },
		},
		{
			name:  "snapshot error",
			log:   func(l *slog.Logger) { LogSnapshotError(l, "s1", "save", errors.New("disk full")) },
			msg:   "snapshot failed",
			level: "WARN",
			check: func(t *testing.T, rec map[string]any) { assert.Equal(t, "save", rec["operation"]) },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			tt.log(newJSONLogger(&buf))

			rec := lastRecord(t, &buf)
			assert.Equal(t, tt.msg, rec["msg"])
			assert.Equal(t, tt.level, rec["level"])
			tt.check(t, rec)
		})
	}
}

func TestLogHelpers_NilLogger(t *testing.T) {
	assert.NotPanics(t, func() {
		LogObserverOpen(nil, "", "", 0)
		LogObserverClose(nil, "", 0)
		LogCheckpoint(nil, 0, 0, 0, 0)
		LogEvalError(nil, "", "", errors.New("x"))
		LogSnapshot(nil, "", 0, 0)
		LogSnapshotError(nil, "", "", errors.New("x"))
	})
}

func TestTimedOperation(t *testing.T) {
	done := TimedOperation()
	time.Sleep(2 * time.Millisecond)
	assert.GreaterOrEqual(t, done(), 1.0)
}
