package main

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/randalmurphal/exprbind/pkg/exprbind/config"
	"github.com/randalmurphal/exprbind/pkg/exprbind/snapshot"
)

// syncBuffer is a bytes.Buffer safe for the runtime loop to write while the
// test reads.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// resetGlobals restores flag variables and settings after each test.
func resetGlobals(t *testing.T) {
	t.Helper()
	reset := func() {
		configPath, modelPath, verbose, lax = "", "", false, false
		evalSet, evalJSON = "", false
		templateFile, missingFlag = "", "empty"
		watchSession, watchResume, watchKeep = "", false, 0
		historyLatest = false
		logger = zap.NewNop()
		settings = config.Default()
	}
	reset()
	t.Cleanup(reset)
}

// newTestCmd returns a command whose output goes to the returned buffer.
func newTestCmd(ctx context.Context) (*cobra.Command, *syncBuffer) {
	out := &syncBuffer{}
	cmd := &cobra.Command{}
	cmd.SetOut(out)
	cmd.SetErr(io.Discard)
	cmd.SetContext(ctx)
	return cmd, out
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

const testModel = `
user:
  first: Ada
  last: Lovelace
items: [a, b, c]
flags:
  active: true
  hidden: false
`

func TestEval(t *testing.T) {
	resetGlobals(t)
	modelPath = writeFile(t, t.TempDir(), "model.yaml", testModel)

	tests := []struct {
		expr     string
		expected string
	}{
		{"user.first + ' ' + user.last", "Ada Lovelace"},
		{"items.length", "3"},
		{"items[1]", "b"},
		{"flags | tokenList", "active"},
		{"missing", "undefined"},
	}
	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			cmd, out := newTestCmd(context.Background())
			require.NoError(t, runEval(cmd, []string{tt.expr}))
			assert.Equal(t, tt.expected+"\n", out.String())
		})
	}
}

func TestEval_JSON(t *testing.T) {
	resetGlobals(t)
	modelPath = writeFile(t, t.TempDir(), "model.json", `{"user": {"first": "Ada"}}`)
	evalJSON = true

	cmd, out := newTestCmd(context.Background())
	require.NoError(t, runEval(cmd, []string{"user"}))
	assert.JSONEq(t, `{"first": "Ada"}`, out.String())

	cmd, out = newTestCmd(context.Background())
	require.NoError(t, runEval(cmd, []string{"{b: 1, a: 2}"}))
	assert.Equal(t, "{\n  \"b\": 1,\n  \"a\": 2\n}\n", out.String())
}

func TestEval_Set(t *testing.T) {
	resetGlobals(t)
	modelPath = writeFile(t, t.TempDir(), "model.yaml", testModel)

	cmd, out := newTestCmd(context.Background())
	cmd.Flags().StringVar(&evalSet, "set", "", "")
	require.NoError(t, cmd.Flags().Set("set", "Grace"))

	require.NoError(t, runEval(cmd, []string{"user.first"}))
	assert.Contains(t, out.String(), "first: Grace")
	assert.Contains(t, out.String(), "last: Lovelace")
}

func TestEval_Errors(t *testing.T) {
	resetGlobals(t)

	cmd, _ := newTestCmd(context.Background())
	assert.Error(t, runEval(cmd, []string{"a +"}))

	modelPath = filepath.Join(t.TempDir(), "nope.yaml")
	assert.ErrorContains(t, runEval(cmd, []string{"a"}), "load model")

	modelPath = writeFile(t, t.TempDir(), "model.toml", "a = 1")
	assert.ErrorIs(t, runEval(cmd, []string{"a"}), config.ErrUnsupportedFormat)
}

func TestRender(t *testing.T) {
	resetGlobals(t)
	dir := t.TempDir()
	modelPath = writeFile(t, dir, "model.yaml", testModel)

	cmd, out := newTestCmd(context.Background())
	require.NoError(t, runRender(cmd, []string{"Hi {{ user.first }} [[ user.last ]]!"}))
	assert.Equal(t, "Hi Ada Lovelace!\n", out.String())

	templateFile = writeFile(t, dir, "page.tmpl", "{{ items }}")
	cmd, out = newTestCmd(context.Background())
	require.NoError(t, runRender(cmd, nil))
	assert.Equal(t, "a,b,c\n", out.String())

	assert.Error(t, runRender(cmd, []string{"also an argument"}))
}

func TestRender_Missing(t *testing.T) {
	resetGlobals(t)

	missingFlag = "keep"
	cmd, out := newTestCmd(context.Background())
	require.NoError(t, runRender(cmd, []string{"x={{ x }}"}))
	assert.Equal(t, "x={{ x }}\n", out.String())

	missingFlag = "error"
	cmd, out = newTestCmd(context.Background())
	assert.ErrorContains(t, runRender(cmd, []string{"x={{ x }}"}), "undefined value: x")
	assert.Empty(t, out.String())

	missingFlag = "bogus"
	assert.Error(t, runRender(cmd, []string{"x"}))
}

func TestRender_UnknownFilter(t *testing.T) {
	resetGlobals(t)
	cmd, _ := newTestCmd(context.Background())
	assert.ErrorContains(t, runRender(cmd, []string{"{{ 1 | nosuch }}"}), "unknown filter")
}

func TestTemplateSource(t *testing.T) {
	resetGlobals(t)
	_, err := templateSource(nil)
	assert.Error(t, err)

	src, err := templateSource([]string{"{{ a }}"})
	require.NoError(t, err)
	assert.Equal(t, "{{ a }}", src)
}

func TestSetup(t *testing.T) {
	resetGlobals(t)
	configPath = writeFile(t, t.TempDir(), "settings.yaml", "strict: true\nmax_cycles: 7\nlog_level: warn\n")
	lax = true

	require.NoError(t, setup(nil, nil))
	assert.False(t, settings.Strict)
	assert.Equal(t, 7, settings.MaxCycles)
	assert.Equal(t, slog.LevelWarn, settings.LogLevel)
	assert.False(t, logger.Core().Enabled(zapcore.InfoLevel))

	configPath = writeFile(t, t.TempDir(), "bad.yaml", "max_cycles: -1\n")
	assert.ErrorIs(t, setup(nil, nil), config.ErrInvalidSetting)
}

func TestZapLevel(t *testing.T) {
	assert.Equal(t, zapcore.DebugLevel, zapLevel(slog.LevelDebug))
	assert.Equal(t, zapcore.InfoLevel, zapLevel(slog.LevelInfo))
	assert.Equal(t, zapcore.WarnLevel, zapLevel(slog.LevelWarn))
	assert.Equal(t, zapcore.ErrorLevel, zapLevel(slog.LevelError))
}

func TestReplaceModel(t *testing.T) {
	model := map[string]any{"a": 1, "b": 2}
	replaceModel(model, map[string]any{"b": 3, "c": 4})
	assert.Equal(t, map[string]any{"b": 3, "c": 4}, model)
}

func TestWatch(t *testing.T) {
	resetGlobals(t)
	dir := t.TempDir()
	modelPath = writeFile(t, dir, "model.yaml", "name: Ada\n")
	settings.Interval = 10 * time.Millisecond
	settings.SnapshotPath = filepath.Join(dir, "snapshots.db")
	watchSession = "demo"

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	cmd, out := newTestCmd(ctx)

	done := make(chan error, 1)
	go func() { done <- runWatch(cmd, []string{"Hello {{ name }}"}) }()

	require.Eventually(t, func() bool {
		return strings.Contains(out.String(), "Hello Ada\n")
	}, 2*time.Second, 10*time.Millisecond)

	writeFile(t, dir, "model.yaml", "name: Grace\n")
	require.Eventually(t, func() bool {
		return strings.Contains(out.String(), "Hello Grace\n")
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("watch did not stop")
	}

	// The reload was recorded under the session.
	store, err := snapshot.NewSQLiteStore(settings.SnapshotPath)
	require.NoError(t, err)
	model, err := snapshot.Restore(store, "demo")
	require.NoError(t, err)
	assert.Equal(t, "Grace", model["name"])
	require.NoError(t, store.Close())

	cmd, out = newTestCmd(context.Background())
	require.NoError(t, runHistory(cmd, []string{"demo"}))
	assert.True(t, strings.HasPrefix(out.String(), "SEQ"))

	historyLatest = true
	cmd, out = newTestCmd(context.Background())
	require.NoError(t, runHistory(cmd, []string{"demo"}))
	assert.Equal(t, "name: Grace\n", out.String())
}

func TestWatch_Errors(t *testing.T) {
	resetGlobals(t)
	cmd, _ := newTestCmd(context.Background())
	assert.ErrorContains(t, runWatch(cmd, []string{"x"}), "needs --model")

	modelPath = writeFile(t, t.TempDir(), "model.yaml", "a: 1\n")
	watchResume = true
	assert.ErrorContains(t, runWatch(cmd, []string{"x"}), "snapshot_path")
}

func TestHistory_Errors(t *testing.T) {
	resetGlobals(t)
	cmd, _ := newTestCmd(context.Background())
	assert.ErrorContains(t, runHistory(cmd, []string{"demo"}), "snapshot_path")

	settings.SnapshotPath = filepath.Join(t.TempDir(), "snapshots.db")
	assert.ErrorIs(t, runHistory(cmd, []string{"nobody"}), snapshot.ErrNotFound)
}
