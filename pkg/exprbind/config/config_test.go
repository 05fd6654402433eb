package config_test

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/randalmurphal/exprbind/pkg/exprbind/config"
)

// TestAccessors verifies typed extraction with defaults.
func TestAccessors(t *testing.T) {
	cfg := config.New(map[string]any{
		"name":     "alice",
		"flag":     true,
		"count":    3,
		"count64":  int64(4),
		"countF":   5.0,
		"fraction": 1.5,
		"wait":     "2s",
		"waitMs":   250,
		"waitF":    1.5,
		"nested":   map[string]any{"k": "v"},
	})

	assert.Equal(t, "alice", cfg.String("name", "x"))
	assert.Equal(t, "x", cfg.String("flag", "x"))
	assert.True(t, cfg.Bool("flag", false))
	assert.False(t, cfg.Bool("name", false))
	assert.Equal(t, 3, cfg.Int("count", 0))
	assert.Equal(t, 4, cfg.Int("count64", 0))
	assert.Equal(t, 5, cfg.Int("countF", 0))
	assert.Equal(t, 9, cfg.Int("fraction", 9))
	assert.Equal(t, 2*time.Second, cfg.Duration("wait", 0))
	assert.Equal(t, 250*time.Millisecond, cfg.Duration("waitMs", 0))
	assert.Equal(t, 1500*time.Microsecond, cfg.Duration("waitF", 0))
	assert.Equal(t, time.Minute, cfg.Duration("name", time.Minute))
	assert.Equal(t, map[string]any{"k": "v"}, cfg.StringMap("nested"))
	assert.Nil(t, cfg.StringMap("name"))
	assert.True(t, cfg.Has("name"))
	assert.False(t, cfg.Has("missing"))
}

// TestNew_Nil verifies a nil map is usable.
func TestNew_Nil(t *testing.T) {
	cfg := config.New(nil)
	assert.NotNil(t, cfg.Raw())
	assert.Equal(t, "d", cfg.String("k", "d"))
}

// TestFromConfig covers defaults, overrides and validation.
func TestFromConfig(t *testing.T) {
	tests := []struct {
		name    string
		data    map[string]any
		want    config.Settings
		wantErr bool
	}{
		{
			name: "defaults",
			data: nil,
			want: config.Default(),
		},
		{
			name: "overrides",
			data: map[string]any{
				"strict":        false,
				"max_cycles":    10,
				"cache_size":    32,
				"interval":      "1s",
				"log_level":     "debug",
				"snapshot_path": "/tmp/s.db",
			},
			want: config.Settings{
				Strict:       false,
				MaxCycles:    10,
				CacheSize:    32,
				Interval:     time.Second,
				LogLevel:     slog.LevelDebug,
				SnapshotPath: "/tmp/s.db",
			},
		},
		{name: "bad log level", data: map[string]any{"log_level": "loud"}, wantErr: true},
		{name: "zero cycles", data: map[string]any{"max_cycles": 0}, wantErr: true},
		{name: "negative cache", data: map[string]any{"cache_size": -1}, wantErr: true},
		{name: "negative interval", data: map[string]any{"interval": "-1s"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := config.FromConfig(config.New(tt.data))
			if tt.wantErr {
				assert.ErrorIs(t, err, config.ErrInvalidSetting)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

// TestLoad reads settings from YAML and JSON files.
func TestLoad(t *testing.T) {
	dir := t.TempDir()

	yamlPath := filepath.Join(dir, "settings.yaml")
	require.NoError(t, os.WriteFile(yamlPath, []byte("strict: false\nmax_cycles: 7\ninterval: 50ms\n"), 0o600))
	s, err := config.Load(yamlPath)
	require.NoError(t, err)
	assert.False(t, s.Strict)
	assert.Equal(t, 7, s.MaxCycles)
	assert.Equal(t, 50*time.Millisecond, s.Interval)

	jsonPath := filepath.Join(dir, "settings.json")
	require.NoError(t, os.WriteFile(jsonPath, []byte(`{"cache_size": 8, "interval": 20}`), 0o600))
	s, err = config.Load(jsonPath)
	require.NoError(t, err)
	assert.Equal(t, 8, s.CacheSize)
	assert.Equal(t, 20*time.Millisecond, s.Interval)
	assert.True(t, s.Strict)

	_, err = config.Load(filepath.Join(dir, "settings.toml"))
	assert.Error(t, err)

	tomlPath := filepath.Join(dir, "x.toml")
	require.NoError(t, os.WriteFile(tomlPath, []byte("a = 1"), 0o600))
	_, err = config.Load(tomlPath)
	assert.ErrorIs(t, err, config.ErrUnsupportedFormat)
}

// TestFromYAML_Invalid reports parse errors.
func TestFromYAML_Invalid(t *testing.T) {
	_, err := config.FromYAML([]byte("a: [unclosed"))
	assert.Error(t, err)

	_, err = config.FromJSON([]byte("{"))
	assert.Error(t, err)
}

// TestLoadModel decodes models into plain maps and slices.
func TestLoadModel(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "model.yaml")
	require.NoError(t, os.WriteFile(path, []byte("id: id\nusers:\n  - name: Tim\n  - name: Sally\n"), 0o600))

	m, err := config.LoadModel(path)
	require.NoError(t, err)
	assert.Equal(t, "id", m["id"])
	users, ok := m["users"].([]any)
	require.True(t, ok)
	assert.Equal(t, map[string]any{"name": "Sally"}, users[1])

	empty := filepath.Join(dir, "empty.json")
	require.NoError(t, os.WriteFile(empty, []byte("null"), 0o600))
	m, err = config.LoadModel(empty)
	require.NoError(t, err)
	assert.NotNil(t, m)
}
