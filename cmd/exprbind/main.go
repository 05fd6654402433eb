// Command exprbind evaluates binding expressions and renders templates
// against YAML or JSON model files.
package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/randalmurphal/exprbind/pkg/exprbind"
	"github.com/randalmurphal/exprbind/pkg/exprbind/config"
)

var (
	configPath string
	modelPath  string
	verbose    bool
	lax        bool

	logger   = zap.NewNop()
	settings = config.Default()
)

var rootCmd = &cobra.Command{
	Use:   "exprbind",
	Short: "Evaluate binding expressions and render templates",
	Long: `exprbind evaluates binding expressions against a data model.

Models are YAML or JSON documents. Templates mix literal text with
{{ live }} and [[ one-time ]] bindings; filters are applied with a pipe:

  exprbind eval "user.first + ' ' + user.last" --model model.yaml
  exprbind render "{{ {active: on} | tokenList }}" --model model.json
  exprbind watch "Hello {{ name }}" --model model.yaml`,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
	PersistentPostRun: func(*cobra.Command, []string) {
		_ = logger.Sync()
	},
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&configPath, "config", "c", "", "settings file (YAML or JSON)")
	flags.StringVarP(&modelPath, "model", "m", "", "model file (YAML or JSON)")
	flags.BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	flags.BoolVar(&lax, "lax", false, "drop writes to unassignable expressions instead of failing")

	rootCmd.AddCommand(evalCmd, renderCmd, watchCmd, historyCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// setup loads settings and builds the CLI logger. Flags override the
// settings file.
func setup(*cobra.Command, []string) error {
	s := config.Default()
	if configPath != "" {
		loaded, err := config.Load(configPath)
		if err != nil {
			return fmt.Errorf("load settings: %w", err)
		}
		s = loaded
	}
	if lax {
		s.Strict = false
	}
	if verbose {
		s.LogLevel = slog.LevelDebug
	}
	settings = s

	zc := zap.NewProductionConfig()
	zc.Level = zap.NewAtomicLevelAt(zapLevel(s.LogLevel))
	l, err := zc.Build()
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	logger = l
	return nil
}

func zapLevel(l slog.Level) zapcore.Level {
	switch {
	case l <= slog.LevelDebug:
		return zapcore.DebugLevel
	case l <= slog.LevelInfo:
		return zapcore.InfoLevel
	case l <= slog.LevelWarn:
		return zapcore.WarnLevel
	default:
		return zapcore.ErrorLevel
	}
}

// libraryLogger is the slog logger handed to the binding packages.
func libraryLogger(w io.Writer) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: settings.LogLevel}))
}

// newDelegate creates a delegate from the loaded settings. Binding errors
// are logged unless an option replaces the handler.
func newDelegate(cmd *cobra.Command, opts ...exprbind.Option) (*exprbind.Delegate, error) {
	base := []exprbind.Option{
		exprbind.WithSettings(settings),
		exprbind.WithLogger(libraryLogger(cmd.ErrOrStderr())),
		exprbind.WithErrorHandler(func(err error) {
			logger.Warn("binding error", zap.Error(err))
		}),
	}
	return exprbind.New(append(base, opts...)...)
}

// loadModel reads --model, or returns an empty model when it is unset.
func loadModel() (map[string]any, error) {
	if modelPath == "" {
		return map[string]any{}, nil
	}
	model, err := config.LoadModel(modelPath)
	if err != nil {
		return nil, fmt.Errorf("load model: %w", err)
	}
	return model, nil
}
