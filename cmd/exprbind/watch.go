package main

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/randalmurphal/exprbind/pkg/exprbind"
	"github.com/randalmurphal/exprbind/pkg/exprbind/config"
	"github.com/randalmurphal/exprbind/pkg/exprbind/expr"
	"github.com/randalmurphal/exprbind/pkg/exprbind/observe"
	"github.com/randalmurphal/exprbind/pkg/exprbind/snapshot"
)

var (
	watchSession string
	watchResume  bool
	watchKeep    int
)

var watchCmd = &cobra.Command{
	Use:   "watch [TEMPLATE]",
	Short: "Re-render a template whenever the model file changes",
	Long: `Renders TEMPLATE, then prints it again every time an edit to the
model file changes the rendering.

When the settings file sets snapshot_path, the model is stored in a SQLite
database after every checkpoint that changed something. --resume starts
from the latest snapshot of --session instead of the model file.

Example:
  exprbind watch "{{ count }} items" --model model.yaml
  exprbind watch -f page.tmpl -m model.yaml -c settings.yaml --session demo`,
	Args: cobra.MaximumNArgs(1),
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().StringVar(&watchSession, "session", "", "snapshot session ID (default: a new UUID)")
	watchCmd.Flags().BoolVar(&watchResume, "resume", false, "start from the latest snapshot of --session")
	watchCmd.Flags().IntVar(&watchKeep, "keep", 0, "snapshots kept per session; 0 keeps all")
}

func runWatch(cmd *cobra.Command, args []string) error {
	if modelPath == "" {
		return errors.New("watch needs --model")
	}
	src, err := templateSource(args)
	if err != nil {
		return err
	}
	action, err := parseMissing(missingFlag)
	if err != nil {
		return err
	}
	model, err := loadModel()
	if err != nil {
		return err
	}

	opts := []exprbind.Option{exprbind.WithMissingAction(action)}
	if settings.SnapshotPath != "" {
		store, err := snapshot.NewSQLiteStore(settings.SnapshotPath)
		if err != nil {
			return err
		}
		defer store.Close()

		rec, err := newRecorder(cmd, store, model)
		if err != nil {
			return err
		}
		opts = append(opts, exprbind.WithCheckpointHook(rec.Hook()))
	} else if watchResume {
		return errors.New("--resume needs snapshot_path in the settings file")
	}

	d, err := newDelegate(cmd, opts...)
	if err != nil {
		return err
	}
	defer d.Close()

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()
	// Editors often replace the file, so watch its directory.
	if err := watcher.Add(filepath.Dir(modelPath)); err != nil {
		return fmt.Errorf("watch %s: %w", modelPath, err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rt := d.Runtime()
	out := cmd.OutOrStdout()
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return rt.Run(ctx, settings.Interval)
	})
	g.Go(func() error {
		var bindErr error
		err := rt.Do(ctx, func() {
			tb, err := d.BindText(src, expr.NewScope(model), func(s string) {
				fmt.Fprintln(out, s)
			})
			if err != nil {
				bindErr = err
				return
			}
			fmt.Fprintln(out, tb.String())
		})
		if err != nil {
			return err
		}
		if bindErr != nil {
			return bindErr
		}
		logger.Info("watching model", zap.String("path", modelPath))
		return watchModel(ctx, watcher, rt, model)
	})

	err = g.Wait()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// newRecorder creates the snapshot recorder for the watch session. With
// --resume the model is replaced by the session's latest snapshot.
func newRecorder(cmd *cobra.Command, store snapshot.Store, model map[string]any) (*snapshot.Recorder, error) {
	opts := []snapshot.RecorderOption{
		snapshot.WithKeep(watchKeep),
		snapshot.WithRecorderLogger(libraryLogger(cmd.ErrOrStderr())),
	}
	if watchSession != "" {
		opts = append(opts, snapshot.WithSessionID(watchSession))
	}

	if watchResume {
		if watchSession == "" {
			return nil, errors.New("--resume needs --session")
		}
		restored, err := snapshot.Restore(store, watchSession)
		if err != nil {
			return nil, fmt.Errorf("resume session %s: %w", watchSession, err)
		}
		replaceModel(model, restored)
		logger.Info("resumed session", zap.String("session", watchSession), zap.Int("keys", len(model)))
	}

	rec := snapshot.NewRecorder(store, model, opts...)
	logger.Info("recording snapshots",
		zap.String("session", rec.SessionID()),
		zap.String("path", settings.SnapshotPath),
	)
	return rec, nil
}

// watchModel reloads the model file after every write and copies the new
// contents into model on the runtime loop.
func watchModel(ctx context.Context, w *fsnotify.Watcher, rt *observe.Runtime, model map[string]any) error {
	target := filepath.Clean(modelPath)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target || event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			next, err := config.LoadModel(modelPath)
			if err != nil {
				// Usually a partial write; the next event brings the rest.
				logger.Warn("model reload failed", zap.String("path", modelPath), zap.Error(err))
				continue
			}
			logger.Debug("model reloaded", zap.String("path", modelPath), zap.Int("keys", len(next)))
			if err := rt.Do(ctx, func() { replaceModel(model, next) }); err != nil {
				return err
			}

		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watch error", zap.Error(err))
		}
	}
}

// replaceModel makes model's top-level keys equal to next's. The map itself
// is kept because observers hold it.
func replaceModel(model, next map[string]any) {
	for k := range model {
		if _, ok := next[k]; !ok {
			delete(model, k)
		}
	}
	maps.Copy(model, next)
}
