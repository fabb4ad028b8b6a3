package config

import (
	"context"
	"log/slog"
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"github.com/slashxD/vector/errors"
	"github.com/slashxD/vector/topology"
)

// ReloadFunc receives the newly loaded topology on each successful reload.
type ReloadFunc func(topology.Topology) error

// Watcher monitors a topology file and invokes the reload callback whenever
// the file is rewritten. A file that fails to parse leaves the previous
// topology in effect; the error is logged and the watch continues.
type Watcher struct {
	path   string
	reload ReloadFunc
	logger *slog.Logger
}

// NewWatcher creates a watcher for the topology file at path.
func NewWatcher(path string, reload ReloadFunc, logger *slog.Logger) *Watcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Watcher{
		path:   path,
		reload: reload,
		logger: logger.With("component", "config-watcher"),
	}
}

// Start begins watching until ctx is cancelled. The parent directory is
// watched rather than the file itself so editors that replace the file
// (write to temp, rename over) are still observed.
func (w *Watcher) Start(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.WrapFatal(err, "ConfigWatcher", "Start", "watcher setup")
	}

	dir := filepath.Dir(w.path)
	if err := watcher.Add(dir); err != nil {
		_ = watcher.Close()
		return errors.WrapFatal(err, "ConfigWatcher", "Start", "watching "+dir)
	}

	go func() {
		defer func() { _ = watcher.Close() }()

		for {
			select {
			case <-ctx.Done():
				return
			case evt, ok := <-watcher.Events:
				if !ok {
					return
				}
				if !w.relevant(evt) {
					continue
				}
				w.apply()
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				w.logger.Warn("watch error", "error", err)
			}
		}
	}()

	return nil
}

// relevant reports whether the event concerns the watched file.
func (w *Watcher) relevant(evt fsnotify.Event) bool {
	if evt.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
		return false
	}
	return filepath.Clean(evt.Name) == filepath.Clean(w.path)
}

// apply reloads the file and hands the result to the callback.
func (w *Watcher) apply() {
	topo, err := Load(w.path)
	if err != nil {
		w.logger.Warn("topology reload skipped", "path", w.path, "error", err)
		return
	}

	if err := w.reload(topo); err != nil {
		w.logger.Error("topology reload rejected", "path", w.path, "error", err)
		return
	}

	w.logger.Info("topology reloaded", "path", w.path)
}
