package config

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/romdo/go-debounce"
	"github.com/rs/zerolog"
)

// DefaultReloadDelay is how long the watcher waits after the last change
// before re-parsing.
const DefaultReloadDelay = 500 * time.Millisecond

// ReloadFunc receives the result of re-parsing a watched file.
type ReloadFunc func(root *Element, err error)

// Watcher re-parses a configuration file whenever it changes.
type Watcher struct {
	path    string
	delay   time.Duration
	opts    []ParseOption
	logger  zerolog.Logger
	watcher *fsnotify.Watcher
}

// NewWatcher creates a watcher for the file at path. Parse options are
// applied on every reload.
func NewWatcher(path string, logger zerolog.Logger, opts ...ParseOption) *Watcher {
	return &Watcher{
		path:   path,
		delay:  DefaultReloadDelay,
		opts:   opts,
		logger: logger.With().Str("component", "config-watcher").Str("file", path).Logger(),
	}
}

// SetDelay changes the debounce delay. It must be called before Watch.
func (w *Watcher) SetDelay(d time.Duration) {
	w.delay = d
}

// Watch starts watching in the background. The directory holding the file is
// watched so that editors replacing the file are noticed. reloadFn runs after
// each burst of changes; watching stops when ctx is cancelled.
func (w *Watcher) Watch(ctx context.Context, reloadFn ReloadFunc) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}

	if err := watcher.Add(filepath.Dir(w.path)); err != nil {
		_ = watcher.Close()
		return fmt.Errorf("failed to watch %s: %w", w.path, err)
	}
	w.watcher = watcher

	go w.processEvents(ctx, reloadFn)

	w.logger.Info().Msg("Started watching configuration file")
	return nil
}

// processEvents debounces file system events and triggers reloads.
func (w *Watcher) processEvents(ctx context.Context, reloadFn ReloadFunc) {
	target := filepath.Clean(w.path)

	reload, cancel := debounce.New(w.delay, func() {
		root, err := ReadFile(w.path, w.opts...)
		if err != nil {
			w.logger.Error().Err(err).Msg("Failed to reload configuration")
		}
		reloadFn(root, err)
	})
	defer cancel()

	for {
		select {
		case <-ctx.Done():
			_ = w.watcher.Close()
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}

			w.logger.Debug().
				Str("op", event.Op.String()).
				Msg("Configuration file changed")

			reload()

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error().Err(err).Msg("Watcher error")
		}
	}
}
