package config

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/marmos91/streambuf/internal/logger"
)

// watchDebounce coalesces the burst of events editors produce on save.
const watchDebounce = 200 * time.Millisecond

// Watch reloads the file at path whenever it changes and passes every
// configuration that loads and validates to onChange. Invalid edits are
// logged and skipped. Watch returns once the watcher is running; it stops
// when ctx is cancelled.
//
// The parent directory is watched so atomic rename-on-save is detected.
func Watch(ctx context.Context, path string, onChange func(*Config)) error {
	if path == "" {
		return errors.New("watch: empty config path")
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("watch: resolve %s: %w", path, err)
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("watch: %w", err)
	}
	if err := w.Add(filepath.Dir(abs)); err != nil {
		_ = w.Close()
		return fmt.Errorf("watch: add %s: %w", filepath.Dir(abs), err)
	}

	go func() {
		defer func() { _ = w.Close() }()

		var (
			timer  *time.Timer
			reload <-chan time.Time
		)
		for {
			select {
			case <-ctx.Done():
				if timer != nil {
					timer.Stop()
				}
				return

			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if filepath.Clean(ev.Name) != abs {
					continue
				}
				if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
					continue
				}
				if timer == nil {
					timer = time.NewTimer(watchDebounce)
				} else {
					timer.Reset(watchDebounce)
				}
				reload = timer.C

			case <-reload:
				reload = nil
				cfg, err := Load(abs)
				if err != nil {
					logger.Warn("Config reload rejected", logger.KeyConfigPath, abs, logger.KeyError, err)
					continue
				}
				logger.Info("Config reloaded", logger.KeyConfigPath, abs)
				onChange(cfg)

			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				logger.Warn("Config watcher error", logger.KeyError, err)
			}
		}
	}()

	return nil
}
