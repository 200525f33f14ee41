package config

import (
	"context"
	"log/slog"
	"time"

	"github.com/fsnotify/fsnotify"
)

// settleDelay is how long the file must stay quiet before a reload. One save
// often produces several Write/Create events.
const settleDelay = 200 * time.Millisecond

// WatchSource monitors path and calls onChange with the new source section
// whenever a reload yields one that differs from the last applied source.
// Edits elsewhere in the file are logged and ignored. It runs until ctx is
// cancelled.
//
// If a reload fails (e.g., invalid YAML), the error is logged and the
// previous source remains active.
func WatchSource(ctx context.Context, path string, onChange func(Source)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	if err := watcher.Add(path); err != nil {
		return err
	}

	// A file that is invalid at start leaves current nil, so the first
	// valid reload is always delivered.
	var current *Source
	if cfg, err := Load(path); err == nil {
		current = &cfg.Source
	}

	slog.Info("config: watching source", "path", path)

	var settle <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			// Atomic-save editors replace the file, which surfaces as Create.
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			settle = time.After(settleDelay)

		case <-settle:
			settle = nil
			// Re-add the file in case an atomic save replaced the inode.
			_ = watcher.Add(path)

			cfg, err := Load(path)
			if err != nil {
				slog.Error("config: reload failed, keeping previous source",
					"path", path, "err", err)
				continue
			}
			if current != nil && *current == cfg.Source {
				slog.Debug("config: reloaded, source unchanged", "path", path)
				continue
			}
			current = &cfg.Source
			slog.Info("config: source changed", "path", path, "type", cfg.Source.Type)
			onChange(cfg.Source)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			slog.Error("config: watcher error", "err", err)
		}
	}
}
