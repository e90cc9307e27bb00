package project

import (
	"context"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// WatchDebounce is how long the watcher waits for a burst of file events
// to settle before calling back.
const WatchDebounce = 200 * time.Millisecond

// Watch calls onChange whenever project files are created, written,
// renamed or removed, until ctx is cancelled. Bursts of events produce a
// single call.
func (s *Store) Watch(ctx context.Context, onChange func()) error {
	return WatchDir(ctx, s.ProjectsDir(), "*.json", s.logger, onChange)
}

// WatchDir watches dir for files matching pattern and reports debounced
// changes to onChange.
func WatchDir(ctx context.Context, dir, pattern string, logger *slog.Logger, onChange func()) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()
	if err := w.Add(dir); err != nil {
		return err
	}
	if logger == nil {
		logger = slog.Default()
	}
	logger.Debug("watcher: started", slog.String("dir", dir))

	var timer *time.Timer
	var fire <-chan time.Time
	schedule := func() {
		if timer == nil {
			timer = time.NewTimer(WatchDebounce)
			fire = timer.C
			return
		}
		if !timer.Stop() {
			select {
			case <-timer.C:
			default:
			}
		}
		timer.Reset(WatchDebounce)
	}

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			logger.Debug("watcher: stopped", slog.String("dir", dir))
			return nil

		case <-fire:
			onChange()

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if matched, _ := filepath.Match(pattern, filepath.Base(ev.Name)); !matched {
				continue
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) != 0 {
				schedule()
			}

		case werr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watcher: error", slog.String("dir", dir), slog.Any("error", werr))
		}
	}
}
