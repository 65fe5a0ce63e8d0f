package config

import (
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is the quiet period after the last file event before a
// reload.
const DefaultDebounce = 500 * time.Millisecond

// WatchOption configures Watch.
type WatchOption func(*watchOptions)

type watchOptions struct {
	debounce time.Duration
	log      *slog.Logger
}

// WithDebounce sets the debounce duration.
func WithDebounce(d time.Duration) WatchOption {
	return func(o *watchOptions) { o.debounce = d }
}

// WithWatchLogger sets the logger. The default is slog.Default().
func WithWatchLogger(l *slog.Logger) WatchOption {
	return func(o *watchOptions) { o.log = l }
}

// Watch reloads the configuration whenever its file is written or
// replaced, and calls onChange with the reload error, if any. A failed
// reload keeps the previous content. It blocks until ctx is done.
func (c *Config) Watch(ctx context.Context, onChange func(error), opts ...WatchOption) error {
	if c.path == "" {
		return errors.New("config: no file to watch")
	}
	o := watchOptions{debounce: DefaultDebounce, log: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	// Editors replace files, so the directory is watched.
	path, err := filepath.Abs(c.path)
	if err != nil {
		return err
	}
	if err := w.Add(filepath.Dir(path)); err != nil {
		return err
	}
	o.log.DebugContext(ctx, "config: watching", slog.String("path", path))

	reload := make(chan struct{}, 1)
	var timer *time.Timer
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()
	for {
		select {
		case event, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != path || event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(o.debounce, func() {
				select {
				case reload <- struct{}{}:
				default:
				}
			})
		case <-reload:
			err := c.Reload()
			if err != nil {
				o.log.WarnContext(ctx, "config: reload failed", slog.String("path", path), slog.Any("error", err))
			} else {
				o.log.InfoContext(ctx, "config: reloaded", slog.String("path", path))
			}
			if onChange != nil {
				onChange(err)
			}
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			o.log.WarnContext(ctx, "config: watcher error", slog.Any("error", err))
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
