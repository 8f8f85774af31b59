// Package watcher reports changes to the loaded document using fsnotify.
package watcher

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/custodia-labs/chatd/internal/core/ports/driven"
	"github.com/custodia-labs/chatd/internal/logger"
)

// Ensure Watcher implements the interface.
var _ driven.FileWatcher = (*Watcher)(nil)

// DefaultDebounce coalesces the burst of events editors produce on save.
const DefaultDebounce = 300 * time.Millisecond

// Watcher watches a single file.
//
// The parent directory is watched rather than the file itself so that
// editors which save by writing a new file and renaming it over the old
// one are still seen.
type Watcher struct {
	debounce time.Duration
}

// New creates a watcher. A non-positive debounce uses DefaultDebounce.
func New(debounce time.Duration) *Watcher {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &Watcher{debounce: debounce}
}

// Watch emits once per burst of writes to path. Both channels close when
// ctx is done or the underlying watcher fails.
func (w *Watcher) Watch(ctx context.Context, path string) (<-chan struct{}, <-chan error) {
	changes := make(chan struct{}, 1)
	errs := make(chan error, 1)

	abs, err := filepath.Abs(path)
	if err != nil {
		errs <- fmt.Errorf("resolve %s: %w", path, err)
		close(changes)
		close(errs)
		return changes, errs
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		errs <- fmt.Errorf("create watcher: %w", err)
		close(changes)
		close(errs)
		return changes, errs
	}
	if err := fw.Add(filepath.Dir(abs)); err != nil {
		fw.Close()
		errs <- fmt.Errorf("watch %s: %w", filepath.Dir(abs), err)
		close(changes)
		close(errs)
		return changes, errs
	}
	logger.Debug("watching %s", abs)

	go func() {
		defer close(errs)
		defer close(changes)
		defer fw.Close()

		var (
			timer *time.Timer
			fire  <-chan time.Time
		)
		for {
			select {
			case <-ctx.Done():
				if timer != nil {
					timer.Stop()
				}
				return

			case event, ok := <-fw.Events:
				if !ok {
					return
				}
				if !relevant(event, abs) {
					continue
				}
				if timer == nil {
					timer = time.NewTimer(w.debounce)
				} else {
					if !timer.Stop() {
						select {
						case <-timer.C:
						default:
						}
					}
					timer.Reset(w.debounce)
				}
				fire = timer.C

			case <-fire:
				fire = nil
				// Drop the signal if the previous one is still pending.
				select {
				case changes <- struct{}{}:
				default:
				}

			case err, ok := <-fw.Errors:
				if !ok {
					return
				}
				errs <- fmt.Errorf("watch %s: %w", abs, err)
				return
			}
		}
	}()

	return changes, errs
}

// relevant reports whether event touches the watched file's content.
func relevant(event fsnotify.Event, path string) bool {
	if filepath.Clean(event.Name) != path {
		return false
	}
	return event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename)
}
