package localfile

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"github.com/custodia-labs/flowsync/internal/core/ports/driven"
	"github.com/custodia-labs/flowsync/internal/logger"
)

// Ensure Watcher implements the interface.
var _ driven.Watcher = (*Watcher)(nil)

// Watcher reports changes to a single workflow file.
//
// It watches the parent directory rather than the file itself: editors and
// Store.Write replace the file by rename, which ends an inode-level watch.
type Watcher struct{}

// NewWatcher creates a file watcher.
func NewWatcher() *Watcher {
	return &Watcher{}
}

// Watch starts watching path. Events are coalesced: the channel holds at
// most one pending notification, which is all a debounced consumer needs.
func (w *Watcher) Watch(ctx context.Context, path string) (<-chan struct{}, error) {
	target, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve watch path: %w", err)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create file watcher: %w", err)
	}
	if err := fsw.Add(filepath.Dir(target)); err != nil {
		_ = fsw.Close()
		return nil, fmt.Errorf("watch %s: %w", filepath.Dir(target), err)
	}

	out := make(chan struct{}, 1)
	go func() {
		defer close(out)
		defer fsw.Close()

		for {
			select {
			case <-ctx.Done():
				return

			case event, ok := <-fsw.Events:
				if !ok {
					return
				}
				if !isRelevant(event, target) {
					continue
				}
				logger.Debug("watch: %s %s", event.Op, event.Name)
				select {
				case out <- struct{}{}:
				default:
				}

			case err, ok := <-fsw.Errors:
				if !ok {
					return
				}
				logger.Warn("watch %s: %v", target, err)
			}
		}
	}()

	return out, nil
}

// isRelevant reports whether event touches the watched file in a way that
// can change its content.
func isRelevant(event fsnotify.Event, target string) bool {
	if filepath.Clean(event.Name) != target {
		return false
	}
	return event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename|fsnotify.Remove) != 0
}
