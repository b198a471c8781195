package session

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"github.com/autodoc-cli/autodoc/internal/logger"
)

// Watcher reports changes to the token file made by other processes, such
// as `autodoc logout` in a second terminal.
type Watcher struct {
	path    string
	fsw     *fsnotify.Watcher
	log     *slog.Logger
	changes chan struct{}
	done    chan struct{}
}

// Watch starts watching the store's token file. The parent directory is
// watched rather than the file itself so that atomic renames and removals
// are seen.
func (s *FileStore) Watch(log *slog.Logger) (*Watcher, error) {
	if log == nil {
		log = slog.Default()
	}
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("session.FileStore.Watch: create dir: %w", err)
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("session.FileStore.Watch: %w", err)
	}
	if err := fsw.Add(dir); err != nil {
		fsw.Close() //nolint:errcheck
		return nil, fmt.Errorf("session.FileStore.Watch: add %s: %w", dir, err)
	}

	w := &Watcher{
		path:    filepath.Clean(s.path),
		fsw:     fsw,
		log:     log,
		changes: make(chan struct{}, 1),
		done:    make(chan struct{}),
	}
	go w.run()
	log.Debug("watching session token", "path", w.path)
	return w, nil
}

// Changes delivers one value per burst of token file changes. Bursts that
// arrive before the previous value is consumed are coalesced. The channel is
// closed after Close.
func (w *Watcher) Changes() <-chan struct{} {
	return w.changes
}

// Close stops the watcher and waits for its goroutine to exit.
func (w *Watcher) Close() error {
	err := w.fsw.Close()
	<-w.done
	return err
}

func (w *Watcher) run() {
	defer close(w.done)
	defer close(w.changes)

	for {
		select {
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != w.path || event.Op == fsnotify.Chmod {
				continue
			}
			w.log.Debug("session token changed", "op", event.Op.String())
			select {
			case w.changes <- struct{}{}:
			default:
			}
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.log.Warn("session watcher error", logger.Err(err))
		}
	}
}
