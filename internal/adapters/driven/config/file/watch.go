package file

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"github.com/AlbertoRQ/Baratazo/internal/logger"
)

// Watch reloads the configuration whenever the file is written and signals
// each reload on the returned channel. Pending signals coalesce into one.
// The channel is closed once ctx is done.
func (s *ConfigStore) Watch(ctx context.Context) (<-chan struct{}, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating config watcher: %w", err)
	}
	// Editors save by replacing the file, so watch the directory.
	dir := filepath.Dir(s.filePath)
	if err := w.Add(dir); err != nil {
		_ = w.Close()
		return nil, fmt.Errorf("watching %s: %w", dir, err)
	}

	changes := make(chan struct{}, 1)
	go func() {
		defer close(changes)
		defer w.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if !s.isConfigWrite(ev) {
					continue
				}
				if err := s.Load(); err != nil {
					logger.Warn("config: reloading %s: %v", s.filePath, err)
					continue
				}
				logger.Debug("config: reloaded %s", s.filePath)
				select {
				case changes <- struct{}{}:
				default:
				}
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				logger.Warn("config: watcher: %v", err)
			}
		}
	}()
	return changes, nil
}

// isConfigWrite reports whether ev leaves new content in the config file.
// Removals are ignored: the replacing create follows.
func (s *ConfigStore) isConfigWrite(ev fsnotify.Event) bool {
	if filepath.Clean(ev.Name) != filepath.Clean(s.filePath) {
		return false
	}
	return ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create)
}
