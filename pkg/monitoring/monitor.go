// Package monitoring watches library roots for new and changed book files.
// Watches are recursive and registration is safe to repeat.
package monitoring

import (
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/booklore-app/booklore/pkg/models"
	"github.com/fsnotify/fsnotify"
	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/logger"
)

const eventBuffer = 256

// Monitor wraps an fsnotify watcher with recursive registration, pause
// markers, and an extension filter. Discovered files are delivered on the
// Events channel; the channel drops when full.
type Monitor struct {
	log     logger.Logger
	watcher *fsnotify.Watcher
	events  chan string
	done    chan struct{}

	mu     sync.Mutex
	roots  map[string]bool
	paused map[string]bool
	closed bool
}

func New(log logger.Logger) (*Monitor, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.WithStack(err)
	}

	m := &Monitor{
		log:     log,
		watcher: watcher,
		events:  make(chan string, eventBuffer),
		done:    make(chan struct{}),
		roots:   map[string]bool{},
		paused:  map[string]bool{},
	}

	go m.loop()

	return m, nil
}

// Events delivers absolute paths of discovered book files.
func (m *Monitor) Events() <-chan string {
	return m.events
}

// RegisterPaths adds recursive watches for each root. Roots that are already
// registered or don't exist are skipped.
func (m *Monitor) RegisterPaths(paths []string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, path := range paths {
		abs, err := filepath.Abs(path)
		if err != nil {
			m.log.Warn("skipping unresolvable library root", logger.Data{"path": path, "error": err.Error()})
			continue
		}
		if m.roots[abs] {
			continue
		}
		if err := m.watchRecursive(abs); err != nil {
			m.log.Warn("failed to watch library root", logger.Data{"path": abs, "error": err.Error()})
			continue
		}
		m.roots[abs] = true
	}
}

// UnregisterPath removes the watch on a root and everything under it.
// Unregistering an unknown root is a no-op.
func (m *Monitor) UnregisterPath(path string) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.roots, abs)
	for _, watched := range m.watcher.WatchList() {
		if watched == abs || strings.HasPrefix(watched, abs+string(filepath.Separator)) {
			// Removing a watch that raced with a directory delete is fine.
			_ = m.watcher.Remove(watched)
		}
	}
}

// Pause suppresses events under the given path so the pipeline's own file
// moves don't feed back into it. Pausing an already paused path is a no-op.
func (m *Monitor) Pause(path string) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return
	}
	m.mu.Lock()
	m.paused[abs] = true
	m.mu.Unlock()
}

// Resume lifts a Pause. Resuming a path that isn't paused is a no-op.
func (m *Monitor) Resume(path string) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return
	}
	m.mu.Lock()
	delete(m.paused, abs)
	m.mu.Unlock()
}

func (m *Monitor) Close() error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil
	}
	m.closed = true
	m.mu.Unlock()

	close(m.done)
	return errors.WithStack(m.watcher.Close())
}

// watchRecursive must be called with the mutex held.
func (m *Monitor) watchRecursive(root string) error {
	return filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return errors.WithStack(err)
		}
		if !d.IsDir() {
			return nil
		}
		return errors.WithStack(m.watcher.Add(path))
	})
}

func (m *Monitor) loop() {
	for {
		select {
		case <-m.done:
			return
		case event, ok := <-m.watcher.Events:
			if !ok {
				return
			}
			m.handle(event)
		case err, ok := <-m.watcher.Errors:
			if !ok {
				return
			}
			m.log.Warn("filesystem watch error", logger.Data{"error": err.Error()})
		}
	}
}

func (m *Monitor) handle(event fsnotify.Event) {
	if !event.Op.Has(fsnotify.Create) && !event.Op.Has(fsnotify.Write) && !event.Op.Has(fsnotify.Rename) {
		return
	}

	info, err := os.Stat(event.Name)
	if err != nil {
		// Renames fire for the old name too; nothing to do for a path that
		// no longer exists.
		return
	}

	if info.IsDir() {
		// New directories need their own watch to stay recursive.
		m.mu.Lock()
		if err := m.watchRecursive(event.Name); err != nil {
			m.log.Warn("failed to watch new directory", logger.Data{"path": event.Name, "error": err.Error()})
		}
		m.mu.Unlock()
		return
	}

	if models.BookTypeForExtension(strings.ToLower(filepath.Ext(event.Name))) == "" {
		return
	}

	if m.isPaused(event.Name) {
		return
	}

	select {
	case m.events <- event.Name:
	default:
		m.log.Warn("dropping file event, buffer full", logger.Data{"path": event.Name})
	}
}

func (m *Monitor) isPaused(path string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	for paused := range m.paused {
		if path == paused || strings.HasPrefix(path, paused+string(filepath.Separator)) {
			return true
		}
	}
	return false
}
