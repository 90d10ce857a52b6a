// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package workspace

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

const (
	// DefaultDebounce is how long a path must stay quiet before its change
	// settles.
	DefaultDebounce = 300 * time.Millisecond

	// sweepInterval is how often pending changes are checked for settling.
	sweepInterval = 100 * time.Millisecond

	// defaultSelfWindow is how long after MarkSelf events on the marked
	// path are treated as the agent's own write rather than an external
	// edit.
	defaultSelfWindow = 2 * time.Second
)

// ignorePatterns are directory names never watched. Tool traffic in these
// is noise for staleness purposes and node_modules alone can exhaust the
// inotify watch budget.
var ignorePatterns = []string{
	".git", ".svn", ".hg",
	"node_modules", "__pycache__", ".venv", "venv",
	"vendor", "target", "dist", "build",
	".idea", ".vscode", ".vs",
}

// =============================================================================
// CHANGE TRACKER
// =============================================================================

// Tracker watches the working root and remembers when each file last
// changed, so undo can warn before clobbering an external edit. It answers
// one question: has this path changed since that time?
type Tracker struct {
	root     string
	watcher  *fsnotify.Watcher
	debounce time.Duration

	// selfWindow is how long a MarkSelf mark stays active.
	selfWindow time.Duration

	mu      sync.Mutex
	pending map[string]time.Time // path -> last raw event time, awaiting quiet
	changes map[string]time.Time // path -> settled change time
	self    map[string]time.Time // path -> agent write mark time

	ctx    context.Context
	cancel context.CancelFunc
}

// New creates a tracker for root. Watching starts with Watch.
func New(root string, debounce time.Duration) (*Tracker, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve root: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("failed to stat root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("root is not a directory: %s", abs)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Tracker{
		root:       abs,
		watcher:    watcher,
		debounce:   debounce,
		selfWindow: defaultSelfWindow,
		pending:    make(map[string]time.Time),
		changes:    make(map[string]time.Time),
		self:       make(map[string]time.Time),
		ctx:        ctx,
		cancel:     cancel,
	}, nil
}

// Root returns the absolute watched root.
func (t *Tracker) Root() string {
	return t.root
}

// Watch starts watching for file changes.
func (t *Tracker) Watch() error {
	if err := t.addRecursive(t.root); err != nil {
		return err
	}

	go t.processEvents()
	go t.processPending()

	return nil
}

// Close stops watching and releases resources.
func (t *Tracker) Close() error {
	t.cancel()
	if t.watcher != nil {
		return t.watcher.Close()
	}
	return nil
}

// addRecursive adds a directory and all its subdirectories to the watch list
func (t *Tracker) addRecursive(dir string) error {
	return filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil // Skip errors
		}

		if !info.IsDir() {
			return nil
		}

		if shouldIgnore(filepath.Base(path)) && path != dir {
			return filepath.SkipDir
		}

		// Add directory to watcher
		if err := t.watcher.Add(path); err != nil {
			// Non-fatal, continue
			return nil
		}

		return nil
	})
}

// shouldIgnore checks if a directory name should be skipped
func shouldIgnore(name string) bool {
	for _, pattern := range ignorePatterns {
		matched, _ := filepath.Match(pattern, name)
		if matched {
			return true
		}
	}
	return false
}

// processEvents processes file system events
func (t *Tracker) processEvents() {
	// Panic recovery keeps a watcher fault from taking down the process;
	// the tracker degrades to never warning.
	defer func() {
		if r := recover(); r != nil {
			_ = r
		}
	}()

	for {
		select {
		case <-t.ctx.Done():
			return

		case event, ok := <-t.watcher.Events:
			if !ok {
				return
			}

			// Writes, creates, removes and renames all count as changes:
			// an externally deleted file is exactly what undo must not
			// silently recreate over.
			if event.Op&fsnotify.Write == fsnotify.Write ||
				event.Op&fsnotify.Create == fsnotify.Create ||
				event.Op&fsnotify.Remove == fsnotify.Remove ||
				event.Op&fsnotify.Rename == fsnotify.Rename {
				t.noteChange(event.Name)
			}

			// Watch new directories as they appear
			if event.Op&fsnotify.Create == fsnotify.Create {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if !shouldIgnore(filepath.Base(event.Name)) {
						t.addRecursive(event.Name)
					}
				}
			}

		case err, ok := <-t.watcher.Errors:
			if !ok {
				return
			}
			// Non-fatal
			_ = err
		}
	}
}

// processPending settles pending changes once their path has been quiet for
// the debounce window.
func (t *Tracker) processPending() {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-t.ctx.Done():
			return

		case <-ticker.C:
			t.settle(time.Now())
		}
	}
}

// settle moves pending entries older than the debounce window into the
// settled set, keeping the raw event time.
func (t *Tracker) settle(now time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()

	for path, eventTime := range t.pending {
		if now.Sub(eventTime) >= t.debounce {
			t.changes[path] = eventTime
			delete(t.pending, path)
		}
	}
}

// noteChange records a raw change event for a path, unless the path carries
// an active self mark.
func (t *Tracker) noteChange(path string) {
	path = filepath.Clean(path)
	now := time.Now()

	t.mu.Lock()
	defer t.mu.Unlock()

	if mark, ok := t.self[path]; ok {
		if now.Sub(mark) <= t.selfWindow {
			return
		}
		delete(t.self, path)
	}

	t.pending[path] = now
}

// MarkSelf declares that the agent itself is responsible for recent and
// imminent changes to path, so they are not reported as external. The mark
// also absorbs events already recorded just before it: tool execution
// finishes before the action is recorded, so the agent's own write event
// typically lands first.
func (t *Tracker) MarkSelf(path string) {
	path = filepath.Clean(path)
	now := time.Now()

	t.mu.Lock()
	defer t.mu.Unlock()

	t.self[path] = now
	if evt, ok := t.pending[path]; ok && now.Sub(evt) <= t.selfWindow {
		delete(t.pending, path)
	}
	if evt, ok := t.changes[path]; ok && now.Sub(evt) <= t.selfWindow {
		delete(t.changes, path)
	}
}

// ChangedSince reports whether path changed after the given time. Both
// settled and still-debouncing events count; staleness must not hide behind
// the debounce window.
func (t *Tracker) ChangedSince(path string, since time.Time) bool {
	path = filepath.Clean(path)

	t.mu.Lock()
	defer t.mu.Unlock()

	if evt, ok := t.pending[path]; ok && evt.After(since) {
		return true
	}
	if evt, ok := t.changes[path]; ok && evt.After(since) {
		return true
	}
	return false
}
