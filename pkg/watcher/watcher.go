// Package watcher reports new and changed files with per-file debouncing.
package watcher

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// FileWatcher watches files and directories and triggers callbacks once a
// file has been quiet for the debounce interval
type FileWatcher struct {
	watcher  *fsnotify.Watcher
	mu       sync.Mutex
	files    map[string]func(string)
	dirs     map[string]dirWatch
	debounce time.Duration
	timers   map[string]*time.Timer
	logger   *slog.Logger
	closed   bool
}

type dirWatch struct {
	filter   func(string) bool
	callback func(string)
}

// NewFileWatcher creates a new file watcher
func NewFileWatcher(debounce time.Duration) (*FileWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}

	return &FileWatcher{
		watcher:  watcher,
		files:    make(map[string]func(string)),
		dirs:     make(map[string]dirWatch),
		debounce: debounce,
		timers:   make(map[string]*time.Timer),
		logger:   slog.Default(),
	}, nil
}

// SetLogger replaces the logger used for watcher errors
func (fw *FileWatcher) SetLogger(l *slog.Logger) {
	fw.mu.Lock()
	defer fw.mu.Unlock()
	if l != nil {
		fw.logger = l
	}
}

// Watch starts watching the specified files.
// callback will be called when any of the files change.
func (fw *FileWatcher) Watch(files []string, callback func(string)) error {
	fw.mu.Lock()
	defer fw.mu.Unlock()

	for _, file := range files {
		absPath, err := filepath.Abs(file)
		if err != nil {
			return fmt.Errorf("failed to resolve path %s: %w", file, err)
		}

		if err := fw.watcher.Add(absPath); err != nil {
			return fmt.Errorf("failed to watch %s: %w", absPath, err)
		}

		fw.files[absPath] = callback
	}

	return nil
}

// WatchDir calls callback for files created or written in dir whose path
// passes filter. A nil filter accepts every file.
func (fw *FileWatcher) WatchDir(dir string, filter func(string) bool, callback func(string)) error {
	fw.mu.Lock()
	defer fw.mu.Unlock()

	absDir, err := filepath.Abs(dir)
	if err != nil {
		return fmt.Errorf("failed to resolve path %s: %w", dir, err)
	}
	if err := fw.watcher.Add(absDir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", absDir, err)
	}

	fw.dirs[absDir] = dirWatch{filter: filter, callback: callback}
	return nil
}

// Start begins watching for file changes
func (fw *FileWatcher) Start() {
	go func() {
		for {
			select {
			case event, ok := <-fw.watcher.Events:
				if !ok {
					return
				}

				// Only trigger on write or create events
				if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) {
					fw.handleFileChange(event.Name)
				}

			case err, ok := <-fw.watcher.Errors:
				if !ok {
					return
				}
				fw.mu.Lock()
				logger := fw.logger
				fw.mu.Unlock()
				logger.Warn("watcher error", "error", err)
			}
		}
	}()
}

// callbackFor resolves the callback for a changed path; callers hold fw.mu
func (fw *FileWatcher) callbackFor(filePath string) (func(string), bool) {
	if callback, ok := fw.files[filePath]; ok {
		return callback, true
	}
	if dw, ok := fw.dirs[filepath.Dir(filePath)]; ok {
		if dw.filter == nil || dw.filter(filePath) {
			return dw.callback, true
		}
	}
	return nil, false
}

// handleFileChange handles a file change event with debouncing
func (fw *FileWatcher) handleFileChange(filePath string) {
	fw.mu.Lock()
	defer fw.mu.Unlock()

	if fw.closed {
		return
	}
	callback, exists := fw.callbackFor(filePath)
	if !exists {
		return
	}

	// Cancel existing timer if any
	if timer, exists := fw.timers[filePath]; exists {
		timer.Stop()
	}

	fw.timers[filePath] = time.AfterFunc(fw.debounce, func() {
		fw.mu.Lock()
		delete(fw.timers, filePath)
		closed := fw.closed
		fw.mu.Unlock()
		if !closed {
			callback(filePath)
		}
	})
}

// Close stops the watcher and drops pending callbacks
func (fw *FileWatcher) Close() error {
	fw.mu.Lock()
	fw.closed = true
	for _, timer := range fw.timers {
		timer.Stop()
	}
	fw.timers = make(map[string]*time.Timer)
	fw.mu.Unlock()

	return fw.watcher.Close()
}

// RemoveAll removes all watched files and directories
func (fw *FileWatcher) RemoveAll() error {
	fw.mu.Lock()
	defer fw.mu.Unlock()

	for file := range fw.files {
		if err := fw.watcher.Remove(file); err != nil {
			return err
		}
	}
	for dir := range fw.dirs {
		if err := fw.watcher.Remove(dir); err != nil {
			return err
		}
	}

	fw.files = make(map[string]func(string))
	fw.dirs = make(map[string]dirWatch)
	return nil
}
