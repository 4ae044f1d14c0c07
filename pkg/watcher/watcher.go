// Package watcher reloads models when their source files change.
package watcher

import (
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// FileWatcher watches files for changes and triggers debounced callbacks
type FileWatcher struct {
	watcher   *fsnotify.Watcher
	logger    *zap.Logger
	mu        sync.Mutex
	callbacks map[string]func(string)
	debounce  time.Duration
	timers    map[string]*time.Timer
	pending   sync.WaitGroup
	loop      sync.WaitGroup
	closed    bool
}

// NewFileWatcher creates a new file watcher
func NewFileWatcher(debounce time.Duration, logger *zap.Logger) (*FileWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &FileWatcher{
		watcher:   watcher,
		logger:    logger,
		callbacks: make(map[string]func(string)),
		debounce:  debounce,
		timers:    make(map[string]*time.Timer),
	}, nil
}

// Watch starts watching the specified files.
// callback is called with the changed file's absolute path.
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

		fw.callbacks[absPath] = callback
		fw.logger.Debug("watching file", zap.String("path", absPath))
	}

	return nil
}

// Unwatch stops watching the given files
func (fw *FileWatcher) Unwatch(files []string) {
	fw.mu.Lock()
	defer fw.mu.Unlock()

	for _, file := range files {
		absPath, err := filepath.Abs(file)
		if err != nil {
			continue
		}
		if _, ok := fw.callbacks[absPath]; !ok {
			continue
		}
		_ = fw.watcher.Remove(absPath)
		delete(fw.callbacks, absPath)
		if timer, ok := fw.timers[absPath]; ok {
			if timer.Stop() {
				fw.pending.Done()
			}
			delete(fw.timers, absPath)
		}
	}
}

// Start begins watching for file changes
func (fw *FileWatcher) Start() {
	fw.loop.Add(1)
	go func() {
		defer fw.loop.Done()
		for {
			select {
			case event, ok := <-fw.watcher.Events:
				if !ok {
					return
				}
				fw.handleEvent(event)

			case err, ok := <-fw.watcher.Errors:
				if !ok {
					return
				}
				fw.logger.Warn("watcher error", zap.Error(err))
			}
		}
	}()
}

func (fw *FileWatcher) handleEvent(event fsnotify.Event) {
	switch {
	case event.Has(fsnotify.Write), event.Has(fsnotify.Create):
		fw.handleFileChange(event.Name)
	case event.Has(fsnotify.Rename), event.Has(fsnotify.Remove):
		// Editors that save by renaming drop the inotify watch
		fw.rewatch(event.Name)
	}
}

func (fw *FileWatcher) rewatch(filePath string) {
	fw.mu.Lock()
	_, ok := fw.callbacks[filePath]
	if !ok || fw.closed {
		fw.mu.Unlock()
		return
	}
	fw.pending.Add(1)
	fw.mu.Unlock()

	go func() {
		defer fw.pending.Done()
		time.Sleep(fw.debounce / 2)
		fw.mu.Lock()
		if fw.closed {
			fw.mu.Unlock()
			return
		}
		err := fw.watcher.Add(filePath)
		fw.mu.Unlock()
		if err != nil {
			fw.logger.Debug("file not back yet", zap.String("path", filePath), zap.Error(err))
			return
		}
		fw.handleFileChange(filePath)
	}()
}

// handleFileChange handles a file change event with debouncing
func (fw *FileWatcher) handleFileChange(filePath string) {
	fw.mu.Lock()
	defer fw.mu.Unlock()

	if fw.closed {
		return
	}
	callback, exists := fw.callbacks[filePath]
	if !exists {
		return
	}

	if timer, exists := fw.timers[filePath]; exists && timer.Stop() {
		fw.pending.Done()
	}

	fw.pending.Add(1)
	fw.timers[filePath] = time.AfterFunc(fw.debounce, func() {
		defer fw.pending.Done()
		fw.logger.Debug("file changed", zap.String("path", filePath))
		callback(filePath)
	})
}

// Close stops the watcher and waits for running callbacks
func (fw *FileWatcher) Close() error {
	fw.mu.Lock()
	fw.closed = true
	for path, timer := range fw.timers {
		if timer.Stop() {
			fw.pending.Done()
		}
		delete(fw.timers, path)
	}
	fw.mu.Unlock()

	err := fw.watcher.Close()
	fw.loop.Wait()
	fw.pending.Wait()
	return err
}

// RemoveAll removes all watched files
func (fw *FileWatcher) RemoveAll() error {
	fw.mu.Lock()
	defer fw.mu.Unlock()

	for file := range fw.callbacks {
		if err := fw.watcher.Remove(file); err != nil {
			return err
		}
	}

	for _, timer := range fw.timers {
		if timer.Stop() {
			fw.pending.Done()
		}
	}
	fw.callbacks = make(map[string]func(string))
	fw.timers = make(map[string]*time.Timer)
	return nil
}
