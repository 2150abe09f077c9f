package config

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"talentsearch/internal/errors"
)

// PromptWatcher reloads prompt files after they change on disk. Bursts of
// events within the debounce delay produce one reload, and a reload only
// runs when a watched file's modification time actually moved.
type PromptWatcher struct {
	files    []string
	debounce time.Duration
	reload   func() error
	logger   *errors.Logger

	mu      sync.Mutex
	watcher *fsnotify.Watcher
	done    chan struct{}
	stamps  map[string]time.Time
}

// NewPromptWatcher creates a watcher for files. It does nothing until Start.
func NewPromptWatcher(files []string, debounce time.Duration, reload func() error, logger *errors.Logger) *PromptWatcher {
	if debounce <= 0 {
		debounce = time.Second
	}
	cleaned := make([]string, 0, len(files))
	for _, f := range files {
		cleaned = append(cleaned, filepath.Clean(f))
	}
	return &PromptWatcher{
		files:    cleaned,
		debounce: debounce,
		reload:   reload,
		logger:   logger,
		stamps:   make(map[string]time.Time, len(files)),
	}
}

// NewPromptWatcherForConfig watches every prompt file configured in cfg and
// reloads them through cfg.ReloadPrompts.
func NewPromptWatcherForConfig(cfg *Config, logger *errors.Logger) *PromptWatcher {
	return NewPromptWatcher(cfg.PromptFilePaths(), cfg.AI.PromptReload.DebounceDelay, cfg.ReloadPrompts, logger)
}

// Start begins watching. Starting a watcher with no files is a no-op.
func (pw *PromptWatcher) Start() error {
	pw.mu.Lock()
	defer pw.mu.Unlock()

	if pw.watcher != nil {
		return fmt.Errorf("prompt watcher is already running")
	}
	if len(pw.files) == 0 {
		pw.logger.Debug("No prompt files configured, prompt watcher not started")
		return nil
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}

	// Directories, not files: editors and config management replace files
	// by renaming over them, which drops a file watch.
	dirs := map[string]bool{}
	for _, f := range pw.files {
		pw.stamps[f] = modTime(f)
		dirs[filepath.Dir(f)] = true
	}
	for dir := range dirs {
		if err := w.Add(dir); err != nil {
			pw.logger.Warn("Failed to watch prompt directory", "directory", dir, "error", err)
		}
	}

	pw.watcher = w
	pw.done = make(chan struct{})
	go pw.loop(w, pw.done)

	pw.logger.Info("Prompt file watcher started", "files", pw.files, "debounce", pw.debounce)
	return nil
}

// Stop stops the watcher and waits for its goroutine. It is safe to call
// more than once.
func (pw *PromptWatcher) Stop() error {
	pw.mu.Lock()
	w, done := pw.watcher, pw.done
	pw.watcher = nil
	pw.mu.Unlock()

	if w == nil {
		return nil
	}
	err := w.Close()
	<-done
	if err != nil {
		pw.logger.LogError(err, "Failed to close prompt file watcher")
		return err
	}
	pw.logger.Info("Prompt file watcher stopped")
	return nil
}

// IsRunning reports whether Start succeeded and Stop has not been called
func (pw *PromptWatcher) IsRunning() bool {
	pw.mu.Lock()
	defer pw.mu.Unlock()
	return pw.watcher != nil
}

// loop owns the debounce timer. It exits when Close shuts both channels.
func (pw *PromptWatcher) loop(w *fsnotify.Watcher, done chan struct{}) {
	defer close(done)

	timer := time.NewTimer(pw.debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case event, ok := <-w.Events:
			if !ok {
				return
			}
			if pw.relevant(event) {
				timer.Reset(pw.debounce)
			}
		case err, ok := <-w.Errors:
			if !ok {
				return
			}
			pw.logger.LogError(err, "Prompt file watcher error")
		case <-timer.C:
			pw.reloadIfChanged()
		}
	}
}

func (pw *PromptWatcher) relevant(event fsnotify.Event) bool {
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
		return false
	}
	return slices.Contains(pw.files, filepath.Clean(event.Name))
}

// reloadIfChanged refreshes every stamp, then reloads once if any moved.
// Failed reloads leave the previous prompts active.
func (pw *PromptWatcher) reloadIfChanged() {
	changed := false
	for _, f := range pw.files {
		if t := modTime(f); !t.IsZero() && !t.Equal(pw.stamps[f]) {
			pw.stamps[f] = t
			changed = true
		}
	}
	if !changed {
		return
	}
	if err := pw.reload(); err != nil {
		pw.logger.LogError(err, "Failed to reload prompt files, keeping previous prompts")
		return
	}
	pw.logger.Info("Prompt files reloaded")
}

func modTime(path string) time.Time {
	info, err := os.Stat(path)
	if err != nil {
		return time.Time{}
	}
	return info.ModTime()
}
