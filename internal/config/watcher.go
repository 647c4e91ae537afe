package config

import (
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/pijaz/pijaz-go/pkg/logging"
)

const (
	// DefaultDebounceInterval is the time to wait before triggering a reload
	// after the last file change is detected.
	DefaultDebounceInterval = 500 * time.Millisecond

	// DefaultWatchInterval is the polling interval used when fsnotify is unavailable.
	DefaultWatchInterval = 5 * time.Second
)

// WatcherConfig holds configuration for the Watcher.
type WatcherConfig struct {
	// ConfigPath is the configuration directory or file to watch.
	ConfigPath string

	// Debounce overrides DefaultDebounceInterval.
	Debounce time.Duration

	// WatchInterval is the fallback polling interval.
	WatchInterval time.Duration

	// OnChange is called once per burst of changes to a configuration file.
	OnChange func()
}

// Watcher monitors the configuration files for changes. It uses fsnotify on
// the containing directory, so editors that replace files by rename are
// handled, and falls back to polling modification times.
type Watcher struct {
	mu sync.Mutex

	config WatcherConfig
	dir    string
	files  map[string]bool

	fsWatcher *fsnotify.Watcher
	stopCh    chan struct{}
	running   bool

	lastModTimes map[string]time.Time

	debounceTimer *time.Timer
	debounceMu    sync.Mutex
}

// NewWatcher creates a watcher for config.ConfigPath.
func NewWatcher(config WatcherConfig) (*Watcher, error) {
	if config.Debounce == 0 {
		config.Debounce = DefaultDebounceInterval
	}
	if config.WatchInterval == 0 {
		config.WatchInterval = DefaultWatchInterval
	}

	w := &Watcher{
		config:       config,
		files:        make(map[string]bool),
		lastModTimes: make(map[string]time.Time),
	}

	info, err := os.Stat(config.ConfigPath)
	if err == nil && !info.IsDir() {
		w.dir = filepath.Dir(config.ConfigPath)
		w.files[filepath.Base(config.ConfigPath)] = true
	} else {
		w.dir = config.ConfigPath
		for _, name := range configFileNames {
			w.files[name] = true
		}
	}

	return w, nil
}

// Start begins watching for configuration changes.
func (w *Watcher) Start() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.running {
		return nil
	}

	w.stopCh = make(chan struct{})
	w.running = true

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		logging.Warn("ConfigWatcher", "fsnotify not available, falling back to polling: %v", err)
		go w.pollForChanges()
		return nil
	}

	w.fsWatcher = watcher

	if err := w.fsWatcher.Add(w.dir); err != nil {
		logging.Warn("ConfigWatcher", "Failed to watch directory %s, falling back to polling: %v", w.dir, err)
		w.fsWatcher.Close()
		w.fsWatcher = nil
		go w.pollForChanges()
		return nil
	}

	// Capture channels before releasing lock to avoid race conditions
	eventsCh := w.fsWatcher.Events
	errorsCh := w.fsWatcher.Errors

	go w.processEvents(eventsCh, errorsCh)

	logging.Info("ConfigWatcher", "Started watching %s for configuration changes", w.dir)
	return nil
}

func (w *Watcher) processEvents(eventsCh <-chan fsnotify.Event, errorsCh <-chan error) {
	for {
		select {
		case <-w.stopCh:
			return

		case event, ok := <-eventsCh:
			if !ok {
				return
			}
			w.handleEvent(event)

		case err, ok := <-errorsCh:
			if !ok {
				return
			}
			logging.Error("ConfigWatcher", err, "fsnotify error")
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	if !w.files[filepath.Base(event.Name)] {
		return
	}
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
		return
	}

	logging.Debug("ConfigWatcher", "Configuration file changed: %s", event.Name)
	w.triggerReloadDebounced()
}

func (w *Watcher) triggerReloadDebounced() {
	w.debounceMu.Lock()
	defer w.debounceMu.Unlock()

	if w.debounceTimer != nil {
		w.debounceTimer.Stop()
	}

	w.debounceTimer = time.AfterFunc(w.config.Debounce, func() {
		w.mu.Lock()
		running := w.running
		callback := w.config.OnChange
		w.mu.Unlock()

		if running && callback != nil {
			callback()
		}
	})
}

func (w *Watcher) pollForChanges() {
	ticker := time.NewTicker(w.config.WatchInterval)
	defer ticker.Stop()

	w.checkForChanges()

	for {
		select {
		case <-w.stopCh:
			return

		case <-ticker.C:
			if w.checkForChanges() {
				logging.Debug("ConfigWatcher", "Configuration changes detected via polling")
				w.triggerReloadDebounced()
			}
		}
	}
}

// checkForChanges records modification times and reports whether any file
// changed since the previous call.
func (w *Watcher) checkForChanges() bool {
	changed := false

	for name := range w.files {
		file := filepath.Join(w.dir, name)
		info, err := os.Stat(file)
		if err != nil {
			continue
		}

		current := info.ModTime()
		if last, exists := w.lastModTimes[file]; exists && current.After(last) {
			changed = true
		}
		w.lastModTimes[file] = current
	}

	return changed
}

// Stop gracefully stops the watcher.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.running {
		return nil
	}

	w.running = false
	close(w.stopCh)

	w.debounceMu.Lock()
	if w.debounceTimer != nil {
		w.debounceTimer.Stop()
		w.debounceTimer = nil
	}
	w.debounceMu.Unlock()

	if w.fsWatcher != nil {
		if err := w.fsWatcher.Close(); err != nil {
			logging.Warn("ConfigWatcher", "Error closing fsnotify watcher: %v", err)
		}
		w.fsWatcher = nil
	}

	logging.Info("ConfigWatcher", "Stopped configuration watcher")
	return nil
}

// IsRunning returns whether the watcher is currently active.
func (w *Watcher) IsRunning() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.running
}
