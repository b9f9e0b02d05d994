// Package watch monitors directories for job files and runs each one as it
// is created or saved.
package watch

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/klytics/sheetai/internal/logging"
)

// Config holds the watcher configuration.
type Config struct {
	Directories []string `json:"directories"`
	// Pattern filters job file names (e.g. "daily-*"). Empty matches all.
	Pattern   string `json:"pattern,omitempty"`
	Recursive bool   `json:"recursive"`
	Debounce  int    `json:"debounceMs"` // Milliseconds to wait before processing
}

// Event represents a file event that was detected and processed.
type Event struct {
	Time      time.Time `json:"time"`
	Path      string    `json:"path"`
	Operation string    `json:"operation"`
	Status    string    `json:"status"` // "processed", "error", "skipped"
	Error     string    `json:"error,omitempty"`
}

// Handler is called with the path of each job file that settles.
type Handler func(ctx context.Context, path string) error

// Status represents the current watcher status.
type Status struct {
	Running     bool     `json:"running"`
	PID         int      `json:"pid,omitempty"`
	Directories []string `json:"directories"`
	Pattern     string   `json:"pattern,omitempty"`
	EventCount  int      `json:"eventCount"`
}

var jobExtensions = map[string]bool{".yaml": true, ".yml": true}

// Watcher monitors directories for job file changes.
type Watcher struct {
	config  Config
	handler Handler
	logger  *zap.Logger

	mu       sync.Mutex
	events   []Event
	debounce map[string]*time.Timer
	inflight sync.WaitGroup
	fsw      *fsnotify.Watcher
}

// New creates a Watcher. A nil handler records matches without acting.
func New(config Config, handler Handler, logger *zap.Logger) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("could not create file watcher: %w", err)
	}

	if config.Debounce <= 0 {
		config.Debounce = 500
	}

	return &Watcher{
		config:   config,
		handler:  handler,
		logger:   logging.OrNop(logger),
		fsw:      fsw,
		debounce: make(map[string]*time.Timer),
	}, nil
}

// Start watches the configured directories until ctx is cancelled. Pending
// debounced files are dropped and running handlers are waited for before it
// returns.
func (w *Watcher) Start(ctx context.Context) error {
	defer w.shutdown()

	for _, dir := range w.config.Directories {
		absDir, err := filepath.Abs(dir)
		if err != nil {
			return fmt.Errorf("could not resolve %s: %w", dir, err)
		}

		if w.config.Recursive {
			if err := w.addRecursive(absDir); err != nil {
				return err
			}
		} else if err := w.fsw.Add(absDir); err != nil {
			return fmt.Errorf("could not watch %s: %w", absDir, err)
		}
	}

	w.logger.Info("watching for job files",
		zap.Strings("directories", w.config.Directories),
		zap.String("pattern", w.config.Pattern))

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("stopping watcher")
			return nil
		case event, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			w.handleEvent(ctx, event)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watch error", zap.Error(err))
		}
	}
}

func (w *Watcher) shutdown() {
	w.mu.Lock()
	for path, timer := range w.debounce {
		if timer.Stop() {
			w.inflight.Done()
		}
		delete(w.debounce, path)
	}
	w.mu.Unlock()
	w.inflight.Wait()
	_ = w.fsw.Close()
}

func (w *Watcher) addRecursive(dir string) error {
	return filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		if info.IsDir() {
			if strings.HasPrefix(filepath.Base(path), ".") && path != dir {
				return filepath.SkipDir
			}
			return w.fsw.Add(path)
		}
		return nil
	})
}

func (w *Watcher) handleEvent(ctx context.Context, event fsnotify.Event) {
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
		return
	}

	path := event.Name
	if !jobExtensions[strings.ToLower(filepath.Ext(path))] {
		return
	}

	// Editor swap and backup files.
	base := filepath.Base(path)
	if strings.HasPrefix(base, ".") || strings.HasPrefix(base, "~") || strings.HasSuffix(base, "~") {
		return
	}

	op := event.Op.String()
	w.mu.Lock()
	if timer, ok := w.debounce[path]; ok && timer.Stop() {
		w.inflight.Done()
	}
	w.inflight.Add(1)
	var timer *time.Timer
	timer = time.AfterFunc(time.Duration(w.config.Debounce)*time.Millisecond, func() {
		defer w.inflight.Done()
		w.mu.Lock()
		if w.debounce[path] == timer {
			delete(w.debounce, path)
		}
		w.mu.Unlock()
		w.processFile(ctx, path, op)
	})
	w.debounce[path] = timer
	w.mu.Unlock()
}

func (w *Watcher) processFile(ctx context.Context, path, operation string) {
	evt := Event{Time: time.Now(), Path: path, Operation: operation}

	switch {
	case !w.matches(path):
		evt.Status = "skipped"
	case w.handler == nil:
		evt.Status = "processed"
		w.logger.Info("matched job file (no handler)", zap.String("path", path))
	default:
		if err := w.handler(ctx, path); err != nil {
			evt.Status = "error"
			evt.Error = err.Error()
			w.logger.Error("job failed", zap.String("path", path), zap.Error(err))
		} else {
			evt.Status = "processed"
			w.logger.Info("job processed", zap.String("path", path))
		}
	}

	w.mu.Lock()
	w.events = append(w.events, evt)
	w.mu.Unlock()
}

func (w *Watcher) matches(path string) bool {
	if w.config.Pattern == "" {
		return true
	}
	matched, _ := filepath.Match(w.config.Pattern, filepath.Base(path))
	return matched
}

// Status returns the current watcher status.
func (w *Watcher) Status() Status {
	w.mu.Lock()
	defer w.mu.Unlock()
	return Status{
		Running:     true,
		PID:         os.Getpid(),
		Directories: w.config.Directories,
		Pattern:     w.config.Pattern,
		EventCount:  len(w.events),
	}
}

// Events returns all recorded events.
func (w *Watcher) Events() []Event {
	w.mu.Lock()
	defer w.mu.Unlock()
	events := make([]Event, len(w.events))
	copy(events, w.events)
	return events
}

const (
	pidFile    = "watch.pid"
	configFile = "watch-config.json"
)

// WritePIDFile writes the current process ID to the PID file in the given directory.
func WritePIDFile(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, pidFile), []byte(fmt.Sprintf("%d", os.Getpid())), 0644)
}

// ReadPIDFile reads the PID from the PID file.
func ReadPIDFile(dir string) (int, error) {
	data, err := os.ReadFile(filepath.Join(dir, pidFile))
	if err != nil {
		return 0, err
	}
	var pid int
	if _, err := fmt.Sscanf(string(data), "%d", &pid); err != nil {
		return 0, fmt.Errorf("invalid PID file: %w", err)
	}
	return pid, nil
}

// RemovePIDFile removes the PID file.
func RemovePIDFile(dir string) error {
	return os.Remove(filepath.Join(dir, pidFile))
}

// SaveConfig writes the watcher config to a JSON file.
func SaveConfig(dir string, config Config) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(config, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, configFile), data, 0644)
}

// LoadConfig reads the watcher config from a JSON file.
func LoadConfig(dir string) (*Config, error) {
	data, err := os.ReadFile(filepath.Join(dir, configFile))
	if err != nil {
		return nil, err
	}
	var config Config
	if err := json.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("invalid watch config: %w", err)
	}
	return &config, nil
}
