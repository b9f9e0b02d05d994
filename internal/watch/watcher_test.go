package watch

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/goleak"
)

func TestNewWatcher(t *testing.T) {
	w, err := New(Config{Directories: []string{t.TempDir()}, Debounce: 100}, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	if w == nil {
		t.Fatal("expected non-nil watcher")
	}
	w.fsw.Close()
}

func TestMatchesPattern(t *testing.T) {
	w, _ := New(Config{Pattern: "daily-*"}, nil, nil)
	defer w.fsw.Close()

	if !w.matches("/jobs/daily-sales.yaml") {
		t.Error("should match daily-sales.yaml")
	}
	if w.matches("/jobs/weekly.yaml") {
		t.Error("should not match weekly.yaml")
	}

	all, _ := New(Config{}, nil, nil)
	defer all.fsw.Close()
	if !all.matches("/jobs/anything.yml") {
		t.Error("empty pattern should match everything")
	}
}

// startWatcher runs w in the background and returns a stop func that
// cancels it and waits for Start to return.
func startWatcher(t *testing.T, w *Watcher) func() {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Start(ctx) }()

	// Give the watcher time to register its directories.
	time.Sleep(100 * time.Millisecond)

	return func() {
		cancel()
		if err := <-done; err != nil {
			t.Errorf("Start returned %v", err)
		}
	}
}

func TestWatcherRunsJobFiles(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())
	dir := t.TempDir()

	called := make(chan string, 4)
	w, err := New(Config{Directories: []string{dir}, Debounce: 50}, func(_ context.Context, path string) error {
		called <- path
		return nil
	}, nil)
	if err != nil {
		t.Fatal(err)
	}
	stop := startWatcher(t, w)

	jobFile := filepath.Join(dir, "weekly.yaml")
	os.WriteFile(jobFile, []byte("name: weekly\n"), 0644)

	select {
	case path := <-called:
		if path != jobFile {
			t.Errorf("expected %q, got %q", jobFile, path)
		}
	case <-time.After(2 * time.Second):
		t.Error("timeout waiting for handler call")
	}

	stop()

	events := w.Events()
	if len(events) == 0 || events[0].Status != "processed" {
		t.Errorf("expected a processed event, got %+v", events)
	}
}

func TestWatcherIgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()

	called := make(chan string, 4)
	w, err := New(Config{Directories: []string{dir}, Debounce: 50}, func(_ context.Context, path string) error {
		called <- path
		return nil
	}, nil)
	if err != nil {
		t.Fatal(err)
	}
	stop := startWatcher(t, w)

	os.WriteFile(filepath.Join(dir, "book.xlsx"), []byte("x"), 0644)
	os.WriteFile(filepath.Join(dir, ".weekly.yaml"), []byte("x"), 0644)
	time.Sleep(250 * time.Millisecond)
	stop()

	select {
	case path := <-called:
		t.Errorf("handler should not be called, got %s", path)
	default:
	}
}

func TestWatcherRecordsErrors(t *testing.T) {
	dir := t.TempDir()

	done := make(chan struct{}, 4)
	w, err := New(Config{Directories: []string{dir}, Debounce: 50}, func(context.Context, string) error {
		defer func() { done <- struct{}{} }()
		return errors.New("bad job")
	}, nil)
	if err != nil {
		t.Fatal(err)
	}
	stop := startWatcher(t, w)

	os.WriteFile(filepath.Join(dir, "broken.yml"), []byte("name: ["), 0644)
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for handler call")
	}
	stop()

	events := w.Events()
	if len(events) == 0 || events[0].Status != "error" || events[0].Error != "bad job" {
		t.Errorf("unexpected events: %+v", events)
	}
}

func TestStopDropsPendingFiles(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())
	dir := t.TempDir()

	called := make(chan string, 1)
	w, err := New(Config{Directories: []string{dir}, Debounce: 5000}, func(_ context.Context, path string) error {
		called <- path
		return nil
	}, nil)
	if err != nil {
		t.Fatal(err)
	}
	stop := startWatcher(t, w)

	os.WriteFile(filepath.Join(dir, "slow.yaml"), []byte("name: slow\n"), 0644)
	time.Sleep(100 * time.Millisecond)
	stop()

	select {
	case path := <-called:
		t.Errorf("pending file should be dropped on stop, got %s", path)
	default:
	}
}

func TestPIDFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "state")

	if err := WritePIDFile(dir); err != nil {
		t.Fatal(err)
	}

	pid, err := ReadPIDFile(dir)
	if err != nil {
		t.Fatal(err)
	}
	if pid != os.Getpid() {
		t.Errorf("expected PID %d, got %d", os.Getpid(), pid)
	}

	if err := RemovePIDFile(dir); err != nil {
		t.Fatal(err)
	}

	_, err = ReadPIDFile(dir)
	if err == nil {
		t.Error("expected error after removing PID file")
	}
}

func TestSaveAndLoadConfig(t *testing.T) {
	dir := t.TempDir()

	config := Config{
		Directories: []string{"/srv/jobs"},
		Pattern:     "daily-*",
		Recursive:   true,
		Debounce:    500,
	}

	if err := SaveConfig(dir, config); err != nil {
		t.Fatal(err)
	}

	loaded, err := LoadConfig(dir)
	if err != nil {
		t.Fatal(err)
	}

	if len(loaded.Directories) != 1 || loaded.Directories[0] != "/srv/jobs" {
		t.Errorf("directories mismatch: %v", loaded.Directories)
	}
	if !loaded.Recursive {
		t.Error("expected recursive=true")
	}
	if loaded.Pattern != "daily-*" {
		t.Errorf("pattern = %q", loaded.Pattern)
	}
}

func TestStatus(t *testing.T) {
	w, _ := New(Config{Directories: []string{"/tmp/a", "/tmp/b"}, Pattern: "*.yaml"}, nil, nil)
	defer w.fsw.Close()

	status := w.Status()
	if !status.Running {
		t.Error("expected running=true")
	}
	if len(status.Directories) != 2 {
		t.Errorf("expected 2 directories, got %d", len(status.Directories))
	}
	if status.PID != os.Getpid() {
		t.Errorf("PID = %d", status.PID)
	}
}

func TestDefaultDebounce(t *testing.T) {
	w, _ := New(Config{Debounce: 0}, nil, nil)
	defer w.fsw.Close()

	if w.config.Debounce != 500 {
		t.Errorf("expected default debounce 500, got %d", w.config.Debounce)
	}
}
