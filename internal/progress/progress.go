// Package progress shows a spinner on stderr while a model call is running.
// Nothing is drawn unless stderr is a terminal.
package progress

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/mattn/go-isatty"
)

var frames = []rune{'⠋', '⠙', '⠹', '⠸', '⠼', '⠴', '⠦', '⠧', '⠇', '⠏'}

const frameInterval = 80 * time.Millisecond

// Spinner shows a spinner for operations where total is unknown.
type Spinner struct {
	out     io.Writer
	enabled bool

	mu      sync.Mutex
	label   string
	done    chan struct{}
	running bool
	wg      sync.WaitGroup
}

// NewSpinner creates a spinner. It is disabled when quiet is set (for
// example with --json), when SHEETAI_NO_PROGRESS=1, or when stderr is not
// a terminal.
func NewSpinner(label string, quiet bool) *Spinner {
	return &Spinner{
		out:     os.Stderr,
		label:   label,
		enabled: !quiet && shouldEnable(),
	}
}

// Enabled reports whether the spinner draws anything.
func (s *Spinner) Enabled() bool {
	return s.enabled
}

// Start begins the spinner animation.
func (s *Spinner) Start() {
	if !s.enabled {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return
	}
	s.running = true
	s.done = make(chan struct{})

	s.wg.Add(1)
	go s.spin(s.done)
}

func (s *Spinner) spin(done <-chan struct{}) {
	defer s.wg.Done()
	ticker := time.NewTicker(frameInterval)
	defer ticker.Stop()

	for i := 0; ; i++ {
		s.mu.Lock()
		fmt.Fprintf(s.out, "\r\033[K%c %s", frames[i%len(frames)], s.label)
		s.mu.Unlock()

		select {
		case <-done:
			return
		case <-ticker.C:
		}
	}
}

// Update changes the spinner label while it's running.
func (s *Spinner) Update(label string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.label = label
}

// Stop halts the animation and clears the line. A non-empty result is
// printed in its place.
func (s *Spinner) Stop(result string) {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	close(s.done)
	s.mu.Unlock()

	s.wg.Wait()
	fmt.Fprint(s.out, "\r\033[K")
	if result != "" {
		fmt.Fprintf(s.out, "✓ %s\n", result)
	}
}

func shouldEnable() bool {
	if os.Getenv("SHEETAI_NO_PROGRESS") == "1" {
		return false
	}
	fd := os.Stderr.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
