package output

import (
	"os"
	"os/exec"
	"strconv"
	"strings"
)

// defaultTermHeight is used when LINES is unset.
const defaultTermHeight = 40

// ShouldPage returns true if output should be piped through a pager.
// This checks if stdout is a terminal and the content exceeds terminal height.
func ShouldPage(content string, termHeight int) bool {
	if !isTerminal() {
		return false
	}
	lines := strings.Count(content, "\n")
	return lines > termHeight
}

// TermHeight returns the terminal height from LINES, or a default.
func TermHeight() int {
	if n, err := strconv.Atoi(os.Getenv("LINES")); err == nil && n > 0 {
		return n
	}
	return defaultTermHeight
}

// Page pipes content through the user's preferred pager (PAGER env, or "less").
func Page(content string) error {
	pager := os.Getenv("PAGER")
	if pager == "" {
		pager = "less"
	}

	cmd := exec.Command(pager)
	cmd.Stdin = strings.NewReader(content)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	return cmd.Run()
}

// PrintOrPage writes content to stdout, paging it when it is taller than the
// terminal. Falls back to plain output if the pager cannot start.
func PrintOrPage(content string) error {
	if ShouldPage(content, TermHeight()) {
		if err := Page(content); err == nil {
			return nil
		}
	}
	_, err := os.Stdout.WriteString(content)
	return err
}

func isTerminal() bool {
	fi, err := os.Stdout.Stat()
	if err != nil {
		return false
	}
	return (fi.Mode() & os.ModeCharDevice) != 0
}
