package progress

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestNewSpinnerQuiet(t *testing.T) {
	s := NewSpinner("asking", true)
	if s.Enabled() {
		t.Error("quiet spinner should be disabled")
	}
	// Start and Stop are no-ops when disabled.
	s.Start()
	s.Stop("done")
}

func TestNewSpinnerEnvDisable(t *testing.T) {
	t.Setenv("SHEETAI_NO_PROGRESS", "1")
	if NewSpinner("asking", false).Enabled() {
		t.Error("expected spinner to be disabled with SHEETAI_NO_PROGRESS=1")
	}
}

func TestSpinnerDraws(t *testing.T) {
	var buf bytes.Buffer
	s := &Spinner{out: &buf, enabled: true, label: "Asking gemini"}

	s.Start()
	s.Start() // second start is ignored
	time.Sleep(3 * frameInterval)
	s.Update("Writing")
	time.Sleep(2 * frameInterval)
	s.Stop("Wrote Data!D1:E3")

	out := buf.String()
	if !strings.Contains(out, "Asking gemini") {
		t.Errorf("expected label in output, got %q", out)
	}
	if !strings.Contains(out, "Writing") {
		t.Errorf("expected updated label in output, got %q", out)
	}
	if !strings.HasSuffix(out, "✓ Wrote Data!D1:E3\n") {
		t.Errorf("expected result line at the end, got %q", out)
	}
}

func TestSpinnerStopWithoutStart(t *testing.T) {
	var buf bytes.Buffer
	s := &Spinner{out: &buf, enabled: true}
	s.Stop("x")
	if buf.Len() != 0 {
		t.Errorf("expected no output, got %q", buf.String())
	}
}

func TestSpinnerStopTwice(t *testing.T) {
	var buf bytes.Buffer
	s := &Spinner{out: &buf, enabled: true, label: "x"}
	s.Start()
	s.Stop("")
	s.Stop("")
	if strings.Contains(buf.String(), "✓") {
		t.Errorf("empty result should not print a line: %q", buf.String())
	}
}
