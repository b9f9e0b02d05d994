package shell

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/klytics/sheetai/internal/ai"
	"github.com/klytics/sheetai/internal/bridge"
	"github.com/klytics/sheetai/internal/formats/xlsx"
)

type echoProvider struct{ reply string }

func (p echoProvider) Name() string { return "echo" }

func (p echoProvider) Infer(context.Context, string, []ai.Message, ai.InferOptions) (*ai.InferResult, error) {
	return &ai.InferResult{Content: p.reply}, nil
}

func newTestSession(t *testing.T, reply string) (*Session, string) {
	t.Helper()
	f := excelize.NewFile()
	f.SetSheetName("Sheet1", "Data")
	f.SetSheetRow("Data", "A1", &[]interface{}{"Region", "Q1"})
	f.SetSheetRow("Data", "A2", &[]interface{}{"North", 10})
	if err := f.AddTable("Data", &excelize.Table{Range: "A1:B2", Name: "Sales"}); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(t.TempDir(), "book.xlsx")
	if err := f.SaveAs(path); err != nil {
		t.Fatal(err)
	}
	f.Close()

	book, err := xlsx.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { book.Close() })

	br := bridge.New(bridge.NewAsker(echoProvider{reply: reply}, 0, ai.InferOptions{}, nil), nil)
	return NewSession(book, br, ""), path
}

func TestNewSession(t *testing.T) {
	s, _ := newTestSession(t, "")
	if len(s.History) != 0 {
		t.Errorf("expected empty history, got %d entries", len(s.History))
	}
	if s.Source.Kind != bridge.SourceSheet {
		t.Errorf("default source = %v", s.Source)
	}
}

func TestEvalPromptWritesTable(t *testing.T) {
	s, _ := newTestSession(t, "Region,Total\nNorth,10")

	if _, err := s.Eval(context.Background(), ":paste D1"); err != nil {
		t.Fatal(err)
	}
	out, err := s.Eval(context.Background(), "add totals")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, "2×2 table to Data!D1:E2") {
		t.Errorf("unexpected output: %q", out)
	}
}

func TestEvalPromptScalar(t *testing.T) {
	s, _ := newTestSession(t, "North leads")
	s.Eval(context.Background(), ":paste Data!F1")

	out, err := s.Eval(context.Background(), "who leads")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(out, "North leads") || !strings.Contains(out, "Data!F1") {
		t.Errorf("unexpected output: %q", out)
	}
}

func TestEvalSource(t *testing.T) {
	s, _ := newTestSession(t, "")

	out, err := s.Eval(context.Background(), ":source table:Sales")
	if err != nil {
		t.Fatal(err)
	}
	if out != "Source: table:Sales" {
		t.Errorf("got %q", out)
	}
	if s.Source != (bridge.Source{Kind: bridge.SourceTable, Ref: "Sales"}) {
		t.Errorf("source not updated: %+v", s.Source)
	}

	if _, err := s.Eval(context.Background(), ":source table:"); err == nil {
		t.Error("expected error for empty table name")
	}
}

func TestEvalNewSheet(t *testing.T) {
	s, _ := newTestSession(t, "")

	s.Eval(context.Background(), ":newsheet on")
	if !s.NewSheet {
		t.Error("expected new sheet on")
	}
	s.Eval(context.Background(), ":newsheet off")
	if s.NewSheet {
		t.Error("expected new sheet off")
	}
	if _, err := s.Eval(context.Background(), ":newsheet maybe"); err == nil {
		t.Error("expected error")
	}
}

func TestEvalTablesAndSheets(t *testing.T) {
	s, _ := newTestSession(t, "")

	out, _ := s.Eval(context.Background(), ":tables")
	if !strings.Contains(out, "Sales") || !strings.Contains(out, "Data!A1:B2") {
		t.Errorf("tables output: %q", out)
	}
	out, _ = s.Eval(context.Background(), ":sheets")
	if !strings.Contains(out, "* Data") {
		t.Errorf("sheets output: %q", out)
	}
}

func TestQuitGuardsUnsavedChanges(t *testing.T) {
	s, path := newTestSession(t, "done")
	s.Eval(context.Background(), ":paste C1")
	s.Eval(context.Background(), "mark it")

	if _, err := s.Eval(context.Background(), ":quit"); err == nil || errors.Is(err, errQuit) {
		t.Fatalf("expected unsaved-changes error, got %v", err)
	}

	out, err := s.Eval(context.Background(), ":save")
	if err != nil {
		t.Fatal(err)
	}
	if out != "Saved "+path {
		t.Errorf("got %q", out)
	}

	if _, err := s.Eval(context.Background(), ":quit"); !errors.Is(err, errQuit) {
		t.Errorf("expected quit after save, got %v", err)
	}
}

func TestForceQuit(t *testing.T) {
	s, _ := newTestSession(t, "x")
	s.Eval(context.Background(), "anything")
	out, err := s.Eval(context.Background(), ":quit!")
	if !errors.Is(err, errQuit) {
		t.Fatalf("expected quit, got %v", err)
	}
	if !strings.Contains(out, "1 prompts") {
		t.Errorf("goodbye = %q", out)
	}
}

func TestEvalUnknownCommand(t *testing.T) {
	s, _ := newTestSession(t, "")
	_, err := s.Eval(context.Background(), ":frobnicate")
	if err == nil || !strings.Contains(err.Error(), "unknown command") {
		t.Errorf("expected unknown command error, got %v", err)
	}
}

func TestEvalEmptyAndHistory(t *testing.T) {
	s, _ := newTestSession(t, "")
	out, err := s.Eval(context.Background(), "   ")
	if err != nil || out != "" {
		t.Errorf("expected empty result, got %q %v", out, err)
	}

	s.Eval(context.Background(), ":help")
	s.Eval(context.Background(), ":source")
	out, _ = s.Eval(context.Background(), ":history")
	if !strings.Contains(out, "1  :help") || !strings.Contains(out, "2  :source") {
		t.Errorf("history = %q", out)
	}
}

func TestComplete(t *testing.T) {
	s, _ := newTestSession(t, "")

	got := s.Complete(":s")
	want := []string{":save", ":sheets", ":source"}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("Complete(:s) = %v, want %v", got, want)
	}

	got = s.Complete(":source t")
	if len(got) != 1 || got[0] != "table:Sales" {
		t.Errorf("Complete(:source t) = %v", got)
	}

	if got := s.Complete("plain text"); got != nil {
		t.Errorf("expected no completion for prompts, got %v", got)
	}
}

func TestHelpListsCommands(t *testing.T) {
	s, _ := newTestSession(t, "")
	out, _ := s.Eval(context.Background(), ":help")
	for name := range commands {
		if !strings.Contains(out, name) {
			t.Errorf("help missing %s", name)
		}
	}
}
