package jobs

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/klytics/sheetai/internal/ai"
	"github.com/klytics/sheetai/internal/bridge"
	"github.com/klytics/sheetai/internal/formats/xlsx"
)

// scriptedProvider answers by matching a substring of the user message.
type scriptedProvider struct {
	mu      sync.Mutex
	replies map[string]string
	prompts []string
}

func (p *scriptedProvider) Name() string { return "scripted" }

func (p *scriptedProvider) Infer(_ context.Context, _ string, messages []ai.Message, _ ai.InferOptions) (*ai.InferResult, error) {
	text := messages[len(messages)-1].Content
	p.mu.Lock()
	p.prompts = append(p.prompts, text)
	p.mu.Unlock()
	for key, reply := range p.replies {
		if strings.Contains(text, key) {
			if reply == "!fail" {
				return nil, errors.New("model unavailable")
			}
			return &ai.InferResult{Content: reply}, nil
		}
	}
	return &ai.InferResult{Content: "ok"}, nil
}

func writeBook(t *testing.T, dir, name string) string {
	t.Helper()
	f := excelize.NewFile()
	require.NoError(t, f.SetSheetName("Sheet1", "Data"))
	require.NoError(t, f.SetSheetRow("Data", "A1", &[]interface{}{"Region", "Q1"}))
	require.NoError(t, f.SetSheetRow("Data", "A2", &[]interface{}{"North", 10}))
	path := filepath.Join(dir, name)
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())
	return path
}

func newRunner(p ai.Provider) *Runner {
	r := NewRunner(bridge.New(bridge.NewAsker(p, 0, ai.InferOptions{}, nil), nil), nil)
	r.now = func() time.Time { return time.Date(2026, 3, 9, 8, 0, 0, 0, time.UTC) }
	r.getenv = func(name string) string {
		if name == "TEAM" {
			return "finance"
		}
		return ""
	}
	return r
}

func TestRunChainsStepsAndSaves(t *testing.T) {
	dir := t.TempDir()
	book := writeBook(t, dir, "sales.xlsx")
	out := filepath.Join(dir, "result.xlsx")

	p := &scriptedProvider{replies: map[string]string{
		"totals":   "Region,Total\nNorth,10",
		"headline": "North leads",
	}}
	job := &Job{
		Name:     "weekly",
		Workbook: book,
		Output:   out,
		Steps: []Step{
			{ID: "sum", Prompt: "totals", Source: "sheet:Data", PasteRange: "Data!D1"},
			{ID: "head", Prompt: "headline for ${{ env.TEAM }} on ${{ date.today }} from ${{ steps.sum.region }}", Source: "${{ steps.sum.region }}", PasteRange: "Data!G1"},
		},
	}

	rep, err := newRunner(p).Run(context.Background(), job)
	require.NoError(t, err)
	assert.Equal(t, out, rep.SavedTo)
	require.Len(t, rep.Steps, 2)
	assert.Equal(t, "Data!D1:E2", rep.Steps[0].Region)
	assert.Equal(t, "Data!G1", rep.Steps[1].Region)

	require.Len(t, p.prompts, 2)
	assert.Contains(t, p.prompts[1], "headline for finance on 2026-03-09 from Data!D1:E2")
	assert.Contains(t, p.prompts[1], `[["Region","Total"],["North","10"]]`, "second step reads the first step's output")

	saved, err := xlsx.Open(out)
	require.NoError(t, err)
	defer saved.Close()
	block, err := saved.ReadRange("Data!G1")
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"North leads"}}, block.Values)
}

func TestRunSkipsFailedStep(t *testing.T) {
	book := writeBook(t, t.TempDir(), "sales.xlsx")
	p := &scriptedProvider{replies: map[string]string{"flaky": "!fail"}}

	job := &Job{
		Name:     "skip",
		Workbook: book,
		Steps: []Step{
			{ID: "a", Prompt: "flaky", Source: "sheet:", OnFailure: "skip"},
			{ID: "b", Prompt: "fine", Source: "sheet:", PasteRange: "C1"},
		},
	}

	rep, err := newRunner(p).Run(context.Background(), job)
	require.NoError(t, err)
	require.Len(t, rep.Steps, 2)
	assert.True(t, rep.Steps[0].Skipped)
	assert.ErrorContains(t, rep.Steps[0].Error, "model unavailable")
	assert.Equal(t, "Data!C1", rep.Steps[1].Region)
	assert.Equal(t, book, rep.SavedTo)
}

func TestRunStopsWithoutSaving(t *testing.T) {
	book := writeBook(t, t.TempDir(), "sales.xlsx")
	p := &scriptedProvider{replies: map[string]string{"flaky": "!fail"}}

	job := &Job{
		Name:     "stop",
		Workbook: book,
		Steps: []Step{
			{ID: "a", Prompt: "fine", Source: "sheet:", PasteRange: "C1"},
			{ID: "b", Prompt: "flaky", Source: "sheet:"},
		},
	}

	rep, err := newRunner(p).Run(context.Background(), job)
	assert.ErrorContains(t, err, `step "b" failed`)
	require.Len(t, rep.Steps, 2)
	assert.Empty(t, rep.SavedTo)

	reopened, err := xlsx.Open(book)
	require.NoError(t, err)
	defer reopened.Close()
	block, err := reopened.ReadRange("Data!C1")
	require.NoError(t, err)
	assert.Equal(t, [][]string{{""}}, block.Values, "file on disk is unchanged")
}

func TestRunDryRun(t *testing.T) {
	book := writeBook(t, t.TempDir(), "sales.xlsx")
	p := &scriptedProvider{}
	r := newRunner(p)
	r.SetDryRun(true)

	rep, err := r.Run(context.Background(), &Job{
		Name:     "dry",
		Workbook: book,
		Steps:    []Step{{ID: "a", Prompt: "totals", Source: "table:Sales"}},
	})
	require.NoError(t, err)
	assert.Empty(t, p.prompts)
	assert.Contains(t, rep.Steps[0].Answer, "[DRY-RUN]")
	assert.Empty(t, rep.SavedTo)
}

func TestRunMissingWorkbook(t *testing.T) {
	_, err := newRunner(&scriptedProvider{}).Run(context.Background(), &Job{
		Name:     "x",
		Workbook: filepath.Join(t.TempDir(), "missing.xlsx"),
		Steps:    []Step{{ID: "a", Prompt: "p", Source: "sheet:"}},
	})
	assert.Error(t, err)
}

func TestRunAll(t *testing.T) {
	dir := t.TempDir()
	p := &scriptedProvider{}
	var jobs []*Job
	for _, name := range []string{"a.xlsx", "b.xlsx", "c.xlsx"} {
		jobs = append(jobs, &Job{
			Name:     name,
			Workbook: writeBook(t, dir, name),
			Steps:    []Step{{ID: "s", Prompt: "p", Source: "sheet:", PasteRange: "Z1"}},
		})
	}

	reports, err := newRunner(p).RunAll(context.Background(), jobs, 2)
	require.NoError(t, err)
	require.Len(t, reports, 3)
	for i, rep := range reports {
		assert.Equal(t, jobs[i].Name, rep.Job)
		assert.Equal(t, "Data!Z1", rep.Steps[0].Region)
	}
	assert.Len(t, p.prompts, 3)
}

func TestRunAllRejectsSharedWorkbook(t *testing.T) {
	book := writeBook(t, t.TempDir(), "shared.xlsx")
	p := &scriptedProvider{}
	jobs := []*Job{
		{Name: "one", Workbook: book, Steps: []Step{{ID: "s", Prompt: "p", Source: "sheet:"}}},
		{Name: "two", Workbook: filepath.Join(filepath.Dir(book), ".", "shared.xlsx"), Steps: []Step{{ID: "s", Prompt: "p", Source: "sheet:"}}},
	}

	_, err := newRunner(p).RunAll(context.Background(), jobs, 0)
	assert.ErrorContains(t, err, "both use workbook")
	assert.Empty(t, p.prompts)
}

func TestInterpolateLeavesUnknown(t *testing.T) {
	r := newRunner(&scriptedProvider{})
	got := r.interpolate("${{ steps.nope.answer }} ${{ weird }} ${{ date.now }}", nil)
	assert.Equal(t, "${{ steps.nope.answer }} ${{ weird }} 2026-03-09T08:00:00Z", got)
}
