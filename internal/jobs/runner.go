package jobs

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/klytics/sheetai/internal/bridge"
	"github.com/klytics/sheetai/internal/formats/xlsx"
	"github.com/klytics/sheetai/internal/logging"
)

// StepResult holds the outcome of one step.
type StepResult struct {
	StepID  string `json:"stepId"`
	Answer  string `json:"answer,omitempty"`
	Region  string `json:"region,omitempty"`
	Skipped bool   `json:"skipped,omitempty"`
	Error   error  `json:"-"`
}

// Report summarizes a job run.
type Report struct {
	Job     string       `json:"job"`
	SavedTo string       `json:"savedTo,omitempty"`
	Steps   []StepResult `json:"steps"`
}

// Runner executes jobs through a Bridge. It holds no per-run state and may
// run several jobs at once as long as they use different workbooks.
type Runner struct {
	bridge *bridge.Bridge
	logger *zap.Logger
	dryRun bool
	now    func() time.Time
	getenv func(string) string
}

// NewRunner creates a runner.
func NewRunner(b *bridge.Bridge, logger *zap.Logger) *Runner {
	return &Runner{
		bridge: b,
		logger: logging.OrNop(logger),
		now:    time.Now,
		getenv: os.Getenv,
	}
}

// SetDryRun makes Run resolve and report each step without calling the
// model or saving the workbook.
func (r *Runner) SetDryRun(dryRun bool) {
	r.dryRun = dryRun
}

// Run opens the job's workbook, runs its steps in order and saves once at
// the end. A failing step stops the job unless it is marked on_failure: skip;
// a stopped job leaves the file on disk untouched.
func (r *Runner) Run(ctx context.Context, job *Job) (*Report, error) {
	book, err := xlsx.Open(job.Workbook)
	if err != nil {
		return nil, err
	}
	defer book.Close()

	report := &Report{Job: job.Name}
	answers := make(map[string]StepResult, len(job.Steps))
	log := r.logger.With(zap.String("job", job.Name), zap.String("workbook", job.Workbook))

	for i, step := range job.Steps {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		step = r.resolveStep(step, answers)
		log.Debug("running step", zap.Int("index", i+1), zap.Int("total", len(job.Steps)), zap.String("step", step.ID))

		result := StepResult{StepID: step.ID}
		if r.dryRun {
			result.Answer = fmt.Sprintf("[DRY-RUN] Would ask %q against %s", truncate(step.Prompt, 100), step.Source)
			report.Steps = append(report.Steps, result)
			answers[step.ID] = result
			continue
		}

		res, err := r.runStep(ctx, book, step)
		if err != nil {
			result.Error = err
			if step.OnFailure == "skip" {
				result.Skipped = true
				log.Warn("step failed, skipping", zap.String("step", step.ID), zap.Error(err))
				report.Steps = append(report.Steps, result)
				answers[step.ID] = result
				continue
			}
			report.Steps = append(report.Steps, result)
			return report, fmt.Errorf("step %q failed: %w", step.ID, err)
		}

		result.Answer = res.Answer
		result.Region = res.Region
		report.Steps = append(report.Steps, result)
		answers[step.ID] = result
		log.Info("step complete", zap.String("step", step.ID), zap.String("region", res.Region))
	}

	if r.dryRun {
		return report, nil
	}

	if job.Output != "" {
		err = book.SaveAs(job.Output)
	} else {
		err = book.Save()
	}
	if err != nil {
		return report, fmt.Errorf("could not save workbook: %w", err)
	}
	report.SavedTo = book.Path()
	return report, nil
}

func (r *Runner) runStep(ctx context.Context, book *xlsx.Book, step Step) (*bridge.Result, error) {
	src, err := bridge.ParseSource(step.Source)
	if err != nil {
		return nil, err
	}
	return r.bridge.Ask(ctx, book, bridge.Request{
		Prompt:     step.Prompt,
		Source:     src,
		PasteRange: step.PasteRange,
		NewSheet:   step.NewSheet,
	})
}

// RunAll runs jobs concurrently, at most limit at a time. Jobs that share a
// workbook are rejected before anything runs. Reports are returned in input
// order; the first error cancels the rest.
func (r *Runner) RunAll(ctx context.Context, jobs []*Job, limit int) ([]*Report, error) {
	owners := make(map[string]string, len(jobs))
	for _, j := range jobs {
		key := workbookKey(j.Workbook)
		if prev, ok := owners[key]; ok {
			return nil, fmt.Errorf("jobs %q and %q both use workbook %s — run them in one job or one after another", prev, j.Name, j.Workbook)
		}
		owners[key] = j.Name
	}

	reports := make([]*Report, len(jobs))
	g, ctx := errgroup.WithContext(ctx)
	if limit > 0 {
		g.SetLimit(limit)
	}
	for i, j := range jobs {
		g.Go(func() error {
			rep, err := r.Run(ctx, j)
			reports[i] = rep
			if err != nil {
				return fmt.Errorf("job %q: %w", j.Name, err)
			}
			return nil
		})
	}
	return reports, g.Wait()
}

func workbookKey(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return filepath.Clean(path)
}

var interpolationPattern = regexp.MustCompile(`\$\{\{\s*([^}]+)\s*\}\}`)

func (r *Runner) resolveStep(step Step, answers map[string]StepResult) Step {
	resolved := step
	resolved.Prompt = r.interpolate(step.Prompt, answers)
	resolved.Source = r.interpolate(step.Source, answers)
	resolved.PasteRange = r.interpolate(step.PasteRange, answers)
	return resolved
}

// interpolate expands ${{ steps.<id>.answer }}, ${{ steps.<id>.region }},
// ${{ date.today }}, ${{ date.now }} and ${{ env.NAME }}. Unknown
// expressions are left as written.
func (r *Runner) interpolate(s string, answers map[string]StepResult) string {
	return interpolationPattern.ReplaceAllStringFunc(s, func(match string) string {
		inner := interpolationPattern.FindStringSubmatch(match)
		if len(inner) < 2 {
			return match
		}
		expr := strings.TrimSpace(inner[1])

		if strings.HasPrefix(expr, "steps.") {
			parts := strings.Split(expr, ".")
			if len(parts) == 3 {
				if result, ok := answers[parts[1]]; ok {
					switch parts[2] {
					case "answer":
						return result.Answer
					case "region":
						return result.Region
					}
				}
			}
			return match
		}

		switch expr {
		case "date.today":
			return r.now().Format("2006-01-02")
		case "date.now", "date.timestamp":
			return r.now().Format(time.RFC3339)
		}

		if name, ok := strings.CutPrefix(expr, "env."); ok {
			return r.getenv(name)
		}

		return match
	})
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
