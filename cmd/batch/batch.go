// Package batch provides the "sheetai batch" command, which runs YAML job
// files of chained asks.
package batch

import (
	"errors"
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/klytics/sheetai/internal/bridge"
	"github.com/klytics/sheetai/internal/cli"
	"github.com/klytics/sheetai/internal/jobs"
	"github.com/klytics/sheetai/internal/output"
)

type stepView struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	Region string `json:"region,omitempty"`
	Answer string `json:"answer,omitempty"`
	Error  string `json:"error,omitempty"`
}

type jobView struct {
	Job     string     `json:"job"`
	File    string     `json:"file"`
	SavedTo string     `json:"savedTo,omitempty"`
	Steps   []stepView `json:"steps"`
}

// NewCommand returns the batch subcommand.
func NewCommand() *cobra.Command {
	var (
		dryRun   bool
		parallel int
	)

	cmd := &cobra.Command{
		Use:   "batch <job.yaml> [job.yaml...]",
		Short: "Run job files of chained asks against workbooks",
		Long: `Runs one or more YAML job files. Each job opens one workbook, runs its steps
in order and saves once at the end. Later steps can use earlier answers with
${{ steps.<id>.answer }} and ${{ steps.<id>.region }}.

Jobs run in parallel (see --parallel) but two jobs may not share a workbook.

Example job:
  name: quarterly
  workbook: sales.xlsx
  steps:
    - id: totals
      source: table:Sales
      prompt: total per region as a table
      new_sheet: true
    - id: note
      source: range:${{ steps.totals.region }}
      prompt: one sentence on the leader
      paste_range: Summary!A1
      on_failure: skip`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			loaded := make([]*jobs.Job, 0, len(args))
			for _, path := range args {
				job, err := jobs.LoadJob(path)
				if err != nil {
					return err
				}
				loaded = append(loaded, job)
			}

			env, err := cli.Setup(cmd, true)
			if err != nil {
				return err
			}
			defer env.Close()

			var br *bridge.Bridge
			if !dryRun {
				if br, err = env.Bridge(cmd.Context()); err != nil {
					return err
				}
			}

			runner := jobs.NewRunner(br, env.Logger)
			runner.SetDryRun(dryRun)

			reports, runErr := runner.RunAll(cmd.Context(), loaded, parallel)

			views := make([]jobView, 0, len(loaded))
			for i, job := range loaded {
				views = append(views, viewOf(args[i], job, reports, i))
			}

			if env.JSON {
				if err := output.FprintJSON(cmd.OutOrStdout(), "batch", views); err != nil {
					return err
				}
			} else {
				printViews(cmd.OutOrStdout(), views)
			}

			if runErr != nil && errors.Is(runErr, bridge.ErrModel) {
				return output.SystemError(runErr)
			}
			return runErr
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Show what each step would ask without calling the model or saving")
	cmd.Flags().IntVar(&parallel, "parallel", 2, "Maximum jobs to run at once")

	return cmd
}

func viewOf(file string, job *jobs.Job, reports []*jobs.Report, i int) jobView {
	v := jobView{Job: job.Name, File: file}
	if i >= len(reports) || reports[i] == nil {
		return v
	}
	rep := reports[i]
	v.SavedTo = rep.SavedTo
	for _, s := range rep.Steps {
		sv := stepView{ID: s.StepID, Region: s.Region, Answer: s.Answer, Status: "ok"}
		switch {
		case s.Skipped:
			sv.Status = "skipped"
		case s.Error != nil:
			sv.Status = "failed"
		}
		if s.Error != nil {
			sv.Error = s.Error.Error()
		}
		v.Steps = append(v.Steps, sv)
	}
	return v
}

func printViews(w io.Writer, views []jobView) {
	bold := color.New(color.Bold)
	green := color.New(color.FgGreen)
	yellow := color.New(color.FgYellow)
	red := color.New(color.FgRed)
	dim := color.New(color.FgHiBlack)

	for _, v := range views {
		bold.Fprintf(w, "%s", v.Job)
		dim.Fprintf(w, "  (%s)\n", v.File)
		for _, s := range v.Steps {
			switch s.Status {
			case "ok":
				if s.Region != "" {
					green.Fprintf(w, "  ✓ %s → %s\n", s.ID, s.Region)
				} else {
					green.Fprintf(w, "  ✓ %s  %s\n", s.ID, s.Answer)
				}
			case "skipped":
				yellow.Fprintf(w, "  ⊘ %s skipped: %s\n", s.ID, s.Error)
			default:
				red.Fprintf(w, "  ✗ %s: %s\n", s.ID, s.Error)
			}
		}
		if v.SavedTo != "" {
			dim.Fprintf(w, "  saved %s\n", v.SavedTo)
		}
		fmt.Fprintln(w)
	}
}
