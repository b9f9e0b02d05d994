// Package watch provides the "sheetai watch" commands, which run job files as
// they are dropped into a directory.
package watch

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/klytics/sheetai/internal/cli"
	"github.com/klytics/sheetai/internal/config"
	"github.com/klytics/sheetai/internal/jobs"
	"github.com/klytics/sheetai/internal/output"
	w "github.com/klytics/sheetai/internal/watch"
)

// NewCommand creates the "watch" command with subcommands.
func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Run job files as they appear in a directory",
		Long: `Watch directories for new or modified job files (.yaml, .yml) and run each
one when it settles, the same way 'sheetai batch' does.

Example:
  sheetai watch start ./jobs --pattern 'daily-*'
  sheetai watch status
  sheetai watch stop`,
	}

	cmd.AddCommand(newStartCmd())
	cmd.AddCommand(newStopCmd())
	cmd.AddCommand(newStatusCmd())

	return cmd
}

func newStartCmd() *cobra.Command {
	var (
		pattern   string
		recursive bool
		debounce  int
		dryRun    bool
	)

	cmd := &cobra.Command{
		Use:   "start <directory> [directory...]",
		Short: "Start watching directories for job files",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := cli.Setup(cmd, false)
			if err != nil {
				return err
			}
			defer env.Close()

			runner := jobs.NewRunner(nil, env.Logger)
			if dryRun {
				runner.SetDryRun(true)
			} else {
				br, err := env.Bridge(cmd.Context())
				if err != nil {
					return err
				}
				runner = jobs.NewRunner(br, env.Logger)
			}

			// Job files may name the same workbook, so they run one at a time.
			var mu sync.Mutex
			handler := func(ctx context.Context, path string) error {
				job, err := jobs.LoadJob(path)
				if err != nil {
					return err
				}
				mu.Lock()
				defer mu.Unlock()
				rep, err := runner.Run(ctx, job)
				if err != nil {
					return err
				}
				env.Logger.Info("job finished",
					zap.String("job", rep.Job),
					zap.Int("steps", len(rep.Steps)),
					zap.String("saved_to", rep.SavedTo))
				return nil
			}

			wcfg := w.Config{
				Directories: args,
				Pattern:     pattern,
				Recursive:   recursive,
				Debounce:    debounce,
			}
			watcher, err := w.New(wcfg, handler, env.Logger)
			if err != nil {
				return output.SystemError(err)
			}

			dir := config.Dir()
			if err := w.WritePIDFile(dir); err != nil {
				env.Logger.Warn("could not write PID file", zap.Error(err))
			}
			defer w.RemovePIDFile(dir)

			// Save config for status command
			if err := w.SaveConfig(dir, wcfg); err != nil {
				env.Logger.Warn("could not save watch config", zap.Error(err))
			}

			fmt.Fprintf(cmd.ErrOrStderr(), "Watching %d directory(ies) for job files\n", len(args))
			fmt.Fprintln(cmd.ErrOrStderr(), "Press Ctrl+C to stop")

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return watcher.Start(ctx)
		},
	}

	cmd.Flags().StringVar(&pattern, "pattern", "", "Only run job files whose name matches this glob, e.g. 'daily-*'")
	cmd.Flags().BoolVarP(&recursive, "recursive", "r", false, "Watch directories recursively")
	cmd.Flags().IntVar(&debounce, "debounce", 500, "Debounce interval in milliseconds")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Log what each job would ask without calling the model")

	return cmd
}

func newStopCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stop",
		Short: "Stop the running watcher",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := config.Dir()
			pid, err := w.ReadPIDFile(dir)
			if err != nil {
				return fmt.Errorf("no watcher running (PID file not found)")
			}

			process, err := os.FindProcess(pid)
			if err != nil {
				return fmt.Errorf("could not find process %d: %w", pid, err)
			}

			if err := process.Signal(syscall.SIGTERM); err != nil {
				w.RemovePIDFile(dir)
				return fmt.Errorf("could not stop watcher (PID %d): %w", pid, err)
			}

			w.RemovePIDFile(dir)

			jsonOut, _ := cmd.Flags().GetBool("json")
			if jsonOut {
				return output.FprintJSON(cmd.OutOrStdout(), "watch stop", map[string]any{
					"stopped": true,
					"pid":     pid,
				})
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Stopped watcher (PID %d)\n", pid)
			return nil
		},
	}
}

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the current watcher status",
		RunE: func(cmd *cobra.Command, args []string) error {
			status := currentStatus(config.Dir())

			jsonOut, _ := cmd.Flags().GetBool("json")
			if jsonOut {
				return output.FprintJSON(cmd.OutOrStdout(), "watch status", status)
			}

			out := cmd.OutOrStdout()
			if !status.Running {
				fmt.Fprintln(out, "Watcher is not running")
				return nil
			}

			color.New(color.FgGreen).Fprintf(out, "Watcher is running (PID %d)\n", status.PID)
			if len(status.Directories) > 0 {
				fmt.Fprintf(out, "  Directories: %s\n", strings.Join(status.Directories, ", "))
			}
			if status.Pattern != "" {
				fmt.Fprintf(out, "  Pattern:     %s\n", status.Pattern)
			}
			return nil
		},
	}
}

// currentStatus reads the PID file and checks the process is alive. A stale
// PID file is removed.
func currentStatus(dir string) w.Status {
	pid, err := w.ReadPIDFile(dir)
	if err != nil {
		return w.Status{}
	}

	process, err := os.FindProcess(pid)
	if err == nil {
		// Signal 0 checks the process exists without touching it.
		err = process.Signal(syscall.Signal(0))
	}
	if err != nil && !errors.Is(err, os.ErrPermission) {
		w.RemovePIDFile(dir)
		return w.Status{}
	}

	status := w.Status{Running: true, PID: pid}
	if cfg, err := w.LoadConfig(dir); err == nil {
		status.Directories = cfg.Directories
		status.Pattern = cfg.Pattern
	}
	return status
}
