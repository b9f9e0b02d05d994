// Package cmd contains all CLI commands for the sheetai binary.
package cmd

import (
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/klytics/sheetai/cmd/ask"
	"github.com/klytics/sheetai/cmd/batch"
	"github.com/klytics/sheetai/cmd/classify"
	"github.com/klytics/sheetai/cmd/completion"
	cmdconfig "github.com/klytics/sheetai/cmd/config"
	"github.com/klytics/sheetai/cmd/excel"
	"github.com/klytics/sheetai/cmd/serve"
	"github.com/klytics/sheetai/cmd/shell"
	"github.com/klytics/sheetai/cmd/version"
	cmdwatch "github.com/klytics/sheetai/cmd/watch"
	"github.com/klytics/sheetai/internal/output"
)

var (
	jsonOutput bool
	verbose    bool
	modelName  string
	provider   string
	noColor    bool
)

// NewRootCommand creates and returns the root cobra command with all subcommands registered.
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "sheetai",
		Short: "Ask a language model about spreadsheet data and write the answer back",
		Long: `sheetai — LLM answers, pasted into your workbook.

Sends a block of cells and a request to a language model, decides whether the
reply is a table or a single value, and writes it into the workbook: over the
source range, at a range you choose, or on a new sheet.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if noColor {
				color.NoColor = true
			}
		},
	}

	// Global persistent flags
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output as machine-readable JSON")
	rootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVar(&modelName, "model", "", "AI model name override (default: provider default, or LLM_MODEL)")
	rootCmd.PersistentFlags().StringVar(&provider, "provider", "", "AI provider: gemini | anthropic | openai | ollama (default from config)")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable ANSI color output")

	// Register subcommands
	rootCmd.AddCommand(ask.NewCommand())
	rootCmd.AddCommand(classify.NewCommand())
	rootCmd.AddCommand(excel.NewCommand())
	rootCmd.AddCommand(serve.NewCommand())
	rootCmd.AddCommand(batch.NewCommand())
	rootCmd.AddCommand(cmdwatch.NewCommand())
	rootCmd.AddCommand(shell.NewCommand())
	rootCmd.AddCommand(cmdconfig.NewCommand())
	rootCmd.AddCommand(completion.NewCommand(rootCmd))
	rootCmd.AddCommand(version.NewCommand())

	return rootCmd
}

// Execute runs the root command and handles any returned errors.
func Execute() {
	rootCmd := NewRootCommand()
	cmd, err := rootCmd.ExecuteC()
	if err == nil {
		return
	}

	code := output.ExitCode(err)
	if jsonOutput {
		output.PrintJSONError(cmd.Name(), err, code)
	} else {
		output.WriteError("%s", err)
	}
	os.Exit(code)
}
