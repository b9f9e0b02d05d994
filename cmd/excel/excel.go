// Package excel provides CLI commands for inspecting .xlsx files.
package excel

import "github.com/spf13/cobra"

// NewCommand returns the excel subcommand group.
func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "excel",
		Short: "Inspect the sheets, ranges and tables of a workbook (.xlsx)",
		Long:  "Commands for looking at the cells sheetai would send to the model — sheets, ranges, and named tables.",
	}

	cmd.AddCommand(newReadCommand())
	cmd.AddCommand(newTablesCommand())

	return cmd
}
