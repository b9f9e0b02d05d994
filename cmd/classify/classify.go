// Package classify provides the "sheetai classify" command, which runs a
// saved model answer through the output classifier without calling a model.
package classify

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/klytics/sheetai/internal/formats/xlsx"
	"github.com/klytics/sheetai/internal/output"
	"github.com/klytics/sheetai/internal/tabular"
)

type classifyOutput struct {
	tabular.Output
	Extent tabular.Extent `json:"extent"`
}

// NewCommand returns the classify subcommand.
func NewCommand() *cobra.Command {
	var (
		csvOutput bool
		toPath    string
		sheetName string
	)

	cmd := &cobra.Command{
		Use:   "classify [file|-]",
		Short: "Show how a model answer would be written to a sheet",
		Long: `Reads model output from a file or stdin and reports whether it is a table
(JSON array of arrays, JSON array of objects, or comma-separated lines) or a
single value, with the rows that would be written.

Use --to to write the result into a new workbook.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonFlag, _ := cmd.Flags().GetBool("json")

			text, err := readInput(cmd.InOrStdin(), args)
			if err != nil {
				return err
			}

			out := tabular.Classify(text)

			if toPath != "" {
				wb := &xlsx.Workbook{Sheets: []xlsx.Sheet{{Name: sheetName, Rows: out.StringRows()}}}
				if err := xlsx.WriteFile(wb, toPath); err != nil {
					return output.SystemError(err)
				}
			}

			w := cmd.OutOrStdout()
			switch {
			case jsonFlag:
				return output.FprintJSON(w, "classify", classifyOutput{Output: out, Extent: out.Extent()})
			case csvOutput && out.IsTable():
				fmt.Fprintln(w, tabular.FormatCSV(out.Rows))
			case out.IsTable():
				ext := out.Extent()
				title := fmt.Sprintf("table %d×%d", ext.Rows, ext.Cols)
				output.NewWriter(output.FormatText).To(w).WriteTable(title, out.StringRows())
			default:
				color.New(color.Bold, color.FgCyan).Fprintln(w, "scalar")
				fmt.Fprintln(w, out.Text)
			}

			if toPath != "" && !jsonFlag {
				color.New(color.FgGreen).Fprintf(w, "Wrote %s\n", toPath)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&csvOutput, "csv", false, "Print tables as CSV")
	cmd.Flags().StringVar(&toPath, "to", "", "Write the result to a new .xlsx file")
	cmd.Flags().StringVar(&sheetName, "sheet", "AI_Result", "Sheet name used with --to")

	return cmd
}

func readInput(stdin io.Reader, args []string) (string, error) {
	if len(args) == 0 || args[0] == "-" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("could not read from stdin: %w", err)
		}
		return string(data), nil
	}
	data, err := os.ReadFile(args[0])
	if err != nil {
		return "", fmt.Errorf("could not read %s — check that the path is correct: %w", args[0], err)
	}
	return string(data), nil
}
