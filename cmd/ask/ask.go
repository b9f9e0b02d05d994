// Package ask provides the "sheetai ask" command.
package ask

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/klytics/sheetai/internal/bridge"
	"github.com/klytics/sheetai/internal/cli"
	"github.com/klytics/sheetai/internal/formats/xlsx"
	"github.com/klytics/sheetai/internal/output"
	"github.com/klytics/sheetai/internal/progress"
)

type askOutput struct {
	Workbook string         `json:"workbook"`
	SavedTo  string         `json:"savedTo"`
	Result   *bridge.Result `json:"result"`
}

// NewCommand returns the ask subcommand.
func NewCommand() *cobra.Command {
	var (
		prompt     string
		rangeRef   string
		tableName  string
		sheetName  string
		pasteRange string
		newSheet   bool
		outPath    string
	)

	cmd := &cobra.Command{
		Use:   "ask <book.xlsx>",
		Short: "Ask the model about a block of cells and write the answer into the workbook",
		Long: `Sends a block of cells and a request to the configured model, then writes the
answer back. A CSV or JSON-array answer becomes a table; anything else is
written as a single value.

By default the answer overwrites the source block, starting at its top-left
cell. Use --paste-range to write elsewhere or --new-sheet for a fresh sheet.

Examples:
  sheetai ask sales.xlsx --table Sales -p "total per region as a table"
  sheetai ask sales.xlsx --range Data!A1:C20 -p "which region grew most?" --paste-range E1
  sheetai ask sales.xlsx -p "pivot by quarter" --new-sheet -o pivot.xlsx
  echo "summarize" | sheetai ask sales.xlsx -p -`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if prompt == "-" {
				data, err := io.ReadAll(cmd.InOrStdin())
				if err != nil {
					return fmt.Errorf("could not read prompt from stdin: %w", err)
				}
				prompt = string(data)
			}
			if strings.TrimSpace(prompt) == "" {
				return fmt.Errorf("--prompt is required — say what you want, e.g. -p \"total per region\"")
			}

			src, err := sourceFromFlags(rangeRef, tableName, sheetName)
			if err != nil {
				return err
			}

			env, err := cli.Setup(cmd, true)
			if err != nil {
				return err
			}
			defer env.Close()

			book, err := xlsx.Open(args[0])
			if err != nil {
				return err
			}
			defer book.Close()

			br, err := env.Bridge(cmd.Context())
			if err != nil {
				return err
			}

			spin := progress.NewSpinner(fmt.Sprintf("Asking %s about %s…", env.Config.Provider, src), env.JSON)
			spin.Start()
			res, err := br.Ask(cmd.Context(), book, bridge.Request{
				Prompt:     prompt,
				Source:     src,
				PasteRange: pasteRange,
				NewSheet:   newSheet,
			})
			if err != nil {
				spin.Stop("")
				if errors.Is(err, bridge.ErrModel) {
					return output.SystemError(err)
				}
				return err
			}

			spin.Update("Saving workbook…")
			if outPath != "" {
				err = book.SaveAs(outPath)
			} else {
				err = book.Save()
			}
			spin.Stop("")
			if err != nil {
				return output.SystemError(err)
			}

			if env.JSON {
				return output.FprintJSON(cmd.OutOrStdout(), "ask", askOutput{
					Workbook: args[0],
					SavedTo:  book.Path(),
					Result:   res,
				})
			}
			printResult(cmd.OutOrStdout(), res, book.Path(), env.Verbose)
			return nil
		},
	}

	cmd.Flags().StringVarP(&prompt, "prompt", "p", "", "What to ask the model ('-' reads stdin)")
	cmd.Flags().StringVar(&rangeRef, "range", "", "Send this range, e.g. Data!A1:C20")
	cmd.Flags().StringVar(&tableName, "table", "", "Send this named table")
	cmd.Flags().StringVar(&sheetName, "sheet", "", "Send the used range of this sheet (default: active sheet)")
	cmd.Flags().StringVar(&pasteRange, "paste-range", "", "Write the answer starting at this range instead of over the source")
	cmd.Flags().BoolVar(&newSheet, "new-sheet", false, "Write the answer to a new AI_Result sheet")
	cmd.Flags().StringVarP(&outPath, "output", "o", "", "Save to this file instead of overwriting the workbook")
	cmd.MarkFlagsMutuallyExclusive("range", "table", "sheet")

	return cmd
}

// sourceFromFlags picks the block to send. At most one flag is set.
func sourceFromFlags(rangeRef, tableName, sheetName string) (bridge.Source, error) {
	switch {
	case rangeRef != "":
		return bridge.Source{Kind: bridge.SourceRange, Ref: rangeRef}, nil
	case tableName != "":
		return bridge.Source{Kind: bridge.SourceTable, Ref: tableName}, nil
	default:
		return bridge.Source{Kind: bridge.SourceSheet, Ref: sheetName}, nil
	}
}

func printResult(w io.Writer, res *bridge.Result, savedTo string, verbose bool) {
	green := color.New(color.FgGreen)
	dim := color.New(color.FgHiBlack)

	if res.Output.IsTable() {
		ext := res.Output.Extent()
		green.Fprintf(w, "Wrote %d×%d table to %s\n", ext.Rows, ext.Cols, res.Region)
		output.NewWriter(output.FormatText).To(w).WriteTable("", res.Output.StringRows())
	} else {
		fmt.Fprintln(w, res.Output.Text)
		green.Fprintf(w, "Written to %s\n", res.Region)
	}
	dim.Fprintf(w, "Saved %s\n", savedTo)
	if verbose {
		dim.Fprintf(w, "source %s, model %s, %d tokens\n", res.Source, res.Model, res.Tokens)
	}
}

