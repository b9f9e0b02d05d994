package excel

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/klytics/sheetai/internal/formats/xlsx"
	"github.com/klytics/sheetai/internal/output"
)

func newReadCommand() *cobra.Command {
	var (
		sheetName string
		rangeRef  string
		csvOutput bool
	)

	cmd := &cobra.Command{
		Use:   "read <file.xlsx>",
		Short: "Extract data from an Excel spreadsheet",
		Long: `Reads an .xlsx file and outputs its data as JSON, CSV, or a table view.
Pass '-' to read the workbook from stdin. --range reads a single block such
as Data!A1:C20, the same way 'sheetai ask --range' does.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonFlag, _ := cmd.Flags().GetBool("json")

			var wb *xlsx.Workbook
			var err error

			switch {
			case rangeRef != "":
				if len(args) == 0 || args[0] == "-" {
					return fmt.Errorf("--range needs a workbook path — use 'sheetai excel read <file.xlsx> --range A1:C9'")
				}
				wb, err = readRange(args[0], rangeRef)
			case len(args) == 0 || args[0] == "-":
				data, readErr := io.ReadAll(cmd.InOrStdin())
				if readErr != nil {
					return fmt.Errorf("could not read from stdin: %w", readErr)
				}
				if len(data) == 0 {
					return fmt.Errorf("no input provided — pass an .xlsx file path or pipe data to stdin")
				}
				wb, err = xlsx.ReadBytes(data)
			default:
				filePath := args[0]
				if !strings.HasSuffix(strings.ToLower(filePath), ".xlsx") {
					return fmt.Errorf("expected an .xlsx file, got %q — use 'sheetai excel read <file.xlsx>'", filePath)
				}
				wb, err = xlsx.ReadFile(filePath)
			}
			if err != nil {
				return err
			}

			// Filter to specific sheet if requested
			if sheetName != "" && rangeRef == "" {
				sheet, err := wb.GetSheet(sheetName)
				if err != nil {
					return err
				}
				wb = &xlsx.Workbook{Sheets: []xlsx.Sheet{*sheet}}
			}

			w := cmd.OutOrStdout()
			if jsonFlag {
				return output.FprintJSON(w, "excel read", wb.Sheets)
			}
			if csvOutput {
				for _, sheet := range wb.Sheets {
					if len(wb.Sheets) > 1 {
						fmt.Fprintf(cmd.ErrOrStderr(), "--- %s (%d rows) ---\n", sheet.Name, sheet.RowCount())
					}
					fmt.Fprint(w, sheet.ToCSV())
				}
				return nil
			}

			var buf bytes.Buffer
			tw := output.NewWriter(output.FormatText).To(&buf)
			for _, sheet := range wb.Sheets {
				tw.WriteTable("Sheet: "+sheet.Name, sheet.Rows)
				tw.WriteLn("")
			}
			if w == os.Stdout {
				return output.PrintOrPage(buf.String())
			}
			_, err = w.Write(buf.Bytes())
			return err
		},
	}

	cmd.Flags().StringVar(&sheetName, "sheet", "", "Read only the named sheet")
	cmd.Flags().StringVar(&rangeRef, "range", "", "Read only this range, e.g. Data!A1:C20")
	cmd.Flags().BoolVar(&csvOutput, "csv", false, "Output as CSV")

	return cmd
}

func readRange(path, ref string) (*xlsx.Workbook, error) {
	book, err := xlsx.Open(path)
	if err != nil {
		return nil, err
	}
	defer book.Close()

	block, err := book.ReadRange(ref)
	if err != nil {
		return nil, err
	}
	return &xlsx.Workbook{Sheets: []xlsx.Sheet{{Name: block.Address, Rows: block.Values}}}, nil
}
