package excel

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/klytics/sheetai/internal/formats/xlsx"
	"github.com/klytics/sheetai/internal/output"
)

type tablesOutput struct {
	ActiveSheet string       `json:"activeSheet"`
	Sheets      []string     `json:"sheets"`
	Tables      []xlsx.Table `json:"tables"`
}

func newTablesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "tables <file.xlsx>",
		Short: "List the sheets and named tables of a workbook",
		Long:  "Lists sheets (marking the active one) and named tables with their ranges — the names accepted by 'sheetai ask --table' and '--sheet'.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonFlag, _ := cmd.Flags().GetBool("json")

			book, err := xlsx.Open(args[0])
			if err != nil {
				return err
			}
			defer book.Close()

			tables, err := book.Tables()
			if err != nil {
				return err
			}
			res := tablesOutput{ActiveSheet: book.ActiveSheet(), Sheets: book.SheetNames(), Tables: tables}

			w := cmd.OutOrStdout()
			if jsonFlag {
				return output.FprintJSON(w, "excel tables", res)
			}

			bold := color.New(color.Bold)
			dim := color.New(color.FgHiBlack)

			bold.Fprintln(w, "Sheets")
			for _, name := range res.Sheets {
				if name == res.ActiveSheet {
					fmt.Fprintf(w, "  * %s\n", name)
				} else {
					fmt.Fprintf(w, "    %s\n", name)
				}
			}
			fmt.Fprintln(w)

			bold.Fprintln(w, "Tables")
			if len(tables) == 0 {
				dim.Fprintln(w, "  (none)")
				return nil
			}
			for _, t := range tables {
				fmt.Fprintf(w, "  %-20s %s!%s\n", t.Name, t.Sheet, t.Range)
			}
			return nil
		},
	}
}
