// Package shell provides the "sheetai shell" interactive REPL command.
package shell

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/klytics/sheetai/internal/cli"
	"github.com/klytics/sheetai/internal/config"
	"github.com/klytics/sheetai/internal/formats/xlsx"
	shellpkg "github.com/klytics/sheetai/internal/shell"
)

// NewCommand creates the "shell" command.
func NewCommand() *cobra.Command {
	var (
		evalCmd string
		source  string
	)

	cmd := &cobra.Command{
		Use:   "shell <book.xlsx>",
		Short: "Start an interactive session against one workbook",
		Long: `Start an interactive REPL bound to a workbook. Each line you type is sent to
the model with the current source cells and the answer is written into the
workbook. Lines starting with ':' are commands (:help lists them).

Changes stay in memory until :save.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
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

			session := shellpkg.NewSession(book, br, filepath.Join(config.Dir(), "shell_history"))
			if source != "" {
				if _, err := session.Eval(cmd.Context(), ":source "+source); err != nil {
					return err
				}
			}
			if evalCmd != "" {
				out, err := session.Eval(cmd.Context(), evalCmd)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), out)
				if err := book.Save(); err != nil {
					return err
				}
				return nil
			}
			return session.Run(cmd.Context())
		},
	}

	cmd.Flags().StringVar(&evalCmd, "eval", "", "Run a single prompt, save, and exit")
	cmd.Flags().StringVar(&source, "source", "", "Initial source, e.g. table:Sales or Data!A1:C20")
	return cmd
}
