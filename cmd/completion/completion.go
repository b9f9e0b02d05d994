// Package completion provides shell completion generation commands.
package completion

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewCommand returns the completion command.
func NewCommand(rootCmd *cobra.Command) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completions",
		Long: `Generate shell completion scripts for sheetai.

Install instructions:
  Bash:       sheetai completion bash > /etc/bash_completion.d/sheetai
              echo 'source <(sheetai completion bash)' >> ~/.bashrc
  Zsh:        sheetai completion zsh > ~/.zsh/completions/_sheetai
  Fish:       sheetai completion fish > ~/.config/fish/completions/sheetai.fish
  PowerShell: sheetai completion powershell >> $PROFILE`,
		ValidArgs: []string{"bash", "zsh", "fish", "powershell"},
		Args:      cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			switch args[0] {
			case "bash":
				fmt.Fprintln(out, "# sheetai bash completion")
				fmt.Fprintln(out, "# Install: sheetai completion bash > /etc/bash_completion.d/sheetai")
				fmt.Fprintln(out)
				return rootCmd.GenBashCompletion(out)
			case "zsh":
				fmt.Fprintln(out, "# sheetai zsh completion")
				fmt.Fprintln(out, "# Install: sheetai completion zsh > ~/.zsh/completions/_sheetai")
				fmt.Fprintln(out)
				return rootCmd.GenZshCompletion(out)
			case "fish":
				fmt.Fprintln(out, "# sheetai fish completion")
				fmt.Fprintln(out, "# Install: sheetai completion fish > ~/.config/fish/completions/sheetai.fish")
				fmt.Fprintln(out)
				return rootCmd.GenFishCompletion(out, true)
			case "powershell":
				fmt.Fprintln(out, "# sheetai PowerShell completion")
				fmt.Fprintln(out, "# Install: sheetai completion powershell >> $PROFILE")
				fmt.Fprintln(out)
				return rootCmd.GenPowerShellCompletionWithDesc(out)
			default:
				return fmt.Errorf("unsupported shell: %s (supported: bash, zsh, fish, powershell)", args[0])
			}
		},
	}
	return cmd
}
