// Package config provides CLI commands for configuration management.
package config

import (
	"fmt"
	"sort"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/klytics/sheetai/internal/config"
	"github.com/klytics/sheetai/internal/output"
)

// NewCommand returns the config command group.
func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage sheetai configuration",
		Long:  "Interactive setup, view, and modify sheetai settings (~/.sheetai/config.yaml).",
	}

	cmd.AddCommand(newInitCommand())
	cmd.AddCommand(newShowCommand())
	cmd.AddCommand(newSetCommand())
	cmd.AddCommand(newGetCommand())
	cmd.AddCommand(newResetCommand())
	cmd.AddCommand(newPathCommand())
	cmd.AddCommand(newValidateCommand())
	cmd.AddCommand(newEnvCommand())

	return cmd
}

func newInitCommand() *cobra.Command {
	var noInteractive bool
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Interactive setup wizard",
		RunE: func(cmd *cobra.Command, args []string) error {
			config.Load() // keep existing values
			if noInteractive {
				return config.WizardNonInteractive()
			}
			return config.Wizard(cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}
	cmd.Flags().BoolVar(&noInteractive, "no-interactive", false, "Skip prompts, use defaults")
	return cmd
}

func newShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonFlag, _ := cmd.Flags().GetBool("json")
			config.Load() // ensure loaded

			if jsonFlag {
				masked := make(map[string]string)
				for _, key := range config.Keys() {
					v := config.Get(key)
					if strings.HasPrefix(key, "api_keys.") && v != "" {
						v = config.Mask(v)
					}
					masked[key] = v
				}
				return output.FprintJSON(cmd.OutOrStdout(), "config show", masked)
			}

			fmt.Fprint(cmd.OutOrStdout(), config.ShowConfig())
			return nil
		},
	}
}

func newSetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set a configuration value",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			config.Load() // ensure loaded
			if err := config.Set(args[0], args[1]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Set %s\n", args[0])
			return nil
		},
	}
}

func newGetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "get <key>",
		Short: "Get a configuration value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			config.Load() // ensure loaded
			val := config.Get(args[0])
			if val == "" {
				fmt.Fprintf(cmd.OutOrStdout(), "%s: (not set)\n", args[0])
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", args[0], val)
			}
			return nil
		},
	}
}

func newResetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Reset configuration to defaults",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := config.ResetConfig(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Configuration reset to defaults")
			return nil
		},
	}
}

func newPathCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Show config file path",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), config.ConfigPath())
		},
	}
}

func newValidateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Validate current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonFlag, _ := cmd.Flags().GetBool("json")
			config.Load() // ensure loaded

			issues := config.Validate()

			if jsonFlag {
				return output.FprintJSON(cmd.OutOrStdout(), "config validate", issues)
			}

			out := cmd.OutOrStdout()
			errors := 0
			warnings := 0
			for _, issue := range issues {
				switch issue.Severity {
				case "error":
					errors++
				case "warning":
					warnings++
				}
			}

			if errors == 0 && warnings == 0 {
				color.New(color.FgGreen).Fprintln(out, "Configuration is valid")
				return nil
			}

			fmt.Fprintf(out, "Config validation: %d errors, %d warnings\n\n", errors, warnings)

			for _, issue := range issues {
				switch issue.Severity {
				case "error":
					color.New(color.FgRed).Fprintf(out, "  %s\n", issue.Message)
				case "warning":
					color.New(color.FgYellow).Fprintf(out, "  %s\n", issue.Message)
				case "info":
					color.New(color.FgGreen).Fprintf(out, "  %s\n", issue.Message)
				}
				if issue.Fix != "" {
					fmt.Fprintf(out, "   Fix: %s\n", issue.Fix)
				}
			}
			return nil
		},
	}
}

func newEnvCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "env",
		Short: "Export configuration as environment variables",
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonFlag, _ := cmd.Flags().GetBool("json")
			config.Load() // ensure loaded

			env := config.ToEnv()

			if jsonFlag {
				return output.FprintJSON(cmd.OutOrStdout(), "config env", env)
			}

			// Sort keys for deterministic output
			keys := make([]string, 0, len(env))
			for k := range env {
				keys = append(keys, k)
			}
			sort.Strings(keys)

			for _, k := range keys {
				fmt.Fprintf(cmd.OutOrStdout(), "export %s=%q\n", k, env[k])
			}
			fmt.Fprintln(cmd.OutOrStdout(), "# Add these to your ~/.zshrc or ~/.bashrc")
			return nil
		},
	}
}
