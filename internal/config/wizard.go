package config

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/viper"
)

// ConfigIssue represents a validation finding.
type ConfigIssue struct {
	Key      string `json:"key"`
	Severity string `json:"severity"` // "error", "warning", "info"
	Message  string `json:"message"`
	Fix      string `json:"fix,omitempty"`
}

// Wizard runs the interactive setup wizard, reading answers from in and
// writing prompts to out.
func Wizard(in io.Reader, out io.Writer) error {
	if in == nil {
		in = os.Stdin
	}
	if out == nil {
		out = os.Stdout
	}
	scanner := bufio.NewScanner(in)
	ask := func(prompt string) string {
		fmt.Fprint(out, prompt)
		scanner.Scan()
		return strings.TrimSpace(scanner.Text())
	}

	fmt.Fprintln(out, "sheetai Setup Wizard")
	fmt.Fprintln(out)
	fmt.Fprintln(out, strings.Repeat("-", 48))
	fmt.Fprintln(out)

	// Step 1: AI Provider
	fmt.Fprintln(out, "Step 1/3: AI Provider")
	fmt.Fprintln(out, "  Which AI provider do you want to use?")
	fmt.Fprintln(out, "  [1] Google Gemini (recommended)")
	fmt.Fprintln(out, "  [2] Anthropic Claude")
	fmt.Fprintln(out, "  [3] OpenAI GPT-4o")
	fmt.Fprintln(out, "  [4] Ollama (local, free)")
	fmt.Fprintln(out, "  [5] Skip for now")

	switch ask("  Choice: ") {
	case "1":
		viper.Set("provider", "gemini")
		if key := ask("  Paste your Gemini API key: "); key != "" {
			viper.Set("api_keys.gemini", key)
			fmt.Fprintln(out, "  API key saved")
		}
	case "2":
		viper.Set("provider", "anthropic")
		if key := ask("  Paste your Anthropic API key (sk-ant-...): "); key != "" {
			viper.Set("api_keys.anthropic", key)
			fmt.Fprintln(out, "  API key saved")
		}
	case "3":
		viper.Set("provider", "openai")
		if key := ask("  Paste your OpenAI API key (sk-...): "); key != "" {
			viper.Set("api_keys.openai", key)
			fmt.Fprintln(out, "  API key saved")
		}
	case "4":
		viper.Set("provider", "ollama")
		host := ask("  Ollama host (default: http://localhost:11434): ")
		if host == "" {
			host = "http://localhost:11434"
		}
		viper.Set("ollama.host", host)
		fmt.Fprintln(out, "  Ollama configured")
	default:
		fmt.Fprintln(out, "  Skipped")
	}
	fmt.Fprintln(out)

	// Step 2: Add-in server
	fmt.Fprintln(out, "Step 2/3: Add-in server (optional)")
	if origin := ask("  Origin allowed to call the server (e.g. https://localhost:3000, blank to skip): "); origin != "" {
		viper.Set("server.allowed_origin", origin)
		fmt.Fprintln(out, "  Origin saved")
	} else {
		fmt.Fprintln(out, "  Skipped")
	}
	fmt.Fprintln(out)

	if err := SaveConfig(); err != nil {
		return fmt.Errorf("could not save config: %w", err)
	}

	fmt.Fprintln(out, "Step 3/3: Done!")
	fmt.Fprintln(out, strings.Repeat("-", 48))
	fmt.Fprintln(out)
	fmt.Fprintln(out, "Quick start:")
	fmt.Fprintln(out, "  sheetai excel tables book.xlsx")
	fmt.Fprintln(out, "  sheetai ask book.xlsx --table Sales --prompt \"total per region as a table\"")
	fmt.Fprintln(out, "  sheetai serve                      (for the spreadsheet add-in)")
	fmt.Fprintln(out)
	fmt.Fprintf(out, "Config file: %s\n", ConfigPath())

	return nil
}

// WizardNonInteractive sets up config with defaults only (no user input).
func WizardNonInteractive() error {
	viper.Set("provider", defaults["provider"])
	viper.Set("max_rows", defaults["max_rows"])
	viper.Set("output.color", true)
	return SaveConfig()
}

// Validate checks config values and returns a list of issues.
func Validate() []ConfigIssue {
	var issues []ConfigIssue

	provider := viper.GetString("provider")
	keyFor := map[string]string{
		"gemini":    "api_keys.gemini",
		"anthropic": "api_keys.anthropic",
		"openai":    "api_keys.openai",
	}

	switch provider {
	case "gemini", "anthropic", "openai":
		key := keyFor[provider]
		if viper.GetString(key) == "" {
			issues = append(issues, ConfigIssue{
				Key:      key,
				Severity: "error",
				Message:  fmt.Sprintf("provider is %q but %s is not set", provider, envAliases[key]),
				Fix:      fmt.Sprintf("export %s=...\nOr: sheetai config set %s ...", envAliases[key], key),
			})
		} else {
			issues = append(issues, ConfigIssue{
				Key:      key,
				Severity: "info",
				Message:  fmt.Sprintf("%s API key configured", provider),
			})
		}
	case "ollama":
		issues = append(issues, ConfigIssue{
			Key:      "provider",
			Severity: "info",
			Message:  "Ollama configured (no API key needed)",
		})
	case "":
		issues = append(issues, ConfigIssue{
			Key:      "provider",
			Severity: "error",
			Message:  "no AI provider selected",
			Fix:      "sheetai config set provider gemini",
		})
	default:
		issues = append(issues, ConfigIssue{
			Key:      "provider",
			Severity: "error",
			Message:  fmt.Sprintf("unknown provider %q", provider),
			Fix:      "sheetai config set provider gemini|anthropic|openai|ollama",
		})
	}

	if n := viper.GetInt("max_rows"); n <= 0 {
		issues = append(issues, ConfigIssue{
			Key:      "max_rows",
			Severity: "warning",
			Message:  fmt.Sprintf("max_rows is %d; the default of 200 will be used", n),
			Fix:      "sheetai config set max_rows 200",
		})
	}

	if viper.GetString("server.allowed_origin") == "" {
		issues = append(issues, ConfigIssue{
			Key:      "server.allowed_origin",
			Severity: "warning",
			Message:  "server.allowed_origin is not set — browsers will block add-in calls to sheetai serve",
			Fix:      "sheetai config set server.allowed_origin https://localhost:3000",
		})
	}

	return issues
}

// ToEnv returns all set config values as a map of env var name -> value.
func ToEnv() map[string]string {
	env := make(map[string]string)
	for _, key := range Keys() {
		v := viper.GetString(key)
		if v == "" {
			continue
		}
		name := envName(key)
		if alias, ok := envAliases[key]; ok {
			name = alias
		}
		env[name] = v
	}
	return env
}

// Keys returns the settable configuration keys in sorted order.
func Keys() []string {
	keys := make([]string, 0, len(defaults))
	for k := range defaults {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Set sets a config value and saves to disk.
func Set(key, value string) error {
	if _, ok := defaults[key]; !ok {
		return fmt.Errorf("unknown config key %q — valid keys: %s", key, strings.Join(Keys(), ", "))
	}
	if key == "max_rows" {
		if _, err := strconv.Atoi(value); err != nil {
			return fmt.Errorf("max_rows must be a whole number, got %q", value)
		}
	}
	viper.Set(key, value)
	return SaveConfig()
}

// Get retrieves a config value.
func Get(key string) string {
	return viper.GetString(key)
}

// ResetConfig deletes the config file and restores defaults.
func ResetConfig() error {
	path := ConfigPath()
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("could not delete config: %w", err)
	}
	for key, value := range defaults {
		viper.Set(key, value)
	}
	return nil
}

// SaveConfig writes the current config to ~/.sheetai/config.yaml.
func SaveConfig() error {
	if err := os.MkdirAll(Dir(), 0700); err != nil {
		return fmt.Errorf("could not create config directory: %w", err)
	}

	path := ConfigPath()
	if err := viper.WriteConfigAs(path); err != nil {
		return fmt.Errorf("could not write config: %w", err)
	}

	// Set secure permissions
	os.Chmod(path, 0600)
	return nil
}

// ShowConfig returns a formatted string of the current configuration with
// API keys masked.
func ShowConfig() string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("Config: %s\n\n", ConfigPath()))

	sb.WriteString("AI\n")
	sb.WriteString(fmt.Sprintf("  provider:  %s\n", viper.GetString("provider")))
	model := viper.GetString("model")
	if model == "" {
		model = "(provider default)"
	}
	sb.WriteString(fmt.Sprintf("  model:     %s\n", model))
	for _, p := range []string{"gemini", "anthropic", "openai"} {
		if k := viper.GetString("api_keys." + p); k != "" {
			sb.WriteString(fmt.Sprintf("  %-10s %s\n", p+":", Mask(k)))
		}
	}
	if e := viper.GetString("gemini.endpoint"); e != "" {
		sb.WriteString(fmt.Sprintf("  endpoint:  %s\n", e))
	}
	if viper.GetString("provider") == "ollama" {
		sb.WriteString(fmt.Sprintf("  ollama:    %s\n", viper.GetString("ollama.host")))
	}
	sb.WriteString(fmt.Sprintf("  max_rows:  %d\n", viper.GetInt("max_rows")))
	sb.WriteString("\n")

	sb.WriteString("Server\n")
	sb.WriteString(fmt.Sprintf("  addr:      %s\n", viper.GetString("server.addr")))
	origin := viper.GetString("server.allowed_origin")
	if origin == "" {
		origin = "(none)"
	}
	sb.WriteString(fmt.Sprintf("  origin:    %s\n", origin))

	return sb.String()
}

// Mask hides all but the first four characters of a secret.
func Mask(secret string) string {
	if len(secret) <= 8 {
		return "****"
	}
	return secret[:4] + "****"
}
