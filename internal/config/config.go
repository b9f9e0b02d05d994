// Package config manages application configuration from files and environment.
package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/klytics/sheetai/internal/ai"
)

// Config holds the application configuration.
type Config struct {
	Provider string `mapstructure:"provider"`
	Model    string `mapstructure:"model"`
	APIKeys  struct {
		Gemini    string `mapstructure:"gemini"`
		Anthropic string `mapstructure:"anthropic"`
		OpenAI    string `mapstructure:"openai"`
	} `mapstructure:"api_keys"`
	Ollama struct {
		Host string `mapstructure:"host"`
	} `mapstructure:"ollama"`
	Gemini struct {
		Endpoint string `mapstructure:"endpoint"`
	} `mapstructure:"gemini"`
	MaxRows int `mapstructure:"max_rows"`
	Server  struct {
		Addr          string `mapstructure:"addr"`
		AllowedOrigin string `mapstructure:"allowed_origin"`
	} `mapstructure:"server"`
	Output struct {
		Color bool `mapstructure:"color"`
	} `mapstructure:"output"`
}

// defaults are the values used when neither the file nor the environment
// sets a key. Every settable key appears here so AutomaticEnv can see it.
var defaults = map[string]any{
	"provider":              "gemini",
	"model":                 "",
	"api_keys.gemini":       "",
	"api_keys.anthropic":    "",
	"api_keys.openai":       "",
	"ollama.host":           "http://localhost:11434",
	"gemini.endpoint":       "",
	"max_rows":              200,
	"server.addr":           "127.0.0.1:8787",
	"server.allowed_origin": "",
	"output.color":          true,
}

// envAliases are the conventional variable names accepted alongside the
// SHEETAI_ prefixed ones.
var envAliases = map[string]string{
	"api_keys.gemini":    "GEMINI_API_KEY",
	"api_keys.anthropic": "ANTHROPIC_API_KEY",
	"api_keys.openai":    "OPENAI_API_KEY",
	"ollama.host":        "OLLAMA_HOST",
	"model":              "LLM_MODEL",
	"gemini.endpoint":    "LLM_ENDPOINT",
}

// Load reads the configuration from ~/.sheetai/config.yaml and environment variables.
func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(Dir())

	setDefaults()

	viper.SetEnvPrefix("SHEETAI")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
	for key, alias := range envAliases {
		_ = viper.BindEnv(key, envName(key), alias)
	}

	// Read config file (non-fatal if missing)
	_ = viper.ReadInConfig()

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults() {
	for key, value := range defaults {
		viper.SetDefault(key, value)
	}
}

// envName returns the prefixed variable name for a key.
func envName(key string) string {
	return "SHEETAI_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
}

// AISettings returns the provider settings for this configuration.
func (c *Config) AISettings() ai.Settings {
	return ai.Settings{
		Provider:       c.Provider,
		Model:          c.Model,
		GeminiKey:      c.APIKeys.Gemini,
		AnthropicKey:   c.APIKeys.Anthropic,
		OpenAIKey:      c.APIKeys.OpenAI,
		GeminiEndpoint: c.Gemini.Endpoint,
		OllamaHost:     c.Ollama.Host,
	}
}

// Dir returns the configuration directory, ~/.sheetai.
func Dir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".sheetai"
	}
	return filepath.Join(home, ".sheetai")
}

// ConfigPath returns the path to the config file.
func ConfigPath() string {
	return filepath.Join(Dir(), "config.yaml")
}
