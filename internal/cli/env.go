// Package cli assembles the configuration, logger and model client that
// commands share, honoring the root command's global flags.
package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/klytics/sheetai/internal/ai"
	"github.com/klytics/sheetai/internal/bridge"
	"github.com/klytics/sheetai/internal/config"
	"github.com/klytics/sheetai/internal/logging"
	"github.com/klytics/sheetai/internal/output"
)

// Env is the per-invocation environment of a command.
type Env struct {
	Config  *config.Config
	Logger  *zap.Logger
	JSON    bool
	Verbose bool
}

// Setup loads the configuration and applies --provider and --model. Quiet
// commands only log warnings unless --verbose is set.
func Setup(cmd *cobra.Command, quiet bool) (*Env, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("could not load config — check %s: %w", config.ConfigPath(), err)
	}

	flags := cmd.Flags()
	if p, _ := flags.GetString("provider"); p != "" {
		cfg.Provider = p
	}
	if m, _ := flags.GetString("model"); m != "" {
		cfg.Model = m
	}
	jsonOut, _ := flags.GetBool("json")
	verbose, _ := flags.GetBool("verbose")

	newLogger := logging.New
	if quiet {
		newLogger = logging.NewQuiet
	}
	logger, err := newLogger(verbose)
	if err != nil {
		return nil, output.SystemError(err)
	}

	return &Env{Config: cfg, Logger: logger, JSON: jsonOut, Verbose: verbose}, nil
}

// Asker connects to the configured provider.
func (e *Env) Asker(ctx context.Context) (*bridge.Asker, error) {
	p, err := ai.NewProvider(ctx, e.Config.AISettings())
	if err != nil {
		return nil, fmt.Errorf("%w — run 'sheetai config validate' to check provider settings", err)
	}
	opts := ai.InferOptions{Model: e.Config.Model}
	return bridge.NewAsker(p, e.Config.MaxRows, opts, e.Logger), nil
}

// Bridge connects to the configured provider and returns a Bridge over it.
func (e *Env) Bridge(ctx context.Context) (*bridge.Bridge, error) {
	a, err := e.Asker(ctx)
	if err != nil {
		return nil, err
	}
	return bridge.New(a, e.Logger), nil
}

// Close flushes the logger.
func (e *Env) Close() {
	_ = e.Logger.Sync()
}
