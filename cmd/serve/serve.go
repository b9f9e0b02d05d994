// Package serve provides the "sheetai serve" command, the HTTP endpoint the
// spreadsheet add-in calls.
package serve

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/klytics/sheetai/internal/bridge"
	"github.com/klytics/sheetai/internal/cli"
	"github.com/klytics/sheetai/internal/output"
	"github.com/klytics/sheetai/internal/server"
)

// NewCommand returns the serve subcommand.
func NewCommand() *cobra.Command {
	var (
		addr   string
		origin string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP proxy the spreadsheet add-in sends prompts to",
		Long: `Starts an HTTP server that keeps the provider API key off the client.

  POST /api/ask   {"prompt": "...", "tableData": {"address": "...", "values": [[...]]}}
                  -> {"success": true, "answer": "...", "output": {...}}
  GET  /healthz

The server starts even without a configured provider; /api/ask then returns
500 until a key is set.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := cli.Setup(cmd, false)
			if err != nil {
				return err
			}
			defer env.Close()

			cfg := server.Config{
				Addr:          env.Config.Server.Addr,
				AllowedOrigin: env.Config.Server.AllowedOrigin,
			}
			if addr != "" {
				cfg.Addr = addr
			}
			if origin != "" {
				cfg.AllowedOrigin = origin
			}

			var answerer bridge.Answerer
			asker, err := env.Asker(cmd.Context())
			if err != nil {
				env.Logger.Warn("no LLM provider; /api/ask will fail until one is configured", zap.Error(err))
			} else {
				answerer = asker
				env.Logger.Info("provider ready", zap.String("provider", asker.Provider()))
			}

			srv := server.New(cfg, answerer, env.Logger)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if !env.JSON {
				color.New(color.FgGreen).Fprintf(cmd.ErrOrStderr(), "sheetai serving on http://%s\n", srv.Addr())
				fmt.Fprintln(cmd.ErrOrStderr(), "Press Ctrl+C to stop")
			}
			if err := srv.Run(ctx); err != nil {
				return output.SystemError(err)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default from server.addr, 127.0.0.1:8787)")
	cmd.Flags().StringVar(&origin, "allowed-origin", "", "Origin allowed to call the server (default from server.allowed_origin)")

	return cmd
}
