package main

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/helixir/research-timeline-service/internal/app"
	"github.com/helixir/research-timeline-service/internal/observability"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		logger := observability.NewLogger(observability.LoggingConfig{
			Level:      cfg.Logging.Level,
			Format:     cfg.Logging.Format,
			Output:     cfg.Logging.Output,
			AddSource:  cfg.Logging.AddSource,
			TimeFormat: cfg.Logging.TimeFormat,
		})
		logger = observability.WithComponent(logger, "server")

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		return app.Serve(ctx, cfg, logger)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
