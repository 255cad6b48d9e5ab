package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/helixir/research-timeline-service/internal/app"
	"github.com/helixir/research-timeline-service/internal/observability"
)

var queryCmd = &cobra.Command{
	Use:   "query <topic>",
	Short: "Build one timeline and print it as JSON",
	Long: `Query runs the full pipeline for a topic: bulk search, year binning,
hydration, selection and the present-day summary. The timeline is written to
stdout as JSON; progress logs go to stderr.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runQuery,
}

func init() {
	queryCmd.Flags().Bool("compact", false, "print JSON without indentation")

	rootCmd.AddCommand(queryCmd)
}

func runQuery(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	compact, _ := cmd.Flags().GetBool("compact")

	logger := observability.NewLoggerWithWriter(observability.LoggingConfig{
		Level:      cfg.Logging.Level,
		Format:     cfg.Logging.Format,
		AddSource:  cfg.Logging.AddSource,
		TimeFormat: cfg.Logging.TimeFormat,
	}, os.Stderr)

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	components, err := app.Build(ctx, cfg, logger, nil, app.Options{})
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := components.Close(); closeErr != nil {
			logger.Error().Err(closeErr).Msg("failed to close event publisher")
		}
	}()

	ctx = observability.WithRequestID(ctx, uuid.NewString())
	result, err := components.Pipeline.Run(ctx, strings.Join(args, " "))
	if err != nil {
		return err
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	if !compact {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(result); err != nil {
		return fmt.Errorf("write timeline: %w", err)
	}
	return nil
}
