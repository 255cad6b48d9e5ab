// Package main is the entry point for the timeline CLI.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/helixir/research-timeline-service/internal/config"
)

// version is set at build time via ldflags.
var version = "dev"

// rootCmd is the base command for the timeline CLI.
var rootCmd = &cobra.Command{
	Use:   "timeline",
	Short: "Build research timelines from Semantic Scholar",
	Long: `timeline turns a research topic into a short chronological list of
influential papers plus a present-day summary.

The query subcommand runs the pipeline once and prints the result as JSON.
The serve subcommand starts the HTTP API.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "config file (default: config.yaml in ., ./config or /etc/research-timeline)")
}

// loadConfig reads the --config file when set, otherwise the default search paths.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
