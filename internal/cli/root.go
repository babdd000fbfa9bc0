package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/walkerscm/cosmosctl/internal/config"
	"github.com/walkerscm/cosmosctl/internal/logger"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:           "cosmosctl",
	Short:         "cosmosctl - connection strings and throughput for Cosmos DB for MongoDB",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(cmd.Flags())
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		logger.Init(logger.ParseLevel(cfg.LogLevel), cfg.LogFile)
		logger.Debug("starting", "command", cmd.CommandPath(), "output", cfg.Output)
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logger.Close()
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		logger.Error("command failed", "error", err)
		logger.Close()
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-file", "", "log file (default ~/.cosmosctl/cosmosctl.log)")
	rootCmd.PersistentFlags().StringP("output", "o", "text", "output format (text, json, yaml)")
	rootCmd.PersistentFlags().Duration("timeout", 0, "timeout for server and management calls (default 15s)")
}
