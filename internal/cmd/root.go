// Package cmd implements the flowbroker command-line interface.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/millrace/flowbroker/internal/observability"
)

var (
	rootLogLevel string
	rootConfig   string
)

var rootCmd = &cobra.Command{
	Use:   "flowbroker",
	Short: "Workflow broker tooling: execution latency metrics and snapshot administration",
	Long: `flowbroker provides tooling around a workflow-engine broker:

  observe    Replay a broker record stream and compute execution latency metrics
  snapshots  Encode, decode, and inspect snapshot list messages`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := observability.SetLevel(rootLogLevel); err != nil {
			return err
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&rootLogLevel, "log-level", "info", "Log level (debug|info|warn|error)")
	rootCmd.PersistentFlags().StringVar(&rootConfig, "config", "", "Path to YAML config file")
}

// Execute runs the CLI and exits the process with the command's exit
// code on failure.
func Execute() {
	defer observability.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		var coded *exitCodeError
		if errors.As(err, &coded) {
			os.Exit(coded.code)
		}
		observability.CLILogger.Error("Command failed", zap.Error(err))
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
