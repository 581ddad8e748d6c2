package cmd

import (
	"context"
	"errors"
	"io"
	"os"
	"time"

	"github.com/fulmenhq/gofulmen/foundry"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/millrace/flowbroker/internal/config"
	"github.com/millrace/flowbroker/internal/observability"
	"github.com/millrace/flowbroker/internal/server"
	"github.com/millrace/flowbroker/pkg/correlation"
	"github.com/millrace/flowbroker/pkg/stream"
)

var observeCmd = &cobra.Command{
	Use:   "observe",
	Short: "Replay a broker record stream and compute execution latency metrics",
	Long: `Replay an exported broker record stream (JSONL, one record per line)
through the correlation engine, computing job activation latency, job
lifetime, and workflow instance execution time.

With --serve, metrics are exposed on /metrics while replaying and the
process keeps serving after the stream ends until interrupted.

Example:
  flowbroker observe --input records.jsonl
  flowbroker observe --input - --serve
  flowbroker observe --input records.jsonl --ttl 30s --rate 1000`,
	RunE: runObserve,
}

var (
	observeInput string
	observeTTL   time.Duration
	observeRate  float64
	observeServe bool
)

func init() {
	rootCmd.AddCommand(observeCmd)

	observeCmd.Flags().StringVarP(&observeInput, "input", "i", "", "Record stream file, or - for stdin (required)")
	observeCmd.Flags().DurationVar(&observeTTL, "ttl", 0, "Override correlation entry TTL")
	observeCmd.Flags().Float64Var(&observeRate, "rate", 0, "Max replayed records per second (0 = unlimited)")
	observeCmd.Flags().BoolVar(&observeServe, "serve", false, "Serve /metrics while replaying and keep serving afterwards")

	_ = observeCmd.MarkFlagRequired("input")
}

func runObserve(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	cfg, err := config.Load(rootConfig)
	if err != nil {
		return exitError(foundry.ExitInvalidArgument, "Invalid configuration", err)
	}
	if observeTTL > 0 {
		cfg.Correlation.TTL = observeTTL
	}
	if observeRate > 0 {
		cfg.Replay.Rate = observeRate
	}

	input, closeInput, err := openInput(observeInput)
	if err != nil {
		return exitError(foundry.ExitFileNotFound, "Cannot open record stream", err)
	}
	defer closeInput()

	runID := uuid.New().String()
	registry := prometheus.NewRegistry()
	sink := correlation.NewPrometheusSink(registry)

	engine := correlation.NewEngine(correlation.Config{
		TTL:    cfg.Correlation.TTL,
		Sink:   sink,
		Logger: observability.CLILogger,
	})
	controller := correlation.NewSerialController(time.Now)
	engine.Open(controller)
	defer engine.Close()

	var srv *server.Server
	if observeServe {
		srv = server.New(cfg.Server.Host, cfg.Server.Port, registry, observability.CLILogger)
		if err := srv.Start(); err != nil {
			return exitError(foundry.ExitInvalidArgument, "Cannot start metrics server", err)
		}
		defer shutdownServer(srv, cfg.Server.ShutdownTimeout)
	}

	observability.CLILogger.Info("Starting replay",
		zap.String("run_id", runID),
		zap.String("input", observeInput),
		zap.Duration("ttl", cfg.Correlation.TTL))

	if err := replay(ctx, cfg, input, engine, controller); err != nil {
		if errors.Is(err, context.Canceled) {
			observability.CLILogger.Warn("Replay cancelled",
				zap.String("run_id", runID),
				zap.Int64("records", controller.Acknowledged()))
			return exitError(foundry.ExitSignalInt, "Replay cancelled", err)
		}
		return exitError(foundry.ExitInvalidArgument, "Replay failed", err)
	}

	observability.CLILogger.Info("Replay completed",
		zap.String("run_id", runID),
		zap.Int64("records", controller.Acknowledged()),
		zap.Int64("last_position", controller.LastAcknowledged()),
		zap.Int("jobs_in_flight", engine.JobIndexLen()),
		zap.Int("instances_in_flight", engine.InstanceIndexLen()))

	if observeServe {
		<-ctx.Done()
	}
	return nil
}

func replay(ctx context.Context, cfg *config.Config, input io.Reader, engine *correlation.Engine, controller *correlation.SerialController) error {
	decoder := stream.NewDecoder(input)
	decoder.SetMaxLineBytes(cfg.Replay.MaxLineBytes)

	var limiter *rate.Limiter
	if cfg.Replay.Rate > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.Replay.Rate), 1)
	}

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		rec, err := decoder.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}

		if limiter != nil {
			if err := limiter.Wait(ctx); err != nil {
				return err
			}
		}

		// Pending sweeps fire between records, on this goroutine.
		controller.RunDue()
		engine.HandleRecord(&rec)
	}
}

func openInput(path string) (io.Reader, func(), error) {
	if path == "-" {
		return os.Stdin, func() {}, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	return f, func() { _ = f.Close() }, nil
}

func shutdownServer(srv *server.Server, timeout time.Duration) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		observability.CLILogger.Warn("Metrics server shutdown failed", zap.Error(err))
	}
}
