package main

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"time"

	"github.com/okian/salary-insight/internal/probe"
	"github.com/okian/salary-insight/pkg/logger"
	"github.com/spf13/cobra"
)

// Default configuration constants.
const (
	defaultRecords     = 1000
	defaultBatchSize   = 50
	defaultInsights    = 200
	defaultWorkers     = 2 // multiplier for runtime.NumCPU()
	defaultSeed        = 42
	defaultTimeout     = 30 * time.Second
	defaultProbeWindow = 10 * time.Minute
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cfg := &probe.Config{}
	var window time.Duration

	cmd := &cobra.Command{
		Use:   "probe",
		Short: "Exercise a running salary insight service",
		Long: `Generates employee records, sends them to /predict and /insight concurrently
and verifies that every response is consistent: predictions aligned with the
request, six ranked feature groups per insight, influences summing to 100.`,
		Example: `  probe --key secret
  probe --url http://localhost:8080 --records 10000 --workers 16`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := logger.Init(); err != nil {
				return fmt.Errorf("failed to initialize logging: %w", err)
			}
			if cfg.Verbose {
				_ = logger.SetLevelString("debug")
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), window)
			defer cancel()

			_, err := probe.Run(ctx, cfg)
			return err
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&cfg.BaseURL, "url", "http://localhost:1010", "Base URL of the service")
	flags.StringVar(&cfg.APIKey, "key", defaultKey(), "API key sent in x-api-key (default $SALARY_API_KEY or $ML_API_KEY)")
	flags.IntVarP(&cfg.Records, "records", "n", defaultRecords, "Number of records to generate")
	flags.IntVar(&cfg.BatchSize, "batch", defaultBatchSize, "Records per /predict call")
	flags.IntVar(&cfg.Insights, "insights", defaultInsights, "Number of records to explain via /insight")
	flags.IntVarP(&cfg.Workers, "workers", "w", runtime.NumCPU()*defaultWorkers, "Number of concurrent workers")
	flags.DurationVar(&cfg.Timeout, "timeout", defaultTimeout, "HTTP request timeout")
	flags.Uint64Var(&cfg.Seed, "seed", defaultSeed, "Generator seed")
	flags.StringVarP(&cfg.OutputFile, "output", "o", "", "Write the generated records to this JSON file")
	flags.BoolVarP(&cfg.Verbose, "verbose", "v", false, "Enable verbose logging")
	flags.DurationVar(&window, "deadline", defaultProbeWindow, "Overall time limit for the probe")

	return cmd
}

func defaultKey() string {
	if k := os.Getenv("SALARY_API_KEY"); k != "" {
		return k
	}
	return os.Getenv("ML_API_KEY")
}
