package probe

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/salary-insight/pkg/logger"
)

// File permission constants.
const (
	directoryPermission = 0750
	filePermission      = 0600
)

// Run executes a complete probe against cfg.BaseURL and returns its
// statistics. Any failed call or violated invariant yields ErrFailures.
func Run(ctx context.Context, cfg *Config) (*Stats, error) {
	log := logger.Get().Named("probe")
	stats := &Stats{StartTime: time.Now()}

	log.Info(ctx, "starting salary insight probe",
		logger.String("baseURL", cfg.BaseURL),
		logger.Int("records", cfg.Records),
		logger.Int("batchSize", cfg.BatchSize),
		logger.Int("insights", cfg.Insights),
		logger.Int("workers", cfg.Workers),
	)

	client := NewClient(cfg.BaseURL, cfg.APIKey, cfg.Timeout)
	if err := client.Health(ctx); err != nil {
		return stats, fmt.Errorf("service health check failed: %w", err)
	}

	records := Generate(cfg.Records, cfg.Seed)
	stats.RecordsGenerated = len(records)

	if cfg.OutputFile != "" {
		if err := saveRecords(cfg.OutputFile, records); err != nil {
			log.Warn(ctx, "failed to save records", logger.Error(err))
		}
	}

	predictBatches(ctx, cfg, client, records, stats)
	explain(ctx, cfg, client, records[:min(cfg.Insights, len(records))], stats)

	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)
	logStats(ctx, log, stats)

	if stats.PredictFailed+stats.InsightFailed+stats.InvariantFailures > 0 {
		return stats, ErrFailures
	}
	if err := ctx.Err(); err != nil {
		return stats, err
	}
	return stats, nil
}

// predictBatches posts record batches through a worker pool.
func predictBatches(ctx context.Context, cfg *Config, client *Client, records []Employee, stats *Stats) {
	var calls, failed, predicted, invalid atomic.Int64
	jobs := batches(records, cfg.BatchSize)

	forEach(ctx, cfg.Workers, len(jobs), func(i int) {
		calls.Add(1)
		resp, err := client.Predict(ctx, jobs[i])
		if err != nil {
			failed.Add(1)
			logFailure(ctx, cfg, "predict failed", err)
			return
		}
		if err := VerifyPrediction(len(jobs[i]), resp); err != nil {
			invalid.Add(1)
			logFailure(ctx, cfg, "predict response invalid", err)
			return
		}
		predicted.Add(int64(resp.Count))
	})

	stats.PredictCalls = int(calls.Load())
	stats.PredictFailed = int(failed.Load())
	stats.RecordsPredicted = int(predicted.Load())
	stats.InvariantFailures += int(invalid.Load())
}

// explain requests one insight per record through a worker pool.
func explain(ctx context.Context, cfg *Config, client *Client, records []Employee, stats *Stats) {
	var calls, failed, invalid atomic.Int64

	forEach(ctx, cfg.Workers, len(records), func(i int) {
		calls.Add(1)
		resp, err := client.Insight(ctx, records[i])
		if err != nil {
			failed.Add(1)
			logFailure(ctx, cfg, "insight failed", err)
			return
		}
		if err := VerifyInsight(resp); err != nil {
			invalid.Add(1)
			logFailure(ctx, cfg, "insight response invalid", err)
		}
	})

	stats.InsightCalls = int(calls.Load())
	stats.InsightFailed = int(failed.Load())
	stats.InvariantFailures += int(invalid.Load())
}

// forEach runs fn for indexes [0, n) on at most workers goroutines and stops
// handing out work once ctx is done.
func forEach(ctx context.Context, workers, n int, fn func(i int)) {
	if workers <= 0 {
		workers = 1
	}
	next := make(chan int)
	var wg sync.WaitGroup
	for range min(workers, n) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range next {
				fn(i)
			}
		}()
	}

feed:
	for i := 0; i < n; i++ {
		select {
		case <-ctx.Done():
			break feed
		case next <- i:
		}
	}
	close(next)
	wg.Wait()
}

// logFailure reports a failed call. Cancellation noise is only logged in
// verbose mode.
func logFailure(ctx context.Context, cfg *Config, msg string, err error) {
	if !cfg.Verbose && errors.Is(err, context.Canceled) {
		return
	}
	logger.Get().Warn(ctx, msg, logger.Error(err))
}

// saveRecords writes the generated records as a JSON array.
func saveRecords(filename string, records []Employee) error {
	if dir := filepath.Dir(filename); dir != "." {
		if err := os.MkdirAll(dir, directoryPermission); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal records: %w", err)
	}
	return os.WriteFile(filename, data, filePermission)
}

func logStats(ctx context.Context, log logger.Logger, stats *Stats) {
	var perSecond float64
	if stats.Duration > 0 {
		perSecond = float64(stats.PredictCalls+stats.InsightCalls) / stats.Duration.Seconds()
	}
	log.Info(ctx, "final statistics",
		logger.Int("recordsGenerated", stats.RecordsGenerated),
		logger.Int("predictCalls", stats.PredictCalls),
		logger.Int("predictFailed", stats.PredictFailed),
		logger.Int("recordsPredicted", stats.RecordsPredicted),
		logger.Int("insightCalls", stats.InsightCalls),
		logger.Int("insightFailed", stats.InsightFailed),
		logger.Int("invariantFailures", stats.InvariantFailures),
		logger.String("duration", stats.Duration.String()),
		logger.Float64("requestsPerSecond", perSecond),
	)
}
