package eval

import (
	"context"
	"encoding/csv"
	"math"
	"sort"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// LoadTestConfig tunes a scalability run. Zero values use the defaults.
type LoadTestConfig struct {
	// Levels are the concurrent-user counts to test.
	Levels []int
	// Repeats is how many batches to run per level.
	Repeats int
	// Timeout bounds each individual request.
	Timeout time.Duration
	// MaxStartsPerSec throttles how fast requests within a batch are
	// launched. Zero launches them all at once.
	MaxStartsPerSec float64
}

// DefaultLoadTestConfig mirrors the levels the service is sized for.
func DefaultLoadTestConfig() LoadTestConfig {
	return LoadTestConfig{
		Levels:  []int{5, 10, 20, 50},
		Repeats: 3,
		Timeout: 60 * time.Second,
	}
}

// LoadTestRow is one concurrency level's aggregate result.
type LoadTestRow struct {
	ConcurrentUsers int
	TotalRequests   int
	AvgLatencyS     float64
	P95LatencyS     float64
	FailureRatePct  float64
}

// RunLoadTest fires batches of concurrent requests through do and aggregates
// latency and failure rate per concurrency level. Every request in a batch
// starts together; a batch finishes when all its requests return. Request
// errors count as failures, they do not abort the run.
func RunLoadTest(ctx context.Context, do func(ctx context.Context) error, cfg LoadTestConfig) ([]LoadTestRow, error) {
	defaults := DefaultLoadTestConfig()
	if len(cfg.Levels) == 0 {
		cfg.Levels = defaults.Levels
	}
	if cfg.Repeats == 0 {
		cfg.Repeats = defaults.Repeats
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = defaults.Timeout
	}

	var limiter *rate.Limiter
	if cfg.MaxStartsPerSec > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.MaxStartsPerSec), 1)
	}

	var rows []LoadTestRow
	for _, level := range cfg.Levels {
		var latencies []float64
		failures := 0

		for rep := 0; rep < cfg.Repeats; rep++ {
			if err := ctx.Err(); err != nil {
				return nil, err
			}

			results := make([]struct {
				latency float64
				ok      bool
			}, level)

			var wg sync.WaitGroup
			for i := 0; i < level; i++ {
				if limiter != nil {
					if err := limiter.Wait(ctx); err != nil {
						return nil, err
					}
				}
				wg.Add(1)
				go func(i int) {
					defer wg.Done()
					reqCtx, cancel := context.WithTimeout(ctx, cfg.Timeout)
					defer cancel()
					start := time.Now()
					err := do(reqCtx)
					results[i].latency = time.Since(start).Seconds()
					results[i].ok = err == nil
				}(i)
			}
			wg.Wait()

			for _, r := range results {
				latencies = append(latencies, r.latency)
				if !r.ok {
					failures++
				}
			}
		}

		total := len(latencies)
		var sum float64
		for _, l := range latencies {
			sum += l
		}
		rows = append(rows, LoadTestRow{
			ConcurrentUsers: level,
			TotalRequests:   total,
			AvgLatencyS:     round4(sum / float64(total)),
			P95LatencyS:     round4(p95NearestRank(latencies)),
			FailureRatePct:  round2(100.0 * float64(failures) / float64(total)),
		})
	}
	return rows, nil
}

// p95NearestRank uses the rounded nearest-rank index on sorted samples.
func p95NearestRank(values []float64) float64 {
	if len(values) == 0 {
		return math.NaN()
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	k := int(math.Round(0.95 * float64(len(sorted)-1)))
	return sorted[k]
}

// WriteLoadTestCSV writes the aggregate rows in the scalability report
// format.
func WriteLoadTestCSV(path string, rows []LoadTestRow) error {
	header := []string{"ConcurrentUsers", "TotalRequests", "AvgLatency_s", "P95Latency_s", "FailureRate_%"}
	return writeCSV(path, header, func(w *csv.Writer) error {
		for _, row := range rows {
			record := []string{
				strconv.Itoa(row.ConcurrentUsers),
				strconv.Itoa(row.TotalRequests),
				formatFloat(row.AvgLatencyS),
				formatFloat(row.P95LatencyS),
				formatFloat(row.FailureRatePct),
			}
			if err := w.Write(record); err != nil {
				return err
			}
		}
		return nil
	})
}

func round4(x float64) float64 {
	return math.Round(x*10000) / 10000
}
