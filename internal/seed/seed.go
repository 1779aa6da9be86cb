// Package seed loads SQL scripts into a database batch by batch.
package seed

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/joacominatel/dbdeck/internal/database"
)

// SplitBatches splits script into executable batches.
//
// Lines holding only GO separate batches. CREATE DATABASE and USE lines,
// blank lines and -- comment lines are dropped. A script without any GO
// separator gets each CREATE TRIGGER, CREATE PROCEDURE and CREATE FUNCTION
// moved into a batch of its own, running up to the next CREATE statement
// other than CREATE INDEX.
func SplitBatches(script string) []string {
	var batches []string
	var current []string
	flush := func() {
		if len(current) > 0 {
			batches = append(batches, strings.Join(current, "\n"))
			current = nil
		}
	}

	for _, raw := range strings.Split(script, "\n") {
		line := strings.TrimSpace(raw)
		switch {
		case strings.EqualFold(line, "GO"):
			flush()
		case line == "", strings.HasPrefix(line, "--"),
			strings.HasPrefix(line, "CREATE DATABASE"), strings.HasPrefix(line, "USE "):
		default:
			current = append(current, line)
		}
	}
	flush()

	if len(batches) != 1 {
		return batches
	}
	return isolateRoutines(strings.Split(batches[0], "\n"))
}

func isRoutine(line string) bool {
	return strings.HasPrefix(line, "CREATE TRIGGER") ||
		strings.HasPrefix(line, "CREATE PROCEDURE") ||
		strings.HasPrefix(line, "CREATE FUNCTION")
}

func isolateRoutines(lines []string) []string {
	var batches []string
	var current []string

	for i := 0; i < len(lines); i++ {
		if !isRoutine(lines[i]) {
			current = append(current, lines[i])
			continue
		}
		if len(current) > 0 {
			batches = append(batches, strings.Join(current, "\n"))
			current = nil
		}
		routine := []string{lines[i]}
		for i+1 < len(lines) {
			next := lines[i+1]
			if strings.HasPrefix(next, "CREATE ") && !strings.HasPrefix(next, "CREATE INDEX") {
				break
			}
			routine = append(routine, next)
			i++
		}
		batches = append(batches, strings.Join(routine, "\n"))
	}
	if len(current) > 0 {
		batches = append(batches, strings.Join(current, "\n"))
	}
	return batches
}

// Pinger is anything that can report whether the server answers.
type Pinger interface {
	Ping(ctx context.Context) error
}

// WaitForReady pings p up to attempts times, interval apart, and returns the
// last error if the server never answered.
func WaitForReady(ctx context.Context, p Pinger, attempts int, interval time.Duration) error {
	if attempts < 1 {
		attempts = 1
	}
	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(interval), uint64(attempts-1)), ctx)

	attempt := 0
	err := backoff.RetryNotify(func() error {
		attempt++
		return p.Ping(ctx)
	}, policy, func(err error, _ time.Duration) {
		slog.Info("server not ready", "attempt", attempt, "max", attempts, "error", err)
	})
	if err != nil {
		return fmt.Errorf("server not ready after %d attempts: %w", attempt, err)
	}
	return nil
}

// BatchError is a failed batch.
type BatchError struct {
	Index int
	Batch string
	Err   string
}

// Report summarizes a seed run.
type Report struct {
	Total    int
	Executed int
	Failed   []BatchError
}

// OK reports whether every batch ran.
func (r Report) OK() bool { return len(r.Failed) == 0 }

// Run executes every batch on conn in order. Failed batches are recorded and
// skipped.
func Run(ctx context.Context, conn database.Connection, batches []string) Report {
	report := Report{Total: len(batches)}
	for i, batch := range batches {
		if strings.TrimSpace(batch) == "" {
			continue
		}
		if err := ctx.Err(); err != nil {
			report.Failed = append(report.Failed, BatchError{Index: i, Batch: preview(batch), Err: err.Error()})
			continue
		}
		res := conn.ExecuteQuery(ctx, batch)
		if !res.Success {
			slog.Warn("seed batch failed", "batch", i+1, "total", len(batches), "error", res.Error)
			report.Failed = append(report.Failed, BatchError{Index: i, Batch: preview(batch), Err: res.Error})
			continue
		}
		slog.Debug("seed batch executed", "batch", i+1, "total", len(batches))
		report.Executed++
	}
	return report
}

func preview(batch string) string {
	const limit = 300
	if len(batch) <= limit {
		return batch
	}
	return batch[:limit] + "..."
}
