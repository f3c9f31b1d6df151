package observability

import (
	"log/slog"
	"time"
)

// Timer measures one operation and reports it to a logger and metrics.
type Timer struct {
	operation string
	start     time.Time
	logger    *slog.Logger
	metrics   Metrics
}

// StartTimer starts timing operation.
func StartTimer(operation string) *Timer {
	return &Timer{operation: operation, start: time.Now()}
}

func (t *Timer) WithLogger(logger *slog.Logger) *Timer {
	t.logger = logger
	return t
}

func (t *Timer) WithMetrics(metrics Metrics) *Timer {
	t.metrics = metrics
	return t
}

// Stop records the duration with a result label derived from classify(err).
// A nil classify labels every error "error".
func (t *Timer) Stop(err error, classify func(error) string) time.Duration {
	d := time.Since(t.start)

	result := "ok"
	if err != nil {
		result = "error"
		if classify != nil {
			if c := classify(err); c != "" {
				result = c
			}
		}
	}

	if t.logger != nil {
		if err != nil {
			t.logger.Warn("operation failed",
				"operation", t.operation,
				"result", result,
				"duration_ms", d.Milliseconds(),
				"error", err,
			)
		} else {
			t.logger.Debug("operation completed",
				"operation", t.operation,
				"duration_ms", d.Milliseconds(),
			)
		}
	}

	if t.metrics != nil {
		tags := []Tag{T("operation", t.operation), T("result", result)}
		t.metrics.Counter(MetricOperationTotal, 1, tags...)
		t.metrics.Timing(MetricOperationDuration, d, T("operation", t.operation))
	}
	return d
}
