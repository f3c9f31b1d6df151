package observability

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLogger_AddsServiceAndContextIDs(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(LogConfig{
		Level:          "debug",
		Format:         LogFormatJSON,
		Output:         &buf,
		ServiceName:    "upkeep",
		ServiceVersion: "1.2.3",
	})

	ctx := WithRequestID(WithCorrelationID(context.Background(), "corr-1"), "req-1")
	logger.With("component", "test").DebugContext(ctx, "hello", "n", 1)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "hello", entry["msg"])
	assert.Equal(t, "upkeep", entry["service"])
	assert.Equal(t, "1.2.3", entry["version"])
	assert.Equal(t, "test", entry["component"])
	assert.Equal(t, "corr-1", entry[CorrelationIDKey])
	assert.Equal(t, "req-1", entry[RequestIDKey])
}

func TestNewLogger_RespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(LogConfig{Level: "warn", Output: &buf})

	logger.Info("hidden")
	assert.Empty(t, buf.String())

	logger.Warn("shown")
	assert.Contains(t, buf.String(), "shown")
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("warning"))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLevel("verbose"))
}

func TestCorrelationUUID(t *testing.T) {
	ctx := WithCorrelationID(context.Background(), "")
	assert.NotEmpty(t, CorrelationIDFromContext(ctx))
	assert.NotEqual(t, "00000000-0000-0000-0000-000000000000", CorrelationUUID(ctx).String())

	assert.Equal(t, "00000000-0000-0000-0000-000000000000", CorrelationUUID(WithCorrelationID(context.Background(), "not-a-uuid")).String())
}

func TestPrometheusMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewPrometheusMetrics(reg)

	m.Counter(MetricOperationTotal, 1, T("operation", "create"), T("result", "ok"))
	m.Counter(MetricOperationTotal, 2, T("result", "ok"), T("operation", "create"))
	m.Timing(MetricOperationDuration, 0, T("operation", "create"))

	families, err := reg.Gather()
	require.NoError(t, err)

	names := make(map[string]float64)
	for _, f := range families {
		names[f.GetName()] = f.GetMetric()[0].GetCounter().GetValue()
	}
	require.Contains(t, names, MetricOperationTotal)
	require.Contains(t, names, MetricOperationDuration)
	assert.Equal(t, float64(3), names[MetricOperationTotal])
}

func TestInMemoryMetrics_TagOrderInsensitive(t *testing.T) {
	m := NewInMemoryMetrics()
	m.Counter("c", 1, T("a", "1"), T("b", "2"))
	m.Counter("c", 1, T("b", "2"), T("a", "1"))

	assert.Equal(t, int64(2), m.GetCounter("c", T("a", "1"), T("b", "2")))
}

func TestTimer_Stop(t *testing.T) {
	m := NewInMemoryMetrics()

	StartTimer("approve").WithMetrics(m).Stop(nil, nil)
	StartTimer("approve").WithMetrics(m).Stop(errors.New("x"), func(error) string { return "state_conflict" })
	StartTimer("approve").WithMetrics(m).Stop(errors.New("x"), nil)

	assert.Equal(t, int64(1), m.GetCounter(MetricOperationTotal, T("operation", "approve"), T("result", "ok")))
	assert.Equal(t, int64(1), m.GetCounter(MetricOperationTotal, T("operation", "approve"), T("result", "state_conflict")))
	assert.Equal(t, int64(1), m.GetCounter(MetricOperationTotal, T("operation", "approve"), T("result", "error")))
	assert.Len(t, m.GetTimings(MetricOperationDuration, T("operation", "approve")), 3)
}

func TestHealthRegistry(t *testing.T) {
	r := NewHealthRegistry()
	r.Register("database", PingChecker(func(context.Context) error { return nil }, false))
	r.Register("cache", PingChecker(func(context.Context) error { return errors.New("refused") }, true))

	h := r.Check(context.Background())
	assert.Equal(t, HealthStatusDegraded, h.Status)
	assert.Equal(t, "refused", h.Checks["cache"].Message)

	r.Register("database", PingChecker(func(context.Context) error { return errors.New("down") }, false))
	assert.Equal(t, HealthStatusUnhealthy, r.Check(context.Background()).Status)
}
