package logging

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCapturing(t *testing.T, level slog.Level) (*slog.Logger, *LogCollector, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	collector := NewLogCollector()
	base := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: level}))
	logger := NewCapturingLoggerHook(collector).LoggerForActivity(base, "act-1")
	return logger, collector, &buf
}

func TestCapturingHandler_CapturesAndPassesThrough(t *testing.T) {
	logger, collector, buf := newCapturing(t, slog.LevelInfo)

	logger.Info("module started", "count", 42, "took", time.Second, "err", errors.New("boom"))

	logs := collector.GetLogs("act-1")
	require.Len(t, logs, 1)
	assert.Equal(t, "INFO", logs[0].Level)
	assert.Equal(t, "module started", logs[0].Message)
	assert.Equal(t, int64(42), logs[0].Attributes["count"])
	assert.Equal(t, "1s", logs[0].Attributes["took"])
	assert.Equal(t, "boom", logs[0].Attributes["err"])

	assert.Contains(t, buf.String(), "module started")
}

func TestCapturingHandler_CapturesBelowUnderlyingLevel(t *testing.T) {
	logger, collector, buf := newCapturing(t, slog.LevelWarn)

	logger.Debug("debug message")
	logger.Info("info message")
	logger.Warn("warn message")
	logger.Error("error message")

	logs := collector.GetLogs("act-1")
	require.Len(t, logs, 4)
	assert.Equal(t, "DEBUG", logs[0].Level)
	assert.Equal(t, "ERROR", logs[3].Level)

	out := buf.String()
	assert.NotContains(t, out, "debug message")
	assert.NotContains(t, out, "info message")
	assert.Contains(t, out, "warn message")
}

func TestCapturingHandler_AttrsAndGroups(t *testing.T) {
	logger, collector, _ := newCapturing(t, slog.LevelInfo)

	logger.With("intent", "report").WithGroup("console").Info("hello", "level", "log")

	logs := collector.GetLogs("act-1")
	require.Len(t, logs, 1)
	assert.Equal(t, "report", logs[0].Attributes["intent"])
	assert.Equal(t, "log", logs[0].Attributes["console.level"])
}

func TestCapturingHandler_GroupValue(t *testing.T) {
	logger, collector, _ := newCapturing(t, slog.LevelInfo)

	logger.Info("params", slog.Group("p", slog.String("x", "1"), slog.Int("y", 2)))

	logs := collector.GetLogs("act-1")
	require.Len(t, logs, 1)
	assert.Equal(t, map[string]any{"x": "1", "y": int64(2)}, logs[0].Attributes["p"])
}

func TestCapturingHandler_Enabled(t *testing.T) {
	h := NewCapturingHandler(slog.NewJSONHandler(&bytes.Buffer{}, nil), NewLogCollector(), "a")
	for _, level := range []slog.Level{slog.LevelDebug, slog.LevelInfo, slog.LevelWarn, slog.LevelError} {
		assert.True(t, h.Enabled(context.Background(), level))
	}
}

func TestCapturingLoggerHook_SeparatesActivities(t *testing.T) {
	collector := NewLogCollector()
	hook := NewCapturingLoggerHook(collector)
	base := slog.New(slog.NewJSONHandler(&bytes.Buffer{}, nil))

	const activities = 10
	const perActivity = 50

	var wg sync.WaitGroup
	for n := 0; n < activities; n++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			logger := hook.LoggerForActivity(base, string(rune('a'+n)))
			for j := 0; j < perActivity; j++ {
				logger.Info("tick", "j", j)
			}
		}(n)
	}
	wg.Wait()

	ids := hook.Collector().Activities()
	require.Len(t, ids, activities)
	for _, id := range ids {
		assert.Len(t, collector.GetLogs(id), perActivity)
	}
}
