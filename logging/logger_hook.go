package logging

import (
	"log/slog"
)

// LoggerHook derives the logger of a single activity from a base logger.
type LoggerHook interface {
	LoggerForActivity(baseLogger *slog.Logger, activityID string) *slog.Logger
}

// CapturingLoggerHook captures every activity logger's records in a collector.
type CapturingLoggerHook struct {
	collector *LogCollector
}

// NewCapturingLoggerHook creates a hook that captures into collector.
func NewCapturingLoggerHook(collector *LogCollector) *CapturingLoggerHook {
	return &CapturingLoggerHook{collector: collector}
}

func (p *CapturingLoggerHook) LoggerForActivity(baseLogger *slog.Logger, activityID string) *slog.Logger {
	return slog.New(NewCapturingHandler(baseLogger.Handler(), p.collector, activityID))
}

// Collector returns the collector the hook writes to.
func (p *CapturingLoggerHook) Collector() *LogCollector {
	return p.collector
}
