package logging

import (
	"sort"
	"sync"
	"time"
)

// DefaultMaxEntries bounds the entries kept per activity.
const DefaultMaxEntries = 1000

// LogEntry is a single captured log record.
type LogEntry struct {
	Time       time.Time      `json:"time"`
	Level      string         `json:"level"`
	Message    string         `json:"message"`
	Attributes map[string]any `json:"attributes"`
}

// LogCollector stores captured log entries per activity. Each activity keeps
// at most maxEntries; older entries are dropped first.
type LogCollector struct {
	mu         sync.RWMutex
	maxEntries int
	logs       map[string][]LogEntry
	dropped    map[string]int
}

// CollectorOption configures a LogCollector.
type CollectorOption func(*LogCollector)

// WithMaxEntries sets the per-activity bound. Values below 1 are ignored.
func WithMaxEntries(n int) CollectorOption {
	return func(c *LogCollector) {
		if n > 0 {
			c.maxEntries = n
		}
	}
}

// NewLogCollector creates an empty LogCollector.
func NewLogCollector(opts ...CollectorOption) *LogCollector {
	c := &LogCollector{
		maxEntries: DefaultMaxEntries,
		logs:       make(map[string][]LogEntry),
		dropped:    make(map[string]int),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// AddLog appends entry to the activity's log.
func (c *LogCollector) AddLog(activityID string, entry LogEntry) {
	c.mu.Lock()
	defer c.mu.Unlock()

	logs := append(c.logs[activityID], entry)
	if over := len(logs) - c.maxEntries; over > 0 {
		logs = append(logs[:0:0], logs[over:]...)
		c.dropped[activityID] += over
	}
	c.logs[activityID] = logs
}

// GetLogs returns a copy of the activity's entries, oldest first.
func (c *LogCollector) GetLogs(activityID string) []LogEntry {
	c.mu.RLock()
	defer c.mu.RUnlock()

	logs, ok := c.logs[activityID]
	if !ok {
		return nil
	}
	return append([]LogEntry(nil), logs...)
}

// Dropped returns how many entries were discarded for the activity.
func (c *LogCollector) Dropped(activityID string) int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.dropped[activityID]
}

// Activities returns the IDs with captured entries, sorted.
func (c *LogCollector) Activities() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	ids := make([]string, 0, len(c.logs))
	for id := range c.logs {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Remove discards everything captured for the activity.
func (c *LogCollector) Remove(activityID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.logs, activityID)
	delete(c.dropped, activityID)
}

// Clear removes all stored logs.
func (c *LogCollector) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.logs = make(map[string][]LogEntry)
	c.dropped = make(map[string]int)
}
