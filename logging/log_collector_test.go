package logging

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func entry(msg string) LogEntry {
	return LogEntry{Time: time.Now(), Level: "INFO", Message: msg}
}

func TestLogCollector_GetLogsReturnsCopy(t *testing.T) {
	c := NewLogCollector()
	c.AddLog("a", entry("one"))

	logs := c.GetLogs("a")
	require.Len(t, logs, 1)
	logs[0].Message = "changed"

	assert.Equal(t, "one", c.GetLogs("a")[0].Message)
	assert.Nil(t, c.GetLogs("missing"))
}

func TestLogCollector_Bounded(t *testing.T) {
	c := NewLogCollector(WithMaxEntries(3))
	for n := 0; n < 5; n++ {
		c.AddLog("a", entry(fmt.Sprint(n)))
	}

	logs := c.GetLogs("a")
	require.Len(t, logs, 3)
	assert.Equal(t, "2", logs[0].Message)
	assert.Equal(t, "4", logs[2].Message)
	assert.Equal(t, 2, c.Dropped("a"))
}

func TestLogCollector_RemoveAndClear(t *testing.T) {
	c := NewLogCollector(WithMaxEntries(1))
	c.AddLog("a", entry("1"))
	c.AddLog("a", entry("2"))
	c.AddLog("b", entry("1"))

	c.Remove("a")
	assert.Nil(t, c.GetLogs("a"))
	assert.Zero(t, c.Dropped("a"))
	assert.Equal(t, []string{"b"}, c.Activities())

	c.Clear()
	assert.Empty(t, c.Activities())
}

func TestLogCollector_Concurrent(t *testing.T) {
	c := NewLogCollector()

	var wg sync.WaitGroup
	for n := 0; n < 100; n++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 10; j++ {
				c.AddLog("a", entry("x"))
			}
		}()
	}
	wg.Wait()

	assert.Len(t, c.GetLogs("a"), 1000)
	assert.Zero(t, c.Dropped("a"))
}
