// Package cron launches intents on cron schedules.
//
// A Trigger calls a function according to one cron schedule. A Manager owns
// one Trigger per configured schedule and launches the schedule's intents
// through a Starter each time it fires.
//
// Example usage:
//
//	mgr, err := cron.NewManager(schedules, launcher, logger)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	mgr.Start(ctx)  // Returns immediately, runs in background
//	<-ctx.Done()    // Wait for shutdown signal
package cron

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// ErrInvalidCronSpec is returned when the cron specification cannot be parsed.
var ErrInvalidCronSpec = errors.New("invalid cron spec")

var specParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// Trigger calls fire according to a cron schedule.
type Trigger struct {
	spec     string
	schedule cron.Schedule
	fire     func() error
	logger   *slog.Logger
}

// NewTrigger creates a Trigger for a 5-field cron spec (minute, hour, day,
// month, weekday). Returns ErrInvalidCronSpec if the spec cannot be parsed.
func NewTrigger(spec string, fire func() error, logger *slog.Logger) (*Trigger, error) {
	schedule, err := specParser.Parse(spec)
	if err != nil {
		return nil, errors.Join(ErrInvalidCronSpec, err)
	}

	return &Trigger{
		spec:     spec,
		schedule: schedule,
		fire:     fire,
		logger:   logger,
	}, nil
}

// Spec returns the cron expression.
func (t *Trigger) Spec() string {
	return t.spec
}

// Start launches a goroutine that fires on schedule. Returns immediately.
// The goroutine exits when ctx is cancelled.
func (t *Trigger) Start(ctx context.Context) {
	go t.loop(ctx)
}

// NextRun returns the next scheduled time from now.
func (t *Trigger) NextRun() time.Time {
	return t.schedule.Next(time.Now())
}

func (t *Trigger) loop(ctx context.Context) {
	for {
		next := t.schedule.Next(time.Now())
		wait := time.Until(next)

		t.logger.Debug("waiting for next scheduled launch",
			"schedule", t.spec,
			"next_run", next,
			"wait_duration", wait,
		)

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			t.logger.Debug("cron trigger shutting down", "schedule", t.spec)
			return
		case <-timer.C:
			if err := t.fire(); err != nil {
				t.logger.Warn("scheduled launch failed", "schedule", t.spec, "error", err)
			}
		}
	}
}
