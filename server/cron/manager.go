package cron

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/nomis52/golaunch/activity"
	"github.com/nomis52/golaunch/launcher"
)

// Starter launches an intent. *launcher.Launcher implements it.
type Starter interface {
	IntentStart(name string, params activity.Params, opts ...activity.StartOption) (*activity.Handle, error)
}

// Schedule launches Intents every time Cron fires.
type Schedule struct {
	Intents   []string
	Cron      string
	Params    activity.Params
	Container string
	// Timeout cancels each launched activity that has not ended in time.
	// Zero means no limit.
	Timeout time.Duration
}

// NextRun describes when a schedule fires next.
type NextRun struct {
	Intents []string  `json:"intents"`
	Cron    string    `json:"cron"`
	Next    time.Time `json:"next"`
}

// Manager owns a Trigger for each Schedule.
type Manager struct {
	schedules []Schedule
	triggers  []*Trigger
	starter   Starter
	logger    *slog.Logger
}

// NewManager creates a Manager. It fails if any cron expression is invalid.
func NewManager(schedules []Schedule, starter Starter, logger *slog.Logger) (*Manager, error) {
	m := &Manager{
		schedules: schedules,
		triggers:  make([]*Trigger, 0, len(schedules)),
		starter:   starter,
		logger:    logger.With("component", "cron"),
	}

	for _, s := range schedules {
		s := s
		trigger, err := NewTrigger(s.Cron, func() error { return m.launch(s) }, m.logger)
		if err != nil {
			return nil, fmt.Errorf("creating trigger for '%s:%s': %w",
				strings.Join(s.Intents, ","), s.Cron, err)
		}
		m.triggers = append(m.triggers, trigger)
	}

	for i, trigger := range m.triggers {
		m.logger.Info("schedule registered",
			"intents", schedules[i].Intents,
			"schedule", schedules[i].Cron,
			"next_run", trigger.NextRun(),
		)
	}
	return m, nil
}

// Start launches all triggers. Returns immediately. All goroutines exit
// when ctx is cancelled.
func (m *Manager) Start(ctx context.Context) {
	for _, trigger := range m.triggers {
		trigger.Start(ctx)
	}
}

// NextRun returns the earliest scheduled time across all triggers, or the
// zero time if there are none.
func (m *Manager) NextRun() time.Time {
	var earliest time.Time
	for _, trigger := range m.triggers {
		next := trigger.NextRun()
		if earliest.IsZero() || next.Before(earliest) {
			earliest = next
		}
	}
	return earliest
}

// NextRuns returns the next fire time of every schedule.
func (m *Manager) NextRuns() []NextRun {
	runs := make([]NextRun, len(m.triggers))
	for i, trigger := range m.triggers {
		runs[i] = NextRun{
			Intents: m.schedules[i].Intents,
			Cron:    trigger.Spec(),
			Next:    trigger.NextRun(),
		}
	}
	return runs
}

// launch starts every intent of s. An intent that fails to start does not
// prevent the others.
func (m *Manager) launch(s Schedule) error {
	var opts []activity.StartOption
	if s.Container != "" {
		opts = append(opts, activity.WithContainer(s.Container))
	}

	var errs []error
	for _, name := range s.Intents {
		h, err := m.starter.IntentStart(name, s.Params, opts...)
		if err != nil {
			errs = append(errs, fmt.Errorf("starting %s: %w", name, err))
			continue
		}
		if s.Timeout > 0 {
			launcher.CancelAfter(h, s.Timeout)
		}
		m.logger.Info("scheduled activity launched", "intent", name, "activity_id", h.ID())
	}
	return errors.Join(errs...)
}
