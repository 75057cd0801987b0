package cron

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

const (
	triggerSeparator    = ";"
	intentSeparator     = ":"
	intentListSeparator = ","
)

// ParseSchedules parses a multi-schedule string of the form
// intent1,intent2:cron_expression;intent3:cron_expression2
//
// Example:
//
//	"report,cleanup:0 2 * * *;sync:*/15 * * * *"
//
// Returns an error if:
//   - Any schedule is missing intents or a cron expression
//   - Any intent name is not in available
//   - Any cron expression is invalid
//   - Any schedule lists an intent twice
func ParseSchedules(spec string, available map[string]bool) ([]Schedule, error) {
	spec = strings.TrimSpace(spec)
	if spec == "" {
		return nil, errors.New("schedule spec cannot be empty")
	}

	parts := strings.Split(spec, triggerSeparator)
	schedules := make([]Schedule, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		s, err := parseSchedule(part, available)
		if err != nil {
			return nil, err
		}
		schedules = append(schedules, s)
	}

	if len(schedules) == 0 {
		return nil, errors.New("no valid schedules found in spec")
	}
	return schedules, nil
}

func parseSchedule(part string, available map[string]bool) (Schedule, error) {
	// The cron expression has no colons, so everything before the first
	// one is the intent list.
	parts := strings.Split(part, intentSeparator)
	if len(parts) != 2 {
		return Schedule{}, fmt.Errorf("invalid schedule: expected format 'intents:cron', got '%s'", part)
	}

	intentsStr := strings.TrimSpace(parts[0])
	cronSpec := strings.TrimSpace(parts[1])
	if intentsStr == "" {
		return Schedule{}, fmt.Errorf("invalid schedule: missing intents in '%s'", part)
	}
	if cronSpec == "" {
		return Schedule{}, fmt.Errorf("invalid schedule: missing cron expression in '%s'", part)
	}

	names := strings.Split(intentsStr, intentListSeparator)
	intents := make([]string, 0, len(names))
	seen := make(map[string]bool, len(names))
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		if seen[name] {
			return Schedule{}, fmt.Errorf("invalid schedule: duplicate intent '%s' in '%s'", name, part)
		}
		seen[name] = true
		if !available[name] {
			return Schedule{}, fmt.Errorf("invalid schedule: unknown intent '%s' in '%s' (available: %s)",
				name, part, formatAvailable(available))
		}
		intents = append(intents, name)
	}
	if len(intents) == 0 {
		return Schedule{}, fmt.Errorf("invalid schedule: no valid intents in '%s'", part)
	}

	if _, err := specParser.Parse(cronSpec); err != nil {
		return Schedule{}, fmt.Errorf("invalid schedule: invalid cron expression in '%s': %w", part, err)
	}

	return Schedule{Intents: intents, Cron: cronSpec}, nil
}

func formatAvailable(available map[string]bool) string {
	names := make([]string, 0, len(available))
	for name := range available {
		names = append(names, name)
	}
	sort.Strings(names)
	return strings.Join(names, ", ")
}
