package jobs

import (
	"fmt"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
)

// Preset schedule names accepted for ScheduleKindPreset.
const (
	PresetHourly   = "hourly"
	PresetEvery6h  = "every_6h"
	PresetEvery12h = "every_12h"
	PresetDaily    = "daily"
	PresetWeekly   = "weekly"
)

var presetIntervals = map[string]time.Duration{
	PresetHourly:   time.Hour,
	PresetEvery6h:  6 * time.Hour,
	PresetEvery12h: 12 * time.Hour,
	PresetDaily:    24 * time.Hour,
	PresetWeekly:   7 * 24 * time.Hour,
}

// cronParser accepts the standard five-field grammar plus descriptors
// such as @daily.
var cronParser = cron.NewParser(
	cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

// NextRun computes the next fire time strictly after the given instant.
// It is the only place the cron expression grammar is interpreted; the
// scheduling loop depends on this function alone.
func NextRun(schedule Schedule, after time.Time) (time.Time, error) {
	switch schedule.Kind {
	case ScheduleKindPreset:
		name := strings.ToLower(strings.TrimSpace(schedule.Expr))
		interval, ok := presetIntervals[name]
		if !ok {
			return time.Time{}, fmt.Errorf("unknown preset schedule %q", schedule.Expr)
		}
		return after.Add(interval), nil
	case ScheduleKindCron:
		expr := strings.TrimSpace(schedule.Expr)
		if expr == "" {
			return time.Time{}, fmt.Errorf("empty cron expression")
		}
		parsed, err := cronParser.Parse(expr)
		if err != nil {
			return time.Time{}, fmt.Errorf("parse cron expression %q: %w", expr, err)
		}
		return parsed.Next(after), nil
	default:
		return time.Time{}, fmt.Errorf("unknown schedule kind %q", schedule.Kind)
	}
}

// Presets returns the accepted preset schedule names in display order.
func Presets() []string {
	return []string{PresetHourly, PresetEvery6h, PresetEvery12h, PresetDaily, PresetWeekly}
}
