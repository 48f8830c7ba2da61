package schedule

import (
	"fmt"
	"time"

	"bookadmin/internal/domain"
)

// GenerationConfig is the parsed, validated form of a generation request.
// Clock fields are offsets from midnight of each generated day.
type GenerationConfig struct {
	ServiceID      int64
	OrganizationID int64
	StartDate      time.Time // midnight UTC
	EndDate        time.Time // midnight UTC, inclusive
	WorkStart      time.Duration
	WorkEnd        time.Duration
	BreakStart     time.Duration
	BreakEnd       time.Duration // BreakEnd > BreakStart enables the break
	Interval       time.Duration
	Weekdays       map[time.Weekday]bool // nil or empty means every day
	Capacity       int
}

func (c GenerationConfig) hasBreak() bool {
	return c.BreakEnd > c.BreakStart
}

func (c GenerationConfig) dayEnabled(d time.Weekday) bool {
	if len(c.Weekdays) == 0 {
		return true
	}
	return c.Weekdays[d]
}

func (c GenerationConfig) validate() error {
	if c.Interval <= 0 {
		return fmt.Errorf("%w: interval must be positive", ErrValidation)
	}
	if c.EndDate.Before(c.StartDate) {
		return fmt.Errorf("%w: end_date before start_date", ErrValidation)
	}
	if c.WorkEnd <= c.WorkStart {
		return fmt.Errorf("%w: end_time must be after start_time", ErrValidation)
	}
	if c.hasBreak() && (c.BreakStart < c.WorkStart || c.BreakEnd > c.WorkEnd) {
		return fmt.Errorf("%w: break must lie within working hours", ErrValidation)
	}
	if c.Capacity < 1 {
		return fmt.Errorf("%w: capacity must be at least 1", ErrValidation)
	}
	return nil
}

// GenerateSlots walks each enabled calendar day from WorkStart to WorkEnd in
// Interval steps and emits one slot per step. A candidate that would overrun
// WorkEnd, or that overlaps the break window even partially, is dropped whole:
// a slot shorter than the configured interval is never produced. Output is
// ordered strictly by start time. An empty result is valid.
func GenerateSlots(cfg GenerationConfig) ([]domain.Slot, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	var out []domain.Slot
	for day := cfg.StartDate; !day.After(cfg.EndDate); day = day.AddDate(0, 0, 1) {
		if !cfg.dayEnabled(day.Weekday()) {
			continue
		}
		for t := cfg.WorkStart; t+cfg.Interval <= cfg.WorkEnd; t += cfg.Interval {
			if cfg.hasBreak() && t < cfg.BreakEnd && cfg.BreakStart < t+cfg.Interval {
				continue
			}
			out = append(out, domain.Slot{
				ServiceID:      cfg.ServiceID,
				OrganizationID: cfg.OrganizationID,
				StartTime:      day.Add(t),
				EndTime:        day.Add(t + cfg.Interval),
				Capacity:       cfg.Capacity,
			})
		}
	}
	return out, nil
}

func parseDate(s string) (time.Time, error) {
	d, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: invalid date %q", ErrValidation, s)
	}
	return time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC), nil
}

// parseClock turns "15:04" into an offset from midnight.
func parseClock(s string) (time.Duration, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, fmt.Errorf("%w: invalid time %q", ErrValidation, s)
	}
	return time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute, nil
}
