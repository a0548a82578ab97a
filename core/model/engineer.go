package model

import (
	"fmt"
	"time"
)

// DayWindow is a working-hours window expressed in minutes from midnight.
// A zero window means the engineer does not work that day.
type DayWindow struct {
	StartMin int
	EndMin   int
}

// SpanMinutes returns the length of the window.
func (w DayWindow) SpanMinutes() int {
	if w.EndMin <= w.StartMin {
		return 0
	}
	return w.EndMin - w.StartMin
}

// IsZero reports whether the window is unset.
func (w DayWindow) IsZero() bool {
	return w.StartMin == 0 && w.EndMin == 0
}

// String formats the window as "08:00-17:00".
func (w DayWindow) String() string {
	return ClockString(w.StartMin) + "-" + ClockString(w.EndMin)
}

// ClockString formats minutes from midnight as HH:MM.
func ClockString(min int) string {
	return fmt.Sprintf("%02d:%02d", min/60, min%60)
}

// ParseClock parses HH:MM into minutes from midnight.
func ParseClock(s string) (int, error) {
	var h, m int
	if _, err := fmt.Sscanf(s, "%d:%d", &h, &m); err != nil {
		return 0, fmt.Errorf("invalid clock value %q: %w", s, err)
	}
	if h < 0 || h > 23 || m < 0 || m > 59 {
		return 0, fmt.Errorf("invalid clock value %q", s)
	}
	return h*60 + m, nil
}

// TimeOffRange is an approved absence covering whole days, inclusive.
type TimeOffRange struct {
	From time.Time
	To   time.Time
}

// Contains reports whether date falls inside the range.
func (r TimeOffRange) Contains(date time.Time) bool {
	d := date.Truncate(24 * time.Hour)
	return !d.Before(r.From.Truncate(24*time.Hour)) && !d.After(r.To.Truncate(24*time.Hour))
}

// Engineer is a field engineer with a base location, per-weekday working
// hours, approved time off and a daily job ceiling.
type Engineer struct {
	ID              string
	Name            string
	Base            Location
	Region          string
	MaxJobsPerDay   int
	ServiceRadiusKm float64 // 0 means unlimited
	Hours           map[time.Weekday]DayWindow
	TimeOff         []TimeOffRange
}

// WorkingWindow returns the working hours for the given date, or a zero
// window when the engineer does not work that weekday.
func (e Engineer) WorkingWindow(date time.Time) DayWindow {
	return e.Hours[date.Weekday()]
}

// OnTimeOff reports whether the engineer has approved time off on date.
func (e Engineer) OnTimeOff(date time.Time) bool {
	for _, r := range e.TimeOff {
		if r.Contains(date) {
			return true
		}
	}
	return false
}

// Validate checks that the engineer configuration is sound.
func (e Engineer) Validate() error {
	if e.ID == "" {
		return fmt.Errorf("engineer id is required")
	}
	if e.MaxJobsPerDay <= 0 {
		return fmt.Errorf("engineer %s: max jobs per day must be positive", e.ID)
	}
	return nil
}
