package schedule

import (
	"fmt"
	"time"

	"github.com/dispatchlab/fieldsched/core/model"
)

// ReservedJob is a job holding a virtual reservation on an engineer-day.
type ReservedJob struct {
	JobID   string
	Minutes int
}

// FitCause classifies why a day rejected a job.
type FitCause int

const (
	FitOK FitCause = iota
	FitAtJobCount
	FitNoWindow
	FitOverHours
)

// FitResult is the outcome of a day-fit evaluation.
type FitResult struct {
	OK      bool
	Cause   FitCause
	Reasons []string
}

// DayFit decides whether a job fits an engineer's day given everything
// already committed or virtually reserved on it. LeniencyMinutes allows a
// configurable overrun past the working-hours span before a day is rejected.
type DayFit struct {
	LeniencyMinutes int
}

// Evaluate checks the job-count ceiling first, then the duration sum against
// the working window. committed is the authoritative load for the day and
// reserved the virtual jobs from the current run.
func (f DayFit) Evaluate(eng *model.Engineer, date time.Time, job model.Job, committed model.DayLoad, reserved []ReservedJob) FitResult {
	var reasons []string

	total := committed.Jobs + len(reserved)
	if total >= eng.MaxJobsPerDay {
		reasons = append(reasons, fmt.Sprintf("at max job count (%d/%d)", total, eng.MaxJobsPerDay))
		return FitResult{OK: false, Cause: FitAtJobCount, Reasons: reasons}
	}

	window := eng.WorkingWindow(date)
	span := window.SpanMinutes()
	if span == 0 {
		reasons = append(reasons, fmt.Sprintf("no working hours on %s", date.Weekday()))
		return FitResult{OK: false, Cause: FitNoWindow, Reasons: reasons}
	}

	minutes := committed.Minutes + job.DurationMinutes
	for _, r := range reserved {
		minutes += r.Minutes
	}
	if limit := span + f.LeniencyMinutes; minutes > limit {
		reasons = append(reasons, fmt.Sprintf("exceeds working hours by %dm", minutes-limit))
		return FitResult{OK: false, Cause: FitOverHours, Reasons: reasons}
	}

	return FitResult{OK: true}
}
