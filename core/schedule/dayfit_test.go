package schedule

import (
	"strings"
	"testing"
	"time"

	"github.com/dispatchlab/fieldsched/core/model"
)

func testEngineer(id string, maxJobs int) *model.Engineer {
	hours := make(map[time.Weekday]model.DayWindow)
	for d := time.Sunday; d <= time.Saturday; d++ {
		hours[d] = model.DayWindow{StartMin: 8 * 60, EndMin: 17 * 60} // 540m span
	}
	return &model.Engineer{
		ID:            id,
		Name:          "Engineer " + id,
		MaxJobsPerDay: maxJobs,
		Hours:         hours,
	}
}

func TestDayFit_Evaluate(t *testing.T) {
	eng := testEngineer("e1", 3)
	date := day(t, "2026-03-04")
	fit := DayFit{LeniencyMinutes: 30}

	tests := []struct {
		name      string
		job       model.Job
		committed model.DayLoad
		reserved  []ReservedJob
		wantOK    bool
		wantCause FitCause
		wantText  string
	}{
		{
			name:   "fits empty day",
			job:    model.Job{ID: "j1", DurationMinutes: 120},
			wantOK: true,
		},
		{
			name:      "fits with committed and reserved work",
			job:       model.Job{ID: "j1", DurationMinutes: 120},
			committed: model.DayLoad{Jobs: 1, Minutes: 240},
			reserved:  []ReservedJob{{JobID: "j2", Minutes: 180}},
			wantOK:    true,
		},
		{
			name:      "leniency absorbs a small overrun",
			job:       model.Job{ID: "j1", DurationMinutes: 120},
			committed: model.DayLoad{Jobs: 1, Minutes: 450},
			wantOK:    true,
		},
		{
			name:      "rejects past leniency",
			job:       model.Job{ID: "j1", DurationMinutes: 200},
			committed: model.DayLoad{Jobs: 1, Minutes: 400},
			wantOK:    false,
			wantCause: FitOverHours,
			wantText:  "exceeds working hours by 30m",
		},
		{
			name:      "rejects at job count ceiling",
			job:       model.Job{ID: "j1", DurationMinutes: 30},
			committed: model.DayLoad{Jobs: 2, Minutes: 120},
			reserved:  []ReservedJob{{JobID: "j2", Minutes: 30}},
			wantOK:    false,
			wantCause: FitAtJobCount,
			wantText:  "at max job count (3/3)",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			res := fit.Evaluate(eng, date, tc.job, tc.committed, tc.reserved)
			if res.OK != tc.wantOK {
				t.Fatalf("OK = %v, want %v (reasons: %v)", res.OK, tc.wantOK, res.Reasons)
			}
			if res.Cause != tc.wantCause {
				t.Fatalf("cause = %v, want %v", res.Cause, tc.wantCause)
			}
			if tc.wantText != "" {
				joined := strings.Join(res.Reasons, "; ")
				if !strings.Contains(joined, tc.wantText) {
					t.Fatalf("reasons %q missing %q", joined, tc.wantText)
				}
			}
		})
	}
}

func TestDayFit_NoWorkingHours(t *testing.T) {
	eng := testEngineer("e1", 3)
	eng.Hours = map[time.Weekday]model.DayWindow{time.Monday: {StartMin: 480, EndMin: 1020}}

	// 2026-03-04 is a Wednesday.
	res := DayFit{}.Evaluate(eng, day(t, "2026-03-04"), model.Job{ID: "j1", DurationMinutes: 60}, model.DayLoad{}, nil)
	if res.OK || res.Cause != FitNoWindow {
		t.Fatalf("expected no-window rejection, got %+v", res)
	}
}
