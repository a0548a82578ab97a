package model

import (
	"testing"
	"time"
)

func TestParseClock(t *testing.T) {
	tests := []struct {
		in      string
		want    int
		wantErr bool
	}{
		{"08:00", 480, false},
		{"17:30", 1050, false},
		{"00:00", 0, false},
		{"23:59", 1439, false},
		{"24:00", 0, true},
		{"12:60", 0, true},
		{"noon", 0, true},
	}
	for _, tc := range tests {
		got, err := ParseClock(tc.in)
		if tc.wantErr {
			if err == nil {
				t.Fatalf("ParseClock(%q) should fail", tc.in)
			}
			continue
		}
		if err != nil || got != tc.want {
			t.Fatalf("ParseClock(%q) = %d, %v; want %d", tc.in, got, err, tc.want)
		}
	}
}

func TestDayWindow(t *testing.T) {
	w := DayWindow{StartMin: 480, EndMin: 1020}
	if w.SpanMinutes() != 540 {
		t.Fatalf("span = %d, want 540", w.SpanMinutes())
	}
	if w.String() != "08:00-17:00" {
		t.Fatalf("string = %q", w.String())
	}
	if (DayWindow{StartMin: 600, EndMin: 600}).SpanMinutes() != 0 {
		t.Fatal("inverted or empty window must have zero span")
	}
}

func TestEngineerWorkingWindowAndTimeOff(t *testing.T) {
	mon := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	sun := time.Date(2026, 3, 8, 0, 0, 0, 0, time.UTC)

	e := Engineer{
		ID:            "e1",
		MaxJobsPerDay: 2,
		Hours: map[time.Weekday]DayWindow{
			time.Monday: {StartMin: 480, EndMin: 1020},
		},
		TimeOff: []TimeOffRange{{
			From: time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC),
			To:   time.Date(2026, 3, 13, 0, 0, 0, 0, time.UTC),
		}},
	}

	if e.WorkingWindow(mon).SpanMinutes() != 540 {
		t.Fatal("expected Monday window")
	}
	if e.WorkingWindow(sun).SpanMinutes() != 0 {
		t.Fatal("unstaffed weekday must yield a zero window")
	}

	// Boundaries are inclusive, and the time of day is ignored.
	inside := time.Date(2026, 3, 9, 15, 30, 0, 0, time.UTC)
	if !e.OnTimeOff(inside) {
		t.Fatal("first day of time off should count")
	}
	if !e.OnTimeOff(time.Date(2026, 3, 13, 0, 0, 0, 0, time.UTC)) {
		t.Fatal("last day of time off should count")
	}
	if e.OnTimeOff(time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC)) {
		t.Fatal("day after time off should not count")
	}
}

func TestEngineerValidate(t *testing.T) {
	if err := (Engineer{ID: "e1", MaxJobsPerDay: 1}).Validate(); err != nil {
		t.Fatalf("valid engineer rejected: %v", err)
	}
	if err := (Engineer{MaxJobsPerDay: 1}).Validate(); err == nil {
		t.Fatal("missing id should fail")
	}
	if err := (Engineer{ID: "e1"}).Validate(); err == nil {
		t.Fatal("zero job ceiling should fail")
	}
}
