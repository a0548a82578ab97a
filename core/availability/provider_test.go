package availability

import (
	"context"
	"testing"
	"time"

	"github.com/dispatchlab/fieldsched/core/model"
	"github.com/dispatchlab/fieldsched/core/store"
)

func fullWeekHours() map[time.Weekday]model.DayWindow {
	hours := make(map[time.Weekday]model.DayWindow)
	for d := time.Sunday; d <= time.Saturday; d++ {
		hours[d] = model.DayWindow{StartMin: 480, EndMin: 1020}
	}
	return hours
}

func TestBuild(t *testing.T) {
	st := store.NewMemoryStore()
	st.AddEngineer(model.Engineer{ID: "e1", MaxJobsPerDay: 2, Hours: fullWeekHours()})

	now := time.Date(2026, 3, 2, 10, 30, 0, 0, time.UTC)
	busy := time.Date(2026, 3, 5, 0, 0, 0, 0, time.UTC)
	st.SetDayLoad(model.NewDayKey("e1", busy), model.DayLoad{Jobs: 1, Minutes: 180})

	// Outside the horizon, must not be loaded.
	st.SetDayLoad(model.NewDayKey("e1", busy.AddDate(0, 0, 60)), model.DayLoad{Jobs: 2, Minutes: 500})

	snap, err := Build(context.Background(), st, now, 30)
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	if _, ok := snap.Engineer("e1"); !ok {
		t.Fatal("engineer missing from snapshot")
	}
	if _, ok := snap.Engineer("ghost"); ok {
		t.Fatal("unknown engineer resolved")
	}

	if load := snap.Load("e1", busy); load.Jobs != 1 || load.Minutes != 180 {
		t.Fatalf("load = %+v", load)
	}
	if load := snap.Load("e1", busy.AddDate(0, 0, 1)); load.Jobs != 0 {
		t.Fatalf("empty day should have zero load, got %+v", load)
	}
	if load := snap.Load("e1", busy.AddDate(0, 0, 60)); load.Jobs != 0 {
		t.Fatal("loads outside the horizon leaked into the snapshot")
	}

	if snap.Window("e1", busy).SpanMinutes() != 540 {
		t.Fatal("window lookup should reflect engineer hours")
	}
}

func TestBlocked(t *testing.T) {
	st := store.NewMemoryStore()
	hours := fullWeekHours()
	delete(hours, time.Saturday)
	st.AddEngineer(model.Engineer{
		ID:            "e1",
		MaxJobsPerDay: 2,
		Hours:         hours,
		TimeOff: []model.TimeOffRange{{
			From: time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC),
			To:   time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC),
		}},
	})

	now := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	snap, err := Build(context.Background(), st, now, 30)
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	if snap.Blocked("e1", time.Date(2026, 3, 4, 0, 0, 0, 0, time.UTC)) {
		t.Fatal("regular working day should not be blocked")
	}
	if !snap.Blocked("e1", time.Date(2026, 3, 7, 0, 0, 0, 0, time.UTC)) {
		t.Fatal("unstaffed Saturday should be blocked")
	}
	if !snap.Blocked("e1", time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC)) {
		t.Fatal("time off should block the day")
	}
	if !snap.Blocked("ghost", now) {
		t.Fatal("unknown engineer is always blocked")
	}
}
