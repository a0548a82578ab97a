// Package availability bulk-precomputes engineer workload and working-hour
// data for a date horizon so candidate evaluation does O(1) lookups instead
// of per-candidate store queries. Total I/O per run is O(engineers + jobs).
package availability

import (
	"context"
	"fmt"
	"time"

	"github.com/dispatchlab/fieldsched/core/model"
	"github.com/dispatchlab/fieldsched/core/store"
)

// Snapshot is a point-in-time view of committed workload and availability
// for a set of engineers over a horizon. It is immutable after Build and
// safe for concurrent readers.
type Snapshot struct {
	From      time.Time
	To        time.Time
	Engineers []model.Engineer

	byID  map[string]*model.Engineer
	loads map[model.DayKey]model.DayLoad
}

// Build loads engineers and committed day loads once from the store and
// returns a snapshot covering horizonDays starting at from.
func Build(ctx context.Context, r store.Reader, from time.Time, horizonDays int) (*Snapshot, error) {
	if horizonDays <= 0 {
		horizonDays = 90
	}
	from = from.Truncate(24 * time.Hour)
	to := from.AddDate(0, 0, horizonDays)

	engineers, err := r.Engineers(ctx)
	if err != nil {
		return nil, fmt.Errorf("load engineers: %w", err)
	}
	loads, err := r.DayLoads(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("load day workloads: %w", err)
	}

	snap := &Snapshot{
		From:      from,
		To:        to,
		Engineers: engineers,
		byID:      make(map[string]*model.Engineer, len(engineers)),
		loads:     loads,
	}
	for i := range snap.Engineers {
		snap.byID[snap.Engineers[i].ID] = &snap.Engineers[i]
	}
	return snap, nil
}

// Engineer resolves an engineer by id.
func (s *Snapshot) Engineer(id string) (*model.Engineer, bool) {
	e, ok := s.byID[id]
	return e, ok
}

// Load returns the committed workload for an engineer-day.
func (s *Snapshot) Load(engineerID string, date time.Time) model.DayLoad {
	return s.loads[model.NewDayKey(engineerID, date)]
}

// LoadKey returns the committed workload for a prebuilt key.
func (s *Snapshot) LoadKey(key model.DayKey) model.DayLoad {
	return s.loads[key]
}

// Blocked reports whether the engineer cannot take work on date: time off,
// or no working window that weekday.
func (s *Snapshot) Blocked(engineerID string, date time.Time) bool {
	e, ok := s.byID[engineerID]
	if !ok {
		return true
	}
	if e.OnTimeOff(date) {
		return true
	}
	return e.WorkingWindow(date).SpanMinutes() == 0
}

// Window returns the working window of an engineer on date.
func (s *Snapshot) Window(engineerID string, date time.Time) model.DayWindow {
	e, ok := s.byID[engineerID]
	if !ok {
		return model.DayWindow{}
	}
	return e.WorkingWindow(date)
}
