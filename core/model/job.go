package model

import (
	"fmt"
	"time"
)

// Job is an installation or service task awaiting an engineer and a date.
// Jobs are read-only inputs to the scheduling engine; assignment fields are
// written through the authoritative store only when an offer is committed.
type Job struct {
	ID              string
	ClientRef       string
	Type            string
	Site            Location
	Region          string
	DurationMinutes int
}

// Validate checks that the job can be evaluated at all.
func (j Job) Validate() error {
	if j.ID == "" {
		return fmt.Errorf("job id is required")
	}
	if j.DurationMinutes <= 0 {
		return fmt.Errorf("job %s: duration must be positive", j.ID)
	}
	return nil
}

// DayKey identifies one engineer-day, the unit of capacity accounting.
type DayKey struct {
	EngineerID string
	Date       string // YYYY-MM-DD
}

// NewDayKey builds a DayKey from an engineer id and a calendar date.
func NewDayKey(engineerID string, date time.Time) DayKey {
	return DayKey{EngineerID: engineerID, Date: date.Format("2006-01-02")}
}

func (k DayKey) String() string {
	return k.EngineerID + "@" + k.Date
}

// DayLoad is the committed workload on one engineer-day.
type DayLoad struct {
	Jobs    int
	Minutes int
}

// Add returns the load with one job of the given duration added.
func (d DayLoad) Add(minutes int) DayLoad {
	return DayLoad{Jobs: d.Jobs + 1, Minutes: d.Minutes + minutes}
}
