package model

import "time"

// TravelSource tags the provenance of a travel estimate.
type TravelSource int

const (
	TravelLive TravelSource = iota
	TravelRegional
	TravelDefault
)

// String returns a human-readable representation of the travel source.
func (s TravelSource) String() string {
	switch s {
	case TravelLive:
		return "live"
	case TravelRegional:
		return "regional"
	case TravelDefault:
		return "default"
	default:
		return "unknown"
	}
}

// Candidate is a scored (engineer, date) pairing for a job.
type Candidate struct {
	Engineer      *Engineer
	Date          time.Time
	DistanceKm    float64
	TravelMinutes int
	Score         float64
	Reasons       []string
	Source        TravelSource
}

// Key returns the engineer-day this candidate occupies.
func (c Candidate) Key() DayKey {
	return NewDayKey(c.Engineer.ID, c.Date)
}
