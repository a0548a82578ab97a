// Package metrics defines the sink interfaces batch runs record into.
// Adapters live in infra/metrics.
package metrics

import "time"

// BatchRecord is one per-job outcome of a batch scheduling run.
type BatchRecord struct {
	RunID         string
	JobID         string
	EngineerID    string
	Date          time.Time
	Score         float64
	DistanceKm    float64
	TravelMinutes int
	Status        string
	Reason        string
	Time          time.Time
}

// Sink records batch outcomes for observability purposes.
type Sink interface {
	RecordBatch(records []BatchRecord) error
}

// RunSummary aggregates one batch run.
type RunSummary struct {
	RunID       string
	Jobs        int
	Scheduled   int
	Unscheduled int
	SuccessRate float64
	Elapsed     time.Duration
	Time        time.Time
}

// SummaryRecorder optionally records run-level aggregates.
type SummaryRecorder interface {
	RecordRunSummary(s RunSummary) error
}

// NopSink discards all records.
type NopSink struct{}

func (NopSink) RecordBatch([]BatchRecord) error   { return nil }
func (NopSink) RecordRunSummary(RunSummary) error { return nil }
