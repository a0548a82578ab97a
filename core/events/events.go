// Package events defines the typed events published on the internal bus
// during a batch scheduling run. Subscribers (status displays, audit
// recorders) consume these without coupling to the orchestrator.
package events

import (
	"time"

	"github.com/dispatchlab/fieldsched/core/model"
)

// BatchStartedEvent is published once the bulk load completed.
type BatchStartedEvent struct {
	RunID     string
	Jobs      int
	Engineers int
	Time      time.Time
}

// ProposalEvent is published when a job is reserved against an engineer-day.
type ProposalEvent struct {
	RunID      string
	JobID      string
	EngineerID string
	Date       time.Time
	Score      float64
}

// UnscheduledEvent is published when a job exhausts its candidates.
type UnscheduledEvent struct {
	RunID  string
	JobID  string
	Reason model.Reason
	Detail string
}

// PreflightEvent is published per proposal during re-validation.
type PreflightEvent struct {
	RunID   string
	JobID   string
	OK      bool
	Reason  model.Reason
	Message string
}

// OfferAttemptEvent is published per delivery attempt during submission.
type OfferAttemptEvent struct {
	RunID      string
	JobID      string
	EngineerID string
	Fallback   bool
	OK         bool
	Err        error
}

// BatchCompletedEvent closes a run.
type BatchCompletedEvent struct {
	RunID       string
	Scheduled   int
	Unscheduled int
	Elapsed     time.Duration
}
