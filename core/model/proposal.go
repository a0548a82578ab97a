package model

import (
	"fmt"
	"time"
)

// ProposalStatus tracks a proposal through preflight and submission.
type ProposalStatus int

const (
	StatusReady ProposalStatus = iota
	StatusPreflightChecking
	StatusPreflightFailed
	StatusSending
	StatusSent
	StatusFailed
)

// String returns a human-readable representation of the status.
func (s ProposalStatus) String() string {
	switch s {
	case StatusReady:
		return "ready"
	case StatusPreflightChecking:
		return "preflight_checking"
	case StatusPreflightFailed:
		return "preflight_failed"
	case StatusSending:
		return "sending"
	case StatusSent:
		return "sent"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

var allowedTransitions = map[ProposalStatus][]ProposalStatus{
	StatusReady:             {StatusPreflightChecking, StatusSending},
	StatusPreflightChecking: {StatusPreflightFailed, StatusReady},
	StatusPreflightFailed:   {StatusReady},
	StatusSending:           {StatusSent, StatusFailed},
}

// Proposal is a job with a selected candidate, the original primary choice
// and an ordered list of fallback alternatives.
type Proposal struct {
	Job          Job
	Selected     Candidate
	Primary      Candidate
	Alternatives []Candidate
	Status       ProposalStatus
	Message      string
	SentOffer    *Offer
}

// Transition advances the proposal status, rejecting moves the lifecycle
// does not allow. Terminal states never move.
func (p *Proposal) Transition(to ProposalStatus) error {
	for _, ok := range allowedTransitions[p.Status] {
		if ok == to {
			p.Status = to
			return nil
		}
	}
	return fmt.Errorf("proposal %s: illegal status transition %s -> %s", p.Job.ID, p.Status, to)
}

// Reason classifies why a job could not be scheduled or committed.
type Reason int

const (
	NoCandidates Reason = iota
	CapacityExceeded
	DayFitViolation
	PreflightDrift
	SubmissionExhausted
	Cancelled
)

// String returns a stable identifier for the reason.
func (r Reason) String() string {
	switch r {
	case NoCandidates:
		return "no_candidates"
	case CapacityExceeded:
		return "capacity_exceeded"
	case DayFitViolation:
		return "day_fit_violation"
	case PreflightDrift:
		return "preflight_drift"
	case SubmissionExhausted:
		return "submission_exhausted"
	case Cancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// UnscheduledEntry records a job for which no candidate satisfied the
// constraints, with the specific cause.
type UnscheduledEntry struct {
	Job    Job
	Reason Reason
	Detail string
}

// Offer is a time-bound proposal delivered externally to a client.
type Offer struct {
	ID         string
	JobID      string
	EngineerID string
	Date       time.Time
	TimeWindow string
	Channel    string
}

// ActivityEntry is one line of the authoritative activity log.
type ActivityEntry struct {
	ID         string
	JobID      string
	EngineerID string
	Kind       string
	Detail     string
	Time       time.Time
}
