// Package logging persists batch run records for audit and the offers CLI.
package logging

import (
	"context"
	"time"
)

// ProposalRecord is one scheduled job inside a run record.
type ProposalRecord struct {
	JobID      string    `json:"job_id"`
	EngineerID string    `json:"engineer_id"`
	Date       time.Time `json:"date"`
	Score      float64   `json:"score"`
	Status     string    `json:"status"`
	Message    string    `json:"message,omitempty"`
	OfferID    string    `json:"offer_id,omitempty"`
}

// UnscheduledRecord is one job without a proposal.
type UnscheduledRecord struct {
	JobID  string `json:"job_id"`
	Reason string `json:"reason"`
	Detail string `json:"detail"`
}

// RunRecord captures one batch scheduling run end to end.
type RunRecord struct {
	RunID       string              `json:"run_id"`
	Timestamp   time.Time           `json:"timestamp"`
	Jobs        int                 `json:"jobs"`
	Scheduled   int                 `json:"scheduled"`
	Unscheduled int                 `json:"unscheduled"`
	SuccessRate float64             `json:"success_rate"`
	Proposals   []ProposalRecord    `json:"proposals"`
	Skipped     []UnscheduledRecord `json:"skipped"`
}

// RunQuery defines filters for retrieving records.
type RunQuery struct {
	Start time.Time
	End   time.Time
	RunID string
	Limit int
}

// RunStore persists RunRecords and supports querying.
type RunStore interface {
	Append(ctx context.Context, rec RunRecord) error
	Query(ctx context.Context, q RunQuery) ([]RunRecord, error)
	Close() error
}
