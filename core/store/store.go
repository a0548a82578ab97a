// Package store defines the authoritative data store consumed by the
// scheduling engine. The engine only reads baseline data through it and
// writes offers, bookings and activity entries at commit time.
package store

import (
	"context"
	"time"

	"github.com/dispatchlab/fieldsched/core/model"
)

// Reader exposes the baseline data a batch run needs.
type Reader interface {
	// Engineers returns all active engineers with availability windows,
	// time off and capacity limits resolved.
	Engineers(ctx context.Context) ([]model.Engineer, error)
	// PendingJobs returns jobs awaiting assignment.
	PendingJobs(ctx context.Context) ([]model.Job, error)
	// DayLoads returns committed workload per engineer-day over [from, to].
	DayLoads(ctx context.Context, from, to time.Time) (map[model.DayKey]model.DayLoad, error)
}

// Writer persists externally visible scheduling outcomes.
type Writer interface {
	CreateOffer(ctx context.Context, offer model.Offer) error
	// UpdateJobSchedule books a job directly onto an engineer-day.
	UpdateJobSchedule(ctx context.Context, jobID, engineerID string, date time.Time) error
	AppendActivity(ctx context.Context, entry model.ActivityEntry) error
}

// Store combines the read and write halves.
type Store interface {
	Reader
	Writer
}
