package schedule

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/dispatchlab/fieldsched/core/availability"
	"github.com/dispatchlab/fieldsched/core/model"
	"github.com/dispatchlab/fieldsched/core/travel"
)

// Weights tunes the composite candidate score. The shape of the ranking
// (short distance and travel, light workload, short queue) is fixed; the
// numeric values are configuration, not contract.
type Weights struct {
	Distance float64 `json:"distance"`
	Travel   float64 `json:"travel"`
	Workload float64 `json:"workload"`
	Queue    float64 `json:"queue"`
}

// DefaultWeights returns the tuning used when configuration is silent.
func DefaultWeights() Weights {
	return Weights{Distance: 0.4, Travel: 0.25, Workload: 0.25, Queue: 0.1}
}

// RecommendOptions bounds the candidate search for one job.
type RecommendOptions struct {
	// Now anchors the date floor; zero means time.Now().
	Now time.Time
	// AdvanceNoticeDays is the earliest offset from Now a job may be offered.
	AdvanceNoticeDays int
	// HorizonDays bounds the date walk per engineer.
	HorizonDays int
	// MaxDatesPerEngineer stops the walk once enough dates were found.
	MaxDatesPerEngineer int
	// MaxCandidates caps the ranked result; 0 means unlimited.
	MaxCandidates int
}

// Diagnostics counts engineers excluded from a recommendation and why.
type Diagnostics struct {
	EngineersConsidered int
	ExcludedByDistance  int
	ExcludedNoDates     int
}

// Engine produces ranked (engineer, date) candidates for a job. It is a pure
// function of the job, the travel estimator and the availability snapshot:
// it never mutates the virtual ledger, so it is safe to run fully in
// parallel during a batch.
type Engine struct {
	estimator *travel.Estimator
	snap      *availability.Snapshot
	weights   Weights
}

// NewEngine creates a recommendation engine over a snapshot.
func NewEngine(estimator *travel.Estimator, snap *availability.Snapshot, weights Weights) *Engine {
	if weights == (Weights{}) {
		weights = DefaultWeights()
	}
	return &Engine{estimator: estimator, snap: snap, weights: weights}
}

// Recommend returns candidates ordered by descending score. Ties break on
// lower distance, then earlier date, then engineer id so identical inputs
// always rank identically.
func (e *Engine) Recommend(ctx context.Context, job model.Job, opts RecommendOptions) ([]model.Candidate, Diagnostics) {
	var diag Diagnostics

	now := opts.Now
	if now.IsZero() {
		now = time.Now()
	}
	floor := now.Truncate(24 * time.Hour).AddDate(0, 0, opts.AdvanceNoticeDays)
	horizon := opts.HorizonDays
	if horizon <= 0 {
		horizon = 30
	}
	maxDates := opts.MaxDatesPerEngineer
	if maxDates <= 0 {
		maxDates = 3
	}

	var out []model.Candidate
	for i := range e.snap.Engineers {
		eng := &e.snap.Engineers[i]
		diag.EngineersConsidered++

		est := e.estimator.Estimate(ctx, eng.Base, job.Site, eng.Region)
		if eng.ServiceRadiusKm > 0 && est.DistanceKm > eng.ServiceRadiusKm {
			diag.ExcludedByDistance++
			continue
		}

		found := 0
		for d := 0; d < horizon && found < maxDates; d++ {
			date := floor.AddDate(0, 0, d)
			if e.snap.Blocked(eng.ID, date) {
				continue
			}
			load := e.snap.Load(eng.ID, date)
			if load.Jobs >= eng.MaxJobsPerDay {
				continue
			}
			out = append(out, e.candidate(eng, date, job, est, load))
			found++
		}
		if found == 0 {
			diag.ExcludedNoDates++
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if a.DistanceKm != b.DistanceKm {
			return a.DistanceKm < b.DistanceKm
		}
		if !a.Date.Equal(b.Date) {
			return a.Date.Before(b.Date)
		}
		return a.Engineer.ID < b.Engineer.ID
	})
	if opts.MaxCandidates > 0 && len(out) > opts.MaxCandidates {
		out = out[:opts.MaxCandidates]
	}
	return out, diag
}

func (e *Engine) candidate(eng *model.Engineer, date time.Time, job model.Job, est travel.Estimate, load model.DayLoad) model.Candidate {
	span := eng.WorkingWindow(date).SpanMinutes()

	distScore := 1 / (1 + est.DistanceKm/10)
	travelScore := math.Exp(-float64(est.Minutes) / 60)
	workScore := 1.0
	if span > 0 {
		ratio := float64(load.Minutes) / float64(span)
		if ratio > 1 {
			ratio = 1
		}
		workScore = 1 - ratio
	}
	queuePenalty := float64(load.Jobs) / float64(eng.MaxJobsPerDay)

	w := e.weights
	score := distScore*w.Distance + travelScore*w.Travel + workScore*w.Workload - queuePenalty*w.Queue
	if score < 0 {
		score = 0
	}

	reasons := []string{
		fmt.Sprintf("%.1fkm from base (%s)", est.DistanceKm, est.Source),
		fmt.Sprintf("~%dm travel", est.Minutes),
	}
	if load.Jobs > 0 {
		reasons = append(reasons, fmt.Sprintf("%d job(s) already committed that day", load.Jobs))
	} else {
		reasons = append(reasons, "no committed work that day")
	}

	return model.Candidate{
		Engineer:      eng,
		Date:          date,
		DistanceKm:    est.DistanceKm,
		TravelMinutes: est.Minutes,
		Score:         score,
		Reasons:       reasons,
		Source:        est.Source,
	}
}
