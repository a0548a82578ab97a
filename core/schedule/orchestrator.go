package schedule

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/stat"

	"github.com/dispatchlab/fieldsched/core/availability"
	"github.com/dispatchlab/fieldsched/core/events"
	"github.com/dispatchlab/fieldsched/core/logger"
	coremetrics "github.com/dispatchlab/fieldsched/core/metrics"
	"github.com/dispatchlab/fieldsched/core/model"
	"github.com/dispatchlab/fieldsched/core/store"
	"github.com/dispatchlab/fieldsched/core/travel"
	"github.com/dispatchlab/fieldsched/internal/eventbus"
)

// Orchestrator runs batch scheduling: bulk-load once, evaluate jobs in
// bounded concurrent groups against the virtual ledger, and classify every
// job into a proposal or an unscheduled entry.
type Orchestrator struct {
	store     store.Store
	estimator *travel.Estimator
	cfg       Config
	log       logger.Logger
	bus       eventbus.EventBus
	sink      coremetrics.Sink
}

// RunOptions parameterizes one batch run.
type RunOptions struct {
	// Jobs overrides the pending-job query; empty loads from the store.
	Jobs []model.Job
	// Now anchors the date floor; zero means time.Now().
	Now time.Time
}

// NewOrchestrator creates a batch orchestrator. bus and sink may be nil.
func NewOrchestrator(st store.Store, estimator *travel.Estimator, cfg Config, log logger.Logger, bus eventbus.EventBus, sink coremetrics.Sink) (*Orchestrator, error) {
	if st == nil || estimator == nil || log == nil {
		return nil, fmt.Errorf("schedule: nil parameter provided to NewOrchestrator")
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Orchestrator{
		store:     st,
		estimator: estimator,
		cfg:       cfg,
		log:       log,
		bus:       bus,
		sink:      sink,
	}, nil
}

type jobOutcome struct {
	proposal    *model.Proposal
	unscheduled *model.UnscheduledEntry
}

// Run evaluates the jobs and returns the batch result. Only bulk-load
// failures and cancellation abort the run; per-job failures surface as
// unscheduled entries. A cancelled run discards all state — nothing was
// ever externally visible.
func (o *Orchestrator) Run(ctx context.Context, opts RunOptions) (*BatchResult, error) {
	start := time.Now()
	runID := uuid.NewString()

	now := opts.Now
	if now.IsZero() {
		now = time.Now()
	}

	jobs := opts.Jobs
	if len(jobs) == 0 {
		var err error
		jobs, err = o.store.PendingJobs(ctx)
		if err != nil {
			return nil, fmt.Errorf("load pending jobs: %w", err)
		}
	}

	snap, err := availability.Build(ctx, o.store, now, o.cfg.AdvanceNoticeDays+o.cfg.HorizonDays)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("batch run cancelled: %w", err)
	}

	o.log.Infof("batch %s: %d jobs, %d engineers", runID, len(jobs), len(snap.Engineers))
	o.publish(events.BatchStartedEvent{RunID: runID, Jobs: len(jobs), Engineers: len(snap.Engineers), Time: now})

	engine := NewEngine(o.estimator, snap, o.cfg.Weights)
	ledger := NewLedger()
	dayfit := DayFit{LeniencyMinutes: o.cfg.LeniencyMinutes}

	outcomes := make([]jobOutcome, len(jobs))
	for g := 0; g < len(jobs); g += o.cfg.Concurrency {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("batch run cancelled: %w", err)
		}
		end := g + o.cfg.Concurrency
		if end > len(jobs) {
			end = len(jobs)
		}
		var wg sync.WaitGroup
		for i := g; i < end; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				outcomes[i] = o.evaluate(ctx, runID, engine, ledger, snap, dayfit, now, jobs[i])
			}(i)
		}
		wg.Wait()
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("batch run cancelled: %w", err)
	}

	result := &BatchResult{RunID: runID, ledger: ledger, snap: snap, dayfit: dayfit}
	for _, oc := range outcomes {
		switch {
		case oc.proposal != nil:
			result.Proposals = append(result.Proposals, oc.proposal)
		case oc.unscheduled != nil:
			result.Unscheduled = append(result.Unscheduled, *oc.unscheduled)
		}
	}
	result.Summary = o.summarize(result, len(jobs), time.Since(start))

	o.recordRun(result, now)
	o.publish(events.BatchCompletedEvent{
		RunID:       runID,
		Scheduled:   result.Summary.Scheduled,
		Unscheduled: result.Summary.Unscheduled,
		Elapsed:     result.Summary.Elapsed,
	})
	o.log.Infof("batch %s: %d scheduled, %d unscheduled (%.0f%% success)",
		runID, result.Summary.Scheduled, result.Summary.Unscheduled, result.Summary.SuccessRate*100)
	return result, nil
}

// evaluate walks one job's ranked candidates against the ledger. The fit
// check and the reservation happen inside one ledger critical section.
func (o *Orchestrator) evaluate(ctx context.Context, runID string, engine *Engine, ledger *Ledger, snap *availability.Snapshot, dayfit DayFit, now time.Time, job model.Job) jobOutcome {
	if err := job.Validate(); err != nil {
		o.publish(events.UnscheduledEvent{RunID: runID, JobID: job.ID, Reason: model.NoCandidates, Detail: err.Error()})
		return unscheduled(job, model.NoCandidates, err.Error())
	}

	cands, diag := engine.Recommend(ctx, job, RecommendOptions{
		Now:                 now,
		AdvanceNoticeDays:   o.cfg.AdvanceNoticeDays,
		HorizonDays:         o.cfg.HorizonDays,
		MaxDatesPerEngineer: o.cfg.MaxDatesPerEngineer,
		MaxCandidates:       o.cfg.MaxCandidates,
	})
	candidatesEvaluated.Observe(float64(len(cands)))
	if len(cands) == 0 {
		detail := fmt.Sprintf("no engineer/date found (%d considered, %d out of range, %d without open days)",
			diag.EngineersConsidered, diag.ExcludedByDistance, diag.ExcludedNoDates)
		o.publish(events.UnscheduledEvent{RunID: runID, JobID: job.ID, Reason: model.NoCandidates, Detail: detail})
		return unscheduled(job, model.NoCandidates, detail)
	}

	var countRejects, fitRejects int
	var lastReasons []string
	for idx, cand := range cands {
		key := cand.Key()
		committed := snap.LoadKey(key)
		var fit FitResult
		ok, err := ledger.TryReserve(key, ReservedJob{JobID: job.ID, Minutes: job.DurationMinutes}, func(reserved []ReservedJob) bool {
			fit = dayfit.Evaluate(cand.Engineer, cand.Date, job, committed, reserved)
			return fit.OK
		})
		if err != nil {
			o.log.Errorf("job %s: reserve on %s: %v", job.ID, key, err)
			continue
		}
		if !ok {
			if fit.Cause == FitAtJobCount {
				countRejects++
			} else {
				fitRejects++
			}
			lastReasons = fit.Reasons
			continue
		}

		// Keep the best-ranked non-selected candidates as ordered
		// fallbacks, capped so submission retries stay bounded.
		alternatives := make([]model.Candidate, 0, o.cfg.MinAlternatives)
		for j, alt := range cands {
			if j == idx {
				continue
			}
			if len(alternatives) == o.cfg.MinAlternatives {
				break
			}
			alternatives = append(alternatives, alt)
		}
		o.publish(events.ProposalEvent{
			RunID:      runID,
			JobID:      job.ID,
			EngineerID: cand.Engineer.ID,
			Date:       cand.Date,
			Score:      cand.Score,
		})
		return jobOutcome{proposal: &model.Proposal{
			Job:          job,
			Selected:     cand,
			Primary:      cand,
			Alternatives: alternatives,
			Status:       model.StatusReady,
		}}
	}

	reason := model.CapacityExceeded
	detail := fmt.Sprintf("all %d candidates at declared capacity", len(cands))
	if fitRejects > 0 {
		reason = model.DayFitViolation
		detail = fmt.Sprintf("duration does not fit any open window (%d tried)", len(cands))
		if len(lastReasons) > 0 {
			detail += ": " + strings.Join(lastReasons, "; ")
		}
	}
	oc := unscheduled(job, reason, detail)
	o.publish(events.UnscheduledEvent{RunID: runID, JobID: job.ID, Reason: reason, Detail: detail})
	return oc
}

func unscheduled(job model.Job, reason model.Reason, detail string) jobOutcome {
	return jobOutcome{unscheduled: &model.UnscheduledEntry{Job: job, Reason: reason, Detail: detail}}
}

func (o *Orchestrator) summarize(result *BatchResult, jobs int, elapsed time.Duration) Summary {
	s := Summary{
		Jobs:                jobs,
		Scheduled:           len(result.Proposals),
		Unscheduled:         len(result.Unscheduled),
		UnscheduledByReason: make(map[string]int),
		Elapsed:             elapsed,
	}
	if jobs > 0 {
		s.SuccessRate = float64(s.Scheduled) / float64(jobs)
	}
	for _, u := range result.Unscheduled {
		s.UnscheduledByReason[u.Reason.String()]++
	}
	if len(result.Proposals) > 0 {
		scores := make([]float64, len(result.Proposals))
		dists := make([]float64, len(result.Proposals))
		for i, p := range result.Proposals {
			scores[i] = p.Selected.Score
			dists[i] = p.Selected.DistanceKm
		}
		s.ScoreMean = stat.Mean(scores, nil)
		s.DistanceMeanKm = stat.Mean(dists, nil)
		if len(scores) > 1 {
			s.ScoreStdDev = stat.StdDev(scores, nil)
			s.DistanceStdDevKm = stat.StdDev(dists, nil)
		}
	}
	return s
}

func (o *Orchestrator) recordRun(result *BatchResult, now time.Time) {
	jobsScheduled.Add(float64(result.Summary.Scheduled))
	for reason, n := range result.Summary.UnscheduledByReason {
		jobsUnscheduled.WithLabelValues(reason).Add(float64(n))
	}
	batchDuration.Observe(result.Summary.Elapsed.Seconds())

	if o.sink == nil {
		return
	}
	recs := make([]coremetrics.BatchRecord, 0, len(result.Proposals)+len(result.Unscheduled))
	for _, p := range result.Proposals {
		recs = append(recs, coremetrics.BatchRecord{
			RunID:         result.RunID,
			JobID:         p.Job.ID,
			EngineerID:    p.Selected.Engineer.ID,
			Date:          p.Selected.Date,
			Score:         p.Selected.Score,
			DistanceKm:    p.Selected.DistanceKm,
			TravelMinutes: p.Selected.TravelMinutes,
			Status:        p.Status.String(),
			Time:          now,
		})
	}
	for _, u := range result.Unscheduled {
		recs = append(recs, coremetrics.BatchRecord{
			RunID:  result.RunID,
			JobID:  u.Job.ID,
			Status: "unscheduled",
			Reason: u.Reason.String(),
			Time:   now,
		})
	}
	if err := o.sink.RecordBatch(recs); err != nil {
		o.log.Errorf("metrics sink error: %v", err)
	}
	if sr, ok := o.sink.(coremetrics.SummaryRecorder); ok {
		err := sr.RecordRunSummary(coremetrics.RunSummary{
			RunID:       result.RunID,
			Jobs:        result.Summary.Jobs,
			Scheduled:   result.Summary.Scheduled,
			Unscheduled: result.Summary.Unscheduled,
			SuccessRate: result.Summary.SuccessRate,
			Elapsed:     result.Summary.Elapsed,
			Time:        now,
		})
		if err != nil {
			o.log.Errorf("summary sink error: %v", err)
		}
	}
}

func (o *Orchestrator) publish(e eventbus.Event) {
	if o.bus != nil {
		o.bus.Publish(e)
	}
}
