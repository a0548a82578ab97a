package schedule

import (
	"fmt"
	"time"

	"github.com/dispatchlab/fieldsched/core/availability"
	"github.com/dispatchlab/fieldsched/core/model"
)

// Summary aggregates a batch run for display and logging.
type Summary struct {
	Jobs                int
	Scheduled           int
	Unscheduled         int
	SuccessRate         float64
	UnscheduledByReason map[string]int
	ScoreMean           float64
	ScoreStdDev         float64
	DistanceMeanKm      float64
	DistanceStdDevKm    float64
	Elapsed             time.Duration
}

// BatchResult is the outcome of one batch scheduling run. It keeps the
// virtual ledger and availability snapshot alive so fallback switches and
// preflight can operate on the same run state; everything is discarded when
// the batch session ends.
type BatchResult struct {
	RunID       string
	Proposals   []*model.Proposal
	Unscheduled []model.UnscheduledEntry
	Summary     Summary

	ledger *Ledger
	snap   *availability.Snapshot
	dayfit DayFit
}

// LedgerSnapshot returns a read-only view of the virtual reservations, e.g.
// for displaying in-batch capacity.
func (r *BatchResult) LedgerSnapshot() map[model.DayKey]LedgerEntry {
	return r.ledger.Snapshot()
}

// ReadyForSubmission reports whether every proposal passed preflight. A
// single preflight_failed proposal blocks bulk submission until resolved.
func (r *BatchResult) ReadyForSubmission() bool {
	for _, p := range r.Proposals {
		switch p.Status {
		case model.StatusPreflightFailed, model.StatusPreflightChecking:
			return false
		}
	}
	return true
}

// SwitchCandidate moves a proposal to one of its alternatives: the ledger
// reservation is transferred atomically and the selected candidate swapped.
// A proposal that already failed preflight returns to ready so it can be
// re-checked.
func (r *BatchResult) SwitchCandidate(proposalIdx, altIdx int) error {
	if proposalIdx < 0 || proposalIdx >= len(r.Proposals) {
		return fmt.Errorf("switch: proposal index %d out of range", proposalIdx)
	}
	p := r.Proposals[proposalIdx]
	if altIdx < 0 || altIdx >= len(p.Alternatives) {
		return fmt.Errorf("switch: alternative index %d out of range for job %s", altIdx, p.Job.ID)
	}
	switch p.Status {
	case model.StatusSending, model.StatusSent, model.StatusFailed:
		return fmt.Errorf("switch: job %s already in status %s", p.Job.ID, p.Status)
	}

	alt := p.Alternatives[altIdx]
	if err := r.ledger.Transfer(p.Job.ID, p.Job.DurationMinutes, p.Selected.Key(), alt.Key()); err != nil {
		return err
	}
	old := p.Selected
	p.Selected = alt
	p.Alternatives[altIdx] = old
	if p.Status == model.StatusPreflightFailed {
		if err := p.Transition(model.StatusReady); err != nil {
			return err
		}
		p.Message = ""
	}
	return nil
}

// DayCapacity describes one engineer-day's combined committed and virtual
// load, recomputed on demand after fallback switches.
type DayCapacity struct {
	Key       model.DayKey
	Committed model.DayLoad
	Reserved  int
	Minutes   int
	MaxJobs   int
}

// Capacity returns the combined capacity view for the engineer-days touched
// by this run.
func (r *BatchResult) Capacity() []DayCapacity {
	snap := r.ledger.Snapshot()
	out := make([]DayCapacity, 0, len(snap))
	for key, entry := range snap {
		cap := DayCapacity{
			Key:       key,
			Committed: r.snap.LoadKey(key),
			Reserved:  entry.Count,
			Minutes:   entry.Minutes,
		}
		if eng, ok := r.snap.Engineer(key.EngineerID); ok {
			cap.MaxJobs = eng.MaxJobsPerDay
		}
		out = append(out, cap)
	}
	return out
}
