package schedule

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/dispatchlab/fieldsched/core/events"
	"github.com/dispatchlab/fieldsched/core/logger"
	"github.com/dispatchlab/fieldsched/core/model"
	"github.com/dispatchlab/fieldsched/core/store"
	"github.com/dispatchlab/fieldsched/internal/eventbus"
)

// Preflight re-validates every proposal against fresh authoritative
// capacity immediately before submission, catching drift introduced since
// batch generation began. It runs sequentially and to completion for all
// proposals; any failure blocks bulk submission until resolved.
type Preflight struct {
	reader store.Reader
	log    logger.Logger
	bus    eventbus.EventBus
}

// NewPreflight creates a preflight re-validator. bus may be nil.
func NewPreflight(reader store.Reader, log logger.Logger, bus eventbus.EventBus) (*Preflight, error) {
	if reader == nil || log == nil {
		return nil, fmt.Errorf("schedule: nil parameter provided to NewPreflight")
	}
	return &Preflight{reader: reader, log: log, bus: bus}, nil
}

// Run re-checks every proposal in result. For each one the authoritative
// day load is combined with the other proposals' virtual reservations in
// the same batch (never the proposal's own job) and day-fit re-run. The
// only error is a failed store read; per-proposal drift is recorded on the
// proposal itself.
func (p *Preflight) Run(ctx context.Context, result *BatchResult) error {
	if len(result.Proposals) == 0 {
		return nil
	}

	from, to := proposalDateRange(result.Proposals)
	loads, err := p.reader.DayLoads(ctx, from, to)
	if err != nil {
		return fmt.Errorf("preflight: reload day workloads: %w", err)
	}

	failed := 0
	for _, prop := range result.Proposals {
		if prop.Status != model.StatusReady {
			continue
		}
		if err := prop.Transition(model.StatusPreflightChecking); err != nil {
			return err
		}

		key := prop.Selected.Key()
		virtual := otherReservations(result.Proposals, prop, key)
		fit := result.dayfit.Evaluate(prop.Selected.Engineer, prop.Selected.Date, prop.Job, loads[key], virtual)

		if fit.OK {
			if err := prop.Transition(model.StatusReady); err != nil {
				return err
			}
			p.publish(events.PreflightEvent{RunID: result.RunID, JobID: prop.Job.ID, OK: true})
			continue
		}

		failed++
		preflightFailures.Inc()
		if err := prop.Transition(model.StatusPreflightFailed); err != nil {
			return err
		}
		prop.Message = fmt.Sprintf("capacity drifted since generation: %s", strings.Join(fit.Reasons, "; "))
		p.log.Warnf("preflight: job %s on %s: %s", prop.Job.ID, key, prop.Message)
		p.publish(events.PreflightEvent{RunID: result.RunID, JobID: prop.Job.ID, OK: false, Reason: model.PreflightDrift, Message: prop.Message})
	}

	if failed > 0 {
		p.log.Warnf("preflight: %d of %d proposals failed re-validation", failed, len(result.Proposals))
	}
	return nil
}

// otherReservations collects the virtual load the rest of the batch puts on
// key, excluding the proposal's own job.
func otherReservations(proposals []*model.Proposal, self *model.Proposal, key model.DayKey) []ReservedJob {
	var out []ReservedJob
	for _, other := range proposals {
		if other == self {
			continue
		}
		switch other.Status {
		case model.StatusFailed:
			continue
		}
		if other.Selected.Key() == key {
			out = append(out, ReservedJob{JobID: other.Job.ID, Minutes: other.Job.DurationMinutes})
		}
	}
	return out
}

func proposalDateRange(proposals []*model.Proposal) (time.Time, time.Time) {
	from := proposals[0].Selected.Date
	to := from
	for _, p := range proposals[1:] {
		d := p.Selected.Date
		if d.Before(from) {
			from = d
		}
		if d.After(to) {
			to = d
		}
	}
	return from, to
}

func (p *Preflight) publish(e eventbus.Event) {
	if p.bus != nil {
		p.bus.Publish(e)
	}
}
