package events

import (
	"context"

	"github.com/dispatchlab/fieldsched/core/logger"
	"github.com/dispatchlab/fieldsched/internal/eventbus"
)

// StartCollector subscribes to the bus and turns run events into progress
// logging. It stops when the context is canceled or the bus closes.
func StartCollector(ctx context.Context, bus eventbus.EventBus, log logger.Logger) {
	if bus == nil || log == nil {
		return
	}
	sub := bus.Subscribe()
	go func() {
		defer bus.Unsubscribe(sub)
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-sub:
				if !ok {
					return
				}
				record(log, ev)
			}
		}
	}()
}

func record(log logger.Logger, ev eventbus.Event) {
	switch e := ev.(type) {
	case BatchStartedEvent:
		log.Infof("run %s: scheduling %d jobs across %d engineers", e.RunID, e.Jobs, e.Engineers)
	case ProposalEvent:
		log.Debugw("proposal reserved", map[string]any{
			"run_id":      e.RunID,
			"job_id":      e.JobID,
			"engineer_id": e.EngineerID,
			"date":        e.Date.Format("2006-01-02"),
			"score":       e.Score,
		})
	case UnscheduledEvent:
		log.Warnf("run %s: job %s unscheduled (%s): %s", e.RunID, e.JobID, e.Reason, e.Detail)
	case PreflightEvent:
		if !e.OK {
			log.Warnf("run %s: job %s failed preflight: %s", e.RunID, e.JobID, e.Message)
		}
	case OfferAttemptEvent:
		fields := map[string]any{
			"run_id":      e.RunID,
			"job_id":      e.JobID,
			"engineer_id": e.EngineerID,
			"fallback":    e.Fallback,
			"ok":          e.OK,
		}
		if e.Err != nil {
			fields["error"] = e.Err.Error()
		}
		log.Debugw("offer attempt", fields)
	case BatchCompletedEvent:
		log.Infof("run %s: %d scheduled, %d unscheduled in %s", e.RunID, e.Scheduled, e.Unscheduled, e.Elapsed)
	}
}
