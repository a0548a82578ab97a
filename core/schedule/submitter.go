package schedule

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/dispatchlab/fieldsched/core/events"
	"github.com/dispatchlab/fieldsched/core/logger"
	"github.com/dispatchlab/fieldsched/core/model"
	"github.com/dispatchlab/fieldsched/core/notify"
	"github.com/dispatchlab/fieldsched/core/store"
	"github.com/dispatchlab/fieldsched/internal/eventbus"
)

// Submitter commits proposals one at a time, retrying each proposal's
// ordered fallback candidates when the primary attempt is rejected.
// Proposals are processed sequentially so status reporting and external
// rate limits stay deterministic; one proposal's failure never blocks the
// others.
type Submitter struct {
	notifier notify.Notifier
	writer   store.Writer
	channel  string
	log      logger.Logger
	bus      eventbus.EventBus
}

// SubmitSummary aggregates a submission pass.
type SubmitSummary struct {
	Sent      int
	Failed    int
	Skipped   int
	Fallbacks int
}

// NewSubmitter creates an offer submitter. bus may be nil.
func NewSubmitter(notifier notify.Notifier, writer store.Writer, channel string, log logger.Logger, bus eventbus.EventBus) (*Submitter, error) {
	if notifier == nil || writer == nil || log == nil {
		return nil, fmt.Errorf("schedule: nil parameter provided to NewSubmitter")
	}
	if channel == "" {
		channel = "sms"
	}
	return &Submitter{notifier: notifier, writer: writer, channel: channel, log: log, bus: bus}, nil
}

// Submit delivers every ready proposal in result. Proposals not in ready
// status are skipped and counted. Cancellation is honored between
// proposals; an in-flight attempt completes and its outcome is kept.
func (s *Submitter) Submit(ctx context.Context, result *BatchResult) SubmitSummary {
	var sum SubmitSummary
	for i, p := range result.Proposals {
		if ctx.Err() != nil {
			s.log.Warnf("submission interrupted after %d proposals", sum.Sent+sum.Failed)
			for _, rest := range result.Proposals[i:] {
				if rest.Status == model.StatusReady {
					sum.Skipped++
					s.publish(events.UnscheduledEvent{
						RunID:  result.RunID,
						JobID:  rest.Job.ID,
						Reason: model.Cancelled,
						Detail: "submission interrupted before delivery",
					})
				}
			}
			break
		}
		if p.Status != model.StatusReady {
			sum.Skipped++
			continue
		}
		s.submitOne(ctx, result.RunID, p, &sum)
	}
	return sum
}

func (s *Submitter) submitOne(ctx context.Context, runID string, p *model.Proposal, sum *SubmitSummary) {
	if err := p.Transition(model.StatusSending); err != nil {
		s.log.Errorf("job %s: %v", p.Job.ID, err)
		return
	}

	attempts := make([]model.Candidate, 0, 1+len(p.Alternatives))
	attempts = append(attempts, p.Selected)
	attempts = append(attempts, p.Alternatives...)

	var lastErr error
	for i, cand := range attempts {
		offer := model.Offer{
			ID:         uuid.NewString(),
			JobID:      p.Job.ID,
			EngineerID: cand.Engineer.ID,
			Date:       cand.Date,
			TimeWindow: cand.Engineer.WorkingWindow(cand.Date).String(),
			Channel:    s.channel,
		}
		fallback := i > 0
		if fallback {
			fallbackAttempts.Inc()
		}

		err := s.notifier.Send(ctx, offer)
		s.publish(events.OfferAttemptEvent{
			RunID:      runID,
			JobID:      p.Job.ID,
			EngineerID: cand.Engineer.ID,
			Fallback:   fallback,
			OK:         err == nil,
			Err:        err,
		})
		if err != nil {
			lastErr = err
			s.log.Warnf("job %s: offer to %s rejected: %v", p.Job.ID, cand.Engineer.ID, err)
			continue
		}

		s.commit(ctx, p, cand, offer, fallback)
		sum.Sent++
		if fallback {
			sum.Fallbacks++
		}
		return
	}

	offersFailed.Inc()
	jobsUnscheduled.WithLabelValues(model.SubmissionExhausted.String()).Inc()
	if err := p.Transition(model.StatusFailed); err != nil {
		s.log.Errorf("job %s: %v", p.Job.ID, err)
	}
	p.Message = fmt.Sprintf("every candidate rejected; last error: %v", lastErr)
	s.publish(events.UnscheduledEvent{
		RunID:  runID,
		JobID:  p.Job.ID,
		Reason: model.SubmissionExhausted,
		Detail: p.Message,
	})
	sum.Failed++
}

// commit records the accepted offer in the authoritative store and marks
// the proposal sent with the engineer actually used.
func (s *Submitter) commit(ctx context.Context, p *model.Proposal, cand model.Candidate, offer model.Offer, fallback bool) {
	if err := s.writer.CreateOffer(ctx, offer); err != nil {
		// The offer went out; record the store failure but keep the status
		// truthful about delivery.
		s.log.Errorf("job %s: persist offer %s: %v", p.Job.ID, offer.ID, err)
	}
	// Book the slot so subsequent runs count the offered job as load.
	if err := s.writer.UpdateJobSchedule(ctx, p.Job.ID, cand.Engineer.ID, cand.Date); err != nil {
		s.log.Errorf("job %s: book schedule: %v", p.Job.ID, err)
	}
	detail := fmt.Sprintf("offer %s sent to engineer %s for %s", offer.ID, cand.Engineer.ID, offer.Date.Format("2006-01-02"))
	if fallback {
		detail += " (fallback candidate)"
	}
	entry := model.ActivityEntry{
		ID:         uuid.NewString(),
		JobID:      p.Job.ID,
		EngineerID: cand.Engineer.ID,
		Kind:       "offer_sent",
		Detail:     detail,
		Time:       time.Now(),
	}
	if err := s.writer.AppendActivity(ctx, entry); err != nil {
		s.log.Errorf("job %s: activity log: %v", p.Job.ID, err)
	}

	p.Selected = cand
	p.SentOffer = &offer
	if err := p.Transition(model.StatusSent); err != nil {
		s.log.Errorf("job %s: %v", p.Job.ID, err)
		return
	}
	offersSent.Inc()
	p.Message = detail
}

func (s *Submitter) publish(e eventbus.Event) {
	if s.bus != nil {
		s.bus.Publish(e)
	}
}
