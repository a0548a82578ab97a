package schedule

import (
	"context"
	"strings"
	"testing"

	"github.com/dispatchlab/fieldsched/core/model"
	"github.com/dispatchlab/fieldsched/core/notify"
	"github.com/dispatchlab/fieldsched/core/store"
	"github.com/dispatchlab/fieldsched/infra/logger"
)

func newTestSubmitter(t *testing.T, n notify.Notifier, w store.Writer) *Submitter {
	t.Helper()
	s, err := NewSubmitter(n, w, "sms", logger.NopLogger{}, nil)
	if err != nil {
		t.Fatalf("new submitter: %v", err)
	}
	return s
}

func twoEngineerStore() *store.MemoryStore {
	st := store.NewMemoryStore()
	for _, id := range []string{"e1", "e2"} {
		e := testEngineer(id, 2)
		e.Base = parisBase
		st.AddEngineer(*e)
	}
	return st
}

func TestSubmit_PrimaryAccepted(t *testing.T) {
	st := twoEngineerStore()
	result := runBatch(t, st, []model.Job{{ID: "j1", Site: parisSite, DurationMinutes: 90}})
	p := result.Proposals[0]
	primary := p.Selected.Engineer.ID

	mock := notify.NewMockNotifier()
	sum := newTestSubmitter(t, mock, st).Submit(context.Background(), result)

	if sum.Sent != 1 || sum.Failed != 0 || sum.Fallbacks != 0 {
		t.Fatalf("summary = %+v", sum)
	}
	if p.Status != model.StatusSent {
		t.Fatalf("status = %v, want sent", p.Status)
	}
	if p.SentOffer == nil || p.SentOffer.EngineerID != primary {
		t.Fatalf("sent offer = %+v, want engineer %s", p.SentOffer, primary)
	}
	if len(st.Offers()) != 1 {
		t.Fatalf("offers persisted = %d, want 1", len(st.Offers()))
	}
	if len(st.Activity()) != 1 || st.Activity()[0].Kind != "offer_sent" {
		t.Fatalf("activity = %+v", st.Activity())
	}
}

func TestSubmit_FallsBackWhenPrimaryRejects(t *testing.T) {
	st := twoEngineerStore()
	result := runBatch(t, st, []model.Job{{ID: "j1", Site: parisSite, DurationMinutes: 90}})
	p := result.Proposals[0]
	primary := p.Selected.Engineer.ID

	mock := notify.NewMockNotifier()
	mock.RejectPair("j1", primary, notify.RejectCapacityConflict, "slot just taken")

	sum := newTestSubmitter(t, mock, st).Submit(context.Background(), result)

	if sum.Sent != 1 || sum.Fallbacks != 1 {
		t.Fatalf("summary = %+v", sum)
	}
	if p.Status != model.StatusSent {
		t.Fatalf("status = %v, want sent", p.Status)
	}
	// Selected reflects the candidate the offer actually went to.
	if p.Selected.Engineer.ID == primary {
		t.Fatal("selected should move to the fallback candidate")
	}
	if p.SentOffer.EngineerID != p.Selected.Engineer.ID {
		t.Fatalf("offer engineer %s != selected %s", p.SentOffer.EngineerID, p.Selected.Engineer.ID)
	}
}

func TestSubmit_ExhaustionFailsProposalOnly(t *testing.T) {
	st := twoEngineerStore()
	jobs := []model.Job{
		{ID: "j1", Site: parisSite, DurationMinutes: 90},
		{ID: "j2", Site: parisSite, DurationMinutes: 90},
	}
	result := runBatch(t, st, jobs)

	mock := notify.NewMockNotifier()
	mock.RejectPair("j1", "e1", notify.RejectRefused, "declined")
	mock.RejectPair("j1", "e2", notify.RejectRefused, "declined")

	sum := newTestSubmitter(t, mock, st).Submit(context.Background(), result)

	if sum.Sent != 1 || sum.Failed != 1 {
		t.Fatalf("summary = %+v", sum)
	}
	p1 := result.Proposals[0]
	if p1.Status != model.StatusFailed {
		t.Fatalf("j1 status = %v, want failed", p1.Status)
	}
	if !strings.Contains(p1.Message, "every candidate rejected") {
		t.Fatalf("message = %q", p1.Message)
	}
	if p1.SentOffer != nil {
		t.Fatal("failed proposal must carry no sent offer")
	}
	if result.Proposals[1].Status != model.StatusSent {
		t.Fatalf("j2 status = %v, want sent", result.Proposals[1].Status)
	}
}

func TestSubmit_SkipsNonReady(t *testing.T) {
	st := twoEngineerStore()
	result := runBatch(t, st, []model.Job{{ID: "j1", Site: parisSite, DurationMinutes: 90}})
	p := result.Proposals[0]
	if err := p.Transition(model.StatusPreflightChecking); err != nil {
		t.Fatalf("transition: %v", err)
	}
	if err := p.Transition(model.StatusPreflightFailed); err != nil {
		t.Fatalf("transition: %v", err)
	}

	mock := notify.NewMockNotifier()
	sum := newTestSubmitter(t, mock, st).Submit(context.Background(), result)

	if sum.Skipped != 1 || sum.Sent != 0 {
		t.Fatalf("summary = %+v", sum)
	}
	if len(mock.SentOffers()) != 0 {
		t.Fatal("nothing should be delivered for a non-ready proposal")
	}
}

func TestSubmit_HonorsCancellationBetweenProposals(t *testing.T) {
	st := twoEngineerStore()
	result := runBatch(t, st, []model.Job{{ID: "j1", Site: parisSite, DurationMinutes: 90}})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	mock := notify.NewMockNotifier()
	sum := newTestSubmitter(t, mock, st).Submit(ctx, result)

	if sum.Sent != 0 || sum.Failed != 0 || sum.Skipped != 1 {
		t.Fatalf("summary = %+v", sum)
	}
	if result.Proposals[0].Status != model.StatusReady {
		t.Fatalf("status = %v, want ready (untouched)", result.Proposals[0].Status)
	}
}

func TestSubmit_BooksOfferedSlot(t *testing.T) {
	st := twoEngineerStore()
	result := runBatch(t, st, []model.Job{{ID: "j1", Site: parisSite, DurationMinutes: 90}})
	p := result.Proposals[0]

	mock := notify.NewMockNotifier()
	newTestSubmitter(t, mock, st).Submit(context.Background(), result)

	loads, err := st.DayLoads(context.Background(), p.Selected.Date.AddDate(0, 0, -1), p.Selected.Date.AddDate(0, 0, 1))
	if err != nil {
		t.Fatalf("day loads: %v", err)
	}
	if load := loads[p.Selected.Key()]; load.Jobs != 1 {
		t.Fatalf("offered slot not booked: %+v", load)
	}
}
