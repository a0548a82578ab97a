package schedule

import (
	"context"
	"strings"
	"testing"

	"github.com/dispatchlab/fieldsched/core/model"
	"github.com/dispatchlab/fieldsched/core/store"
	"github.com/dispatchlab/fieldsched/infra/logger"
)

func runBatch(t *testing.T, st *store.MemoryStore, jobs []model.Job) *BatchResult {
	t.Helper()
	o := newTestOrchestrator(t, st, serialConfig())
	result, err := o.Run(context.Background(), RunOptions{Jobs: jobs, Now: testNow})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	return result
}

func newTestPreflight(t *testing.T, st *store.MemoryStore) *Preflight {
	t.Helper()
	p, err := NewPreflight(st, logger.NopLogger{}, nil)
	if err != nil {
		t.Fatalf("new preflight: %v", err)
	}
	return p
}

func TestPreflight_CleanPass(t *testing.T) {
	st := store.NewMemoryStore()
	eng := testEngineer("e1", 2)
	eng.Base = parisBase
	st.AddEngineer(*eng)

	result := runBatch(t, st, []model.Job{{ID: "j1", Site: parisSite, DurationMinutes: 90}})

	if err := newTestPreflight(t, st).Run(context.Background(), result); err != nil {
		t.Fatalf("preflight: %v", err)
	}
	if got := result.Proposals[0].Status; got != model.StatusReady {
		t.Fatalf("status = %v, want ready", got)
	}
	if !result.ReadyForSubmission() {
		t.Fatal("clean batch should be ready for submission")
	}
}

func TestPreflight_DetectsDrift(t *testing.T) {
	st := store.NewMemoryStore()
	eng := testEngineer("e1", 2)
	eng.Base = parisBase
	st.AddEngineer(*eng)

	result := runBatch(t, st, []model.Job{{ID: "j1", Site: parisSite, DurationMinutes: 90}})
	p := result.Proposals[0]

	// Another process booked the engineer solid after generation.
	st.SetDayLoad(p.Selected.Key(), model.DayLoad{Jobs: 2, Minutes: 400})

	if err := newTestPreflight(t, st).Run(context.Background(), result); err != nil {
		t.Fatalf("preflight: %v", err)
	}
	if p.Status != model.StatusPreflightFailed {
		t.Fatalf("status = %v, want preflight_failed", p.Status)
	}
	if !strings.Contains(p.Message, "capacity drifted since generation") {
		t.Fatalf("message = %q", p.Message)
	}
	if result.ReadyForSubmission() {
		t.Fatal("a failed preflight must block submission")
	}
}

func TestPreflight_CountsBatchPeersButNotSelf(t *testing.T) {
	st := store.NewMemoryStore()
	eng := testEngineer("e1", 2)
	eng.Base = parisBase
	st.AddEngineer(*eng)

	jobs := []model.Job{
		{ID: "j1", Site: parisSite, DurationMinutes: 90},
		{ID: "j2", Site: parisSite, DurationMinutes: 90},
	}
	result := runBatch(t, st, jobs)
	key := result.Proposals[0].Selected.Key()
	if result.Proposals[1].Selected.Key() != key {
		t.Fatalf("fixture expects both proposals on one day, got %v and %v", key, result.Proposals[1].Selected.Key())
	}

	// Own reservation excluded: 0 committed + 1 peer + self = exactly at max.
	if err := newTestPreflight(t, st).Run(context.Background(), result); err != nil {
		t.Fatalf("preflight: %v", err)
	}
	for _, p := range result.Proposals {
		if p.Status != model.StatusReady {
			t.Fatalf("job %s: status = %v, want ready", p.Job.ID, p.Status)
		}
	}

	// One real booking lands: peer + committed now overflows both proposals.
	st.SetDayLoad(key, model.DayLoad{Jobs: 1, Minutes: 90})
	if err := newTestPreflight(t, st).Run(context.Background(), result); err != nil {
		t.Fatalf("preflight: %v", err)
	}
	for _, p := range result.Proposals {
		if p.Status != model.StatusPreflightFailed {
			t.Fatalf("job %s: status = %v, want preflight_failed", p.Job.ID, p.Status)
		}
	}
}

func TestPreflight_SwitchResolvesFailure(t *testing.T) {
	st := store.NewMemoryStore()
	eng := testEngineer("e1", 2)
	eng.Base = parisBase
	st.AddEngineer(*eng)

	result := runBatch(t, st, []model.Job{{ID: "j1", Site: parisSite, DurationMinutes: 90}})
	p := result.Proposals[0]
	failedKey := p.Selected.Key()
	st.SetDayLoad(failedKey, model.DayLoad{Jobs: 2, Minutes: 400})

	pf := newTestPreflight(t, st)
	if err := pf.Run(context.Background(), result); err != nil {
		t.Fatalf("preflight: %v", err)
	}
	if p.Status != model.StatusPreflightFailed {
		t.Fatalf("status = %v, want preflight_failed", p.Status)
	}

	var altIdx = -1
	for i, alt := range p.Alternatives {
		if alt.Key() != failedKey {
			altIdx = i
			break
		}
	}
	if altIdx < 0 {
		t.Fatal("fixture expects an alternative on another day")
	}
	if err := result.SwitchCandidate(0, altIdx); err != nil {
		t.Fatalf("switch: %v", err)
	}
	if p.Status != model.StatusReady || p.Message != "" {
		t.Fatalf("switch should reset to ready, got %v %q", p.Status, p.Message)
	}

	if err := pf.Run(context.Background(), result); err != nil {
		t.Fatalf("preflight: %v", err)
	}
	if p.Status != model.StatusReady || !result.ReadyForSubmission() {
		t.Fatalf("re-check after switch should pass, got %v", p.Status)
	}
}
