package schedule

import (
	"fmt"
	"sync"

	"github.com/dispatchlab/fieldsched/core/model"
)

// LedgerEntry holds the speculative reservations on one engineer-day.
type LedgerEntry struct {
	Count   int
	Minutes int
	Jobs    []ReservedJob
}

// Ledger is the run-scoped virtual capacity table keyed by engineer-day.
// It is the only shared mutable state during a batch run; every operation
// holds the ledger mutex so concurrent job evaluations cannot double-book
// a slot. A job occupies at most one entry at a time.
type Ledger struct {
	mu      sync.Mutex
	entries map[model.DayKey]*LedgerEntry
	jobKeys map[string]model.DayKey // jobID -> current entry
}

// NewLedger creates an empty ledger.
func NewLedger() *Ledger {
	return &Ledger{
		entries: make(map[model.DayKey]*LedgerEntry),
		jobKeys: make(map[string]model.DayKey),
	}
}

// Reserve adds a virtual reservation for job on key. A job already holding
// a reservation anywhere is rejected.
func (l *Ledger) Reserve(key model.DayKey, job ReservedJob) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.reserveLocked(key, job)
}

// TryReserve runs fit against the entry's current reservations and, if it
// approves, reserves in the same critical section. This is the check-then-act
// primitive concurrent evaluations must use: between the fit decision and the
// reservation no other goroutine can take the slot.
func (l *Ledger) TryReserve(key model.DayKey, job ReservedJob, fit func(reserved []ReservedJob) bool) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	var reserved []ReservedJob
	if e, ok := l.entries[key]; ok {
		reserved = append(reserved, e.Jobs...)
	}
	if !fit(reserved) {
		return false, nil
	}
	if err := l.reserveLocked(key, job); err != nil {
		return false, err
	}
	return true, nil
}

// Release removes the reservation for job on key. Entries left empty are
// pruned.
func (l *Ledger) Release(key model.DayKey, jobID string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.releaseLocked(key, jobID)
}

// Transfer atomically moves a job's reservation from one engineer-day to
// another. The ledger is left unchanged if either half fails.
func (l *Ledger) Transfer(jobID string, minutes int, from, to model.DayKey) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	entry, ok := l.entries[from]
	if !ok || !entryHolds(entry, jobID) {
		return fmt.Errorf("transfer: job %s holds no reservation on %s", jobID, from)
	}
	if cur, held := l.jobKeys[jobID]; !held || cur != from {
		return fmt.Errorf("transfer: job %s reservation mismatch for %s", jobID, from)
	}
	if err := l.releaseLocked(from, jobID); err != nil {
		return err
	}
	return l.reserveLocked(to, ReservedJob{JobID: jobID, Minutes: minutes})
}

// Snapshot returns a read-only copy of all entries, e.g. for displaying
// in-batch capacity.
func (l *Ledger) Snapshot() map[model.DayKey]LedgerEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make(map[model.DayKey]LedgerEntry, len(l.entries))
	for k, e := range l.entries {
		jobs := make([]ReservedJob, len(e.Jobs))
		copy(jobs, e.Jobs)
		out[k] = LedgerEntry{Count: e.Count, Minutes: e.Minutes, Jobs: jobs}
	}
	return out
}

// Entry returns a copy of the entry for key.
func (l *Ledger) Entry(key model.DayKey) (LedgerEntry, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	e, ok := l.entries[key]
	if !ok {
		return LedgerEntry{}, false
	}
	jobs := make([]ReservedJob, len(e.Jobs))
	copy(jobs, e.Jobs)
	return LedgerEntry{Count: e.Count, Minutes: e.Minutes, Jobs: jobs}, true
}

// JobKey returns the engineer-day a job is currently reserved on.
func (l *Ledger) JobKey(jobID string) (model.DayKey, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	k, ok := l.jobKeys[jobID]
	return k, ok
}

func (l *Ledger) reserveLocked(key model.DayKey, job ReservedJob) error {
	if held, ok := l.jobKeys[job.JobID]; ok {
		return fmt.Errorf("reserve: job %s already reserved on %s", job.JobID, held)
	}
	e, ok := l.entries[key]
	if !ok {
		e = &LedgerEntry{}
		l.entries[key] = e
	}
	e.Count++
	e.Minutes += job.Minutes
	e.Jobs = append(e.Jobs, job)
	l.jobKeys[job.JobID] = key
	return nil
}

func (l *Ledger) releaseLocked(key model.DayKey, jobID string) error {
	e, ok := l.entries[key]
	if !ok {
		return fmt.Errorf("release: no entry for %s", key)
	}
	idx := -1
	for i, j := range e.Jobs {
		if j.JobID == jobID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return fmt.Errorf("release: job %s not reserved on %s", jobID, key)
	}
	e.Count--
	e.Minutes -= e.Jobs[idx].Minutes
	e.Jobs = append(e.Jobs[:idx], e.Jobs[idx+1:]...)
	delete(l.jobKeys, jobID)
	if e.Count <= 0 {
		delete(l.entries, key)
	}
	return nil
}

func entryHolds(e *LedgerEntry, jobID string) bool {
	for _, j := range e.Jobs {
		if j.JobID == jobID {
			return true
		}
	}
	return false
}
