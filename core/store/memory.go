package store

import (
	"context"
	"sync"
	"time"

	"github.com/dispatchlab/fieldsched/core/model"
)

// MemoryStore is an in-process Store used by tests and the demo mode.
type MemoryStore struct {
	mu        sync.RWMutex
	engineers []model.Engineer
	jobs      []model.Job
	loads     map[model.DayKey]model.DayLoad
	offers    []model.Offer
	activity  []model.ActivityEntry
	booked    map[string]model.DayKey // jobID -> engineer-day
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		loads:  make(map[model.DayKey]model.DayLoad),
		booked: make(map[string]model.DayKey),
	}
}

// AddEngineer registers an engineer.
func (s *MemoryStore) AddEngineer(e model.Engineer) {
	s.mu.Lock()
	s.engineers = append(s.engineers, e)
	s.mu.Unlock()
}

// AddJob registers a pending job.
func (s *MemoryStore) AddJob(j model.Job) {
	s.mu.Lock()
	s.jobs = append(s.jobs, j)
	s.mu.Unlock()
}

// SetDayLoad overrides the committed load for an engineer-day.
func (s *MemoryStore) SetDayLoad(key model.DayKey, load model.DayLoad) {
	s.mu.Lock()
	s.loads[key] = load
	s.mu.Unlock()
}

func (s *MemoryStore) Engineers(ctx context.Context) ([]model.Engineer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Engineer, len(s.engineers))
	copy(out, s.engineers)
	return out, nil
}

func (s *MemoryStore) PendingJobs(ctx context.Context) ([]model.Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Job, len(s.jobs))
	copy(out, s.jobs)
	return out, nil
}

func (s *MemoryStore) DayLoads(ctx context.Context, from, to time.Time) (map[model.DayKey]model.DayLoad, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[model.DayKey]model.DayLoad, len(s.loads))
	for k, v := range s.loads {
		d, err := time.Parse("2006-01-02", k.Date)
		if err != nil {
			continue
		}
		if d.Before(from.Truncate(24*time.Hour)) || d.After(to) {
			continue
		}
		out[k] = v
	}
	return out, nil
}

func (s *MemoryStore) CreateOffer(ctx context.Context, offer model.Offer) error {
	s.mu.Lock()
	s.offers = append(s.offers, offer)
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) UpdateJobSchedule(ctx context.Context, jobID, engineerID string, date time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := model.NewDayKey(engineerID, date)
	s.booked[jobID] = key
	s.loads[key] = s.loads[key].Add(s.durationOf(jobID))
	return nil
}

func (s *MemoryStore) AppendActivity(ctx context.Context, entry model.ActivityEntry) error {
	s.mu.Lock()
	s.activity = append(s.activity, entry)
	s.mu.Unlock()
	return nil
}

// Offers returns all committed offers.
func (s *MemoryStore) Offers() []model.Offer {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Offer, len(s.offers))
	copy(out, s.offers)
	return out
}

// Activity returns all activity entries.
func (s *MemoryStore) Activity() []model.ActivityEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.ActivityEntry, len(s.activity))
	copy(out, s.activity)
	return out
}

func (s *MemoryStore) durationOf(jobID string) int {
	for _, j := range s.jobs {
		if j.ID == jobID {
			return j.DurationMinutes
		}
	}
	return 0
}
