package notify

import (
	"context"
	"sync"

	"github.com/dispatchlab/fieldsched/core/model"
)

// MockNotifier records sent offers and fails configured (job, engineer)
// pairs. Used in tests.
type MockNotifier struct {
	mu      sync.Mutex
	Sent    []model.Offer
	Rejects map[string]*RejectError // "jobID/engineerID" -> rejection
}

// NewMockNotifier creates an empty MockNotifier.
func NewMockNotifier() *MockNotifier {
	return &MockNotifier{Rejects: make(map[string]*RejectError)}
}

// RejectPair configures delivery to engineerID for jobID to fail.
func (m *MockNotifier) RejectPair(jobID, engineerID, code, msg string) {
	m.mu.Lock()
	m.Rejects[jobID+"/"+engineerID] = &RejectError{Code: code, Msg: msg}
	m.mu.Unlock()
}

// Send records the offer or returns the configured rejection.
func (m *MockNotifier) Send(ctx context.Context, offer model.Offer) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if re, ok := m.Rejects[offer.JobID+"/"+offer.EngineerID]; ok {
		return re
	}
	m.Sent = append(m.Sent, offer)
	return nil
}

// SentOffers returns a copy of everything delivered.
func (m *MockNotifier) SentOffers() []model.Offer {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.Offer, len(m.Sent))
	copy(out, m.Sent)
	return out
}
