package lockhistory

import (
	"cmp"
	"context"
	"slices"
	"sync"

	"qualityaudit/internal/audit/models"
	id "qualityaudit/pkg/domain"
)

// InMemoryStore keeps lock history rows per evaluation in arrival order.
type InMemoryStore struct {
	mu      sync.RWMutex
	entries map[id.EvaluationID][]models.LockHistoryEntry
	seen    map[id.EventID]struct{}
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		entries: make(map[id.EvaluationID][]models.LockHistoryEntry),
		seen:    make(map[id.EventID]struct{}),
	}
}

// Append records entry once per event id. It reports false for a duplicate.
func (s *InMemoryStore) Append(_ context.Context, entry models.LockHistoryEntry) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.seen[entry.EventID]; ok {
		return false, nil
	}
	s.seen[entry.EventID] = struct{}{}
	s.entries[entry.EvaluationID] = append(s.entries[entry.EvaluationID], entry)
	return true, nil
}

// FindByEvaluationID returns the history oldest first. Rows with the same
// timestamp keep arrival order.
func (s *InMemoryStore) FindByEvaluationID(_ context.Context, evaluationID id.EvaluationID) ([]models.LockHistoryEntry, error) {
	s.mu.RLock()
	history := slices.Clone(s.entries[evaluationID])
	s.mu.RUnlock()

	slices.SortStableFunc(history, func(a, b models.LockHistoryEntry) int {
		return cmp.Compare(a.OccurredAt.UnixNano(), b.OccurredAt.UnixNano())
	})
	return history, nil
}
