package qualityaudit

import (
	"context"
	"slices"
	"sync"

	"qualityaudit/internal/audit/models"
	id "qualityaudit/pkg/domain"
	"qualityaudit/pkg/platform/sentinel"
)

type auditKey struct {
	clientID   id.ClientID
	standardID id.StandardID
}

// InMemoryStore keeps audits as copied evaluation states, so callers never
// share mutable aggregates with the store or with each other. Pending lock
// events go to the outbox under the same write lock as the evaluations.
type InMemoryStore struct {
	mu     sync.RWMutex
	audits map[auditKey][]models.EvaluationState
	outbox []models.OutboxEntry
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{audits: make(map[auditKey][]models.EvaluationState)}
}

func (s *InMemoryStore) Save(_ context.Context, audit *models.QualityAudit) error {
	evaluations := audit.Evaluations()
	states := make([]models.EvaluationState, 0, len(evaluations))
	for _, e := range evaluations {
		states = append(states, cloneState(e.State()))
	}

	entries := models.NewOutboxEntries(audit.PendingEvents())

	s.mu.Lock()
	defer s.mu.Unlock()
	s.audits[auditKey{audit.ClientID(), audit.StandardID()}] = states
	s.outbox = append(s.outbox, entries...)
	return nil
}

func (s *InMemoryStore) FindFor(_ context.Context, clientID id.ClientID, standardID id.StandardID) (*models.QualityAudit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	states, ok := s.audits[auditKey{clientID, standardID}]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	evaluations := make([]*models.Evaluation, 0, len(states))
	for _, st := range states {
		evaluations = append(evaluations, models.RestoreEvaluation(cloneState(st)))
	}
	return models.RestoreQualityAudit(clientID, standardID, evaluations), nil
}

// SaveEvaluation upserts one evaluation into its audit, appending it when the
// audit does not hold it yet. It satisfies EvaluationRepository.Save.
func (s *InMemoryStore) SaveEvaluation(_ context.Context, evaluation *models.Evaluation) error {
	state := cloneState(evaluation.State())
	key := auditKey{state.OwnerID, state.StandardID}

	s.mu.Lock()
	defer s.mu.Unlock()
	states := s.audits[key]
	if i := slices.IndexFunc(states, func(st models.EvaluationState) bool { return st.ID == state.ID }); i >= 0 {
		states[i] = state
		return nil
	}
	s.audits[key] = append(states, state)
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, evaluationID id.EvaluationID) (*models.Evaluation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, states := range s.audits {
		for _, st := range states {
			if st.ID == evaluationID {
				return models.RestoreEvaluation(cloneState(st)), nil
			}
		}
	}
	return nil, sentinel.ErrNotFound
}

// FindMostRecentFor returns the evaluation with the latest audit date. Ties
// keep the earlier-recorded evaluation.
func (s *InMemoryStore) FindMostRecentFor(_ context.Context, clientID id.ClientID, standardID id.StandardID) (*models.Evaluation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var latest *models.EvaluationState
	states := s.audits[auditKey{clientID, standardID}]
	for i := range states {
		if latest == nil || states[i].Report.AuditDate().After(latest.Report.AuditDate()) {
			latest = &states[i]
		}
	}
	if latest == nil {
		return nil, sentinel.ErrNotFound
	}
	return models.RestoreEvaluation(cloneState(*latest)), nil
}

// Evaluations adapts the store to EvaluationRepository.
func (s *InMemoryStore) Evaluations() *InMemoryEvaluations {
	return &InMemoryEvaluations{store: s}
}

// InMemoryEvaluations is the EvaluationRepository view of an InMemoryStore.
type InMemoryEvaluations struct {
	store *InMemoryStore
}

func (e *InMemoryEvaluations) Save(ctx context.Context, evaluation *models.Evaluation) error {
	return e.store.SaveEvaluation(ctx, evaluation)
}

func (e *InMemoryEvaluations) FindByID(ctx context.Context, evaluationID id.EvaluationID) (*models.Evaluation, error) {
	return e.store.FindByID(ctx, evaluationID)
}

func (e *InMemoryEvaluations) FindMostRecentFor(ctx context.Context, clientID id.ClientID, standardID id.StandardID) (*models.Evaluation, error) {
	return e.store.FindMostRecentFor(ctx, clientID, standardID)
}

// Outbox adapts the store to the relay's outbox.
func (s *InMemoryStore) Outbox() *InMemoryOutbox {
	return &InMemoryOutbox{store: s}
}

// InMemoryOutbox is the outbox view of an InMemoryStore. Delivered entries
// are dropped.
type InMemoryOutbox struct {
	store *InMemoryStore
}

// Pending returns up to limit undelivered entries, oldest first.
func (o *InMemoryOutbox) Pending(_ context.Context, limit int) ([]models.OutboxEntry, error) {
	o.store.mu.RLock()
	defer o.store.mu.RUnlock()
	n := len(o.store.outbox)
	if limit > 0 && limit < n {
		n = limit
	}
	return slices.Clone(o.store.outbox[:n]), nil
}

func (o *InMemoryOutbox) MarkDelivered(_ context.Context, eventIDs []id.EventID) error {
	o.store.mu.Lock()
	defer o.store.mu.Unlock()
	o.store.outbox = slices.DeleteFunc(o.store.outbox, func(e models.OutboxEntry) bool {
		return slices.Contains(eventIDs, e.EventID)
	})
	return nil
}

func cloneState(st models.EvaluationState) models.EvaluationState {
	if st.Suspension != nil {
		v := *st.Suspension
		st.Suspension = &v
	}
	if st.Withdrawal != nil {
		v := *st.Withdrawal
		st.Withdrawal = &v
	}
	if st.ReplacedBy != nil {
		v := *st.ReplacedBy
		st.ReplacedBy = &v
	}
	st.Watchers = slices.Clone(st.Watchers)
	return st
}
