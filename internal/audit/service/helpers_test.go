package service_test

import (
	"context"
	"errors"
	"sync"

	"qualityaudit/internal/audit/models"
	"qualityaudit/internal/audit/outbox"
	"qualityaudit/internal/audit/store/contract"
	id "qualityaudit/pkg/domain"
)

// parties is a client with an active contract with a supervisor authorized
// for one standard.
type parties struct {
	client     models.Client
	supervisor models.Supervisor
	standard   models.Standard
}

func newParties(ctx context.Context, contracts *contract.InMemoryStore) parties {
	p := parties{
		client:   models.Client{ID: id.NewClientID(), Name: "Acme Foods"},
		standard: models.Standard{ID: id.NewStandardID(), Name: "ISO 22000"},
	}
	p.supervisor = models.Supervisor{
		ID:                  id.NewSupervisorID(),
		Name:                "Certifier One",
		AuthorizedStandards: []id.StandardID{p.standard.ID},
	}
	bind(ctx, contracts, p.client.ID, p.supervisor.ID)
	return p
}

func bind(ctx context.Context, contracts *contract.InMemoryStore, clientID id.ClientID, supervisorID id.SupervisorID) {
	c, err := models.NewContract(id.NewContractID(), clientID, supervisorID, true)
	if err != nil {
		panic(err)
	}
	if err := contracts.Save(ctx, c); err != nil {
		panic(err)
	}
}

// recordingSink collects delivered batches. The first failures calls are
// rejected.
type recordingSink struct {
	mu       sync.Mutex
	batches  [][]models.Event
	failures int
}

func (s *recordingSink) Publish(_ context.Context, entries []models.OutboxEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failures > 0 {
		s.failures--
		return errors.New("broker down")
	}
	batch := make([]models.Event, 0, len(entries))
	for _, e := range entries {
		batch = append(batch, e.Event)
	}
	s.batches = append(s.batches, batch)
	return nil
}

func (s *recordingSink) actions() []models.LockAction {
	s.mu.Lock()
	defer s.mu.Unlock()
	var actions []models.LockAction
	for _, batch := range s.batches {
		for _, e := range batch {
			actions = append(actions, e.Action())
		}
	}
	return actions
}

// flakySink fails its first failures calls, then forwards to next.
type flakySink struct {
	next     outbox.Sink
	failures int
}

func (s *flakySink) Publish(ctx context.Context, entries []models.OutboxEntry) error {
	if s.failures > 0 {
		s.failures--
		return errors.New("broker down")
	}
	return s.next.Publish(ctx, entries)
}
