package contract

import (
	"context"
	"sync"

	"qualityaudit/internal/audit/models"
	id "qualityaudit/pkg/domain"
)

// InMemoryStore keeps contracts by id.
type InMemoryStore struct {
	mu        sync.RWMutex
	contracts map[id.ContractID]models.Contract
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{contracts: make(map[id.ContractID]models.Contract)}
}

// Save inserts or replaces a contract.
func (s *InMemoryStore) Save(_ context.Context, c *models.Contract) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.contracts[c.ID] = *c
	return nil
}

func (s *InMemoryStore) HasActiveContract(_ context.Context, clientID id.ClientID, supervisorID id.SupervisorID) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, c := range s.contracts {
		if c.Binds(clientID, supervisorID) {
			return true, nil
		}
	}
	return false, nil
}
