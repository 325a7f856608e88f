//go:build integration

package containers

import (
	"sync"
	"testing"
)

// Manager starts each container at most once per test binary and shares it
// across suites. Ryuk removes the containers when the binary exits.
type Manager struct {
	postgresOnce sync.Once
	postgres     *PostgresContainer
	postgresErr  error

	redisOnce sync.Once
	redis     *RedisContainer
	redisErr  error

	redpandaOnce sync.Once
	redpanda     *RedpandaContainer
	redpandaErr  error
}

var (
	managerOnce sync.Once
	manager     *Manager
)

// GetManager returns the process-wide container manager.
func GetManager() *Manager {
	managerOnce.Do(func() {
		manager = &Manager{}
	})
	return manager
}

func (m *Manager) GetPostgres(t *testing.T) *PostgresContainer {
	t.Helper()
	m.postgresOnce.Do(func() {
		m.postgres, m.postgresErr = startPostgres()
	})
	if m.postgresErr != nil {
		t.Fatalf("failed to start postgres container: %v", m.postgresErr)
	}
	return m.postgres
}

func (m *Manager) GetRedis(t *testing.T) *RedisContainer {
	t.Helper()
	m.redisOnce.Do(func() {
		m.redis, m.redisErr = startRedis()
	})
	if m.redisErr != nil {
		t.Fatalf("failed to start redis container: %v", m.redisErr)
	}
	return m.redis
}

func (m *Manager) GetRedpanda(t *testing.T) *RedpandaContainer {
	t.Helper()
	m.redpandaOnce.Do(func() {
		m.redpanda, m.redpandaErr = startRedpanda()
	})
	if m.redpandaErr != nil {
		t.Fatalf("failed to start redpanda container: %v", m.redpandaErr)
	}
	return m.redpanda
}
