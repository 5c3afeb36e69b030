/*
Package cache provides the key/TTL cache capability used for alert results
and per-employee balance summaries.

PURPOSE:
  The ledger treats caching as an injected capability, not a global:
  components receive a Cache and call Put/Get/Invalidate. Cached data is
  advisory - readers tolerate staleness up to the TTL, and invalidation
  failures never block the underlying transaction.

IMPLEMENTATIONS:
  Memory: process-local map with lazy expiry. Default, and used in tests.
  Redis:  shared cache on go-redis (redis.go). Selected via config for
          multi-process deployments.

KEY SCHEME:
  alerts:<year>:<threshold>   Alert reports
  summary:<employee>:<year>   Balance summaries

  Mutations invalidate by prefix ("alerts:2025") so every threshold
  variant drops at once.

SEE ALSO:
  - ../benefit/alerts.go: Primary consumer
  - ../benefit/ledger.go: Invalidates on every balance mutation
*/
package cache

import (
	"context"
	"strings"
	"sync"
	"time"
)

// Cache is the capability injected into the ledger components.
type Cache interface {
	// Put stores value under key for ttl.
	Put(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Get returns (value, true) on a live hit, (nil, false) on miss/expired.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Invalidate removes exact keys. Missing keys are not errors.
	Invalidate(ctx context.Context, keys ...string) error

	// InvalidatePrefix removes every key starting with prefix.
	InvalidatePrefix(ctx context.Context, prefix string) error
}

// =============================================================================
// MEMORY CACHE - Process-local, used by default and in tests
// =============================================================================

type entry struct {
	value     []byte
	expiresAt time.Time
}

type Memory struct {
	mu      sync.RWMutex
	entries map[string]entry

	// Now is overridable for TTL tests.
	Now func() time.Time
}

func NewMemory() *Memory {
	return &Memory{entries: make(map[string]entry), Now: time.Now}
}

func (m *Memory) Put(_ context.Context, key string, value []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = entry{value: value, expiresAt: m.Now().Add(ttl)}
	return nil
}

func (m *Memory) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.RLock()
	e, ok := m.entries[key]
	m.mu.RUnlock()
	if !ok {
		return nil, false, nil
	}
	if m.Now().After(e.expiresAt) {
		m.mu.Lock()
		delete(m.entries, key)
		m.mu.Unlock()
		return nil, false, nil
	}
	return e.value, true, nil
}

func (m *Memory) Invalidate(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		delete(m.entries, k)
	}
	return nil
}

func (m *Memory) InvalidatePrefix(_ context.Context, prefix string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for k := range m.entries {
		if strings.HasPrefix(k, prefix) {
			delete(m.entries, k)
		}
	}
	return nil
}

// Len reports the number of live entries (expired entries may be counted
// until their next Get).
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}
