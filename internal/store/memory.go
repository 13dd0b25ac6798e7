package store

import (
	"context"
	"sync"

	"github.com/paaavkata/chainengine/internal/model"
)

// MemoryStore is a mutex-guarded in-memory ChainStore, used by engine
// and reconciler tests and by deployments running under simulate_orders
// without a database.
type MemoryStore struct {
	mu     sync.RWMutex
	chains map[string]model.Chain
	orders map[string]model.ChainOrder
	events []model.ProgressionEvent
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		chains: make(map[string]model.Chain),
		orders: make(map[string]model.ChainOrder),
	}
}

func (m *MemoryStore) SaveChain(_ context.Context, chain model.Chain) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.chains[chain.ChainID] = chain.Clone()
	return nil
}

func (m *MemoryStore) SaveOrder(_ context.Context, order model.ChainOrder) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.orders[order.OrderID] = order
	return nil
}

func (m *MemoryStore) AppendEvent(_ context.Context, event model.ProgressionEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, event)
	return nil
}

func (m *MemoryStore) LoadActiveChains(_ context.Context) ([]model.Chain, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []model.Chain
	for _, c := range m.chains {
		if c.Status == model.StatusActive {
			out = append(out, c.Clone())
		}
	}
	return out, nil
}

func (m *MemoryStore) LoadOrdersForChain(_ context.Context, chainID string, state model.OrderState) ([]model.ChainOrder, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []model.ChainOrder
	for _, o := range m.orders {
		if o.ChainID == chainID && o.State == state {
			out = append(out, o)
		}
	}
	return out, nil
}

// Events exposes the recorded ProgressionEvents for assertions in tests.
func (m *MemoryStore) Events() []model.ProgressionEvent {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]model.ProgressionEvent(nil), m.events...)
}

// Chain exposes a single persisted chain row for assertions in tests.
func (m *MemoryStore) Chain(chainID string) (model.Chain, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.chains[chainID]
	return c, ok
}
