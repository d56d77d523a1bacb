package history

import (
	"context"
	"sync"
)

type Memory struct {
	mu    sync.RWMutex
	limit int
	byKey map[string][]Record // newest last
}

var _ Store = (*Memory)(nil)

func NewMemory(limit int) *Memory {
	return &Memory{limit: limit, byKey: make(map[string][]Record)}
}

func (m *Memory) Record(_ context.Context, rec Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	recs := append(m.byKey[rec.Lobby], rec)
	if m.limit > 0 && len(recs) > m.limit {
		recs = append([]Record(nil), recs[len(recs)-m.limit:]...)
	}
	m.byKey[rec.Lobby] = recs
	return nil
}

func (m *Memory) List(_ context.Context, lobby string, limit int) ([]Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	recs := m.byKey[lobby]
	n := clampLimit(limit, len(recs))
	out := make([]Record, 0, n)
	for i := len(recs) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, recs[i])
	}
	return out, nil
}

func (m *Memory) Close() error { return nil }
