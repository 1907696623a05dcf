package records

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"dupeguard/internal/similarity"
)

// MemoryStore is an in-memory Store used by tests and by wiring that has no
// database available. Mutations are serialized by a mutex.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]FileRecord
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]FileRecord)}
}

func (m *MemoryStore) Insert(_ context.Context, record FileRecord) error {
	if strings.TrimSpace(record.ID) == "" {
		return errors.New("record id is required")
	}
	if strings.TrimSpace(record.NormalizedName) == "" {
		record.NormalizedName = similarity.Normalize(record.DisplayName)
	}
	if record.RegisteredAt.IsZero() {
		record.RegisteredAt = time.Now().UTC()
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.entries[record.ID]; exists {
		return errors.New("record id already exists")
	}
	m.entries[record.ID] = record
	return nil
}

func (m *MemoryStore) Remove(_ context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.entries[id]; !exists {
		return false, nil
	}
	delete(m.entries, id)
	return true, nil
}

func (m *MemoryStore) RemoveAll(context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	removed := int64(len(m.entries))
	m.entries = make(map[string]FileRecord)
	return removed, nil
}

func (m *MemoryStore) Get(_ context.Context, id string) (*FileRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	record, exists := m.entries[id]
	if !exists {
		return nil, nil
	}
	return &record, nil
}

func (m *MemoryStore) List(context.Context) ([]FileRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]FileRecord, 0, len(m.entries))
	for _, record := range m.entries {
		result = append(result, record)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].RegisteredAt.Equal(result[j].RegisteredAt) {
			return result[i].ID < result[j].ID
		}
		return result[i].RegisteredAt.Before(result[j].RegisteredAt)
	})
	return result, nil
}

func (m *MemoryStore) Count(context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries), nil
}
