package metadata

import (
	"context"
	"sync"

	"github.com/lehigh-university-libraries/srcsetter/internal/imagetext"
)

// Memory keeps metadata in process memory.
type Memory struct {
	entries map[string]imagetext.Metadata
	mu      sync.RWMutex
}

func NewMemory() *Memory {
	return &Memory{
		entries: make(map[string]imagetext.Metadata),
	}
}

func (m *Memory) Get(ctx context.Context, path string) (*imagetext.Metadata, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	meta, exists := m.entries[path]
	if !exists {
		return nil, nil
	}
	return &meta, nil
}

func (m *Memory) Set(ctx context.Context, path string, meta imagetext.Metadata) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[path] = meta
	return nil
}

func (m *Memory) GetAll() map[string]imagetext.Metadata {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make(map[string]imagetext.Metadata, len(m.entries))
	for k, v := range m.entries {
		result[k] = v
	}
	return result
}

func (m *Memory) Delete(path string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, path)
}
