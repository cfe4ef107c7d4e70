// Package local provides the client-side key/value media backing sessions and theme preferences.
package local

import (
	"sync"

	"github.com/trezcool/darasa/core"
)

// Memory is a LocalStorage living as long as the process.
type Memory struct {
	mu    sync.RWMutex
	items map[string]string
}

var _ core.LocalStorage = (*Memory)(nil)

func NewMemory() *Memory {
	return &Memory{items: make(map[string]string)}
}

func (m *Memory) GetItem(key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	val, ok := m.items[key]
	return val, ok, nil
}

func (m *Memory) SetItem(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[key] = value
	return nil
}

func (m *Memory) RemoveItem(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.items, key)
	return nil
}
