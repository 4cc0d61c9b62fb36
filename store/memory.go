package store

import (
	"context"
	"sync"

	"github.com/ostraca-ai/agentloop/pkg/chat"
)

type inMemory struct {
	mu      sync.RWMutex
	storage map[string][]chat.Message
}

// NewMemoryStore creates an in-process MessageStore.
func NewMemoryStore() MessageStore {
	return &inMemory{}
}

func (m *inMemory) Messages(_ context.Context, conversationID string) ([]chat.Message, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.storage == nil {
		return nil, nil
	}
	stored := m.storage[conversationID]
	out := make([]chat.Message, len(stored))
	copy(out, stored)
	return out, nil
}

func (m *inMemory) Add(_ context.Context, conversationID string, messages ...chat.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.storage == nil {
		// create on first use
		m.storage = make(map[string][]chat.Message)
	}
	m.storage[conversationID] = append(m.storage[conversationID], messages...)
	return nil
}

func (m *inMemory) Reset(_ context.Context, conversationID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.storage != nil {
		delete(m.storage, conversationID)
	}
	return nil
}
