package storage

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/jwebster45206/desert-planet/pkg/state"
)

// MockStorage is an in-memory Storage used by tests and by the API when
// STORAGE_BACKEND=memory.
type MockStorage struct {
	mu        sync.RWMutex
	saves     map[string][]byte
	pingError error
}

// Ensure MockStorage implements Storage interface
var _ Storage = (*MockStorage)(nil)

// NewMockStorage creates a new mock storage
func NewMockStorage() *MockStorage {
	return &MockStorage{
		saves: make(map[string][]byte),
	}
}

// SetPingSuccess configures the mock to succeed on ping
func (m *MockStorage) SetPingSuccess() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pingError = nil
}

// SetPingError configures the mock to fail on ping with the given error
func (m *MockStorage) SetPingError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pingError = err
}

func (m *MockStorage) Ping(ctx context.Context) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.pingError
}

func (m *MockStorage) Close() error {
	return nil
}

func (m *MockStorage) SaveGameState(ctx context.Context, saveID string, gs *state.GameState) error {
	if gs == nil {
		return errors.New("gamestate cannot be nil")
	}
	data, err := gs.ToJSON()
	if err != nil {
		return fmt.Errorf("failed to encode gamestate: %w", err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saves[saveID] = data
	return nil
}

func (m *MockStorage) CreateGameState(ctx context.Context, saveID string, gs *state.GameState) error {
	if gs == nil {
		return errors.New("gamestate cannot be nil")
	}
	data, err := gs.ToJSON()
	if err != nil {
		return fmt.Errorf("failed to encode gamestate: %w", err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.saves[saveID]; exists {
		return ErrSaveExists
	}
	m.saves[saveID] = data
	return nil
}

func (m *MockStorage) LoadGameState(ctx context.Context, saveID string) (*state.GameState, error) {
	m.mu.RLock()
	data, exists := m.saves[saveID]
	m.mu.RUnlock()
	if !exists {
		return nil, nil
	}
	return state.FromJSON(data)
}

func (m *MockStorage) DeleteGameState(ctx context.Context, saveID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.saves, saveID)
	return nil
}

func (m *MockStorage) ListSaves(ctx context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ids := make([]string, 0, len(m.saves))
	for id := range m.saves {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

// PutRaw stores a document verbatim, bypassing the encoder (for testing
// how callers handle corrupt saves).
func (m *MockStorage) PutRaw(saveID string, data []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saves[saveID] = data
}
