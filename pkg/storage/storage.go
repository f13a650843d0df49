package storage

import (
	"context"
	"errors"

	"github.com/jwebster45206/desert-planet/pkg/state"
)

// ErrSaveExists is returned by CreateGameState when saveID is taken.
var ErrSaveExists = errors.New("save already exists")

// Storage persists save documents keyed by their save ID.
// Implementations store the encoded JSON produced by GameState.ToJSON and
// decode it with state.FromJSON on the way out, so a loaded state never
// shares memory with the one that was saved.
type Storage interface {
	// Health and lifecycle
	Ping(ctx context.Context) error
	Close() error

	// SaveGameState creates or replaces the save with the given ID.
	SaveGameState(ctx context.Context, saveID string, gs *state.GameState) error

	// CreateGameState stores a new save and returns ErrSaveExists if one is
	// already stored under saveID. The check and the write are atomic.
	CreateGameState(ctx context.Context, saveID string, gs *state.GameState) error

	// LoadGameState returns nil, nil if no save exists for saveID.
	LoadGameState(ctx context.Context, saveID string) (*state.GameState, error)

	// DeleteGameState removes a save. Deleting a missing save is not an error.
	DeleteGameState(ctx context.Context, saveID string) error

	// ListSaves returns every stored save ID in ascending order.
	ListSaves(ctx context.Context) ([]string, error)
}
