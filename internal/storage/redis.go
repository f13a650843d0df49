package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/jwebster45206/desert-planet/internal/logger"
	"github.com/jwebster45206/desert-planet/pkg/state"
	"github.com/jwebster45206/desert-planet/pkg/storage"
	"github.com/redis/go-redis/v9"
)

const saveKeyPrefix = "save:"

// RedisStorage implements the Storage interface using Redis. Each save is
// stored as its JSON document under save:<save_id>.
type RedisStorage struct {
	client *redis.Client
	logger *slog.Logger
	ttl    time.Duration
}

// Ensure RedisStorage implements Storage interface
var _ storage.Storage = (*RedisStorage)(nil)

// NewRedisStorage creates a new Redis storage instance. redisURL may be a
// bare host:port or a redis:// URL. A ttl of zero keeps saves forever.
func NewRedisStorage(redisURL string, ttl time.Duration, logger *slog.Logger) (*RedisStorage, error) {
	opts := &redis.Options{Addr: redisURL}
	if strings.Contains(redisURL, "://") {
		parsed, err := redis.ParseURL(redisURL)
		if err != nil {
			return nil, fmt.Errorf("failed to parse redis URL: %w", err)
		}
		opts = parsed
	}

	return &RedisStorage{
		client: redis.NewClient(opts),
		logger: logger,
		ttl:    ttl,
	}, nil
}

func saveKey(saveID string) string {
	return saveKeyPrefix + saveID
}

// Health and lifecycle methods

func (r *RedisStorage) Ping(ctx context.Context) error {
	if err := r.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	return nil
}

func (r *RedisStorage) Close() error {
	if err := r.client.Close(); err != nil {
		r.logger.Error("Failed to close Redis connection", "error", err)
		return err
	}
	r.logger.Info("Redis connection closed")
	return nil
}

// WaitForConnection waits for Redis to become available (used during startup)
func (r *RedisStorage) WaitForConnection(ctx context.Context) error {
	maxRetries := 30
	retryDelay := 2 * time.Second

	for i := 0; i < maxRetries; i++ {
		if err := r.Ping(ctx); err != nil {
			r.logger.Debug("Redis not ready yet", "error", err, "attempt", i+1)

			select {
			case <-ctx.Done():
				return fmt.Errorf("context cancelled while waiting for redis: %w", ctx.Err())
			case <-time.After(retryDelay):
				continue
			}
		}

		r.logger.Info("Redis connection established")
		return nil
	}

	return fmt.Errorf("redis did not become available after %d attempts", maxRetries)
}

// Save operations

func (r *RedisStorage) SaveGameState(ctx context.Context, saveID string, gs *state.GameState) error {
	log := logger.WithSaveID(r.logger, saveID)
	if gs == nil {
		return errors.New("gamestate cannot be nil")
	}

	data, err := gs.ToJSON()
	if err != nil {
		log.Error("Failed to encode gamestate", "error", err)
		return fmt.Errorf("failed to encode gamestate: %w", err)
	}

	if err := r.client.Set(ctx, saveKey(saveID), data, r.ttl).Err(); err != nil {
		log.Error("Failed to save gamestate", "error", err)
		return fmt.Errorf("failed to save gamestate: %w", err)
	}

	log.Debug("Gamestate saved", "bytes", len(data))
	return nil
}

func (r *RedisStorage) CreateGameState(ctx context.Context, saveID string, gs *state.GameState) error {
	log := logger.WithSaveID(r.logger, saveID)
	if gs == nil {
		return errors.New("gamestate cannot be nil")
	}

	data, err := gs.ToJSON()
	if err != nil {
		log.Error("Failed to encode gamestate", "error", err)
		return fmt.Errorf("failed to encode gamestate: %w", err)
	}

	created, err := r.client.SetNX(ctx, saveKey(saveID), data, r.ttl).Result()
	if err != nil {
		log.Error("Failed to create gamestate", "error", err)
		return fmt.Errorf("failed to create gamestate: %w", err)
	}
	if !created {
		return storage.ErrSaveExists
	}

	log.Debug("Gamestate created", "bytes", len(data))
	return nil
}

func (r *RedisStorage) LoadGameState(ctx context.Context, saveID string) (*state.GameState, error) {
	log := logger.WithSaveID(r.logger, saveID)
	data, err := r.client.Get(ctx, saveKey(saveID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			log.Warn("Gamestate not found")
			return nil, nil
		}
		log.Error("Failed to load gamestate", "error", err)
		return nil, fmt.Errorf("failed to load gamestate: %w", err)
	}

	gs, err := state.FromJSON(data)
	if err != nil {
		log.Error("Failed to decode gamestate", "error", err)
		return nil, fmt.Errorf("failed to decode gamestate %s: %w", saveID, err)
	}
	return gs, nil
}

func (r *RedisStorage) DeleteGameState(ctx context.Context, saveID string) error {
	if err := r.client.Del(ctx, saveKey(saveID)).Err(); err != nil {
		logger.WithSaveID(r.logger, saveID).Error("Failed to delete gamestate", "error", err)
		return fmt.Errorf("failed to delete gamestate: %w", err)
	}
	return nil
}

func (r *RedisStorage) ListSaves(ctx context.Context) ([]string, error) {
	var keys []string
	iter := r.client.Scan(ctx, 0, saveKeyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		r.logger.Error("Failed to list saves", "error", err)
		return nil, fmt.Errorf("failed to list saves: %w", err)
	}
	return saveIDs(keys), nil
}

// saveIDs strips the key prefix and returns the IDs sorted. SCAN may yield
// a key more than once, so duplicates are dropped.
func saveIDs(keys []string) []string {
	ids := make([]string, 0, len(keys))
	for _, key := range keys {
		ids = append(ids, strings.TrimPrefix(key, saveKeyPrefix))
	}
	slices.Sort(ids)
	return slices.Compact(ids)
}
