package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStorage implements the Storage interface using Redis.
type RedisStorage struct {
	client *redis.Client
	logger *slog.Logger
}

// Ensure RedisStorage implements Storage interface
var _ Storage = (*RedisStorage)(nil)

// NewRedisStorage creates a new Redis storage instance
func NewRedisStorage(redisURL string, logger *slog.Logger) *RedisStorage {
	rdb := redis.NewClient(&redis.Options{
		Addr: redisURL,
	})
	return &RedisStorage{
		client: rdb,
		logger: logger,
	}
}

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

// Player records persist without a TTL: cloud saves and the endings
// gallery must survive indefinitely.

func playerKey(playerID string) string {
	return "player:" + playerID
}

func (r *RedisStorage) SavePlayerRecord(ctx context.Context, playerID string, rec *PlayerRecord) error {
	if rec == nil {
		return errors.New("player record cannot be nil")
	}
	rec.PlayerID = playerID
	rec.UpdatedAt = time.Now()

	data, err := json.Marshal(rec)
	if err != nil {
		r.logger.Error("Failed to marshal player record", "player_id", playerID, "error", err)
		return fmt.Errorf("failed to marshal player record: %w", err)
	}

	if err := r.client.Set(ctx, playerKey(playerID), data, 0).Err(); err != nil {
		r.logger.Error("Failed to save player record", "player_id", playerID, "error", err)
		return fmt.Errorf("failed to save player record: %w", err)
	}
	return nil
}

func (r *RedisStorage) LoadPlayerRecord(ctx context.Context, playerID string) (*PlayerRecord, error) {
	cmd := r.client.Get(ctx, playerKey(playerID))
	if err := cmd.Err(); err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil // Return nil for not found
		}
		r.logger.Error("Failed to load player record", "player_id", playerID, "error", err)
		return nil, fmt.Errorf("failed to load player record: %w", err)
	}

	var rec PlayerRecord
	if err := json.Unmarshal([]byte(cmd.Val()), &rec); err != nil {
		r.logger.Error("Failed to unmarshal player record", "player_id", playerID, "error", err)
		return nil, fmt.Errorf("failed to unmarshal player record: %w", err)
	}
	return &rec, nil
}
