package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopvn/shopvn-backend/config"
	"github.com/shopvn/shopvn-backend/pkg/logger"
)

var client *redis.Client

// ErrCacheMiss is returned when a key is absent or the cache is unavailable
var ErrCacheMiss = errors.New("cache miss")

// Init initializes the Redis connection. Failure is non-fatal: callers fall
// back to the database when the cache is unavailable.
func Init(cfg *config.RedisConfig) error {
	logger.Info("Initializing Redis connection", map[string]interface{}{
		"host": cfg.Host,
		"port": cfg.Port,
		"db":   cfg.DB,
	})

	client = redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn("Redis unavailable, caching disabled", map[string]interface{}{
			"error": err.Error(),
		})
		client = nil
		return err
	}

	logger.Info("Redis connection established", nil)
	return nil
}

// Close closes the Redis connection
func Close() error {
	if client == nil {
		return nil
	}
	return client.Close()
}

// Available reports whether caching is active
func Available() bool {
	return client != nil
}

// GetJSON fetches a key and unmarshals it into dest
func GetJSON(ctx context.Context, key string, dest interface{}) error {
	if client == nil {
		return ErrCacheMiss
	}

	data, err := client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return ErrCacheMiss
		}
		logger.Warn("Redis get failed", map[string]interface{}{
			"key":   key,
			"error": err.Error(),
		})
		return ErrCacheMiss
	}

	return json.Unmarshal(data, dest)
}

// SetJSON marshals value and stores it under key with a TTL
func SetJSON(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if client == nil {
		return nil
	}

	data, err := json.Marshal(value)
	if err != nil {
		return err
	}

	if err := client.Set(ctx, key, data, ttl).Err(); err != nil {
		logger.Warn("Redis set failed", map[string]interface{}{
			"key":   key,
			"error": err.Error(),
		})
	}
	return nil
}

// Delete removes keys, used for invalidation after writes
func Delete(ctx context.Context, keys ...string) {
	if client == nil || len(keys) == 0 {
		return
	}
	if err := client.Del(ctx, keys...).Err(); err != nil {
		logger.Warn("Redis delete failed", map[string]interface{}{
			"keys":  keys,
			"error": err.Error(),
		})
	}
}
