package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"log/slog"

	"github.com/amirasaad/payledger/pkg/cache"
	"github.com/amirasaad/payledger/pkg/config"
	"github.com/redis/go-redis/v9"
)

// RedisIdempotencyStore implements IdempotencyStore using Redis.
type RedisIdempotencyStore struct {
	client redis.UniversalClient
	prefix string
	logger *slog.Logger
}

// NewRedisIdempotencyStore parses cfg.URL and connects. The connection is
// checked with PING before returning.
func NewRedisIdempotencyStore(
	ctx context.Context,
	cfg *config.Redis,
	logger *slog.Logger,
) (*RedisIdempotencyStore, error) {
	opt, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, err
	}
	if cfg.PoolSize > 0 {
		opt.PoolSize = cfg.PoolSize
	}
	opt.DialTimeout = cfg.DialTimeout
	opt.ReadTimeout = cfg.ReadTimeout
	opt.WriteTimeout = cfg.WriteTimeout

	client := redis.NewClient(opt)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}
	return NewRedisIdempotencyStoreWithClient(client, cfg.KeyPrefix, logger), nil
}

// NewRedisIdempotencyStoreWithClient wraps an existing client.
func NewRedisIdempotencyStoreWithClient(
	client redis.UniversalClient,
	prefix string,
	logger *slog.Logger,
) *RedisIdempotencyStore {
	return &RedisIdempotencyStore{
		client: client,
		prefix: prefix,
		logger: logger.With("component", "idempotency-redis"),
	}
}

func (r *RedisIdempotencyStore) key(key string) string {
	return r.prefix + "idem:" + key
}

func (r *RedisIdempotencyStore) Get(ctx context.Context, key string) (*cache.StoredResponse, error) {
	val, err := r.client.Get(ctx, r.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		r.logger.Debug("Redis cache miss", "key", key)
		return nil, nil // cache miss
	}
	if err != nil {
		r.logger.Error("Redis cache get error", "key", key, "error", err)
		return nil, err
	}
	var resp cache.StoredResponse
	if err := json.Unmarshal(val, &resp); err != nil {
		r.logger.Error("Redis cache unmarshal error", "key", key, "error", err)
		return nil, err
	}
	r.logger.Debug("Redis cache hit", "key", key, "status", resp.Status)
	return &resp, nil
}

func (r *RedisIdempotencyStore) Set(
	ctx context.Context,
	key string,
	resp *cache.StoredResponse,
	ttl time.Duration,
) error {
	data, err := json.Marshal(resp)
	if err != nil {
		r.logger.Error("Redis cache marshal error", "key", key, "error", err)
		return err
	}
	if err := r.client.Set(ctx, r.key(key), data, ttl).Err(); err != nil {
		r.logger.Error("Redis cache set error", "key", key, "error", err)
		return err
	}
	r.logger.Debug("Redis cache set", "key", key, "status", resp.Status, "ttl", ttl)
	return nil
}

func (r *RedisIdempotencyStore) Delete(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, r.key(key)).Err(); err != nil {
		r.logger.Error("Redis cache delete error", "key", key, "error", err)
		return err
	}
	r.logger.Debug("Redis cache delete", "key", key)
	return nil
}

// Close releases the client.
func (r *RedisIdempotencyStore) Close() error {
	return r.client.Close()
}

var _ cache.IdempotencyStore = (*RedisIdempotencyStore)(nil)
