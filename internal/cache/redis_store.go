package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/smartlearn/smartlearn-api/internal/platform/logger"
)

// RedisKeyPrefix namespaces cache keys in a shared Redis database.
const RedisKeyPrefix = "smartlearn:cache:"

// RedisStore keeps entries in Redis. Expiry is enforced natively with EX and
// again on read from the stored envelope.
type RedisStore struct {
	client redis.UniversalClient
	logger *slog.Logger
	now    func() time.Time
}

var _ Store = (*RedisStore)(nil)

// NewRedisClient opens a client and verifies connectivity.
func NewRedisClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	return client, nil
}

// NewRedisStore wraps an existing client.
func NewRedisStore(client redis.UniversalClient, log *slog.Logger) *RedisStore {
	if client == nil {
		panic("redis client cannot be nil")
	}
	if log == nil {
		log = slog.Default()
	}
	return &RedisStore{
		client: client,
		logger: log.With(slog.String("component", "redis_cache")),
		now:    time.Now,
	}
}

// Get implements Store.
func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	raw, err := s.client.Get(ctx, RedisKeyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get: %w", err)
	}

	var entry Entry
	if err := json.Unmarshal(raw, &entry); err != nil || entry.Key != key || entry.Expired(s.now()) {
		logger.FromContextOrDefault(ctx, s.logger).DebugContext(ctx, "dropping stale or unreadable cache entry",
			slog.String("key", key))
		_ = s.client.Del(ctx, RedisKeyPrefix+key).Err()
		return nil, false, nil
	}
	return entry.Data, true, nil
}

// Set implements Store.
func (s *RedisStore) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	entry, err := newEntry(key, data, s.now(), ttl)
	if err != nil {
		return err
	}
	raw, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("encode cache entry: %w", err)
	}
	if err := s.client.Set(ctx, RedisKeyPrefix+key, raw, effectiveTTL(ttl)).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// Delete implements Store.
func (s *RedisStore) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, RedisKeyPrefix+key).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}

// Clear implements Store.
func (s *RedisStore) Clear(ctx context.Context) (int, error) {
	keys, err := s.keys(ctx)
	if err != nil {
		return 0, err
	}
	if len(keys) == 0 {
		return 0, nil
	}
	n, err := s.client.Del(ctx, keys...).Result()
	if err != nil {
		return 0, fmt.Errorf("redis del: %w", err)
	}
	logger.FromContextOrDefault(ctx, s.logger).InfoContext(ctx, "cache cleared", slog.Int64("removed", n))
	return int(n), nil
}

// Stats implements Store.
func (s *RedisStore) Stats(ctx context.Context) (Stats, error) {
	keys, err := s.keys(ctx)
	if err != nil {
		return Stats{}, err
	}
	var size int64
	for _, k := range keys {
		n, err := s.client.StrLen(ctx, k).Result()
		if err != nil {
			continue
		}
		size += n
	}
	return newStats("redis", len(keys), size), nil
}

func (s *RedisStore) keys(ctx context.Context) ([]string, error) {
	var keys []string
	iter := s.client.Scan(ctx, 0, RedisKeyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("redis scan: %w", err)
	}
	return keys, nil
}
