package cache

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/smartlearn/smartlearn-api/internal/config"
)

// Open builds the backend selected by cfg. The returned close function
// releases backend resources and is never nil.
func Open(ctx context.Context, cfg config.CacheConfig, log *slog.Logger) (Store, func() error, error) {
	noop := func() error { return nil }

	switch cfg.Backend {
	case "memory":
		return NewMemoryStore(), noop, nil
	case "file", "":
		s, err := NewFileStore(cfg.Dir, log)
		if err != nil {
			return nil, noop, err
		}
		return s, noop, nil
	case "redis":
		client, err := NewRedisClient(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			return nil, noop, err
		}
		return NewRedisStore(client, log), client.Close, nil
	default:
		return nil, noop, fmt.Errorf("unknown cache backend %q", cfg.Backend)
	}
}
