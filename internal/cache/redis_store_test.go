package cache

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Runs only when SMARTLEARN_TEST_REDIS_ADDR points at a disposable Redis.
func TestRedisStoreIntegration(t *testing.T) {
	addr := os.Getenv("SMARTLEARN_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("SMARTLEARN_TEST_REDIS_ADDR not set")
	}

	ctx := context.Background()
	client, err := NewRedisClient(ctx, addr, "", 15)
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })

	clock := newClock()
	s := NewRedisStore(client, nil)
	s.now = clock.Now
	_, err = s.Clear(ctx)
	require.NoError(t, err)

	payload := []byte(`{"topic":"mitosis"}`)
	require.NoError(t, s.Set(ctx, "mitosis", payload, time.Hour))

	got, found, err := s.Get(ctx, "mitosis")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, payload, got)

	stats, err := s.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, "redis", stats.Backend)
	assert.Equal(t, 1, stats.Count)

	clock.Advance(2 * time.Hour)
	_, found, err = s.Get(ctx, "mitosis")
	require.NoError(t, err)
	assert.False(t, found)

	removed, err := s.Clear(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, removed)
}

func TestNewRedisStorePanicsOnNilClient(t *testing.T) {
	t.Parallel()
	assert.Panics(t, func() { NewRedisStore(nil, nil) })
}
