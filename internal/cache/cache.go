// Package cache stores generated study content keyed by normalised topic.
//
// Entries carry their own write time and time-to-live; an entry read after
// it expired is reported as a miss and removed. Backends are interchangeable
// behind Store.
package cache

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"errors"
	"strings"
	"time"
)

// DefaultTTL applies when Set is called with a non-positive ttl.
const DefaultTTL = 72 * time.Hour

// ErrInvalidPayload is returned when Set receives data that is not JSON.
var ErrInvalidPayload = errors.New("cache payload must be valid JSON")

// Store is implemented by every cache backend. Writes are last-writer-wins
// at key granularity.
type Store interface {
	// Get returns the payload stored under key. found is false on a miss or
	// when the entry has expired.
	Get(ctx context.Context, key string) (data []byte, found bool, err error)

	// Set stores data under key for ttl.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Clear removes every entry and reports how many were removed.
	Clear(ctx context.Context) (int, error)

	// Stats summarises the current contents.
	Stats(ctx context.Context) (Stats, error)
}

// Stats describes the cache contents.
type Stats struct {
	Backend   string  `json:"backend"`
	Count     int     `json:"count"`
	SizeBytes int64   `json:"size_bytes"`
	SizeMB    float64 `json:"size_mb"`
}

func newStats(backend string, count int, size int64) Stats {
	mb := float64(size) / (1024 * 1024)
	return Stats{
		Backend:   backend,
		Count:     count,
		SizeBytes: size,
		SizeMB:    float64(int64(mb*100+0.5)) / 100,
	}
}

// Entry is the persisted envelope around a payload. Data holds the bytes
// given to Set unchanged; Key is checked on read so an entry is only ever
// returned for the key it was written under.
type Entry struct {
	Key       string    `json:"key"`
	Timestamp time.Time `json:"timestamp"`
	TTLHours  float64   `json:"ttl_hours"`
	Data      []byte    `json:"data"`
}

// Expired reports whether the entry is stale at now.
func (e Entry) Expired(now time.Time) bool {
	ttl := time.Duration(e.TTLHours * float64(time.Hour))
	return !now.Before(e.Timestamp.Add(ttl))
}

// Key builds a cache key from a topic and an optional discriminator such as
// a content hash or a mode name.
func Key(topic, suffix string) string {
	k := strings.ToLower(strings.TrimSpace(topic))
	if suffix != "" {
		k += "_" + suffix
	}
	return k
}

// ContentHash returns the first eight hex digits of the MD5 of content, or
// "" for empty content.
func ContentHash(content string) string {
	if content == "" {
		return ""
	}
	sum := md5.Sum([]byte(content))
	return hex.EncodeToString(sum[:])[:8]
}

func effectiveTTL(ttl time.Duration) time.Duration {
	if ttl <= 0 {
		return DefaultTTL
	}
	return ttl
}

// newEntry wraps a copy of data for key.
func newEntry(key string, data []byte, now time.Time, ttl time.Duration) (Entry, error) {
	if !json.Valid(data) {
		return Entry{}, ErrInvalidPayload
	}
	return Entry{
		Key:       key,
		Timestamp: now.UTC(),
		TTLHours:  effectiveTTL(ttl).Hours(),
		Data:      append([]byte(nil), data...),
	}, nil
}
