package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/smartlearn/smartlearn-api/internal/platform/logger"
)

var unsafeFileChars = regexp.MustCompile(`[^a-z0-9._-]+`)

// FileStore keeps one JSON file per key in a directory.
type FileStore struct {
	dir    string
	logger *slog.Logger
	now    func() time.Time
	mu     sync.Mutex
}

var _ Store = (*FileStore)(nil)

// NewFileStore creates the directory if needed and returns a store rooted
// there.
func NewFileStore(dir string, log *slog.Logger) (*FileStore, error) {
	if dir == "" {
		return nil, errors.New("cache directory cannot be empty")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create cache directory: %w", err)
	}
	if log == nil {
		log = slog.Default()
	}
	return &FileStore{
		dir:    dir,
		logger: log.With(slog.String("component", "file_cache")),
		now:    time.Now,
	}, nil
}

// maxSlugLen bounds the readable part of a file name.
const maxSlugLen = 40

// path names the file for key: a readable slug followed by the SHA-256 of
// the exact key, so distinct keys never share a file.
func (s *FileStore) path(key string) string {
	slug := strings.Trim(unsafeFileChars.ReplaceAllString(strings.ToLower(key), "_"), "_.")
	if len(slug) > maxSlugLen {
		slug = slug[:maxSlugLen]
	}
	sum := sha256.Sum256([]byte(key))
	name := hex.EncodeToString(sum[:])
	if slug != "" {
		name = slug + "-" + name
	}
	return filepath.Join(s.dir, name+".json")
}

// Get implements Store.
func (s *FileStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)
	p := s.path(key)

	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := os.ReadFile(p)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("read cache entry: %w", err)
	}

	var entry Entry
	if err := json.Unmarshal(raw, &entry); err != nil {
		// Corrupt entries behave like misses and are discarded.
		log.WarnContext(ctx, "discarding unreadable cache entry", slog.String("key", key), slog.Any("error", err))
		_ = os.Remove(p)
		return nil, false, nil
	}

	if entry.Key != key {
		log.WarnContext(ctx, "cache entry belongs to another key", slog.String("key", key))
		return nil, false, nil
	}

	if entry.Expired(s.now()) {
		log.DebugContext(ctx, "cache entry expired", slog.String("key", key))
		if err := os.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, false, fmt.Errorf("remove expired cache entry: %w", err)
		}
		return nil, false, nil
	}

	return entry.Data, true, nil
}

// Set implements Store.
func (s *FileStore) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	entry, err := newEntry(key, data, s.now(), ttl)
	if err != nil {
		return err
	}
	raw, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("encode cache entry: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Write then rename so readers never observe a partial file.
	tmp, err := os.CreateTemp(s.dir, ".entry-*")
	if err != nil {
		return fmt.Errorf("create cache temp file: %w", err)
	}
	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write cache entry: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("close cache entry: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path(key)); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("store cache entry: %w", err)
	}

	logger.FromContextOrDefault(ctx, s.logger).DebugContext(ctx, "cache entry stored",
		slog.String("key", key),
		slog.Float64("ttl_hours", entry.TTLHours))
	return nil
}

// Delete implements Store.
func (s *FileStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path(key)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("delete cache entry: %w", err)
	}
	return nil
}

// Clear implements Store.
func (s *FileStore) Clear(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	files, err := s.entries()
	if err != nil {
		return 0, err
	}
	removed := 0
	for _, f := range files {
		if err := os.Remove(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return removed, fmt.Errorf("clear cache: %w", err)
		}
		removed++
	}
	logger.FromContextOrDefault(ctx, s.logger).InfoContext(ctx, "cache cleared", slog.Int("removed", removed))
	return removed, nil
}

// Stats implements Store.
func (s *FileStore) Stats(_ context.Context) (Stats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	files, err := s.entries()
	if err != nil {
		return Stats{}, err
	}
	var size int64
	for _, f := range files {
		info, err := os.Stat(f)
		if err != nil {
			continue
		}
		size += info.Size()
	}
	return newStats("file", len(files), size), nil
}

func (s *FileStore) entries() ([]string, error) {
	files, err := filepath.Glob(filepath.Join(s.dir, "*.json"))
	if err != nil {
		return nil, fmt.Errorf("list cache entries: %w", err)
	}
	return files, nil
}
