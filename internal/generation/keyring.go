package generation

import (
	"strings"
	"sync"

	"github.com/smartlearn/smartlearn-api/internal/redact"
)

// Keyring holds the ordered API keys and the index of the active one.
// It is safe for concurrent use.
type Keyring struct {
	mu      sync.Mutex
	keys    []string
	current int
}

// NewKeyring builds a keyring from keys, dropping blank entries.
func NewKeyring(keys []string) (*Keyring, error) {
	clean := make([]string, 0, len(keys))
	for _, k := range keys {
		if k = strings.TrimSpace(k); k != "" {
			clean = append(clean, k)
		}
	}
	if len(clean) == 0 {
		return nil, ErrNoAPIKeys
	}
	return &Keyring{keys: clean}, nil
}

// Len returns the number of keys.
func (k *Keyring) Len() int {
	return len(k.keys)
}

// Current returns the active key and its index.
func (k *Keyring) Current() (int, string) {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.current, k.keys[k.current]
}

// Next advances the active key cyclically and returns it.
func (k *Keyring) Next() (int, string) {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.current = (k.current + 1) % len(k.keys)
	return k.current, k.keys[k.current]
}

// Masked returns the i-th key in a form safe for logs.
func (k *Keyring) Masked(i int) string {
	if i < 0 || i >= len(k.keys) {
		return ""
	}
	return redact.Key(k.keys[i])
}

// NewRotation starts a rotation for one logical request.
func (k *Keyring) NewRotation() *Rotation {
	return &Rotation{ring: k, tried: make(map[int]bool, len(k.keys))}
}

// Rotation tracks which keys one request has already tried so no key is
// used twice before every key has been used once.
type Rotation struct {
	ring  *Keyring
	tried map[int]bool
}

// Advance marks failed as tried and makes the next untried key active.
// ok is false, and the active key is left alone, when every key has been
// tried.
func (r *Rotation) Advance(failed int) (index int, key string, ok bool) {
	r.tried[failed] = true

	r.ring.mu.Lock()
	defer r.ring.mu.Unlock()

	n := len(r.ring.keys)
	for step := 1; step < n; step++ {
		idx := (failed + step) % n
		if !r.tried[idx] {
			r.ring.current = idx
			return idx, r.ring.keys[idx], true
		}
	}
	return -1, "", false
}

// Tried reports how many distinct keys this rotation has marked as failed.
func (r *Rotation) Tried() int {
	return len(r.tried)
}
